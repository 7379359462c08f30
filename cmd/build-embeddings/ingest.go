package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/storage"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxChunkRunes = 1500
	defaultWorkers       = 4
)

// chunkWriter is the subset of repository.LegalChunkRepository ingest needs
type chunkWriter interface {
	Upsert(ctx context.Context, chunk *models.LegalChunk) error
	DeleteFrom(ctx context.Context, sourceDocument string, fromIndex int) (int64, error)
}

type ingestStats struct {
	Documents int
	Chunks    int
	Failed    int
}

type ingester struct {
	store    storage.Storage
	embedder llm.Embedder
	chunks   chunkWriter
	prefix   string
	maxRunes int
	workers  int
}

// Run ingests every .txt and .md object under the prefix. A failing document
// is logged and skipped; the failures are returned together at the end.
func (in *ingester) Run(ctx context.Context) (ingestStats, error) {
	var stats ingestStats
	keys, err := in.store.List(ctx, in.prefix)
	if err != nil {
		return stats, err
	}

	var result *multierror.Error
	for _, key := range keys {
		if !models.IsCorpusDocument(key) {
			continue
		}
		slog.Info("processing document", "key", key)
		n, err := in.ingestDocument(ctx, key)
		if err != nil {
			slog.Error("failed to ingest document", "key", key, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
			stats.Failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		stats.Documents++
		stats.Chunks += n
		slog.Info("document ingested", "key", key, "chunks", n)
	}
	return stats, result.ErrorOrNil()
}

func (in *ingester) ingestDocument(ctx context.Context, key string) (int, error) {
	data, err := storage.ReadAll(ctx, in.store, key)
	if err != nil {
		return 0, err
	}
	meta, err := in.loadMeta(ctx, key)
	if err != nil {
		return 0, err
	}

	rel := strings.TrimPrefix(key, in.prefix)
	doc := meta.Title
	if doc == "" {
		doc = rel
	}
	sourceType := meta.SourceType
	if sourceType == "" {
		sourceType = sourceTypeFor(rel, string(data))
	}
	authority := models.ParseAuthorityLevel(sourceType)
	if meta.Authority != "" {
		authority = models.ParseAuthorityLevel(meta.Authority)
	}
	jurisdiction := meta.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = jurisdictionFor(rel)
	}

	texts := splitChunks(string(data), in.maxRunes)
	if len(texts) == 0 {
		return 0, errors.New("document is empty")
	}

	chunks := make([]*models.LegalChunk, len(texts))
	for i, text := range texts {
		c := &models.LegalChunk{
			ID:             uuid.New(),
			Text:           text,
			SourceType:     sourceType,
			SourceDocument: doc,
			ChunkIndex:     i,
			AuthorityLevel: authority,
			Metadata:       map[string]interface{}{"storage_key": key},
		}
		if meta.SourceURL != "" {
			c.SourceURL = &meta.SourceURL
		}
		if jurisdiction != "" {
			c.Jurisdiction = &jurisdiction
		}
		chunks[i] = c
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, in.workers))
	for _, c := range chunks {
		g.Go(func() error {
			vec, err := in.embedder.Embed(gctx, embeddingInput(c))
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", c.ChunkIndex, err)
			}
			c.Embedding = vec
			return in.chunks.Upsert(gctx, c)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	stale, err := in.chunks.DeleteFrom(ctx, doc, len(chunks))
	if err != nil {
		return 0, err
	}
	if stale > 0 {
		slog.Info("removed stale chunks", "document", doc, "count", stale)
	}
	return len(chunks), nil
}

func (in *ingester) loadMeta(ctx context.Context, key string) (models.DocumentMeta, error) {
	var meta models.DocumentMeta
	data, err := storage.ReadAll(ctx, in.store, models.DocumentMetaKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return meta, nil
	}
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse metadata sidecar: %w", err)
	}
	return meta, nil
}

// jurisdictionFor takes the first directory of a corpus-relative key
// ("ontario/rta.txt" -> "ontario")
func jurisdictionFor(rel string) string {
	if dir, _, ok := strings.Cut(rel, "/"); ok {
		return dir
	}
	return ""
}

// sourceTypeFor guesses the source type from the words of the file name,
// then from the opening of the text
func sourceTypeFor(name, content string) string {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(path.Base(name)), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	switch {
	case words["regulation"] || words["regulations"] || words["reg"]:
		return "regulation"
	case words["act"] || words["code"] || words["statute"]:
		return "statute"
	case words["decision"] || words["tribunal"] || words["ruling"]:
		return "tribunal_decision"
	case words["guide"] || words["guidance"] || words["faq"]:
		return "guidance"
	}

	opening := strings.ToLower(firstRunes(content, 500))
	switch {
	case strings.Contains(opening, "in the matter of") || strings.Contains(opening, "reasons for decision"):
		return "tribunal_decision"
	case strings.Contains(opening, "enacts as follows"):
		return "statute"
	}
	return "commentary"
}

// embeddingInput prefixes the chunk text with its source and jurisdiction
func embeddingInput(c *models.LegalChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s: %s]\n", strings.ToUpper(c.SourceType), c.SourceDocument)
	if c.Jurisdiction != nil {
		fmt.Fprintf(&b, "[JURISDICTION: %s]\n", *c.Jurisdiction)
	}
	b.WriteString("\n")
	b.WriteString(c.Text)
	return b.String()
}

// splitChunks packs blank-line separated paragraphs into chunks of at most
// maxRunes. Paragraphs longer than that are split between words.
func splitChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = defaultMaxChunkRunes
	}

	var chunks []string
	var cur strings.Builder
	n := 0
	flush := func() {
		if n > 0 {
			chunks = append(chunks, cur.String())
		}
		cur.Reset()
		n = 0
	}

	for _, para := range paragraphs(text) {
		for _, piece := range splitWords(para, maxRunes) {
			size := utf8.RuneCountInString(piece)
			if n > 0 && n+2+size > maxRunes {
				flush()
			}
			if n > 0 {
				cur.WriteString("\n\n")
				n += 2
			}
			cur.WriteString(piece)
			n += size
		}
	}
	flush()
	return chunks
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitWords(para string, maxRunes int) []string {
	if utf8.RuneCountInString(para) <= maxRunes {
		return []string{para}
	}
	var out []string
	var cur []string
	n := 0
	for _, w := range strings.Fields(para) {
		size := utf8.RuneCountInString(w)
		if n > 0 && n+1+size > maxRunes {
			out = append(out, strings.Join(cur, " "))
			cur, n = cur[:0], 0
		}
		if n > 0 {
			n++
		}
		cur = append(cur, w)
		n += size
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
