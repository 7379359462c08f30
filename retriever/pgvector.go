package retriever

import (
	"context"
	"fmt"

	"legid-backend/llm"
	"legid-backend/models"
)

// ChunkSearcher is the nearest-neighbour query PGVector runs. It is
// satisfied by repository.LegalChunkRepository.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float64, jurisdiction string, limit int) ([]models.LegalChunk, error)
}

// PGVector embeds the query and searches the legal_chunks table
type PGVector struct {
	embedder     llm.Embedder
	chunks       ChunkSearcher
	jurisdiction string
}

// NewPGVector creates a pgvector retriever. jurisdiction may be empty.
func NewPGVector(embedder llm.Embedder, chunks ChunkSearcher, jurisdiction string) *PGVector {
	return &PGVector{embedder: embedder, chunks: chunks, jurisdiction: jurisdiction}
}

// Search implements Retriever
func (p *PGVector) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := p.chunks.Search(ctx, embedding, p.jurisdiction, k)
	if err != nil {
		return nil, err
	}

	hits := make([]models.SearchHit, 0, len(chunks))
	for _, c := range chunks {
		meta := map[string]interface{}{
			MetaAuthority:  string(c.AuthorityLevel),
			MetaSourceType: c.SourceType,
		}
		if c.SourceURL != nil {
			meta[MetaURL] = *c.SourceURL
		}
		if c.Jurisdiction != nil {
			meta[MetaJurisdiction] = *c.Jurisdiction
		}
		for k, v := range c.Metadata {
			if _, taken := meta[k]; !taken {
				meta[k] = v
			}
		}
		hits = append(hits, models.SearchHit{
			ID:       c.ID.String(),
			Text:     c.Text,
			Source:   c.SourceDocument,
			Score:    1 - c.Distance,
			Metadata: meta,
		})
	}
	return hits, nil
}
