package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legid-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDimensions is the width of the legal_chunks.embedding column
const EmbeddingDimensions = 768

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// LegalChunkRepository handles database operations for legal chunks
type LegalChunkRepository struct {
	db *pgxpool.Pool
}

// NewLegalChunkRepository creates a new legal chunk repository
func NewLegalChunkRepository(db *pgxpool.Pool) *LegalChunkRepository {
	return &LegalChunkRepository{db: db}
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(embedding))
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func checkDimensions(embedding []float64) error {
	if len(embedding) != EmbeddingDimensions {
		return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, EmbeddingDimensions, len(embedding))
	}
	return nil
}

// Search returns the limit nearest chunks by cosine distance.
// jurisdiction narrows the search when non-empty; chunks stored without a
// jurisdiction always qualify.
func (r *LegalChunkRepository) Search(
	ctx context.Context,
	embedding []float64,
	jurisdiction string,
	limit int,
) ([]models.LegalChunk, error) {
	if err := checkDimensions(embedding); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}

	args := []interface{}{formatVector(embedding), limit}
	filter := "TRUE"
	if jurisdiction != "" {
		filter = "(jurisdiction IS NULL OR jurisdiction ILIKE $3)"
		args = append(args, jurisdiction)
	}

	query := fmt.Sprintf(`
		SELECT
			id,
			chunk_text,
			source_type,
			source_document,
			chunk_index,
			source_url,
			authority_level,
			jurisdiction,
			metadata,
			embedding <=> $1::vector AS distance
		FROM legal_chunks
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query legal chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.LegalChunk
	for rows.Next() {
		var chunk models.LegalChunk
		var authority string
		err := rows.Scan(
			&chunk.ID,
			&chunk.Text,
			&chunk.SourceType,
			&chunk.SourceDocument,
			&chunk.ChunkIndex,
			&chunk.SourceURL,
			&authority,
			&chunk.Jurisdiction,
			&chunk.Metadata,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legal chunk: %w", err)
		}
		chunk.AuthorityLevel = models.ParseAuthorityLevel(authority)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legal chunks: %w", err)
	}

	return chunks, nil
}

// Upsert inserts a chunk, replacing the text and embedding of an existing
// (source_document, chunk_index) pair.
func (r *LegalChunkRepository) Upsert(ctx context.Context, chunk *models.LegalChunk) error {
	if err := checkDimensions(chunk.Embedding); err != nil {
		return err
	}
	if chunk.AuthorityLevel == "" {
		chunk.AuthorityLevel = models.ParseAuthorityLevel(chunk.SourceType)
	}

	query := `
		INSERT INTO legal_chunks (
			id, chunk_text, source_type, source_document, chunk_index,
			source_url, authority_level, jurisdiction, metadata, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
		ON CONFLICT (source_document, chunk_index) DO UPDATE SET
			chunk_text = EXCLUDED.chunk_text,
			source_url = EXCLUDED.source_url,
			authority_level = EXCLUDED.authority_level,
			jurisdiction = EXCLUDED.jurisdiction,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = NOW()`

	metadata := chunk.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	_, err := r.db.Exec(ctx, query,
		chunk.ID,
		chunk.Text,
		chunk.SourceType,
		chunk.SourceDocument,
		chunk.ChunkIndex,
		chunk.SourceURL,
		string(chunk.AuthorityLevel),
		chunk.Jurisdiction,
		metadata,
		formatVector(chunk.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert legal chunk: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks
func (r *LegalChunkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM legal_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count legal chunks: %w", err)
	}
	return n, nil
}

// DeleteFrom removes the chunks of a document at or past fromIndex. Ingest
// calls it after re-chunking a document that got shorter.
func (r *LegalChunkRepository) DeleteFrom(ctx context.Context, sourceDocument string, fromIndex int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM legal_chunks WHERE source_document = $1 AND chunk_index >= $2",
		sourceDocument, fromIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}
