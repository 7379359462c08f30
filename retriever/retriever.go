// Package retriever is the search boundary of the pipeline. A Retriever
// returns the top-k passages for a query; backends are pgvector (Postgres)
// and Weaviate, optionally fronted by an in-memory cache.
package retriever

import (
	"context"
	"errors"

	"legid-backend/models"
)

var ErrUnknownBackend = errors.New("unknown retriever backend")

// Retriever returns the k best passages for a query
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchHit, error)
}

// Func adapts a function to Retriever
type Func func(ctx context.Context, query string, k int) ([]models.SearchHit, error)

// Search calls f
func (f Func) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	return f(ctx, query, k)
}

// Metadata keys set by every backend
const (
	MetaAuthority    = "authority_level"
	MetaURL          = "url"
	MetaSourceType   = "source_type"
	MetaJurisdiction = "jurisdiction"
)
