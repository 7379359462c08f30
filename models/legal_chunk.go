package models

import (
	"github.com/google/uuid"
)

// LegalChunk represents a chunk of legal text stored in the pgvector knowledge base
type LegalChunk struct {
	ID             uuid.UUID              `json:"id"`
	Text           string                 `json:"text"`
	SourceType     string                 `json:"source_type"` // "statute", "regulation", "tribunal_decision", "guidance", "commentary"
	SourceDocument string                 `json:"source_document"`
	ChunkIndex     int                    `json:"chunk_index"`
	SourceURL      *string                `json:"source_url,omitempty"`
	AuthorityLevel AuthorityLevel         `json:"authority_level"`
	Jurisdiction   *string                `json:"jurisdiction,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Embedding      []float64              `json:"-"`
	Distance       float64                `json:"distance,omitempty"` // Vector similarity distance
}
