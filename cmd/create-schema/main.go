package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"legid-backend/config"
	"legid-backend/repository"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS legal_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Document identification
    source_type VARCHAR(50) NOT NULL,
    source_document VARCHAR(255) NOT NULL,
    chunk_index INTEGER NOT NULL,
    source_url TEXT,

    -- Content
    chunk_text TEXT NOT NULL,

    -- Retrieval filters
    authority_level VARCHAR(20) NOT NULL DEFAULT 'secondary'
        CHECK (authority_level IN ('primary', 'official', 'secondary')),
    jurisdiction VARCHAR(100),
    metadata JSONB DEFAULT '{}'::jsonb,

    embedding vector(%d),

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),

    CONSTRAINT chunk_order_unique UNIQUE (source_document, chunk_index)
);`

var indexes = []struct {
	name string
	sql  string
}{
	{
		name: "Vector similarity search (HNSW)",
		sql: `CREATE INDEX IF NOT EXISTS idx_embedding_hnsw ON legal_chunks
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
	},
	{
		name: "Jurisdiction filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_jurisdiction ON legal_chunks(jurisdiction) WHERE jurisdiction IS NOT NULL;",
	},
	{
		name: "Authority filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_authority_level ON legal_chunks(authority_level);",
	},
	{
		name: "Source document filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_source_document ON legal_chunks(source_document);",
	},
	{
		name: "Metadata JSONB filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_metadata_gin ON legal_chunks USING gin (metadata);",
	},
}

func main() {
	drop := flag.Bool("drop", false, "drop the existing legal_chunks table first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *drop {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS legal_chunks CASCADE"); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
		log.Println("Dropped existing legal_chunks table (if any)")
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(schemaSQL, repository.EmbeddingDimensions)); err != nil {
		log.Fatalf("Failed to create legal_chunks table: %v", err)
	}
	log.Println("Created legal_chunks table")

	created := 0
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
			continue
		}
		created++
		log.Printf("Created index: %s", idx.name)
	}

	fmt.Println("\nDatabase schema created successfully!")
	fmt.Println("   Table: legal_chunks")
	fmt.Printf("   Indexes: %d of %d created\n", created, len(indexes))
}
