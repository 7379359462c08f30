package repository

import (
	"context"
	"testing"

	"legid-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.100000,-0.500000,1.000000]", formatVector([]float64{0.1, -0.5, 1}))
}

func TestSearch_RejectsWrongDimensions(t *testing.T) {
	repo := NewLegalChunkRepository(nil)

	_, err := repo.Search(context.Background(), []float64{1, 2, 3}, "", 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = repo.Upsert(context.Background(), &models.LegalChunk{Embedding: make([]float64, 10)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
