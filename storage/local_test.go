package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "prompts/writer.tmpl", strings.NewReader("hello")))
	require.NoError(t, s.Put(ctx, "corpus/on/rta.txt", strings.NewReader("text")))

	data, err := ReadAll(ctx, s, "prompts/writer.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	keys, err := s.List(ctx, "prompts/")
	require.NoError(t, err)
	assert.Equal(t, []string{"prompts/writer.tmpl"}, keys)

	require.NoError(t, s.Delete(ctx, "prompts/writer.tmpl"))
	require.NoError(t, s.Delete(ctx, "prompts/writer.tmpl"))

	_, err = s.Get(ctx, "prompts/writer.tmpl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, s.Put(context.Background(), "", strings.NewReader("x")), ErrInvalidKey)
}

func TestNewStorage_Validation(t *testing.T) {
	_, err := NewStorage(context.Background(), StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = NewStorage(context.Background(), StorageConfig{Type: StorageTypeS3})
	assert.Error(t, err)
}
