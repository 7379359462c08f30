package retriever

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"legid-backend/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/blake2b"
)

// Cached memoizes successful searches for ttl. Errors are never cached.
type Cached struct {
	next  Retriever
	cache *expirable.LRU[string, []models.SearchHit]
}

// NewCached wraps next with an LRU of size entries
func NewCached(next Retriever, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 512
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []models.SearchHit](size, nil, ttl),
	}
}

func cacheKey(query string, k int) string {
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := blake2b.Sum256([]byte(strconv.Itoa(k) + "|" + norm))
	return hex.EncodeToString(sum[:])
}

// Search implements Retriever
func (c *Cached) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	key := cacheKey(query, k)
	if hits, ok := c.cache.Get(key); ok {
		return cloneHits(hits), nil
	}
	hits, err := c.next.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneHits(hits))
	return hits, nil
}

// Len reports the number of cached queries
func (c *Cached) Len() int {
	return c.cache.Len()
}

func cloneHits(in []models.SearchHit) []models.SearchHit {
	out := make([]models.SearchHit, len(in))
	copy(out, in)
	return out
}
