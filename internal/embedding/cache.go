package embedding

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/dgraph-io/ristretto"
)

// CachedClient memoizes embeddings by exact text. Embedding is deterministic
// for a fixed model, so a hit is always equivalent to a fresh call.
type CachedClient struct {
	next  domain.EmbeddingClient
	cache *ristretto.Cache
}

// NewCachedClient wraps next with a cache bounded to maxBytes of vector data.
func NewCachedClient(next domain.EmbeddingClient, maxBytes int64) (*CachedClient, error) {
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedClient{next: next, cache: cache}, nil
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

// Wait blocks until pending cache writes are visible.
func (c *CachedClient) Wait() {
	c.cache.Wait()
}

func (c *CachedClient) Close() {
	c.cache.Close()
}
