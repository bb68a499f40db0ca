package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName_QuotesCollection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"companion_memories", `"companion_memories"`},
		{"Mixed Case", `"Mixed Case"`},
		{`evil"; DROP TABLE x; --`, `"evil""; DROP TABLE x; --"`},
		{"dots.are.kept", `"dots.are.kept"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tableName(tt.in), tt.in)
	}
}

func TestPGVectorIndex_EnsureCollectionRejectsZeroDimensions(t *testing.T) {
	idx := NewPGVectorIndex(nil)
	err := idx.EnsureCollection(context.Background(), "c", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions must be positive")
}

// newTestPool connects to DATABASE_URL, skipping when it is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)
	return pool
}

func TestPGVectorIndex_RoundTrip(t *testing.T) {
	pool := newTestPool(t)
	idx := NewPGVectorIndex(pool)
	ctx := context.Background()

	collection := fmt.Sprintf("test_memories_%s", uuid.NewString()[:8])
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+tableName(collection))
	})

	exists, err := idx.CollectionExists(ctx, collection)
	require.NoError(t, err)
	assert.False(t, exists)

	hits, err := idx.Query(ctx, collection, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	count, err := idx.Count(ctx, collection)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, idx.EnsureCollection(ctx, collection, 3))
	require.NoError(t, idx.EnsureCollection(ctx, collection, 3))

	exists, err = idx.CollectionExists(ctx, collection)
	require.NoError(t, err)
	assert.True(t, exists)

	same := point("My dog's name is Rex", 1, 0, 0)
	near := point("I have a cat", 0.8, 0.6, 0)
	orthogonal := point("I live in Lisbon", 0, 0, 1)
	require.NoError(t, idx.Upsert(ctx, collection, []domain.VectorPoint{orthogonal, near, same}))

	count, err = idx.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err = idx.Query(ctx, collection, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, same.ID, hits[0].ID)
	assert.Equal(t, "My dog's name is Rex", hits[0].Payload[domain.PayloadText])
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5, "identical vectors score 1")
	assert.Equal(t, near.ID, hits[1].ID)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-5)
	assert.Equal(t, orthogonal.ID, hits[2].ID)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-5)
	assert.GreaterOrEqual(t, hits[0].Score, float32(domain.SimilarityThreshold))
	assert.Less(t, hits[2].Score, float32(domain.SimilarityThreshold))

	// Upsert on an existing id replaces the row.
	same.Payload[domain.PayloadText] = "My dog's name is Max"
	require.NoError(t, idx.Upsert(ctx, collection, []domain.VectorPoint{same}))
	count, err = idx.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err = idx.Query(ctx, collection, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "My dog's name is Max", hits[0].Payload[domain.PayloadText])

	require.NoError(t, idx.Delete(ctx, collection, same.ID))
	assert.ErrorIs(t, idx.Delete(ctx, collection, same.ID), ErrNotFound)
	assert.ErrorIs(t, idx.Delete(ctx, "missing_"+collection, same.ID), ErrNotFound)

	count, err = idx.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
