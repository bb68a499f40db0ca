package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMemoryTextEmpty = errors.New("memory text is required")

// VectorStore is the long-term memory store. It embeds text, deduplicates
// near-identical facts and searches by similarity over a single collection.
type VectorStore struct {
	index      domain.VectorIndex
	embedder   domain.EmbeddingClient
	collection string
	threshold  float32
	logger     *zap.Logger

	// serializes FindDuplicate+write so concurrent upserts of the same fact converge
	writeMu sync.Mutex
}

func NewVectorStore(index domain.VectorIndex, embedder domain.EmbeddingClient, logger *zap.Logger) *VectorStore {
	return &VectorStore{
		index:      index,
		embedder:   embedder,
		collection: domain.MemoryCollection,
		threshold:  domain.SimilarityThreshold,
		logger:     logger,
	}
}

func (s *VectorStore) embed(ctx context.Context, op, text string) ([]float32, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.Collaborator(op, err)
	}
	if len(vec) == 0 {
		return nil, domain.Collaborator(op, errors.New("empty embedding"))
	}
	return vec, nil
}

// Search returns up to topK memories most similar to query, best first.
// A missing collection yields an empty result.
func (s *VectorStore) Search(ctx context.Context, query string, topK int) ([]domain.MemoryWithScore, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Validation("search memories", errors.New("query is required"))
	}
	if topK <= 0 {
		return nil, domain.Validation("search memories", errors.New("top_k must be positive"))
	}

	exists, err := s.index.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, domain.Storage("search memories", err)
	}
	if !exists {
		return []domain.MemoryWithScore{}, nil
	}

	vec, err := s.embed(ctx, "search memories", query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, s.collection, vec, topK)
	if err != nil {
		return nil, domain.Storage("search memories", err)
	}

	results := make([]domain.MemoryWithScore, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.MemoryWithScore{
			Memory: domain.PointToMemory(h.VectorPoint),
			Score:  h.Score,
		})
	}
	return results, nil
}

// FindDuplicate returns the closest stored memory if its similarity to text
// is at or above the dedup threshold, and nil otherwise.
func (s *VectorStore) FindDuplicate(ctx context.Context, text string) (*domain.MemoryWithScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.Validation("find duplicate", ErrMemoryTextEmpty)
	}

	exists, err := s.index.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, domain.Storage("find duplicate", err)
	}
	if !exists {
		return nil, nil
	}

	vec, err := s.embed(ctx, "find duplicate", text)
	if err != nil {
		return nil, err
	}
	return s.closest(ctx, vec)
}

func (s *VectorStore) closest(ctx context.Context, vec []float32) (*domain.MemoryWithScore, error) {
	hits, err := s.index.Query(ctx, s.collection, vec, 1)
	if err != nil {
		return nil, domain.Storage("find duplicate", err)
	}
	if len(hits) == 0 || hits[0].Score < s.threshold {
		return nil, nil
	}
	return &domain.MemoryWithScore{
		Memory: domain.PointToMemory(hits[0].VectorPoint),
		Score:  hits[0].Score,
	}, nil
}

// Upsert stores text as a memory. If a near-duplicate exists its id is
// reused and the record is overwritten; otherwise a new id is minted.
// The collection is created on first write.
func (s *VectorStore) Upsert(ctx context.Context, text string, metadata map[string]string) (*domain.Memory, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Validation("upsert memory", ErrMemoryTextEmpty)
	}

	vec, err := s.embed(ctx, "upsert memory", text)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	exists, err := s.index.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, domain.Storage("upsert memory", err)
	}

	id := uuid.New()
	if exists {
		dup, err := s.closest(ctx, vec)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			s.logger.Debug("overwriting near-duplicate memory",
				zap.String("memory_id", dup.ID.String()),
				zap.Float32("similarity", dup.Score))
			id = dup.ID
		}
	} else {
		if err := s.index.EnsureCollection(ctx, s.collection, len(vec)); err != nil {
			return nil, domain.Storage("upsert memory", err)
		}
		s.logger.Info("created memory collection",
			zap.String("collection", s.collection),
			zap.Int("dimensions", len(vec)))
	}

	m := domain.Memory{
		ID:        id,
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
	if err := s.index.Upsert(ctx, s.collection, []domain.VectorPoint{domain.MemoryToPoint(m)}); err != nil {
		return nil, domain.Storage("upsert memory", err)
	}
	return &m, nil
}

// Count returns the number of stored memories.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	n, err := s.index.Count(ctx, s.collection)
	if err != nil {
		return 0, domain.Storage("count memories", err)
	}
	return n, nil
}
