package store

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

const dimensionsKey = "dimensions"

// ChromemIndex is an embedded vector index backed by chromem-go.
// It is in-memory unless opened with a persistence directory.
type ChromemIndex struct {
	db *chromem.DB
	mu sync.Mutex // guards collection creation
}

func NewChromemIndex() *ChromemIndex {
	return &ChromemIndex{db: chromem.NewDB()}
}

// NewPersistentChromemIndex stores collections as gob files under dir.
func NewPersistentChromemIndex(dir string) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db at %s: %w", dir, err)
	}
	return &ChromemIndex{db: db}, nil
}

func (s *ChromemIndex) collection(name string) *chromem.Collection {
	// Embeddings are always supplied by the caller, so no embedding func is needed.
	return s.db.GetCollection(name, nil)
}

func (s *ChromemIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.collection(name) != nil, nil
}

func (s *ChromemIndex) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection(name) != nil {
		return nil
	}
	_, err := s.db.CreateCollection(name, map[string]string{dimensionsKey: strconv.Itoa(dimensions)}, nil)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func (s *ChromemIndex) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	col := s.collection(collection)
	if col == nil {
		return fmt.Errorf("collection %s: %w", collection, ErrNotFound)
	}

	for _, p := range points {
		doc := chromem.Document{
			ID:        p.ID.String(),
			Metadata:  maps.Clone(p.Payload),
			Embedding: p.Vector,
			Content:   p.Payload[domain.PayloadText],
		}
		// AddDocument replaces any document with the same ID.
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *ChromemIndex) Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.VectorHit, error) {
	col := s.collection(collection)
	if col == nil {
		return nil, nil
	}

	// chromem-go rejects nResults larger than the collection.
	n := limit
	if count := col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(results))
	for _, r := range results {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			continue
		}
		hits = append(hits, domain.VectorHit{
			VectorPoint: domain.VectorPoint{ID: id, Vector: r.Embedding, Payload: r.Metadata},
			Score:       r.Similarity,
		})
	}
	return hits, nil
}

func (s *ChromemIndex) Count(ctx context.Context, collection string) (int, error) {
	col := s.collection(collection)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

func (s *ChromemIndex) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	col := s.collection(collection)
	if col == nil {
		return ErrNotFound
	}
	return col.Delete(ctx, nil, nil, id.String())
}

// Close is a no-op; persistent collections are written on every add.
func (s *ChromemIndex) Close() error {
	return nil
}
