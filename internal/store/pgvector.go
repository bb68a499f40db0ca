package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PGVectorIndex keeps each collection in its own table with a pgvector column.
type PGVectorIndex struct {
	db *pgxpool.Pool
}

func NewPGVectorIndex(db *pgxpool.Pool) *PGVectorIndex {
	return &PGVectorIndex{db: db}
}

func tableName(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}

func (s *PGVectorIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, tableName(name)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", name, err)
	}
	return exists, nil
}

func (s *PGVectorIndex) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive", name)
	}
	if _, err := s.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	_, err := s.db.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY,
			embedding  vector(%d) NOT NULL,
			payload    JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tableName(name), dimensions))
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func (s *PGVectorIndex) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, payload, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload, updated_at = NOW()`,
		tableName(collection))

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, p.ID, pgvector.NewVector(p.Vector), p.Payload)
	}

	br := s.db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert into %s: %w", collection, err)
		}
	}
	return nil
}

func (s *PGVectorIndex) Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.VectorHit, error) {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT id, payload, 1 - (embedding <=> $1) AS score
		 FROM %s
		 ORDER BY embedding <=> $1
		 LIMIT $2`, tableName(collection)),
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var hits []domain.VectorHit
	for rows.Next() {
		var h domain.VectorHit
		if err := rows.Scan(&h.ID, &h.Payload, &h.Score); err != nil {
			return nil, fmt.Errorf("scan query row: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	return hits, nil
}

func (s *PGVectorIndex) Count(ctx context.Context, collection string) (int, error) {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil || !exists {
		return 0, err
	}
	var count int
	err = s.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, tableName(collection))).Scan(&count)
	return count, err
}

func (s *PGVectorIndex) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tableName(collection)), id)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "42P01" {
			return ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PGVectorIndex) Close() error {
	return nil
}
