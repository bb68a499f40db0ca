package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MemoryCollection is the single long-term memory namespace shared by all sessions.
	MemoryCollection = "long_term_memory"
	// SimilarityThreshold is the minimum cosine similarity at which two memories are the same fact.
	SimilarityThreshold = 0.9
)

// Payload keys written alongside every memory vector.
const (
	PayloadText      = "text"
	PayloadID        = "id"
	PayloadTimestamp = "timestamp"
)

type Memory struct {
	ID        uuid.UUID         `json:"id"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MemoryWithScore is a search hit. Score is cosine similarity, higher is better.
type MemoryWithScore struct {
	Memory
	Score float32 `json:"score"`
}

// MemoryAnalysis is the importance classifier's verdict on a human message.
type MemoryAnalysis struct {
	IsImportant     bool   `json:"is_important"`
	FormattedMemory string `json:"formatted_memory,omitempty"`
}

// VectorPoint is one record of the vector index.
type VectorPoint struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]string
}

// VectorHit is a query result from the vector index.
type VectorHit struct {
	VectorPoint
	Score float32
}

// PointToMemory rebuilds a Memory from an index point.
// Payload keys other than text/id/timestamp end up in Metadata.
func PointToMemory(p VectorPoint) Memory {
	m := Memory{
		ID:        p.ID,
		Text:      p.Payload[PayloadText],
		Embedding: p.Vector,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Payload[PayloadTimestamp]); err == nil {
		m.Timestamp = ts
	}
	for k, v := range p.Payload {
		switch k {
		case PayloadText, PayloadID, PayloadTimestamp:
			continue
		}
		if m.Metadata == nil {
			m.Metadata = make(map[string]string)
		}
		m.Metadata[k] = v
	}
	return m
}

// MemoryToPoint builds the index point for m.
func MemoryToPoint(m Memory) VectorPoint {
	payload := make(map[string]string, len(m.Metadata)+3)
	for k, v := range m.Metadata {
		payload[k] = v
	}
	payload[PayloadText] = m.Text
	payload[PayloadID] = m.ID.String()
	payload[PayloadTimestamp] = m.Timestamp.UTC().Format(time.RFC3339Nano)
	return VectorPoint{ID: m.ID, Vector: m.Embedding, Payload: payload}
}
