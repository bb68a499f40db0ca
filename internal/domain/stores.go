package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VectorIndex is the persistence backend behind the memory store.
// Query scores are cosine similarity, highest first.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	EnsureCollection(ctx context.Context, name string, dimensions int) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]VectorHit, error)
	Count(ctx context.Context, collection string) (int, error)
	Delete(ctx context.Context, collection string, id uuid.UUID) error
	Close() error
}

// SessionStore checkpoints conversation state between turns.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*ConversationState, error)
	Save(ctx context.Context, s *ConversationState) error
	Delete(ctx context.Context, sessionID string) error
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ResponseRequest carries everything the character response needs.
type ResponseRequest struct {
	Messages        []Message
	Summary         string
	MemoryContext   string
	CurrentActivity string
	ApplyActivity   bool
}

// Scenario is the narrative plus visual prompt for an image turn.
type Scenario struct {
	Narrative   string `json:"narrative"`
	ImagePrompt string `json:"image_prompt"`
}

// LLMClient covers every structured LLM call the decision core makes.
type LLMClient interface {
	Route(ctx context.Context, recent []Message) (Workflow, error)
	AnalyzeMemory(ctx context.Context, text string) (*MemoryAnalysis, error)
	Respond(ctx context.Context, req ResponseRequest) (string, error)
	Summarize(ctx context.Context, summary string, messages []Message) (string, error)
	CreateScenario(ctx context.Context, history []Message) (*Scenario, error)
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type ImageCaptioner interface {
	Caption(ctx context.Context, image []byte, prompt string) (string, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
