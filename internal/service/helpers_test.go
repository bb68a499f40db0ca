package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/embedding"
	"github.com/google/uuid"
)

// unitVec is the 8-dimensional vector a*e0 + b*e1, normalized.
func unitVec(a, b float64) []float32 {
	vec := make([]float32, 8)
	vec[0] = float32(a)
	vec[1] = float32(b)
	return embedding.Normalize(vec)
}

// fixedEmbedder returns preset vectors for known texts and falls back to the
// hash-based mock for anything else.
type fixedEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback *embedding.MockClient
	err      error
	calls    int
}

func newFixedEmbedder(vectors map[string][]float32) *fixedEmbedder {
	return &fixedEmbedder{vectors: vectors, fallback: embedding.NewMockClient()}
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	vec, ok := e.vectors[text]
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ok {
		return vec, nil
	}
	return e.fallback.Embed(ctx, text)
}

// failingIndex fails every call with err.
type failingIndex struct {
	err    error
	exists bool
}

func (f *failingIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	if !f.exists {
		return false, f.err
	}
	return true, nil
}

func (f *failingIndex) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	return f.err
}

func (f *failingIndex) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	return f.err
}

func (f *failingIndex) Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.VectorHit, error) {
	return nil, f.err
}

func (f *failingIndex) Count(ctx context.Context, collection string) (int, error) {
	return 0, f.err
}

func (f *failingIndex) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	return f.err
}

func (f *failingIndex) Close() error { return nil }

var errBoom = errors.New("boom")

// fakeLLM is a scriptable domain.LLMClient that records what it was asked.
type fakeLLM struct {
	mu sync.Mutex

	route      domain.Workflow
	routeErr   error
	analyze    func(text string) (*domain.MemoryAnalysis, error)
	respond    string
	respondErr error
	summary    string
	scenario   *domain.Scenario

	routeInputs   [][]domain.Message
	analyzed      []string
	respondReqs   []domain.ResponseRequest
	summarizeArgs []int
	calls         []string
}

func (f *fakeLLM) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeLLM) Route(ctx context.Context, recent []domain.Message) (domain.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("route")
	f.routeInputs = append(f.routeInputs, append([]domain.Message(nil), recent...))
	if f.routeErr != nil {
		return "", f.routeErr
	}
	if f.route == "" {
		return domain.WorkflowConversation, nil
	}
	return f.route, nil
}

func (f *fakeLLM) AnalyzeMemory(ctx context.Context, text string) (*domain.MemoryAnalysis, error) {
	f.mu.Lock()
	f.record("analyze")
	f.analyzed = append(f.analyzed, text)
	analyze := f.analyze
	f.mu.Unlock()

	if analyze != nil {
		return analyze(text)
	}
	return &domain.MemoryAnalysis{IsImportant: false}, nil
}

func (f *fakeLLM) Respond(ctx context.Context, req domain.ResponseRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("respond")
	f.respondReqs = append(f.respondReqs, req)
	if f.respondErr != nil {
		return "", f.respondErr
	}
	if f.respond == "" {
		return "hi there", nil
	}
	return f.respond, nil
}

func (f *fakeLLM) Summarize(ctx context.Context, summary string, messages []domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("summarize")
	f.summarizeArgs = append(f.summarizeArgs, len(messages))
	if f.summary == "" {
		return "summary of the chat", nil
	}
	return f.summary, nil
}

func (f *fakeLLM) CreateScenario(ctx context.Context, history []domain.Message) (*domain.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("scenario")
	if f.scenario != nil {
		return f.scenario, nil
	}
	return &domain.Scenario{Narrative: "I'm at the beach", ImagePrompt: "a beach at sunset"}, nil
}

func (f *fakeLLM) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("enhance")
	if strings.TrimSpace(prompt) == "" {
		return "", domain.Validation("enhance prompt", errors.New("empty prompt"))
	}
	return prompt + ", photorealistic", nil
}

// importantIfContains marks messages containing marker as worth remembering.
func importantIfContains(marker string) func(string) (*domain.MemoryAnalysis, error) {
	return func(text string) (*domain.MemoryAnalysis, error) {
		if !strings.Contains(text, marker) {
			return &domain.MemoryAnalysis{IsImportant: false}, nil
		}
		return &domain.MemoryAnalysis{IsImportant: true, FormattedMemory: strings.TrimSpace(text)}, nil
	}
}
