package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Harshitk-cp/companion/internal/domain"
)

// MockClient is a configurable, offline LLM client. Unset responses fall back
// to simple keyword heuristics so the server can run end to end without a provider.
type MockClient struct {
	mu sync.Mutex

	RouteResponse          domain.Workflow
	RouteError             error
	AnalyzeMemoryResponse  *domain.MemoryAnalysis
	AnalyzeMemoryError     error
	RespondResponse        string
	RespondError           error
	SummarizeResponse      string
	SummarizeError         error
	CreateScenarioResponse *domain.Scenario
	CreateScenarioError    error
	EnhancePromptError     error

	// Call tracking for assertions
	RouteCalls          [][]domain.Message
	AnalyzeMemoryCalls  []string
	RespondCalls        []domain.ResponseRequest
	SummarizeCalls      []string
	CreateScenarioCalls [][]domain.Message
	EnhancePromptCalls  []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var (
	imageKeywords = []string{"picture", "photo", "image", "show me", "selfie"}
	audioKeywords = []string{"voice", "hear you", "audio", "say it out loud"}
)

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func (c *MockClient) Route(ctx context.Context, recent []domain.Message) (domain.Workflow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RouteCalls = append(c.RouteCalls, recent)
	if c.RouteError != nil {
		return "", c.RouteError
	}
	if c.RouteResponse != "" {
		return c.RouteResponse, nil
	}
	if len(recent) == 0 {
		return domain.WorkflowConversation, nil
	}
	last := recent[len(recent)-1].Content
	switch {
	case containsAny(last, imageKeywords):
		return domain.WorkflowImage, nil
	case containsAny(last, audioKeywords):
		return domain.WorkflowAudio, nil
	default:
		return domain.WorkflowConversation, nil
	}
}

func (c *MockClient) AnalyzeMemory(ctx context.Context, text string) (*domain.MemoryAnalysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AnalyzeMemoryCalls = append(c.AnalyzeMemoryCalls, text)
	if c.AnalyzeMemoryError != nil {
		return nil, c.AnalyzeMemoryError
	}
	if c.AnalyzeMemoryResponse != nil {
		return c.AnalyzeMemoryResponse, nil
	}

	// "my X is Y", "I live ...", "I work ..." read as personal facts.
	lower := strings.ToLower(text)
	if (strings.Contains(lower, "my ") && strings.Contains(lower, " is ")) ||
		strings.HasPrefix(lower, "i live") || strings.HasPrefix(lower, "i work") || strings.HasPrefix(lower, "i am ") {
		return &domain.MemoryAnalysis{IsImportant: true, FormattedMemory: "User said: " + strings.TrimSpace(text)}, nil
	}
	return &domain.MemoryAnalysis{IsImportant: false}, nil
}

func (c *MockClient) Respond(ctx context.Context, req domain.ResponseRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RespondCalls = append(c.RespondCalls, req)
	if c.RespondError != nil {
		return "", c.RespondError
	}
	if c.RespondResponse != "" {
		return c.RespondResponse, nil
	}

	reply := "That's interesting, tell me more!"
	if req.ApplyActivity && req.CurrentActivity != "" {
		reply = "Right now I'm " + strings.ToLower(req.CurrentActivity[:1]) + req.CurrentActivity[1:] + ". " + reply
	}
	return reply, nil
}

func (c *MockClient) Summarize(ctx context.Context, summary string, messages []domain.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SummarizeCalls = append(c.SummarizeCalls, summary)
	if c.SummarizeError != nil {
		return "", c.SummarizeError
	}
	if c.SummarizeResponse != "" {
		return c.SummarizeResponse, nil
	}

	var sb strings.Builder
	if summary != "" {
		sb.WriteString(summary)
		sb.WriteString(" ")
	}
	var topics []string
	for _, m := range messages {
		if m.Role == domain.RoleHuman {
			topics = append(topics, m.Content)
		}
	}
	sb.WriteString("Topics: ")
	sb.WriteString(strings.Join(topics, "; "))
	return sb.String(), nil
}

func (c *MockClient) CreateScenario(ctx context.Context, history []domain.Message) (*domain.Scenario, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CreateScenarioCalls = append(c.CreateScenarioCalls, history)
	if c.CreateScenarioError != nil {
		return nil, c.CreateScenarioError
	}
	if c.CreateScenarioResponse != nil {
		return c.CreateScenarioResponse, nil
	}
	return &domain.Scenario{
		Narrative:   "Here's what I'm looking at right now!",
		ImagePrompt: "a cozy cafe table by a rainy window",
	}, nil
}

func (c *MockClient) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EnhancePromptCalls = append(c.EnhancePromptCalls, prompt)
	if strings.TrimSpace(prompt) == "" {
		return "", domain.Validation("enhance prompt", errors.New("prompt is required"))
	}
	if c.EnhancePromptError != nil {
		return "", c.EnhancePromptError
	}
	return prompt + ", photorealistic, natural light", nil
}

// Reset clears all recorded calls and configured responses.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RouteResponse, c.RouteError = "", nil
	c.AnalyzeMemoryResponse, c.AnalyzeMemoryError = nil, nil
	c.RespondResponse, c.RespondError = "", nil
	c.SummarizeResponse, c.SummarizeError = "", nil
	c.CreateScenarioResponse, c.CreateScenarioError = nil, nil
	c.EnhancePromptError = nil
	c.RouteCalls = nil
	c.AnalyzeMemoryCalls = nil
	c.RespondCalls = nil
	c.SummarizeCalls = nil
	c.CreateScenarioCalls = nil
	c.EnhancePromptCalls = nil
}
