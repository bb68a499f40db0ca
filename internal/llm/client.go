package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/companion/internal/domain"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

// chatMessage uses the OpenAI role vocabulary: user, assistant.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completion struct {
	System      string
	Messages    []chatMessage
	Temperature float32
	MaxTokens   int
	// Small routes the call to the provider's cheaper model.
	Small bool
}

// chatBackend is one provider's chat completion endpoint.
type chatBackend interface {
	complete(ctx context.Context, req completion) (string, error)
}

// Client implements domain.LLMClient on top of any chat backend.
type Client struct {
	backend chatBackend
}

func newClient(b chatBackend) *Client {
	return &Client{backend: b}
}

func userMessage(content string) []chatMessage {
	return []chatMessage{{Role: "user", Content: content}}
}

func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == domain.RoleAI {
			role = "assistant"
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}

func transcript(messages []domain.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeJSON(raw string, v any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse model output: %w (raw: %s)", err, cleaned)
	}
	return nil
}

func (c *Client) Route(ctx context.Context, recent []domain.Message) (domain.Workflow, error) {
	messages := append(toChatMessages(recent), chatMessage{
		Role:    "user",
		Content: "Decide the response type for the last message.",
	})
	result, err := c.backend.complete(ctx, completion{
		System:      routerPrompt,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   64,
		Small:       true,
	})
	if err != nil {
		return "", fmt.Errorf("route: %w", err)
	}

	var out struct {
		ResponseType string `json:"response_type"`
	}
	if err := decodeJSON(result, &out); err != nil {
		return "", fmt.Errorf("route: %w", err)
	}
	return domain.Workflow(strings.TrimSpace(out.ResponseType)), nil
}

func (c *Client) AnalyzeMemory(ctx context.Context, text string) (*domain.MemoryAnalysis, error) {
	result, err := c.backend.complete(ctx, completion{
		Messages:    userMessage(fmt.Sprintf(memoryAnalysisPrompt, text)),
		Temperature: 0.1,
		MaxTokens:   256,
		Small:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze memory: %w", err)
	}

	var out struct {
		IsImportant     bool    `json:"is_important"`
		FormattedMemory *string `json:"formatted_memory"`
	}
	if err := decodeJSON(result, &out); err != nil {
		return nil, fmt.Errorf("analyze memory: %w", err)
	}

	analysis := &domain.MemoryAnalysis{IsImportant: out.IsImportant}
	if out.FormattedMemory != nil {
		analysis.FormattedMemory = strings.TrimSpace(*out.FormattedMemory)
	}
	return analysis, nil
}

func characterSystemPrompt(req domain.ResponseRequest) string {
	var sb strings.Builder
	sb.WriteString(characterPrompt)
	if req.MemoryContext != "" {
		fmt.Fprintf(&sb, characterMemoryBlock, req.MemoryContext)
	}
	if req.CurrentActivity != "" {
		fmt.Fprintf(&sb, characterActivityBlock, req.CurrentActivity)
		if req.ApplyActivity {
			sb.WriteString(characterActivityChangedHint)
		}
	}
	if req.Summary != "" {
		fmt.Fprintf(&sb, characterSummaryBlock, req.Summary)
	}
	return sb.String()
}

func (c *Client) Respond(ctx context.Context, req domain.ResponseRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", domain.Validation("respond", errors.New("no messages"))
	}
	result, err := c.backend.complete(ctx, completion{
		System:      characterSystemPrompt(req),
		Messages:    toChatMessages(req.Messages),
		Temperature: 0.7,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	if result == "" {
		return "", fmt.Errorf("respond: %w", ErrEmptyResponse)
	}
	return result, nil
}

func (c *Client) Summarize(ctx context.Context, summary string, messages []domain.Message) (string, error) {
	instruction := summarizeNewPrompt
	if summary != "" {
		instruction = fmt.Sprintf(summarizeExtendPrompt, summary)
	}
	result, err := c.backend.complete(ctx, completion{
		Messages:    append(toChatMessages(messages), chatMessage{Role: "user", Content: instruction}),
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if result == "" {
		return "", fmt.Errorf("summarize: %w", ErrEmptyResponse)
	}
	return result, nil
}

func (c *Client) CreateScenario(ctx context.Context, history []domain.Message) (*domain.Scenario, error) {
	result, err := c.backend.complete(ctx, completion{
		Messages:    userMessage(fmt.Sprintf(scenarioPrompt, transcript(history))),
		Temperature: 0.4,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, fmt.Errorf("create scenario: %w", err)
	}

	var scenario domain.Scenario
	if err := decodeJSON(result, &scenario); err != nil {
		return nil, fmt.Errorf("create scenario: %w", err)
	}
	if strings.TrimSpace(scenario.ImagePrompt) == "" {
		return nil, fmt.Errorf("create scenario: %w", ErrEmptyResponse)
	}
	return &scenario, nil
}

func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.Validation("enhance prompt", errors.New("prompt is required"))
	}
	result, err := c.backend.complete(ctx, completion{
		Messages:    userMessage(fmt.Sprintf(enhancePromptPrompt, prompt)),
		Temperature: 0.25,
		MaxTokens:   256,
	})
	if err != nil {
		return "", fmt.Errorf("enhance prompt: %w", err)
	}

	var out struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(result, &out); err != nil {
		return "", fmt.Errorf("enhance prompt: %w", err)
	}
	if strings.TrimSpace(out.Prompt) == "" {
		return "", fmt.Errorf("enhance prompt: %w", ErrEmptyResponse)
	}
	return out.Prompt, nil
}
