package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	anthropicModel      = "claude-3-5-sonnet-latest"
	anthropicSmallModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens  = 1024
)

type anthropicBackend struct {
	client     anthropic.Client
	model      string
	smallModel string
}

// NewAnthropicClient returns an LLM client backed by the Anthropic Messages API.
// Extra request options (base URL, retries) are passed to the SDK client.
func NewAnthropicClient(apiKey, model, smallModel string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = anthropicModel
	}
	if smallModel == "" {
		smallModel = anthropicSmallModel
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return newClient(&anthropicBackend{
		client:     anthropic.NewClient(clientOpts...),
		model:      model,
		smallModel: smallModel,
	})
}

// anthropicMessages folds consecutive same-role messages together and makes
// sure the conversation opens with a user turn.
func anthropicMessages(messages []chatMessage) []anthropic.MessageParam {
	var (
		out   []anthropic.MessageParam
		role  string
		parts []string
	)
	flush := func() {
		if len(parts) == 0 {
			return
		}
		block := anthropic.NewTextBlock(strings.Join(parts, "\n\n"))
		if role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		parts = nil
	}

	for i, m := range messages {
		r := m.Role
		if r != "assistant" {
			r = "user"
		}
		if i == 0 && r == "assistant" {
			role = "user"
			parts = []string{"(conversation continues)"}
			flush()
		}
		if r != role {
			flush()
			role = r
		}
		parts = append(parts, m.Content)
	}
	flush()
	return out
}

func (c *anthropicBackend) complete(ctx context.Context, in completion) (string, error) {
	model := c.model
	if in.Small {
		model = c.smallModel
	}
	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Messages:    anthropicMessages(in.Messages),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if in.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: in.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic API returned no text content")
	}
	return strings.TrimSpace(sb.String()), nil
}
