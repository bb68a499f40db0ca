package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIBaseURL    = "https://api.openai.com/v1"
	openAIModel      = "gpt-4o-mini"
	openAISmallModel = "gpt-4o-mini"
)

// compatBackend talks to any OpenAI-compatible chat completions endpoint.
type compatBackend struct {
	name       string
	client     openai.Client
	model      string
	smallModel string
}

func newCompatBackend(name, baseURL, apiKey, model, smallModel string, opts ...option.RequestOption) *compatBackend {
	if smallModel == "" {
		smallModel = model
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}, opts...)
	return &compatBackend{
		name:       name,
		client:     openai.NewClient(clientOpts...),
		model:      model,
		smallModel: smallModel,
	}
}

// NewOpenAIClient returns an LLM client for the OpenAI API.
// Empty model names fall back to the defaults.
func NewOpenAIClient(apiKey, model, smallModel string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = openAIModel
	}
	if smallModel == "" {
		smallModel = openAISmallModel
	}
	return newClient(newCompatBackend("openai", openAIBaseURL, apiKey, model, smallModel, opts...))
}

func openAIMessages(system string, messages []chatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		if m.Role == "assistant" {
			out = append(out, openai.AssistantMessage(m.Content))
		} else {
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (c *compatBackend) complete(ctx context.Context, in completion) (string, error) {
	model := c.model
	if in.Small {
		model = c.smallModel
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    openAIMessages(in.System, in.Messages),
		Temperature: openai.Float(float64(in.Temperature)),
	}
	if in.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(in.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s API returned no choices", c.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
