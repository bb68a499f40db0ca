package llm

import "github.com/openai/openai-go/option"

const (
	cerebrasBaseURL    = "https://api.cerebras.ai/v1"
	cerebrasModel      = "llama-3.3-70b"
	cerebrasSmallModel = "llama3.1-8b"
)

// Cerebras uses the OpenAI-compatible request/response format.
func NewCerebrasClient(apiKey, model, smallModel string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = cerebrasModel
	}
	if smallModel == "" {
		smallModel = cerebrasSmallModel
	}
	return newClient(newCompatBackend("cerebras", cerebrasBaseURL, apiKey, model, smallModel, opts...))
}
