package llm

import "github.com/openai/openai-go/option"

const (
	geminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta/openai"
	geminiModel      = "gemini-2.0-flash"
	geminiSmallModel = "gemini-2.0-flash-lite"
)

// Gemini is reached through its OpenAI-compatible endpoint; the API key is
// sent as a bearer token.
func NewGeminiClient(apiKey, model, smallModel string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = geminiModel
	}
	if smallModel == "" {
		smallModel = geminiSmallModel
	}
	return newClient(newCompatBackend("gemini", geminiBaseURL, apiKey, model, smallModel, opts...))
}
