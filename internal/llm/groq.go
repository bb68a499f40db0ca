package llm

import "github.com/openai/openai-go/option"

const (
	groqBaseURL    = "https://api.groq.com/openai/v1"
	groqModel      = "llama-3.3-70b-versatile"
	groqSmallModel = "llama-3.1-8b-instant"
)

// Groq serves an OpenAI-compatible chat completions endpoint.
func NewGroqClient(apiKey, model, smallModel string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = groqModel
	}
	if smallModel == "" {
		smallModel = groqSmallModel
	}
	return newClient(newCompatBackend("groq", groqBaseURL, apiKey, model, smallModel, opts...))
}
