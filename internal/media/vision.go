package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultITTModel      = "llama-3.2-90b-vision-preview"
	defaultTTIModel      = "black-forest-labs/FLUX.1-schnell-Free"
	togetherBaseURL      = "https://api.together.xyz/v1"
	defaultCaptionPrompt = "Describe this image in detail."
)

var (
	ErrEmptyImage  = errors.New("image data is required")
	ErrEmptyPrompt = errors.New("prompt is required")
)

// VisionCaptioner describes images with a vision chat model behind an
// OpenAI-compatible endpoint (Groq by default).
type VisionCaptioner struct {
	client openai.Client
	model  string
}

func NewVisionCaptioner(apiKey, model string, opts ...option.RequestOption) *VisionCaptioner {
	if model == "" {
		model = defaultITTModel
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(groqBaseURL)}, opts...)
	return &VisionCaptioner{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

func dataURL(image []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", http.DetectContentType(image), base64.StdEncoding.EncodeToString(image))
}

func (c *VisionCaptioner) Caption(ctx context.Context, image []byte, prompt string) (string, error) {
	if len(image) == 0 {
		return "", domain.Validation("caption image", ErrEmptyImage)
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultCaptionPrompt
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL(image)}),
			}),
		},
		MaxTokens: openai.Int(1000),
	})
	if err != nil {
		return "", domain.Collaborator("caption image", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domain.Collaborator("caption image", errors.New("vision model returned no description"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CaptionFile reads the image at path and captions it.
func (c *VisionCaptioner) CaptionFile(ctx context.Context, path, prompt string) (string, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return "", domain.Validation("caption image", fmt.Errorf("read %s: %w", path, err))
	}
	return c.Caption(ctx, image, prompt)
}

// FluxGenerator renders images through the Together AI images endpoint,
// which speaks the OpenAI images API.
type FluxGenerator struct {
	client openai.Client
	model  string
}

func NewFluxGenerator(apiKey, model, baseURL string, opts ...option.RequestOption) *FluxGenerator {
	if model == "" {
		model = defaultTTIModel
	}
	if baseURL == "" {
		baseURL = togetherBaseURL
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}, opts...)
	return &FluxGenerator{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

func (g *FluxGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.Validation("generate image", ErrEmptyPrompt)
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	},
		// Together-specific knobs.
		option.WithJSONSet("width", 1024),
		option.WithJSONSet("height", 768),
		option.WithJSONSet("steps", 4),
	)
	if err != nil {
		return nil, domain.Collaborator("generate image", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, domain.Collaborator("generate image", errors.New("image API returned no data"))
	}

	image, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, domain.Collaborator("generate image", fmt.Errorf("decode image: %w", err))
	}
	return image, nil
}
