package media

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/Harshitk-cp/companion/internal/domain"
)

// 1x1 transparent PNG.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// MockTranscriber returns Text for any non-empty audio.
type MockTranscriber struct {
	Text string
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.Validation("transcribe", ErrEmptyAudio)
	}
	if m.Text == "" {
		return "(voice message)", nil
	}
	return m.Text, nil
}

// MockSynthesizer returns the text bytes as "audio".
type MockSynthesizer struct{}

func (MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ValidateSpeechText(text); err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// MockCaptioner returns Text for any non-empty image.
type MockCaptioner struct {
	Text string
}

func (m *MockCaptioner) Caption(ctx context.Context, image []byte, prompt string) (string, error) {
	if len(image) == 0 {
		return "", domain.Validation("caption image", ErrEmptyImage)
	}
	if m.Text == "" {
		return "an image", nil
	}
	return m.Text, nil
}

// MockGenerator returns a placeholder PNG.
type MockGenerator struct{}

func (MockGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.Validation("generate image", ErrEmptyPrompt)
	}
	return base64.StdEncoding.DecodeString(placeholderPNG)
}
