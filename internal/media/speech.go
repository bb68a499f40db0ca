package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	defaultSTTModel   = "whisper-large-v3-turbo"
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	defaultTTSModel   = "eleven_flash_v2_5"

	// MaxSpeechChars is the longest text the synthesizer accepts.
	MaxSpeechChars = 5000
)

var (
	ErrEmptyAudio  = errors.New("audio data is required")
	ErrEmptyText   = errors.New("text is required")
	ErrTextTooLong = fmt.Errorf("text exceeds %d characters", MaxSpeechChars)
)

// WhisperTranscriber converts speech to text through an OpenAI-compatible
// transcription endpoint (Groq by default).
type WhisperTranscriber struct {
	client openai.Client
	model  string
}

func NewWhisperTranscriber(apiKey, model string, opts ...option.RequestOption) *WhisperTranscriber {
	if model == "" {
		model = defaultSTTModel
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(groqBaseURL)}, opts...)
	return &WhisperTranscriber{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.Validation("transcribe", ErrEmptyAudio)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
		Model:    openai.AudioModel(t.model),
		Language: openai.String("en"),
	})
	if err != nil {
		return "", domain.Collaborator("transcribe", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", domain.Collaborator("transcribe", errors.New("transcription result is empty"))
	}
	return text, nil
}

// ElevenLabsSynthesizer converts text to speech with the ElevenLabs API.
type ElevenLabsSynthesizer struct {
	apiKey     string
	voiceID    string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewElevenLabsSynthesizer(apiKey, voiceID, model string) *ElevenLabsSynthesizer {
	if model == "" {
		model = defaultTTSModel
	}
	return &ElevenLabsSynthesizer{
		apiKey:     apiKey,
		voiceID:    voiceID,
		model:      model,
		baseURL:    elevenLabsBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type voiceSettings struct {
	Stability       float32 `json:"stability"`
	SimilarityBoost float32 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ValidateSpeechText reports whether text can be synthesized.
func ValidateSpeechText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.Validation("synthesize", ErrEmptyText)
	}
	if len([]rune(text)) > MaxSpeechChars {
		return domain.Validation("synthesize", ErrTextTooLong)
	}
	return nil
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ValidateSpeechText(text); err != nil {
		return nil, err
	}

	body, err := json.Marshal(ttsRequest{
		Text:          text,
		ModelID:       s.model,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.Collaborator("synthesize", err)
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Collaborator("synthesize", fmt.Errorf("read tts response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.Collaborator("synthesize", fmt.Errorf("tts API returned status %d: %s", resp.StatusCode, string(audio)))
	}
	if len(audio) == 0 {
		return nil, domain.Collaborator("synthesize", errors.New("tts API returned no audio"))
	}
	return audio, nil
}
