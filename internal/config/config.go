package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER / EMBEDDING_PROVIDER / MEMORY_BACKEND.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderCerebras  = "cerebras"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"

	BackendChromem  = "chromem"
	BackendPGVector = "pgvector"
)

// Config is read once at startup and handed to constructors.
type Config struct {
	ServerPort int
	LogLevel   string
	APIKey     string

	RateLimitRPS   float64
	RateLimitBurst int

	LLMProvider       string
	LLMModel          string
	SmallLLMModel     string
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingCacheMB  int

	OpenAIAPIKey    string
	GroqAPIKey      string
	CerebrasAPIKey  string
	AnthropicAPIKey string
	GeminiAPIKey    string

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	TTSModel          string
	STTModel          string
	ITTModel          string
	TTIModel          string
	ImageAPIKey       string
	ImageBaseURL      string
	ImageDir          string

	MemoryBackend   string
	ChromemPath     string
	DatabaseURL     string
	SessionDBPath   string
	SessionTTL      time.Duration
	JanitorInterval time.Duration

	RouterMessagesToAnalyze int
	SummaryTrigger          int
	MessagesAfterSummary    int
	MemoryTopK              int
	Timezone                string

	// parseErrs holds malformed env values; Validate reports them.
	parseErrs []error
}

// Load reads the env file named by COMPANION_ENV (.env by default) plus its
// .secret sidecar, then builds and validates the Config.
func Load() (*Config, error) {
	envFile := os.Getenv("COMPANION_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process env still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment with defaults applied.
func FromEnv() *Config {
	p := &envParser{}
	cfg := &Config{
		ServerPort:     p.int("SERVER_PORT", 8080),
		LogLevel:       stringEnv("LOG_LEVEL", "info"),
		APIKey:         os.Getenv("API_KEY"),
		RateLimitRPS:   p.float("RATE_LIMIT_RPS", 100),
		RateLimitBurst: p.int("RATE_LIMIT_BURST", 20),

		LLMProvider:       stringEnv("LLM_PROVIDER", ProviderGroq),
		LLMModel:          os.Getenv("TEXT_MODEL_NAME"),
		SmallLLMModel:     os.Getenv("SMALL_TEXT_MODEL_NAME"),
		EmbeddingProvider: stringEnv("EMBEDDING_PROVIDER", ProviderOpenAI),
		EmbeddingModel:    os.Getenv("EMBEDDING_MODEL"),
		EmbeddingCacheMB:  p.int("EMBEDDING_CACHE_MB", 16),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		CerebrasAPIKey:  os.Getenv("CEREBRAS_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),

		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		TTSModel:          stringEnv("TTS_MODEL_NAME", "eleven_flash_v2_5"),
		STTModel:          stringEnv("STT_MODEL_NAME", "whisper-large-v3-turbo"),
		ITTModel:          stringEnv("ITT_MODEL_NAME", "llama-3.2-90b-vision-preview"),
		TTIModel:          stringEnv("TTI_MODEL_NAME", "black-forest-labs/FLUX.1-schnell-Free"),
		ImageAPIKey:       os.Getenv("TOGETHER_API_KEY"),
		ImageBaseURL:      stringEnv("IMAGE_BASE_URL", "https://api.together.xyz/v1"),
		ImageDir:          stringEnv("IMAGE_DIR", "generated_images"),

		MemoryBackend:   stringEnv("MEMORY_BACKEND", BackendChromem),
		ChromemPath:     os.Getenv("CHROMEM_PATH"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SessionDBPath:   stringEnv("SESSION_DB_PATH", "sessions.db"),
		SessionTTL:      p.duration("SESSION_TTL", 7*24*time.Hour),
		JanitorInterval: p.duration("JANITOR_INTERVAL", time.Hour),

		RouterMessagesToAnalyze: p.int("ROUTER_MESSAGES_TO_ANALYZE", 3),
		SummaryTrigger:          p.int("TOTAL_MESSAGES_SUMMARY_TRIGGER", 20),
		MessagesAfterSummary:    p.int("TOTAL_MESSAGES_AFTER_SUMMARY", 5),
		MemoryTopK:              p.int("MEMORY_TOP_K", 3),
		Timezone:                stringEnv("TIMEZONE", "Local"),
	}
	cfg.parseErrs = p.errs
	return cfg
}

// Validate checks provider/key consistency and numeric bounds.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGroq, ProviderCerebras, ProviderAnthropic, ProviderGemini, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.LLMProvider != ProviderMock && c.LLMAPIKey() == "" {
		errs = append(errs, fmt.Errorf("API key for LLM provider %q is required", c.LLMProvider))
	}

	switch c.EmbeddingProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedding provider"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}

	switch c.MemoryBackend {
	case BackendChromem:
	case BackendPGVector:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the pgvector memory backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEMORY_BACKEND %q", c.MemoryBackend))
	}

	if c.RouterMessagesToAnalyze <= 0 {
		errs = append(errs, errors.New("ROUTER_MESSAGES_TO_ANALYZE must be positive"))
	}
	if c.SummaryTrigger <= 0 {
		errs = append(errs, errors.New("TOTAL_MESSAGES_SUMMARY_TRIGGER must be positive"))
	}
	if c.MessagesAfterSummary < 0 || c.MessagesAfterSummary >= c.SummaryTrigger {
		errs = append(errs, errors.New("TOTAL_MESSAGES_AFTER_SUMMARY must be in [0, TOTAL_MESSAGES_SUMMARY_TRIGGER)"))
	}
	if c.MemoryTopK <= 0 {
		errs = append(errs, errors.New("MEMORY_TOP_K must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LLMAPIKey returns the API key for the configured LLM provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderCerebras:
		return c.CerebrasAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderMock:
		return ""
	default:
		return c.OpenAIAPIKey
	}
}

// Location returns the time zone used for schedule resolution.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envParser reads typed env values. Unset keys take the default; malformed
// ones also take the default and are recorded.
type envParser struct {
	errs []error
}

func (p *envParser) int(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return def
	}
	return v
}

func (p *envParser) float(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must be a positive number, got %q", key, raw))
		return def
	}
	return v
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must be a positive duration such as 30m, got %q", key, raw))
		return def
	}
	return v
}
