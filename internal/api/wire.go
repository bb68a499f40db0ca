package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/companion/internal/config"
	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/embedding"
	"github.com/Harshitk-cp/companion/internal/llm"
	"github.com/Harshitk-cp/companion/internal/media"
	"github.com/Harshitk-cp/companion/internal/service"
	"github.com/Harshitk-cp/companion/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is the wired service graph behind the HTTP API.
type Services struct {
	Sessions *service.SessionService
	Memories *service.VectorStore
	Schedule *service.ScheduleResolver
	Janitor  *service.SessionJanitor
	Health   Pinger

	closers []func() error
}

// Close releases stores and caches in reverse construction order.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Services) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// BuildServices constructs every store, client and service from cfg.
func BuildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	svcs := &Services{}
	fail := func(err error) (*Services, error) {
		_ = svcs.Close()
		return nil, err
	}

	index, err := openVectorIndex(ctx, cfg, svcs, logger)
	if err != nil {
		return fail(err)
	}

	sessions, err := store.OpenSessionStore(ctx, cfg.SessionDBPath)
	if err != nil {
		return fail(fmt.Errorf("open session store: %w", err))
	}
	svcs.onClose(sessions.Close)
	svcs.Health = sessions
	logger.Info("session store opened", zap.String("path", cfg.SessionDBPath))

	embedder, err := embedding.NewCached(cfg.EmbeddingProvider, cfg.OpenAIAPIKey, cfg.EmbeddingModel, int64(cfg.EmbeddingCacheMB)<<20)
	if err != nil {
		return fail(fmt.Errorf("embedding client: %w", err))
	}
	svcs.onClose(func() error { embedder.Close(); return nil })
	logger.Info("embedding client initialized", zap.String("provider", cfg.EmbeddingProvider))

	llmClient, err := llm.NewClient(cfg.LLMProvider, cfg.LLMAPIKey(), cfg.LLMModel, cfg.SmallLLMModel)
	if err != nil {
		return fail(fmt.Errorf("llm client: %w", err))
	}
	logger.Info("LLM client initialized", zap.String("provider", cfg.LLMProvider))

	resolver := service.NewScheduleResolver(service.DefaultSchedule(), cfg.Location(), logger)
	vectorStore := service.NewVectorStore(index, embedder, logger)
	memoryManager := service.NewMemoryManager(vectorStore, llmClient, cfg.MemoryTopK, logger)

	graph := service.NewGraph(llmClient, memoryManager, resolver, service.TurnSettings{
		RouterMessagesToAnalyze: cfg.RouterMessagesToAnalyze,
		SummaryTrigger:          cfg.SummaryTrigger,
		MessagesAfterSummary:    cfg.MessagesAfterSummary,
	}, logger)
	wireMedia(graph, cfg, logger)

	janitor := service.NewSessionJanitor(sessions, cfg.SessionTTL, logger)
	janitor.SetInterval(cfg.JanitorInterval)

	svcs.Sessions = service.NewSessionService(sessions, graph, logger)
	svcs.Memories = vectorStore
	svcs.Schedule = resolver
	svcs.Janitor = janitor
	return svcs, nil
}

func openVectorIndex(ctx context.Context, cfg *config.Config, svcs *Services, logger *zap.Logger) (domain.VectorIndex, error) {
	switch cfg.MemoryBackend {
	case config.BackendPGVector:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		svcs.onClose(func() error { pool.Close(); return nil })
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("memory backend: pgvector")
		index := store.NewPGVectorIndex(pool)
		svcs.onClose(index.Close)
		return index, nil

	default:
		if cfg.ChromemPath == "" {
			logger.Info("memory backend: chromem (in-memory)")
			return store.NewChromemIndex(), nil
		}
		index, err := store.NewPersistentChromemIndex(cfg.ChromemPath)
		if err != nil {
			return nil, fmt.Errorf("open chromem index: %w", err)
		}
		svcs.onClose(index.Close)
		logger.Info("memory backend: chromem", zap.String("path", cfg.ChromemPath))
		return index, nil
	}
}

// wireMedia attaches the speech and vision collaborators that have
// credentials. Mock mode gets the offline fakes.
func wireMedia(g *service.Graph, cfg *config.Config, logger *zap.Logger) {
	if cfg.LLMProvider == config.ProviderMock {
		g.SetSpeech(&media.MockTranscriber{}, media.MockSynthesizer{})
		g.SetVision(&media.MockCaptioner{}, media.MockGenerator{}, cfg.ImageDir)
		logger.Info("media collaborators: mock")
		return
	}

	var (
		transcriber domain.Transcriber
		synthesizer domain.SpeechSynthesizer
		captioner   domain.ImageCaptioner
		generator   domain.ImageGenerator
	)
	if cfg.GroqAPIKey != "" {
		transcriber = media.NewWhisperTranscriber(cfg.GroqAPIKey, cfg.STTModel)
		captioner = media.NewVisionCaptioner(cfg.GroqAPIKey, cfg.ITTModel)
	}
	if cfg.ElevenLabsAPIKey != "" && cfg.ElevenLabsVoiceID != "" {
		synthesizer = media.NewElevenLabsSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.TTSModel)
	}
	if cfg.ImageAPIKey != "" {
		generator = media.NewFluxGenerator(cfg.ImageAPIKey, cfg.TTIModel, cfg.ImageBaseURL)
	}

	g.SetSpeech(transcriber, synthesizer)
	g.SetVision(captioner, generator, cfg.ImageDir)
	logger.Info("media collaborators configured",
		zap.Bool("speech_to_text", transcriber != nil),
		zap.Bool("text_to_speech", synthesizer != nil),
		zap.Bool("image_to_text", captioner != nil),
		zap.Bool("text_to_image", generator != nil),
	)
}
