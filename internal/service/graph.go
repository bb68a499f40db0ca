package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	memoryContextWindow = 3
	captionPrompt       = "Please describe what you see in this image in the context of our conversation."
	defaultImageDir     = "generated_images"
)

var (
	ErrEmptyTurn        = errors.New("turn has no text, audio or image")
	ErrMediaUnavailable = errors.New("media collaborator not configured")
)

// TurnInput is one incoming user turn. Audio, when present, is transcribed and
// replaces Text; an image is captioned and the caption appended.
type TurnInput struct {
	Text  string
	Audio []byte
	Image []byte
}

type TurnResult struct {
	Workflow    domain.Workflow `json:"workflow"`
	Reply       string          `json:"reply"`
	AudioBuffer []byte          `json:"audio,omitempty"`
	ImagePath   string          `json:"image_path,omitempty"`
	Summarized  bool            `json:"summarized"`
	Visited     []Node          `json:"visited"`
}

// Graph runs the per-turn pipeline over a conversation state.
type Graph struct {
	llmClient   domain.LLMClient
	memory      *MemoryManager
	schedule    *ScheduleResolver
	transcriber domain.Transcriber
	synthesizer domain.SpeechSynthesizer
	captioner   domain.ImageCaptioner
	imageGen    domain.ImageGenerator
	imageDir    string
	settings    TurnSettings
	logger      *zap.Logger
}

func NewGraph(lc domain.LLMClient, mm *MemoryManager, sr *ScheduleResolver, settings TurnSettings, logger *zap.Logger) *Graph {
	return &Graph{
		llmClient: lc,
		memory:    mm,
		schedule:  sr,
		imageDir:  defaultImageDir,
		settings:  settings,
		logger:    logger,
	}
}

func (g *Graph) SetSpeech(t domain.Transcriber, s domain.SpeechSynthesizer) {
	g.transcriber = t
	g.synthesizer = s
}

func (g *Graph) SetVision(c domain.ImageCaptioner, gen domain.ImageGenerator, dir string) {
	g.captioner = c
	g.imageGen = gen
	if dir != "" {
		g.imageDir = dir
	}
}

func (g *Graph) Settings() TurnSettings {
	return g.settings
}

// RunTurn appends the user's message to state and walks the pipeline:
// memory extraction, routing, activity and memory injection, the modality
// handler and, when the history is long enough, summarization.
func (g *Graph) RunTurn(ctx context.Context, state *domain.ConversationState, input TurnInput) (*TurnResult, error) {
	state.ClearTurnArtifacts()

	content, err := g.prepareInput(ctx, input)
	if err != nil {
		return nil, err
	}
	human := domain.NewMessage(domain.RoleHuman, content)
	state.Messages = append(state.Messages, human)

	result := &TurnResult{}
	visit := func(n Node) { result.Visited = append(result.Visited, n) }

	visit(NodeMemoryExtraction)
	g.extractMemory(ctx, state, human)

	visit(NodeRouter)
	if err := g.RouterNode(ctx, state); err != nil {
		return nil, err
	}

	visit(NodeContextInjection)
	g.injectContext(ctx, state)

	visit(NodeMemoryInjection)
	g.injectMemories(ctx, state)

	handler := SelectWorkflow(state)
	visit(handler)
	var reply string
	switch handler {
	case NodeImage:
		reply, err = g.imageNode(ctx, state)
	case NodeAudio:
		reply, err = g.audioNode(ctx, state)
	default:
		reply, err = g.conversationNode(ctx, state)
	}
	if err != nil {
		return nil, err
	}
	state.Messages = append(state.Messages, domain.NewMessage(domain.RoleAI, reply))

	if g.settings.ShouldSummarize(state) == NodeSummarize {
		visit(NodeSummarize)
		result.Summarized = g.summarizeNode(ctx, state)
	}
	visit(NodeEnd)

	result.Workflow = state.Workflow
	result.Reply = reply
	result.AudioBuffer = state.AudioBuffer
	result.ImagePath = state.ImagePath
	return result, nil
}

func (g *Graph) prepareInput(ctx context.Context, input TurnInput) (string, error) {
	content := strings.TrimSpace(input.Text)

	if len(input.Audio) > 0 {
		if g.transcriber == nil {
			return "", domain.Collaborator("transcribe audio", ErrMediaUnavailable)
		}
		text, err := g.transcriber.Transcribe(ctx, input.Audio)
		if err != nil {
			return "", err
		}
		content = strings.TrimSpace(text)
	}

	if len(input.Image) > 0 {
		if g.captioner == nil {
			g.logger.Warn("image attached but no captioner configured")
		} else if caption, err := g.captioner.Caption(ctx, input.Image, captionPrompt); err != nil {
			g.logger.Warn("failed to analyze image", zap.Error(err))
		} else {
			content = strings.TrimSpace(content + "\n[Image Analysis: " + caption + "]")
		}
	}

	if content == "" {
		return "", domain.Validation("run turn", ErrEmptyTurn)
	}
	return content, nil
}

func (g *Graph) extractMemory(ctx context.Context, state *domain.ConversationState, msg domain.Message) {
	if _, err := g.memory.ConsiderForStorage(ctx, msg); err != nil {
		g.logger.Warn("memory extraction failed",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
	}
}

func (g *Graph) injectContext(ctx context.Context, state *domain.ConversationState) {
	activity, _ := g.schedule.CurrentActivity(ctx)
	state.ApplyActivity = activity != state.CurrentActivity
	state.CurrentActivity = activity
}

func (g *Graph) injectMemories(ctx context.Context, state *domain.ConversationState) {
	recent := state.RecentMessages(memoryContextWindow)
	parts := make([]string, 0, len(recent))
	for _, m := range recent {
		parts = append(parts, m.Content)
	}

	memories, err := g.memory.Retrieve(ctx, strings.Join(parts, " "))
	if err != nil {
		g.logger.Warn("memory retrieval failed",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
		state.MemoryContext = ""
		return
	}
	state.MemoryContext = FormatForPrompt(memories)
}

func (g *Graph) responseRequest(state *domain.ConversationState) domain.ResponseRequest {
	return domain.ResponseRequest{
		Messages:        state.Messages,
		Summary:         state.Summary,
		MemoryContext:   state.MemoryContext,
		CurrentActivity: state.CurrentActivity,
		ApplyActivity:   state.ApplyActivity,
	}
}

func (g *Graph) conversationNode(ctx context.Context, state *domain.ConversationState) (string, error) {
	reply, err := g.llmClient.Respond(ctx, g.responseRequest(state))
	if err != nil {
		return "", domain.Collaborator("conversation response", err)
	}
	return reply, nil
}

func (g *Graph) audioNode(ctx context.Context, state *domain.ConversationState) (string, error) {
	if g.synthesizer == nil {
		return "", domain.Collaborator("audio response", ErrMediaUnavailable)
	}
	reply, err := g.llmClient.Respond(ctx, g.responseRequest(state))
	if err != nil {
		return "", domain.Collaborator("audio response", err)
	}
	audio, err := g.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		return "", err
	}
	state.AudioBuffer = audio
	return reply, nil
}

func (g *Graph) imageNode(ctx context.Context, state *domain.ConversationState) (string, error) {
	if g.imageGen == nil {
		return "", domain.Collaborator("image response", ErrMediaUnavailable)
	}

	scenario, err := g.llmClient.CreateScenario(ctx, state.Messages)
	if err != nil {
		return "", domain.Collaborator("create scenario", err)
	}
	prompt, err := g.llmClient.EnhancePrompt(ctx, scenario.ImagePrompt)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return "", err
		}
		return "", domain.Collaborator("enhance prompt", err)
	}
	image, err := g.imageGen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	path, err := g.saveImage(image)
	if err != nil {
		return "", domain.Storage("save image", err)
	}
	state.ImagePath = path
	return scenario.Narrative, nil
}

func (g *Graph) saveImage(image []byte) (string, error) {
	if err := os.MkdirAll(g.imageDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(g.imageDir, fmt.Sprintf("image_%s.png", uuid.NewString()))
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// summarizeNode folds the history into state.Summary and keeps only the most
// recent messages. A failed summary leaves the history intact for the next turn.
func (g *Graph) summarizeNode(ctx context.Context, state *domain.ConversationState) bool {
	summary, err := g.llmClient.Summarize(ctx, state.Summary, state.Messages)
	if err != nil {
		g.logger.Warn("summarization failed",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
		return false
	}

	state.Summary = summary
	keep := g.settings.MessagesAfterSummary
	if keep < len(state.Messages) {
		state.Messages = append([]domain.Message(nil), state.Messages[len(state.Messages)-keep:]...)
	}
	g.logger.Info("summarized conversation",
		zap.String("session_id", state.SessionID),
		zap.Int("kept_messages", len(state.Messages)))
	return true
}
