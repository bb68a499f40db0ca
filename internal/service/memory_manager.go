package service

import (
	"context"
	"strings"

	"github.com/Harshitk-cp/companion/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMemoryTopK = 3
	memorySource      = "conversation"
)

// MemoryManager decides what is worth remembering and pulls relevant
// memories back into context.
type MemoryManager struct {
	store     *VectorStore
	llmClient domain.LLMClient
	topK      int
	logger    *zap.Logger
}

func NewMemoryManager(vs *VectorStore, lc domain.LLMClient, topK int, logger *zap.Logger) *MemoryManager {
	if topK <= 0 {
		topK = defaultMemoryTopK
	}
	return &MemoryManager{
		store:     vs,
		llmClient: lc,
		topK:      topK,
		logger:    logger,
	}
}

// ConsiderForStorage classifies a human message and stores the formatted
// fact unless an equivalent memory already exists. Returns the stored
// memory, or nil when nothing was written.
func (m *MemoryManager) ConsiderForStorage(ctx context.Context, msg domain.Message) (*domain.Memory, error) {
	if msg.Role != domain.RoleHuman || strings.TrimSpace(msg.Content) == "" {
		return nil, nil
	}

	analysis, err := m.llmClient.AnalyzeMemory(ctx, msg.Content)
	if err != nil {
		return nil, domain.Collaborator("analyze memory", err)
	}
	if analysis == nil || !analysis.IsImportant || strings.TrimSpace(analysis.FormattedMemory) == "" {
		return nil, nil
	}

	dup, err := m.store.FindDuplicate(ctx, analysis.FormattedMemory)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		m.logger.Info("similar memory already exists",
			zap.String("memory_id", dup.ID.String()),
			zap.Float32("similarity", dup.Score))
		return nil, nil
	}

	mem, err := m.store.Upsert(ctx, analysis.FormattedMemory, map[string]string{"source": memorySource})
	if err != nil {
		return nil, err
	}
	m.logger.Info("stored new memory", zap.String("memory_id", mem.ID.String()))
	return mem, nil
}

// Retrieve returns the texts of the memories most relevant to contextText,
// most relevant first.
func (m *MemoryManager) Retrieve(ctx context.Context, contextText string) ([]string, error) {
	if strings.TrimSpace(contextText) == "" {
		return nil, nil
	}

	hits, err := m.store.Search(ctx, contextText, m.topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		m.logger.Debug("retrieved memory",
			zap.String("memory_id", h.ID.String()),
			zap.Float32("score", h.Score))
		texts = append(texts, h.Text)
	}
	return texts, nil
}

// FormatForPrompt renders memories as a bullet list, or "" when there are none.
func FormatForPrompt(memories []string) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	for i, mem := range memories {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(mem)
	}
	return b.String()
}
