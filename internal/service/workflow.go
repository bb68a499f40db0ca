package service

import (
	"context"

	"github.com/Harshitk-cp/companion/internal/domain"
	"go.uber.org/zap"
)

// Node names one step of a turn.
type Node string

const (
	NodeMemoryExtraction Node = "memory_extraction"
	NodeRouter           Node = "router"
	NodeContextInjection Node = "context_injection"
	NodeMemoryInjection  Node = "memory_injection"
	NodeConversation     Node = "conversation"
	NodeImage            Node = "image"
	NodeAudio            Node = "audio"
	NodeSummarize        Node = "summarize"
	NodeEnd              Node = "end"
)

// TurnSettings bounds the message windows used during a turn.
type TurnSettings struct {
	RouterMessagesToAnalyze int
	SummaryTrigger          int
	MessagesAfterSummary    int
}

func DefaultTurnSettings() TurnSettings {
	return TurnSettings{
		RouterMessagesToAnalyze: 3,
		SummaryTrigger:          20,
		MessagesAfterSummary:    5,
	}
}

// SelectWorkflow maps the routed workflow label to its handler node.
// Unknown or empty labels fall back to conversation.
func SelectWorkflow(state *domain.ConversationState) Node {
	switch state.Workflow {
	case domain.WorkflowImage:
		return NodeImage
	case domain.WorkflowAudio:
		return NodeAudio
	default:
		return NodeConversation
	}
}

// ShouldSummarize returns NodeSummarize once the history exceeds the trigger.
func (s TurnSettings) ShouldSummarize(state *domain.ConversationState) Node {
	if len(state.Messages) > s.SummaryTrigger {
		return NodeSummarize
	}
	return NodeEnd
}

// RouterNode classifies the most recent messages and writes the label into
// state.Workflow as returned.
func (g *Graph) RouterNode(ctx context.Context, state *domain.ConversationState) error {
	recent := state.RecentMessages(g.settings.RouterMessagesToAnalyze)
	workflow, err := g.llmClient.Route(ctx, recent)
	if err != nil {
		return domain.Collaborator("route turn", err)
	}
	state.Workflow = workflow
	g.logger.Debug("routed turn",
		zap.String("session_id", state.SessionID),
		zap.String("workflow", string(workflow)))
	return nil
}
