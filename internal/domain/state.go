package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.New(), Role: role, Content: content, CreatedAt: time.Now()}
}

// Workflow is the output modality chosen for a turn.
type Workflow string

const (
	WorkflowConversation Workflow = "conversation"
	WorkflowImage        Workflow = "image"
	WorkflowAudio        Workflow = "audio"
)

func ValidWorkflow(w string) bool {
	switch Workflow(w) {
	case WorkflowConversation, WorkflowImage, WorkflowAudio:
		return true
	}
	return false
}

// ConversationState is threaded through every turn of one session.
type ConversationState struct {
	SessionID       string    `json:"session_id"`
	Messages        []Message `json:"messages"`
	Summary         string    `json:"summary,omitempty"`
	Workflow        Workflow  `json:"workflow,omitempty"`
	AudioBuffer     []byte    `json:"audio_buffer,omitempty"`
	ImagePath       string    `json:"image_path,omitempty"`
	CurrentActivity string    `json:"current_activity,omitempty"`
	ApplyActivity   bool      `json:"apply_activity"`
	MemoryContext   string    `json:"memory_context"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewConversationState(sessionID string) *ConversationState {
	now := time.Now()
	return &ConversationState{
		SessionID: sessionID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecentMessages returns the last n messages, oldest first.
func (s *ConversationState) RecentMessages(n int) []Message {
	if n <= 0 || n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// LastMessage returns the most recent message with the given role.
func (s *ConversationState) LastMessage(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// ClearTurnArtifacts drops the artifacts produced by the previous turn's handler.
func (s *ConversationState) ClearTurnArtifacts() {
	s.AudioBuffer = nil
	s.ImagePath = ""
}
