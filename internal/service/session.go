package service

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/store"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("session id must be 1-128 characters of letters, digits, '-', '_' or '.'")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// SessionService runs turns against checkpointed conversation state.
// Turns within one session are sequential; distinct sessions run concurrently.
type SessionService struct {
	store  domain.SessionStore
	graph  *Graph
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionService(ss domain.SessionStore, g *Graph, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:  ss,
		graph:  g,
		logger: logger,
		locks:  make(map[string]*sessionLock),
	}
}

func (s *SessionService) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func validateSessionID(op, id string) error {
	if !sessionIDPattern.MatchString(id) {
		return domain.Validation(op, ErrInvalidSessionID)
	}
	return nil
}

// Turn loads (or starts) the session, runs one turn and checkpoints the
// result. A failed turn leaves the stored state untouched.
func (s *SessionService) Turn(ctx context.Context, sessionID string, input TurnInput) (*TurnResult, error) {
	if err := validateSessionID("run turn", sessionID); err != nil {
		return nil, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		state = domain.NewConversationState(sessionID)
		s.logger.Info("starting new session", zap.String("session_id", sessionID))
	} else if err != nil {
		return nil, domain.Storage("load session", err)
	}

	result, err := s.graph.RunTurn(ctx, state, input)
	if err != nil {
		s.logger.Warn("turn failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, domain.Storage("save session", err)
	}
	return result, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	if err := validateSessionID("get session", sessionID); err != nil {
		return nil, err
	}
	state, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.Storage("get session", err)
	}
	return state, nil
}

// Reset deletes the session's state. Long-term memories are kept.
func (s *SessionService) Reset(ctx context.Context, sessionID string) error {
	if err := validateSessionID("reset session", sessionID); err != nil {
		return err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	err := s.store.Delete(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return domain.Storage("reset session", err)
	}
	s.logger.Info("session reset", zap.String("session_id", sessionID))
	return nil
}
