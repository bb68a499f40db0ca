package handlers

import (
	"encoding/json"
	"net/http"

	mw "github.com/Harshitk-cp/companion/internal/api/middleware"
	"github.com/Harshitk-cp/companion/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxTurnBody caps a turn request; audio and images arrive base64-encoded.
const maxTurnBody = 25 << 20

type SessionHandler struct {
	svc    *service.SessionService
	logger *zap.Logger
}

func NewSessionHandler(svc *service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logger}
}

// turnRequest carries optional media as base64 (encoding/json's []byte form).
type turnRequest struct {
	Text  string `json:"text"`
	Audio []byte `json:"audio,omitempty"`
	Image []byte `json:"image,omitempty"`
}

func (h *SessionHandler) Turn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTurnBody)

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "id")
	logger := mw.LoggerFromContext(r.Context(), h.logger).With(zap.String("session_id", sessionID))

	result, err := h.svc.Turn(r.Context(), sessionID, service.TurnInput{
		Text:  req.Text,
		Audio: req.Audio,
		Image: req.Image,
	})
	if err != nil {
		logger.Warn("turn failed", zap.Error(err))
		writeServiceError(w, err, "failed to run turn")
		return
	}

	logger.Debug("turn completed",
		zap.String("workflow", string(result.Workflow)),
		zap.Bool("summarized", result.Summarized),
	)

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
