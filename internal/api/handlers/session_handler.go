package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
	log      *logger.Logger
}

func NewSessionHandler(sessions *services.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: orNop(log)}
}

type gotoRequest struct {
	Index *int `json:"index"`
}

func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.sessions.Next)
}

func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.sessions.Previous)
}

func (h *SessionHandler) Goto(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if req.Index == nil {
		writeError(w, h.log, badRequest("index is required"))
		return
	}
	h.navigate(w, r, func(ctx context.Context, userID string) (*services.Position, error) {
		return h.sessions.Goto(ctx, userID, *req.Index)
	})
}

func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req services.Settings
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	v, err := h.sessions.UpdateSettings(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionHandler) navigate(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, userID string) (*services.Position, error)) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	pos, err := step(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
