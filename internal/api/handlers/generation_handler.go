package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

type GenerationHandler struct {
	generation *services.GenerationService
	log        *logger.Logger
}

func NewGenerationHandler(generation *services.GenerationService, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{generation: generation, log: orNop(log)}
}

type generateRequest struct {
	CompanyID string `json:"companyId"`
}

func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if strings.TrimSpace(req.CompanyID) == "" {
		writeError(w, h.log, badRequest("companyId is required"))
		return
	}

	res, err := h.generation.Generate(r.Context(), id, req.CompanyID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GenerationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.generation.Preview(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *GenerationHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	letters, err := h.generation.History(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, letters)
}
