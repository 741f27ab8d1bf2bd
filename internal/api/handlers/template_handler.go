package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Coverly/internal/core/prompt"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

// maxTemplateFile caps imported prompt documents.
const maxTemplateFile = 5 << 20

type TemplateHandler struct {
	templates *services.TemplateService
	log       *logger.Logger
}

func NewTemplateHandler(templates *services.TemplateService, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, log: orNop(log)}
}

// templateView flags templates that reference no placeholder, so the UI can warn
// that every generated prompt will be identical.
type templateView struct {
	*models.PromptTemplate
	HasPlaceholders bool `json:"hasPlaceholders"`
}

func viewOf(t *models.PromptTemplate) templateView {
	return templateView{PromptTemplate: t, HasPlaceholders: prompt.HasTokens(t.Content)}
}

type saveTemplateRequest struct {
	Content   string `json:"content"`
	IsDefault bool   `json:"isDefault"`
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.templates.List(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]templateView, len(list))
	for i := range list {
		out[i] = viewOf(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	t, err := h.templates.Get(r.Context(), id, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t))
}

func (h *TemplateHandler) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req saveTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	t, err := h.templates.Save(r.Context(), id, chi.URLParam(r, "name"), req.Content, req.IsDefault)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t))
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), id, chi.URLParam(r, "name")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import accepts a multipart "file" (.txt, .md, .docx, .pdf, ...) plus optional
// "name" and "isDefault" fields.
func (h *TemplateHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	f, err := readUpload(w, r, maxTemplateFile)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	isDefault, _ := strconv.ParseBool(r.FormValue("isDefault"))

	t, err := h.templates.Import(r.Context(), id, services.ImportInput{
		Name:        r.FormValue("name"),
		FileName:    f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
		IsDefault:   isDefault,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(t))
}
