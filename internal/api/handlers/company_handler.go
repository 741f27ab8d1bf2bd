package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

type CompanyHandler struct {
	companies *services.CompanyService
	maxUpload int64
	log       *logger.Logger
}

func NewCompanyHandler(companies *services.CompanyService, maxUpload int64, log *logger.Logger) *CompanyHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &CompanyHandler{companies: companies, maxUpload: maxUpload, log: orNop(log)}
}

// UploadSheet ingests an .xlsx or .csv sheet of companies and makes it the active batch.
func (h *CompanyHandler) UploadSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	f, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.companies.Upload(r.Context(), id, services.UploadInput{
		FileName:    f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *CompanyHandler) State(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.companies.State(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Download streams back the raw sheet archived for a batch.
func (h *CompanyHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	a, err := h.companies.Archive(r.Context(), id, chi.URLParam(r, "batchId"), chi.URLParam(r, "fileName"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(a.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Data); err != nil {
		h.log.Warn("write archive", "error", err)
	}
}
