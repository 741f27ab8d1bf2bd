package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"empty input", apperr.EmptyInput(), http.StatusBadRequest, "empty_input"},
		{"no valid rows", apperr.NoValidRows(3), http.StatusUnprocessableEntity, "no_valid_rows"},
		{"not found", apperr.NotFound("company"), http.StatusNotFound, "not_found"},
		{"out of range", apperr.OutOfRange(5, 3), http.StatusRequestedRangeNotSatisfiable, "out_of_range"},
		{"generation failed", apperr.GenerationFailed(errors.New("boom")), http.StatusBadGateway, "generation_failed"},
		{"wrapped app error", fmt.Errorf("ctx: %w", apperr.NotFound("user")), http.StatusNotFound, "not_found"},
		{"user exists", services.ErrUserExists, http.StatusConflict, "conflict"},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"invalid template", fmt.Errorf("%w: name is required", services.ErrInvalidTemplate), http.StatusBadRequest, "invalid_request"},
		{"unsupported", fmt.Errorf("decode: %w", core.ErrUnsupportedFormat), http.StatusUnsupportedMediaType, "unsupported_format"},
		{"unreadable", fmt.Errorf("decode: %w: open workbook: zip: not a valid zip file", core.ErrUnreadableFile), http.StatusUnprocessableEntity, "unreadable_file"},
		{"too large", errTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, logger.Nop(), errors.New("dial tcp 10.0.0.3:5432: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestAppErrorMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, err := range []error{
		apperr.EmptyInput(), apperr.NoValidRows(1), apperr.NotFound("company"),
		apperr.GenerationFailed(errors.New("x")), apperr.OutOfRange(1, 1),
	} {
		_, body := classify(err)
		assert.False(t, seen[body.Message], body.Message)
		seen[body.Message] = true
	}
}
