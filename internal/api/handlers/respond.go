package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	middleware "github.com/markdave123-py/Coverly/internal/api/middlewares"
	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the single place where errors become HTTP statuses.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		log.Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := errorBody{Kind: string(appErr.Kind), Message: appErr.Error()}
		switch appErr.Kind {
		case apperr.KindEmptyInput:
			return http.StatusBadRequest, body
		case apperr.KindNoValidRows:
			return http.StatusUnprocessableEntity, body
		case apperr.KindNotFound:
			return http.StatusNotFound, body
		case apperr.KindOutOfRange:
			return http.StatusRequestedRangeNotSatisfiable, body
		case apperr.KindGenerationFailed:
			return http.StatusBadGateway, body
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict, errorBody{"conflict", err.Error()}
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{"unauthorized", err.Error()}
	case errors.Is(err, services.ErrInvalidUser), errors.Is(err, services.ErrInvalidTemplate), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{"invalid_request", err.Error()}
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, errorBody{"unsupported_format", err.Error()}
	case errors.Is(err, core.ErrUnreadableFile):
		return http.StatusUnprocessableEntity, errorBody{"unreadable_file", err.Error()}
	case errors.As(err, &tooLarge), errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{"too_large", "upload exceeds the size limit"}
	}
	return http.StatusInternalServerError, errorBody{"internal", "internal server error"}
}

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("payload too large")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid JSON body")
	}
	return nil
}

// userID reads the authenticated user. Routes using it sit behind JWTMiddleware.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{"unauthorized", "user_id not found in context"})
	}
	return id, ok
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
