package handlers

import (
	"net/http"
	"time"

	middleware "github.com/markdave123-py/Coverly/internal/api/middlewares"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	secret string
	ttl    time.Duration
	log    *logger.Logger
}

func NewAuthHandler(users *services.UserService, secret string, ttl time.Duration, log *logger.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{users: users, secret: secret, ttl: ttl, log: orNop(log)}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

// Logout is an acknowledgement only; tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := middleware.SignToken(h.secret, user.ID, h.ttl)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user})
}
