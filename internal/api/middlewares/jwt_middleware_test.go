package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func TestJWTMiddleware(t *testing.T) {
	valid, err := SignToken(testSecret, "u1", time.Hour)
	require.NoError(t, err)
	expired, err := SignToken(testSecret, "u1", -time.Minute)
	require.NoError(t, err)
	otherKey, err := SignToken("another-secret", "u1", time.Hour)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + otherKey, http.StatusUnauthorized, ""},
		{"no expiry", "Bearer " + noExp, http.StatusUnauthorized, ""},
		{"no user claim", "Bearer " + noUser, http.StatusUnauthorized, ""},
	}

	h := JWTMiddleware(testSecret)(echoUser())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)
			}
		})
	}
}

func TestSignTokenRequiresSecret(t *testing.T) {
	_, err := SignToken("", "u1", time.Hour)
	assert.Error(t, err)
}

func TestUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(req.Context(), "u9"))
	assert.True(t, ok)
	assert.Equal(t, "u9", id)
}
