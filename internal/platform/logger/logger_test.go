package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"user_id", "u1",
		"password", "hunter2",
		"gemini_api_key", "AIza...",
		"Authorization", "Bearer x",
		"dangling",
	})

	assert.Equal(t, []interface{}{
		"user_id", "u1",
		"password", "[REDACTED]",
		"gemini_api_key", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"dangling",
	}, got)
}

func TestLoggerRedactsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("request_id", "r1").Info("login", "email", "a@b.c", "password", "secret-pw")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "r1", fields["request_id"])
		assert.Equal(t, "a@b.c", fields["email"])
		assert.Equal(t, "[REDACTED]", fields["password"])
	}
}
