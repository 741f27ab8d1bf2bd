package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"empty input", EmptyInput(), KindEmptyInput},
		{"no valid rows", NoValidRows(3), KindNoValidRows},
		{"not found", NotFound("company"), KindNotFound},
		{"generation failed", GenerationFailed(errors.New("boom")), KindGenerationFailed},
		{"out of range", OutOfRange(5, 3), KindOutOfRange},
		{"wrapped", fmt.Errorf("upload: %w", EmptyInput()), KindEmptyInput},
		{"foreign error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessagesAreDistinct(t *testing.T) {
	msgs := map[string]bool{}
	for _, err := range []error{
		EmptyInput(),
		NoValidRows(1),
		NotFound("company"),
		GenerationFailed(nil),
		OutOfRange(1, 1),
	} {
		require.NotEmpty(t, err.Error())
		assert.False(t, msgs[err.Error()], "duplicate message %q", err.Error())
		msgs[err.Error()] = true
	}
}

func TestGenerationFailedKeepsCause(t *testing.T) {
	err := GenerationFailed(context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("template"))

	assert.True(t, errors.Is(err, NotFound("")))
	assert.False(t, errors.Is(err, OutOfRange(0, 0)))
}

func TestOutOfRangeMessage(t *testing.T) {
	assert.Equal(t, "index 5 is out of range; valid positions are 0 to 2", OutOfRange(5, 3).Error())
}
