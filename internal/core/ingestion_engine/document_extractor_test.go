package ingestion_engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Coverly/internal/core"
)

func TestExtractPlainText(t *testing.T) {
	in := "  Dear {COMPANY_NAME},\r\n\r\n\r\n  I want the {JOB_TITLE} role.  \n\n"

	got, err := NewDocconvExtractor(false).ExtractText(context.Background(), strings.NewReader(in), "prompt.txt", "")
	require.NoError(t, err)

	assert.Equal(t, "Dear {COMPANY_NAME},\n\nI want the {JOB_TITLE} role.", got)
}

func TestExtractMarkdownByExtension(t *testing.T) {
	got, err := NewDocconvExtractor(false).ExtractText(context.Background(), strings.NewReader("# Hi {JOB_TITLE}"), "prompt.md", "")
	require.NoError(t, err)

	assert.Equal(t, "# Hi {JOB_TITLE}", got)
}

func TestExtractUnknownFormat(t *testing.T) {
	_, err := NewDocconvExtractor(false).ExtractText(context.Background(), strings.NewReader("x"), "blob", "application/octet-stream")

	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\n\nb\nc", normalizeText("\n\n a \n\n\n b\nc\n\n"))
	assert.Equal(t, "", normalizeText(" \n \n"))
}
