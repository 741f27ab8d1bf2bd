package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Coverly/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText returns the plain text of a prompt document. Plain text and markdown are
// read as-is; everything else goes through docconv, picked by extension then content type.
func (e *DocconvExtractor) ExtractText(ctx context.Context, r io.Reader, fileName, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := resolveMimeType(fileName, contentType)
	switch mimeType {
	case "":
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, filepath.Base(fileName))
	case "text/plain", "text/markdown":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read text: %w", err)
		}
		return normalizeText(string(b)), nil
	}

	res, err := docconv.Convert(r, mimeType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: extraction failed for content type '%s': %w", mimeType, err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return normalizeText(res.Body), nil
}

func resolveMimeType(fileName, contentType string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	}
	if m := docconv.MimeTypeByExtension(fileName); m != "application/octet-stream" && m != "" {
		return m
	}
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if ct == "" || ct == "application/octet-stream" {
		return ""
	}
	return ct
}

// normalizeText trims every line and drops runs of blank lines.
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
