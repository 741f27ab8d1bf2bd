package core

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedFormat is returned by decoders and extractors for file types they cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Row is one spreadsheet row: an ordered sequence of loosely typed cell values.
type Row []any

// SpreadsheetDecoder turns an uploaded file into ordered rows, header included.
// The `fileName` and `contentType` hints pick the parsing strategy.
type SpreadsheetDecoder interface {
	Decode(ctx context.Context, r io.Reader, fileName, contentType string) ([]Row, error)
}

// TextExtractor pulls plain text out of a document such as a .docx prompt file.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName, contentType string) (string, error)
}

// ErrUnreadableFile is returned when a file has a supported type but its content cannot be parsed.
var ErrUnreadableFile = errors.New("file could not be read")
