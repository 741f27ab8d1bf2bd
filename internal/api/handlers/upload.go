package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

const multipartOverhead = 1 << 20

type uploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// readUpload reads the multipart "file" field, rejecting files over max bytes.
func readUpload(w http.ResponseWriter, r *http.Request, max int64) (*uploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, max+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest("invalid multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, badRequest("missing file field")
		}
		return nil, badRequest("invalid file")
	}
	defer file.Close()

	data, err := readLimited(file, max)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &uploadedFile{Name: filepath.Base(header.Filename), ContentType: contentType, Data: data}, nil
}

func readLimited(f multipart.File, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, errTooLarge
	}
	return data, nil
}
