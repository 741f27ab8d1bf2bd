// Package apperr holds the closed set of domain errors surfaced to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the domain error variants.
type Kind string

const (
	KindEmptyInput       Kind = "empty_input"
	KindNoValidRows      Kind = "no_valid_rows"
	KindNotFound         Kind = "not_found"
	KindGenerationFailed Kind = "generation_failed"
	KindOutOfRange       Kind = "out_of_range"
)

// Error is the only error type constructed by this package. Callers switch on Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, apperr.NotFound("")) works for any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// EmptyInput is returned when an uploaded sheet has no data rows after the header.
func EmptyInput() *Error {
	return &Error{Kind: KindEmptyInput, Message: "the sheet must contain a header row and at least one data row"}
}

// NoValidRows is returned when every data row failed row validation.
func NoValidRows(dataRows int) *Error {
	return &Error{
		Kind:    KindNoValidRows,
		Message: fmt.Sprintf("no valid company rows found in %d data row(s); each row needs name, application link, job description and job title", dataRows),
	}
}

// NotFound is returned when a referenced entity does not exist or belongs to someone else.
func NotFound(what string) *Error {
	if what == "" {
		what = "resource"
	}
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// GenerationFailed wraps an upstream text-generation failure.
func GenerationFailed(cause error) *Error {
	msg := "cover letter generation failed"
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &Error{Kind: KindGenerationFailed, Message: msg, Err: cause}
}

// OutOfRange is returned when a navigation index falls outside [0, count).
func OutOfRange(index, count int) *Error {
	if count <= 0 {
		return &Error{
			Kind:    KindOutOfRange,
			Message: fmt.Sprintf("index %d is out of range; no companies are loaded", index),
		}
	}
	return &Error{
		Kind:    KindOutOfRange,
		Message: fmt.Sprintf("index %d is out of range; valid positions are 0 to %d", index, count-1),
	}
}

// KindOf reports the Kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
