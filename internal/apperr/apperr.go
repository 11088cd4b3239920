// Package apperr defines the user-facing error taxonomy. Components wrap
// errors with %w internally; the boundary converts them into a structured
// Error carrying a classification and a recommended recovery action.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Type classifies an error for user-facing handling.
type Type string

const (
	TypeNetwork    Type = "NETWORK"
	TypeAuth       Type = "AUTH"
	TypeValidation Type = "VALIDATION"
	TypeAPI        Type = "API"
	TypeUnknown    Type = "UNKNOWN"
)

// Error is the structured error surfaced to the presentation layer.
type Error struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Action    string    `json:"action"` // recommended recovery, e.g. "reload"
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a structured error of the given type.
func New(t Type, title, message, action string, err error) *Error {
	return &Error{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     title,
		Message:   message,
		Action:    action,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Validation builds a VALIDATION error for malformed local input.
func Validation(message string) *Error {
	return New(TypeValidation, "Invalid input", message, "fix-input", nil)
}

// FromRequest wraps a fetch failure into a structured error. status may
// be zero when the failure happened below HTTP.
func FromRequest(err error, status int, message string) *Error {
	t := Classify(err, status)
	title, action := "Request failed", "retry"
	switch t {
	case TypeAuth:
		title, action = "Not authorized", "re-authenticate"
	case TypeValidation:
		title, action = "Request rejected", "fix-input"
	case TypeAPI:
		title, action = "Upstream error", "retry-later"
	case TypeUnknown:
		title, action = "Unexpected error", "reload"
	}
	return New(t, title, message, action, err)
}

// ClassifyStatus maps an HTTP status code to an error type.
func ClassifyStatus(status int) Type {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return TypeAuth
	case status >= 400 && status < 500:
		return TypeValidation
	case status >= 500:
		return TypeAPI
	default:
		return TypeUnknown
	}
}

// Classify derives a type from an error and an optional HTTP status.
// A zero status means the failure happened below HTTP; cancellation and
// transport errors classify as NETWORK.
func Classify(err error, status int) Type {
	if status != 0 {
		return ClassifyStatus(status)
	}
	if err == nil {
		return TypeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TypeNetwork
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return TypeNetwork
	}
	return TypeUnknown
}
