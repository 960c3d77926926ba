package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the intake protocol. Every failure maps to exactly one
// of these so callers can decide whether to retry the phase, re-reserve, or
// give up.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("upload token expired")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
)

// ValidationError is a single structured, field-level problem.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass so the client
// can fix them all in a single round trip.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Any() bool {
	return len(e) > 0
}
