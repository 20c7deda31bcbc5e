package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation_error"
	KindNotFound   ErrorKind = "not_found"
	KindUpstream   ErrorKind = "upstream_failure"
)

// ErrCreationFailed is wrapped when a food item could neither be inserted nor found.
var ErrCreationFailed = errors.New("food item creation failed")

// Error is what every service operation returns on failure.
type Error struct {
	Kind      ErrorKind
	Message   string
	Field     string   // validation
	Entity    string   // not found
	ID        string   // not found
	Details   []string // every problem when several were collected
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func NotFound(entity string, id any) *Error {
	sid := fmt.Sprint(id)
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      sid,
		Message: fmt.Sprintf("%s %s not found", strings.ReplaceAll(entity, "_", " "), sid),
	}
}

// Upstream wraps a store or peer failure. Deadlines are marked retryable.
func Upstream(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	out := &Error{Kind: KindUpstream, Message: op + " failed", Err: err}
	if errors.Is(err, context.DeadlineExceeded) {
		out.Message = op + " timed out, please retry"
		out.Retryable = true
	}
	return out
}

// AsError converts anything into an *Error at the request boundary.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Upstream("request", err)
}

// lookupErr maps a single-row lookup failure: missing rows become NotFound.
func lookupErr(entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(entity, id)
	}
	return Upstream("loading "+strings.ReplaceAll(entity, "_", " "), err)
}
