// Package service defines the backend-agnostic interface to the task API.
package service

import (
	"context"
	"errors"
	"fmt"
)

// API defines the operations of the remote task API.
// Authenticated calls take the bearer token explicitly; it is read-only for
// the lifetime of the request.
type API interface {
	// Login exchanges credentials for a token.
	Login(ctx context.Context, creds Credentials) (string, error)

	// Register creates an account and returns its token.
	Register(ctx context.Context, creds Credentials) (string, error)

	// CurrentUser returns the profile of the token's owner.
	CurrentUser(ctx context.Context, token string) (User, error)

	// ListTasks returns tasks matching the filter in API order.
	ListTasks(ctx context.Context, token string, filter Filter) ([]Task, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, token string, id int64) (Task, error)

	// CreateTask creates a task and returns it.
	CreateTask(ctx context.Context, token string, in TaskInput) (Task, error)

	// UpdateTask replaces title, description and completion of a task.
	UpdateTask(ctx context.Context, token string, id int64, upd TaskUpdate) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, token string, id int64) error
}

// Error classes returned (wrapped) by API implementations.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// StatusError is a non-2xx response. It unwraps to the matching error class.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Code)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code to an error class.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case 400:
		return ErrBadRequest
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	}
	return nil
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
