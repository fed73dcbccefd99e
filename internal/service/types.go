package service

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a single task owned by the remote API.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// User is the profile returned for the current token.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Credentials is the body of login and register requests.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// TaskUpdate is the body of an update request.
type TaskUpdate struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Filter selects which subset of tasks a listing returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// ParseFilter parses a filter name (case-insensitive, trimmed).
// An empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending:
		return f, nil
	default:
		return "", fmt.Errorf("invalid filter: %s (want all, completed or pending)", s)
	}
}

// Completed returns the value of the completed query parameter, or nil when
// the parameter must be omitted.
func (f Filter) Completed() *bool {
	var v bool
	switch f {
	case FilterCompleted:
		v = true
	case FilterPending:
		v = false
	default:
		return nil
	}
	return &v
}

// Matches reports whether a task belongs to the filtered subset.
func (f Filter) Matches(t Task) bool {
	c := f.Completed()
	return c == nil || *c == t.Completed
}
