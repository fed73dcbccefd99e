// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"tasker/internal/service"
)

type fakeUser struct {
	id       int64
	email    string
	password string
}

// FakeAPI is an in-memory implementation of service.API for testing.
// It behaves like the real API: bearer tokens are checked, tasks are scoped
// to their owner and completed_at follows the completed flag.
type FakeAPI struct {
	mu       sync.Mutex
	users    map[string]*fakeUser // email -> user
	tokens   map[string]string    // token -> email
	tasks    map[string][]service.Task
	nextUser int64
	nextTask int64
	calls    map[string]int

	// Now returns the clock used for created_at/completed_at.
	Now func() time.Time

	// Error injection for testing
	LoginErr       error
	RegisterErr    error
	CurrentUserErr error
	ListTasksErr   error
	GetTaskErr     error
	CreateTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
}

// NewFakeAPI creates an empty FakeAPI.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		users:  make(map[string]*fakeUser),
		tokens: make(map[string]string),
		tasks:  make(map[string][]service.Task),
		calls:  make(map[string]int),
		Now: func() time.Time {
			return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
		},
	}
}

// AddUser registers a user and returns a valid token for it.
func (f *FakeAPI) AddUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUser++
	f.users[email] = &fakeUser{id: f.nextUser, email: email, password: password}
	return f.issueLocked(email)
}

// GrantToken makes token valid for the user with the given email.
func (f *FakeAPI) GrantToken(email, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = email
}

// RevokeToken makes token invalid for subsequent calls.
func (f *FakeAPI) RevokeToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// AddTask adds a task owned by the token's user and returns it.
func (f *FakeAPI) AddTask(token, title, description string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := f.tokens[token]
	f.nextTask++
	t := service.Task{
		ID:          f.nextTask,
		Title:       title,
		Description: description,
		CreatedAt:   f.Now(),
		UpdatedAt:   f.Now(),
	}
	setCompleted(&t, completed, f.Now())
	f.tasks[email] = append(f.tasks[email], t)
	return t
}

// Tasks returns a copy of all tasks owned by the token's user.
func (f *FakeAPI) Tasks(token string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks[f.tokens[token]]...)
}

// Calls returns how many times the named method was invoked.
func (f *FakeAPI) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of API calls of any kind.
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeAPI) issueLocked(email string) string {
	token := fmt.Sprintf("token-%d-%d", f.users[email].id, len(f.tokens)+1)
	f.tokens[token] = email
	return token
}

func (f *FakeAPI) ownerLocked(token string) (string, error) {
	email, ok := f.tokens[token]
	if !ok {
		return "", &service.StatusError{Code: 401, Message: "invalid token"}
	}
	return email, nil
}

func (f *FakeAPI) findLocked(email string, id int64) (int, error) {
	for i, t := range f.tasks[email] {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, &service.StatusError{Code: 404, Message: "task not found"}
}

func (f *FakeAPI) enter(method string, injected error) error {
	f.calls[method]++
	return injected
}

// Login implements service.API.
func (f *FakeAPI) Login(ctx context.Context, creds service.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Login", f.LoginErr); err != nil {
		return "", err
	}
	u, ok := f.users[creds.Email]
	if !ok || u.password != creds.Password {
		return "", &service.StatusError{Code: 401, Message: "invalid credentials"}
	}
	return f.issueLocked(u.email), nil
}

// Register implements service.API.
func (f *FakeAPI) Register(ctx context.Context, creds service.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Register", f.RegisterErr); err != nil {
		return "", err
	}
	if creds.Email == "" || utf8.RuneCountInString(creds.Password) < 8 {
		return "", &service.StatusError{Code: 400, Message: "invalid request fields"}
	}
	if _, ok := f.users[creds.Email]; ok {
		return "", &service.StatusError{Code: 409, Message: "email is already taken"}
	}
	f.nextUser++
	f.users[creds.Email] = &fakeUser{id: f.nextUser, email: creds.Email, password: creds.Password}
	return f.issueLocked(creds.Email), nil
}

// CurrentUser implements service.API.
func (f *FakeAPI) CurrentUser(ctx context.Context, token string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CurrentUser", f.CurrentUserErr); err != nil {
		return service.User{}, err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return service.User{}, err
	}
	u := f.users[email]
	return service.User{ID: u.id, Email: u.email}, nil
}

// ListTasks implements service.API.
func (f *FakeAPI) ListTasks(ctx context.Context, token string, filter service.Filter) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListTasks", f.ListTasksErr); err != nil {
		return nil, err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return nil, err
	}
	result := []service.Task{}
	for _, t := range f.tasks[email] {
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	return result, nil
}

// GetTask implements service.API.
func (f *FakeAPI) GetTask(ctx context.Context, token string, id int64) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetTask", f.GetTaskErr); err != nil {
		return service.Task{}, err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return service.Task{}, err
	}
	i, err := f.findLocked(email, id)
	if err != nil {
		return service.Task{}, err
	}
	return f.tasks[email][i], nil
}

// CreateTask implements service.API.
func (f *FakeAPI) CreateTask(ctx context.Context, token string, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateTask", f.CreateTaskErr); err != nil {
		return service.Task{}, err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return service.Task{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return service.Task{}, &service.StatusError{Code: 400, Message: "invalid request fields"}
	}
	f.nextTask++
	t := service.Task{
		ID:          f.nextTask,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   f.Now(),
		UpdatedAt:   f.Now(),
	}
	f.tasks[email] = append(f.tasks[email], t)
	return t, nil
}

// UpdateTask implements service.API.
func (f *FakeAPI) UpdateTask(ctx context.Context, token string, id int64, upd service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateTask", f.UpdateTaskErr); err != nil {
		return service.Task{}, err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return service.Task{}, err
	}
	i, err := f.findLocked(email, id)
	if err != nil {
		return service.Task{}, err
	}
	t := &f.tasks[email][i]
	t.Title = upd.Title
	t.Description = upd.Description
	t.UpdatedAt = f.Now()
	setCompleted(t, upd.Completed, f.Now())
	return *t, nil
}

// DeleteTask implements service.API.
func (f *FakeAPI) DeleteTask(ctx context.Context, token string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteTask", f.DeleteTaskErr); err != nil {
		return err
	}
	email, err := f.ownerLocked(token)
	if err != nil {
		return err
	}
	i, err := f.findLocked(email, id)
	if err != nil {
		return err
	}
	tasks := f.tasks[email]
	f.tasks[email] = append(tasks[:i], tasks[i+1:]...)
	return nil
}

// setCompleted keeps completed_at present only while completed is true.
func setCompleted(t *service.Task, completed bool, now time.Time) {
	switch {
	case completed && !t.Completed:
		at := now
		t.CompletedAt = &at
	case !completed:
		t.CompletedAt = nil
	}
	t.Completed = completed
}

// ErrInjected is a generic failure for error injection.
var ErrInjected = errors.New("injected failure")
