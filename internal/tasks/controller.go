package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tasker/internal/service"
	"tasker/internal/session"
)

var (
	ErrTitleRequired = errors.New("task title is required")
	ErrCreateFailed  = errors.New("failed to create task")
	ErrLoadFailed    = errors.New("failed to load task details")
	ErrUpdateFailed  = errors.New("failed to update task")
	ErrDeleteFailed  = errors.New("failed to delete task")
	ErrListFailed    = errors.New("failed to load tasks")
)

// Confirmer asks the user to confirm deleting the task with the given id.
// It blocks until answered.
type Confirmer func(id int64) bool

// Controller keeps the filter and the current task list for one session.
type Controller struct {
	api      service.API
	sess     *session.Manager
	log      *zap.SugaredLogger
	validate *validator.Validate

	filter service.Filter
	tasks  []service.Task
}

// NewController creates a controller showing all tasks.
func NewController(api service.API, sess *session.Manager, log *zap.SugaredLogger) *Controller {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Controller{
		api:      api,
		sess:     sess,
		log:      log,
		validate: validator.New(),
		filter:   service.FilterAll,
	}
}

// Filter returns the current filter.
func (c *Controller) Filter() service.Filter {
	return c.filter
}

// SetFilter changes the filter used by the next Load.
func (c *Controller) SetFilter(f service.Filter) {
	c.filter = f
}

// View derives the view model from the current state.
func (c *Controller) View() View {
	v := View{
		State:  c.sess.State(),
		Filter: c.filter,
		Tasks:  c.tasks,
	}
	if u := c.sess.Session().User; u != nil {
		v.Email = u.Email
	}
	if v.State == session.Anonymous {
		v.Tasks = nil
	}
	return v
}

// Load fetches the tasks for the current filter and replaces the list.
// Failures are logged and leave an empty list; the error is returned for
// callers that asked for the list explicitly.
func (c *Controller) Load(ctx context.Context) (View, error) {
	if c.sess.State() != session.Authenticated {
		c.tasks = nil
		return c.View(), nil
	}

	tasks, err := c.api.ListTasks(ctx, c.sess.Token(), c.filter)
	if err != nil {
		c.tasks = nil
		c.log.Warnw("error loading tasks", "filter", c.filter, "error", err)
		c.sess.Invalidate(err)
		return c.View(), fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	c.tasks = tasks
	return c.View(), nil
}

// reload is Load for background refreshes after a mutation: errors are only
// logged.
func (c *Controller) reload(ctx context.Context) View {
	v, _ := c.Load(ctx)
	return v
}

// Create validates and creates a task, then reloads the list.
func (c *Controller) Create(ctx context.Context, title, description string) (View, error) {
	in := service.TaskInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
	if err := c.validate.Struct(in); err != nil {
		return c.View(), ErrTitleRequired
	}

	if _, err := c.api.CreateTask(ctx, c.sess.Token(), in); err != nil {
		return c.View(), c.fail(ErrCreateFailed, err)
	}
	return c.reload(ctx), nil
}

// OpenEdit fetches a task so it can be edited.
func (c *Controller) OpenEdit(ctx context.Context, id int64) (service.Task, error) {
	task, err := c.api.GetTask(ctx, c.sess.Token(), id)
	if err != nil {
		return service.Task{}, c.fail(ErrLoadFailed, err)
	}
	return task, nil
}

// Update validates and saves a task, then reloads the list.
func (c *Controller) Update(ctx context.Context, id int64, upd service.TaskUpdate) (View, error) {
	upd.Title = strings.TrimSpace(upd.Title)
	upd.Description = strings.TrimSpace(upd.Description)
	if err := c.validate.Struct(upd); err != nil {
		return c.View(), ErrTitleRequired
	}

	if _, err := c.api.UpdateTask(ctx, c.sess.Token(), id, upd); err != nil {
		return c.View(), c.fail(ErrUpdateFailed, err)
	}
	return c.reload(ctx), nil
}

// Delete removes a task after confirm agrees. A declined confirmation, or a
// nil confirm, sends nothing and reports false.
func (c *Controller) Delete(ctx context.Context, id int64, confirm Confirmer) (View, bool, error) {
	if confirm == nil || !confirm(id) {
		return c.View(), false, nil
	}

	if err := c.api.DeleteTask(ctx, c.sess.Token(), id); err != nil {
		return c.View(), false, c.fail(ErrDeleteFailed, err)
	}
	return c.reload(ctx), true, nil
}

// fail logs err, ends the session on 401 and wraps err in class.
func (c *Controller) fail(class, err error) error {
	c.log.Warnw(class.Error(), "error", err)
	c.sess.Invalidate(err)
	return fmt.Errorf("%w: %w", class, err)
}
