package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optString is a string flag that remembers whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// optBool is a boolean flag that remembers whether it was given.
type optBool struct {
	value bool
	set   bool
}

func (o *optBool) String() string   { return strconv.FormatBool(o.value) }
func (o *optBool) IsBoolFlag() bool { return true }

func (o *optBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

// EditCmd implements the edit command. Fields that are not given keep the
// values fetched from the server.
type EditCmd struct {
	title       optString
	description optString
	completed   optBool
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(title string) { c.title.Set(title) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(description string) { c.description.Set(description) }

// SetCompleted sets the new completion state (for testing).
func (c *EditCmd) SetCompleted(completed bool) { c.completed.Set(strconv.FormatBool(completed)) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "tasker edit [--title <text>] [--description <text>] [--completed=true|false] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title = optString{}
	c.description = optString{}
	c.completed = optBool{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.completed, "completed", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.completed.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --description or --completed)")
		return exitcode.UserError
	}

	task, err := app.Tasks.OpenEdit(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	upd := service.TaskUpdate{
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
	}
	if c.title.set {
		upd.Title = c.title.value
	}
	if c.description.set {
		upd.Description = c.description.value
	}
	if c.completed.set {
		upd.Completed = c.completed.value
	}

	if _, err := app.Tasks.Update(ctx, id, upd); err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
