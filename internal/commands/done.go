package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/service"
)

func init() {
	Register(&DoneCmd{completed: true})
	Register(&DoneCmd{completed: false})
}

// DoneCmd implements done and undone, which set the completed flag of a
// task and keep its title and description.
type DoneCmd struct {
	completed bool
}

// NewDoneCmd returns the done command, or undone when completed is false.
func NewDoneCmd(completed bool) *DoneCmd {
	return &DoneCmd{completed: completed}
}

func (c *DoneCmd) Name() string {
	if c.completed {
		return "done"
	}
	return "undone"
}

func (c *DoneCmd) Aliases() []string {
	if c.completed {
		return []string{"complete"}
	}
	return []string{"reopen"}
}

func (c *DoneCmd) Synopsis() string {
	if c.completed {
		return "Mark a task completed"
	}
	return "Mark a task pending"
}

func (c *DoneCmd) Usage() string   { return "tasker " + c.Name() + " <id>" }
func (c *DoneCmd) NeedsAuth() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := app.Tasks.OpenEdit(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	if task.Completed != c.completed {
		upd := service.TaskUpdate{
			Title:       task.Title,
			Description: task.Description,
			Completed:   c.completed,
		}
		if _, err := app.Tasks.Update(ctx, id, upd); err != nil {
			return fail(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
