package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/output"
	"tasker/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd starts the interactive task list.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Interactive task list" }
func (c *UICmd) Usage() string     { return "tasker ui" }
func (c *UICmd) NeedsAuth() bool   { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !noArgs(args, errOut) {
		return exitcode.UserError
	}

	err := tui.Run(ctx, app.Tasks, output.NewText(out))
	if errors.Is(err, tui.ErrSessionEnded) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
