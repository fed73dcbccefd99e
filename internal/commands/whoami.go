package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the logged-in user and, for JWT tokens, the expiry.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "tasker whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !noArgs(args, errOut) {
		return exitcode.UserError
	}

	user := app.Session.Session().User
	if user == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: tasker login)")
		return exitcode.AuthError
	}

	fmt.Fprintln(out, user.Email)
	if exp, ok := app.Session.ExpiresAt(); ok {
		fmt.Fprintf(out, "expires: %s\n", output.FormatTime(exp))
	}
	return exitcode.Success
}
