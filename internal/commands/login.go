package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

// SetCredentials sets the email and password flags (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in with email and password" }
func (c *LoginCmd) Usage() string     { return "tasker login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !noArgs(args, errOut) {
		return exitcode.UserError
	}

	if alreadyLoggedIn(ctx, cfg, app, out) {
		return exitcode.Success
	}

	email, password, err := askCredentials(app, errOut, c.email, c.password)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	if err := app.Session.Login(ctx, email, password); err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// alreadyLoggedIn restores the stored session. A stored token the server
// rejects is removed and the caller continues with a fresh login.
func alreadyLoggedIn(ctx context.Context, cfg *config.Config, app *App, out io.Writer) bool {
	if !cfg.HasToken() {
		return false
	}
	if err := app.Session.Restore(ctx); err != nil {
		app.Log.Debugw("stored session discarded", "error", err)
		return false
	}
	if app.Session.State() != session.Authenticated {
		return false
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "already logged in as %s\n", app.Session.Session().User.Email)
	}
	return true
}

// askCredentials prompts for whichever of email and password is missing.
func askCredentials(app *App, errOut io.Writer, email, password string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = app.prompt().line(errOut, "Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = app.prompt().secret(errOut, "Password: "); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}
