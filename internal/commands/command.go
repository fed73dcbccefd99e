// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"go.uber.org/zap"

	"tasker/internal/config"
	"tasker/internal/session"
	"tasker/internal/tasks"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a restored session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// app carries the session and the task controller. When NeedsAuth()
	// returns true the session has already been restored.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int
}

// App is the wiring shared by all commands of one invocation.
type App struct {
	Session *session.Manager
	Tasks   *tasks.Controller
	Log     *zap.SugaredLogger

	// In is read for prompts and confirmations.
	In io.Reader

	prompter *prompter
}
