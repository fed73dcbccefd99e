package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasker/internal/config"
	"tasker/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd prints the command overview, or the usage of one command.
type HelpCmd struct {
	// Registry defaults to DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasker help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) == 0 {
		fmt.Fprint(out, helpHeader)
		for _, cmd := range reg.All() {
			fmt.Fprintf(out, "  %-10s%s\n", cmd.Name(), cmd.Synopsis())
		}
		fmt.Fprint(out, helpFooter)
		return exitcode.Success
	}

	cmd, ok := reg.Find(args[0])
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	fmt.Fprintf(out, "Usage: %s\n%s\n", cmd.Usage(), cmd.Synopsis())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(out, "Aliases: %s\n", strings.Join(aliases, ", "))
	}
	return exitcode.Success
}

const helpHeader = `Usage:
  tasker <command> [common flags] [flags] [args]

Running tasker without a command lists all tasks.

Commands:
`

const helpFooter = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKER_API_URL       API base URL (default http://localhost:8080/api)
  TASKER_HTTP_TIMEOUT  Per-request timeout, e.g. 10s

Run "tasker help <command>" for the flags of a command.
`
