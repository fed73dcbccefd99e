package commands

import (
	"errors"
	"fmt"
	"io"

	"tasker/internal/exitcode"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/tasks"
)

// fail prints err and maps it to an exit code.
func fail(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, tasks.ErrTitleRequired),
		errors.Is(err, session.ErrCredentialsRequired),
		errors.Is(err, session.ErrPasswordTooShort),
		errors.Is(err, session.ErrEmailTaken):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError

	case errors.Is(err, session.ErrInvalidCredentials):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError

	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintln(errOut, "error: session expired (run: tasker login)")
		return exitcode.AuthError

	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrBadRequest):
		if msg := service.ServerMessage(err); msg != "" {
			fmt.Fprintf(errOut, "error: %s\n", msg)
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// noArgs rejects positional arguments for commands that take none.
func noArgs(args []string, errOut io.Writer) bool {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return false
	}
	return true
}
