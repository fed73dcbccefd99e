// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found, declined).
	UserError = 1

	// AuthError indicates an auth/session error.
	AuthError = 2

	// BackendError indicates an API/network error.
	BackendError = 3
)
