// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task number, blank text).
	UserError = 1

	// ConfigError indicates invalid configuration or missing backend credentials.
	ConfigError = 2

	// BackendError indicates a task store, API or network error.
	BackendError = 3
)
