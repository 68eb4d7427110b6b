package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"todo/internal/coordinator"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// ErrTaskRefRequired indicates no task number was provided.
var ErrTaskRefRequired = errors.New("task number required")

// ParseTaskRef parses the 1-based task number in args[0], as printed by list.
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task number: %s", ref)
	}
	num, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("invalid task number: %s", ref)
	}
	if num < 1 {
		return 0, fmt.Errorf("task number out of range: %d", num)
	}
	return num, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// resolveTask parses the task number, loads the list and returns the numbered task.
// On failure it reports to errOut and returns a non-zero exit code.
func resolveTask(ctx context.Context, env *Env, args []string, errOut io.Writer) (*coordinator.Controller, service.Task, int) {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, service.Task{}, exitcode.UserError
	}

	ctrl := env.Controller()
	if err := ctrl.Fetch(ctx); err != nil {
		return nil, service.Task{}, backendError(errOut, err)
	}

	task, ok := ctrl.TaskAt(num - 1)
	if !ok {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
		return nil, service.Task{}, exitcode.UserError
	}
	return ctrl, task, exitcode.Success
}

// backendError reports a store failure. The controller has already logged it.
func backendError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// printOK prints the success acknowledgement unless quiet.
func printOK(env *Env, out io.Writer) int {
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
