package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/coordinator"
	"todo/internal/exitcode"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command: one edit session, saved immediately.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Replace the text of a task" }
func (c *EditCmd) Usage() string     { return "todo edit <n> <text...>" }
func (c *EditCmd) NeedsStore() bool  { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	// Check text before touching the store.
	if len(args) < 2 || strings.TrimSpace(strings.Join(args[1:], " ")) == "" {
		if len(args) == 0 {
			fmt.Fprintf(errOut, "error: %v\n", ErrTaskRefRequired)
		} else {
			fmt.Fprintln(errOut, "error: task text required")
		}
		return exitcode.UserError
	}

	ctrl, task, code := resolveTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	ctrl.StartEdit(task.ID)
	ctrl.SetDraft(strings.Join(args[1:], " "))
	if err := ctrl.SaveEdit(ctx); err != nil {
		if errors.Is(err, coordinator.ErrEmptyText) {
			fmt.Fprintln(errOut, "error: task text required")
			return exitcode.UserError
		}
		return backendError(errOut, err)
	}
	return printOK(env, out)
}
