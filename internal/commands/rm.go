package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "todo rm <n>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ctrl, task, code := resolveTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := ctrl.Delete(ctx, task.ID); err != nil {
		return backendError(errOut, err)
	}
	return printOK(env, out)
}
