package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/exitcode"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string  { return "Flip a task between open and completed" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <n>" }
func (c *ToggleCmd) NeedsStore() bool  { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ctrl, task, code := resolveTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := ctrl.Toggle(ctx, task.ID); err != nil {
		return backendError(errOut, err)
	}
	return printOK(env, out)
}
