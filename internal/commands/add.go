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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "todo add <text...>" }
func (c *AddCmd) NeedsStore() bool  { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ctrl := env.Controller()
	ctrl.SetInput(strings.Join(args, " "))

	if err := ctrl.Add(ctx); err != nil {
		if errors.Is(err, coordinator.ErrEmptyText) {
			fmt.Fprintln(errOut, "error: task text required")
			return exitcode.UserError
		}
		return backendError(errOut, err)
	}
	return printOK(env, out)
}
