// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/sirupsen/logrus"

	"todo/internal/config"
	"todo/internal/coordinator"
	"todo/internal/service"
)

// Env is what the dispatcher hands to a command.
type Env struct {
	// Config is always set.
	Config *config.Config

	// Store is nil unless the command's NeedsStore returns true.
	Store service.Service

	// Log receives operational logs. Never nil.
	Log logrus.FieldLogger
}

// Controller returns a coordinator over the store, configured from env.
func (e *Env) Controller() *coordinator.Controller {
	return coordinator.New(e.Store,
		coordinator.WithLogger(e.Log),
		coordinator.WithTimeout(e.Config.Timeout),
	)
}

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

	// NeedsStore returns true if the command talks to the task store.
	// Commands like help, version and config return false.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with the positional arguments left after
	// flag parsing. Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}
