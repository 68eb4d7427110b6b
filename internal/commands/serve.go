package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/storeserver"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	listen string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve the configured store over the REST task API" }
func (c *ServeCmd) Usage() string     { return "todo serve [--listen <addr>]" }
func (c *ServeCmd) NeedsStore() bool  { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if cfg.Backend == config.BackendREST {
		fmt.Fprintln(errOut, "error: serve needs a local backend (use --backend sqlite, memory or googletasks)")
		return exitcode.UserError
	}

	addr := cfg.Listen
	if c.listen != "" {
		addr = c.listen
	}

	gin.SetMode(gin.ReleaseMode)
	srv := storeserver.New(env.Store,
		storeserver.WithLogger(env.Log),
		storeserver.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	)
	if !cfg.Quiet {
		fmt.Fprintf(out, "serving %s backend on %s\n", cfg.Backend, addr)
	}
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
