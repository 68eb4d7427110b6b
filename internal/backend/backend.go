// Package backend opens the task store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/memory"
	"todo/internal/backend/rest"
	"todo/internal/backend/sqlite"
	"todo/internal/config"
	"todo/internal/service"
)

// ErrInvalidConfig marks failures caused by configuration or credentials
// rather than by the store itself.
var ErrInvalidConfig = errors.New("invalid backend configuration")

func configError(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}

// Store is a task store that may hold resources.
type Store interface {
	service.Service
	io.Closer
}

type nopCloser struct {
	service.Service
}

func (nopCloser) Close() error { return nil }

// Open returns the store named by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Store, error) {
	switch cfg.Backend {
	case config.BackendREST:
		c, err := rest.New(cfg.APIURL, rest.WithLogger(log))
		if err != nil {
			return nil, configError(err)
		}
		return nopCloser{c}, nil

	case config.BackendGoogleTasks:
		c, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, configError(err)
		}
		return nopCloser{c}, nil

	case config.BackendSQLite:
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		s, err := sqlite.Open(ctx, cfg.DatabasePath())
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.BackendMemory:
		return nopCloser{memory.New()}, nil

	default:
		return nil, configError(fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}
