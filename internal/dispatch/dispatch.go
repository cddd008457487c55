package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/config"
	"scribe/internal/queue"
)

// Handler processes one dispatched job end to end.
type Handler func(ctx context.Context, job queue.Job) error

// Dispatcher carries accepted jobs from the gateway to pipeline workers.
// Publish never blocks on job execution; Run consumes until the context is
// cancelled or the dispatcher is closed.
type Dispatcher interface {
	Publish(ctx context.Context, job queue.Job) error
	Run(ctx context.Context, handler Handler) error
	Close() error
}

// New builds the dispatcher selected by configuration: an in-process channel
// for single-binary deployments, or a broker-backed queue when workers run
// separately.
func New(cfg *config.Config, logger *slog.Logger) (Dispatcher, error) {
	switch cfg.Dispatch.Mode {
	case "amqp":
		return NewAMQP(cfg, logger)
	case "", "local":
		return NewLocal(cfg.Dispatch.Concurrency, logger), nil
	default:
		return nil, fmt.Errorf("unknown dispatch mode %q", cfg.Dispatch.Mode)
	}
}
