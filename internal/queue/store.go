package queue

import (
	"context"
	"fmt"

	"scribe/internal/config"
)

// Store is the shared queue storage contract: an ordered list of job ids plus
// per-job metadata, durable and visible to every worker process. All list
// operations are atomic; this is the system's only required synchronization
// primitive.
type Store interface {
	// Append adds jobID to the tail and returns the resulting list length.
	Append(ctx context.Context, jobID string) (int, error)
	// RemoveEntry deletes the first occurrence of jobID. Removing an absent
	// id is a no-op.
	RemoveEntry(ctx context.Context, jobID string) error
	// IndexOf returns the 0-based index of jobID, or ok=false when absent.
	IndexOf(ctx context.Context, jobID string) (index int, ok bool, err error)
	// EntryAt reads the job id at a 0-based index, or ok=false when out of range.
	EntryAt(ctx context.Context, index int) (jobID string, ok bool, err error)
	// Entries returns the full list in order.
	Entries(ctx context.Context) ([]string, error)

	PutMetadata(ctx context.Context, jobID string, meta Metadata) error
	Metadata(ctx context.Context, jobID string) (Metadata, bool, error)
	DeleteMetadata(ctx context.Context, jobID string) error

	Close() error
}

// OpenStore constructs the configured store backend.
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.Queue.Backend {
	case "redis":
		return OpenRedis(cfg.Queue.RedisURL)
	case "sqlite", "":
		return OpenSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}
