package testsupport

import (
	"context"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
)

// MustOpenStore opens a SQLite queue store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.SQLiteStore {
	t.Helper()

	store, err := queue.OpenSQLite(cfg)
	if err != nil {
		t.Fatalf("queue.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewManager builds a queue manager over a fresh test store with fast polling.
func NewManager(t testing.TB) *queue.Manager {
	t.Helper()

	cfg := NewConfig(t)
	store := MustOpenStore(t, cfg)
	return queue.NewManager(store, logging.NewNop(), queue.ManagerOptions{
		PollInterval:   10 * time.Millisecond,
		NotifyInterval: 50 * time.Millisecond,
	})
}

// Enqueue adds a job for tests, failing the test on error.
func Enqueue(t testing.TB, mgr *queue.Manager, job queue.Job) int {
	t.Helper()

	position, err := mgr.Enqueue(context.Background(), job)
	if err != nil {
		t.Fatalf("manager.Enqueue: %v", err)
	}
	return position
}
