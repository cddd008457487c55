package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scribe/internal/logging"
)

// ErrNotQueued is returned by WaitForTurn when a job has vanished entirely
// (no queue entry and no metadata), meaning it was removed and cannot be
// waited for.
var ErrNotQueued = errors.New("job is not queued")

const (
	defaultPollInterval   = 5 * time.Second
	defaultNotifyInterval = 30 * time.Second
)

// PositionFunc receives throttled 1-based queue position updates while a job
// waits for its turn.
type PositionFunc func(ctx context.Context, position int)

// ManagerOptions tunes the wait loop timings.
type ManagerOptions struct {
	PollInterval   time.Duration
	NotifyInterval time.Duration
}

// Manager layers queue semantics over a shared Store: submission-order
// enqueue, idempotent removal, self-healing position lookup, and the blocking
// wait-for-turn gate that serializes pipeline execution system-wide.
type Manager struct {
	store          Store
	logger         *slog.Logger
	pollInterval   time.Duration
	notifyInterval time.Duration
}

// NewManager builds a Manager over the given store.
func NewManager(store Store, logger *slog.Logger, opts ManagerOptions) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.NotifyInterval <= 0 {
		opts.NotifyInterval = defaultNotifyInterval
	}
	return &Manager{
		store:          store,
		logger:         logging.NewComponentLogger(logger, "queue"),
		pollInterval:   opts.PollInterval,
		notifyInterval: opts.NotifyInterval,
	}
}

// Enqueue appends the job to the tail and writes its metadata, returning the
// 1-based position. Metadata is written before the list entry so a crash
// between the two is repaired by the next PositionOf self-heal.
func (m *Manager) Enqueue(ctx context.Context, job Job) (int, error) {
	meta := Metadata{
		SubmitterID: job.SubmitterID,
		FileID:      job.FileID,
		Filename:    job.Filename,
		EnqueuedAt:  job.SubmittedAt,
	}
	if meta.EnqueuedAt.IsZero() {
		meta.EnqueuedAt = time.Now().UTC()
	}
	if err := m.store.PutMetadata(ctx, job.ID, meta); err != nil {
		return 0, err
	}
	length, err := m.store.Append(ctx, job.ID)
	if err != nil {
		return 0, err
	}
	m.logger.Info("job enqueued",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("position", length),
	)
	return length, nil
}

// Remove deletes the job's queue entry and metadata. Removing an absent job
// is a no-op.
func (m *Manager) Remove(ctx context.Context, jobID string) error {
	if err := m.store.RemoveEntry(ctx, jobID); err != nil {
		return err
	}
	return m.store.DeleteMetadata(ctx, jobID)
}

// PositionOf returns the job's 0-based index. A job present in metadata but
// missing from the list is re-appended at the tail and reported at its new
// position: liveness over ordering, so a waiting worker can never hang on a
// lost entry.
func (m *Manager) PositionOf(ctx context.Context, jobID string) (int, bool, error) {
	index, ok, err := m.store.IndexOf(ctx, jobID)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return index, true, nil
	}

	_, hasMeta, err := m.store.Metadata(ctx, jobID)
	if err != nil {
		return 0, false, err
	}
	if !hasMeta {
		return 0, false, nil
	}

	length, err := m.store.Append(ctx, jobID)
	if err != nil {
		return 0, false, err
	}
	m.logger.Warn("queue entry vanished, re-appended at tail",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("position", length),
	)
	return length - 1, true, nil
}

// Metadata exposes the stored per-job record.
func (m *Manager) Metadata(ctx context.Context, jobID string) (Metadata, bool, error) {
	return m.store.Metadata(ctx, jobID)
}

// Snapshot returns the queue in order with metadata for presentation.
func (m *Manager) Snapshot(ctx context.Context) ([]Entry, error) {
	ids, err := m.store.Entries(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(ids))
	for i, id := range ids {
		meta, ok, err := m.store.Metadata(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Position: i + 1, JobID: id, Meta: meta, MetaOK: ok})
	}
	return entries, nil
}

// WaitForTurn blocks until the job reaches the head of the queue, polling the
// store at a fixed interval. While waiting it reports the 1-based position
// through notify whenever the position changes or the notify interval has
// elapsed since the last report, bounding message volume under long queues.
//
// There is deliberately no timeout: a submitted job cannot be withdrawn. The
// context still cancels the wait so process shutdown is not wedged.
func (m *Manager) WaitForTurn(ctx context.Context, jobID string, notify PositionFunc) error {
	lastNotified := -1
	lastNotifiedAt := time.Time{}

	for {
		index, ok, err := m.PositionOf(ctx, jobID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotQueued
		}
		if index == 0 {
			return nil
		}

		position := index + 1
		if notify != nil && (position != lastNotified || time.Since(lastNotifiedAt) > m.notifyInterval) {
			notify(ctx, position)
			lastNotified = position
			lastNotifiedAt = time.Now()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}
