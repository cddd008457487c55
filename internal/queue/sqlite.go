package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

// SQLiteStore keeps the queue in a WAL-mode SQLite database file, shared by
// every worker process on the host.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS queue_entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queue_entries_job_id ON queue_entries (job_id);

CREATE TABLE IF NOT EXISTS job_metadata (
    job_id TEXT PRIMARY KEY,
    submitter_id INTEGER NOT NULL,
    file_id TEXT NOT NULL,
    filename TEXT NOT NULL DEFAULT '',
    enqueued_at TEXT NOT NULL
);
`

// OpenSQLite initializes or connects to the queue database.
func OpenSQLite(cfg *config.Config) (*SQLiteStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenSQLitePath(filepath.Join(cfg.Paths.DataDir, "queue.db"))
}

// OpenSQLitePath opens the queue database at an explicit path.
func OpenSQLitePath(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init queue schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Append(ctx context.Context, jobID string) (int, error) {
	ctx = ensureContext(ctx)
	var length int
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck
		if _, err := tx.ExecContext(ctx, `INSERT INTO queue_entries (job_id) VALUES (?)`, jobID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_entries`).Scan(&length); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("append queue entry: %w", err)
	}
	return length, nil
}

func (s *SQLiteStore) RemoveEntry(ctx context.Context, jobID string) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM queue_entries WHERE seq = (SELECT MIN(seq) FROM queue_entries WHERE job_id = ?)`,
			jobID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IndexOf(ctx context.Context, jobID string) (int, bool, error) {
	ctx = ensureContext(ctx)
	var index int
	var found bool
	err := retryOnBusy(ctx, func() error {
		found = false
		// MIN() over an empty set yields a single NULL row.
		var seq sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MIN(seq) FROM queue_entries WHERE job_id = ?`, jobID,
		).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !seq.Valid {
			return nil
		}
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM queue_entries WHERE seq < ?`, seq.Int64,
		).Scan(&index); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("index of queue entry: %w", err)
	}
	return index, found, nil
}

func (s *SQLiteStore) EntryAt(ctx context.Context, index int) (string, bool, error) {
	ctx = ensureContext(ctx)
	if index < 0 {
		return "", false, nil
	}
	var jobID string
	var found bool
	err := retryOnBusy(ctx, func() error {
		found = false
		err := s.db.QueryRowContext(ctx,
			`SELECT job_id FROM queue_entries ORDER BY seq LIMIT 1 OFFSET ?`, index,
		).Scan(&jobID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read queue entry: %w", err)
	}
	return jobID, found, nil
}

func (s *SQLiteStore) Entries(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	var ids []string
	err := retryOnBusy(ctx, func() error {
		ids = ids[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT job_id FROM queue_entries ORDER BY seq`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) PutMetadata(ctx context.Context, jobID string, meta Metadata) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO job_metadata (job_id, submitter_id, file_id, filename, enqueued_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(job_id) DO UPDATE SET
                 submitter_id = excluded.submitter_id,
                 file_id = excluded.file_id,
                 filename = excluded.filename,
                 enqueued_at = excluded.enqueued_at`,
			jobID, meta.SubmitterID, meta.FileID, meta.Filename,
			meta.EnqueuedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("put job metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Metadata(ctx context.Context, jobID string) (Metadata, bool, error) {
	ctx = ensureContext(ctx)
	var meta Metadata
	var found bool
	err := retryOnBusy(ctx, func() error {
		found = false
		var enqueued string
		err := s.db.QueryRowContext(ctx,
			`SELECT submitter_id, file_id, filename, enqueued_at FROM job_metadata WHERE job_id = ?`,
			jobID,
		).Scan(&meta.SubmitterID, &meta.FileID, &meta.Filename, &enqueued)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, enqueued); parseErr == nil {
			meta.EnqueuedAt = parsed
		}
		found = true
		return nil
	})
	if err != nil {
		return Metadata{}, false, fmt.Errorf("read job metadata: %w", err)
	}
	return meta, found, nil
}

func (s *SQLiteStore) DeleteMetadata(ctx context.Context, jobID string) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM job_metadata WHERE job_id = ?`, jobID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete job metadata: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
