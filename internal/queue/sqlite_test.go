package queue_test

import (
	"context"
	"testing"
	"time"

	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func TestSQLiteAppendPreservesOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		length, err := store.Append(ctx, id)
		if err != nil {
			t.Fatalf("Append(%s) failed: %v", id, err)
		}
		if length != i+1 {
			t.Fatalf("expected length %d after appending %s, got %d", i+1, id, length)
		}
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 3 || entries[0] != "a" || entries[1] != "b" || entries[2] != "c" {
		t.Fatalf("unexpected order: %v", entries)
	}
}

func TestSQLiteIndexOfAndEntryAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Append(ctx, id); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	index, ok, err := store.IndexOf(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("IndexOf(b) = %d, %v, %v", index, ok, err)
	}
	if index != 1 {
		t.Fatalf("expected index 1 for b, got %d", index)
	}

	if _, ok, _ := store.IndexOf(ctx, "missing"); ok {
		t.Fatal("expected missing id to be absent")
	}

	head, ok, err := store.EntryAt(ctx, 0)
	if err != nil || !ok || head != "a" {
		t.Fatalf("EntryAt(0) = %q, %v, %v", head, ok, err)
	}
	if _, ok, _ := store.EntryAt(ctx, 10); ok {
		t.Fatal("expected out-of-range read to report absent")
	}
}

func TestSQLiteRemoveEntryIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Append(ctx, "a"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.RemoveEntry(ctx, "a"); err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}
	if err := store.RemoveEntry(ctx, "a"); err != nil {
		t.Fatalf("second RemoveEntry should be a no-op, got %v", err)
	}
	if _, ok, _ := store.IndexOf(ctx, "a"); ok {
		t.Fatal("expected a to be gone")
	}
}

func TestSQLiteRemoveFirstOccurrenceOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a"} {
		if _, err := store.Append(ctx, id); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := store.RemoveEntry(ctx, "a"); err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}
	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 || entries[0] != "b" || entries[1] != "a" {
		t.Fatalf("expected [b a], got %v", entries)
	}
}

func TestSQLiteMetadataRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	meta := queue.Metadata{
		SubmitterID: 42,
		FileID:      "file-1",
		Filename:    "clip.mp4",
		EnqueuedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.PutMetadata(ctx, "job-1", meta); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}

	got, ok, err := store.Metadata(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("Metadata lookup failed: ok=%v err=%v", ok, err)
	}
	if got.SubmitterID != 42 || got.FileID != "file-1" || got.Filename != "clip.mp4" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if !got.EnqueuedAt.Equal(meta.EnqueuedAt) {
		t.Fatalf("expected enqueued time %v, got %v", meta.EnqueuedAt, got.EnqueuedAt)
	}

	if err := store.DeleteMetadata(ctx, "job-1"); err != nil {
		t.Fatalf("DeleteMetadata failed: %v", err)
	}
	if _, ok, _ := store.Metadata(ctx, "job-1"); ok {
		t.Fatal("expected metadata to be deleted")
	}
}
