package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func newJob(id string) queue.Job {
	return queue.Job{
		ID:          id,
		SubmitterID: 7,
		FileID:      "file-" + id,
		Filename:    id + ".mp4",
		SubmittedAt: time.Now().UTC(),
	}
}

func TestEnqueueReturnsOneBasedPositions(t *testing.T) {
	mgr := testsupport.NewManager(t)

	for i, id := range []string{"a", "b", "c"} {
		if position := testsupport.Enqueue(t, mgr, newJob(id)); position != i+1 {
			t.Fatalf("expected position %d for %s, got %d", i+1, id, position)
		}
	}

	ctx := context.Background()
	index, ok, err := mgr.PositionOf(ctx, "c")
	if err != nil || !ok {
		t.Fatalf("PositionOf(c) failed: ok=%v err=%v", ok, err)
	}
	if index != 2 {
		t.Fatalf("expected index 2 for c, got %d", index)
	}
}

func TestRemoveThenPositionOfReportsAbsent(t *testing.T) {
	mgr := testsupport.NewManager(t)
	ctx := context.Background()

	testsupport.Enqueue(t, mgr, newJob("a"))
	if err := mgr.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := mgr.PositionOf(ctx, "a"); ok {
		t.Fatal("expected removed job to be absent")
	}
	if err := mgr.Remove(ctx, "a"); err != nil {
		t.Fatalf("second Remove should be a no-op, got %v", err)
	}
}

func TestPositionOfSelfHealsVanishedEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := queue.NewManager(store, nil, queue.ManagerOptions{})
	ctx := context.Background()

	testsupport.Enqueue(t, mgr, newJob("a"))
	testsupport.Enqueue(t, mgr, newJob("b"))

	// Simulate store eviction: entry gone, metadata intact.
	if err := store.RemoveEntry(ctx, "a"); err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}

	index, ok, err := mgr.PositionOf(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("expected self-heal to report a position, ok=%v err=%v", ok, err)
	}
	if index != 1 {
		t.Fatalf("expected a re-appended at tail index 1, got %d", index)
	}
	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 || entries[0] != "b" || entries[1] != "a" {
		t.Fatalf("expected [b a] after self-heal, got %v", entries)
	}
}

func TestWaitForTurnBlocksUntilHead(t *testing.T) {
	mgr := testsupport.NewManager(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		testsupport.Enqueue(t, mgr, newJob(id))
	}

	released := make(chan struct{})
	var waitErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		waitErr = mgr.WaitForTurn(ctx, "c", nil)
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("WaitForTurn returned while two jobs were ahead")
	case <-time.After(100 * time.Millisecond):
	}

	if err := mgr.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove(a) failed: %v", err)
	}
	select {
	case <-released:
		t.Fatal("WaitForTurn returned while one job was ahead")
	case <-time.After(100 * time.Millisecond):
	}

	if err := mgr.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForTurn did not return after queue drained")
	}
	wg.Wait()
	if waitErr != nil {
		t.Fatalf("WaitForTurn returned error: %v", waitErr)
	}
}

func TestWaitForTurnReportsPositions(t *testing.T) {
	mgr := testsupport.NewManager(t)
	ctx := context.Background()

	testsupport.Enqueue(t, mgr, newJob("a"))
	testsupport.Enqueue(t, mgr, newJob("b"))

	var mu sync.Mutex
	var positions []int
	done := make(chan error, 1)
	go func() {
		done <- mgr.WaitForTurn(ctx, "b", func(_ context.Context, position int) {
			mu.Lock()
			positions = append(positions, position)
			mu.Unlock()
		})
	}()

	time.Sleep(50 * time.Millisecond)
	if err := mgr.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("WaitForTurn failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(positions) == 0 {
		t.Fatal("expected at least one position notification")
	}
	if positions[0] != 2 {
		t.Fatalf("expected first notification at position 2, got %d", positions[0])
	}
	for _, position := range positions {
		if position != 2 {
			t.Fatalf("unexpected position %d in %v", position, positions)
		}
	}
}

func TestWaitForTurnVanishedJob(t *testing.T) {
	mgr := testsupport.NewManager(t)
	ctx := context.Background()

	err := mgr.WaitForTurn(ctx, "ghost", nil)
	if !errors.Is(err, queue.ErrNotQueued) {
		t.Fatalf("expected ErrNotQueued, got %v", err)
	}
}

func TestConcurrentEnqueueKeepsAllJobs(t *testing.T) {
	mgr := testsupport.NewManager(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := mgr.Enqueue(ctx, newJob(id)); err != nil {
				t.Errorf("Enqueue(%s) failed: %v", id, err)
			}
		}(ids[i])
	}
	wg.Wait()

	entries, err := mgr.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d entries, got %d", n, len(entries))
	}
	seen := map[string]bool{}
	for _, entry := range entries {
		if seen[entry.JobID] {
			t.Fatalf("duplicate entry %s", entry.JobID)
		}
		seen[entry.JobID] = true
		if !entry.MetaOK {
			t.Fatalf("missing metadata for %s", entry.JobID)
		}
	}
}
