package gateway_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"scribe/internal/dispatch"
	"scribe/internal/gateway"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services/telegram"
	"scribe/internal/testsupport"
)

type fakeAPI struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAPI) GetUpdates(context.Context, int64, int) ([]telegram.Update, error) {
	return nil, nil
}

func (a *fakeAPI) SendMessage(_ context.Context, _ int64, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, text)
	return nil
}

func (a *fakeAPI) SendDocument(_ context.Context, _ int64, _, _ string) error {
	return nil
}

func (a *fakeAPI) sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type fakeDispatcher struct {
	mu        sync.Mutex
	published []queue.Job
	fail      bool
}

func (d *fakeDispatcher) Publish(_ context.Context, job queue.Job) error {
	if d.fail {
		return errors.New("broker unavailable")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, job)
	return nil
}

func (d *fakeDispatcher) Run(context.Context, dispatch.Handler) error { return nil }

func (d *fakeDispatcher) Close() error { return nil }

type fixture struct {
	api        *fakeAPI
	dispatcher *fakeDispatcher
	manager    *queue.Manager
	gateway    *gateway.Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t)
	api := &fakeAPI{}
	dispatcher := &fakeDispatcher{}
	gw := gateway.New(cfg, api, manager, dispatcher, notifications.NewService(api), logging.NewNop())
	return &fixture{api: api, dispatcher: dispatcher, manager: manager, gateway: gw}
}

func videoUpdate(chatID int64, fileID, filename string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			Chat:  telegram.Chat{ID: chatID},
			Video: &telegram.FileRef{FileID: fileID, FileName: filename},
		},
	}
}

func TestHandleUpdateAcceptsVideo(t *testing.T) {
	f := newFixture(t)

	f.gateway.HandleUpdate(context.Background(), videoUpdate(7, "file-1", "talk.mp4"))

	f.dispatcher.mu.Lock()
	published := append([]queue.Job(nil), f.dispatcher.published...)
	f.dispatcher.mu.Unlock()
	if len(published) != 1 {
		t.Fatalf("expected one dispatched job, got %d", len(published))
	}
	job := published[0]
	if job.SubmitterID != 7 || job.FileID != "file-1" || job.Filename != "talk.mp4" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.ID == "" {
		t.Fatal("job must get a generated id")
	}

	index, ok, err := f.manager.PositionOf(context.Background(), job.ID)
	if err != nil || !ok || index != 0 {
		t.Fatalf("expected job at queue head, index=%d ok=%v err=%v", index, ok, err)
	}

	messages := f.api.sent()
	if len(messages) != 1 || !strings.Contains(messages[0], "position: 1") {
		t.Fatalf("expected acceptance message with position 1, got %v", messages)
	}
}

func TestHandleUpdateRejectsUnsupportedDocument(t *testing.T) {
	f := newFixture(t)

	f.gateway.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{
			Chat:     telegram.Chat{ID: 7},
			Document: &telegram.Document{FileID: "file-2", FileName: "notes.pdf", MimeType: "application/pdf"},
		},
	})

	if len(f.dispatcher.published) != 0 {
		t.Fatalf("unsupported upload must not dispatch, got %v", f.dispatcher.published)
	}
	messages := f.api.sent()
	if len(messages) != 1 || !strings.Contains(messages[0], "Unsupported file type") {
		t.Fatalf("expected rejection reply, got %v", messages)
	}
}

func TestHandleUpdateAcceptsVideoMimeDocument(t *testing.T) {
	f := newFixture(t)

	f.gateway.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{
			Chat:     telegram.Chat{ID: 7},
			Document: &telegram.Document{FileID: "file-3", FileName: "clip", MimeType: "video/quicktime"},
		},
	})

	if len(f.dispatcher.published) != 1 {
		t.Fatalf("expected video MIME document to be accepted, got %d jobs", len(f.dispatcher.published))
	}
}

func TestHandleUpdateStartCommand(t *testing.T) {
	f := newFixture(t)

	f.gateway.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{Chat: telegram.Chat{ID: 7}, Text: "/start"},
	})

	messages := f.api.sent()
	if len(messages) != 1 || !strings.Contains(messages[0], "Send me a video") {
		t.Fatalf("expected welcome reply, got %v", messages)
	}
	if len(f.dispatcher.published) != 0 {
		t.Fatal("commands must not create jobs")
	}
}

func TestHandleUpdatePlainTextGetsUsageHint(t *testing.T) {
	f := newFixture(t)

	f.gateway.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{Chat: telegram.Chat{ID: 7}, Text: "hello"},
	})

	messages := f.api.sent()
	if len(messages) != 1 || !strings.Contains(messages[0], "video file") {
		t.Fatalf("expected usage hint, got %v", messages)
	}
}

func TestHandleUpdateDispatchFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.fail = true

	f.gateway.HandleUpdate(context.Background(), videoUpdate(7, "file-4", "talk.mkv"))

	entries, err := f.manager.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed dispatch must roll back the enqueue, queue has %d entries", len(entries))
	}
	messages := f.api.sent()
	if len(messages) < 2 || !strings.Contains(messages[len(messages)-1], "Could not process") {
		t.Fatalf("expected failure report after rollback, got %v", messages)
	}
}
