package notifications_test

import (
	"context"
	"strings"
	"testing"

	"scribe/internal/notifications"
	"scribe/internal/queue"
)

type recordingMessenger struct {
	messages  []string
	documents []string
	captions  []string
}

func (m *recordingMessenger) SendMessage(_ context.Context, _ int64, text string) error {
	m.messages = append(m.messages, text)
	return nil
}

func (m *recordingMessenger) SendDocument(_ context.Context, _ int64, path, caption string) error {
	m.documents = append(m.documents, path)
	m.captions = append(m.captions, caption)
	return nil
}

func TestNewServiceNilMessengerIsNoop(t *testing.T) {
	svc := notifications.NewService(nil)
	if err := svc.NotifyFailure(context.Background(), queue.Job{}, "boom"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyMessagesCarryDetails(t *testing.T) {
	messenger := &recordingMessenger{}
	svc := notifications.NewService(messenger)
	job := queue.Job{ID: "j1", SubmitterID: 9, Filename: "talk.mp4"}
	ctx := context.Background()

	if err := svc.NotifyAccepted(ctx, job, 3); err != nil {
		t.Fatalf("NotifyAccepted failed: %v", err)
	}
	if err := svc.NotifyQueuePosition(ctx, job, 2); err != nil {
		t.Fatalf("NotifyQueuePosition failed: %v", err)
	}
	if err := svc.NotifyProgress(ctx, job, "transcribing", 55); err != nil {
		t.Fatalf("NotifyProgress failed: %v", err)
	}
	if err := svc.NotifyFailure(ctx, job, "ffmpeg exited 1"); err != nil {
		t.Fatalf("NotifyFailure failed: %v", err)
	}

	if len(messenger.messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messenger.messages))
	}
	checks := []string{"3", "2", "55", "ffmpeg exited 1"}
	for i, want := range checks {
		if !strings.Contains(messenger.messages[i], want) {
			t.Errorf("message %d = %q, expected to contain %q", i, messenger.messages[i], want)
		}
	}
}

func TestNotifyAttachments(t *testing.T) {
	messenger := &recordingMessenger{}
	svc := notifications.NewService(messenger)
	job := queue.Job{ID: "j1", SubmitterID: 9}
	ctx := context.Background()

	if err := svc.NotifyTranscript(ctx, job, "/tmp/transcription.txt"); err != nil {
		t.Fatalf("NotifyTranscript failed: %v", err)
	}
	if err := svc.NotifySubtitles(ctx, job, "/tmp/transcription.srt"); err != nil {
		t.Fatalf("NotifySubtitles failed: %v", err)
	}
	if len(messenger.documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(messenger.documents))
	}
	if messenger.documents[0] != "/tmp/transcription.txt" || messenger.documents[1] != "/tmp/transcription.srt" {
		t.Fatalf("unexpected documents: %v", messenger.documents)
	}
}
