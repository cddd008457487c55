package notifications

import (
	"context"
	"fmt"
	"strings"

	"scribe/internal/queue"
)

// Service defines the notification surface the queue manager and pipeline
// executor use to keep a submitter informed. The wording here is a product
// concern; the checkpoint structure and cadence are what the pipeline relies
// on.
type Service interface {
	// NotifyAccepted confirms intake and reports the initial 1-based position.
	NotifyAccepted(ctx context.Context, job queue.Job, position int) error
	// NotifyQueuePosition reports a throttled 1-based position while waiting.
	NotifyQueuePosition(ctx context.Context, job queue.Job, position int) error
	// NotifyProgress reports a checkpoint percentage for a pipeline stage.
	NotifyProgress(ctx context.Context, job queue.Job, stage string, percent int) error
	// NotifyFailure reports the final failure after the retry budget is spent.
	NotifyFailure(ctx context.Context, job queue.Job, reason string) error
	// NotifyTranscript delivers the plain-text transcript attachment.
	NotifyTranscript(ctx context.Context, job queue.Job, path string) error
	// NotifySubtitles delivers the SRT attachment.
	NotifySubtitles(ctx context.Context, job queue.Job, path string) error
}

// Messenger is the Telegram client subset the notifier needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// NewService builds a notifier backed by the provided messenger. A nil
// messenger yields a noop implementation.
func NewService(messenger Messenger) Service {
	if messenger == nil {
		return noopService{}
	}
	return &telegramService{messenger: messenger}
}

type telegramService struct {
	messenger Messenger
}

func (s *telegramService) NotifyAccepted(ctx context.Context, job queue.Job, position int) error {
	name := strings.TrimSpace(job.Filename)
	if name == "" {
		name = "your video"
	}
	text := fmt.Sprintf("Accepted %s for transcription. Queue position: %d.", name, position)
	return s.messenger.SendMessage(ctx, job.SubmitterID, text)
}

func (s *telegramService) NotifyQueuePosition(ctx context.Context, job queue.Job, position int) error {
	text := fmt.Sprintf("Still waiting: your video is number %d in the queue.", position)
	return s.messenger.SendMessage(ctx, job.SubmitterID, text)
}

func (s *telegramService) NotifyProgress(ctx context.Context, job queue.Job, stage string, percent int) error {
	text := fmt.Sprintf("Processing %d%%: %s.", percent, stage)
	return s.messenger.SendMessage(ctx, job.SubmitterID, text)
}

func (s *telegramService) NotifyFailure(ctx context.Context, job queue.Job, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	text := fmt.Sprintf("Could not process your video: %s", reason)
	return s.messenger.SendMessage(ctx, job.SubmitterID, text)
}

func (s *telegramService) NotifyTranscript(ctx context.Context, job queue.Job, path string) error {
	return s.messenger.SendDocument(ctx, job.SubmitterID, path, "Transcription result")
}

func (s *telegramService) NotifySubtitles(ctx context.Context, job queue.Job, path string) error {
	return s.messenger.SendDocument(ctx, job.SubmitterID, path, "SRT subtitle file")
}

type noopService struct{}

func (noopService) NotifyAccepted(context.Context, queue.Job, int) error         { return nil }
func (noopService) NotifyQueuePosition(context.Context, queue.Job, int) error    { return nil }
func (noopService) NotifyProgress(context.Context, queue.Job, string, int) error { return nil }
func (noopService) NotifyFailure(context.Context, queue.Job, string) error       { return nil }
func (noopService) NotifyTranscript(context.Context, queue.Job, string) error    { return nil }
func (noopService) NotifySubtitles(context.Context, queue.Job, string) error     { return nil }
