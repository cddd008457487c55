package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services/telegram"
)

const (
	welcomeText     = "Hi! Send me a video file and I will reply with its transcript. Supported formats: mp4, mov, mkv, avi."
	usageText       = "Send me a video file to transcribe."
	unsupportedText = "Unsupported file type. Supported formats: mp4, mov, mkv, avi."

	pollErrorBackoff = 3 * time.Second
)

// BotAPI is the Telegram client subset the gateway needs.
type BotAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Gateway is the thin inbound edge: it polls for updates, validates video
// attachments, and turns each accepted upload into an enqueued, dispatched
// job. All processing semantics live behind the queue and the pipeline.
type Gateway struct {
	api         BotAPI
	manager     *queue.Manager
	dispatcher  dispatch.Dispatcher
	notifier    notifications.Service
	logger      *slog.Logger
	pollTimeout int
}

// New builds a gateway over the given collaborators.
func New(cfg *config.Config, api BotAPI, manager *queue.Manager, dispatcher dispatch.Dispatcher, notifier notifications.Service, logger *slog.Logger) *Gateway {
	pollTimeout := cfg.Telegram.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 50
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Gateway{
		api:         api,
		manager:     manager,
		dispatcher:  dispatcher,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "gateway"),
		pollTimeout: pollTimeout,
	}
}

// Run long-polls for updates until the context is cancelled. Poll errors are
// logged and retried after a short pause; the update offset only advances
// past updates that were handed to HandleUpdate, so nothing is skipped.
func (g *Gateway) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := g.api.GetUpdates(ctx, offset, g.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Warn("update poll failed", logging.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollErrorBackoff):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			g.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes one update: command replies, attachment intake, or a
// usage hint for anything else.
func (g *Gateway) HandleUpdate(ctx context.Context, update telegram.Update) {
	message := update.Message
	if message == nil {
		return
	}
	chatID := message.Chat.ID

	if strings.TrimSpace(message.Text) == "/start" {
		g.reply(ctx, chatID, welcomeText)
		return
	}

	fileID, filename, found := attachment(message)
	if !found {
		g.reply(ctx, chatID, usageText)
		return
	}
	if !acceptable(message, filename) {
		g.logger.Info("rejected unsupported upload",
			logging.Int64("chat_id", chatID),
			logging.String("filename", filename),
		)
		g.reply(ctx, chatID, unsupportedText)
		return
	}

	g.accept(ctx, queue.Job{
		ID:          uuid.NewString(),
		SubmitterID: chatID,
		FileID:      fileID,
		Filename:    filename,
		SubmittedAt: time.Now().UTC(),
	})
}

// accept enqueues the job, confirms intake, and hands it to the dispatcher.
// A dispatch failure undoes the enqueue so the dead entry cannot block the
// queue, and reports the failure to the submitter.
func (g *Gateway) accept(ctx context.Context, job queue.Job) {
	logger := g.logger.With(logging.String(logging.FieldJobID, job.ID))

	position, err := g.manager.Enqueue(ctx, job)
	if err != nil {
		logger.Error("enqueue failed", logging.Error(err))
		g.reply(ctx, job.SubmitterID, "Could not accept your video right now, please try again.")
		return
	}
	if err := g.notifier.NotifyAccepted(ctx, job, position); err != nil {
		logger.Warn("acceptance notification failed", logging.Error(err))
	}

	if err := g.dispatcher.Publish(ctx, job); err != nil {
		logger.Error("dispatch failed", logging.Error(err))
		if removeErr := g.manager.Remove(ctx, job.ID); removeErr != nil {
			logger.Error("rollback after dispatch failure failed", logging.Error(removeErr))
		}
		if notifyErr := g.notifier.NotifyFailure(ctx, job, "could not schedule the job"); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return
	}
	logger.Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.Int("position", position),
	)
}

func (g *Gateway) reply(ctx context.Context, chatID int64, text string) {
	if err := g.api.SendMessage(ctx, chatID, text); err != nil {
		g.logger.Warn("reply failed",
			logging.Int64("chat_id", chatID),
			logging.Error(err),
		)
	}
}

// attachment extracts the file reference from a message: a native video
// upload or a document attachment.
func attachment(message *telegram.Message) (fileID, filename string, found bool) {
	switch {
	case message.Video != nil:
		return message.Video.FileID, message.Video.FileName, true
	case message.Document != nil:
		return message.Document.FileID, message.Document.FileName, true
	default:
		return "", "", false
	}
}

// acceptable validates the upload. Native video messages are always video
// content; documents must carry a supported extension or a video MIME type.
func acceptable(message *telegram.Message, filename string) bool {
	if message.Video != nil {
		return filename == "" || fileutil.IsSupportedVideo(filename)
	}
	if fileutil.IsSupportedVideo(filename) {
		return true
	}
	return message.Document != nil && strings.HasPrefix(message.Document.MimeType, "video/")
}
