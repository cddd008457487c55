package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/services/ffmpeg"
	"scribe/internal/transcript"
)

const (
	// maxAttempts is the total run budget per job: the first run plus two
	// retries.
	maxAttempts = 3

	defaultRetryDelay = 30 * time.Second

	// progressStep is the minimum checkpoint advance, within the
	// transcription range, that triggers a progress message.
	progressStep = 10
)

// Source acquires a job's video file into the working directory.
type Source interface {
	Fetch(ctx context.Context, fileID, filenameHint, destDir string) (string, error)
}

// Transcoder extracts and splits audio from the downloaded video.
type Transcoder interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
	Split(ctx context.Context, audioPath, chunkDir string, chunkSeconds int) ([]ffmpeg.Chunk, error)
}

// Engine transcribes one audio chunk into chunk-relative segments.
type Engine interface {
	Transcribe(ctx context.Context, chunkPath, outputDir string) ([]transcript.Segment, error)
}

// Options tunes executor behavior.
type Options struct {
	// RetryDelay overrides the fixed pause between attempts. Zero keeps the
	// 30 second default.
	RetryDelay time.Duration
}

// Executor drives one job at a time through the full pipeline: download,
// audio extraction, chunking, per-chunk transcription, and delivery. Retries
// are silent until the budget is spent; cleanup of the working directory and
// the queue entry happens on every exit path.
type Executor struct {
	cfg        *config.Config
	queue      *queue.Manager
	notifier   notifications.Service
	source     Source
	transcoder Transcoder
	engine     Engine
	logger     *slog.Logger
	retryDelay time.Duration
	workRoot   string
}

// NewExecutor wires the pipeline stages together.
func NewExecutor(
	cfg *config.Config,
	manager *queue.Manager,
	notifier notifications.Service,
	source Source,
	transcoder Transcoder,
	engine Engine,
	logger *slog.Logger,
	opts Options,
) *Executor {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Executor{
		cfg:        cfg,
		queue:      manager,
		notifier:   notifier,
		source:     source,
		transcoder: transcoder,
		engine:     engine,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		retryDelay: delay,
		workRoot:   filepath.Join(cfg.Paths.DataDir, "work"),
	}
}

// Process is the full per-job lifecycle: wait for the queue turn, then run
// the pipeline. Queue position updates flow through the notifier while
// waiting. A job whose queue entry and metadata are both gone cannot be
// waited for and fails immediately.
func (e *Executor) Process(ctx context.Context, job queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	err := e.queue.WaitForTurn(ctx, job.ID, func(ctx context.Context, position int) {
		if err := e.notifier.NotifyQueuePosition(ctx, job, position); err != nil {
			logging.WithContext(ctx, e.logger).Warn("queue position notification failed", logging.Error(err))
		}
	})
	if err != nil {
		return err
	}
	return e.Run(ctx, job)
}

// Run executes the pipeline with the retry budget. Intermediate failures are
// logged but never surfaced to the submitter; only after the last attempt
// fails is a single failure notification sent. The queue entry is removed on
// every exit path, success or not, so a stuck job can never block the queue.
func (e *Executor) Run(ctx context.Context, job queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	// Cleanup must run even when the surrounding context is already
	// cancelled, otherwise a shutdown mid-job leaks the queue head.
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := e.queue.Remove(cleanupCtx, job.ID); err != nil {
			logging.WithContext(ctx, e.logger).Error("queue cleanup failed", logging.Error(err))
		}
	}()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx := services.WithAttempt(ctx, attempt)
		logger := logging.WithContext(attemptCtx, e.logger)

		lastErr = e.runAttempt(attemptCtx, job, attempt)
		if lastErr == nil {
			logger.Info("pipeline completed", logging.String(logging.FieldEventType, "job_completed"))
			return nil
		}

		logger.Warn("pipeline attempt failed", logging.Error(lastErr))
		if services.IsFatal(lastErr) || attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(e.retryDelay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	logging.WithContext(ctx, e.logger).Error("pipeline failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.Error(lastErr),
	)
	// Shutdown cancellation is not a job failure the submitter should hear
	// about.
	if !errors.Is(lastErr, context.Canceled) && !errors.Is(lastErr, context.DeadlineExceeded) {
		if err := e.notifier.NotifyFailure(cleanupCtx, job, lastErr.Error()); err != nil {
			logging.WithContext(ctx, e.logger).Warn("failure notification failed", logging.Error(err))
		}
	}
	return lastErr
}

// runAttempt performs one complete pass in a fresh, attempt-scoped working
// directory. The directory is removed before returning regardless of outcome
// so retries never see a previous attempt's partial files.
func (e *Executor) runAttempt(ctx context.Context, job queue.Job, attempt int) error {
	workDir := filepath.Join(e.workRoot, fmt.Sprintf("%s-attempt-%d", job.ID, attempt))
	if err := fileutil.EnsureDir(workDir); err != nil {
		return services.Wrap(services.ErrTransient, "setup", "", "create working directory", err)
	}
	defer func() {
		if err := fileutil.RemoveDir(workDir); err != nil {
			logging.WithContext(ctx, e.logger).Warn("working directory cleanup failed",
				logging.String("work_dir", workDir),
				logging.Error(err),
			)
		}
	}()

	return e.execute(ctx, job, workDir)
}

func (e *Executor) execute(ctx context.Context, job queue.Job, workDir string) error {
	e.emit(ctx, job, StateDownloading)
	videoPath, err := e.source.Fetch(ctx, job.FileID, job.Filename, workDir)
	if err != nil {
		return err
	}

	e.emit(ctx, job, StateExtracting)
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := e.transcoder.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return err
	}

	e.emit(ctx, job, StateSplitting)
	chunkDir := filepath.Join(workDir, "chunks")
	chunks, err := e.transcoder.Split(ctx, audioPath, chunkDir, e.cfg.Transcription.ChunkDurationSeconds)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return services.Wrap(services.ErrExternalTool, "split", "", "no audio chunks produced", nil)
	}

	segments, err := e.transcribeChunks(ctx, job, chunks, chunkDir)
	if err != nil {
		return err
	}

	e.emit(ctx, job, StateFinalizing)
	if err := e.deliver(ctx, job, segments, workDir); err != nil {
		return err
	}

	e.emit(ctx, job, StateDelivered)
	return nil
}

// transcribeChunks runs the recognition engine over each chunk in order,
// merging results into the recording's timeline. Progress within the 45-80
// range is reported only when it has advanced by at least progressStep or the
// final chunk finishes.
func (e *Executor) transcribeChunks(ctx context.Context, job queue.Job, chunks []ffmpeg.Chunk, outputDir string) ([]transcript.Segment, error) {
	ctx = services.WithStage(ctx, string(StateTranscribing))
	e.emit(ctx, job, StateTranscribing)
	lastEmitted := StateTranscribing.Checkpoint()

	aggregator := transcript.NewAggregator()
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segments, err := e.engine.Transcribe(ctx, chunk.Path, outputDir)
		if err != nil {
			return nil, err
		}
		aggregator.AddChunk(segments, chunk.Duration)

		done := i + 1
		percent := transcribeCheckpoint(done, len(chunks))
		if percent-lastEmitted >= progressStep || done == len(chunks) {
			e.notifyProgress(ctx, job, StateTranscribing, percent)
			lastEmitted = percent
		}
	}
	return aggregator.Segments(), nil
}

// deliver renders the transcript files and sends them as documents. Delivery
// failures count against the retry budget like any other stage failure.
func (e *Executor) deliver(ctx context.Context, job queue.Job, segments []transcript.Segment, workDir string) error {
	txtPath := filepath.Join(workDir, "transcription.txt")
	if err := transcript.WriteText(segments, txtPath); err != nil {
		return services.Wrap(services.ErrTransient, "finalize", "", "write transcript", err)
	}
	if err := e.notifier.NotifyTranscript(ctx, job, txtPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "deliver", "sendDocument", "send transcript", err)
	}

	if e.cfg.Subtitles.Enabled {
		srtPath := filepath.Join(workDir, "transcription.srt")
		if err := transcript.WriteSRT(segments, srtPath); err != nil {
			return services.Wrap(services.ErrTransient, "finalize", "", "write subtitles", err)
		}
		if err := e.notifier.NotifySubtitles(ctx, job, srtPath); err != nil {
			return services.Wrap(services.ErrExternalTool, "deliver", "sendDocument", "send subtitles", err)
		}
	}
	return nil
}

// emit sends the checkpoint message for entering a state. Progress messages
// are best effort: a lost status update is not worth failing the run over.
func (e *Executor) emit(ctx context.Context, job queue.Job, state State) {
	e.notifyProgress(ctx, job, state, state.Checkpoint())
}

func (e *Executor) notifyProgress(ctx context.Context, job queue.Job, state State, percent int) {
	logging.WithContext(ctx, e.logger).Info("stage checkpoint",
		logging.String(logging.FieldStage, string(state)),
		logging.Int("percent", percent),
	)
	if err := e.notifier.NotifyProgress(ctx, job, state.Label(), percent); err != nil {
		logging.WithContext(ctx, e.logger).Warn("progress notification failed",
			logging.String(logging.FieldStage, string(state)),
			logging.Error(err),
		)
	}
}
