package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/gateway"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/pipeline"
	"scribe/internal/queue"
	"scribe/internal/services/ffmpeg"
	"scribe/internal/services/telegram"
	"scribe/internal/services/whisper"
)

// app holds the wired daemon: the Telegram gateway feeding the dispatcher,
// and pipeline workers consuming from it behind the shared queue gate.
type app struct {
	store      queue.Store
	dispatcher dispatch.Dispatcher
	gateway    *gateway.Gateway
	executor   *pipeline.Executor
	logger     *slog.Logger
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := queue.OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	manager := queue.NewManager(store, logger, queue.ManagerOptions{
		PollInterval:   time.Duration(cfg.Queue.PollInterval) * time.Second,
		NotifyInterval: time.Duration(cfg.Notifications.ThrottleSeconds) * time.Second,
	})

	client := telegram.NewClient(cfg)
	notifier := notifications.NewService(client)
	executor := pipeline.NewExecutor(
		cfg,
		manager,
		notifier,
		telegram.NewSource(client),
		ffmpeg.NewTranscoder(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
		whisper.NewEngine(cfg.Tools.Whisper, cfg.Transcription.Model, cfg.Transcription.Language),
		logger,
		pipeline.Options{},
	)

	dispatcher, err := dispatch.New(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		store:      store,
		dispatcher: dispatcher,
		gateway:    gateway.New(cfg, client, manager, dispatcher, notifier, logger),
		executor:   executor,
		logger:     logger,
	}, nil
}

// run drives the gateway and the worker pool until the context is cancelled,
// then waits for both to stop.
func (a *app) run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.dispatcher.Run(ctx, a.executor.Process); err != nil {
			errs <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.gateway.Run(ctx); err != nil {
			errs <- err
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && ctx.Err() == nil {
			return err
		}
	}
	return ctx.Err()
}

func (a *app) close() {
	if err := a.dispatcher.Close(); err != nil {
		a.logger.Warn("dispatcher close failed", logging.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", logging.Error(err))
	}
}
