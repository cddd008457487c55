package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// A .env next to the binary is a development convenience; missing is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", resolvedPath, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "scribed")

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "scribed.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire instance lock", logging.Error(err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another scribed instance is already running")
		os.Exit(1)
	}
	defer lock.Unlock() //nolint:errcheck

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	for _, status := range statuses {
		if !status.Available {
			logger.Warn("external tool unavailable",
				logging.String("tool", status.Name),
				logging.String("detail", status.Detail),
			)
		}
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logger.Error("required tools missing", logging.String("tools", strings.Join(missing, ", ")))
		os.Exit(1)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		os.Exit(1)
	}
	defer app.close()

	logger.Info("scribed started", logging.String("config", resolvedPath))
	if err := app.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scribed exited with error", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("scribed shutting down")
}
