package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Telegram contains settings for the Telegram Bot API client.
type Telegram struct {
	BotToken       string `toml:"bot_token"`
	APIBaseURL     string `toml:"api_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	PollTimeout    int    `toml:"poll_timeout"`
}

// Queue contains configuration for the shared queue store and wait loop.
type Queue struct {
	Backend      string `toml:"backend"`
	RedisURL     string `toml:"redis_url"`
	PollInterval int    `toml:"poll_interval"`
}

// Transcription contains recognition engine and chunking settings.
type Transcription struct {
	Model                string `toml:"model"`
	Language             string `toml:"language"`
	ChunkDurationSeconds int    `toml:"chunk_duration_seconds"`
}

// Tools contains external binary names or paths.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	Whisper string `toml:"whisper"`
}

// Subtitles contains configuration for SRT output.
type Subtitles struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains throttling configuration for status messages.
type Notifications struct {
	ThrottleSeconds int `toml:"throttle_seconds"`
}

// Dispatch contains configuration for the job dispatch layer.
type Dispatch struct {
	Mode        string `toml:"mode"`
	AMQPURL     string `toml:"amqp_url"`
	QueueName   string `toml:"queue_name"`
	Concurrency int    `toml:"concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the immutable runtime configuration assembled at startup.
// Components receive it by value or pointer and never read the environment
// themselves.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Telegram      Telegram      `toml:"telegram"`
	Queue         Queue         `toml:"queue"`
	Transcription Transcription `toml:"transcription"`
	Tools         Tools         `toml:"tools"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Notifications Notifications `toml:"notifications"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the canonical configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "scribe", "config.toml"), nil
}

// Load reads configuration from path (or the default location when empty),
// merges it over defaults, applies environment overrides, then normalizes and
// validates the result. The second return value is the path that was consulted.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		resolved = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment overrides are enough to start.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Normalize(); err != nil {
		return nil, resolved, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		c.Telegram.BotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.Queue.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("AMQP_URL")); v != "" {
		c.Dispatch.AMQPURL = v
	}
	if v := strings.TrimSpace(os.Getenv("WHISPER_MODEL")); v != "" {
		c.Transcription.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("CHUNK_DURATION_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Transcription.ChunkDurationSeconds = parsed
		}
	}
}

// EnsureDirectories creates the data and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
