package config

const (
	defaultDataDir              = "~/.local/share/scribe/data"
	defaultLogDir               = "~/.local/share/scribe/logs"
	defaultAPIBaseURL           = "https://api.telegram.org"
	defaultRequestTimeout       = 30
	defaultPollTimeout          = 50
	defaultQueueBackend         = "sqlite"
	defaultRedisURL             = "redis://localhost:6379/0"
	defaultQueuePollInterval    = 5
	defaultModel                = "small"
	defaultLanguage             = "ru"
	defaultChunkDurationSeconds = 600
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultWhisperBinary        = "whisper"
	defaultNotifyThrottle       = 30
	defaultDispatchMode         = "local"
	defaultDispatchQueueName    = "scribe.jobs"
	defaultDispatchConcurrency  = 4
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	// MinChunkDurationSeconds and MaxChunkDurationSeconds bound the audio
	// chunk length to the five-to-ten-minute range.
	MinChunkDurationSeconds = 300
	MaxChunkDurationSeconds = 600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Telegram: Telegram{
			APIBaseURL:     defaultAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
			PollTimeout:    defaultPollTimeout,
		},
		Queue: Queue{
			Backend:      defaultQueueBackend,
			RedisURL:     defaultRedisURL,
			PollInterval: defaultQueuePollInterval,
		},
		Transcription: Transcription{
			Model:                defaultModel,
			Language:             defaultLanguage,
			ChunkDurationSeconds: defaultChunkDurationSeconds,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			Whisper: defaultWhisperBinary,
		},
		Subtitles: Subtitles{
			Enabled: true,
		},
		Notifications: Notifications{
			ThrottleSeconds: defaultNotifyThrottle,
		},
		Dispatch: Dispatch{
			Mode:        defaultDispatchMode,
			QueueName:   defaultDispatchQueueName,
			Concurrency: defaultDispatchConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
