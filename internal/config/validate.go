package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Validation failures are fatal
// at startup; a job never reaches the wait or pipeline path with a broken
// configuration.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set TELEGRAM_BOT_TOKEN env var or edit %s (create with 'scribe config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.Backend {
	case "sqlite":
	case "redis":
		if c.Queue.RedisURL == "" {
			return errors.New("queue.redis_url must be set when queue.backend is \"redis\"")
		}
	default:
		return fmt.Errorf("queue.backend must be \"sqlite\" or \"redis\", got %q", c.Queue.Backend)
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.Mode {
	case "local":
	case "amqp":
		if c.Dispatch.AMQPURL == "" {
			return errors.New("dispatch.amqp_url must be set when dispatch.mode is \"amqp\"")
		}
	default:
		return fmt.Errorf("dispatch.mode must be \"local\" or \"amqp\", got %q", c.Dispatch.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
}
