package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEngine() error {
	switch c.Engine.Backend {
	case BackendWhisperCPP:
		if strings.TrimSpace(c.Engine.WhisperBinary) == "" {
			return errors.New("engine.whisper_binary must be set when backend is whispercpp")
		}
	case BackendOpenAI:
		if c.OpenAI.BaseURL != "" {
			if _, err := url.ParseRequestURI(c.OpenAI.BaseURL); err != nil {
				return fmt.Errorf("openai.base_url: %w", err)
			}
		}
	default:
		return fmt.Errorf("engine.backend: unsupported value %q (want %s or %s)", c.Engine.Backend, BackendWhisperCPP, BackendOpenAI)
	}
	return nil
}

func (c *Config) validateModels() error {
	parsed, err := url.Parse(c.Models.BaseURL)
	if err != nil {
		return fmt.Errorf("models.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("models.base_url: unsupported scheme %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.SampleRate < 8000 || c.Transcode.SampleRate > 48000 {
		return fmt.Errorf("transcode.sample_rate must be between 8000 and 48000 (got %d)", c.Transcode.SampleRate)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil {
		return fmt.Errorf("notifications.ntfy_topic: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: expected a full topic URL such as https://ntfy.sh/my-topic")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
