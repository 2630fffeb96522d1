package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeModels(); err != nil {
		return err
	}
	c.normalizeTranscode()
	c.normalizeEngine()
	c.normalizeOpenAI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MURMUR_MODELS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ModelsDir = strings.TrimSpace(value)
	}
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.models_dir", &c.Paths.ModelsDir, defaultModelsDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.timing_log", &c.Paths.TimingLog, defaultTimingLog},
		{"paths.history_db", &c.Paths.HistoryDB, defaultHistoryDB},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	output := strings.TrimSpace(c.Paths.OutputDir)
	if output == "" {
		c.Paths.OutputDir = ""
		return nil
	}
	expanded, err := expandPath(output)
	if err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	c.Paths.OutputDir = expanded
	return nil
}

func (c *Config) normalizeModels() error {
	c.Models.Default = strings.TrimSpace(c.Models.Default)
	c.Models.BaseURL = strings.TrimRight(strings.TrimSpace(c.Models.BaseURL), "/")
	if c.Models.BaseURL == "" {
		c.Models.BaseURL = defaultModelsBaseURL
	}
	if c.Models.DownloadTimeout <= 0 {
		c.Models.DownloadTimeout = defaultDownloadTimeout
	}
	catalog := strings.TrimSpace(c.Models.CatalogFile)
	if catalog == "" {
		c.Models.CatalogFile = ""
		return nil
	}
	expanded, err := expandPath(catalog)
	if err != nil {
		return fmt.Errorf("models.catalog_file: %w", err)
	}
	c.Models.CatalogFile = expanded
	return nil
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Transcode.SampleRate <= 0 {
		c.Transcode.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeEngine() {
	c.Engine.Backend = strings.ToLower(strings.TrimSpace(c.Engine.Backend))
	switch c.Engine.Backend {
	case "", "whisper", "whisper.cpp", "whisper-cpp":
		c.Engine.Backend = BackendWhisperCPP
	}
	c.Engine.WhisperBinary = strings.TrimSpace(c.Engine.WhisperBinary)
	if c.Engine.WhisperBinary == "" {
		c.Engine.WhisperBinary = defaultWhisperBinary
	}
	if c.Engine.Threads < 0 {
		c.Engine.Threads = 0
	}
	c.Engine.Language = strings.ToLower(strings.TrimSpace(c.Engine.Language))
	if c.Engine.Language == "" {
		c.Engine.Language = defaultEngineLanguage
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
