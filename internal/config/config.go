package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	ModelsDir string `toml:"models_dir"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	TimingLog string `toml:"timing_log"`
	HistoryDB string `toml:"history_db"`
}

// Models contains model catalog and download settings.
type Models struct {
	Default         string `toml:"default"`
	CatalogFile     string `toml:"catalog_file"`
	BaseURL         string `toml:"base_url"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Transcode contains settings for the ffmpeg hand-off.
type Transcode struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	SampleRate    int    `toml:"sample_rate"`
	// Verify probes every converted artifact with ffprobe before recognition.
	Verify bool `toml:"verify"`
}

// Engine selects and configures the recognition backend.
type Engine struct {
	Backend       string `toml:"backend"`
	WhisperBinary string `toml:"whisper_binary"`
	Threads       int    `toml:"threads"`
	Language      string `toml:"language"`
}

// OpenAI contains settings for the OpenAI-compatible transcription backend.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// History toggles the SQLite run history.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Notifications configures ntfy push messages sent when a batch ends.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for murmur.
//
// Configuration sections by subsystem:
//   - Paths: model, work, output, and log locations
//   - Models: catalog overrides and download transport
//   - Transcode: ffmpeg/ffprobe binaries and canonical sample rate
//   - Engine: recognition backend selection
//   - OpenAI: remote backend credentials
//   - History: SQLite run history
//   - Notifications: ntfy endpoint for batch results
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Models        Models        `toml:"models"`
	Transcode     Transcode     `toml:"transcode"`
	Engine        Engine        `toml:"engine"`
	OpenAI        OpenAI        `toml:"openai"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/murmur/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("murmur.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
// OutputDir is optional; an empty value means "next to each input".
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ModelsDir, c.Paths.WorkDir, c.Paths.LogDir, filepath.Dir(c.Paths.TimingLog)}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DownloadTimeout returns the model download timeout as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Models.DownloadTimeout) * time.Second
}

// OpenAITimeout returns the remote transcription request timeout.
func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// UsesRemoteEngine reports whether recognition runs against a remote API
// instead of a local model file.
func (c *Config) UsesRemoteEngine() bool {
	return c.Engine.Backend == BackendOpenAI
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
