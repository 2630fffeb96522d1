package config

const (
	defaultModelsDir        = "~/.local/share/murmur/models"
	defaultWorkDir          = "~/.cache/murmur/work"
	defaultLogDir           = "~/.local/share/murmur/logs"
	defaultTimingLog        = "~/.local/share/murmur/timings.log"
	defaultHistoryDB        = "~/.local/share/murmur/history.db"
	defaultModelsBaseURL    = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"
	defaultDownloadTimeout  = 1800
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultSampleRate       = 16000
	defaultEngineBackend    = BackendWhisperCPP
	defaultWhisperBinary    = "whisper-cli"
	defaultEngineLanguage   = "auto"
	defaultOpenAIModel      = "whisper-1"
	defaultOpenAITimeout    = 300
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Engine backends understood by the recognizer factory.
const (
	BackendWhisperCPP = "whispercpp"
	BackendOpenAI     = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ModelsDir: defaultModelsDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			TimingLog: defaultTimingLog,
			HistoryDB: defaultHistoryDB,
		},
		Models: Models{
			BaseURL:         defaultModelsBaseURL,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Transcode: Transcode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			SampleRate:    defaultSampleRate,
			Verify:        true,
		},
		Engine: Engine{
			Backend:       defaultEngineBackend,
			WhisperBinary: defaultWhisperBinary,
			Language:      defaultEngineLanguage,
		},
		OpenAI: OpenAI{
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
