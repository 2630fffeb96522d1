package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ModelsDir = filepath.Join(base, "models")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TimingLog = filepath.Join(base, "state", "timings.log")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Transcode.Verify = false

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithOutputDir points subtitle output at a directory under the temp root.
func WithOutputDir(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = filepath.Join(b.baseDir, name)
	}
}

// WithBackend selects the recognition backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.Backend = backend
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. With no names, ffmpeg, ffprobe, and
// whisper-cli are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "whisper-cli"}
		}
		for _, name := range names {
			WriteScript(b.t, b.baseDir, name, "exit 0\n")
		}
		PrependPath(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// WriteScript writes an executable /bin/sh script named name into
// <baseDir>/bin and returns its path.
func WriteScript(t testing.TB, baseDir, name, body string) string {
	t.Helper()
	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// PrependPath puts dir at the front of PATH for the duration of the test.
func PrependPath(t testing.TB, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ModelsDir)
}
