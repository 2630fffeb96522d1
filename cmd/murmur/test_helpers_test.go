package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"murmur/internal/config"
	"murmur/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	modelPath  string
}

const ffmpegStub = `for last; do :; done
printf 'RIFF0000WAVEfmt ' > "$last"
`

const whisperStub = `echo "whisper_init_from_file_with_params_no_state: loading model"
echo "[00:00:00.000 --> 00:00:01.200]   Hello"
echo "[00:00:01.200 --> 00:00:03.000]   world."
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MURMUR_MODELS_DIR", "")

	testsupport.WriteScript(t, base, "ffmpeg", ffmpegStub)
	testsupport.WriteScript(t, base, "whisper-cli", whisperStub)
	cfg.Logging.Level = "error"
	cfg.Models.BaseURL = "http://127.0.0.1:1/models"

	modelPath := filepath.Join(base, "base.bin")
	testsupport.WriteFile(t, modelPath, 4)

	configPath := filepath.Join(homeDir, ".config", "murmur", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		modelPath:  modelPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
