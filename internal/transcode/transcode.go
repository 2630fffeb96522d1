package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"murmur/internal/logging"
	"murmur/internal/media/ffprobe"
	"murmur/internal/services"
	"murmur/internal/textutil"
)

const stageName = "transcoding"

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Options configures a Converter.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	WorkDir       string
	SampleRate    int
	Verify        bool
}

// Converter runs ffmpeg to produce recognition-ready audio.
type Converter struct {
	opts   Options
	logger *slog.Logger
	run    CommandRunner
	probe  ProbeFunc
}

// New constructs a Converter.
func New(opts Options, logger *slog.Logger) *Converter {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	return &Converter{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "transcode"),
		run:    runCommand,
		probe:  ffprobe.Inspect,
	}
}

// WithCommandRunner swaps the process runner (for testing).
func (c *Converter) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		c.run = runner
	}
}

// WithProbe swaps the ffprobe inspector (for testing).
func (c *Converter) WithProbe(probe ProbeFunc) {
	if probe != nil {
		c.probe = probe
	}
}

// Convert produces a new WAV artifact for inputPath and returns its path. On
// any failure it returns "" and an error marked services.ErrTranscode.
func (c *Converter) Convert(ctx context.Context, inputPath string) (string, error) {
	logger := logging.WithContext(ctx, c.logger)
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", services.Wrap(services.ErrTranscode, stageName, "stat input", inputPath, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrTranscode, stageName, "stat input", inputPath+" is not a regular file", nil)
	}

	workDir := c.opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTranscode, stageName, "prepare work dir", workDir, err)
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	tmp, err := os.CreateTemp(workDir, textutil.SanitizeToken(stem)+"-*.wav")
	if err != nil {
		return "", services.Wrap(services.ErrTranscode, stageName, "create artifact", workDir, err)
	}
	outPath := tmp.Name()
	_ = tmp.Close()

	fail := func(operation string, cause error) (string, error) {
		_ = os.Remove(outPath)
		return "", services.Wrap(services.ErrTranscode, stageName, operation, inputPath, cause)
	}

	logger.Debug("ffmpeg conversion starting",
		logging.String("output", outPath),
		logging.Int("sample_rate", c.opts.SampleRate),
	)
	if err := c.run(ctx, c.opts.FFmpegBinary, c.buildArgs(inputPath, outPath)...); err != nil {
		return fail("ffmpeg", err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return fail("stat output", err)
	}
	if outInfo.Size() == 0 {
		return fail("stat output", errors.New("ffmpeg produced an empty file"))
	}

	if c.opts.Verify {
		result, err := c.probe(ctx, c.opts.FFprobeBinary, outPath)
		if err != nil {
			return fail("verify output", err)
		}
		if result.AudioStreamCount() == 0 {
			return fail("verify output", errors.New("converted file has no audio stream"))
		}
		logger.Debug("converted audio verified",
			logging.Duration("duration", result.Duration()),
			logging.Int64("size_bytes", outInfo.Size()),
		)
	}
	return outPath, nil
}

func (c *Converter) buildArgs(input, output string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(c.opts.SampleRate),
		"-c:a", "pcm_s16le",
		output,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
