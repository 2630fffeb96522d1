package recognizer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"murmur/internal/language"
	"murmur/internal/subtitles"
)

// DefaultWhisperBinary is the whisper.cpp command-line executable name.
const DefaultWhisperBinary = "whisper-cli"

var segmentLinePattern = regexp.MustCompile(`^\s*\[(\d+:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d+:\d{2}:\d{2}[.,]\d{3})\]\s?(.*)$`)

// ParseSegmentLine parses one whisper.cpp output line such as
// "[00:00:01.000 --> 00:00:02.500]  Hello". Lines that are not segments
// report false.
func ParseSegmentLine(line string) (Segment, bool) {
	match := segmentLinePattern.FindStringSubmatch(line)
	if match == nil {
		return Segment{}, false
	}
	start, err := subtitles.ParseTimestamp(match[1])
	if err != nil {
		return Segment{}, false
	}
	end, err := subtitles.ParseTimestamp(match[2])
	if err != nil {
		return Segment{}, false
	}
	return Segment{Start: start, End: end, Text: strings.TrimSpace(match[3])}, true
}

// WhisperCPP runs the whisper.cpp CLI and streams its segments.
type WhisperCPP struct {
	binary  string
	threads int

	modelPath string
	lang      language.Selector
}

// NewWhisperCPP constructs the backend. An empty binary selects whisper-cli.
func NewWhisperCPP(binary string, threads int) *WhisperCPP {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultWhisperBinary
	}
	return &WhisperCPP{binary: binary, threads: threads}
}

// Load checks the model file and the binary before any audio is processed.
func (w *WhisperCPP) Load(modelPath string, lang language.Selector) error {
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("stat model: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path %q is a directory", modelPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model file %q is empty", modelPath)
	}
	if _, err := exec.LookPath(w.binary); err != nil {
		return fmt.Errorf("whisper binary %q: %w", w.binary, err)
	}
	w.modelPath = modelPath
	w.lang = lang
	return nil
}

func (w *WhisperCPP) buildArgs(audioPath string) []string {
	code := w.lang.Code
	if code == "" {
		code = language.AutoCode
	}
	args := []string{"-m", w.modelPath, "-f", audioPath, "-l", code, "-np"}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}
	return args
}

// Transcribe runs whisper.cpp and emits segments as their lines arrive.
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string, emit EmitFunc) error {
	if w.modelPath == "" {
		return errors.New("whisper model not loaded")
	}
	cmd := exec.CommandContext(ctx, w.binary, w.buildArgs(audioPath)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", w.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		seg, ok := ParseSegmentLine(scanner.Text())
		if !ok {
			continue
		}
		if err := emit(seg); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return err
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		// stdout is no longer drained; whisper-cli would block on a full pipe.
		_ = stdout.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("read %s output: %w", w.binary, scanErr)
	}
	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w: %s", w.binary, waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Close forgets the loaded model.
func (w *WhisperCPP) Close() error {
	w.modelPath = ""
	return nil
}

var _ Engine = (*WhisperCPP)(nil)
