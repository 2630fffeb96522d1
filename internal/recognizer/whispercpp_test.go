package recognizer_test

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/language"
	"murmur/internal/recognizer"
	"murmur/internal/testsupport"
)

func TestParseSegmentLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want recognizer.Segment
	}{
		{"[00:00:00.000 --> 00:00:01.500]   Hello", true, recognizer.Segment{Start: 0, End: 1500 * time.Millisecond, Text: "Hello"}},
		{"[01:02:03.004 --> 01:02:04.000]  world ", true, recognizer.Segment{Start: time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, End: time.Hour + 2*time.Minute + 4*time.Second, Text: "world"}},
		{"[00:00:05.000 --> 00:00:06.000]", true, recognizer.Segment{Start: 5 * time.Second, End: 6 * time.Second, Text: ""}},
		{"whisper_init_from_file: loading model", false, recognizer.Segment{}},
		{"[00:00 --> 00:01] nope", false, recognizer.Segment{}},
	}
	for _, tt := range tests {
		got, ok := recognizer.ParseSegmentLine(tt.line)
		if ok != tt.ok {
			t.Fatalf("ParseSegmentLine(%q) ok=%v, want %v", tt.line, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Fatalf("ParseSegmentLine(%q) = %#v, want %#v", tt.line, got, tt.want)
		}
	}
}

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	if err := os.WriteFile(path, []byte("model"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestWhisperCPPStreamsSegments(t *testing.T) {
	base := t.TempDir()
	argsFile := filepath.Join(base, "args.txt")
	script := testsupport.WriteScript(t, base, "whisper-cli", `echo "$@" > "`+argsFile+`"
echo "whisper_model_load: loading"
echo "[00:00:00.000 --> 00:00:01.000]   Hello"
echo "[00:00:01.000 --> 00:00:02.000]   world"
`)
	engine := recognizer.NewWhisperCPP(script, 4)
	model := writeModel(t)
	if err := engine.Load(model, language.Selector{Label: "English", Code: "en"}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var got []recognizer.Segment
	err := engine.Transcribe(context.Background(), "/tmp/audio.wav", func(seg recognizer.Segment) error {
		got = append(got, seg)
		return nil
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got) != 2 || got[0].Text != "Hello" || got[1].Text != "world" {
		t.Fatalf("unexpected segments: %#v", got)
	}

	args := testsupport.ReadFile(t, argsFile)
	for _, want := range []string{"-m " + model, "-f /tmp/audio.wav", "-l en", "-t 4"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}

func TestWhisperCPPFailureIncludesStderr(t *testing.T) {
	base := t.TempDir()
	script := testsupport.WriteScript(t, base, "whisper-cli", "echo 'failed to read audio' >&2\nexit 3\n")
	engine := recognizer.NewWhisperCPP(script, 0)
	if err := engine.Load(writeModel(t), language.Auto()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := engine.Transcribe(context.Background(), "a.wav", func(recognizer.Segment) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "failed to read audio") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestWhisperCPPLoadRejectsMissingOrEmptyModel(t *testing.T) {
	base := t.TempDir()
	script := testsupport.WriteScript(t, base, "whisper-cli", "exit 0\n")
	engine := recognizer.NewWhisperCPP(script, 0)

	if err := engine.Load(filepath.Join(base, "missing.bin"), language.Auto()); err == nil {
		t.Fatal("expected error for missing model")
	}
	empty := filepath.Join(base, "empty.bin")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty model: %v", err)
	}
	if err := engine.Load(empty, language.Auto()); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestWhisperCPPLoadRequiresBinary(t *testing.T) {
	engine := recognizer.NewWhisperCPP(filepath.Join(t.TempDir(), "no-such-whisper"), 0)
	if err := engine.Load(writeModel(t), language.Auto()); err == nil {
		t.Fatal("expected error when binary is missing")
	}
}

func TestWhisperCPPCancellationThroughConsumer(t *testing.T) {
	base := t.TempDir()
	script := testsupport.WriteScript(t, base, "whisper-cli", `echo "[00:00:00.000 --> 00:00:01.000]   first"
exec sleep 30
`)
	consumer := recognizer.NewConsumer(func() (recognizer.Engine, error) {
		return recognizer.NewWhisperCPP(script, 0), nil
	}, nil)
	if err := consumer.Initialize(writeModel(t), language.Auto()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	delivered := 0
	start := time.Now()
	err := consumer.Process(ctx, "a.wav", func(recognizer.Segment) error {
		delivered++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered segment, got %d", delivered)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("cancellation did not stop whisper promptly")
	}
}

func TestWhisperCPPOversizedLineStopsProcess(t *testing.T) {
	base := t.TempDir()
	script := testsupport.WriteScript(t, base, "whisper-cli", `head -c 1100000 /dev/zero | tr '\0' a
echo
exec sleep 30
`)
	engine := recognizer.NewWhisperCPP(script, 0)
	if err := engine.Load(writeModel(t), language.Auto()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	start := time.Now()
	err := engine.Transcribe(ctx, "a.wav", func(recognizer.Segment) error { return nil })
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("expected bufio.ErrTooLong, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("whisper-cli was left running after the read failed")
	}
}
