package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"murmur/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "speech_base", "speech_base"},
		{"unsafe chars", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"control chars", "tab\there\x00", "tab_here_"},
		{"trim dots and spaces", "  ..name.. ", "name"},
		{"only dots", "...", "_"},
		{"empty", "", "_"},
		{"unicode kept", "café_ñ", "café_ñ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.SanitizeFileName(tt.input); got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"plain",
		` weird:name?.`,
		strings.Repeat("é", 200),
		strings.Repeat("a", 254) + " .x",
		"\x01\x02",
	}
	for _, input := range inputs {
		once := textutil.SanitizeFileName(input)
		twice := textutil.SanitizeFileName(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	got := textutil.SanitizeFileName(strings.Repeat("é", 200))
	if len(got) > textutil.MaxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", textutil.MaxFileNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		input string
		model string
		want  string
	}{
		{"/media/speech.wav", "/models/base.bin", "speech_base.srt"},
		{"talk.final.mp3", "ggml-small.en.bin", "talk.final_ggml-small.en.srt"},
		{"/media/what?.wav", "whisper-1", "what__whisper-1.srt"},
	}
	for _, tt := range tests {
		if got := textutil.OutputFileName(tt.input, tt.model); got != tt.want {
			t.Fatalf("OutputFileName(%q, %q) = %q, want %q", tt.input, tt.model, got, tt.want)
		}
	}
}

func TestOutputFileNameCapsLength(t *testing.T) {
	got := textutil.OutputFileName(strings.Repeat("x", 300)+".wav", "base.bin")
	if len(got) > textutil.MaxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", textutil.MaxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".srt") {
		t.Fatalf("expected .srt suffix, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := textutil.SanitizeToken(" Large-V3 Turbo "); got != "large-v3_turbo" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := textutil.SanitizeToken("***"); got != "unknown" {
		t.Fatalf("unexpected token %q", got)
	}
}
