package services_test

import (
	"errors"
	"strings"
	"testing"

	"murmur/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscode, "transcoding", "ffmpeg", "conversion failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcoding", "ffmpeg", "conversion failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsRunFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"model", services.Wrap(services.ErrModelUnavailable, "locator", "resolve", "missing", nil), true},
		{"config", services.Wrap(services.ErrConfiguration, "config", "", "bad", nil), true},
		{"transcode", services.Wrap(services.ErrTranscode, "transcoding", "", "bad", nil), false},
		{"init", services.Wrap(services.ErrInitialization, "recognizing", "", "bad", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRunFatal(tc.err); got != tc.want {
				t.Fatalf("IsRunFatal = %v, want %v", got, tc.want)
			}
		})
	}
}
