package services_test

import (
	"context"
	"testing"

	"murmur/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "transcoding")
	ctx = services.WithFile(ctx, "/tmp/speech.wav")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcoding" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if file, ok := services.FileFromContext(ctx); !ok || file != "/tmp/speech.wav" {
		t.Fatalf("unexpected file: %v %v", file, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
