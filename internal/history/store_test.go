package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"murmur/internal/batch"
	"murmur/internal/history"
	"murmur/internal/language"
	"murmur/internal/testsupport"
)

func sampleSummary(runID string, started time.Time, files ...batch.FileResult) batch.Summary {
	return batch.Summary{
		RunID:     runID,
		ModelPath: "/models/ggml-base.bin",
		Language:  language.Selector{Label: "English", Code: "en"},
		Files:     files,
		StartedAt: started,
	}
}

func TestRunLifecycleIsPersisted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	files := []batch.FileResult{
		{Input: "/in/a.mp3", Output: "/out/a_ggml-base.srt", State: batch.StateCompleted, Segments: 2, Elapsed: 1800 * time.Millisecond},
		{Input: "/in/b.mp3", State: batch.StateFailed, Err: errors.New("transcode failed: ffmpeg exited 1")},
	}
	summary := sampleSummary("run-1", started, files...)

	if err := store.RunStarted(ctx, summary); err != nil {
		t.Fatalf("RunStarted: %v", err)
	}
	for i, f := range files {
		if err := store.FileFinished(ctx, summary.RunID, i, f); err != nil {
			t.Fatalf("FileFinished(%d): %v", i, err)
		}
	}
	summary.FinishedAt = started.Add(time.Minute)
	if err := store.RunFinished(ctx, summary, nil); err != nil {
		t.Fatalf("RunFinished: %v", err)
	}

	runs, err := store.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != history.StatusErrors {
		t.Fatalf("status = %q, want %q", run.Status, history.StatusErrors)
	}
	if run.Language != "en" || run.FileCount != 2 {
		t.Fatalf("unexpected run row: %#v", run)
	}
	if !run.StartedAt.Equal(started) || !run.FinishedAt.Equal(summary.FinishedAt) {
		t.Fatalf("unexpected timestamps: %v %v", run.StartedAt, run.FinishedAt)
	}

	got, err := store.Files(ctx, "run-1")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got))
	}
	if got[0].State != "completed" || got[0].Elapsed != 1800*time.Millisecond || got[0].Segments != 2 {
		t.Fatalf("unexpected first file: %#v", got[0])
	}
	if got[1].Output != "" || got[1].Error == "" {
		t.Fatalf("unexpected failed file: %#v", got[1])
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		summary := sampleSummary(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := store.RunStarted(ctx, summary); err != nil {
			t.Fatalf("RunStarted: %v", err)
		}
	}

	runs, err := store.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Status != history.StatusRunning {
		t.Fatalf("expected running status, got %q", runs[0].Status)
	}
}

func TestRunStartedRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := store.RunStarted(context.Background(), batch.Summary{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRunStatus(t *testing.T) {
	completed := batch.FileResult{State: batch.StateCompleted}
	tests := []struct {
		name    string
		summary batch.Summary
		err     error
		want    string
	}{
		{"all completed", batch.Summary{Files: []batch.FileResult{completed}}, nil, history.StatusCompleted},
		{"some failed", batch.Summary{Files: []batch.FileResult{completed, {State: batch.StateFailed}}}, nil, history.StatusErrors},
		{"aborted", batch.Summary{Files: []batch.FileResult{{State: batch.StateSkipped}}}, errors.New("model unavailable"), history.StatusAborted},
		{"cancelled", batch.Summary{Files: []batch.FileResult{{State: batch.StateCancelled}}}, context.Canceled, history.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := history.RunStatus(tt.summary, tt.err); got != tt.want {
				t.Fatalf("RunStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RunStarted(context.Background(), sampleSummary("run-keep", time.Now())); err != nil {
		t.Fatalf("RunStarted: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-keep" {
		t.Fatalf("unexpected runs after reopen: %#v", runs)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version VALUES (99);"); err != nil {
		t.Fatalf("seed schema: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
