package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"murmur/internal/batch"
)

var _ batch.Recorder = (*Store)(nil)

// RunStarted inserts the run row with status running.
func (s *Store) RunStarted(ctx context.Context, summary batch.Summary) error {
	if summary.RunID == "" {
		return errors.New("run id is required")
	}
	err := s.exec(ctx, `INSERT INTO runs (id, model, language, status, file_count, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.ModelPath,
		summary.Language.Code,
		StatusRunning,
		len(summary.Files),
		formatTime(summary.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FileFinished stores the terminal outcome of one file.
func (s *Store) FileFinished(ctx context.Context, runID string, position int, result batch.FileResult) error {
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	err := s.exec(ctx, `INSERT INTO run_files
		(run_id, position, input_path, output_path, state, segments, elapsed_ms, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		position,
		result.Input,
		nullableString(result.Output),
		string(result.State),
		result.Segments,
		result.Elapsed.Milliseconds(),
		nullableString(errMsg),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	return nil
}

// RunFinished updates the run row with its final status.
func (s *Store) RunFinished(ctx context.Context, summary batch.Summary, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	err := s.exec(ctx, `UPDATE runs
		SET model = ?, status = ?, error_message = ?, file_count = ?, finished_at = ?
		WHERE id = ?`,
		summary.ModelPath,
		RunStatus(summary, runErr),
		nullableString(errMsg),
		len(summary.Files),
		formatTime(summary.FinishedAt),
		summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RunStatus derives the persisted status for a finished run.
func RunStatus(summary batch.Summary, runErr error) string {
	switch {
	case errors.Is(runErr, context.Canceled) || summary.Count(batch.StateCancelled) > 0:
		return StatusCancelled
	case runErr != nil:
		return StatusAborted
	case summary.Succeeded():
		return StatusCompleted
	default:
		return StatusErrors
	}
}
