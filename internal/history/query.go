package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultRunLimit caps Runs when no limit is given.
const DefaultRunLimit = 20

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	var runs []Run
	err := retryOnBusy(ctx, func() error {
		runs = runs[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT id, model, language, status, error_message,
			file_count, started_at, finished_at
			FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				run      Run
				errMsg   sql.NullString
				started  sql.NullString
				finished sql.NullString
			)
			if err := rows.Scan(&run.ID, &run.Model, &run.Language, &run.Status, &errMsg,
				&run.FileCount, &started, &finished); err != nil {
				return err
			}
			run.Error = errMsg.String
			run.StartedAt = parseTime(started)
			run.FinishedAt = parseTime(finished)
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Files returns the recorded files of a run in input order.
func (s *Store) Files(ctx context.Context, runID string) ([]File, error) {
	var files []File
	err := retryOnBusy(ctx, func() error {
		files = files[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT run_id, position, input_path, output_path, state,
			segments, elapsed_ms, error_message, recorded_at
			FROM run_files WHERE run_id = ? ORDER BY position, id`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				file      File
				output    sql.NullString
				errMsg    sql.NullString
				recorded  sql.NullString
				elapsedMS int64
			)
			if err := rows.Scan(&file.RunID, &file.Position, &file.Input, &output, &file.State,
				&file.Segments, &elapsedMS, &errMsg, &recorded); err != nil {
				return err
			}
			file.Output = output.String
			file.Error = errMsg.String
			file.Elapsed = time.Duration(elapsedMS) * time.Millisecond
			file.RecordedAt = parseTime(recorded)
			files = append(files, file)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	return files, nil
}
