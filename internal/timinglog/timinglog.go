// Package timinglog appends per-file recognition timings to a plain-text log.
//
// Each completed output produces one line "<output path>: <elapsed>" where
// elapsed uses time.Duration formatting. Writers from separate processes are
// serialized with an exclusive lock on "<path>.lock".
package timinglog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// Record is one completed output and its recognition time.
type Record struct {
	Output  string
	Elapsed time.Duration
}

// String renders the log line without a trailing newline.
func (r Record) String() string {
	return fmt.Sprintf("%s: %s", r.Output, r.Elapsed)
}

// Log is an append-only timing log.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
	lock *flock.Flock
}

// Open opens (creating if needed) the log at path in append mode.
func Open(path string) (*Log, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("timing log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create timing log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open timing log: %w", err)
	}
	return &Log{path: path, file: file, lock: flock.New(path + ".lock")}, nil
}

// Path returns the log location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one record and syncs it. It waits for the cross-process lock
// until ctx is done.
func (l *Log) Append(ctx context.Context, record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return errors.New("timing log closed")
	}

	locked, err := l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock timing log: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock timing log: %s is held by another process", l.lock.Path())
	}
	defer func() {
		_ = l.lock.Unlock()
	}()

	if _, err := l.file.WriteString(record.String() + "\n"); err != nil {
		return fmt.Errorf("append timing record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync timing log: %w", err)
	}
	return nil
}

// Close releases the file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Read parses every record in the log at path. A missing file yields no records.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open timing log: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, ": ")
		if idx <= 0 {
			return nil, fmt.Errorf("timing log line %d: missing separator", lineNo)
		}
		elapsed, err := time.ParseDuration(strings.TrimSpace(line[idx+2:]))
		if err != nil {
			return nil, fmt.Errorf("timing log line %d: %w", lineNo, err)
		}
		records = append(records, Record{Output: line[:idx], Elapsed: elapsed})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read timing log: %w", err)
	}
	return records, nil
}
