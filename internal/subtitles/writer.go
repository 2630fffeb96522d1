package subtitles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Line is one numbered SRT cue.
type Line struct {
	Sequence int
	Start    time.Duration
	End      time.Duration
	Text     string
}

// String renders the cue in SRT block form, including the blank separator line.
func (l Line) String() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", l.Sequence, FormatTimestamp(l.Start), FormatTimestamp(l.End), l.Text)
}

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("subtitle writer closed")

// Writer appends cues to a single SRT file.
type Writer struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	counter int
}

// Create truncates or creates path and returns a Writer positioned at cue 1.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create subtitle directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create subtitle file: %w", err)
	}
	return &Writer{path: path, file: file}, nil
}

// Count returns how many cues have been written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counter
}

// Append writes one cue and syncs it to disk. Text that is empty after
// trimming is skipped without consuming a sequence number; the returned bool
// reports whether a cue was written.
func (w *Writer) Append(start, end time.Duration, text string) (Line, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Line{}, false, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return Line{}, false, ErrClosed
	}

	line := Line{Sequence: w.counter + 1, Start: start, End: end, Text: text}
	if _, err := w.file.WriteString(line.String()); err != nil {
		return Line{}, false, fmt.Errorf("write cue %d to %s: %w", line.Sequence, w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return Line{}, false, fmt.Errorf("sync cue %d to %s: %w", line.Sequence, w.path, err)
	}
	w.counter = line.Sequence
	return line, true, nil
}

// Close releases the file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
