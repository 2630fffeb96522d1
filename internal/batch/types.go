package batch

import (
	"context"
	"errors"
	"time"

	"murmur/internal/language"
	"murmur/internal/recognizer"
	"murmur/internal/timinglog"
)

// ErrInputsRequired is returned when a run is requested without input files.
var ErrInputsRequired = errors.New("at least one input file is required")

// State is the lifecycle position of a single input file.
type State string

const (
	StatePending     State = "pending"
	StateTranscoding State = "transcoding"
	StateRecognizing State = "recognizing"
	StateWriting     State = "writing"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
	StatePartial     State = "partial"
	StateCancelled   State = "cancelled"
	StateSkipped     State = "skipped"
)

// Request describes one batch invocation.
type Request struct {
	Model     string
	Language  language.Selector
	Inputs    []string
	OutputDir string
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Input     string
	Output    string
	AudioPath string
	State     State
	Segments  int
	Elapsed   time.Duration
	Err       error
	// Issues lists structural problems found in the finished subtitle file,
	// such as cues that end before they start.
	Issues []string
}

// Summary aggregates the outcome of a run.
type Summary struct {
	RunID      string
	ModelPath  string
	Language   language.Selector
	Files      []FileResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns how many files ended in the given state.
func (s Summary) Count(state State) int {
	n := 0
	for _, f := range s.Files {
		if f.State == state {
			n++
		}
	}
	return n
}

// Succeeded reports whether every file completed.
func (s Summary) Succeeded() bool {
	return len(s.Files) > 0 && s.Count(StateCompleted) == len(s.Files)
}

// Transcoder converts an input file into the canonical audio artifact.
type Transcoder interface {
	Convert(ctx context.Context, inputPath string) (string, error)
}

// Recognizer turns an audio artifact into an ordered stream of segments.
// Release drops an initialized engine that Process will not be called for.
type Recognizer interface {
	Initialize(modelPath string, lang language.Selector) error
	Process(ctx context.Context, audioPath string, handle func(recognizer.Segment) error) error
	Release()
}

// ModelResolver maps a model reference to something the recognizer can load.
type ModelResolver interface {
	Resolve(ctx context.Context, candidate string) (string, error)
}

// TimingSink receives one record per normally completed file.
type TimingSink interface {
	Append(ctx context.Context, record timinglog.Record) error
}

// Recorder observes run progress for persistence. Errors are logged, never fatal.
type Recorder interface {
	RunStarted(ctx context.Context, summary Summary) error
	FileFinished(ctx context.Context, runID string, position int, result FileResult) error
	RunFinished(ctx context.Context, summary Summary, runErr error) error
}
