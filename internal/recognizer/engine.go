package recognizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/language"
)

// Segment is one recognized span of speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

func (s Segment) String() string {
	return fmt.Sprintf("[%s -> %s] %s", s.Start, s.End, strings.TrimSpace(s.Text))
}

// EmitFunc delivers a segment to the consumer. Engines must stop producing
// and return once it reports an error.
type EmitFunc func(Segment) error

// Engine is a speech recognition backend.
type Engine interface {
	Load(modelPath string, lang language.Selector) error
	Transcribe(ctx context.Context, audioPath string, emit EmitFunc) error
	Close() error
}

// Factory builds a fresh engine for each Initialize call.
type Factory func() (Engine, error)
