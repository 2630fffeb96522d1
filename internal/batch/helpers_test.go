package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"murmur/internal/batch"
	"murmur/internal/language"
	"murmur/internal/recognizer"
	"murmur/internal/services"
	"murmur/internal/timinglog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticResolver struct {
	path string
	err  error
}

func (r staticResolver) Resolve(context.Context, string) (string, error) {
	return r.path, r.err
}

// fakeTranscoder writes a small WAV placeholder per input unless told to fail.
type fakeTranscoder struct {
	dir   string
	clock *fakeClock
	cost  time.Duration
	fail  map[string]bool
	empty map[string]bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeTranscoder) Convert(_ context.Context, input string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.mu.Unlock()
	if f.clock != nil {
		f.clock.Advance(f.cost)
	}
	base := filepath.Base(input)
	if f.fail[base] {
		return "", services.Wrap(services.ErrTranscode, "transcoding", "ffmpeg", base, errors.New("exit status 1"))
	}
	if f.empty[base] {
		return "", nil
	}
	out := filepath.Join(f.dir, strings.TrimSuffix(base, filepath.Ext(base))+".wav")
	if err := os.WriteFile(out, []byte("RIFF0000WAVEfmt "), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func (f *fakeTranscoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// scriptedRecognizer calls the handler synchronously so clock advances are
// observed in a fixed order.
type scriptedRecognizer struct {
	clock       *fakeClock
	beforeFirst time.Duration
	gap         time.Duration
	segments    []recognizer.Segment
	err         error
	cancelAfter int
	cancel      context.CancelFunc

	initialized bool
	lastModel   string
	lastLang    language.Selector
}

func (s *scriptedRecognizer) Initialize(modelPath string, lang language.Selector) error {
	s.initialized = true
	s.lastModel = modelPath
	s.lastLang = lang
	return nil
}

func (s *scriptedRecognizer) Release() {
	s.initialized = false
}

func (s *scriptedRecognizer) Process(ctx context.Context, _ string, handle func(recognizer.Segment) error) error {
	if !s.initialized {
		return recognizer.ErrNotInitialized
	}
	s.initialized = false
	if s.clock != nil {
		s.clock.Advance(s.beforeFirst)
	}
	for i, seg := range s.segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := handle(seg); err != nil {
			return err
		}
		if s.cancelAfter > 0 && i+1 == s.cancelAfter {
			s.cancel()
			return ctx.Err()
		}
		if s.clock != nil {
			s.clock.Advance(s.gap)
		}
	}
	return s.err
}

type staticEngine struct {
	segments []recognizer.Segment
}

func (e *staticEngine) Load(string, language.Selector) error { return nil }

func (e *staticEngine) Transcribe(_ context.Context, _ string, emit recognizer.EmitFunc) error {
	for _, seg := range e.segments {
		if err := emit(seg); err != nil {
			return err
		}
	}
	return nil
}

func (e *staticEngine) Close() error { return nil }

// countingFactory builds engines that count loads and closes across a run.
type countingFactory struct {
	failFirstLoad bool
	segments      []recognizer.Segment

	loads  atomic.Int32
	closes atomic.Int32
}

func (f *countingFactory) build() (recognizer.Engine, error) {
	return &countingEngine{factory: f}, nil
}

type countingEngine struct {
	factory *countingFactory
}

func (e *countingEngine) Load(string, language.Selector) error {
	if n := e.factory.loads.Add(1); n == 1 && e.factory.failFirstLoad {
		return errors.New("invalid model header")
	}
	return nil
}

func (e *countingEngine) Transcribe(_ context.Context, _ string, emit recognizer.EmitFunc) error {
	for _, seg := range e.factory.segments {
		if err := emit(seg); err != nil {
			return err
		}
	}
	return nil
}

func (e *countingEngine) Close() error {
	e.factory.closes.Add(1)
	return nil
}

type memoryTimings struct {
	mu      sync.Mutex
	records []string
	elapsed []time.Duration
}

func (m *memoryTimings) Append(_ context.Context, record timinglog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record.String())
	m.elapsed = append(m.elapsed, record.Elapsed)
	return nil
}

type recorderCall struct {
	kind     string
	position int
	state    batch.State
	runErr   error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorderCall
}

func (r *fakeRecorder) RunStarted(context.Context, batch.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorderCall{kind: "start"})
	return nil
}

func (r *fakeRecorder) FileFinished(_ context.Context, _ string, position int, result batch.FileResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorderCall{kind: "file", position: position, state: result.State})
	return nil
}

func (r *fakeRecorder) RunFinished(_ context.Context, _ batch.Summary, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorderCall{kind: "finish", runErr: runErr})
	return nil
}

func writeInputs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			t.Fatalf("write input: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func seg(startMS, endMS int, text string) recognizer.Segment {
	return recognizer.Segment{
		Start: time.Duration(startMS) * time.Millisecond,
		End:   time.Duration(endMS) * time.Millisecond,
		Text:  text,
	}
}
