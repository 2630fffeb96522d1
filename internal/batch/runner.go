package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"murmur/internal/logging"
	"murmur/internal/recognizer"
	"murmur/internal/services"
	"murmur/internal/subtitles"
	"murmur/internal/textutil"
	"murmur/internal/timinglog"
)

// Runner drives a batch of files through the transcription pipeline.
type Runner struct {
	resolver   ModelResolver
	transcoder Transcoder
	recognizer Recognizer
	timings    TimingSink
	recorder   Recorder
	logger     *slog.Logger

	now       func() time.Time
	newRunID  func() string
	onFile    func(position int, result FileResult)
	onSegment func(input string, line subtitles.Line)
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithTimingSink sets where completed-file timings are appended.
func WithTimingSink(sink TimingSink) Option {
	return func(r *Runner) { r.timings = sink }
}

// WithRecorder attaches a run history recorder.
func WithRecorder(recorder Recorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// WithClock overrides the time source used for timestamps and the stopwatch.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunIDGenerator overrides run ID generation.
func WithRunIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newRunID = fn
		}
	}
}

// WithFileObserver registers a callback invoked when a file reaches a terminal state.
func WithFileObserver(fn func(position int, result FileResult)) Option {
	return func(r *Runner) { r.onFile = fn }
}

// WithSegmentObserver registers a callback invoked after each cue is written.
func WithSegmentObserver(fn func(input string, line subtitles.Line)) Option {
	return func(r *Runner) { r.onSegment = fn }
}

// NewRunner constructs a runner from its collaborators.
func NewRunner(resolver ModelResolver, transcoder Transcoder, rec Recognizer, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		resolver:   resolver,
		transcoder: transcoder,
		recognizer: rec,
		logger:     logging.NewComponentLogger(logger, "batch"),
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves the model once and processes every input in order. The
// returned error is non-nil only when the run was aborted (model resolution
// failed or ctx was cancelled); per-file failures are reported in the summary.
func (r *Runner) Run(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{
		RunID:     r.newRunID(),
		Language:  req.Language,
		StartedAt: r.now(),
	}
	if len(req.Inputs) == 0 {
		summary.FinishedAt = summary.StartedAt
		return summary, ErrInputsRequired
	}
	summary.Files = make([]FileResult, len(req.Inputs))
	for i, input := range req.Inputs {
		summary.Files[i] = FileResult{Input: input, State: StatePending}
	}

	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("file_count", len(req.Inputs)),
		logging.String(logging.FieldLanguage, req.Language.Code),
	)
	r.record(ctx, func(ctx context.Context, rec Recorder) error { return rec.RunStarted(ctx, summary) })

	modelPath, err := r.resolveModel(ctx, req.Model)
	if err != nil {
		for i := range summary.Files {
			summary.Files[i].State = StateSkipped
		}
		return r.finish(ctx, summary, err)
	}
	summary.ModelPath = modelPath

	for i := range summary.Files {
		result := &summary.Files[i]
		if ctx.Err() != nil {
			result.State = StateSkipped
		} else {
			r.processFile(ctx, result, modelPath, req)
		}
		r.fileFinished(ctx, summary.RunID, i, *result)
	}

	return r.finish(ctx, summary, ctx.Err())
}

func (r *Runner) resolveModel(ctx context.Context, candidate string) (string, error) {
	stageCtx := services.WithStage(ctx, "model")
	if r.resolver == nil {
		return "", services.Wrap(services.ErrModelUnavailable, "model", "resolve", "no model resolver configured", nil)
	}
	modelPath, err := r.resolver.Resolve(stageCtx, candidate)
	if err == nil && strings.TrimSpace(modelPath) == "" {
		err = services.Wrap(services.ErrModelUnavailable, "model", "resolve", "resolver returned an empty path", nil)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if !errors.Is(err, services.ErrModelUnavailable) {
			err = services.Wrap(services.ErrModelUnavailable, "model", "resolve", candidate, err)
		}
		logging.ErrorWithContext(logging.WithContext(stageCtx, r.logger), "model unavailable", "model_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the model name or run murmur models download"),
			logging.String(logging.FieldImpact, "no files were processed"),
		)
		return "", err
	}
	logging.WithContext(stageCtx, r.logger).Info("model resolved",
		logging.String(logging.FieldEventType, "model_resolved"),
		logging.String(logging.FieldModel, modelPath),
	)
	return modelPath, nil
}

func (r *Runner) processFile(ctx context.Context, result *FileResult, modelPath string, req Request) {
	ctx = services.WithFile(ctx, result.Input)
	result.Output = outputPath(result.Input, modelPath, req.OutputDir)

	result.State = StateTranscoding
	stageCtx := services.WithStage(ctx, string(StateTranscoding))
	audioPath, err := r.convert(stageCtx, result.Input)
	if err != nil {
		r.failFile(stageCtx, result, err)
		return
	}
	result.AudioPath = audioPath

	result.State = StateRecognizing
	stageCtx = services.WithStage(ctx, string(StateRecognizing))
	if err := r.recognizer.Initialize(modelPath, req.Language); err != nil {
		r.failFile(stageCtx, result, err)
		return
	}

	if dir := filepath.Dir(result.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.recognizer.Release()
			r.failFile(stageCtx, result, services.Wrap(services.ErrValidation, "writing", "create output dir", dir, err))
			return
		}
	}
	writer, err := subtitles.Create(result.Output)
	if err != nil {
		r.recognizer.Release()
		r.failFile(stageCtx, result, services.Wrap(services.ErrValidation, "writing", "create subtitle file", result.Output, err))
		return
	}

	var firstSegment time.Time
	handle := func(seg recognizer.Segment) error {
		if firstSegment.IsZero() {
			firstSegment = r.now()
			result.State = StateWriting
		}
		line, wrote, err := writer.Append(seg.Start, seg.End, seg.Text)
		if err != nil {
			return services.Wrap(services.ErrValidation, "writing", "append cue", result.Output, err)
		}
		if wrote {
			result.Segments++
			if r.onSegment != nil {
				r.onSegment(result.Input, line)
			}
		}
		return nil
	}

	processErr := r.recognizer.Process(stageCtx, audioPath, handle)
	closeErr := writer.Close()
	if !firstSegment.IsZero() {
		result.Elapsed = r.now().Sub(firstSegment)
	}

	switch {
	case ctx.Err() != nil:
		result.State = StateCancelled
		result.Err = ctx.Err()
		logging.WithContext(stageCtx, r.logger).Info("file cancelled",
			logging.String(logging.FieldEventType, "file_cancelled"),
			logging.Int("segments", result.Segments),
			logging.String("output", result.Output),
		)
		return
	case processErr != nil:
		r.failFile(stageCtx, result, processErr)
		return
	case closeErr != nil:
		r.failFile(stageCtx, result, services.Wrap(services.ErrValidation, "writing", "close subtitle file", result.Output, closeErr))
		return
	}

	result.State = StateCompleted
	r.checkOutput(ctx, result)
	r.appendTiming(ctx, result)
	logging.WithContext(ctx, r.logger).Info("file completed",
		logging.String(logging.FieldEventType, "file_completed"),
		logging.String("output", result.Output),
		logging.Int("segments", result.Segments),
		logging.Duration("elapsed", result.Elapsed),
	)
}

func (r *Runner) convert(ctx context.Context, input string) (string, error) {
	if r.transcoder == nil {
		return "", services.Wrap(services.ErrTranscode, "transcoding", "convert", "no transcoder configured", nil)
	}
	audioPath, err := r.transcoder.Convert(ctx, input)
	if err != nil {
		return "", err
	}
	info, statErr := os.Stat(audioPath)
	if audioPath == "" || statErr != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrTranscode, "transcoding", "convert",
			fmt.Sprintf("converter produced no audio for %s", input), statErr)
	}
	return audioPath, nil
}

// failFile marks the file failed, or partial when cues were already written.
func (r *Runner) failFile(ctx context.Context, result *FileResult, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.State = StateCancelled
		result.Err = ctxErr
		return
	}
	result.Err = err
	result.State = StateFailed
	if result.Segments > 0 {
		result.State = StatePartial
	}
	logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "file failed", "file_failed",
		logging.Error(err),
		logging.String("state", string(result.State)),
		logging.Int("segments", result.Segments),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
}

// checkOutput re-reads the finished subtitle file and records structural
// problems. Issues are reported, never fatal: the file stays completed.
func (r *Runner) checkOutput(ctx context.Context, result *FileResult) {
	logger := logging.WithContext(ctx, r.logger)
	lines, err := subtitles.ReadLines(result.Output)
	if err != nil {
		result.Issues = []string{err.Error()}
	} else {
		result.Issues = subtitles.Validate(lines)
	}
	if len(result.Issues) == 0 {
		return
	}
	logging.WarnWithContext(logger, "subtitle file has structural issues", "subtitle_issues",
		logging.Int("issue_count", len(result.Issues)),
		logging.String("first_issue", result.Issues[0]),
		logging.String("output", result.Output),
		logging.String(logging.FieldErrorHint, "the engine emitted overlapping or reversed timestamps"),
		logging.String(logging.FieldImpact, "some players may reorder or drop these cues"),
	)
}

func (r *Runner) appendTiming(ctx context.Context, result *FileResult) {
	if r.timings == nil {
		return
	}
	record := timinglog.Record{Output: result.Output, Elapsed: result.Elapsed}
	if err := r.timings.Append(ctx, record); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "timing record not written", "timing_append_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the timing log and its lock file"),
			logging.String(logging.FieldImpact, "subtitle output is unaffected"),
		)
	}
}

func (r *Runner) fileFinished(ctx context.Context, runID string, position int, result FileResult) {
	if r.onFile != nil {
		r.onFile(position, result)
	}
	r.record(ctx, func(ctx context.Context, rec Recorder) error {
		return rec.FileFinished(ctx, runID, position, result)
	})
}

func (r *Runner) finish(ctx context.Context, summary Summary, runErr error) (Summary, error) {
	summary.FinishedAt = r.now()
	r.record(ctx, func(ctx context.Context, rec Recorder) error { return rec.RunFinished(ctx, summary, runErr) })

	logger := logging.WithContext(ctx, r.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("completed", summary.Count(StateCompleted)),
		logging.Int("failed", summary.Count(StateFailed)),
		logging.Int("partial", summary.Count(StatePartial)),
		logging.Int("cancelled", summary.Count(StateCancelled)),
		logging.Int("skipped", summary.Count(StateSkipped)),
		logging.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if runErr != nil {
		attrs = append(attrs, logging.Error(runErr))
		logger.Warn("batch stopped", logging.Args(attrs...)...)
	} else {
		logger.Info("batch finished", logging.Args(attrs...)...)
	}
	return summary, runErr
}

// record calls the recorder on a context detached from run cancellation.
func (r *Runner) record(ctx context.Context, fn func(context.Context, Recorder) error) {
	if r.recorder == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), r.recorder); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run history not updated", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path or disable history"),
			logging.String(logging.FieldImpact, "this run may be missing from murmur history"),
		)
	}
}

func outputPath(input, modelPath, outputDir string) string {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, textutil.OutputFileName(input, modelPath))
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrTranscode):
		return "check that ffmpeg can read the input file"
	case errors.Is(err, services.ErrInitialization):
		return "check the model file and engine configuration"
	case errors.Is(err, services.ErrRecognition):
		return "inspect the engine output for the failing file"
	default:
		return "check logs for details"
	}
}
