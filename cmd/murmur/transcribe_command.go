package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"murmur/internal/batch"
	"murmur/internal/config"
	"murmur/internal/deps"
	"murmur/internal/history"
	"murmur/internal/language"
	"murmur/internal/logging"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/preflight"
	"murmur/internal/recognizer"
	"murmur/internal/services"
	"murmur/internal/subtitles"
	"murmur/internal/timinglog"
	"murmur/internal/transcode"
)

type transcribeOptions struct {
	model     string
	language  string
	outputDir string
	backend   string
	print     bool
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe [files...]",
		Short: "Transcribe media files into SRT subtitles",
		Long: "Transcribe converts each input to 16 kHz mono WAV with ffmpeg, runs speech\n" +
			"recognition, and writes <input>_<model>.srt next to the input or into --output-dir.\n" +
			"Files are processed one at a time; a failed file does not stop the batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, ctx, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model catalog ID, file name, or path (defaults to models.default)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Spoken language code or name, or auto (defaults to engine.language)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for subtitle files (defaults to paths.output_dir, then each input's directory)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Recognition backend: whispercpp or openai (defaults to engine.backend)")
	cmd.Flags().BoolVar(&opts.print, "print", false, "Print each subtitle cue as it is written")
	return cmd
}

func runTranscribe(cmd *cobra.Command, ctx *commandContext, opts transcribeOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if backend := strings.TrimSpace(opts.backend); backend != "" {
		cfg.Engine.Backend = strings.ToLower(backend)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	lang, err := language.Resolve(firstNonEmpty(opts.language, cfg.Engine.Language))
	if err != nil {
		return fmt.Errorf("--language: %w", err)
	}

	inputs, err := collectInputs(cmd.InOrStdin(), stderr, args)
	if err != nil {
		return err
	}

	if err := checkReadiness(cmd.Context(), cfg); err != nil {
		return err
	}

	var resolver batch.ModelResolver
	modelRef := firstNonEmpty(opts.model, cfg.Models.Default)
	progress := newDownloadProgress(stderr)
	if cfg.UsesRemoteEngine() {
		modelRef = strings.TrimSpace(opts.model)
		resolver = models.RemoteResolver{Model: cfg.OpenAI.Model}
	} else {
		catalog, err := ctx.catalog()
		if err != nil {
			return err
		}
		modelRef, err = selectModel(cmd.InOrStdin(), stderr, catalog, modelRef)
		if err != nil {
			return err
		}
		locator := models.NewLocator(catalog, models.NewHTTPDownloader(cfg.DownloadTimeout()), logger)
		if isTerminal(stderr) {
			locator.OnProgress = progress.update
		}
		resolver = locator
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workDir, err := os.MkdirTemp(cfg.Paths.WorkDir, "run-")
	if err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(logger, "work directory not removed", "work_dir_cleanup_failed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the directory manually"),
			)
		}
	}()

	converter := transcode.New(transcode.Options{
		FFmpegBinary:  cfg.Transcode.FFmpegBinary,
		FFprobeBinary: cfg.Transcode.FFprobeBinary,
		WorkDir:       workDir,
		SampleRate:    cfg.Transcode.SampleRate,
		Verify:        cfg.Transcode.Verify,
	}, logger)

	factory, err := recognizer.NewFactory(cfg)
	if err != nil {
		return err
	}
	consumer := recognizer.NewConsumer(factory, logger)

	timings, err := timinglog.Open(cfg.Paths.TimingLog)
	if err != nil {
		return err
	}
	defer timings.Close()

	runnerOpts := []batch.Option{
		batch.WithTimingSink(timings),
		batch.WithFileObserver(func(position int, result batch.FileResult) {
			progress.finish()
			fmt.Fprintf(out, "[%d/%d] %s: %s\n", position+1, len(inputs), result.State, fileLabel(result))
		}),
	}
	if opts.print {
		runnerOpts = append(runnerOpts, batch.WithSegmentObserver(func(_ string, line subtitles.Line) {
			fmt.Fprint(out, line.String())
		}))
	}
	if store := openHistory(cfg, logger); store != nil {
		defer store.Close()
		runnerOpts = append(runnerOpts, batch.WithRecorder(store))
	}

	runner := batch.NewRunner(resolver, converter, consumer, logger, runnerOpts...)
	summary, runErr := runner.Run(runCtx, batch.Request{
		Model:     modelRef,
		Language:  lang,
		Inputs:    inputs,
		OutputDir: firstNonEmpty(opts.outputDir, cfg.Paths.OutputDir),
	})
	progress.finish()

	printSummary(out, summary)
	notifyResult(cmd.Context(), notifications.NewService(cfg), logger, summary, runErr)
	if runErr != nil {
		return runErr
	}
	if !summary.Succeeded() {
		incomplete := len(summary.Files) - summary.Count(batch.StateCompleted)
		return fmt.Errorf("%s of %d did not complete", countLabel(incomplete, "file", "files"), len(summary.Files))
	}
	return nil
}

func collectInputs(in io.Reader, out io.Writer, args []string) ([]string, error) {
	raw := args
	if len(raw) == 0 {
		prompted, err := promptInputs(in, out)
		if errors.Is(err, errNotInteractive) {
			return nil, fmt.Errorf("%w: pass media files as arguments", batch.ErrInputsRequired)
		}
		if err != nil {
			return nil, err
		}
		raw = prompted
	}
	inputs := make([]string, 0, len(raw))
	for _, arg := range raw {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		if expanded == "" {
			continue
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, abs)
	}
	if len(inputs) == 0 {
		return nil, batch.ErrInputsRequired
	}
	return inputs, nil
}

func selectModel(in io.Reader, out io.Writer, catalog *models.Catalog, ref string) (string, error) {
	if _, _, err := models.ResolveCandidate(ref, os.Stat); !errors.Is(err, models.ErrSelectionRequired) {
		return ref, nil
	}
	chosen, err := promptModel(in, out, catalog)
	if errors.Is(err, errNotInteractive) {
		return "", fmt.Errorf("%w: pass --model or set models.default", models.ErrSelectionRequired)
	}
	return chosen, err
}

func checkReadiness(ctx context.Context, cfg *config.Config) error {
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, status := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", status.Name, status.Command))
		}
		return fmt.Errorf("missing required tools: %s (run murmur doctor)", strings.Join(names, ", "))
	}
	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		return fmt.Errorf("%s check failed: %s", failed[0].Name, failed[0].Detail)
	}
	return nil
}

func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history_db or set history.enabled = false"),
			logging.String(logging.FieldImpact, "this run will not appear in murmur history"),
		)
		return nil
	}
	return store
}

func printSummary(out io.Writer, summary batch.Summary) {
	if len(summary.Files) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Files))
	for _, f := range summary.Files {
		rows = append(rows, []string{
			filepath.Base(f.Input),
			string(f.State),
			strconv.Itoa(f.Segments),
			formatElapsed(f.Elapsed),
			fileLabel(f),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Input", "State", "Cues", "Recognition", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

// notifyResult reports finished and aborted batches. Interrupted runs are not
// announced.
func notifyResult(ctx context.Context, notifier notifications.Service, logger *slog.Logger, summary batch.Summary, runErr error) {
	if ctx.Err() != nil {
		return
	}
	var err error
	switch {
	case runErr == nil:
		err = notifier.NotifyRunCompleted(ctx, summary)
	case services.IsRunFatal(runErr):
		err = notifier.NotifyRunFailed(ctx, summary, runErr)
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "batch notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func fileLabel(result batch.FileResult) string {
	if result.Err != nil && result.State != batch.StateCompleted {
		return result.Err.Error()
	}
	if result.Output != "" && result.State != batch.StateSkipped {
		return result.Output
	}
	return filepath.Base(result.Input)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
