package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"murmur/internal/logging"
	"murmur/internal/services"
)

// ErrSelectionRequired means no model reference was supplied; interactive
// callers should ask the user to pick one from the catalog.
var ErrSelectionRequired = errors.New("model selection required")

// Resolver produces a model reference an engine can load.
type Resolver interface {
	Resolve(ctx context.Context, candidate string) (string, error)
}

// StatFunc matches os.Stat.
type StatFunc func(string) (os.FileInfo, error)

// ResolveCandidate classifies a reference without side effects. It returns
// the path and true when candidate names an existing regular file, false
// when candidate must be looked up in the catalog, and ErrSelectionRequired
// when candidate is empty.
func ResolveCandidate(candidate string, stat StatFunc) (string, bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false, ErrSelectionRequired
	}
	if stat == nil {
		stat = os.Stat
	}
	if info, err := stat(candidate); err == nil && info.Mode().IsRegular() {
		return candidate, true, nil
	}
	return "", false, nil
}

// Locator resolves references against a catalog and downloads missing models.
type Locator struct {
	Catalog    *Catalog
	Downloader Downloader
	Logger     *slog.Logger
	// OnProgress observes download progress; it runs on a helper goroutine.
	OnProgress func(Descriptor, Progress)
	Stat       StatFunc
}

// NewLocator wires a locator with the default HTTP downloader behaviour.
func NewLocator(catalog *Catalog, downloader Downloader, logger *slog.Logger) *Locator {
	return &Locator{
		Catalog:    catalog,
		Downloader: downloader,
		Logger:     logging.NewComponentLogger(logger, "models"),
	}
}

// Resolve returns a local model path for candidate. Existing files are
// returned untouched; catalog models are downloaded when missing.
func (l *Locator) Resolve(ctx context.Context, candidate string) (string, error) {
	path, isFile, err := ResolveCandidate(candidate, l.Stat)
	if err != nil {
		return "", err
	}
	if isFile {
		return path, nil
	}
	if l.Catalog == nil {
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "lookup model",
			fmt.Sprintf("%q is not a file and no catalog is configured", candidate), nil)
	}
	desc, ok := l.Catalog.Lookup(candidate)
	if !ok {
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "lookup model",
			fmt.Sprintf("%q is neither a file nor a known model", candidate), nil)
	}
	if desc.Exists {
		return desc.LocalPath, nil
	}
	return l.Fetch(ctx, desc)
}

// Fetch downloads desc, blocking until the file is in place.
func (l *Locator) Fetch(ctx context.Context, desc Descriptor) (string, error) {
	logger := l.logger().With(logging.String(logging.FieldModel, desc.ID))
	if l.Downloader == nil {
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "download model",
			fmt.Sprintf("%s is not downloaded and no downloader is configured", desc.ID), nil)
	}

	logger.Info("downloading model",
		logging.String(logging.FieldEventType, "model_download_started"),
		logging.String("url", desc.URL),
		logging.String("size", desc.SizeLabel),
	)

	updates := make(chan Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sampler := logging.NewProgressSampler(10)
		for update := range updates {
			if l.OnProgress != nil {
				l.OnProgress(desc, update)
			}
			if sampler.ShouldLog(desc.ID, update.Percent) {
				logger.Debug("model download progress",
					logging.Float64(logging.FieldProgressPercent, update.Percent),
					logging.Int64("downloaded_bytes", update.Bytes),
				)
			}
		}
	}()
	err := l.Downloader.Download(ctx, desc, updates)
	close(updates)
	<-done

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logging.ErrorWithContext(logger, "model download failed", "model_download_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access or pass a local model path with --model"),
		)
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "download model", desc.ID, err)
	}

	desc.Refresh()
	if !desc.Exists {
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "download model",
			fmt.Sprintf("%s still missing at %s after download", desc.ID, desc.LocalPath), nil)
	}
	logger.Info("model ready",
		logging.String(logging.FieldEventType, "model_download_completed"),
		logging.String("path", desc.LocalPath),
	)
	return desc.LocalPath, nil
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return logging.NewNop()
	}
	return l.Logger
}

// RemoteResolver hands a configured remote model name to API backends.
type RemoteResolver struct {
	Model string
}

// Resolve ignores local files and returns the configured model name, or
// candidate when one was given.
func (r RemoteResolver) Resolve(_ context.Context, candidate string) (string, error) {
	name := strings.TrimSpace(candidate)
	if name == "" {
		name = strings.TrimSpace(r.Model)
	}
	if name == "" {
		return "", services.Wrap(services.ErrModelUnavailable, "resolve", "remote model", "no remote model configured", nil)
	}
	return name, nil
}
