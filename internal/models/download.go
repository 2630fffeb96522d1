package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Progress reports download state. Percent is -1 when the server did not
// announce a content length.
type Progress struct {
	Percent float64
	Bytes   int64
	Total   int64
}

// Downloader fetches a model into desc.LocalPath. Implementations send
// progress updates on the channel when it is non-nil and never close it.
type Downloader interface {
	Download(ctx context.Context, desc Descriptor, progress chan<- Progress) error
}

// HTTPDownloader downloads models over HTTP(S).
type HTTPDownloader struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// NewHTTPDownloader returns a downloader with the given overall timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{Client: http.DefaultClient, UserAgent: "murmur", Timeout: timeout}
}

// Download streams desc.URL into "<LocalPath>.download" and renames it into
// place once the body has been fully written.
func (d *HTTPDownloader) Download(ctx context.Context, desc Descriptor, progress chan<- Progress) error {
	if desc.URL == "" || desc.LocalPath == "" {
		return fmt.Errorf("download %s: url and local path are required", desc.ID)
	}
	if err := os.MkdirAll(filepath.Dir(desc.LocalPath), 0o755); err != nil {
		return fmt.Errorf("prepare models directory: %w", err)
	}
	tmpPath := desc.LocalPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	counter := &progressWriter{ctx: ctx, total: resp.ContentLength, out: progress}
	written, copyErr := io.Copy(io.MultiWriter(file, counter), resp.Body)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(tmpPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("write model file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close model file: %w", closeErr)
	case written == 0:
		_ = os.Remove(tmpPath)
		return errors.New("server returned an empty body")
	}

	if err := os.Rename(tmpPath, desc.LocalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}
	counter.finish()
	return nil
}

type progressWriter struct {
	ctx   context.Context
	total int64
	bytes int64
	out   chan<- Progress
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.bytes += int64(len(p))
	w.send()
	return len(p), nil
}

func (w *progressWriter) finish() {
	if w.total <= 0 {
		w.total = w.bytes
	}
	w.send()
}

func (w *progressWriter) send() {
	if w.out == nil {
		return
	}
	update := Progress{Percent: -1, Bytes: w.bytes, Total: w.total}
	if w.total > 0 {
		update.Percent = float64(w.bytes) / float64(w.total) * 100
		if update.Percent > 100 {
			update.Percent = 100
		}
	}
	select {
	case w.out <- update:
	case <-w.ctx.Done():
	}
}
