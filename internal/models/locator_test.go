package models_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/services"
)

func TestResolveCandidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.bin")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, isFile, err := models.ResolveCandidate(file, nil)
	if err != nil || !isFile || path != file {
		t.Fatalf("ResolveCandidate(file) = %q, %v, %v", path, isFile, err)
	}

	path, isFile, err = models.ResolveCandidate("base.en", nil)
	if err != nil || isFile || path != "" {
		t.Fatalf("ResolveCandidate(ref) = %q, %v, %v", path, isFile, err)
	}

	_, _, err = models.ResolveCandidate("  ", nil)
	if !errors.Is(err, models.ErrSelectionRequired) {
		t.Fatalf("expected ErrSelectionRequired, got %v", err)
	}

	_, isFile, err = models.ResolveCandidate(t.TempDir(), nil)
	if err != nil || isFile {
		t.Fatalf("directory should not count as a model file: %v %v", isFile, err)
	}
}

type countingDownloader struct {
	calls int
}

func (d *countingDownloader) Download(context.Context, models.Descriptor, chan<- models.Progress) error {
	d.calls++
	return errors.New("unexpected download")
}

func TestLocatorReturnsExistingFileWithoutCatalog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "base.bin")
	if err := os.WriteFile(file, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	downloader := &countingDownloader{}
	locator := models.NewLocator(nil, downloader, nil)

	got, err := locator.Resolve(context.Background(), file)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != file {
		t.Fatalf("expected path unchanged, got %q", got)
	}
	if downloader.calls != 0 {
		t.Fatalf("expected no download, got %d", downloader.calls)
	}
}

func TestLocatorUsesLocalCatalogModel(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "ggml-small.bin")
	if err := os.WriteFile(local, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	downloader := &countingDownloader{}
	locator := models.NewLocator(models.NewCatalog(dir, "https://example.com"), downloader, nil)

	got, err := locator.Resolve(context.Background(), "small")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != local || downloader.calls != 0 {
		t.Fatalf("expected local path without download, got %q (calls=%d)", got, downloader.calls)
	}
}

func TestLocatorDownloadsMissingModel(t *testing.T) {
	payload := []byte("ggml-weights-payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ggml-tiny.en.bin" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	locator := models.NewLocator(models.NewCatalog(dir, server.URL), models.NewHTTPDownloader(time.Minute), nil)
	var mu sync.Mutex
	var updates []models.Progress
	locator.OnProgress = func(_ models.Descriptor, p models.Progress) {
		mu.Lock()
		updates = append(updates, p)
		mu.Unlock()
	}

	got, err := locator.Resolve(context.Background(), "tiny.en")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := filepath.Join(dir, "ggml-tiny.en.bin")
	if got != want {
		t.Fatalf("unexpected path %q want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != string(payload) {
		t.Fatalf("unexpected model contents %q (%v)", data, err)
	}
	if _, err := os.Stat(want + ".download"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err=%v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	final := updates[len(updates)-1]
	if final.Percent != 100 || final.Bytes != int64(len(payload)) {
		t.Fatalf("unexpected final progress %+v", final)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Bytes < updates[i-1].Bytes {
			t.Fatalf("progress went backwards: %+v", updates)
		}
	}
}

func TestLocatorDownloadFailureIsModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	locator := models.NewLocator(models.NewCatalog(dir, server.URL), models.NewHTTPDownloader(time.Minute), nil)

	_, err := locator.Resolve(context.Background(), "base")
	if !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "ggml-base.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no model file, stat err=%v", statErr)
	}
}

func TestLocatorRejectsEmptyDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	locator := models.NewLocator(models.NewCatalog(t.TempDir(), server.URL), models.NewHTTPDownloader(time.Minute), nil)
	if _, err := locator.Resolve(context.Background(), "base"); !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for empty body, got %v", err)
	}
}

func TestLocatorUnknownReference(t *testing.T) {
	locator := models.NewLocator(models.NewCatalog(t.TempDir(), "https://example.com"), &countingDownloader{}, nil)
	_, err := locator.Resolve(context.Background(), "/no/such/model.bin")
	if !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if !services.IsRunFatal(err) {
		t.Fatal("expected model errors to be run-fatal")
	}
}

type fakeDownloader struct {
	write bool
}

func (d fakeDownloader) Download(_ context.Context, desc models.Descriptor, progress chan<- models.Progress) error {
	progress <- models.Progress{Percent: 50, Bytes: 1, Total: 2}
	if d.write {
		return os.WriteFile(desc.LocalPath, []byte("ok"), 0o644)
	}
	return nil
}

func TestLocatorFailsWhenDownloadLeavesNoFile(t *testing.T) {
	locator := models.NewLocator(models.NewCatalog(t.TempDir(), "https://example.com"), fakeDownloader{}, nil)
	if _, err := locator.Resolve(context.Background(), "tiny"); !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	locator = models.NewLocator(models.NewCatalog(t.TempDir(), "https://example.com"), fakeDownloader{write: true}, nil)
	if _, err := locator.Resolve(context.Background(), "tiny"); err != nil {
		t.Fatalf("expected success when downloader writes the file, got %v", err)
	}
}

func TestLocatorCancelledDownload(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	dir := t.TempDir()
	locator := models.NewLocator(models.NewCatalog(dir, server.URL), models.NewHTTPDownloader(time.Minute), nil)
	ctx, cancel := context.WithCancel(context.Background())
	locator.OnProgress = func(models.Descriptor, models.Progress) { cancel() }

	_, err := locator.Resolve(ctx, "base")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "ggml-base.bin.download")); !os.IsNotExist(statErr) {
		t.Fatalf("expected temp file removed, stat err=%v", statErr)
	}
}

func TestRemoteResolver(t *testing.T) {
	got, err := models.RemoteResolver{Model: "whisper-1"}.Resolve(context.Background(), "")
	if err != nil || got != "whisper-1" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
	got, err = models.RemoteResolver{Model: "whisper-1"}.Resolve(context.Background(), "gpt-4o-transcribe")
	if err != nil || got != "gpt-4o-transcribe" {
		t.Fatalf("unexpected override result %q %v", got, err)
	}
	if _, err := (models.RemoteResolver{}).Resolve(context.Background(), ""); !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
