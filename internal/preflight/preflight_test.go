package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/config"
	"murmur/internal/models"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOpenAI_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" || r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckOpenAI(context.Background(), srv.URL+"/v1/", "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckOpenAI_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckOpenAI(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckOpenAI_MissingKey(t *testing.T) {
	result := CheckOpenAI(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckModel(t *testing.T) {
	dir := t.TempDir()
	catalog := models.NewCatalog(dir, "https://example.invalid/models")

	if r := CheckModel(catalog, ""); !r.Passed {
		t.Fatalf("empty default should pass, got %s", r.Detail)
	}
	if r := CheckModel(catalog, "no-such-model"); r.Passed {
		t.Fatal("unknown model should fail")
	}
	if r := CheckModel(catalog, "tiny"); !r.Passed {
		t.Fatalf("catalog model pending download should pass, got %s", r.Detail)
	}

	local := filepath.Join(dir, "custom.bin")
	if err := os.WriteFile(local, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckModel(catalog, local); !r.Passed || r.Detail != local {
		t.Fatalf("explicit file should pass, got %#v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_LocalBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ModelsDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.OutputDir = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}

func TestRunAll_IncludesOpenAIForRemoteBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.ModelsDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Engine.Backend = config.BackendOpenAI
	cfg.OpenAI.BaseURL = srv.URL
	cfg.OpenAI.APIKey = "test"

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "OpenAI API" {
			found = true
			if !r.Passed {
				t.Errorf("OpenAI check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected OpenAI check in results")
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
}
