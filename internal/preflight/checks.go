package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"murmur/internal/config"
	"murmur/internal/deps"
	"murmur/internal/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// CheckOpenAI verifies that the transcription API is reachable and the key is accepted.
func CheckOpenAI(ctx context.Context, baseURL, apiKey string) Result {
	const name = "OpenAI API"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/models", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeRequestError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckModel reports whether ref resolves to a model on disk without downloading it.
func CheckModel(catalog *models.Catalog, ref string) Result {
	const name = "Default model"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Result{Name: name, Passed: true, Detail: "not set (chosen per run)"}
	}
	path, isFile, err := models.ResolveCandidate(ref, os.Stat)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if isFile {
		return Result{Name: name, Passed: true, Detail: path}
	}
	if catalog == nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a file)", ref)}
	}
	desc, ok := catalog.Lookup(ref)
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unknown model)", ref)}
	}
	if !desc.Exists {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not downloaded, %s on first use)", desc.ID, desc.SizeLabel)}
	}
	return Result{Name: name, Passed: true, Detail: desc.LocalPath}
}

// CheckSystemDeps evaluates the executables the configured pipeline needs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

func summarizeRequestError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
