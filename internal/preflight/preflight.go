package preflight

import (
	"context"

	"murmur/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The remote API check only runs for the OpenAI backend.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Models directory", cfg.Paths.ModelsDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	if cfg.UsesRemoteEngine() {
		results = append(results, CheckOpenAI(ctx, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
