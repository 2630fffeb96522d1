// Package deps checks the external executables murmur shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"murmur/internal/config"
)

// Requirement defines an external dependency murmur relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the executables the configured pipeline needs. ffprobe
// is optional unless transcode verification is on; whisper-cli is only listed
// for the local backend.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Transcode.FFmpegBinary,
			Description: "Converts input media to canonical WAV",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Transcode.FFprobeBinary,
			Description: "Verifies converted audio",
			Optional:    !cfg.Transcode.Verify,
		},
	}
	if !cfg.UsesRemoteEngine() {
		reqs = append(reqs, Requirement{
			Name:        "whisper.cpp",
			Command:     cfg.Engine.WhisperBinary,
			Description: "Runs speech recognition locally",
		})
	}
	return reqs
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
