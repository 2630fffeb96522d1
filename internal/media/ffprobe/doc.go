// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs the binary and returns a Result; helper methods expose audio
// stream counts, sample rates, and container duration.
package ffprobe
