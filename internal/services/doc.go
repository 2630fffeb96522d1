// Package services defines shared utilities consumed by the batch orchestrator
// and the collaborators it drives (model locator, transcoder, recognizer).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and input file paths
//     for logging.
//   - Structured error markers plus the Wrap helper that let the orchestrator
//     tell run-fatal failures apart from file-scoped ones.
//
// Use these helpers when wiring new pipeline code so error classification and
// observability stay uniform across stages.
package services
