// Package models locates whisper.cpp model files for a run.
//
// A Catalog lists the known ggml models and where they live under the
// configured models directory. The Locator turns a user reference (a file
// path, catalog ID, or file name) into a usable local path, downloading the
// file when it is missing and reporting progress while the download runs.
// Failures surface as services.ErrModelUnavailable so the run orchestrator can
// abort before touching any input.
package models
