// Package batch coordinates a transcription run over a list of media files.
//
// Runner resolves the model once, then drives each file through transcoding,
// recognition, and subtitle writing in order. Every file ends in a terminal
// State recorded on its FileResult; per-file failures never stop the batch,
// while a model resolution failure or cancellation does. Timing records are
// appended only for files that complete normally, and the stopwatch starts at
// the first delivered segment so transcode and model load time are excluded.
package batch
