// Package main hosts the murmur CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the logger, and
// wires the internal packages into a batch run: model resolution, ffmpeg
// transcoding, speech recognition, and SRT output. Interactive fallbacks
// (choosing a model, entering input files) live here and only activate when
// stdin is a terminal; the internal packages stay free of prompting.
package main
