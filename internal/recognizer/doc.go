// Package recognizer turns an audio artifact into an ordered stream of
// timed text segments.
//
// A Consumer owns one Engine between Initialize and the end of Process. The
// engine runs on its own goroutine and pushes segments into a channel that
// Process drains on the caller's goroutine, so segment handlers never run
// concurrently. Two engines ship with murmur: WhisperCPP drives the
// whisper.cpp command-line tool and OpenAI calls an OpenAI-compatible
// transcription endpoint.
package recognizer
