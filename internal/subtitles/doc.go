// Package subtitles writes SRT files one cue at a time.
//
// Writer numbers cues from 1, trims their text, and syncs the file after
// every append so a crash mid-run keeps every line written so far. The
// helpers in srt.go format and parse SRT timestamps and read finished files
// back for verification.
package subtitles
