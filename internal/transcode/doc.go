// Package transcode converts arbitrary media into the mono 16-bit PCM WAV
// artifacts recognition engines consume.
//
// Every Convert call writes a fresh temporary file in the work directory, so
// converting the same input twice never disturbs an earlier artifact.
package transcode
