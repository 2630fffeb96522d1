// Package logs reads the murmur log file for the `murmur logs` command.
//
// Last returns the final lines of a file with bounded memory, and Follow polls
// from a byte offset until its context is cancelled.
package logs
