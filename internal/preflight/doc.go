// Package preflight provides readiness checks for the paths, binaries, and
// services murmur depends on.
//
// These checks run in two contexts:
//   - The transcribe command calls RunAll before starting a batch and refuses
//     to run when a required check fails.
//   - The "murmur doctor" command renders every check, including optional
//     ones, as a table.
package preflight
