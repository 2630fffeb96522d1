// Package textutil provides filename sanitization and the subtitle output
// naming rule.
package textutil
