// Package language turns user-supplied language codes into the immutable
// Selector handed to recognition engines.
//
// A small ISO 639 table covers the common three-letter and word forms; any
// other BCP 47 tag is parsed with golang.org/x/text so engines always receive
// a two-letter base code (or "auto" for detection).
package language
