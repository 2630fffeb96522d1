package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameBytes is the longest file name most filesystems accept.
const MaxFileNameBytes = 255

// SubtitleExt is appended to every output file name.
const SubtitleExt = ".srt"

const unsafeFileNameChars = `<>:"/\|?*`

// SanitizeFileName replaces filesystem-unsafe characters and control
// characters with underscores, trims whitespace and dots from both ends, and
// caps the result at MaxFileNameBytes on a rune boundary. An empty result
// becomes "_". Applying it twice yields the same value.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(unsafeFileNameChars, r) {
			return '_'
		}
		return r
	}, name)
	mapped = trimEdges(mapped)
	mapped = truncateBytes(mapped, MaxFileNameBytes)
	// truncation can expose trailing whitespace or dots
	mapped = trimEdges(mapped)
	if mapped == "" {
		return "_"
	}
	return mapped
}

// OutputFileName derives "<input stem>_<model stem>.srt" for one input file.
func OutputFileName(inputPath, modelPath string) string {
	stem := SanitizeFileName(stemOf(inputPath) + "_" + stemOf(modelPath))
	stem = trimEdges(truncateBytes(stem, MaxFileNameBytes-len(SubtitleExt)))
	if stem == "" {
		stem = "_"
	}
	return stem + SubtitleExt
}

func stemOf(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func trimEdges(value string) string {
	return strings.TrimFunc(value, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

func truncateBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters and digits are kept, hyphens and underscores pass through, and
// everything else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
