package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

// formatValueForKey renders byte counts and percentages in a readable form.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if strings.HasSuffix(key, "_bytes") {
		switch v.Kind() {
		case slog.KindInt64:
			if v.Int64() >= 0 {
				return humanize.IBytes(uint64(v.Int64()))
			}
		case slog.KindUint64:
			return humanize.IBytes(v.Uint64())
		}
	}
	if key == FieldProgressPercent && v.Kind() == slog.KindFloat64 {
		return strconv.FormatFloat(v.Float64(), 'f', 1, 64) + "%"
	}
	return formatValue(v)
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < ' ' || r == '"' {
			return true
		}
	}
	return false
}
