package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory and glob pattern whose stale files are pruned.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldFiles removes files matching targets whose modification time is
// older than retentionDays. Zero disables pruning. It returns how many files
// were removed.
func CleanupOldFiles(logger *slog.Logger, retentionDays int, now time.Time, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		excluded := make(map[string]struct{}, len(target.Exclude))
		for _, name := range target.Exclude {
			excluded[filepath.Base(name)] = struct{}{}
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if _, skip := excluded[name]; skip {
				continue
			}
			if target.Pattern != "" {
				if ok, err := filepath.Match(target.Pattern, name); err != nil || !ok {
					continue
				}
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, name)
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "retention cleanup failed; file remains", "retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check directory permissions"),
					String(FieldImpact, "stale file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("stale file pruned", String("path", path), String(FieldEventType, "file_pruned"))
			}
		}
	}
	return removed
}
