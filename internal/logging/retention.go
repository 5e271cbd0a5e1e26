package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RotateBytes is the size at which the active log is set aside at startup.
const RotateBytes int64 = 32 << 20

const (
	rotatedPrefix = "auto3d-"
	rotatedSuffix = ".log"
	rotatedLayout = "20060102-150405"
)

// RotateLog renames dir/LogFileName to a timestamped name when it has grown
// past maxBytes. It returns the new path, or "" when nothing was rotated. Call
// it before the logger opens the file.
func RotateLog(dir string, maxBytes int64, now time.Time) (string, error) {
	active := filepath.Join(dir, LogFileName)
	info, err := os.Stat(active)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if maxBytes <= 0 || info.Size() < maxBytes {
		return "", nil
	}
	target := filepath.Join(dir, rotatedName(now))
	if err := os.Rename(active, target); err != nil {
		return "", fmt.Errorf("rotate log file: %w", err)
	}
	return target, nil
}

// PruneLogs removes rotated logs in dir whose rotation time is older than
// retentionDays and returns how many were removed. Zero disables pruning.
// The active log and unrelated files are never touched.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		rotatedAt, ok := rotatedTime(entry.Name())
		if !ok || !rotatedAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("rotated logs pruned",
			Int("count", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

func rotatedName(now time.Time) string {
	return rotatedPrefix + now.UTC().Format(rotatedLayout) + rotatedSuffix
}

func rotatedTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, rotatedPrefix) || !strings.HasSuffix(name, rotatedSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, rotatedPrefix), rotatedSuffix)
	t, err := time.ParseInLocation(rotatedLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
