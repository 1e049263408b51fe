package export

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DeleteOldReports removes .xlsx files in dir whose modification time
// is older than the given age, returning how many were deleted. A
// missing directory or an unremovable file is not an error.
func DeleteOldReports(dir string, olderThan time.Duration) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	cutoff := time.Now().Add(-olderThan)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			deleted++
		}
	}
	return deleted
}
