package jobs

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// TempCleaner removes upload artifacts that outlived the request that
// created them, which only happens when the process died mid-upload.
type TempCleaner struct {
	dir      string
	patterns []string
	maxAge   time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewTempCleaner(dir string, patterns []string, maxAge time.Duration) *TempCleaner {
	return &TempCleaner{
		dir:      dir,
		patterns: patterns,
		maxAge:   maxAge,
		logger:   log.New(log.Writer(), "[TEMP_CLEANER] ", log.LstdFlags),
		now:      time.Now,
	}
}

// Start runs a sweep immediately and then every interval until ctx is done.
func (tc *TempCleaner) Start(ctx context.Context, interval time.Duration) {
	tc.logger.Printf("Starting temp cleaner for %s every %v", tc.dir, interval)
	tc.RunCleanup()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tc.RunCleanup()
		case <-ctx.Done():
			tc.logger.Println("Temp cleaner stopped")
			return
		}
	}
}

// RunCleanup removes matching entries older than maxAge and returns how
// many were removed.
func (tc *TempCleaner) RunCleanup() int {
	cutoff := tc.now().Add(-tc.maxAge)
	removed := 0

	for _, pattern := range tc.patterns {
		matches, err := filepath.Glob(filepath.Join(tc.dir, pattern))
		if err != nil {
			tc.logger.Printf("Bad pattern %q: %v", pattern, err)
			continue
		}

		for _, path := range matches {
			info, err := os.Lstat(path)
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				tc.logger.Printf("Failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		tc.logger.Printf("Removed %d stale upload artifacts", removed)
	}
	return removed
}
