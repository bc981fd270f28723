// Package scan enumerates candidate files under a source root.
//
// Traversal is unbounded-depth and loss-tolerant: entries that cannot be
// opened or listed are counted and skipped, never aborting the walk. Paths
// stream to the analyzer over a channel so discovery and metadata extraction
// overlap.
package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"snapsort/internal/failures"
	"snapsort/internal/logging"
)

// Stats reports traversal outcomes. Counters are atomic so they can be read
// while the walk is still running.
type Stats struct {
	Found   atomic.Int64
	Skipped atomic.Int64
}

// Scanner streams regular files found under a root directory.
type Scanner struct {
	root     string
	excluded []string
	logger   *slog.Logger
	meter    *logging.ProgressMeter
}

// New constructs a scanner. Directories listed in excluded (absolute paths)
// are pruned from the walk; the organizer uses this to keep a destination
// nested under the source from being rescanned.
func New(root string, excluded []string, logger *slog.Logger, meter *logging.ProgressMeter) *Scanner {
	cleaned := make([]string, 0, len(excluded))
	for _, dir := range excluded {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(dir))
	}
	return &Scanner{
		root:     filepath.Clean(root),
		excluded: cleaned,
		logger:   logging.NewComponentLogger(logger, "scan"),
		meter:    meter,
	}
}

// Stream walks the root in a goroutine and returns a channel of file paths
// plus live stats. The channel closes when traversal finishes or ctx is
// cancelled. Unreadable entries increment Skipped and traversal continues.
func (s *Scanner) Stream(ctx context.Context) (<-chan string, *Stats) {
	paths := make(chan string, 64)
	stats := &Stats{}

	go func() {
		defer close(paths)
		_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if walkErr != nil {
				stats.Skipped.Add(1)
				s.logger.Warn("path skipped",
					logging.String("path", path),
					logging.Error(failures.Wrap(failures.ErrScanAccess, "scan", "list entry", "", walkErr)),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if s.isExcluded(path) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			stats.Found.Add(1)
			if n, due := s.meter.Tick(); due {
				s.logger.Info("scan progress", logging.Int64("files_found", n))
			}

			select {
			case paths <- path:
			case <-ctx.Done():
				return fs.SkipAll
			}
			return nil
		})
		s.logger.Info("scan complete",
			logging.Int64("files_found", stats.Found.Load()),
			logging.Int64("paths_skipped", stats.Skipped.Load()),
		)
	}()

	return paths, stats
}

func (s *Scanner) isExcluded(path string) bool {
	path = filepath.Clean(path)
	for _, base := range s.excluded {
		if path == base || strings.HasPrefix(path, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
