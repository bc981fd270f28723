package failures

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"snapsort/internal/fileutil"
	"snapsort/internal/logging"
)

// Record is one per-file failure. Records are append-only; the sink never
// drops or rewrites them during a run.
type Record struct {
	SourcePath string
	Reason     string
	When       time.Time
}

// Sink accumulates per-file failures from any phase. Add is safe for
// concurrent use by the worker pool.
type Sink struct {
	logger *slog.Logger

	mu      sync.Mutex
	records []Record
}

// NewSink constructs a failure sink.
func NewSink(logger *slog.Logger) *Sink {
	return &Sink{logger: logging.NewComponentLogger(logger, "failures")}
}

// Add records a failure and logs it immediately. Per-file failures never
// abort the batch, so logging here is the user's first signal.
func (s *Sink) Add(sourcePath string, err error) {
	rec := Record{SourcePath: sourcePath, Reason: err.Error(), When: time.Now()}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.logger.Warn("file failed",
		logging.String("source", sourcePath),
		logging.Error(err),
	)
}

// Len reports the number of accumulated failures.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the accumulated failures.
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Flush persists the error log to quarantineDir/error_log.txt and moves each
// failed source file that still exists into quarantineDir under a
// collision-safe name. A failure to quarantine a file is logged but not
// retried. In dry-run mode everything is reported and nothing is written.
// It returns the number of files placed in quarantine.
func (s *Sink) Flush(quarantineDir string, dryRun bool) (int, error) {
	records := s.Records()
	if len(records) == 0 {
		return 0, nil
	}

	if dryRun {
		for _, rec := range records {
			s.logger.Info("would quarantine file",
				logging.String("source", rec.SourcePath),
				logging.String("reason", rec.Reason),
			)
		}
		s.logger.Info("would write error log",
			logging.String("path", filepath.Join(quarantineDir, "error_log.txt")),
			logging.Int("failures", len(records)),
		)
		return 0, nil
	}

	if err := os.MkdirAll(quarantineDir, 0o755); err != nil {
		return 0, fmt.Errorf("create quarantine directory %q: %w", quarantineDir, err)
	}

	logPath := filepath.Join(quarantineDir, "error_log.txt")
	if err := s.writeErrorLog(logPath, records); err != nil {
		return 0, err
	}
	s.logger.Info("error log written",
		logging.String("path", logPath),
		logging.Int("failures", len(records)),
	)

	moved := 0
	for _, rec := range records {
		if _, err := os.Lstat(rec.SourcePath); err != nil {
			// Already moved, deleted, or never existed; nothing to quarantine.
			continue
		}
		target := quarantinePath(quarantineDir, rec.SourcePath)
		if err := moveToQuarantine(rec.SourcePath, target); err != nil {
			s.logger.Warn("quarantine move failed",
				logging.String("source", rec.SourcePath),
				logging.Error(Wrap(ErrQuarantine, "quarantine", "move file", "", err)),
			)
			continue
		}
		moved++
	}
	if moved > 0 {
		s.logger.Info("failed files quarantined",
			logging.String("dir", quarantineDir),
			logging.Int("moved", moved),
		)
	}
	return moved, nil
}

func (s *Sink) writeErrorLog(path string, records []Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "snapsort error log - %s\n\n", time.Now().Format(time.RFC3339))
	for _, rec := range records {
		fmt.Fprintf(&b, "%s\t%s\n", rec.SourcePath, rec.Reason)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	return nil
}

// quarantinePath keeps the original basename when free and otherwise inserts
// a short random suffix before the extension.
func quarantinePath(dir, sourcePath string) string {
	base := filepath.Base(sourcePath)
	candidate := filepath.Join(dir, base)
	if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
		return candidate
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, suffix, ext))
}

func moveToQuarantine(src, dst string) error {
	err := fileutil.MoveFile(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fileutil.ErrCrossDevice) {
		return err
	}
	if copyErr := fileutil.CopyFileVerified(src, dst); copyErr != nil {
		return copyErr
	}
	return os.Remove(src)
}
