// Package runner orchestrates the organize and dedup phases of one run.
//
// Phase order is deliberate: scan feeds analysis, analysis feeds naming and
// relocation, failures flush to quarantine, and only then does the
// dedup pass walk the organized groups. A dedup problem can therefore never
// block organization.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"snapsort/internal/analyze"
	"snapsort/internal/analyze/exifbrand"
	"snapsort/internal/config"
	"snapsort/internal/dedup"
	"snapsort/internal/failures"
	"snapsort/internal/hashcache"
	"snapsort/internal/logging"
	"snapsort/internal/organize"
	"snapsort/internal/preflight"
	"snapsort/internal/report"
	"snapsort/internal/scan"
)

// lockFileName guards one destination root against concurrent runs.
const lockFileName = ".snapsort.lock"

// quarantineDirName holds files that could not be organized, next to the
// persisted error log.
const quarantineDirName = "failed_files"

// Options are the per-run knobs, already merged from flags and config.
type Options struct {
	Source           string
	Output           string
	DryRun           bool
	RemoveDuplicates bool
	IncludeBrand     bool
	Workers          int
}

// Runner executes organize runs against a configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a runner.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run performs one full run and returns its summary. The summary is valid
// even when an error is returned; it reflects whatever completed.
func (r *Runner) Run(ctx context.Context, opts Options) (report.Summary, error) {
	started := time.Now()

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	summary := report.Summary{
		RunID:        runID,
		DryRun:       opts.DryRun,
		DedupEnabled: opts.RemoveDuplicates,
	}

	source, output, err := r.resolvePaths(opts)
	if err != nil {
		return summary, err
	}
	summary.Source = source
	summary.Output = output

	if err := preflight.Err(preflight.CheckSourceAccess(source)); err != nil {
		return summary, err
	}

	if !opts.DryRun {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return summary, fmt.Errorf("create destination root %q: %w", output, err)
		}
		if err := preflight.Err(preflight.CheckDestinationAccess(output)); err != nil {
			return summary, err
		}

		lock := flock.New(filepath.Join(output, lockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return summary, fmt.Errorf("another snapsort run is already organizing %s", output)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	logger.Info("run started",
		logging.String("source", source),
		logging.String("output", output),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("workers", opts.Workers),
	)

	workers := opts.Workers
	if workers < 1 {
		workers = r.cfg.Organize.Workers
	}
	interval := r.cfg.Organize.ProgressInterval
	sink := failures.NewSink(logger)

	// Scan and analyze overlap: the walker streams paths into the pool.
	scanMeter := logging.NewProgressMeter(interval)
	scanner := scan.New(source, []string{output}, logger, scanMeter)
	paths, scanStats := scanner.Stream(ctx)

	var brand analyze.BrandProvider
	if opts.IncludeBrand {
		brand = exifbrand.New()
	}
	analyzeMeter := logging.NewProgressMeter(interval)
	records := analyze.New(workers, brand, sink, logger, analyzeMeter).Run(ctx, paths)

	summary.Scanned = scanStats.Found.Load()
	summary.SkippedOnScan = scanStats.Skipped.Load()
	summary.Analyzed = int64(len(records))

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	organizeMeter := logging.NewProgressMeter(interval)
	allocator := organize.NewAllocator(output, logger)
	relocator := organize.NewRelocator(opts.DryRun, sink, logger)
	orgStats, orgErr := organize.Run(ctx, records, allocator, relocator, organizeMeter, logger)
	summary.Organized = orgStats.Organized
	summary.Conflicts = orgStats.Conflicts

	quarantined, flushErr := sink.Flush(filepath.Join(output, quarantineDirName), opts.DryRun)
	if flushErr != nil {
		logger.Warn("failure sink flush incomplete", logging.Error(flushErr))
	}
	summary.Quarantined = quarantined
	summary.Failed = sink.Len()

	if orgErr != nil {
		summary.Duration = time.Since(started)
		return summary, orgErr
	}

	if opts.RemoveDuplicates {
		dedupStats, dedupErr := r.runDedup(ctx, output, workers, opts.DryRun, interval, logger)
		summary.DuplicatesDeleted = dedupStats.Deleted
		summary.BytesFreed = dedupStats.BytesFreed
		summary.HashFailures = dedupStats.HashFailures
		if dedupErr != nil {
			summary.Duration = time.Since(started)
			return summary, dedupErr
		}
	}

	summary.Duration = time.Since(started)
	logger.Info("run complete",
		logging.Int("organized", summary.Organized),
		logging.Int("failed", summary.Failed),
		logging.Int64("skipped_on_scan", summary.SkippedOnScan),
		logging.Int("duplicates_deleted", summary.DuplicatesDeleted),
		logging.Int64("bytes_freed", summary.BytesFreed),
		logging.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}

func (r *Runner) runDedup(ctx context.Context, output string, workers int, dryRun bool, interval int, logger *slog.Logger) (dedup.Stats, error) {
	var cache *hashcache.Store
	if r.cfg.Dedup.HashCache && !dryRun {
		opened, err := hashcache.Open(r.cfg.Dedup.HashCachePath)
		if err != nil {
			logger.Warn("hash cache unavailable, hashing from scratch", logging.Error(err))
		} else {
			cache = opened
			defer func() {
				_ = cache.Close()
			}()
		}
	}

	meter := logging.NewProgressMeter(interval)
	return dedup.New(workers, dryRun, cache, logger, meter).Run(ctx, output)
}

func (r *Runner) resolvePaths(opts Options) (source, output string, err error) {
	source = strings.TrimSpace(opts.Source)
	if source == "" {
		return "", "", errors.New("source directory is required")
	}
	if source, err = config.ExpandPath(source); err != nil {
		return "", "", err
	}

	output = strings.TrimSpace(opts.Output)
	if output == "" {
		output = r.cfg.Paths.OutputDir
	}
	if output == "" {
		output = filepath.Join(source, "organized")
	}
	if output, err = config.ExpandPath(output); err != nil {
		return "", "", err
	}
	return source, output, nil
}
