package organize

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"snapsort/internal/analyze"
	"snapsort/internal/logging"
)

// Stats summarizes an organize pass.
type Stats struct {
	Organized int
	Conflicts int
	Failed    int
}

// Run assigns every record a target name and moves it. Groups are processed
// in parallel; within one group, records sort by (last-modified, source
// path) so re-runs over the same inputs allocate reproducibly. Per-file
// failures land in the relocator's sink; the only error returned is the
// fatal sequence-exhaustion condition.
func Run(ctx context.Context, records []analyze.Record, alloc *Allocator, rel *Relocator, meter *logging.ProgressMeter, logger *slog.Logger) (Stats, error) {
	logger = logging.NewComponentLogger(logger, "organize")

	groups := make(map[GroupKey][]analyze.Record)
	for _, rec := range records {
		key := KeyOf(rec.LastModified)
		groups[key] = append(groups[key], rec)
	}

	var (
		mu       sync.Mutex
		stats    Stats
		fatalErr error
		wg       sync.WaitGroup
	)

	for key, members := range groups {
		wg.Add(1)
		go func(key GroupKey, members []analyze.Record) {
			defer wg.Done()
			groupStats, err := runGroup(ctx, members, alloc, rel, meter, logger)

			mu.Lock()
			defer mu.Unlock()
			stats.Organized += groupStats.Organized
			stats.Conflicts += groupStats.Conflicts
			stats.Failed += groupStats.Failed
			if err != nil && fatalErr == nil {
				fatalErr = err
			}
		}(key, members)
	}
	wg.Wait()

	if fatalErr != nil {
		return stats, fatalErr
	}
	logger.Info("organize complete",
		logging.Int("organized", stats.Organized),
		logging.Int("conflicts", stats.Conflicts),
		logging.Int("failed", stats.Failed),
	)
	return stats, nil
}

func runGroup(ctx context.Context, members []analyze.Record, alloc *Allocator, rel *Relocator, meter *logging.ProgressMeter, logger *slog.Logger) (Stats, error) {
	// Deterministic order: last-modified ascending, source path as the
	// tie-break for identical timestamps.
	sort.Slice(members, func(i, j int) bool {
		if members[i].LastModified.Equal(members[j].LastModified) {
			return members[i].SourcePath < members[j].SourcePath
		}
		return members[i].LastModified.Before(members[j].LastModified)
	})

	var stats Stats
	proposed := make(map[string]int)
	for _, rec := range members {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		stamp := DateStamp(rec.LastModified)
		proposed[stamp]++

		allocation, err := alloc.Allocate(rec.LastModified, rec.Brand, rec.Ext, proposed[stamp])
		if err != nil {
			return stats, err
		}
		if allocation.Adjusted {
			stats.Conflicts++
		}

		if rel.Move(rec.SourcePath, allocation) {
			stats.Organized++
		} else {
			stats.Failed++
		}
		if n, due := meter.Tick(); due {
			logger.Info("organize progress", logging.Int64("files_processed", n))
		}
	}
	return stats, nil
}
