// Package analyze derives per-file metadata across a bounded worker pool.
//
// Each candidate path becomes a Record holding the last-modified timestamp,
// size, and optional camera brand tag. Files that cannot be statted produce
// failure records instead and drop out of the organize phase. Completion
// order across workers is unspecified; downstream code sorts before
// allocating names.
package analyze

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"snapsort/internal/failures"
	"snapsort/internal/logging"
)

// Record is the immutable per-file metadata handed through the pipeline.
type Record struct {
	SourcePath   string
	LastModified time.Time
	Size         int64
	Ext          string
	Brand        string
}

// BrandProvider extracts an optional brand tag from a file. Implementations
// must return "" for unsupported formats or any extraction failure; a brand
// lookup can never block organization.
type BrandProvider interface {
	ExtractBrand(path string) string
}

// Analyzer fans candidate paths out to a worker pool.
type Analyzer struct {
	workers int
	brand   BrandProvider
	sink    *failures.Sink
	logger  *slog.Logger
	meter   *logging.ProgressMeter
}

// New constructs an analyzer. brand may be nil to skip tagging entirely.
func New(workers int, brand BrandProvider, sink *failures.Sink, logger *slog.Logger, meter *logging.ProgressMeter) *Analyzer {
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		workers: workers,
		brand:   brand,
		sink:    sink,
		logger:  logging.NewComponentLogger(logger, "analyze"),
		meter:   meter,
	}
}

// Run consumes paths until the channel closes and returns the successfully
// analyzed records. Failures are routed to the sink.
func (a *Analyzer) Run(ctx context.Context, paths <-chan string) []Record {
	var (
		mu      sync.Mutex
		records []Record
		wg      sync.WaitGroup
	)

	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-paths:
					if !ok {
						return
					}
					rec, err := a.analyze(path)
					if err != nil {
						a.sink.Add(path, err)
						continue
					}
					mu.Lock()
					records = append(records, rec)
					mu.Unlock()
					if n, due := a.meter.Tick(); due {
						a.logger.Info("analyze progress", logging.Int64("files_analyzed", n))
					}
				}
			}
		}()
	}
	wg.Wait()

	a.logger.Info("analysis complete",
		logging.Int("files_analyzed", len(records)),
	)
	return records
}

func (a *Analyzer) analyze(path string) (Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Record{}, failures.Wrap(failures.ErrMetadataRead, "analyze", "stat file", "", err)
	}

	rec := Record{
		SourcePath:   path,
		LastModified: info.ModTime(),
		Size:         info.Size(),
		Ext:          filepath.Ext(path),
	}
	if a.brand != nil {
		rec.Brand = a.brand.ExtractBrand(path)
	}
	return rec, nil
}
