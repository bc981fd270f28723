package organize

import (
	"log/slog"
	"os"
	"path/filepath"

	"snapsort/internal/failures"
	"snapsort/internal/fileutil"
	"snapsort/internal/logging"
)

// Relocator moves a source file to its allocated target path. Any failure
// abandons the move, records the file in the sink, and leaves the allocated
// sequence number consumed: re-running later claims a fresh number instead
// of risking a reuse race.
type Relocator struct {
	dryRun bool
	sink   *failures.Sink
	logger *slog.Logger
}

// NewRelocator constructs a relocator.
func NewRelocator(dryRun bool, sink *failures.Sink, logger *slog.Logger) *Relocator {
	return &Relocator{
		dryRun: dryRun,
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "organize"),
	}
}

// Move performs the move and reports whether the file counts as organized.
// It never overwrites an existing file: a target occupied between
// allocation and move is a relocation failure like any other.
func (r *Relocator) Move(sourcePath string, alloc Allocation) bool {
	target := filepath.Join(alloc.Dir, alloc.Name)

	if r.dryRun {
		r.logger.Debug("would move file",
			logging.String("source", sourcePath),
			logging.String("target", target),
		)
		return true
	}

	if err := os.MkdirAll(alloc.Dir, 0o755); err != nil {
		r.sink.Add(sourcePath, failures.Wrap(failures.ErrRelocate, "organize", "create group directory", alloc.Dir, err))
		return false
	}
	if err := fileutil.MoveFile(sourcePath, target); err != nil {
		r.sink.Add(sourcePath, failures.Wrap(failures.ErrRelocate, "organize", "move file", target, err))
		return false
	}

	r.logger.Debug("moved file",
		logging.String("source", sourcePath),
		logging.String("target", target),
	)
	return true
}
