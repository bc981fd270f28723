package organize

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"snapsort/internal/logging"
)

// maxSequence is the last usable slot per calendar date. Exhausting it is a
// fatal, run-aborting condition; there is no wraparound.
const maxSequence = 999

// Allocation is a claimed target name. Once issued, the name and its
// sequence number stay consumed for the rest of the run even if the move
// later fails.
type Allocation struct {
	Key      GroupKey
	Dir      string
	Name     string
	Seq      int
	Adjusted bool
}

// Allocator owns the authoritative next-available sequence counters, one
// GroupState per (year, month) key. States are created lazily on first use,
// seeded from whatever already occupies the destination directory, and held
// for the run's duration.
type Allocator struct {
	root   string
	logger *slog.Logger

	mu     sync.Mutex
	groups map[GroupKey]*groupState
}

type groupState struct {
	mu       sync.Mutex
	dir      string
	seeded   bool
	existing map[string]struct{}
	nextSeq  map[string]int // yyyymmdd -> next free sequence
}

// NewAllocator constructs an allocator for a destination root.
func NewAllocator(root string, logger *slog.Logger) *Allocator {
	return &Allocator{
		root:   root,
		logger: logging.NewComponentLogger(logger, "organize"),
		groups: make(map[GroupKey]*groupState),
	}
}

// Allocate claims a collision-free target name for a file with the given
// last-modified date. proposed is the caller's 1-based sequence within the
// exact date; when that slot is taken the allocator probes upward and
// reports the adjustment as an expected event, not an error. Every call
// either returns a name or the fatal sequence-exhaustion error.
func (a *Allocator) Allocate(date time.Time, brand, ext string, proposed int) (Allocation, error) {
	key := KeyOf(date)
	gs := a.group(key)

	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.seed()

	stamp := DateStamp(date)
	seq := proposed
	if seq < 1 {
		seq = 1
	}
	if next, ok := gs.nextSeq[stamp]; ok && next > seq {
		seq = next
	}
	for {
		if seq > maxSequence {
			return Allocation{}, fmt.Errorf("sequence space exhausted for date %s in group %s (max %d)", stamp, key, maxSequence)
		}
		name := FileName(brand, date, seq, ext)
		if _, taken := gs.existing[name]; !taken {
			gs.existing[name] = struct{}{}
			gs.nextSeq[stamp] = seq + 1

			alloc := Allocation{Key: key, Dir: gs.dir, Name: name, Seq: seq, Adjusted: seq != proposed}
			if alloc.Adjusted {
				a.logger.Info("sequence conflict, auto-adjusted",
					logging.String(logging.FieldGroup, key.String()),
					logging.String("name", name),
					logging.Int("proposed", proposed),
					logging.Int("assigned", seq),
				)
			}
			return alloc, nil
		}
		seq++
	}
}

func (a *Allocator) group(key GroupKey) *groupState {
	a.mu.Lock()
	defer a.mu.Unlock()
	gs, ok := a.groups[key]
	if !ok {
		gs = &groupState{
			dir:      key.Dir(a.root),
			existing: make(map[string]struct{}),
			nextSeq:  make(map[string]int),
		}
		a.groups[key] = gs
	}
	return gs
}

// seed scans the destination directory once per GroupState so a re-run never
// reuses a sequence number already claimed on disk. Caller holds gs.mu.
func (gs *groupState) seed() {
	if gs.seeded {
		return
	}
	gs.seeded = true

	entries, err := os.ReadDir(gs.dir)
	if err != nil {
		// Directory absent on first run; counters start at 1.
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		gs.existing[name] = struct{}{}
		if stamp, seq, ok := parseName(name); ok {
			if seq >= gs.nextSeq[stamp] {
				gs.nextSeq[stamp] = seq + 1
			}
		}
	}
}
