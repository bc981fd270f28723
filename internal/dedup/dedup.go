// Package dedup removes content-duplicate files inside organized group
// directories.
//
// The pass operates strictly within one yyyy/mm directory at a time and
// never compares files across groups. Members are hashed with SHA-256
// across a worker pool, identical digests cluster together, and each
// cluster keeps its earliest-modified member. A hashing failure excludes
// only that file from consideration for the run.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"snapsort/internal/failures"
	"snapsort/internal/hashcache"
	"snapsort/internal/logging"
)

// Stats summarizes a dedup pass.
type Stats struct {
	GroupsScanned int
	FilesHashed   int64
	Clusters      int
	Deleted       int
	BytesFreed    int64
	HashFailures  int
}

// Deduplicator runs the per-group duplicate removal pass.
type Deduplicator struct {
	workers int
	dryRun  bool
	cache   *hashcache.Store
	logger  *slog.Logger
	meter   *logging.ProgressMeter
}

// New constructs a deduplicator. cache may be nil, in which case every file
// is hashed from scratch.
func New(workers int, dryRun bool, cache *hashcache.Store, logger *slog.Logger, meter *logging.ProgressMeter) *Deduplicator {
	if workers < 1 {
		workers = 1
	}
	return &Deduplicator{
		workers: workers,
		dryRun:  dryRun,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "dedup"),
		meter:   meter,
	}
}

type member struct {
	path    string
	size    int64
	modTime time.Time
	digest  string
}

// Run walks every group directory under root and removes duplicates within
// each. Only a failure to list root itself is fatal.
func (d *Deduplicator) Run(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	dirs, err := groupDirs(root)
	if err != nil {
		return stats, err
	}

	for _, dir := range dirs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.GroupsScanned++
		d.runGroup(ctx, dir, &stats)
	}

	d.logger.Info("dedup complete",
		logging.Int("groups_scanned", stats.GroupsScanned),
		logging.Int("clusters", stats.Clusters),
		logging.Int("deleted", stats.Deleted),
		logging.Int64("bytes_freed", stats.BytesFreed),
		logging.Int("hash_failures", stats.HashFailures),
	)
	return stats, nil
}

func (d *Deduplicator) runGroup(ctx context.Context, dir string, stats *Stats) {
	group := filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir))

	members, err := listMembers(dir)
	if err != nil {
		d.logger.Warn("cannot list group directory",
			logging.String(logging.FieldGroup, group),
			logging.Error(err),
		)
		return
	}
	if len(members) < 2 {
		return
	}

	hashed, hashFailures := d.hashMembers(ctx, members)
	stats.FilesHashed += int64(len(hashed))
	stats.HashFailures += hashFailures

	clusters := make(map[string][]member)
	for _, m := range hashed {
		clusters[m.digest] = append(clusters[m.digest], m)
	}

	for _, cluster := range clusters {
		if len(cluster) < 2 {
			continue
		}
		stats.Clusters++

		// Earliest-modified member survives; path breaks timestamp ties.
		sort.Slice(cluster, func(i, j int) bool {
			if cluster[i].modTime.Equal(cluster[j].modTime) {
				return cluster[i].path < cluster[j].path
			}
			return cluster[i].modTime.Before(cluster[j].modTime)
		})
		survivor := cluster[0]

		for _, dup := range cluster[1:] {
			if d.dryRun {
				d.logger.Info("would delete duplicate",
					logging.String(logging.FieldGroup, group),
					logging.String("keep", filepath.Base(survivor.path)),
					logging.String("delete", filepath.Base(dup.path)),
					logging.Int64("bytes_freed", dup.size),
				)
				stats.Deleted++
				stats.BytesFreed += dup.size
				continue
			}
			if err := os.Remove(dup.path); err != nil {
				d.logger.Warn("duplicate delete failed",
					logging.String(logging.FieldGroup, group),
					logging.String("delete", filepath.Base(dup.path)),
					logging.Error(err),
				)
				continue
			}
			d.logger.Info("duplicate deleted",
				logging.String(logging.FieldGroup, group),
				logging.String("keep", filepath.Base(survivor.path)),
				logging.String("delete", filepath.Base(dup.path)),
				logging.Int64("bytes_freed", dup.size),
			)
			stats.Deleted++
			stats.BytesFreed += dup.size
		}
	}
}

// hashMembers computes digests across the worker pool, consulting the cache
// first. Failed members are excluded from the returned slice.
func (d *Deduplicator) hashMembers(ctx context.Context, members []member) ([]member, int) {
	var (
		mu       sync.Mutex
		hashed   []member
		errCount int
		wg       sync.WaitGroup
	)

	work := make(chan member)
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range work {
				digest, err := d.digestFor(ctx, m)
				if err != nil {
					d.logger.Warn("file excluded from dedup",
						logging.String("path", m.path),
						logging.Error(failures.Wrap(failures.ErrHash, "dedup", "hash file", "", err)),
					)
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				m.digest = digest
				mu.Lock()
				hashed = append(hashed, m)
				mu.Unlock()
				if n, due := d.meter.Tick(); due {
					d.logger.Info("dedup progress", logging.Int64("files_hashed", n))
				}
			}
		}()
	}

	for _, m := range members {
		if ctx.Err() != nil {
			break
		}
		work <- m
	}
	close(work)
	wg.Wait()

	return hashed, errCount
}

func (d *Deduplicator) digestFor(ctx context.Context, m member) (string, error) {
	mtimeNS := m.modTime.UnixNano()
	if digest, ok, err := d.cache.Lookup(ctx, m.path, m.size, mtimeNS); err != nil {
		d.logger.Debug("hash cache lookup failed", logging.Error(err))
	} else if ok {
		return digest, nil
	}

	digest, err := hashFile(m.path)
	if err != nil {
		return "", err
	}

	if err := d.cache.Save(ctx, m.path, m.size, mtimeNS, digest); err != nil {
		d.logger.Debug("hash cache save failed", logging.Error(err))
	}
	return digest, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func listMembers(dir string) ([]member, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	members := make([]member, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		members = append(members, member{
			path:    filepath.Join(dir, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return members, nil
}

var (
	yearDirPattern  = regexp.MustCompile(`^\d{4}$`)
	monthDirPattern = regexp.MustCompile(`^\d{2}$`)
)

// groupDirs lists <root>/yyyy/mm directories in sorted order. Anything else
// under root (the quarantine directory included) is ignored.
func groupDirs(root string) ([]string, error) {
	years, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		// Nothing was organized here, e.g. a dry run against a fresh
		// destination.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list destination root: %w", err)
	}

	var dirs []string
	for _, year := range years {
		if !year.IsDir() || !yearDirPattern.MatchString(year.Name()) {
			continue
		}
		months, err := os.ReadDir(filepath.Join(root, year.Name()))
		if err != nil {
			continue
		}
		for _, month := range months {
			if !month.IsDir() || !monthDirPattern.MatchString(month.Name()) {
				continue
			}
			if v, err := strconv.Atoi(month.Name()); err != nil || v < 1 || v > 12 {
				continue
			}
			dirs = append(dirs, filepath.Join(root, year.Name(), month.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
