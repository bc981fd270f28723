package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"snapsort/internal/config"
	"snapsort/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Organize: config.Organize{Workers: 2, ProgressInterval: 1000},
		Dedup: config.Dedup{
			HashCachePath: filepath.Join(t.TempDir(), "hashcache.db"),
		},
		Logging: config.Logging{Level: "info", Format: "console"},
	}
}

func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func TestRunOrganizesEndToEnd(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()

	jan := time.Date(2023, time.January, 15, 10, 0, 0, 0, time.Local)
	feb := time.Date(2023, time.February, 1, 9, 0, 0, 0, time.Local)
	writeFile(t, filepath.Join(source, "a.jpg"), "content-a", jan)
	writeFile(t, filepath.Join(source, "nested", "b.jpg"), "content-b", jan.Add(-time.Hour))
	writeFile(t, filepath.Join(source, "c.png"), "content-c", feb)

	summary, err := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{
		Source: source,
		Output: output,
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Scanned != 3 || summary.Analyzed != 3 || summary.Organized != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RunID == "" || summary.Source != source || summary.Output != output {
		t.Fatalf("summary identity fields missing: %+v", summary)
	}

	got, err := os.ReadFile(filepath.Join(output, "2023", "01", "20230115001.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "content-b" {
		t.Fatalf("earliest file should take sequence 001, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(output, "2023", "01", "20230115002.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(output, "2023", "02", "20230201001.png")); err != nil {
		t.Fatal(err)
	}
}

func TestRunDefaultOutputUnderSource(t *testing.T) {
	source := t.TempDir()
	when := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.Local)
	writeFile(t, filepath.Join(source, "a.jpg"), "x", when)

	summary, err := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{Source: source})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Output != filepath.Join(source, "organized") {
		t.Fatalf("unexpected default output: %q", summary.Output)
	}
	if _, err := os.Stat(filepath.Join(source, "organized", "2023", "01", "20230115001.jpg")); err != nil {
		t.Fatal(err)
	}
	// The nested destination must not be rescanned as input.
	if summary.Scanned != 1 {
		t.Fatalf("unexpected scan count: %+v", summary)
	}
}

func TestRunDryRunLeavesFilesystemUntouched(t *testing.T) {
	source := t.TempDir()
	output := filepath.Join(t.TempDir(), "sorted")

	when := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.Local)
	writeFile(t, filepath.Join(source, "a.jpg"), "x", when)
	writeFile(t, filepath.Join(source, "b.jpg"), "x", when.Add(time.Minute))

	summary, err := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{
		Source:           source,
		Output:           output,
		DryRun:           true,
		RemoveDuplicates: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Organized != 2 {
		t.Fatalf("dry run should still plan moves: %+v", summary)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("dry run created the destination root")
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(source, name)); err != nil {
			t.Fatalf("dry run moved %s: %v", name, err)
		}
	}
}

func TestRunRemoveDuplicates(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()

	when := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.Local)
	writeFile(t, filepath.Join(source, "a.jpg"), "same", when)
	writeFile(t, filepath.Join(source, "b.jpg"), "same", when.Add(time.Hour))
	writeFile(t, filepath.Join(source, "c.jpg"), "other", when)

	cfg := testConfig(t)
	cfg.Dedup.HashCache = true

	summary, err := New(cfg, logging.NewNop()).Run(context.Background(), Options{
		Source:           source,
		Output:           output,
		RemoveDuplicates: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.DuplicatesDeleted != 1 || summary.BytesFreed != int64(len("same")) {
		t.Fatalf("unexpected dedup outcome: %+v", summary)
	}
	entries, err := os.ReadDir(filepath.Join(output, "2023", "01"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 surviving files, got %d", len(entries))
	}
	if _, err := os.Stat(cfg.Dedup.HashCachePath); err != nil {
		t.Fatalf("hash cache not created: %v", err)
	}
}

func TestRunSkipsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	source := t.TempDir()
	output := t.TempDir()

	when := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.Local)
	writeFile(t, filepath.Join(source, "good.jpg"), "good", when)
	locked := filepath.Join(source, "locked")
	writeFile(t, filepath.Join(locked, "hidden.jpg"), "hidden", when)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	summary, err := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{
		Source: source,
		Output: output,
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Organized != 1 || summary.SkippedOnScan == 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunLockedDestinationRefused(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "x", time.Now())

	lock := flock.New(filepath.Join(output, lockFileName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take test lock: %v", err)
	}
	defer lock.Unlock()

	_, runErr := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{
		Source: source,
		Output: output,
	})
	if runErr == nil || !strings.Contains(runErr.Error(), "already organizing") {
		t.Fatalf("expected lock contention error, got %v", runErr)
	}
}

func TestRunMissingSourceFailsPreflight(t *testing.T) {
	_, err := New(testConfig(t), logging.NewNop()).Run(context.Background(), Options{
		Source: filepath.Join(t.TempDir(), "missing"),
		Output: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
}
