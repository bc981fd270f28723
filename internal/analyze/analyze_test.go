package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapsort/internal/failures"
	"snapsort/internal/logging"
)

type fixedBrand struct{ brand string }

func (f fixedBrand) ExtractBrand(string) string { return f.brand }

func feed(paths ...string) <-chan string {
	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)
	return ch
}

func TestRunBuildsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("abcdef"), 0o644); err != nil {
		t.Fatal(err)
	}
	when := time.Date(2023, time.April, 3, 15, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}

	sink := failures.NewSink(logging.NewNop())
	a := New(4, nil, sink, logging.NewNop(), logging.NewProgressMeter(1000))
	records := a.Run(context.Background(), feed(path))

	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	rec := records[0]
	if rec.SourcePath != path || rec.Size != 6 || rec.Ext != ".jpg" || rec.Brand != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.LastModified.Equal(when) {
		t.Fatalf("unexpected mtime: %v", rec.LastModified)
	}
	if sink.Len() != 0 {
		t.Fatalf("unexpected failures: %v", sink.Records())
	}
}

func TestRunTagsBrand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New(1, fixedBrand{"Canon"}, failures.NewSink(logging.NewNop()), logging.NewNop(), logging.NewProgressMeter(1000))
	records := a.Run(context.Background(), feed(path))
	if len(records) != 1 || records[0].Brand != "Canon" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestRunRoutesMissingFilesToSink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.jpg")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "gone.jpg")

	sink := failures.NewSink(logging.NewNop())
	a := New(2, nil, sink, logging.NewNop(), logging.NewProgressMeter(1000))
	records := a.Run(context.Background(), feed(real, missing))

	if len(records) != 1 || records[0].SourcePath != real {
		t.Fatalf("unexpected records: %+v", records)
	}
	if sink.Len() != 1 {
		t.Fatalf("expected one failure, got %d", sink.Len())
	}
	failed := sink.Records()[0]
	if failed.SourcePath != missing {
		t.Fatalf("wrong file failed: %+v", failed)
	}
}

func TestAnalyzeWrapsMetadataErrors(t *testing.T) {
	a := New(1, nil, failures.NewSink(logging.NewNop()), logging.NewNop(), logging.NewProgressMeter(1000))
	_, err := a.analyze(filepath.Join(t.TempDir(), "nope.jpg"))
	if !errors.Is(err, failures.ErrMetadataRead) {
		t.Fatalf("expected metadata read error, got %v", err)
	}
}
