package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestConsoleHandlerLineShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	NewComponentLogger(logger, "organize").Info("sequence conflict, auto-adjusted",
		String("name", "20230115002.jpg"),
		Int("seq", 2),
	)

	line := strings.TrimSuffix(buf.String(), "\n")
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	if !strings.Contains(line, " INFO organize: sequence conflict, auto-adjusted") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "name=20230115002.jpg") || !strings.Contains(line, "seq=2") {
		t.Fatalf("attrs missing: %q", line)
	}
	if strings.Contains(line, FieldComponent+"=") {
		t.Fatalf("component should be the prefix, not an attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar)))

	logger.Warn("file failed", String("reason", "disk full"))

	if !strings.Contains(buf.String(), `reason="disk full"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("suppressed")
	logger.Warn("emitted")

	if strings.Contains(buf.String(), "suppressed") {
		t.Fatalf("info leaked past warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN emitted") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl))

	logger.Info("scan complete", Int64("files_found", 42))

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if doc["msg"] != "scan complete" || doc["level"] != "info" {
		t.Fatalf("unexpected fields: %v", doc)
	}
	if _, ok := doc["ts"]; !ok {
		t.Fatalf("timestamp field missing: %v", doc)
	}
	if doc["files_found"] != float64(42) {
		t.Fatalf("attr missing: %v", doc)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestProgressMeterInterval(t *testing.T) {
	meter := NewProgressMeter(10)

	due := 0
	for i := 0; i < 35; i++ {
		if _, d := meter.Tick(); d {
			due++
		}
	}
	if due != 3 {
		t.Fatalf("expected 3 due ticks in 35, got %d", due)
	}
	if meter.Total() != 35 {
		t.Fatalf("unexpected total: %d", meter.Total())
	}
}

func TestProgressMeterConcurrent(t *testing.T) {
	meter := NewProgressMeter(7)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				meter.Tick()
			}
		}()
	}
	wg.Wait()

	if meter.Total() != 1000 {
		t.Fatalf("unexpected total: %d", meter.Total())
	}
}

func TestNilProgressMeter(t *testing.T) {
	var meter *ProgressMeter
	if n, due := meter.Tick(); n != 0 || due {
		t.Fatal("nil meter should never be due")
	}
	if meter.Total() != 0 {
		t.Fatal("nil meter total should be zero")
	}
}
