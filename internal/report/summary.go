// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary aggregates the user-visible outcome of one run.
type Summary struct {
	RunID  string
	Source string
	Output string
	DryRun bool

	Scanned       int64
	SkippedOnScan int64
	Analyzed      int64
	Organized     int
	Conflicts     int
	Failed        int
	Quarantined   int

	DedupEnabled      bool
	DuplicatesDeleted int
	BytesFreed        int64
	HashFailures      int

	Duration time.Duration
}

var printer = message.NewPrinter(language.English)

// Render formats the summary. With pretty set it returns a rounded table for
// interactive terminals; otherwise plain key/value lines suitable for pipes
// and logs.
func Render(s Summary, pretty bool) string {
	rows := s.rows()
	if !pretty {
		var b strings.Builder
		b.WriteString(s.title())
		b.WriteByte('\n')
		for _, row := range rows {
			fmt.Fprintf(&b, "%s: %s\n", row[0], row[1])
		}
		return b.String()
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(s.title())
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}

func (s Summary) title() string {
	if s.DryRun {
		return "snapsort summary (dry run)"
	}
	return "snapsort summary"
}

func (s Summary) rows() [][2]string {
	rows := [][2]string{
		{"Source", s.Source},
		{"Destination", s.Output},
		{"Files found", count(s.Scanned)},
		{"Paths skipped on scan", count(s.SkippedOnScan)},
		{"Files analyzed", count(s.Analyzed)},
		{"Files organized", count(int64(s.Organized))},
		{"Sequence conflicts adjusted", count(int64(s.Conflicts))},
		{"Files failed", count(int64(s.Failed))},
		{"Files quarantined", count(int64(s.Quarantined))},
	}
	if s.DedupEnabled {
		rows = append(rows,
			[2]string{"Duplicates deleted", count(int64(s.DuplicatesDeleted))},
			[2]string{"Space freed", humanize.IBytes(uint64(max64(s.BytesFreed, 0)))},
			[2]string{"Hash failures", count(int64(s.HashFailures))},
		)
	}
	rows = append(rows, [2]string{"Elapsed", s.Duration.Round(time.Millisecond).String()})
	return rows
}

func count(n int64) string {
	return printer.Sprintf("%d", n)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
