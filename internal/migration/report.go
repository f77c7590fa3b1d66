package migration

import (
	"fmt"
	"io"
	"time"
)

// TableResult summarises one migrated table.
type TableResult struct {
	Table    string
	Found    int
	Skipped  int
	Written  int
	Duration time.Duration
}

// Report summarises a pipeline run.
type Report struct {
	Mode     Mode
	Tables   []TableResult
	Duration time.Duration
	// Failed names the table whose step aborted the run.
	Failed string
}

// Written totals rows written across all tables.
func (r Report) Written() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Written
	}
	return total
}

// Skipped totals rows dropped by referential filters.
func (r Report) Skipped() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Skipped
	}
	return total
}

// Table returns the result for name.
func (r Report) Table(name string) (TableResult, bool) {
	for _, t := range r.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return TableResult{}, false
}

// reporter prints operator-facing progress lines.
type reporter struct {
	out io.Writer
}

func (r reporter) printf(format string, args ...interface{}) {
	if r.out == nil {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r reporter) start(table string) {
	r.printf("migrating %s...", table)
}

func (r reporter) found(table string, n int) {
	r.printf("  found %d rows in %s", n, table)
}

func (r reporter) skipped(table string, n int, reason string) {
	r.printf("  skipped %d rows in %s (%s)", n, table, reason)
}

func (r reporter) migrated(table string, n int) {
	r.printf("  migrated %d rows into %s", n, table)
}

func (r reporter) resumed(table string) {
	r.printf("skipping %s (resuming later in the pipeline)", table)
}

func (r reporter) summary(report Report, err error) {
	if err != nil {
		r.printf("migration FAILED at %s after %s: %v", report.Failed, report.Duration.Round(time.Millisecond), err)
		return
	}
	r.printf("migration completed in %s: %d tables, %d rows written, %d rows skipped",
		report.Duration.Round(time.Millisecond), len(report.Tables), report.Written(), report.Skipped())
}
