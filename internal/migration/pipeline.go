package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mode selects how rows are written to the destination.
type Mode string

const (
	// ModeUpsert overwrites rows whose primary key already exists, so a run can be repeated.
	ModeUpsert Mode = "upsert"
	// ModeStrict performs plain inserts and fails on the first existing primary key.
	ModeStrict Mode = "strict"

	// DefaultBatchSize is the number of rows per INSERT statement.
	DefaultBatchSize = 500
)

var (
	// ErrUnknownTable is returned when a resume point does not name a migrated table.
	ErrUnknownTable = errors.New("unknown migration table")
	// ErrNoSource is returned by operations that read the source database when none was given.
	ErrNoSource = errors.New("migration: source database is required")
)

// ParseMode validates a mode name. Empty selects ModeUpsert.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeUpsert:
		return ModeUpsert, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown migration mode %q", value)
	}
}

// Pipeline copies the FarmIQ tables from a source database to a destination in dependency order.
// Steps run sequentially and the first failure aborts the run; tables already written stay written.
type Pipeline struct {
	source    *gorm.DB
	dest      *gorm.DB
	mode      Mode
	batchSize int
	from      string
	steps     []step
	reporter  reporter
	log       *zap.Logger
	clock     clockwork.Clock
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithMode selects upsert or strict writes.
func WithMode(mode Mode) Option {
	return func(p *Pipeline) {
		if mode != "" {
			p.mode = mode
		}
	}
}

// WithBatchSize sets the rows per INSERT statement.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithResumeFrom starts the run at table, skipping every earlier step.
func WithResumeFrom(table string) Option {
	return func(p *Pipeline) {
		p.from = strings.TrimSpace(table)
	}
}

// WithOutput directs operator progress lines to w.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		p.reporter = reporter{out: w}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock sets the clock used for timings.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// New constructs a Pipeline between source and dest. source may be nil for operations that only
// touch the destination (Cleanup and Schema).
func New(source, dest *gorm.DB, opts ...Option) (*Pipeline, error) {
	if dest == nil {
		return nil, errors.New("migration: destination database is required")
	}

	p := &Pipeline{
		source:    source,
		dest:      dest,
		mode:      ModeUpsert,
		batchSize: DefaultBatchSize,
		steps:     defaultSteps(),
		log:       zap.NewNop(),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.mode != ModeUpsert && p.mode != ModeStrict {
		return nil, fmt.Errorf("migration: unknown mode %q", p.mode)
	}
	if p.from != "" && p.stepIndex(p.from) < 0 {
		return nil, fmt.Errorf("migration: resume from %q: %w", p.from, ErrUnknownTable)
	}
	return p, nil
}

// Run executes every step from the resume point onwards.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if p.source == nil {
		return Report{}, ErrNoSource
	}
	start := p.clock.Now()
	report := Report{Mode: p.mode}

	first := 0
	if p.from != "" {
		first = p.stepIndex(p.from)
	}

	p.log.Info("migration started",
		zap.String("mode", string(p.mode)),
		zap.Int("batch_size", p.batchSize),
		zap.String("from", p.steps[first].table()),
	)

	var runErr error
	for i, s := range p.steps {
		if i < first {
			p.reporter.resumed(s.table())
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failed = s.table()
			runErr = fmt.Errorf("migration: %s: %w", s.table(), err)
			break
		}

		p.reporter.start(s.table())
		result, err := s.run(ctx, p)
		report.Tables = append(report.Tables, result)
		if err != nil {
			report.Failed = s.table()
			runErr = fmt.Errorf("migration: %s: %w", s.table(), err)
			break
		}
	}

	report.Duration = p.clock.Since(start)
	p.reporter.summary(report, runErr)
	if runErr != nil {
		p.log.Error("migration failed", zap.String("table", report.Failed), zap.Error(runErr))
		return report, runErr
	}

	p.log.Info("migration completed",
		zap.Int("written", report.Written()),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("elapsed", report.Duration),
	)
	return report, nil
}

func (p *Pipeline) stepIndex(table string) int {
	for i, s := range p.steps {
		if strings.EqualFold(s.table(), table) {
			return i
		}
	}
	return -1
}
