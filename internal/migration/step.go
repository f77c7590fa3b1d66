package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmiq/farmiq/internal/database"
	"github.com/farmiq/farmiq/pkg/metrics"
	"github.com/farmiq/farmiq/pkg/validator"
)

// step copies one table from source to destination.
type step interface {
	table() string
	run(ctx context.Context, p *Pipeline) (TableResult, error)
	count(ctx context.Context, db *gorm.DB) (int64, error)
	purge(ctx context.Context, db *gorm.DB) (int64, error)
}

// filterFunc drops rows whose foreign key does not resolve in the destination.
type filterFunc[T any] func(ctx context.Context, dest *gorm.DB, rows []T) (kept []T, skipped int, err error)

type tableStep[T any] struct {
	name    string
	orderBy string
	// pk is the conflict target for upserts.
	pk string
	// serial tables get their Postgres sequence advanced past the copied ids.
	serial bool
	filter filterFunc[T]
	// reason is reported next to the skip count.
	reason string
}

func (s tableStep[T]) table() string { return s.name }

func (s tableStep[T]) run(ctx context.Context, p *Pipeline) (TableResult, error) {
	start := p.clock.Now()
	result := TableResult{Table: s.name}

	var rows []T
	if err := p.source.WithContext(ctx).Order(s.orderBy).Find(&rows).Error; err != nil {
		return result, fmt.Errorf("read source: %w", err)
	}
	result.Found = len(rows)
	p.reporter.found(s.name, result.Found)

	for i := range rows {
		if err := validator.ValidateStruct(&rows[i]); err != nil {
			return result, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if s.filter != nil {
		kept, skipped, err := s.filter(ctx, p.dest.WithContext(ctx), rows)
		if err != nil {
			return result, fmt.Errorf("referential filter: %w", err)
		}
		rows = kept
		result.Skipped = skipped
		if skipped > 0 {
			p.reporter.skipped(s.name, skipped, s.reason)
			metrics.MigrationRows.WithLabelValues(s.name, "skipped").Add(float64(skipped))
		}
	}

	if len(rows) == 0 {
		result.Duration = p.clock.Since(start)
		p.reporter.migrated(s.name, 0)
		return result, nil
	}

	if err := s.write(ctx, p, rows); err != nil {
		return result, err
	}

	result.Written = len(rows)
	result.Duration = p.clock.Since(start)
	metrics.MigrationRows.WithLabelValues(s.name, "migrated").Add(float64(result.Written))
	p.reporter.migrated(s.name, result.Written)
	p.log.Info("table migrated",
		zap.String("table", s.name),
		zap.Int("found", result.Found),
		zap.Int("skipped", result.Skipped),
		zap.Int("written", result.Written),
		zap.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (s tableStep[T]) write(ctx context.Context, p *Pipeline, rows []T) error {
	err := p.dest.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx
		if p.mode == ModeUpsert {
			columns, err := s.updateColumns(tx)
			if err != nil {
				return err
			}
			conflict := clause.OnConflict{Columns: []clause.Column{{Name: s.pk}}}
			if len(columns) == 0 {
				conflict.DoNothing = true
			} else {
				conflict.DoUpdates = clause.AssignmentColumns(columns)
			}
			insert = tx.Clauses(conflict)
		}

		if err := insert.CreateInBatches(&rows, p.batchSize).Error; err != nil {
			return err
		}

		if s.serial && tx.Dialector.Name() == "postgres" {
			return resetSequence(tx, s.name, s.pk)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if p.mode == ModeStrict && database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrAlreadyMigrated, err)
	}
	return fmt.Errorf("write destination: %w", err)
}

// updateColumns lists every non-key column so conflicting rows are overwritten with source values,
// timestamps included.
func (s tableStep[T]) updateColumns(db *gorm.DB) ([]string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	columns := make([]string, 0, len(stmt.Schema.DBNames))
	for _, name := range stmt.Schema.DBNames {
		if name != s.pk {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

func (s tableStep[T]) count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func (s tableStep[T]) purge(ctx context.Context, db *gorm.DB) (int64, error) {
	result := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T))
	return result.RowsAffected, result.Error
}

func resetSequence(tx *gorm.DB, table, column string) error {
	sql := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), COALESCE((SELECT MAX(%[2]s) FROM %[1]s), 1))",
		table, column,
	)
	if err := tx.Exec(sql).Error; err != nil {
		return fmt.Errorf("reset sequence: %w", err)
	}
	return nil
}

// ErrAlreadyMigrated reports that a strict run found rows already present in the destination.
var ErrAlreadyMigrated = errors.New("destination already contains migrated rows; run cleanup first or use upsert mode")

// idSet loads the primary keys of a destination table.
func idSet(ctx context.Context, dest *gorm.DB, model interface{}) (map[int64]struct{}, error) {
	var ids []int64
	if err := dest.WithContext(ctx).Model(model).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
