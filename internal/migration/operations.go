package migration

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/farmiq/farmiq/internal/database"
	"github.com/farmiq/farmiq/internal/models"
)

// Cleanup deletes every destination row in reverse dependency order. A failing table does not
// stop the remaining ones; all failures are returned together.
func (p *Pipeline) Cleanup(ctx context.Context) (map[string]int64, error) {
	deleted := make(map[string]int64, len(p.steps))
	var errs error

	for i := len(p.steps) - 1; i >= 0; i-- {
		s := p.steps[i]
		n, err := s.purge(ctx, p.dest)
		if err != nil {
			p.reporter.printf("failed to clean %s: %v", s.table(), err)
			p.log.Warn("cleanup failed", zap.String("table", s.table()), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("cleanup %s: %w", s.table(), err))
			continue
		}
		deleted[s.table()] = n
		p.reporter.printf("cleaned %s (%d rows)", s.table(), n)
	}

	if errs != nil {
		p.reporter.printf("cleanup finished with %d errors", len(multierr.Errors(errs)))
	} else {
		p.reporter.printf("cleanup completed")
	}
	return deleted, errs
}

// TableCount compares source and destination row counts for one table.
type TableCount struct {
	Table       string
	Source      int64
	Destination int64
}

// Matches reports whether both sides hold the same number of rows.
func (c TableCount) Matches() bool { return c.Source == c.Destination }

// UserSummary is the listing printed after verification.
type UserSummary struct {
	ID    int64
	Email string
	Role  string
}

// Verification is the result of Verify.
type Verification struct {
	Tables []TableCount
	Users  []UserSummary
}

// Consistent reports whether every table count matches.
func (v Verification) Consistent() bool {
	for _, t := range v.Tables {
		if !t.Matches() {
			return false
		}
	}
	return true
}

// Verify counts rows on both sides and lists the destination users.
func (p *Pipeline) Verify(ctx context.Context) (Verification, error) {
	if p.source == nil {
		return Verification{}, ErrNoSource
	}

	var result Verification
	for _, s := range p.steps {
		src, err := s.count(ctx, p.source)
		if err != nil {
			return result, fmt.Errorf("verify %s: count source: %w", s.table(), err)
		}
		dst, err := s.count(ctx, p.dest)
		if err != nil {
			return result, fmt.Errorf("verify %s: count destination: %w", s.table(), err)
		}
		count := TableCount{Table: s.table(), Source: src, Destination: dst}
		result.Tables = append(result.Tables, count)

		marker := "ok"
		if !count.Matches() {
			marker = "MISMATCH"
		}
		p.reporter.printf("%-14s source=%-6d destination=%-6d %s", s.table(), src, dst, marker)
	}

	var users []models.User
	if err := p.dest.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return result, fmt.Errorf("verify users: %w", err)
	}
	for _, u := range users {
		role := ""
		if u.Role != nil {
			role = *u.Role
		}
		result.Users = append(result.Users, UserSummary{ID: u.ID, Email: u.Email, Role: role})
		p.reporter.printf("  user %d %s (%s)", u.ID, u.Email, role)
	}
	return result, nil
}

// Connectivity is the result of Check.
type Connectivity struct {
	SourceErr      error
	DestinationErr error
	// SchemaReady is true when the destination already has the users table.
	SchemaReady bool
}

// OK reports whether both stores answered and the destination schema exists.
func (c Connectivity) OK() bool {
	return c.SourceErr == nil && c.DestinationErr == nil && c.SchemaReady
}

// Check pings both stores and reports whether the destination schema has been created.
func (p *Pipeline) Check(ctx context.Context) Connectivity {
	var result Connectivity

	if p.source == nil {
		result.SourceErr = ErrNoSource
	} else if err := p.source.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		result.SourceErr = err
	}
	if err := database.Ping(p.dest); err != nil {
		result.DestinationErr = err
	} else {
		result.SchemaReady = p.dest.WithContext(ctx).Migrator().HasTable(TableUsers)
	}

	p.reporter.printf("source: %s", statusText(result.SourceErr))
	p.reporter.printf("destination: %s", statusText(result.DestinationErr))
	if result.DestinationErr == nil {
		if result.SchemaReady {
			p.reporter.printf("destination schema: users table present")
		} else {
			p.reporter.printf("destination schema: users table missing, run the schema command")
		}
	}
	return result
}

// Schema creates or updates the eleven FarmIQ tables on the destination.
func (p *Pipeline) Schema(ctx context.Context) error {
	if err := database.AutoMigrateFarm(p.dest.WithContext(ctx)); err != nil {
		return fmt.Errorf("migration: schema: %w", err)
	}
	p.reporter.printf("destination schema is up to date")
	return nil
}

func statusText(err error) string {
	if err != nil {
		return "unreachable (" + err.Error() + ")"
	}
	return "reachable"
}
