package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"github.com/saviobatista/fuelbal/internal/config"
	"github.com/saviobatista/fuelbal/internal/db/migrations"
	flog "github.com/saviobatista/fuelbal/internal/log"
)

type options struct {
	dbURL    string
	rollback bool
	status   bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	opts, err := parseFlags(args, cfg.DBConnStr)
	if err != nil {
		return err
	}

	logger := flog.New(cfg.LogLevel, cfg.LogDir)
	defer logger.Close()

	// Connect to database
	db, err := sql.Open("postgres", opts.dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return runMigrate(db, opts, os.Stdout, logger.Logger)
}

func parseFlags(args []string, defaultDB string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.StringVar(&opts.dbURL, "db", defaultDB, "Database connection string (default DB_CONN_STR)")
	fs.BoolVar(&opts.rollback, "rollback", false, "Rollback the last migration")
	fs.BoolVar(&opts.status, "status", false, "List pending migrations")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.dbURL == "" {
		return options{}, fmt.Errorf("no database: set DB_CONN_STR or pass -db")
	}
	if opts.rollback && opts.status {
		return options{}, fmt.Errorf("-rollback and -status are mutually exclusive")
	}
	return opts, nil
}

// runMigrate applies pending migrations, rolls back the last one or lists
// what is pending
func runMigrate(db *sql.DB, opts options, out io.Writer, logger *slog.Logger) error {
	migrator := migrations.New(db)
	migrator.SetLogger(logger)

	switch {
	case opts.rollback:
		if err := migrator.Rollback(migrations.All); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
	case opts.status:
		if err := migrator.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize migrations: %w", err)
		}
		pending, err := migrator.Pending(migrations.All)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(out, "up to date")
		}
		for _, m := range pending {
			fmt.Fprintf(out, "pending: %s\n", m.Name)
		}
	default:
		if err := migrator.Migrate(migrations.All); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return nil
}
