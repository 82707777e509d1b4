package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saviobatista/fuelbal/internal/aircraft"
	"github.com/saviobatista/fuelbal/internal/config"
	"github.com/saviobatista/fuelbal/internal/db"
	flog "github.com/saviobatista/fuelbal/internal/log"
	"github.com/saviobatista/fuelbal/internal/nats"
	"github.com/saviobatista/fuelbal/internal/redis"
	"github.com/saviobatista/fuelbal/internal/stats"
	"github.com/saviobatista/fuelbal/internal/trip"
	"github.com/saviobatista/fuelbal/internal/types"
)

const archivePingTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fuelbal failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := flog.New(cfg.LogLevel, cfg.LogDir)
	defer logger.Close()

	store, err := redis.New(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to create Redis client: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := stats.New()
	st.SetLogger(logger.Logger)
	opts := []trip.Option{trip.WithLogger(logger.Logger), trip.WithStats(st)}

	if cfg.ArchiveEnabled() {
		dbClient, err := connectArchive(ctx, cfg.DBConnStr)
		if err != nil {
			logger.Warn("SQL archive unavailable, continuing without it", slog.Any("error", err))
		} else {
			defer dbClient.Close()
			opts = append(opts, trip.WithArchiver(dbClient))
			st.SetStore(dbClient)
			go st.StartPersistence(ctx, cfg.StatsInterval)
		}
	}

	if cfg.EventsEnabled() {
		natsClient, err := nats.New(cfg.NATSURL)
		if err != nil {
			logger.Warn("Event feed unavailable, continuing without it", slog.Any("error", err))
		} else {
			defer natsClient.Close()
			natsClient.SetLogger(logger.Logger)
			opts = append(opts, trip.WithPublisher(natsClient))
		}
	}

	tracker := trip.NewTracker(store, opts...)
	catalog := aircraft.NewCatalog(store)

	session, err := setup(ctx, tracker, catalog, cfg.TailNumber, os.Stdout, logger.Logger)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx, os.Stdin) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		logger.Info("Shutting down")
	}
	logger.Info("Session ended", slog.String("stats", st.String()))
	return err
}

// setup restores saved state, loads the aircraft catalog and picks the
// aircraft to fly. Restore problems are printed, never fatal.
func setup(ctx context.Context, tracker *trip.Tracker, catalog *aircraft.Catalog, tail string, out io.Writer, logger *slog.Logger) (*Session, error) {
	rep := tracker.Restore(ctx)
	for _, res := range rep.Problems() {
		fmt.Fprintf(out, "warning: saved %s could not be restored (%s): %v\n", res.Key, res.Status, res.Err)
		logger.Warn("Failed to restore saved state",
			slog.String("key", res.Key),
			slog.String("status", string(res.Status)),
			slog.Any("error", res.Err))
	}

	if err := catalog.Load(ctx); err != nil {
		if !errors.Is(err, types.ErrCorruptState) {
			return nil, err
		}
		fmt.Fprintf(out, "warning: custom aircraft could not be restored: %v\n", err)
		logger.Warn("Failed to load custom aircraft", slog.Any("error", err))
	}

	selected, err := selectAircraft(tracker, catalog, tail)
	if err != nil {
		return nil, err
	}
	return NewSession(tracker, catalog, selected, out), nil
}

// selectAircraft prefers the aircraft of a restored flight, then tail
func selectAircraft(tracker *trip.Tracker, catalog *aircraft.Catalog, tail string) (types.Aircraft, error) {
	if a := tracker.Aircraft(); a != nil {
		return *a, nil
	}
	a, ok := catalog.ByTail(tail)
	if !ok {
		return types.Aircraft{}, fmt.Errorf("%w: %s", aircraft.ErrNotFound, tail)
	}
	return a, nil
}

// connectArchive opens the SQL archive and checks that it answers
func connectArchive(ctx context.Context, connStr string) (*db.Client, error) {
	client, err := db.New(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL archive: %w", err)
	}
	if err := pingArchive(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingArchive(ctx context.Context, p pinger) error {
	ctx, cancel := context.WithTimeout(ctx, archivePingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach SQL archive: %w", err)
	}
	return nil
}
