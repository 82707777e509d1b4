package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/saviobatista/fuelbal/internal/config"
	flog "github.com/saviobatista/fuelbal/internal/log"
	"github.com/saviobatista/fuelbal/internal/nats"
	"github.com/saviobatista/fuelbal/internal/storage"
	"github.com/saviobatista/fuelbal/internal/types"
)

var errNoEventFeed = errors.New("NATS_URL environment variable is required")

func main() {
	if err := runEventLog(); err != nil {
		fmt.Fprintf(os.Stderr, "eventlog failed: %v\n", err)
		os.Exit(1)
	}
}

// runEventLog contains the main application logic and can be tested
func runEventLog() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.EventsEnabled() {
		return errNoEventFeed
	}

	logger := flog.New(cfg.LogLevel, cfg.LogDir)
	defer logger.Close()

	journal := storage.New(cfg.OutputDir)
	journal.SetLogger(logger.Logger)
	if err := journal.Start(); err != nil {
		return fmt.Errorf("failed to start journal: %w", err)
	}
	defer journal.Stop()

	client, err := nats.New(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("failed to create NATS client: %w", err)
	}
	defer client.Close()
	client.SetLogger(logger.Logger)

	rec := NewRecorder(journal, logger.Logger)
	sub, err := client.SubscribeEvents(rec.Handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to flight events: %w", err)
	}
	defer sub.Unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down",
		slog.Uint64("written", rec.Written()),
		slog.Uint64("failed", rec.Failed()))
	return nil
}

// EventWriter appends one event to durable storage
type EventWriter interface {
	WriteEvent(event *types.FlightEvent) error
}

// Recorder writes every received event and counts the outcomes
type Recorder struct {
	w       EventWriter
	logger  *slog.Logger
	written atomic.Uint64
	failed  atomic.Uint64
}

func NewRecorder(w EventWriter, logger *slog.Logger) *Recorder {
	return &Recorder{w: w, logger: logger}
}

// Handle is the subscription callback. Write failures are logged and counted.
func (r *Recorder) Handle(event *types.FlightEvent) {
	if err := r.w.WriteEvent(event); err != nil {
		r.failed.Add(1)
		r.logger.Warn("Failed to write event",
			slog.String("type", string(event.Type)),
			slog.String("leg_id", event.LegID),
			slog.Any("error", err))
		return
	}
	r.written.Add(1)
}

func (r *Recorder) Written() uint64 { return r.written.Load() }

func (r *Recorder) Failed() uint64 { return r.failed.Load() }
