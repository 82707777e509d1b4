// Package trip aggregates flight legs and fuel stops into trips. The
// Tracker owns the live scheduler for the current leg, persists after every
// mutation and publishes a flight event for each one.
package trip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saviobatista/fuelbal/internal/estimator"
	"github.com/saviobatista/fuelbal/internal/scheduler"
	"github.com/saviobatista/fuelbal/internal/stats"
	"github.com/saviobatista/fuelbal/internal/types"
)

// MaxStaged caps the archived trips and each open staging list
const MaxStaged = 50

var (
	ErrNoActiveLeg    = errors.New("no active leg")
	ErrLegInProgress  = errors.New("a leg is already in progress")
	ErrTripInProgress = errors.New("a trip is already in progress")
	ErrNoLegsSelected = errors.New("no open legs selected")
	ErrTripNotFound   = errors.New("trip not found")
	ErrNoAircraft     = errors.New("no aircraft selected")
)

// Store is the durable key-value collaborator. Saving a nil value removes
// the key. Loads return types.ErrNoSavedState for a missing key and
// types.ErrCorruptState for one that cannot be decoded.
type Store interface {
	SaveFlightState(ctx context.Context, state *types.FlightState) error
	LoadFlightState(ctx context.Context) (*types.FlightState, error)
	SaveCurrentTrip(ctx context.Context, trip *types.Trip) error
	LoadCurrentTrip(ctx context.Context) (*types.Trip, error)
	SaveAircraft(ctx context.Context, aircraft *types.Aircraft) error
	LoadAircraft(ctx context.Context) (*types.Aircraft, error)
	SaveArchivedTrips(ctx context.Context, trips []types.Trip) error
	LoadArchivedTrips(ctx context.Context) ([]types.Trip, error)
	SaveOpenLegs(ctx context.Context, legs []types.FlightLeg) error
	LoadOpenLegs(ctx context.Context) ([]types.FlightLeg, error)
	SaveOpenFuelStops(ctx context.Context, stops []types.FuelStop) error
	LoadOpenFuelStops(ctx context.Context) ([]types.FuelStop, error)
}

// EventPublisher receives one event per tracker mutation
type EventPublisher interface {
	PublishEvent(event *types.FlightEvent) error
}

// Archiver keeps closed trips in long-term storage
type Archiver interface {
	ArchiveTrip(ctx context.Context, trip *types.Trip) error
}

// Tracker drives a single pilot's flight. It is not safe for concurrent use.
type Tracker struct {
	store     Store
	publisher EventPublisher
	archiver  Archiver
	stats     *stats.Stats
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string

	flying     bool
	preset     types.Preset
	customFuel types.TankQuantities
	aircraft   *types.Aircraft
	sched      *scheduler.Scheduler
	est        *estimator.Estimator
	leg        *types.FlightLeg
	legOffset  int

	trip      *types.Trip
	archived  []types.Trip
	openLegs  []types.FlightLeg
	openStops []types.FuelStop
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock sets the time source
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// WithIDGenerator sets the id source for legs, stops, trips and swaps
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func WithPublisher(p EventPublisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

func WithArchiver(a Archiver) Option {
	return func(t *Tracker) { t.archiver = a }
}

func WithStats(s *stats.Stats) Option {
	return func(t *Tracker) { t.stats = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates an idle tracker persisting to store
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		stats:  stats.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  time.Now,
		newID:  uuid.NewString,
		est:    estimator.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stats returns the operation counters
func (t *Tracker) Stats() *stats.Stats {
	return t.stats
}

func (t *Tracker) newScheduler(preset types.Preset, start types.TankQuantities) *scheduler.Scheduler {
	s := scheduler.New(preset, start)
	s.NewID = t.newID
	return s
}

func (t *Tracker) publish(event types.FlightEvent) {
	if t.publisher == nil {
		return
	}
	event.Timestamp = t.clock()
	if event.TripID == "" && t.trip != nil {
		event.TripID = t.trip.ID
	}
	if t.sched != nil {
		event.TotalRemaining = t.sched.TotalRemaining()
	}
	if err := t.publisher.PublishEvent(&event); err != nil {
		t.logger.Warn("Failed to publish flight event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
	}
}

func appendCapped[T any](list []T, item T) []T {
	list = append(list, item)
	if over := len(list) - MaxStaged; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	return list
}
