package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Store persists a stats snapshot
type Store interface {
	StoreSessionStats(stats map[string]interface{}) error
}

// Stats counts tracker operations over one session
type Stats struct {
	// Swap log
	SwapsLogged      uint64
	SwapsUndone      uint64
	RejectedReadings uint64

	// Legs and trips
	LegsStarted   uint64
	LegsCompleted uint64
	FuelStops     uint64
	RestStops     uint64
	TripsArchived uint64

	// Estimator
	GPHObservations uint64

	// Persistence
	PersistFailures uint64

	// Timing
	StartedAt     time.Time
	LastEventTime time.Time

	store  Store
	logger *slog.Logger

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	now := time.Now()
	return &Stats{
		StartedAt:     now,
		LastEventTime: now,
		logger:        slog.Default(),
	}
}

// SetStore sets the store used by Persist
func (s *Stats) SetStore(store Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// SetLogger sets the logger for persistence failures
func (s *Stats) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Persist stores the current statistics
func (s *Stats) Persist() error {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return fmt.Errorf("stats store not set")
	}
	return store.StoreSessionStats(s.GetStats())
}

func (s *Stats) touch() {
	s.mu.Lock()
	s.LastEventTime = time.Now()
	s.mu.Unlock()
}

// IncrementSwapsLogged increments the logged swaps counter
func (s *Stats) IncrementSwapsLogged() {
	atomic.AddUint64(&s.SwapsLogged, 1)
	s.touch()
}

// IncrementSwapsUndone increments the undone swaps counter
func (s *Stats) IncrementSwapsUndone() {
	atomic.AddUint64(&s.SwapsUndone, 1)
	s.touch()
}

// IncrementRejectedReadings counts totalizer readings that failed validation
func (s *Stats) IncrementRejectedReadings() {
	atomic.AddUint64(&s.RejectedReadings, 1)
}

func (s *Stats) IncrementLegsStarted() {
	atomic.AddUint64(&s.LegsStarted, 1)
	s.touch()
}

func (s *Stats) IncrementLegsCompleted() {
	atomic.AddUint64(&s.LegsCompleted, 1)
	s.touch()
}

func (s *Stats) IncrementFuelStops() {
	atomic.AddUint64(&s.FuelStops, 1)
	s.touch()
}

func (s *Stats) IncrementRestStops() {
	atomic.AddUint64(&s.RestStops, 1)
	s.touch()
}

func (s *Stats) IncrementTripsArchived() {
	atomic.AddUint64(&s.TripsArchived, 1)
	s.touch()
}

func (s *Stats) IncrementGPHObservations() {
	atomic.AddUint64(&s.GPHObservations, 1)
	s.touch()
}

// IncrementPersistFailures counts failed state writes
func (s *Stats) IncrementPersistFailures() {
	atomic.AddUint64(&s.PersistFailures, 1)
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"swaps_logged":      atomic.LoadUint64(&s.SwapsLogged),
		"swaps_undone":      atomic.LoadUint64(&s.SwapsUndone),
		"rejected_readings": atomic.LoadUint64(&s.RejectedReadings),
		"legs_started":      atomic.LoadUint64(&s.LegsStarted),
		"legs_completed":    atomic.LoadUint64(&s.LegsCompleted),
		"fuel_stops":        atomic.LoadUint64(&s.FuelStops),
		"rest_stops":        atomic.LoadUint64(&s.RestStops),
		"trips_archived":    atomic.LoadUint64(&s.TripsArchived),
		"gph_observations":  atomic.LoadUint64(&s.GPHObservations),
		"persist_failures":  atomic.LoadUint64(&s.PersistFailures),
		"started_at":        s.StartedAt,
		"last_event_time":   s.LastEventTime,
		"uptime":            time.Since(s.StartedAt),
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()
	return fmt.Sprintf(
		"Swaps Logged: %d\n"+
			"Swaps Undone: %d\n"+
			"Rejected Readings: %d\n"+
			"Legs Started: %d\n"+
			"Legs Completed: %d\n"+
			"Fuel Stops: %d\n"+
			"Rest Stops: %d\n"+
			"Trips Archived: %d\n"+
			"GPH Observations: %d\n"+
			"Persist Failures: %d\n"+
			"Last Event Time: %s\n"+
			"Uptime: %s",
		stats["swaps_logged"],
		stats["swaps_undone"],
		stats["rejected_readings"],
		stats["legs_started"],
		stats["legs_completed"],
		stats["fuel_stops"],
		stats["rest_stops"],
		stats["trips_archived"],
		stats["gph_observations"],
		stats["persist_failures"],
		stats["last_event_time"],
		stats["uptime"],
	)
}

// StartPersistence starts periodic persistence of statistics
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final persistence before shutdown
			if err := s.Persist(); err != nil {
				s.warn("Failed to persist final statistics", err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				s.warn("Failed to persist statistics", err)
			}
		}
	}
}

func (s *Stats) warn(msg string, err error) {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()
	logger.Warn(msg, slog.Any("error", err))
}
