package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/saviobatista/fuelbal/internal/types"
)

// MockAircraft returns the N215C preset for tests
func MockAircraft() types.Aircraft {
	return types.N215C()
}

// MockFlightEvent creates a flight event for testing
func MockFlightEvent(eventType types.EventType, legID string) *types.FlightEvent {
	return &types.FlightEvent{
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		LegID:          legID,
		LegNumber:      1,
		Tank:           types.LMain.Key(),
		Reading:        7.0,
		Burned:         7.0,
		TotalRemaining: 77.0,
	}
}

// Clock is a manual time source. Each Now call advances it by Step.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.Step)
	return now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// IDSequence returns a generator of prefix-1, prefix-2, ...
func IDSequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// MemoryStore keeps JSON blobs in a map. Missing keys load as
// types.ErrNoSavedState and undecodable blobs as types.ErrCorruptState.
type MemoryStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	WriteErr error
	Writes   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores raw bytes under key, e.g. to plant a corrupt blob
func (m *MemoryStore) Put(key string, raw []byte) {
	m.mu.Lock()
	m.blobs[key] = raw
	m.mu.Unlock()
}

// Has reports whether key holds a blob
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *MemoryStore) save(key string, v interface{}, isNil bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Writes++
	if isNil {
		delete(m.blobs, key)
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	m.blobs[key] = data
	return nil
}

func (m *MemoryStore) load(key string, target interface{}) error {
	m.mu.Lock()
	data, ok := m.blobs[key]
	m.mu.Unlock()
	if !ok {
		return types.ErrNoSavedState
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrCorruptState, key, err)
	}
	return nil
}

func (m *MemoryStore) SaveFlightState(ctx context.Context, state *types.FlightState) error {
	return m.save("flight_state", state, state == nil)
}

func (m *MemoryStore) LoadFlightState(ctx context.Context) (*types.FlightState, error) {
	var st types.FlightState
	if err := m.load("flight_state", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *MemoryStore) SaveCurrentTrip(ctx context.Context, trip *types.Trip) error {
	return m.save("current_trip", trip, trip == nil)
}

func (m *MemoryStore) LoadCurrentTrip(ctx context.Context) (*types.Trip, error) {
	var trip types.Trip
	if err := m.load("current_trip", &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (m *MemoryStore) SaveAircraft(ctx context.Context, aircraft *types.Aircraft) error {
	return m.save("aircraft", aircraft, aircraft == nil)
}

func (m *MemoryStore) LoadAircraft(ctx context.Context) (*types.Aircraft, error) {
	var a types.Aircraft
	if err := m.load("aircraft", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *MemoryStore) SaveArchivedTrips(ctx context.Context, trips []types.Trip) error {
	return m.save("archived_trips", trips, false)
}

func (m *MemoryStore) LoadArchivedTrips(ctx context.Context) ([]types.Trip, error) {
	var trips []types.Trip
	if err := m.load("archived_trips", &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (m *MemoryStore) SaveOpenLegs(ctx context.Context, legs []types.FlightLeg) error {
	return m.save("open_legs", legs, false)
}

func (m *MemoryStore) LoadOpenLegs(ctx context.Context) ([]types.FlightLeg, error) {
	var legs []types.FlightLeg
	if err := m.load("open_legs", &legs); err != nil {
		return nil, err
	}
	return legs, nil
}

func (m *MemoryStore) SaveOpenFuelStops(ctx context.Context, stops []types.FuelStop) error {
	return m.save("open_fuel_stops", stops, false)
}

func (m *MemoryStore) LoadOpenFuelStops(ctx context.Context) ([]types.FuelStop, error) {
	var stops []types.FuelStop
	if err := m.load("open_fuel_stops", &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

func (m *MemoryStore) SaveCustomAircraft(ctx context.Context, list []types.Aircraft) error {
	return m.save("custom_aircraft", list, false)
}

func (m *MemoryStore) LoadCustomAircraft(ctx context.Context) ([]types.Aircraft, error) {
	var list []types.Aircraft
	if err := m.load("custom_aircraft", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
