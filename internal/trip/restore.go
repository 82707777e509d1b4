package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saviobatista/fuelbal/internal/estimator"
	"github.com/saviobatista/fuelbal/internal/scheduler"
	"github.com/saviobatista/fuelbal/internal/types"
)

// LoadStatus is the outcome of loading one stored key
type LoadStatus string

const (
	LoadLoaded  LoadStatus = "loaded"
	LoadMissing LoadStatus = "missing"
	LoadCorrupt LoadStatus = "corrupt"
	LoadFailed  LoadStatus = "failed"
)

// KeyResult reports how one key loaded
type KeyResult struct {
	Key    string
	Status LoadStatus
	Err    error
}

// RestoreReport lists the load outcome of every key
type RestoreReport struct {
	Results []KeyResult
}

// Problems returns the keys that were neither loaded nor missing
func (r RestoreReport) Problems() []KeyResult {
	var out []KeyResult
	for _, res := range r.Results {
		if res.Status == LoadCorrupt || res.Status == LoadFailed {
			out = append(out, res)
		}
	}
	return out
}

func (r RestoreReport) Status(key string) LoadStatus {
	for _, res := range r.Results {
		if res.Key == key {
			return res.Status
		}
	}
	return ""
}

func (r RestoreReport) String() string {
	parts := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		parts = append(parts, fmt.Sprintf("%s=%s", res.Key, res.Status))
	}
	return strings.Join(parts, " ")
}

func classify(err error) LoadStatus {
	switch {
	case err == nil:
		return LoadLoaded
	case errors.Is(err, types.ErrNoSavedState):
		return LoadMissing
	case errors.Is(err, types.ErrCorruptState):
		return LoadCorrupt
	default:
		return LoadFailed
	}
}

const (
	KeyFlightState   = "flight_state"
	KeyCurrentTrip   = "current_trip"
	KeyAircraft      = "aircraft"
	KeyArchivedTrips = "archived_trips"
	KeyOpenLegs      = "open_legs"
	KeyOpenFuelStops = "open_fuel_stops"
)

// Restore loads every stored key. A key that is missing, corrupt or
// unreadable leaves its part of the tracker empty and is reported.
func (t *Tracker) Restore(ctx context.Context) RestoreReport {
	var report RestoreReport
	record := func(key string, err error) bool {
		res := KeyResult{Key: key, Status: classify(err), Err: err}
		report.Results = append(report.Results, res)
		if res.Status == LoadCorrupt || res.Status == LoadFailed {
			t.logger.Warn("Failed to restore saved state",
				slog.String("key", key),
				slog.String("status", string(res.Status)),
				slog.Any("error", err))
		}
		return err == nil
	}

	if a, err := t.store.LoadAircraft(ctx); record(KeyAircraft, err) {
		t.aircraft = a
	}
	if trip, err := t.store.LoadCurrentTrip(ctx); record(KeyCurrentTrip, err) {
		t.trip = trip
	}
	if trips, err := t.store.LoadArchivedTrips(ctx); record(KeyArchivedTrips, err) {
		t.archived = trips
	}
	if legs, err := t.store.LoadOpenLegs(ctx); record(KeyOpenLegs, err) {
		t.openLegs = legs
	}
	if stops, err := t.store.LoadOpenFuelStops(ctx); record(KeyOpenFuelStops, err) {
		t.openStops = stops
	}
	if st, err := t.store.LoadFlightState(ctx); record(KeyFlightState, err) && st != nil {
		t.restoreFlight(st)
	}
	return report
}

func (t *Tracker) restoreFlight(st *types.FlightState) {
	t.sched = scheduler.Restore(*st)
	t.sched.NewID = t.newID
	t.flying = st.Flying
	t.preset = st.Preset
	t.customFuel = st.CustomFuel
	t.est = estimator.Restore(st.GPHLog)

	t.leg = nil
	if st.CurrentLeg != nil {
		leg := *st.CurrentLeg
		t.leg = &leg
	}
	t.legOffset = st.LegSwapOffset
	if t.legOffset < 0 || t.legOffset > t.sched.SwapCount() {
		t.legOffset = 0
	}
}
