package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saviobatista/fuelbal/internal/types"
)

// dirty marks which stored keys a mutation touched
type dirty uint8

const (
	dirtyFlight dirty = 1 << iota
	dirtyTrip
	dirtyAircraft
	dirtyArchive
	dirtyOpenLegs
	dirtyOpenStops

	dirtyAll = dirtyFlight | dirtyTrip | dirtyAircraft | dirtyArchive | dirtyOpenLegs | dirtyOpenStops
)

// flightState captures the live flight, or nil when idle
func (t *Tracker) flightState() *types.FlightState {
	if t.sched == nil {
		return nil
	}
	st := t.sched.State()
	st.Flying = t.flying
	st.Preset = t.preset
	st.CustomFuel = t.customFuel
	if t.aircraft != nil {
		st.AircraftID = t.aircraft.ID
	}
	if t.leg != nil {
		leg := *t.leg
		leg.SwapLog = nil
		st.CurrentLeg = &leg
	}
	st.LegSwapOffset = t.legOffset
	st.GPHLog = t.est.Entries()
	return &st
}

// persist writes the touched keys. The in-memory state is kept whether or
// not the writes succeed.
func (t *Tracker) persist(ctx context.Context, d dirty) error {
	var errs []error
	save := func(flag dirty, what string, fn func() error) {
		if d&flag == 0 {
			return
		}
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s: %w", what, err))
		}
	}

	save(dirtyFlight, "flight state", func() error { return t.store.SaveFlightState(ctx, t.flightState()) })
	save(dirtyTrip, "current trip", func() error { return t.store.SaveCurrentTrip(ctx, t.trip) })
	save(dirtyAircraft, "aircraft", func() error { return t.store.SaveAircraft(ctx, t.aircraft) })
	save(dirtyArchive, "archived trips", func() error { return t.store.SaveArchivedTrips(ctx, t.archived) })
	save(dirtyOpenLegs, "open legs", func() error { return t.store.SaveOpenLegs(ctx, t.openLegs) })
	save(dirtyOpenStops, "open fuel stops", func() error { return t.store.SaveOpenFuelStops(ctx, t.openStops) })

	if len(errs) > 0 {
		t.stats.IncrementPersistFailures()
		err := errors.Join(errs...)
		t.logger.Error("Failed to persist tracker state", slog.Any("error", err))
		return err
	}
	return nil
}
