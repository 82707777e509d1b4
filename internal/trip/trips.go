package trip

import (
	"context"
	"log/slog"
	"sort"

	"github.com/saviobatista/fuelbal/internal/types"
)

func defaultTripName(trip *types.Trip) string {
	return "Trip " + trip.StartDate.Format("Jan 2, 2006")
}

// StartTrip opens a current trip. Legs and stops finalized while it is
// open are filed under it.
func (t *Tracker) StartTrip(ctx context.Context, name string) (*types.Trip, error) {
	if t.trip != nil {
		return nil, ErrTripInProgress
	}
	t.trip = &types.Trip{
		ID:        t.newID(),
		Name:      name,
		StartDate: t.clock(),
	}
	if t.trip.Name == "" {
		t.trip.Name = defaultTripName(t.trip)
	}
	out := *t.trip
	return &out, t.persist(ctx, dirtyTrip)
}

func (t *Tracker) archive(ctx context.Context, trip types.Trip) {
	t.archived = appendCapped(t.archived, trip)
	t.stats.IncrementTripsArchived()
	if t.archiver == nil {
		return
	}
	if err := t.archiver.ArchiveTrip(ctx, &trip); err != nil {
		t.logger.Warn("Failed to archive trip",
			slog.String("trip_id", trip.ID),
			slog.Any("error", err))
	}
}

// EndTrip finalizes any open leg, archives the current trip and returns the
// tracker to idle. Without a current trip the leg goes to open staging and
// the returned trip is nil.
func (t *Tracker) EndTrip(ctx context.Context) (*types.Trip, error) {
	t.finalizeLeg()

	var closed *types.Trip
	if t.trip != nil {
		now := t.clock()
		trip := *t.trip
		trip.EndDate = &now
		trip.Archived = true
		t.archive(ctx, trip)
		closed = &trip
		t.publish(types.FlightEvent{Type: types.EventTripEnded, TripID: trip.ID})
		t.trip = nil
	}

	t.flying = false
	t.sched = nil
	t.leg = nil
	t.legOffset = 0
	t.preset = ""
	t.customFuel = types.TankQuantities{}
	t.est.Reset()

	return closed, t.persist(ctx, dirtyAll)
}

// AssembleTrip packages the selected open legs, in start order, and the
// open stops attached to them or falling within their span into a new
// archived trip
func (t *Tracker) AssembleTrip(ctx context.Context, legIDs []string, name string) (*types.Trip, error) {
	want := make(map[string]bool, len(legIDs))
	for _, id := range legIDs {
		want[id] = true
	}

	var selected, keepLegs []types.FlightLeg
	for _, leg := range t.openLegs {
		if want[leg.ID] {
			selected = append(selected, leg)
		} else {
			keepLegs = append(keepLegs, leg)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoLegsSelected
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StartTime.Before(selected[j].StartTime)
	})

	first, last := selected[0].StartTime, selected[0].StartTime
	for i := range selected {
		end := selected[i].StartTime
		if selected[i].EndTime != nil {
			end = *selected[i].EndTime
		}
		if end.After(last) {
			last = end
		}
	}

	var stops, keepStops []types.FuelStop
	for _, stop := range t.openStops {
		inSpan := !stop.Timestamp.Before(first) && !stop.Timestamp.After(last)
		if want[stop.LegID] || inSpan {
			stops = append(stops, stop)
		} else {
			keepStops = append(keepStops, stop)
		}
	}
	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].Timestamp.Before(stops[j].Timestamp)
	})

	trip := types.Trip{
		ID:        t.newID(),
		Name:      name,
		Legs:      selected,
		FuelStops: stops,
		StartDate: first,
		EndDate:   &last,
		Archived:  true,
	}
	if trip.Name == "" {
		trip.Name = defaultTripName(&trip)
	}

	t.openLegs = keepLegs
	t.openStops = keepStops
	t.archive(ctx, trip)
	t.publish(types.FlightEvent{Type: types.EventTripAssembled, TripID: trip.ID})

	return &trip, t.persist(ctx, dirtyArchive|dirtyOpenLegs|dirtyOpenStops)
}
