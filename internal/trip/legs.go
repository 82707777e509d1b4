package trip

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/saviobatista/fuelbal/internal/types"
)

// FuelPurchase carries the optional receipt data of a refuel
type FuelPurchase struct {
	PricePerGallon *float64
	TotalCost      *float64
	MiscCost       *float64
	Location       string
	Notes          string
	PostFuelLevels *types.TankQuantities
}

func (t *Tracker) nextLegNumber() int {
	n := len(t.openLegs) + 1
	if t.trip != nil {
		n += len(t.trip.Legs)
	}
	return n
}

func (t *Tracker) openLeg(start types.TankQuantities) {
	t.leg = &types.FlightLeg{
		ID:           t.newID(),
		LegNumber:    t.nextLegNumber(),
		Preset:       t.preset,
		StartTime:    t.clock(),
		StartingFuel: start,
	}
	if t.aircraft != nil {
		t.leg.AircraftID = t.aircraft.ID
	}
	t.legOffset = 0
	if t.sched != nil {
		t.legOffset = t.sched.SwapCount()
	}
	t.flying = true
	t.est.Reset()
	t.stats.IncrementLegsStarted()
	t.publish(types.FlightEvent{Type: types.EventLegStarted, LegID: t.leg.ID, LegNumber: t.leg.LegNumber})
}

// legLog returns the swap entries that belong to the current leg
func (t *Tracker) legLog() []types.SwapEntry {
	if t.sched == nil {
		return nil
	}
	log := t.sched.Log()
	if t.legOffset > len(log) {
		return nil
	}
	return log[t.legOffset:]
}

func (t *Tracker) elapsed() time.Duration {
	if t.leg == nil {
		return 0
	}
	return t.clock().Sub(t.leg.StartTime)
}

// finalizeLeg closes the current leg and files it under the current trip,
// or the open staging list when there is no trip
func (t *Tracker) finalizeLeg() *types.FlightLeg {
	if t.leg == nil {
		return nil
	}
	now := t.clock()
	t.stopEngineClock(now)

	leg := *t.leg
	leg.EndTime = &now
	leg.SwapLog = t.legLog()
	leg.EndingFuel = t.sched.Ledger().RemainingAll()
	leg.EndTank = t.sched.CurrentTank()
	leg.EndPhase = t.sched.Phase()
	leg.EndMode = t.sched.Mode()

	if t.trip != nil {
		t.trip.Legs = append(t.trip.Legs, leg)
	} else {
		t.openLegs = appendCapped(t.openLegs, leg)
	}
	t.leg = nil
	t.stats.IncrementLegsCompleted()
	return &leg
}

// lastLeg returns the most recently finalized leg still held by the tracker
func (t *Tracker) lastLeg() *types.FlightLeg {
	if t.trip != nil && len(t.trip.Legs) > 0 {
		return &t.trip.Legs[len(t.trip.Legs)-1]
	}
	if len(t.openLegs) > 0 {
		return &t.openLegs[len(t.openLegs)-1]
	}
	return nil
}

func (t *Tracker) fileStop(stop types.FuelStop) {
	if t.trip != nil {
		t.trip.FuelStops = append(t.trip.FuelStops, stop)
		return
	}
	t.openStops = appendCapped(t.openStops, stop)
}

// StartLeg begins a new leg on aircraft with the preset's starting fuel.
// A cancelled leg is discarded.
func (t *Tracker) StartLeg(ctx context.Context, preset types.Preset, aircraft types.Aircraft, custom types.TankQuantities) (*types.FlightLeg, error) {
	if t.leg != nil && t.flying {
		return nil, ErrLegInProgress
	}
	if len(aircraft.Tanks) == 0 {
		return nil, ErrNoAircraft
	}
	t.leg = nil
	t.aircraft = &aircraft
	t.preset = preset
	t.customFuel = types.TankQuantities{}
	if preset == types.PresetCustom {
		t.customFuel = aircraft.ClampToCapacity(custom)
	}

	start := preset.StartingFuel(&aircraft, custom)
	t.sched = t.newScheduler(preset, start)
	t.openLeg(start)

	leg := *t.leg
	return &leg, t.persist(ctx, dirtyFlight|dirtyAircraft)
}

// LogSwap records a tank swap at the totalizer reading. It returns a nil
// entry without changing anything once fuel is exhausted.
func (t *Tracker) LogSwap(ctx context.Context, reading float64) (*types.SwapEntry, error) {
	if t.leg == nil || !t.flying {
		return nil, ErrNoActiveLeg
	}
	if t.sched.FuelExhausted() {
		return nil, nil
	}
	if err := t.sched.ValidateReading(reading); err != nil {
		t.stats.IncrementRejectedReadings()
		return nil, err
	}
	if !t.sched.LogSwap(reading, t.elapsed()) {
		return nil, nil
	}
	log := t.sched.Log()
	entry := log[len(log)-1]

	t.est.Reset()
	t.stats.IncrementSwapsLogged()
	t.publish(types.FlightEvent{
		Type:      types.EventSwapLogged,
		LegID:     t.leg.ID,
		LegNumber: t.leg.LegNumber,
		Tank:      entry.Tank.Key(),
		Reading:   entry.Totalizer,
		Burned:    entry.Burned,
	})
	return &entry, t.persist(ctx, dirtyFlight)
}

// UndoLastSwap removes the last swap of the current leg. It returns a nil
// entry when the leg has no swaps.
func (t *Tracker) UndoLastSwap(ctx context.Context) (*types.SwapEntry, error) {
	if t.leg == nil {
		return nil, ErrNoActiveLeg
	}
	if t.sched.SwapCount() <= t.legOffset {
		return nil, nil
	}
	entry, ok := t.sched.UndoLastSwap()
	if !ok {
		return nil, nil
	}

	t.est.Reset()
	t.stats.IncrementSwapsUndone()
	t.publish(types.FlightEvent{
		Type:      types.EventSwapUndone,
		LegID:     t.leg.ID,
		LegNumber: t.leg.LegNumber,
		Tank:      entry.Tank.Key(),
		Reading:   entry.Totalizer,
		Burned:    entry.Burned,
	})
	return &entry, t.persist(ctx, dirtyFlight)
}

// Shutdown books the final burn at the shutdown reading, stops the engine
// clock and finalizes the leg
func (t *Tracker) Shutdown(ctx context.Context, reading float64) (*types.FlightLeg, error) {
	if t.leg == nil {
		return nil, ErrNoActiveLeg
	}
	event := types.FlightEvent{Type: types.EventShutdown, LegID: t.leg.ID, LegNumber: t.leg.LegNumber}
	if !t.sched.FuelExhausted() {
		if err := t.sched.ValidateReading(reading); err != nil {
			t.stats.IncrementRejectedReadings()
			return nil, err
		}
		if entry, ok := t.sched.Shutdown(reading, t.elapsed()); ok {
			event.Tank = entry.Tank.Key()
			event.Reading = entry.Totalizer
			event.Burned = entry.Burned
		}
	}

	leg := t.finalizeLeg()
	t.flying = false
	t.publish(event)
	return leg, t.persist(ctx, dirtyFlight|dirtyTrip|dirtyOpenLegs)
}

func (t *Tracker) engineRunning() bool {
	l := t.leg
	return l != nil && l.EngineStart != nil && (l.EngineStop == nil || l.EngineStop.Before(*l.EngineStart))
}

func (t *Tracker) stopEngineClock(now time.Time) {
	if !t.engineRunning() {
		return
	}
	t.leg.EngineTime += now.Sub(*t.leg.EngineStart)
	t.leg.EngineStop = &now
}

// StartEngine starts the engine clock of the current leg. EngineStart
// holds the latest start.
func (t *Tracker) StartEngine(ctx context.Context) error {
	if t.leg == nil {
		return ErrNoActiveLeg
	}
	if t.engineRunning() {
		return nil
	}
	now := t.clock()
	t.leg.EngineStart = &now
	return t.persist(ctx, dirtyFlight)
}

// StopEngine stops the engine clock and adds the run to the engine time
func (t *Tracker) StopEngine(ctx context.Context) error {
	if t.leg == nil {
		return ErrNoActiveLeg
	}
	if !t.engineRunning() {
		return nil
	}
	t.stopEngineClock(t.clock())
	return t.persist(ctx, dirtyFlight)
}

// EngineTime is the accumulated engine time of the current leg
func (t *Tracker) EngineTime() time.Duration {
	if t.leg == nil {
		return 0
	}
	d := t.leg.EngineTime
	if t.engineRunning() {
		d += t.clock().Sub(*t.leg.EngineStart)
	}
	return d
}

// AddFuel records a refuel to newLevels, finalizing the current leg and
// starting a new custom leg seeded from the new levels
func (t *Tracker) AddFuel(ctx context.Context, newLevels types.TankQuantities, p FuelPurchase) (*types.FuelStop, error) {
	if t.sched == nil {
		return nil, ErrNoActiveLeg
	}
	if t.aircraft == nil {
		return nil, ErrNoAircraft
	}
	levels := t.aircraft.ClampToCapacity(newLevels)
	remaining := t.sched.Ledger().RemainingAll()

	var added types.TankQuantities
	for _, tank := range types.AllTanks {
		added.Set(tank, math.Max(0, levels.Get(tank)-remaining.Get(tank)))
	}

	prior := t.finalizeLeg()
	if prior == nil {
		prior = t.lastLeg()
	}
	stop := types.FuelStop{
		ID:             t.newID(),
		Timestamp:      t.clock(),
		FuelAdded:      added,
		PricePerGallon: p.PricePerGallon,
		TotalCost:      p.TotalCost,
		MiscCost:       p.MiscCost,
		Location:       p.Location,
		Notes:          p.Notes,
	}
	if prior != nil {
		stop.LegID = prior.ID
	}
	if p.PostFuelLevels != nil {
		post := *p.PostFuelLevels
		stop.PostFuelLevels = &post
	}
	t.fileStop(stop)
	t.stats.IncrementFuelStops()
	t.publish(types.FlightEvent{Type: types.EventFuelAdded, LegID: stop.LegID, FuelAdded: stop.TotalAdded()})

	t.preset = types.PresetCustom
	t.customFuel = levels
	t.sched = t.newScheduler(types.PresetCustom, levels)
	t.openLeg(levels)

	return &stop, t.persist(ctx, dirtyFlight|dirtyTrip|dirtyOpenLegs|dirtyOpenStops)
}

// ResumeWithoutFuel closes the current leg at a ground stop and starts the
// next leg on the same ledger. A zero-fuel stop is recorded when a misc
// cost or notes are given.
func (t *Tracker) ResumeWithoutFuel(ctx context.Context, miscCost *float64, notes string) (*types.FlightLeg, error) {
	if t.sched == nil {
		return nil, ErrNoActiveLeg
	}
	prior := t.finalizeLeg()
	if prior == nil {
		prior = t.lastLeg()
	}

	d := dirtyFlight | dirtyTrip | dirtyOpenLegs
	if miscCost != nil || notes != "" {
		stop := types.FuelStop{
			ID:        t.newID(),
			Timestamp: t.clock(),
			MiscCost:  miscCost,
			Notes:     notes,
		}
		if prior != nil {
			stop.LegID = prior.ID
		}
		t.fileStop(stop)
		t.stats.IncrementRestStops()
		d |= dirtyOpenStops
	}
	t.publish(types.FlightEvent{Type: types.EventRestStop})

	t.openLeg(t.sched.Ledger().RemainingAll())
	leg := *t.leg
	return &leg, t.persist(ctx, d)
}

// LogObservedGPH records a fuel flow reading for the countdown
func (t *Tracker) LogObservedGPH(ctx context.Context, rate float64) error {
	if t.leg == nil || !t.flying {
		return ErrNoActiveLeg
	}
	if err := t.est.Observe(t.elapsed(), rate); err != nil {
		return fmt.Errorf("failed to record fuel flow: %w", err)
	}
	t.stats.IncrementGPHObservations()
	t.publish(types.FlightEvent{Type: types.EventGPHObserved, LegID: t.leg.ID, LegNumber: t.leg.LegNumber, Reading: rate})
	return t.persist(ctx, dirtyFlight)
}

// CancelFlight stops flying but keeps the flight state
func (t *Tracker) CancelFlight(ctx context.Context) error {
	t.flying = false
	return t.persist(ctx, dirtyFlight)
}

// ClearFlight drops the live flight. Trips and staging are kept.
func (t *Tracker) ClearFlight(ctx context.Context) error {
	t.flying = false
	t.sched = nil
	t.leg = nil
	t.legOffset = 0
	t.preset = ""
	t.customFuel = types.TankQuantities{}
	t.est.Reset()
	return t.persist(ctx, dirtyFlight)
}
