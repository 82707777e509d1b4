package trip

import (
	"time"

	"github.com/saviobatista/fuelbal/internal/estimator"
	"github.com/saviobatista/fuelbal/internal/reconcile"
	"github.com/saviobatista/fuelbal/internal/scheduler"
	"github.com/saviobatista/fuelbal/internal/types"
)

// Status is a snapshot of the live flight for display
type Status struct {
	Flying         bool
	Idle           bool
	TripName       string
	Aircraft       string
	LegID          string
	LegNumber      int
	Preset         types.Preset
	CurrentTank    types.Tank
	Phase          types.Phase
	Mode           types.FlightMode
	Exhausted      bool
	SwapCount      int
	Remaining      types.TankQuantities
	TotalRemaining float64
	FuelWeight     float64
	LowTanks       []types.Tank
	Recommendation scheduler.Target
	Elapsed        time.Duration
	EngineTime     time.Duration
	Countdown      time.Duration
}

func (t *Tracker) Remaining(tank types.Tank) float64 {
	if t.sched == nil {
		return 0
	}
	return t.sched.Remaining(tank)
}

func (t *Tracker) TotalRemaining() float64 {
	if t.sched == nil {
		return 0
	}
	return t.sched.TotalRemaining()
}

func (t *Tracker) NextTank() (types.Tank, bool) {
	if t.sched == nil {
		return 0, false
	}
	return t.sched.NextTank()
}

func (t *Tracker) CalcTargets() (scheduler.Targets, bool) {
	if t.sched == nil {
		return scheduler.Targets{}, false
	}
	return t.sched.CalcTargets()
}

func (t *Tracker) MaxTarget() (float64, bool) {
	if t.sched == nil {
		return 0, false
	}
	return t.sched.MaxTarget()
}

// Recommendation is the swap target for the active tank
func (t *Tracker) Recommendation() scheduler.Target {
	if t.sched == nil {
		return scheduler.Target{Kind: scheduler.TargetNone, Label: scheduler.TargetNone.String()}
	}
	return t.sched.Recommendation()
}

// ElapsedLegTime is the time since the current leg started
func (t *Tracker) ElapsedLegTime() time.Duration {
	return t.elapsed()
}

// CountdownToSwap estimates the time left until the swap target is reached
// at the latest observed fuel flow
func (t *Tracker) CountdownToSwap() time.Duration {
	if t.sched == nil || t.leg == nil {
		return 0
	}
	rec := t.sched.Recommendation()
	var target float64
	switch {
	case rec.Valued:
		target = rec.Value
	case rec.Choices != nil:
		target = rec.Choices.Balanced
	default:
		return 0
	}
	available := target
	if last, ok := t.sched.LastReading(); ok {
		available = target - last
	}
	return t.est.Countdown(available, t.elapsed())
}

func (t *Tracker) FormattedCountdownTime() string {
	return estimator.FormatCountdown(t.CountdownToSwap())
}

// PredictedBurn is the fuel burned since the last swap at the observed rates
func (t *Tracker) PredictedBurn() float64 {
	return t.est.PredictedBurn(t.elapsed())
}

func (t *Tracker) Status() Status {
	s := Status{
		Flying:         t.flying,
		Idle:           t.sched == nil,
		Recommendation: t.Recommendation(),
		Elapsed:        t.elapsed(),
		EngineTime:     t.EngineTime(),
		Countdown:      t.CountdownToSwap(),
	}
	if t.trip != nil {
		s.TripName = t.trip.Name
	}
	if t.aircraft != nil {
		s.Aircraft = t.aircraft.TailNumber
	}
	if t.leg != nil {
		s.LegID = t.leg.ID
		s.LegNumber = t.leg.LegNumber
	}
	if t.sched == nil {
		return s
	}

	s.Preset = t.preset
	s.CurrentTank = t.sched.CurrentTank()
	s.Phase = t.sched.Phase()
	s.Mode = t.sched.Mode()
	s.Exhausted = t.sched.FuelExhausted()
	s.SwapCount = len(t.legLog())
	s.Remaining = t.sched.Ledger().RemainingAll()
	s.TotalRemaining = t.sched.TotalRemaining()

	fuel := types.FuelAvgas
	if t.aircraft != nil {
		fuel = t.aircraft.FuelType
	}
	s.FuelWeight = s.TotalRemaining * fuel.WeightPerGallon()

	for _, tank := range types.AllTanks {
		if t.sched.Ledger().StartingFuel(tank) > 0 && s.Remaining.Get(tank) < scheduler.LowWarn {
			s.LowTanks = append(s.LowTanks, tank)
		}
	}
	return s
}

// CurrentLeg returns a copy of the leg in progress with its swaps
func (t *Tracker) CurrentLeg() *types.FlightLeg {
	if t.leg == nil {
		return nil
	}
	leg := *t.leg
	leg.SwapLog = t.legLog()
	return &leg
}

func (t *Tracker) Aircraft() *types.Aircraft {
	if t.aircraft == nil {
		return nil
	}
	a := *t.aircraft
	return &a
}

func (t *Tracker) CurrentTrip() *types.Trip {
	if t.trip == nil {
		return nil
	}
	trip := *t.trip
	return &trip
}

func (t *Tracker) ArchivedTrips() []types.Trip {
	return append([]types.Trip(nil), t.archived...)
}

func (t *Tracker) OpenLegs() []types.FlightLeg {
	return append([]types.FlightLeg(nil), t.openLegs...)
}

func (t *Tracker) OpenFuelStops() []types.FuelStop {
	return append([]types.FuelStop(nil), t.openStops...)
}

// Trip finds the current or an archived trip by id. An empty id picks the
// current trip, or else the latest archived one.
func (t *Tracker) Trip(id string) (*types.Trip, error) {
	if t.trip != nil && (id == "" || id == t.trip.ID) {
		return t.CurrentTrip(), nil
	}
	for i := len(t.archived) - 1; i >= 0; i-- {
		if id == "" || t.archived[i].ID == id {
			trip := t.archived[i]
			return &trip, nil
		}
	}
	return nil, ErrTripNotFound
}

// Reconcile compares tracked against receipt fuel for a trip
func (t *Tracker) Reconcile(tripID string) (reconcile.TripReconciliation, error) {
	trip, err := t.Trip(tripID)
	if err != nil {
		return reconcile.TripReconciliation{}, err
	}
	return reconcile.ReconcileTrip(trip), nil
}
