// Package reconcile compares the fuel a leg tracked against the actual
// level inferred from the receipt at the following fuel stop.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/saviobatista/fuelbal/internal/types"
)

const (
	// Tolerance is the variance band treated as accurate tracking
	Tolerance = 0.5
	// MinorBand separates minor from significant variance
	MinorBand = 2.0
)

// Status classifies a variance
type Status string

const (
	StatusWithinTolerance  Status = "WITHIN TOLERANCE"
	StatusOptimistic       Status = "OPTIMISTIC"
	StatusConservative     Status = "CONSERVATIVE"
	StatusInsufficientData Status = "INSUFFICIENT DATA"
)

// Severity grades a variance outside tolerance
type Severity string

const (
	SeverityNone        Severity = ""
	SeverityMinor       Severity = "MINOR"
	SeveritySignificant Severity = "SIGNIFICANT"
)

// Classify maps a variance in gallons to its status and severity
func Classify(variance float64) (Status, Severity) {
	abs := math.Abs(variance)
	switch {
	case abs < Tolerance:
		return StatusWithinTolerance, SeverityNone
	case variance > 0 && abs < MinorBand:
		return StatusOptimistic, SeverityMinor
	case variance > 0:
		return StatusOptimistic, SeveritySignificant
	case abs < MinorBand:
		return StatusConservative, SeverityMinor
	default:
		return StatusConservative, SeveritySignificant
	}
}

// LegReconciliation is one leg matched with the fuel stop that followed it
type LegReconciliation struct {
	LegID        string               `json:"leg_id"`
	LegNumber    int                  `json:"leg_number"`
	StopID       string               `json:"stop_id"`
	Location     string               `json:"location,omitempty"`
	Tracked      types.TankQuantities `json:"tracked"`
	TrackedTotal float64              `json:"tracked_total"`
	HasActual    bool                 `json:"has_actual"`
	Actual       types.TankQuantities `json:"actual"`
	ActualTotal  float64              `json:"actual_total"`
	Variance     float64              `json:"variance"`
	Status       Status               `json:"status"`
	Severity     Severity             `json:"severity,omitempty"`
}

// TankVariance is tracked minus actual for one tank
func (r LegReconciliation) TankVariance(t types.Tank) float64 {
	return r.Tracked.Get(t) - r.Actual.Get(t)
}

func (r LegReconciliation) Description() string {
	return describe(r.Status, r.Severity, r.Variance)
}

func describe(status Status, severity Severity, variance float64) string {
	switch status {
	case StatusWithinTolerance:
		return fmt.Sprintf("Within tolerance (%+.1f gal)", variance)
	case StatusOptimistic:
		return fmt.Sprintf("%s optimistic: tracked %.1f gal more than actual", titleSeverity(severity), variance)
	case StatusConservative:
		return fmt.Sprintf("%s conservative: tracked %.1f gal less than actual", titleSeverity(severity), -variance)
	default:
		return "Insufficient data for reconciliation"
	}
}

func titleSeverity(s Severity) string {
	if s == SeveritySignificant {
		return "Significantly"
	}
	return "Slightly"
}

// TrackedEnding is the leg's ending fuel per tank attributed from its swap log
func TrackedEnding(leg *types.FlightLeg) types.TankQuantities {
	burned := leg.BurnedByTank()
	var out types.TankQuantities
	for _, t := range types.AllTanks {
		out.Set(t, math.Max(0, leg.StartingFuel.Get(t)-burned.Get(t)))
	}
	return out
}

// InferredActual is the pre-fuel level implied by a stop's receipt
func InferredActual(stop *types.FuelStop) (types.TankQuantities, bool) {
	if stop.PostFuelLevels == nil {
		return types.TankQuantities{}, false
	}
	return stop.PostFuelLevels.Sub(stop.FuelAdded), true
}

// ReconcileLeg compares one leg against the stop that followed it
func ReconcileLeg(leg *types.FlightLeg, stop *types.FuelStop) LegReconciliation {
	r := LegReconciliation{
		LegID:     leg.ID,
		LegNumber: leg.LegNumber,
		StopID:    stop.ID,
		Location:  stop.Location,
		Tracked:   TrackedEnding(leg),
		Status:    StatusInsufficientData,
	}
	r.TrackedTotal = r.Tracked.Total()

	actual, ok := InferredActual(stop)
	if !ok {
		return r
	}
	r.HasActual = true
	r.Actual = actual
	r.ActualTotal = actual.Total()
	r.Variance = r.TrackedTotal - r.ActualTotal
	r.Status, r.Severity = Classify(r.Variance)
	return r
}

// TripReconciliation collects the leg reconciliations of one trip
type TripReconciliation struct {
	TripID        string              `json:"trip_id"`
	Legs          []LegReconciliation `json:"legs"`
	TotalVariance float64             `json:"total_variance"`
	Status        Status              `json:"status"`
	Severity      Severity            `json:"severity,omitempty"`
}

func (r TripReconciliation) Description() string {
	return describe(r.Status, r.Severity, r.TotalVariance)
}

// ReconcileTrip pairs every fuel stop of the trip with the leg it ended.
// A stop names its leg through LegID; stops without one take the latest
// unmatched leg that ended at or before the stop.
func ReconcileTrip(trip *types.Trip) TripReconciliation {
	out := TripReconciliation{TripID: trip.ID, Status: StatusInsufficientData}

	legs := make([]*types.FlightLeg, len(trip.Legs))
	byID := make(map[string]*types.FlightLeg, len(trip.Legs))
	for i := range trip.Legs {
		legs[i] = &trip.Legs[i]
		byID[legs[i].ID] = legs[i]
	}
	sort.SliceStable(legs, func(i, j int) bool {
		return legs[i].StartTime.Before(legs[j].StartTime)
	})

	stops := make([]*types.FuelStop, 0, len(trip.FuelStops))
	for i := range trip.FuelStops {
		stop := &trip.FuelStops[i]
		if stop.IsRestStop() && stop.PostFuelLevels == nil {
			continue
		}
		stops = append(stops, stop)
	}
	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].Timestamp.Before(stops[j].Timestamp)
	})

	matched := make(map[string]bool)
	for _, stop := range stops {
		if leg, ok := byID[stop.LegID]; ok {
			matched[leg.ID] = true
		}
	}

	hasData := false
	for _, stop := range stops {
		leg, ok := byID[stop.LegID]
		if !ok {
			leg = precedingLeg(legs, stop.Timestamp, matched)
			if leg == nil {
				continue
			}
			matched[leg.ID] = true
		}
		r := ReconcileLeg(leg, stop)
		if r.HasActual {
			hasData = true
			out.TotalVariance += r.Variance
		}
		out.Legs = append(out.Legs, r)
	}

	if hasData {
		out.Status, out.Severity = Classify(out.TotalVariance)
	}
	return out
}

func legEnd(leg *types.FlightLeg) time.Time {
	if leg.EndTime != nil {
		return *leg.EndTime
	}
	return leg.StartTime
}

func precedingLeg(legs []*types.FlightLeg, at time.Time, matched map[string]bool) *types.FlightLeg {
	var best *types.FlightLeg
	for _, leg := range legs {
		if matched[leg.ID] || legEnd(leg).After(at) {
			continue
		}
		best = leg
	}
	return best
}
