// Package report renders trips as plain text for sharing and the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saviobatista/fuelbal/internal/reconcile"
	"github.com/saviobatista/fuelbal/internal/types"
)

const (
	rule      = "==================================="
	thinRule  = "-----------------------------------"
	longTime  = "January 2, 2006 at 3:04 PM"
	shortTime = "3:04 PM"
)

// Detailed renders the full trip report: summary, legs with their swap
// logs, fuel stops and the reconciliation of each refuel.
func Detailed(trip *types.Trip, generated time.Time) string {
	var b strings.Builder
	_ = Write(&b, trip, generated)
	return b.String()
}

// Write renders the detailed report of trip to w
func Write(w io.Writer, trip *types.Trip, generated time.Time) error {
	p := &printer{w: w}

	p.line("FUELBAL DETAILED TRIP REPORT")
	p.line(rule)
	p.line("")
	if trip.Name != "" {
		p.printf("Trip: %s\n", trip.Name)
	}
	p.printf("Start: %s\n", trip.StartDate.Format(longTime))
	if trip.EndDate != nil {
		p.printf("End: %s\n", trip.EndDate.Format(longTime))
	}

	p.line("")
	p.line("SUMMARY:")
	p.printf("Legs: %d\n", len(trip.Legs))
	p.printf("Fuel Stops: %d\n", len(trip.FuelStops))
	p.printf("Total Fuel Consumed: %.1f gal\n", trip.TotalFuelConsumed())
	p.printf("Total Cost: $%.2f\n", trip.TotalFuelCost())
	p.printf("Avg Fuel per Leg: %.1f gal\n", trip.AverageFuelPerLeg())
	p.line("")

	p.line("FLIGHT LEGS:")
	p.line(thinRule)
	for i := range trip.Legs {
		writeLeg(p, &trip.Legs[i])
	}

	if len(trip.FuelStops) > 0 {
		p.line("")
		p.line("")
		p.line("FUEL STOPS:")
		p.line(thinRule)
		for i := range trip.FuelStops {
			writeStop(p, i+1, &trip.FuelStops[i])
		}
	}

	rec := reconcile.ReconcileTrip(trip)
	if len(rec.Legs) > 0 {
		p.line("")
		p.line("")
		p.line("RECONCILIATION:")
		p.line(thinRule)
		for _, r := range rec.Legs {
			writeReconciliation(p, r)
		}
		p.printf("\nTrip: %s\n", rec.Description())
	}

	p.line("")
	p.line("")
	p.line(rule)
	p.line("Generated by FuelBal")
	p.printf("%s\n", generated.Format(longTime))

	return p.err
}

func writeLeg(p *printer, leg *types.FlightLeg) {
	p.printf("\nLEG #%d (%s)\n", leg.LegNumber, leg.Preset)
	p.printf("  Start: %s\n", leg.StartTime.Format(shortTime))
	if leg.EndTime != nil {
		p.printf("  End: %s\n", leg.EndTime.Format(shortTime))
	}
	if d, ok := leg.Duration(); ok {
		p.printf("  Duration: %s\n", FormatDuration(d))
	}
	if leg.EngineTime > 0 {
		p.printf("  Engine Time: %s\n", FormatDuration(leg.EngineTime))
	}
	p.printf("  Swaps: %d\n", len(leg.SwapLog))
	p.printf("  Fuel Burned: %.1f gal\n", leg.TotalBurned())

	if len(leg.SwapLog) > 0 {
		p.line("  Swap Log:")
		for _, e := range leg.SwapLog {
			p.printf("    #%d: %s - %.1f gal @ %.1f\n", e.Number, e.Label(), e.Burned, e.Totalizer)
		}
	}
}

func writeStop(p *printer, n int, stop *types.FuelStop) {
	if stop.IsRestStop() {
		p.printf("\nStop #%d (rest)\n", n)
	} else {
		p.printf("\nStop #%d\n", n)
	}
	p.printf("  Time: %s\n", stop.Timestamp.Format(shortTime))
	if stop.Location != "" {
		p.printf("  Location: %s\n", stop.Location)
	}
	p.printf("  Fuel Added: %.1f gal\n", stop.TotalAdded())
	if stop.PricePerGallon != nil {
		p.printf("  Price/Gal: $%.2f\n", *stop.PricePerGallon)
	}
	if stop.TotalCost != nil {
		p.printf("  Total Cost: $%.2f\n", *stop.TotalCost)
	}
	if stop.MiscCost != nil {
		p.printf("  Misc Cost: $%.2f\n", *stop.MiscCost)
	}
	if stop.PricingMismatch() {
		subtotal, _ := stop.Subtotal()
		p.printf("  Note: total differs from price x gallons ($%.2f)\n", subtotal)
	}
	if stop.Notes != "" {
		p.printf("  Notes: %s\n", stop.Notes)
	}
}

func writeReconciliation(p *printer, r reconcile.LegReconciliation) {
	where := ""
	if r.Location != "" {
		where = " at " + r.Location
	}
	p.printf("\nLEG #%d%s\n", r.LegNumber, where)
	p.printf("  Tracked: %.1f gal\n", r.TrackedTotal)
	if r.HasActual {
		p.printf("  Actual: %.1f gal\n", r.ActualTotal)
		p.printf("  Variance: %+.1f gal\n", r.Variance)
	}
	p.printf("  %s\n", r.Description())
}

// FormatDuration renders d as "1h 25m", or "25m" under an hour
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// Summary is the one-line listing of a trip
func Summary(trip *types.Trip) string {
	name := trip.Name
	if name == "" {
		name = trip.StartDate.Format("Jan 2, 2006")
	}
	return fmt.Sprintf("%s  %s  %d legs  %.1f gal  $%.2f",
		trip.ID, name, len(trip.Legs), trip.TotalFuelConsumed(), trip.TotalFuelCost())
}

// printer keeps the first write error so rendering code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
