package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saviobatista/fuelbal/internal/aircraft"
	"github.com/saviobatista/fuelbal/internal/parser"
	"github.com/saviobatista/fuelbal/internal/report"
	"github.com/saviobatista/fuelbal/internal/trip"
	"github.com/saviobatista/fuelbal/internal/types"
)

// Session runs pilot commands against a tracker and prints the results
type Session struct {
	tracker  *trip.Tracker
	catalog  *aircraft.Catalog
	aircraft types.Aircraft
	out      io.Writer
	clock    func() time.Time
}

// NewSession creates a session flying selected until the pilot picks another
func NewSession(tracker *trip.Tracker, catalog *aircraft.Catalog, selected types.Aircraft, out io.Writer) *Session {
	return &Session{
		tracker:  tracker,
		catalog:  catalog,
		aircraft: selected,
		out:      out,
		clock:    time.Now,
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// Run reads one command per line until quit, end of input or ctx is done.
// Command errors are printed and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		cmd, err := parser.Parse(scanner.Text())
		if errors.Is(err, parser.ErrEmptyCommand) {
			continue
		}
		if err != nil {
			s.printf("error: %v\n", err)
			continue
		}
		quit, err := s.Execute(ctx, cmd)
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	return nil
}

// Execute runs one parsed command. It reports true when the session should end.
func (s *Session) Execute(ctx context.Context, c *parser.Command) (bool, error) {
	switch c.Verb {
	case parser.CmdStart:
		leg, err := s.tracker.StartLeg(ctx, c.Preset, s.aircraft, c.Levels)
		if err != nil {
			return false, err
		}
		s.printf("Leg #%d started (%s) on %s, %.1f gal\n",
			leg.LegNumber, leg.Preset, s.aircraft.TailNumber, leg.StartingFuel.Total())
		s.printTarget()

	case parser.CmdTrip:
		t, err := s.tracker.StartTrip(ctx, c.Name)
		if err != nil {
			return false, err
		}
		s.printf("Trip %q started (%s)\n", t.Name, t.ID)

	case parser.CmdSwap:
		entry, err := s.tracker.LogSwap(ctx, c.Value)
		if err != nil {
			return false, err
		}
		if entry == nil {
			s.printf("Fuel exhausted, no swap logged\n")
			return false, nil
		}
		s.printf("Swap #%d: %s burned %.1f gal at %.1f\n", entry.Number, entry.Label(), entry.Burned, entry.Totalizer)
		s.printTarget()

	case parser.CmdUndo:
		entry, err := s.tracker.UndoLastSwap(ctx)
		if err != nil {
			return false, err
		}
		if entry == nil {
			s.printf("Nothing to undo\n")
			return false, nil
		}
		s.printf("Undid swap #%d (%s %.1f gal)\n", entry.Number, entry.Label(), entry.Burned)
		s.printTarget()

	case parser.CmdShutdown:
		leg, err := s.tracker.Shutdown(ctx, c.Value)
		if err != nil {
			return false, err
		}
		s.printf("Leg #%d closed: burned %.1f gal, %.1f gal remaining\n",
			leg.LegNumber, leg.TotalBurned(), leg.EndingFuel.Total())

	case parser.CmdEngine:
		var err error
		if c.Sub == "start" {
			err = s.tracker.StartEngine(ctx)
		} else {
			err = s.tracker.StopEngine(ctx)
		}
		if err != nil {
			return false, err
		}
		s.printf("Engine %s, engine time %s\n", c.Sub, report.FormatDuration(s.tracker.EngineTime()))

	case parser.CmdFuel:
		p := trip.FuelPurchase{
			PricePerGallon: c.Price,
			TotalCost:      c.Total,
			MiscCost:       c.Misc,
			Location:       c.Location,
			Notes:          c.Notes,
		}
		if c.Post {
			levels := c.Levels
			p.PostFuelLevels = &levels
		}
		stop, err := s.tracker.AddFuel(ctx, c.Levels, p)
		if err != nil {
			return false, err
		}
		where := ""
		if stop.Location != "" {
			where = " at " + stop.Location
		}
		s.printf("Fuel stop%s: added %.1f gal\n", where, stop.TotalAdded())
		if stop.PricingMismatch() {
			subtotal, _ := stop.Subtotal()
			s.printf("warning: receipt total $%.2f does not match price x gallons $%.2f\n", *stop.TotalCost, subtotal)
		}
		s.printf("Leg #%d started (%s), %.1f gal\n", s.tracker.Status().LegNumber, types.PresetCustom, s.tracker.TotalRemaining())

	case parser.CmdRest:
		leg, err := s.tracker.ResumeWithoutFuel(ctx, c.Misc, c.Notes)
		if err != nil {
			return false, err
		}
		s.printf("Leg #%d started after rest stop, %.1f gal\n", leg.LegNumber, leg.StartingFuel.Total())

	case parser.CmdGPH:
		if err := s.tracker.LogObservedGPH(ctx, c.Value); err != nil {
			return false, err
		}
		s.printf("Fuel flow %.1f gph, next swap in %s\n", c.Value, s.tracker.FormattedCountdownTime())

	case parser.CmdEndTrip:
		t, err := s.tracker.EndTrip(ctx)
		if err != nil {
			return false, err
		}
		if t == nil {
			s.printf("No trip open, leg kept in open legs\n")
			return false, nil
		}
		s.printf("Trip %q archived: %d legs, %.1f gal, $%.2f\n",
			t.Name, len(t.Legs), t.TotalFuelConsumed(), t.TotalFuelCost())

	case parser.CmdAssemble:
		t, err := s.tracker.AssembleTrip(ctx, c.IDs, c.Name)
		if err != nil {
			return false, err
		}
		s.printf("Trip %q assembled: %d legs, %d stops\n", t.Name, len(t.Legs), len(t.FuelStops))

	case parser.CmdStatus:
		s.printStatus()

	case parser.CmdLegs:
		legs := s.tracker.OpenLegs()
		if len(legs) == 0 {
			s.printf("No open legs\n")
		}
		for _, leg := range legs {
			s.printf("%s  #%d  %s  %s  %.1f gal\n",
				leg.ID, leg.LegNumber, leg.Preset, leg.StartTime.Format("Jan 2 15:04"), leg.TotalBurned())
		}

	case parser.CmdTrips:
		if cur := s.tracker.CurrentTrip(); cur != nil {
			s.printf("* %s\n", report.Summary(cur))
		}
		trips := s.tracker.ArchivedTrips()
		for i := len(trips) - 1; i >= 0; i-- {
			s.printf("  %s\n", report.Summary(&trips[i]))
		}

	case parser.CmdReconcile:
		rec, err := s.tracker.Reconcile(c.Name)
		if err != nil {
			return false, err
		}
		for _, r := range rec.Legs {
			s.printf("Leg #%d: %s\n", r.LegNumber, r.Description())
		}
		s.printf("Trip: %s\n", rec.Description())

	case parser.CmdReport:
		t, err := s.tracker.Trip(c.Name)
		if err != nil {
			return false, err
		}
		if err := report.Write(s.out, t, s.clock()); err != nil {
			return false, fmt.Errorf("failed to write report: %w", err)
		}
		s.printf("\n")

	case parser.CmdAircraft:
		return false, s.aircraftCommand(ctx, c)

	case parser.CmdCancel:
		if err := s.tracker.CancelFlight(ctx); err != nil {
			return false, err
		}
		s.printf("Flight cancelled\n")

	case parser.CmdClear:
		if err := s.tracker.ClearFlight(ctx); err != nil {
			return false, err
		}
		s.printf("Flight cleared\n")

	case parser.CmdHelp:
		s.printf("%s\n", parser.Usage)

	case parser.CmdQuit:
		return true, nil

	default:
		return false, fmt.Errorf("%w: %s", parser.ErrUnknownCommand, c.Verb)
	}
	return false, nil
}

func (s *Session) aircraftCommand(ctx context.Context, c *parser.Command) error {
	switch c.Sub {
	case "use":
		a, ok := s.catalog.ByTail(c.Name)
		if !ok {
			return fmt.Errorf("%w: %s", aircraft.ErrNotFound, c.Name)
		}
		s.aircraft = a
		s.printf("Flying %s (%s), %.1f gal usable\n", a.TailNumber, a.Model, a.TotalCapacity())

	case "add":
		a := types.Aircraft{
			TailNumber: c.Name,
			Model:      c.Model,
			FuelType:   c.FuelType,
		}
		for _, tank := range types.AllTanks {
			if v := c.Levels.Get(tank); v > 0 {
				a.Tanks = append(a.Tanks, types.TankSpec{Position: tank, Capacity: v})
			}
		}
		saved, err := s.catalog.Save(ctx, a)
		if err != nil {
			return err
		}
		s.printf("Saved %s, %.1f gal usable\n", saved.TailNumber, saved.TotalCapacity())

	case "rm":
		a, ok := s.catalog.ByTail(c.Name)
		if !ok {
			return fmt.Errorf("%w: %s", aircraft.ErrNotFound, c.Name)
		}
		if err := s.catalog.Delete(ctx, a.ID); err != nil {
			return err
		}
		s.printf("Deleted %s\n", a.TailNumber)

	default:
		for _, a := range s.catalog.All() {
			mark := " "
			if a.ID == s.aircraft.ID {
				mark = "*"
			}
			kind := "custom"
			if a.IsPreset {
				kind = "preset"
			}
			s.printf("%s %-8s %-16s %6.1f gal  %s\n", mark, a.TailNumber, a.Model, a.TotalCapacity(), kind)
		}
	}
	return nil
}

func (s *Session) printTarget() {
	st := s.tracker.Status()
	if st.Idle {
		return
	}
	next, ok := s.tracker.NextTank()
	if !ok {
		s.printf("On %s, %s\n", st.CurrentTank.Label(), st.Recommendation)
		return
	}
	s.printf("On %s, %s, then %s\n", st.CurrentTank.Label(), st.Recommendation, next.Label())
}

func (s *Session) printStatus() {
	st := s.tracker.Status()
	if st.Idle {
		s.printf("Idle, aircraft %s\n", s.aircraft.TailNumber)
		return
	}

	state := "on ground"
	if st.Flying {
		state = "flying"
	}
	header := fmt.Sprintf("%s  LEG #%d (%s)  %s  %s", st.Aircraft, st.LegNumber, st.Preset, state, st.Phase)
	if st.Mode != "" {
		header += "  " + string(st.Mode)
	}
	if st.TripName != "" {
		header += "  trip " + st.TripName
	}
	s.printf("%s\n", header)

	var tanks []string
	for _, tank := range types.AllTanks {
		tanks = append(tanks, fmt.Sprintf("%s %.1f", tank.Label(), st.Remaining.Get(tank)))
	}
	s.printf("%s  TOTAL %.1f gal (%.0f lb)\n", strings.Join(tanks, "  "), st.TotalRemaining, st.FuelWeight)

	s.printf("On %s, %s  swaps %d  elapsed %s  engine %s\n",
		st.CurrentTank.Label(), st.Recommendation, st.SwapCount,
		report.FormatDuration(st.Elapsed), report.FormatDuration(st.EngineTime))
	if st.Countdown > 0 {
		s.printf("Next swap in %s\n", s.tracker.FormattedCountdownTime())
	}
	if st.Exhausted {
		s.printf("FUEL EXHAUSTED\n")
	}
	if len(st.LowTanks) > 0 {
		var low []string
		for _, tank := range st.LowTanks {
			low = append(low, tank.Label())
		}
		s.printf("LOW: %s\n", strings.Join(low, ", "))
	}
}
