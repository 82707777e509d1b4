// Package scheduler decides which tank feeds the engine, when to swap, and
// the totalizer reading to swap at, keeping a safety reserve in every tank.
package scheduler

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/saviobatista/fuelbal/internal/ledger"
	"github.com/saviobatista/fuelbal/internal/types"
)

const (
	// SafetyReserve is fuel that must stay unburned in the active tank
	SafetyReserve = 0.9
	// ExhaustedThreshold mirrors the ledger threshold for an unusable tank
	ExhaustedThreshold = ledger.ExhaustedThreshold
	// LowWarn is the remaining quantity at which a tank reads as low
	LowWarn = 3.0
	// TipBurn is the fixed burn per swap while feeding from the tips
	TipBurn = 8.0
	// Climbout is the burn target for the first swap of a leg
	Climbout = 7.0
	// LowFuelCap is the remaining quantity below which the target is
	// the whole available fuel rather than a round burn
	LowFuelCap = 10.0
)

var (
	ErrNegativeReading  = errors.New("totalizer reading must not be negative")
	ErrReadingBelowLast = errors.New("totalizer reading is below the last reading")
)

// Targets holds the two candidate swap-at readings for a mains swap
type Targets struct {
	Balanced  float64 `json:"balanced"`
	Endurance float64 `json:"endurance"`
}

// Midpoint is the reading that separates a balanced from an endurance swap
func (t Targets) Midpoint() float64 {
	return (t.Balanced + t.Endurance) / 2
}

// Scheduler owns the live ledger and swap log of one leg
type Scheduler struct {
	preset    types.Preset
	ledger    *ledger.Ledger
	current   types.Tank
	log       []types.SwapEntry
	phase     types.Phase
	exhausted bool
	mode      types.FlightMode

	// NewID generates swap entry ids
	NewID func() string
}

// New starts a scheduler for a fresh leg with the given starting fuel
func New(preset types.Preset, start types.TankQuantities) *Scheduler {
	s := &Scheduler{
		preset: preset,
		ledger: ledger.New(start),
		NewID:  uuid.NewString,
	}
	s.reset()
	return s
}

// Restore rebuilds a scheduler from persisted flight state
func Restore(st types.FlightState) *Scheduler {
	phase := st.Phase
	if phase == "" {
		phase = types.PhaseMains
	}
	return &Scheduler{
		preset:    st.Preset,
		ledger:    ledger.Restore(st.StartingFuel, st.TankBurned),
		current:   st.CurrentTank,
		log:       append([]types.SwapEntry(nil), st.SwapLog...),
		phase:     phase,
		exhausted: st.FuelExhausted,
		mode:      st.FlightMode,
		NewID:     uuid.NewString,
	}
}

// Reset starts over with a new preset and starting fuel
func (s *Scheduler) Reset(preset types.Preset, start types.TankQuantities) {
	s.preset = preset
	s.ledger.Reset(start)
	s.reset()
}

func (s *Scheduler) reset() {
	s.log = nil
	s.phase = types.PhaseMains
	s.exhausted = false
	s.mode = types.ModeUnset
	if s.preset == types.PresetTabs {
		s.mode = types.ModeBalanced
	}
	s.current = types.LMain
	if s.ledger.IsExhausted(s.current) {
		s.advance()
	}
}

// State captures the scheduler as persisted flight state. Fields the
// scheduler does not own are left zero.
func (s *Scheduler) State() types.FlightState {
	start, burned := s.ledger.Snapshot()
	return types.FlightState{
		Preset:        s.preset,
		StartingFuel:  start,
		CurrentTank:   s.current,
		SwapLog:       s.Log(),
		TankBurned:    burned,
		Phase:         s.phase,
		FuelExhausted: s.exhausted,
		FlightMode:    s.mode,
	}
}

func (s *Scheduler) Preset() types.Preset { return s.preset }
func (s *Scheduler) Ledger() *ledger.Ledger { return s.ledger }
func (s *Scheduler) CurrentTank() types.Tank { return s.current }
func (s *Scheduler) Phase() types.Phase { return s.phase }
func (s *Scheduler) Mode() types.FlightMode { return s.mode }
func (s *Scheduler) FuelExhausted() bool { return s.exhausted }
func (s *Scheduler) SwapCount() int { return len(s.log) }
func (s *Scheduler) Remaining(t types.Tank) float64 { return s.ledger.Remaining(t) }
func (s *Scheduler) TotalRemaining() float64 { return s.ledger.TotalRemaining() }

// Log returns a copy of the swap log
func (s *Scheduler) Log() []types.SwapEntry {
	return append([]types.SwapEntry(nil), s.log...)
}

// swaps counts the logged tank swaps, leaving out shutdown entries
func (s *Scheduler) swaps() int {
	n := 0
	for _, e := range s.log {
		if !e.Shutdown {
			n++
		}
	}
	return n
}

// LastReading returns the totalizer reading of the last entry
func (s *Scheduler) LastReading() (float64, bool) {
	if len(s.log) == 0 {
		return 0, false
	}
	return s.log[len(s.log)-1].Totalizer, true
}

// ValidateReading checks a totalizer reading before it is logged
func (s *Scheduler) ValidateReading(reading float64) error {
	if reading < 0 || math.IsNaN(reading) || math.IsInf(reading, 0) {
		return ErrNegativeReading
	}
	if last, ok := s.LastReading(); ok && reading < last {
		return ErrReadingBelowLast
	}
	return nil
}

// available is what the active tank can give without touching the reserve
func (s *Scheduler) available() float64 {
	return math.Max(0, s.ledger.Remaining(s.current)-SafetyReserve)
}

// capBurn limits a burn target to the available fuel. A tank under
// LowFuelCap gets its whole available fuel as the target.
func (s *Scheduler) capBurn(target float64) float64 {
	avail := s.available()
	if s.ledger.Remaining(s.current) < LowFuelCap {
		return avail
	}
	return math.Min(target, avail)
}

// burnFor returns the capped mains burn for a flight mode. The balanced
// burn is the same for every preset.
func (s *Scheduler) burnFor(mode types.FlightMode) float64 {
	if mode == types.ModeEndurance {
		return s.capBurn(19)
	}
	return s.capBurn(math.Max(7, math.Min(10, s.available())))
}

// NormalBurn is the nominal burn target for the active tank. It never
// exceeds the fuel available above the safety reserve.
func (s *Scheduler) NormalBurn() float64 {
	switch {
	case s.phase == types.PhaseTips:
		return s.capBurn(TipBurn)
	case s.preset == types.PresetTabs || s.preset == types.PresetCustom:
		return s.capBurn(math.Max(10, math.Min(11, s.available())))
	}
	return s.burnFor(s.mode)
}

// CalcTargets computes the balanced and endurance swap-at readings. Only
// defined in the mains phase once a reading has been logged.
func (s *Scheduler) CalcTargets() (Targets, bool) {
	last, ok := s.LastReading()
	if !ok || s.phase != types.PhaseMains {
		return Targets{}, false
	}
	balanced := s.burnFor(types.ModeBalanced)
	endurance := balanced
	if s.preset == types.PresetTopOff {
		endurance = s.burnFor(types.ModeEndurance)
	}
	return Targets{Balanced: last + balanced, Endurance: last + endurance}, true
}

// MaxTarget is the highest reading the active tank can reach without
// breaking into its safety reserve
func (s *Scheduler) MaxTarget() (float64, bool) {
	last, ok := s.LastReading()
	if !ok {
		return 0, false
	}
	return last + s.available(), true
}

// IsLastTank reports whether the active tank is the only usable one left
func (s *Scheduler) IsLastTank() bool {
	return !s.ledger.IsExhausted(s.current) && s.ledger.UsableTankCount() == 1
}

// IsLastBurnForTank reports whether the next swap will drain the active
// tank down to its reserve
func (s *Scheduler) IsLastBurnForTank() bool {
	if s.ledger.IsExhausted(s.current) {
		return false
	}
	return s.available() <= s.NormalBurn()+1
}

// NextTank picks the tank to feed from after the active one
func (s *Scheduler) NextTank() (types.Tank, bool) {
	if s.exhausted {
		return 0, false
	}
	if s.phase == types.PhaseTips {
		return s.nextTip()
	}
	if !s.ledger.MainsExhausted() {
		return s.nextMain(), true
	}
	return s.richerTip()
}

// usable reports whether the tank can be fed from
func (s *Scheduler) usable(t types.Tank) bool {
	return !s.ledger.IsExhausted(t)
}

func (s *Scheduler) nextMain() types.Tank {
	switch s.current {
	case types.LMain:
		if s.usable(types.RMain) {
			return types.RMain
		}
		return types.LMain
	case types.RMain:
		if s.usable(types.LMain) {
			return types.LMain
		}
		return types.RMain
	}
	if s.ledger.Remaining(types.LMain) >= s.ledger.Remaining(types.RMain) {
		return types.LMain
	}
	return types.RMain
}

func (s *Scheduler) nextTip() (types.Tank, bool) {
	switch s.current {
	case types.LTip:
		return s.firstUsable(types.RTip, types.LTip)
	case types.RTip:
		return s.firstUsable(types.LTip, types.RTip)
	}
	return s.richerTip()
}

// richerTip takes the tip with more fuel, ties to the left
func (s *Scheduler) richerTip() (types.Tank, bool) {
	if s.ledger.Remaining(types.LTip) >= s.ledger.Remaining(types.RTip) {
		return s.firstUsable(types.LTip, types.RTip)
	}
	return s.firstUsable(types.RTip, types.LTip)
}

func (s *Scheduler) firstUsable(tanks ...types.Tank) (types.Tank, bool) {
	for _, t := range tanks {
		if s.usable(t) {
			return t, true
		}
	}
	return 0, false
}

// advance applies the phase transition and moves to the next tank
func (s *Scheduler) advance() {
	if s.phase == types.PhaseMains && s.ledger.MainsExhausted() {
		s.phase = types.PhaseTips
	}
	if next, ok := s.NextTank(); ok {
		s.current = next
	} else {
		s.exhausted = true
	}
}

func (s *Scheduler) burnSince(reading float64) float64 {
	last, ok := s.LastReading()
	if !ok {
		return reading
	}
	return reading - last
}

func (s *Scheduler) appendEntry(reading, burned float64, elapsed time.Duration, shutdown bool) types.SwapEntry {
	entry := types.SwapEntry{
		ID:        s.NewID(),
		Number:    len(s.log) + 1,
		Tank:      s.current,
		Totalizer: reading,
		Burned:    burned,
		Elapsed:   elapsed,
		Shutdown:  shutdown,
	}
	s.log = append(s.log, entry)
	return entry
}

// LogSwap records a swap at the given totalizer reading. It returns false
// and changes nothing when fuel is exhausted or the reading is invalid.
func (s *Scheduler) LogSwap(reading float64, elapsed time.Duration) bool {
	if s.exhausted || s.ValidateReading(reading) != nil {
		return false
	}

	// The second swap of a top-off flight locks the mode, judged against
	// the candidates in force before this swap.
	if s.swaps() == 1 && s.preset == types.PresetTopOff && s.mode == types.ModeUnset {
		if targets, ok := s.CalcTargets(); ok {
			if reading > targets.Midpoint() {
				s.mode = types.ModeEndurance
			} else {
				s.mode = types.ModeBalanced
			}
		}
	}

	burned := s.burnSince(reading)
	s.ledger.Burn(s.current, burned)
	s.appendEntry(reading, burned, elapsed, false)
	s.advance()
	return true
}

// Shutdown books the fuel burned since the last swap against the active
// tank without advancing to another tank
func (s *Scheduler) Shutdown(reading float64, elapsed time.Duration) (types.SwapEntry, bool) {
	if s.exhausted || s.ValidateReading(reading) != nil {
		return types.SwapEntry{}, false
	}
	burned := s.burnSince(reading)
	s.ledger.Burn(s.current, burned)
	return s.appendEntry(reading, burned, elapsed, true), true
}

// UndoLastSwap removes the last entry and puts its fuel back. The phase
// and mode rollback is approximate: the tips phase only reverts when the
// undone entry burned from a main, and the mode is cleared once fewer
// than two entries remain.
func (s *Scheduler) UndoLastSwap() (types.SwapEntry, bool) {
	if len(s.log) == 0 {
		return types.SwapEntry{}, false
	}
	last := s.log[len(s.log)-1]
	s.log = s.log[:len(s.log)-1]

	s.ledger.Unburn(last.Tank, last.Burned)
	s.current = last.Tank

	if s.phase == types.PhaseTips && last.Tank.IsMain() {
		s.phase = types.PhaseMains
	}
	if s.swaps() <= 1 && s.preset == types.PresetTopOff {
		s.mode = types.ModeUnset
	}
	s.exhausted = false
	return last, true
}
