package scheduler

import (
	"fmt"
	"math"

	"github.com/saviobatista/fuelbal/internal/types"
)

// TargetKind tells the pilot how to read a recommended swap target
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetComplete
	TargetClimbout
	TargetModeChoice
	TargetZeroFuel
	TargetDoNotExceed
	TargetTips
	TargetLocked
)

var kindLabels = map[TargetKind]string{
	TargetNone:        "SWAP AT",
	TargetComplete:    "COMPLETE",
	TargetClimbout:    "SWAP AT",
	TargetModeChoice:  "CHOOSE MODE",
	TargetZeroFuel:    "ZERO FUEL",
	TargetDoNotExceed: "DO NOT EXCEED",
	TargetTips:        "SWAP AT",
	TargetLocked:      "SWAP AT",
}

func (k TargetKind) String() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// Target is the swap-at recommendation for the active tank
type Target struct {
	Kind    TargetKind       `json:"kind"`
	Label   string           `json:"label"`
	Value   float64          `json:"value"`
	Valued  bool             `json:"valued"`
	Mode    types.FlightMode `json:"mode,omitempty"`
	Choices *Targets         `json:"choices,omitempty"`
}

func (t Target) String() string {
	switch {
	case t.Choices != nil:
		return fmt.Sprintf("%s: BALANCED %.1f / ENDURANCE %.1f", t.Label, t.Choices.Balanced, t.Choices.Endurance)
	case t.Valued:
		return fmt.Sprintf("%s %.1f", t.Label, t.Value)
	default:
		return t.Label
	}
}

func valued(kind TargetKind, label string, v float64) Target {
	return Target{Kind: kind, Label: label, Value: v, Valued: true}
}

// Recommendation walks the target ladder in priority order
func (s *Scheduler) Recommendation() Target {
	if s.exhausted {
		return Target{Kind: TargetComplete, Label: TargetComplete.String()}
	}

	last, ok := s.LastReading()
	if !ok {
		return valued(TargetClimbout, TargetClimbout.String(), math.Min(Climbout, s.available()))
	}

	if s.swaps() == 1 && s.phase == types.PhaseMains && s.preset == types.PresetTopOff && s.mode == types.ModeUnset {
		if targets, ok := s.CalcTargets(); ok {
			return Target{Kind: TargetModeChoice, Label: TargetModeChoice.String(), Choices: &targets}
		}
	}

	if limit, ok := s.MaxTarget(); ok {
		if s.IsLastTank() {
			return valued(TargetZeroFuel, TargetZeroFuel.String(), limit)
		}
		if s.IsLastBurnForTank() {
			return valued(TargetDoNotExceed, TargetDoNotExceed.String(), limit)
		}
	}

	if s.phase == types.PhaseTips {
		return valued(TargetTips, TargetTips.String(), last+s.NormalBurn())
	}

	if targets, ok := s.CalcTargets(); ok {
		mode := s.mode
		if mode == types.ModeUnset {
			mode = types.ModeBalanced
		}
		value := targets.Balanced
		if mode == types.ModeEndurance {
			value = targets.Endurance
		}
		label := TargetLocked.String()
		if s.preset == types.PresetTopOff {
			label = string(mode)
		}
		t := valued(TargetLocked, label, value)
		t.Mode = mode
		return t
	}
	return Target{Kind: TargetNone, Label: TargetNone.String()}
}
