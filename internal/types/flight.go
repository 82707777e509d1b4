package types

import (
	"fmt"
	"strings"
	"time"
)

// Preset is the fueling configuration a leg starts with
type Preset string

const (
	PresetTopOff Preset = "TOP OFF"
	PresetTabs   Preset = "TABS"
	PresetCustom Preset = "CUSTOM"
)

// ParsePreset accepts "topoff", "top off", "tabs" or "custom", ignoring case
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "topoff", "top-off":
		return PresetTopOff, nil
	case "tabs", "tab", "tabfill", "tab-fill":
		return PresetTabs, nil
	case "custom":
		return PresetCustom, nil
	default:
		return "", fmt.Errorf("unknown preset: %q", s)
	}
}

// StartingFuel returns the tank quantities a leg with this preset starts with
func (p Preset) StartingFuel(a *Aircraft, custom TankQuantities) TankQuantities {
	switch p {
	case PresetTopOff:
		return a.Capacities()
	case PresetTabs:
		return a.TabLevels()
	default:
		return a.ClampToCapacity(custom)
	}
}

// FlightMode is the burn strategy picked on the second swap of a top-off flight.
// The zero value means no mode has been decided.
type FlightMode string

const (
	ModeUnset     FlightMode = ""
	ModeBalanced  FlightMode = "BALANCED"
	ModeEndurance FlightMode = "ENDURANCE"
)

// Phase tells which pair of tanks the engine is feeding from
type Phase string

const (
	PhaseMains Phase = "MAINS"
	PhaseTips  Phase = "TIPS"
)

// SwapEntry is one immutable line of the swap log
type SwapEntry struct {
	ID        string        `json:"id"`
	Number    int           `json:"swap_number"`
	Tank      Tank          `json:"tank"`
	Totalizer float64       `json:"totalizer"`
	Burned    float64       `json:"burned"`
	Elapsed   time.Duration `json:"elapsed"`
	Shutdown  bool          `json:"shutdown,omitempty"`
}

// Label returns the tank label, flagged when the entry closed the leg
func (e SwapEntry) Label() string {
	if e.Shutdown {
		return e.Tank.Label() + " (SHUTDOWN)"
	}
	return e.Tank.Label()
}

// GPHEntry is one pilot-observed fuel flow reading
type GPHEntry struct {
	Elapsed time.Duration `json:"elapsed"`
	Rate    float64       `json:"rate"` // gallons per hour
}

// FlightState is the persisted live flight
type FlightState struct {
	Flying        bool           `json:"flying"`
	Preset        Preset         `json:"preset"`
	CustomFuel    TankQuantities `json:"custom_fuel"`
	AircraftID    string         `json:"aircraft_id"`
	StartingFuel  TankQuantities `json:"starting_fuel"`
	CurrentTank   Tank           `json:"current_tank"`
	SwapLog       []SwapEntry    `json:"swap_log"`
	TankBurned    TankQuantities `json:"tank_burned"`
	Phase         Phase          `json:"phase"`
	FuelExhausted bool           `json:"fuel_exhausted"`
	FlightMode    FlightMode     `json:"flight_mode,omitempty"`
	CurrentLeg    *FlightLeg     `json:"current_leg,omitempty"`
	LegSwapOffset int            `json:"leg_swap_offset"`
	GPHLog        []GPHEntry     `json:"gph_log,omitempty"`
}
