package types

// FuelType is the grade of fuel an aircraft burns
type FuelType string

const (
	FuelAvgas FuelType = "AVGAS 100LL"
	FuelJetA  FuelType = "JET-A"
)

// WeightPerGallon returns the nominal fuel weight in pounds per gallon
func (f FuelType) WeightPerGallon() float64 {
	switch f {
	case FuelJetA:
		return 6.8
	default:
		return 6.0
	}
}

// TankSpec describes one tank of an aircraft fuel configuration
type TankSpec struct {
	Position Tank    `json:"position"`
	Capacity float64 `json:"capacity"` // usable gallons
	TabFill  float64 `json:"tab_fill,omitempty"`
}

// Aircraft is an airframe together with its fuel configuration
type Aircraft struct {
	ID           string     `json:"id"`
	TailNumber   string     `json:"tail_number"`
	Manufacturer string     `json:"manufacturer"`
	Model        string     `json:"model"`
	ICAO         string     `json:"icao"`
	FuelType     FuelType   `json:"fuel_type"`
	Tanks        []TankSpec `json:"tanks"`
	IsPreset     bool       `json:"is_preset"`
}

func (a *Aircraft) spec(t Tank) (TankSpec, bool) {
	for _, s := range a.Tanks {
		if s.Position == t {
			return s, true
		}
	}
	return TankSpec{}, false
}

// HasTank reports whether the aircraft has a tank at the position
func (a *Aircraft) HasTank(t Tank) bool {
	_, ok := a.spec(t)
	return ok
}

// Capacity returns the usable capacity of a tank, zero if absent
func (a *Aircraft) Capacity(t Tank) float64 {
	s, _ := a.spec(t)
	return s.Capacity
}

// Capacities returns the usable capacity of every tank position
func (a *Aircraft) Capacities() TankQuantities {
	var q TankQuantities
	for _, s := range a.Tanks {
		q.Set(s.Position, s.Capacity)
	}
	return q
}

// TabLevels returns the fill level at the tabs, defaulting to capacity
func (a *Aircraft) TabLevels() TankQuantities {
	var q TankQuantities
	for _, s := range a.Tanks {
		level := s.TabFill
		if level <= 0 || level > s.Capacity {
			level = s.Capacity
		}
		q.Set(s.Position, level)
	}
	return q
}

// TotalCapacity sums usable capacity over all tanks
func (a *Aircraft) TotalCapacity() float64 {
	return a.Capacities().Total()
}

// ClampToCapacity limits each quantity to [0, capacity]
func (a *Aircraft) ClampToCapacity(q TankQuantities) TankQuantities {
	var out TankQuantities
	for _, t := range AllTanks {
		v := q[t]
		if c := a.Capacity(t); v > c {
			v = c
		}
		if v < 0 {
			v = 0
		}
		out[t] = v
	}
	return out
}

// N215C is the built-in Piper Cherokee 6 configuration
func N215C() Aircraft {
	return Aircraft{
		ID:           "preset-n215c",
		TailNumber:   "N215C",
		Manufacturer: "Piper",
		Model:        "Cherokee 6",
		ICAO:         "PA32",
		FuelType:     FuelAvgas,
		Tanks: []TankSpec{
			{Position: LTip, Capacity: 17},
			{Position: LMain, Capacity: 25, TabFill: 18},
			{Position: RMain, Capacity: 25, TabFill: 18},
			{Position: RTip, Capacity: 17},
		},
		IsPreset: true,
	}
}
