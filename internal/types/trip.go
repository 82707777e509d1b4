package types

import "time"

// FlightLeg is one engine run, from start to shutdown or refuel
type FlightLeg struct {
	ID           string         `json:"id"`
	LegNumber    int            `json:"leg_number"`
	Preset       Preset         `json:"preset"`
	AircraftID   string         `json:"aircraft_id"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	StartingFuel TankQuantities `json:"starting_fuel"`
	EndingFuel   TankQuantities `json:"ending_fuel"`
	SwapLog      []SwapEntry    `json:"swap_log"`
	EndTank      Tank           `json:"end_tank"`
	EndPhase     Phase          `json:"end_phase"`
	EndMode      FlightMode     `json:"end_mode,omitempty"`
	EngineStart  *time.Time     `json:"engine_start,omitempty"`
	EngineStop   *time.Time     `json:"engine_stop,omitempty"`
	EngineTime   time.Duration  `json:"engine_time"`
}

// IsClosed reports whether the leg has been finalized
func (l *FlightLeg) IsClosed() bool {
	return l.EndTime != nil
}

// TotalBurned sums fuel burned over the leg's swap log
func (l *FlightLeg) TotalBurned() float64 {
	var sum float64
	for _, e := range l.SwapLog {
		sum += e.Burned
	}
	return sum
}

// BurnedByTank attributes the leg's burn to each tank
func (l *FlightLeg) BurnedByTank() TankQuantities {
	var q TankQuantities
	for _, e := range l.SwapLog {
		q.Set(e.Tank, q.Get(e.Tank)+e.Burned)
	}
	return q
}

// Duration returns the wall time of a closed leg
func (l *FlightLeg) Duration() (time.Duration, bool) {
	if l.EndTime == nil {
		return 0, false
	}
	return l.EndTime.Sub(l.StartTime), true
}

// FuelStop is a refuel or rest event between legs
type FuelStop struct {
	ID             string          `json:"id"`
	LegID          string          `json:"leg_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	FuelAdded      TankQuantities  `json:"fuel_added"`
	PricePerGallon *float64        `json:"price_per_gallon,omitempty"`
	TotalCost      *float64        `json:"total_cost,omitempty"`
	MiscCost       *float64        `json:"misc_cost,omitempty"`
	Location       string          `json:"location,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	PostFuelLevels *TankQuantities `json:"post_fuel_levels,omitempty"`
}

// TotalAdded sums fuel added over all tanks
func (s *FuelStop) TotalAdded() float64 {
	return s.FuelAdded.Total()
}

// IsRestStop reports whether no fuel was added
func (s *FuelStop) IsRestStop() bool {
	return s.TotalAdded() == 0
}

// Subtotal is gallons added times price per gallon, if a price is known
func (s *FuelStop) Subtotal() (float64, bool) {
	if s.PricePerGallon == nil {
		return 0, false
	}
	return s.TotalAdded() * *s.PricePerGallon, true
}

// PricingMismatch flags a receipt total that is far from price times gallons.
// Taxes and fees make the total a bit higher, so only totals below 95% or
// above 150% of the subtotal are flagged.
func (s *FuelStop) PricingMismatch() bool {
	subtotal, ok := s.Subtotal()
	if !ok || s.TotalCost == nil {
		return false
	}
	total := *s.TotalCost
	return total < subtotal*0.95 || total > subtotal*1.5
}

// Cost returns the receipt total plus any miscellaneous cost
func (s *FuelStop) Cost() float64 {
	var sum float64
	if s.TotalCost != nil {
		sum += *s.TotalCost
	}
	if s.MiscCost != nil {
		sum += *s.MiscCost
	}
	return sum
}

// Trip is an ordered set of legs and fuel stops forming one journey
type Trip struct {
	ID        string      `json:"id"`
	Name      string      `json:"name,omitempty"`
	Legs      []FlightLeg `json:"legs"`
	FuelStops []FuelStop  `json:"fuel_stops"`
	StartDate time.Time   `json:"start_date"`
	EndDate   *time.Time  `json:"end_date,omitempty"`
	Archived  bool        `json:"archived"`
}

// TotalFuelConsumed sums fuel burned over all legs
func (t *Trip) TotalFuelConsumed() float64 {
	var sum float64
	for i := range t.Legs {
		sum += t.Legs[i].TotalBurned()
	}
	return sum
}

// TotalFuelCost sums receipt and miscellaneous costs over all stops
func (t *Trip) TotalFuelCost() float64 {
	var sum float64
	for i := range t.FuelStops {
		sum += t.FuelStops[i].Cost()
	}
	return sum
}

// AverageFuelPerLeg is consumed fuel divided by leg count
func (t *Trip) AverageFuelPerLeg() float64 {
	consumed := t.TotalFuelConsumed()
	if consumed <= 0 || len(t.Legs) == 0 {
		return 0
	}
	return consumed / float64(len(t.Legs))
}
