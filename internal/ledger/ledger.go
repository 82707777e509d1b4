// Package ledger keeps per-tank fuel bookkeeping: what each tank started
// with and how much has been burned from it since.
package ledger

import (
	"math"

	"github.com/saviobatista/fuelbal/internal/types"
)

// ExhaustedThreshold is the remaining quantity below which a tank is
// considered unusable
const ExhaustedThreshold = 2.0

// Ledger tracks starting and burned fuel per tank position
type Ledger struct {
	start  types.TankQuantities
	burned types.TankQuantities
}

// New creates a ledger with the given starting quantities and nothing burned
func New(start types.TankQuantities) *Ledger {
	return &Ledger{start: start}
}

// Restore rebuilds a ledger from persisted starting and burned totals
func Restore(start, burned types.TankQuantities) *Ledger {
	return &Ledger{start: start, burned: burned}
}

// Reset replaces the starting quantities and zeroes the burned totals
func (l *Ledger) Reset(start types.TankQuantities) {
	l.start = start
	l.burned = types.TankQuantities{}
}

// StartingFuel returns the quantity the tank started with
func (l *Ledger) StartingFuel(t types.Tank) float64 {
	return l.start.Get(t)
}

// Burned returns the cumulative burn from the tank
func (l *Ledger) Burned(t types.Tank) float64 {
	return l.burned.Get(t)
}

// Remaining returns the fuel left in the tank, never negative
func (l *Ledger) Remaining(t types.Tank) float64 {
	return math.Max(0, l.start.Get(t)-l.burned.Get(t))
}

// RemainingAll returns the remaining fuel of every tank
func (l *Ledger) RemainingAll() types.TankQuantities {
	var q types.TankQuantities
	for _, t := range types.AllTanks {
		q[t] = l.Remaining(t)
	}
	return q
}

// TotalRemaining sums remaining fuel over all tanks
func (l *Ledger) TotalRemaining() float64 {
	return l.RemainingAll().Total()
}

// IsExhausted reports whether the tank is below the usable threshold
func (l *Ledger) IsExhausted(t types.Tank) bool {
	return l.Remaining(t) < ExhaustedThreshold
}

// MainsExhausted reports whether both main tanks are exhausted
func (l *Ledger) MainsExhausted() bool {
	return l.IsExhausted(types.LMain) && l.IsExhausted(types.RMain)
}

// UsableTankCount counts tanks at or above the usable threshold
func (l *Ledger) UsableTankCount() int {
	n := 0
	for _, t := range types.AllTanks {
		if !l.IsExhausted(t) {
			n++
		}
	}
	return n
}

// Burn adds amount to the tank's burned total
func (l *Ledger) Burn(t types.Tank, amount float64) {
	l.burned.Set(t, l.burned.Get(t)+amount)
}

// Unburn takes amount back out of the tank's burned total
func (l *Ledger) Unburn(t types.Tank, amount float64) {
	l.burned.Set(t, l.burned.Get(t)-amount)
}

// Snapshot returns copies of the starting and burned totals
func (l *Ledger) Snapshot() (start, burned types.TankQuantities) {
	return l.start, l.burned
}
