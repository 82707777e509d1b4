package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tank identifies a fuel tank position on the airframe
type Tank int

const (
	LTip Tank = iota
	LMain
	RMain
	RTip
)

// NumTanks is the number of tank positions a ledger tracks
const NumTanks = 4

// AllTanks lists every tank in wing order, left tip to right tip
var AllTanks = [NumTanks]Tank{LTip, LMain, RMain, RTip}

var tankKeys = [NumTanks]string{"lTip", "lMain", "rMain", "rTip"}

var tankLabels = [NumTanks]string{"L TIP", "L MAIN", "R MAIN", "R TIP"}

// Valid reports whether t is one of the known positions
func (t Tank) Valid() bool {
	return t >= 0 && int(t) < NumTanks
}

// Key returns the storage key of the tank ("lMain")
func (t Tank) Key() string {
	if !t.Valid() {
		return fmt.Sprintf("tank(%d)", int(t))
	}
	return tankKeys[t]
}

// Label returns the display label of the tank ("L MAIN")
func (t Tank) Label() string {
	if !t.Valid() {
		return t.Key()
	}
	return tankLabels[t]
}

func (t Tank) String() string {
	return t.Key()
}

// IsLeft reports whether the tank is on the left wing
func (t Tank) IsLeft() bool {
	return t == LTip || t == LMain
}

// IsMain reports whether the tank is a main tank
func (t Tank) IsMain() bool {
	return t == LMain || t == RMain
}

// IsTip reports whether the tank is a tip tank
func (t Tank) IsTip() bool {
	return t == LTip || t == RTip
}

// ParseTank accepts a storage key ("lMain") or a label ("L MAIN"), ignoring case
func ParseTank(s string) (Tank, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for i := range tankKeys {
		if norm == strings.ToLower(tankKeys[i]) {
			return Tank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tank: %q", s)
}

// MarshalText encodes the tank as its storage key
func (t Tank) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tank: %d", int(t))
	}
	return []byte(t.Key()), nil
}

// UnmarshalText decodes a storage key or label
func (t *Tank) UnmarshalText(b []byte) error {
	parsed, err := ParseTank(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TankQuantities holds one value in gallons per tank position
type TankQuantities [NumTanks]float64

// Get returns the quantity for a tank, zero for an invalid tank
func (q TankQuantities) Get(t Tank) float64 {
	if !t.Valid() {
		return 0
	}
	return q[t]
}

// Set stores the quantity for a tank
func (q *TankQuantities) Set(t Tank, v float64) {
	if t.Valid() {
		q[t] = v
	}
}

// Total sums all tanks
func (q TankQuantities) Total() float64 {
	var sum float64
	for _, v := range q {
		sum += v
	}
	return sum
}

// Sub returns q - other per tank
func (q TankQuantities) Sub(other TankQuantities) TankQuantities {
	var out TankQuantities
	for i := range q {
		out[i] = q[i] - other[i]
	}
	return out
}

// Map converts the quantities to a map keyed by tank
func (q TankQuantities) Map() map[Tank]float64 {
	m := make(map[Tank]float64, NumTanks)
	for _, t := range AllTanks {
		m[t] = q[t]
	}
	return m
}

// QuantitiesFromMap builds quantities from a map, ignoring invalid tanks
func QuantitiesFromMap(m map[Tank]float64) TankQuantities {
	var q TankQuantities
	for t, v := range m {
		q.Set(t, v)
	}
	return q
}

// MarshalJSON encodes the quantities as an object keyed by tank key
func (q TankQuantities) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumTanks)
	for _, t := range AllTanks {
		m[t.Key()] = q[t]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by tank key; missing tanks are zero
func (q *TankQuantities) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out TankQuantities
	for k, v := range m {
		t, err := ParseTank(k)
		if err != nil {
			return err
		}
		out[t] = v
	}
	*q = out
	return nil
}
