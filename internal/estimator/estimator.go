// Package estimator turns pilot-observed fuel flow readings into a
// predicted burn and a countdown to the next swap.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/saviobatista/fuelbal/internal/types"
)

var ErrInvalidRate = errors.New("fuel flow rate must be a non-negative number")

// Estimator holds the observed rates for the tank currently feeding
type Estimator struct {
	entries []types.GPHEntry
}

func New() *Estimator {
	return &Estimator{}
}

// Restore rebuilds an estimator from a persisted GPH log
func Restore(entries []types.GPHEntry) *Estimator {
	e := &Estimator{entries: append([]types.GPHEntry(nil), entries...)}
	e.sort()
	return e
}

func (e *Estimator) sort() {
	sort.SliceStable(e.entries, func(i, j int) bool {
		return e.entries[i].Elapsed < e.entries[j].Elapsed
	})
}

// Observe records a rate in gallons per hour at the given leg time
func (e *Estimator) Observe(elapsed time.Duration, rate float64) error {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	e.entries = append(e.entries, types.GPHEntry{Elapsed: elapsed, Rate: rate})
	if n := len(e.entries); n > 1 && e.entries[n-2].Elapsed > elapsed {
		e.sort()
	}
	return nil
}

// Reset drops all observations. Called on every swap.
func (e *Estimator) Reset() {
	e.entries = nil
}

// Entries returns a copy of the observations in time order
func (e *Estimator) Entries() []types.GPHEntry {
	return append([]types.GPHEntry(nil), e.entries...)
}

// LatestRate returns the most recent observed rate
func (e *Estimator) LatestRate() (float64, bool) {
	if len(e.entries) == 0 {
		return 0, false
	}
	return e.entries[len(e.entries)-1].Rate, true
}

// PredictedBurn integrates the observed rates up to now. Each observation
// holds until the next one, or until now if that comes first.
func (e *Estimator) PredictedBurn(now time.Duration) float64 {
	var burned float64
	for i, entry := range e.entries {
		end := now
		if i+1 < len(e.entries) && e.entries[i+1].Elapsed < now {
			end = e.entries[i+1].Elapsed
		}
		if end > entry.Elapsed {
			burned += entry.Rate * (end - entry.Elapsed).Hours()
		}
	}
	return burned
}

// Countdown estimates the time until available gallons are burned at the
// latest rate. Zero when there is no usable rate or no fuel left.
func (e *Estimator) Countdown(available float64, now time.Duration) time.Duration {
	rate, ok := e.LatestRate()
	if !ok || rate <= 0 {
		return 0
	}
	left := available - e.PredictedBurn(now)
	if left <= 0 {
		return 0
	}
	return time.Duration(left * float64(time.Hour) / rate)
}

// FormatCountdown renders mm:ss, or h:mm:ss from one hour up
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
