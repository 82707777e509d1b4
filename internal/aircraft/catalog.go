// Package aircraft keeps the aircraft a pilot can fly: the built-in
// presets plus custom aircraft saved by tail number.
package aircraft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/saviobatista/fuelbal/internal/types"
)

var (
	ErrNotFound        = errors.New("aircraft not found")
	ErrPresetReadOnly  = errors.New("preset aircraft cannot be changed")
	ErrInvalidAircraft = errors.New("invalid aircraft")
)

// Store persists the custom aircraft list
type Store interface {
	LoadCustomAircraft(ctx context.Context) ([]types.Aircraft, error)
	SaveCustomAircraft(ctx context.Context, list []types.Aircraft) error
}

// Catalog resolves aircraft by id or tail number. Presets come first.
type Catalog struct {
	store   Store
	presets []types.Aircraft
	custom  []types.Aircraft
	newID   func() string
}

// NewCatalog creates a catalog backed by store. A nil store keeps custom
// aircraft in memory only.
func NewCatalog(store Store) *Catalog {
	return &Catalog{
		store:   store,
		presets: []types.Aircraft{types.N215C()},
		newID:   uuid.NewString,
	}
}

// Load reads the custom aircraft from the store. A missing list is empty.
func (c *Catalog) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	list, err := c.store.LoadCustomAircraft(ctx)
	if errors.Is(err, types.ErrNoSavedState) {
		c.custom = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load custom aircraft: %w", err)
	}
	c.custom = list
	return nil
}

// All returns presets followed by custom aircraft
func (c *Catalog) All() []types.Aircraft {
	out := make([]types.Aircraft, 0, len(c.presets)+len(c.custom))
	out = append(out, c.presets...)
	return append(out, c.custom...)
}

// Custom returns only the saved custom aircraft
func (c *Catalog) Custom() []types.Aircraft {
	return append([]types.Aircraft(nil), c.custom...)
}

func (c *Catalog) ByID(id string) (types.Aircraft, bool) {
	for _, a := range c.All() {
		if a.ID == id {
			return a, true
		}
	}
	return types.Aircraft{}, false
}

// ByTail looks up an aircraft by tail number, ignoring case
func (c *Catalog) ByTail(tail string) (types.Aircraft, bool) {
	for _, a := range c.All() {
		if strings.EqualFold(a.TailNumber, strings.TrimSpace(tail)) {
			return a, true
		}
	}
	return types.Aircraft{}, false
}

func validate(a *types.Aircraft) error {
	if strings.TrimSpace(a.TailNumber) == "" {
		return fmt.Errorf("%w: tail number is required", ErrInvalidAircraft)
	}
	seen := make(map[types.Tank]bool)
	for _, s := range a.Tanks {
		if !s.Position.Valid() || seen[s.Position] {
			return fmt.Errorf("%w: bad tank position %d", ErrInvalidAircraft, int(s.Position))
		}
		seen[s.Position] = true
		if s.Capacity <= 0 {
			return fmt.Errorf("%w: %s capacity must be positive", ErrInvalidAircraft, s.Position)
		}
	}
	if len(seen) == 0 {
		return fmt.Errorf("%w: at least one tank is required", ErrInvalidAircraft)
	}
	return nil
}

// Save adds a custom aircraft or replaces the one with the same tail
// number. The stored aircraft is returned with its id filled in.
func (c *Catalog) Save(ctx context.Context, a types.Aircraft) (types.Aircraft, error) {
	if err := validate(&a); err != nil {
		return types.Aircraft{}, err
	}
	for _, p := range c.presets {
		if strings.EqualFold(p.TailNumber, a.TailNumber) {
			return types.Aircraft{}, fmt.Errorf("%w: %s", ErrPresetReadOnly, p.TailNumber)
		}
	}
	a.TailNumber = strings.ToUpper(strings.TrimSpace(a.TailNumber))
	a.IsPreset = false

	list := c.Custom()
	replaced := false
	for i := range list {
		if strings.EqualFold(list[i].TailNumber, a.TailNumber) {
			a.ID = list[i].ID
			list[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		if a.ID == "" {
			a.ID = c.newID()
		}
		list = append(list, a)
	}
	if err := c.persist(ctx, list); err != nil {
		return types.Aircraft{}, err
	}
	return a, nil
}

// Delete removes a custom aircraft by id
func (c *Catalog) Delete(ctx context.Context, id string) error {
	for _, p := range c.presets {
		if p.ID == id {
			return fmt.Errorf("%w: %s", ErrPresetReadOnly, p.TailNumber)
		}
	}
	list := c.Custom()
	for i := range list {
		if list[i].ID == id {
			return c.persist(ctx, append(list[:i], list[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear removes every custom aircraft
func (c *Catalog) Clear(ctx context.Context) error {
	return c.persist(ctx, nil)
}

func (c *Catalog) persist(ctx context.Context, list []types.Aircraft) error {
	if c.store != nil {
		if err := c.store.SaveCustomAircraft(ctx, list); err != nil {
			return fmt.Errorf("failed to save custom aircraft: %w", err)
		}
	}
	c.custom = list
	return nil
}
