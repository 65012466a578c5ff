package primitives

import (
	"fmt"
	"strings"
	"sync"
)

// Catalog maps canonical primitive names to implementations. It is safe for
// concurrent use; the built-in catalog is populated once and then only read.
type Catalog struct {
	mu         sync.RWMutex
	primitives map[string]Primitive
	order      []string // Maintains registration order
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		primitives: make(map[string]Primitive),
		order:      make([]string, 0),
	}
}

// Default returns a catalog holding every built-in primitive, with
// distance_to_holiday measured against New Year's Day.
func Default() *Catalog {
	return Builtin(NewYearsDay())
}

// Builtin returns a catalog holding every built-in primitive, with
// distance_to_holiday measured against the given calendar.
func Builtin(holidays *HolidayCalendar) *Catalog {
	c := NewCatalog()
	for _, p := range builtinAggregations() {
		mustRegister(c, p)
	}
	for _, p := range builtinTransforms(holidays) {
		mustRegister(c, p)
	}
	return c
}

func mustRegister(c *Catalog, p Primitive) {
	if err := c.Register(p); err != nil {
		panic(err)
	}
}

// Canonical normalises a user supplied primitive name.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a primitive to the catalog
func (c *Catalog) Register(p Primitive) error {
	if p == nil {
		return fmt.Errorf("cannot register nil primitive")
	}

	name := Canonical(p.Name())
	if name == "" {
		return fmt.Errorf("primitive name cannot be empty")
	}
	switch p.Kind() {
	case KindAggregation:
		if _, ok := p.(Aggregation); !ok {
			return fmt.Errorf("primitive %s declares aggregation kind but does not implement Aggregation", name)
		}
	case KindTransform:
		if _, ok := p.(Transform); !ok {
			return fmt.Errorf("primitive %s declares transform kind but does not implement Transform", name)
		}
	default:
		return fmt.Errorf("primitive %s has invalid kind %d", name, p.Kind())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.primitives[name]; exists {
		return fmt.Errorf("primitive %s already registered", name)
	}

	c.primitives[name] = p
	c.order = append(c.order, name)
	return nil
}

// Resolve looks up a primitive of any kind
func (c *Catalog) Resolve(name string) (Primitive, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.primitives[Canonical(name)]
	if !ok {
		return nil, &UnknownPrimitiveError{Name: name, Available: c.namesLocked(0)}
	}
	return p, nil
}

// ResolveAggregation looks up an aggregation primitive. Transform names are
// reported as unknown.
func (c *Catalog) ResolveAggregation(name string) (Aggregation, error) {
	p, err := c.resolveKind(name, KindAggregation)
	if err != nil {
		return nil, err
	}
	return p.(Aggregation), nil
}

// ResolveTransform looks up a transform primitive. Aggregation names are
// reported as unknown.
func (c *Catalog) ResolveTransform(name string) (Transform, error) {
	p, err := c.resolveKind(name, KindTransform)
	if err != nil {
		return nil, err
	}
	return p.(Transform), nil
}

func (c *Catalog) resolveKind(name string, kind Kind) (Primitive, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.primitives[Canonical(name)]
	if !ok || p.Kind() != kind {
		return nil, &UnknownPrimitiveError{Name: name, Kind: kind, Available: c.namesLocked(kind)}
	}
	return p, nil
}

// Has checks if a primitive is registered
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.primitives[Canonical(name)]
	return exists
}

// List returns all registered primitives in registration order
func (c *Catalog) List() []Primitive {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Primitive, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.primitives[name])
	}
	return out
}

// Names returns the names of the given kind in registration order. A zero
// kind returns every name.
func (c *Catalog) Names(kind Kind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.namesLocked(kind)
}

func (c *Catalog) namesLocked(kind Kind) []string {
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if kind == 0 || c.primitives[name].Kind() == kind {
			names = append(names, name)
		}
	}
	return names
}

// Count returns the number of registered primitives
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.primitives)
}
