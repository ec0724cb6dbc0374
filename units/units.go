// Package units models the measurement units carried by Inventor parameters.
// The host supplies a Resolver to canonicalize and convert unit names; without
// one, units ride through the decoder as opaque strings.
package units

import "strings"

// Unit is a canonical measurement unit with a factor to its base unit
// (millimetres for lengths, radians for angles).
type Unit struct {
	Name   string
	Kind   Kind
	Factor float64
}

type Kind int

const (
	KindUnitless Kind = iota
	KindLength
	KindAngle
	KindOpaque
)

// Resolver maps a unit name parsed from a formula or a unit node to its
// canonical unit. Implemented by the host; DefaultResolver covers the common
// Inventor set.
type Resolver interface {
	Canonical(name string) (Unit, bool)
}

type tableResolver struct {
	units map[string]Unit
}

// DefaultResolver returns a resolver over the unit names Inventor writes into
// part files. Lookup is case-sensitive except for trimming.
func DefaultResolver() Resolver {
	units := []Unit{
		{Name: "mm", Kind: KindLength, Factor: 1},
		{Name: "cm", Kind: KindLength, Factor: 10},
		{Name: "m", Kind: KindLength, Factor: 1000},
		{Name: "in", Kind: KindLength, Factor: 25.4},
		{Name: "ft", Kind: KindLength, Factor: 304.8},
		{Name: "mil", Kind: KindLength, Factor: 0.0254},
		{Name: "rad", Kind: KindAngle, Factor: 1},
		{Name: "deg", Kind: KindAngle, Factor: 0.017453292519943295},
		{Name: "grad", Kind: KindAngle, Factor: 0.015707963267948967},
		{Name: "ul", Kind: KindUnitless, Factor: 1},
	}
	m := make(map[string]Unit, len(units))
	for _, u := range units {
		m[u.Name] = u
	}
	return &tableResolver{units: m}
}

func (r *tableResolver) Canonical(name string) (Unit, bool) {
	u, ok := r.units[strings.TrimSpace(name)]
	return u, ok
}

// Opaque wraps an unrecognized unit name so it survives the decode unchanged.
func Opaque(name string) Unit {
	return Unit{Name: name, Kind: KindOpaque, Factor: 1}
}

// Resolve canonicalizes name through r, falling back to an opaque unit when r
// is nil or does not know the name.
func Resolve(r Resolver, name string) Unit {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unit{Name: "", Kind: KindUnitless, Factor: 1}
	}
	if r != nil {
		if u, ok := r.Canonical(name); ok {
			return u
		}
	}
	return Opaque(name)
}

// Compatible reports whether two units may appear in the same additive
// expression. Opaque units are never rejected; the decoder cannot judge them.
func Compatible(a, b Unit) bool {
	if a.Kind == KindOpaque || b.Kind == KindOpaque {
		return true
	}
	if a.Kind == KindUnitless || b.Kind == KindUnitless {
		return true
	}
	return a.Kind == b.Kind
}
