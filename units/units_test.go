package units_test

import (
	"testing"

	"github.com/wudi/inventorkit/units"
)

func TestDefaultResolver(t *testing.T) {
	r := units.DefaultResolver()
	mm, ok := r.Canonical("mm")
	if !ok || mm.Kind != units.KindLength || mm.Factor != 1 {
		t.Fatalf("mm = %+v ok=%v", mm, ok)
	}
	in, ok := r.Canonical("in")
	if !ok || in.Factor != 25.4 {
		t.Fatalf("in = %+v ok=%v", in, ok)
	}
	if _, ok := r.Canonical("furlong"); ok {
		t.Fatal("unknown unit resolved")
	}
}

func TestResolveWithoutResolverIsOpaque(t *testing.T) {
	u := units.Resolve(nil, "mm")
	if u.Kind != units.KindOpaque || u.Name != "mm" {
		t.Fatalf("nil resolver should carry units opaquely, got %+v", u)
	}
	u = units.Resolve(units.DefaultResolver(), "deg")
	if u.Kind != units.KindAngle {
		t.Fatalf("deg = %+v", u)
	}
}

func TestCompatible(t *testing.T) {
	r := units.DefaultResolver()
	mm := units.Resolve(r, "mm")
	in := units.Resolve(r, "in")
	deg := units.Resolve(r, "deg")
	ul := units.Resolve(r, "ul")
	if !units.Compatible(mm, in) {
		t.Fatal("mm and in are both lengths")
	}
	if units.Compatible(mm, deg) {
		t.Fatal("length and angle must not mix")
	}
	if !units.Compatible(mm, ul) {
		t.Fatal("unitless mixes with anything")
	}
	if !units.Compatible(mm, units.Opaque("widgets")) {
		t.Fatal("opaque units are never rejected")
	}
}
