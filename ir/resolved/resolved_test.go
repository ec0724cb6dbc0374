package resolved_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/internal/wirebuild"
	"github.com/wudi/inventorkit/ir/raw"
	"github.com/wudi/inventorkit/ir/resolved"
)

func decode(t *testing.T, entry catalog.Entry, sb *wirebuild.SegmentBuilder) *raw.Arena {
	t.Helper()
	arena, err := raw.DecodeSegment(entry, sb.M(), sb.B(), &diag.Sink{})
	if err != nil {
		t.Fatal(err)
	}
	return arena
}

func TestResolveIntraSegment(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	unit := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	param := sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "L", unit, "", 5, 5, 0, ""))
	arena := decode(t, catalog.Entry{Name: "M0", Type: catalog.SegDC, Version: 6}, sb)

	g := resolved.Resolve([]*raw.Arena{arena}, &diag.Sink{})
	p := g.Segment("M0").Node(param)
	u := p.Ref("unit")
	if u == nil || u.Raw.Str("name") != "mm" {
		t.Fatalf("unit ref did not resolve: %+v", u)
	}
	if len(g.Unresolved) != 0 {
		t.Fatalf("unresolved = %+v", g.Unresolved)
	}
}

func TestOutOfBoundsBecomesUnresolved(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "L", 42, "", 5, 5, 0, ""))
	arena := decode(t, catalog.Entry{Name: "M0", Type: catalog.SegDC, Version: 6}, sb)

	sink := &diag.Sink{}
	g := resolved.Resolve([]*raw.Arena{arena}, sink)
	if len(g.Unresolved) != 1 || g.Unresolved[0].Ref.Index != 42 {
		t.Fatalf("unresolved = %+v", g.Unresolved)
	}
	if sink.Count(diag.CodeUnresolvedReference) != 1 {
		t.Fatalf("diagnostics = %v", sink.Entries())
	}
	if g.Segment("M0").Node(1).Ref("unit") != nil {
		t.Fatal("unresolved ref must yield a nil target, never a bogus node")
	}
}

func TestResolveCrossSegment(t *testing.T) {
	dcUID := uuid.MustParse("6759d86e-0000-4000-8000-0000000000dc")
	dc := wirebuild.NewSegment(6)
	paramIdx := dc.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "L", 0, "", 5, 5, 0, ""))
	dcArena := decode(t, catalog.Entry{Name: "MDC", UID: dcUID, Type: catalog.SegDC, Version: 6}, dc)

	app := wirebuild.NewSegment(6)
	label := app.AddRecord(raw.TypeBrowserLabel, wirebuild.BrowserLabelPayload(6, "L", dcUID, paramIdx))
	appArena := decode(t, catalog.Entry{Name: "MApp", Type: catalog.SegApp, Version: 6}, app)

	g := resolved.Resolve([]*raw.Arena{dcArena, appArena}, &diag.Sink{})
	target := g.Segment("MApp").Node(label).Ref("target")
	if target == nil || target.Handle != (resolved.Handle{Segment: "MDC", Index: paramIdx}) {
		t.Fatalf("cross-segment target = %+v", target)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	unit := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "A", unit, "", 1, 1, 0, ""))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "B", 99, "", 2, 2, 0, ""))
	arena := decode(t, catalog.Entry{Name: "M0", Type: catalog.SegDC, Version: 6}, sb)

	g := resolved.Resolve([]*raw.Arena{arena}, nil)
	firstUnresolved := append([]resolved.UnresolvedReference(nil), g.Unresolved...)
	firstTarget := g.Segment("M0").Node(2).Ref("unit")

	g.Resolve(nil)
	if !reflect.DeepEqual(g.Unresolved, firstUnresolved) {
		t.Fatalf("unresolved changed: %+v vs %+v", g.Unresolved, firstUnresolved)
	}
	if g.Segment("M0").Node(2).Ref("unit") != firstTarget {
		t.Fatal("re-resolving changed a resolved handle")
	}
}
