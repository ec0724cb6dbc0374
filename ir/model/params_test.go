package model_test

import (
	"strings"
	"testing"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/internal/wirebuild"
	"github.com/wudi/inventorkit/ir/model"
	"github.com/wudi/inventorkit/ir/raw"
	"github.com/wudi/inventorkit/ir/resolved"
)

// buildDoc decodes a single DC segment and runs the model builder over it.
func buildDoc(t *testing.T, sb *wirebuild.SegmentBuilder, sink *diag.Sink) *model.Document {
	t.Helper()
	entry := catalog.Entry{Name: "M0", Type: catalog.SegDC, Version: sb.Version()}
	arena, err := raw.DecodeSegment(entry, sb.M(), sb.B(), sink)
	if err != nil {
		t.Fatal(err)
	}
	g := resolved.Resolve([]*raw.Arena{arena}, sink)
	return model.Build(model.BuildInput{Graph: g, Sink: sink})
}

func TestParameterFormulaEvaluates(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "L", mm, "", 5, 5, 0, ""))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "W", mm, "2 * L + 3", 99, 99, 0, ""))

	sink := &diag.Sink{}
	doc := buildDoc(t, sb, sink)
	w, ok := doc.Parameters.Lookup("W")
	if !ok {
		t.Fatal("W not in table")
	}
	if w.Outcome.Kind != model.OutcomeEvaluated {
		t.Fatalf("outcome = %+v", w.Outcome)
	}
	if w.Value != 13 || w.Unit.Name != "mm" {
		t.Fatalf("W = %v %s, want 13 mm", w.Value, w.Unit.Name)
	}
	if sink.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Entries())
	}
}

func TestParameterUnitLiteralConverts(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "D", mm, "2 in", 0, 0, 0, ""))

	doc := buildDoc(t, sb, &diag.Sink{})
	d, _ := doc.Parameters.Lookup("D")
	if d.Value != 50.8 {
		t.Fatalf("D = %v, want 50.8", d.Value)
	}
}

func TestParameterCycleFallsBackOnce(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "A", mm, "B + 1", 10, 10, 0, ""))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "B", mm, "A + 1", 20, 20, 0, ""))

	sink := &diag.Sink{}
	doc := buildDoc(t, sb, sink)
	a, _ := doc.Parameters.Lookup("A")
	b, _ := doc.Parameters.Lookup("B")
	if a.Outcome.Kind != model.OutcomeFallbackNominal || a.Value != 10 {
		t.Fatalf("A = %+v", a)
	}
	if b.Outcome.Kind != model.OutcomeFallbackNominal || b.Value != 20 {
		t.Fatalf("B = %+v", b)
	}
	if sink.Count(diag.CodeCyclicParameter) != 1 {
		t.Fatalf("want exactly one cycle diagnostic, got %v", sink.Entries())
	}
}

func TestParameterUnsupportedFunctionFallsBack(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "P", mm, "sin( 1 ) + 2", 7, 7, 0, ""))

	sink := &diag.Sink{}
	doc := buildDoc(t, sb, sink)
	p, _ := doc.Parameters.Lookup("P")
	if p.Outcome.Kind != model.OutcomeFallbackNominal || p.Value != 7 || p.Unit.Name != "mm" {
		t.Fatalf("P = %+v", p)
	}
	if !strings.Contains(p.Outcome.Reason, "sin") {
		t.Fatalf("reason = %q", p.Outcome.Reason)
	}
	if sink.Count(diag.CodeUnsupportedOperation) != 1 {
		t.Fatalf("diagnostics = %v", sink.Entries())
	}
}

func TestParameterChainUsesFallbackValue(t *testing.T) {
	// C is outside the A/B cycle and evaluates against their nominal values.
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "A", mm, "B + 1", 10, 10, 0, ""))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "B", mm, "A + 1", 20, 20, 0, ""))
	sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "C", mm, "A * 2", 0, 0, 0, ""))

	doc := buildDoc(t, sb, &diag.Sink{})
	c, _ := doc.Parameters.Lookup("C")
	if c.Outcome.Kind != model.OutcomeEvaluated || c.Value != 20 {
		t.Fatalf("C = %+v, want 20 from A's nominal", c)
	}
}

func TestBooleanAndTextParameters(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	sb.AddRecord(raw.TypeParameterBoolean, wirebuild.ParameterBooleanPayload(6, "flip", true))
	sb.AddRecord(raw.TypeParameterText, wirebuild.ParameterTextPayload(6, "note", "rev B"))

	doc := buildDoc(t, sb, &diag.Sink{})
	flip, _ := doc.Parameters.Lookup("flip")
	if flip.Kind != model.ParamBoolean || !flip.BoolValue {
		t.Fatalf("flip = %+v", flip)
	}
	note, _ := doc.Parameters.Lookup("note")
	if note.Kind != model.ParamText || note.TextValue != "rev B" {
		t.Fatalf("note = %+v", note)
	}
}
