package model_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/internal/wirebuild"
	"github.com/wudi/inventorkit/ir/model"
	"github.com/wudi/inventorkit/ir/raw"
)

func TestSketchEntities(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	p1 := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 6, 0, 0))
	p2 := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 6, 40, 0))
	line := sb.AddRecord(raw.TypeLine2D, wirebuild.Line2DPayload(6, 0, 0, 1, 0, p1, p2))
	center := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 6, 20, 10))
	circle := sb.AddRecord(raw.TypeCircle2D, wirebuild.Circle2DPayload(6, center, 5, nil))
	sketch := sb.AddRecord(raw.TypeSketch2D,
		wirebuild.Sketch2DPayload(6, "Sketch1", []int{p1, p2, line, center, circle}, nil))
	_ = sketch

	sink := &diag.Sink{}
	doc := buildDoc(t, sb, sink)
	if len(doc.Sketches) != 1 {
		t.Fatalf("sketches = %d", len(doc.Sketches))
	}
	s := doc.Sketches[0]
	if s.Name != "Sketch1" || len(s.Entities) != 5 {
		t.Fatalf("sketch = %q with %d entities", s.Name, len(s.Entities))
	}
	l, ok := s.Entities[2].(*model.Line2D)
	if !ok || l.Start == nil || l.End == nil || l.End.X != 40 {
		t.Fatalf("line = %+v", s.Entities[2])
	}
	c, ok := s.Entities[4].(*model.Circle2D)
	if !ok || c.IsArc || c.R != 5 || c.Center == nil || c.Center.Y != 10 {
		t.Fatalf("circle = %+v", s.Entities[4])
	}
	if sink.Len() != 0 {
		t.Fatalf("diagnostics = %v", sink.Entries())
	}
}

func TestArcKeepsSweepParameters(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	center := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 3, 0, 0))
	arc := sb.AddRecord(raw.TypeArc2D, wirebuild.Circle2DPayload(3, center, 3, &[2]float64{0.5, 2.5}))
	sb.AddRecord(raw.TypeSketch2D, wirebuild.Sketch2DPayload(6, "S", []int{center, arc}, nil))

	doc := buildDoc(t, sb, &diag.Sink{})
	a, ok := doc.Sketches[0].Entities[1].(*model.Circle2D)
	if !ok || !a.IsArc || a.StartParam != 0.5 || a.EndParam != 2.5 {
		t.Fatalf("arc = %+v", doc.Sketches[0].Entities[1])
	}
}

func TestLineConnectsToLaterPoint(t *testing.T) {
	// The line record precedes its end point in the arena; the builder's
	// point-first phase still connects them.
	sb := wirebuild.NewSegment(6)
	p1 := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 4, 0, 0))
	line := sb.AddRecord(raw.TypeLine2D, wirebuild.Line2DPayload(4, 0, 0, 1, 0, p1, 3))
	p2 := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 4, 9, 9))
	sb.AddRecord(raw.TypeSketch2D, wirebuild.Sketch2DPayload(6, "S", []int{p1, line, p2}, nil))

	doc := buildDoc(t, sb, &diag.Sink{})
	l := doc.Sketches[0].Entities[1].(*model.Line2D)
	if l.End == nil || l.End.X != 9 {
		t.Fatalf("line end = %+v", l.End)
	}
}

func TestDimensionBindsParameter(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	param := sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "d5", mm, "", 3, 3, 0, ""))
	center := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 5, 0, 0))
	circle := sb.AddRecord(raw.TypeCircle2D, wirebuild.Circle2DPayload(5, center, 3, nil))
	sketch := sb.AddRecord(raw.TypeSketch2D, wirebuild.Sketch2DPayload(6, "S", []int{center, circle}, []int{6}))
	sb.AddRecord(raw.TypeDimRadius, wirebuild.ConstraintPayload(sketch, param, circle))

	doc := buildDoc(t, sb, &diag.Sink{})
	s := doc.Sketches[0]
	if len(s.Constraints) != 1 {
		t.Fatalf("constraints = %+v", s.Constraints)
	}
	c := s.Constraints[0]
	if c.Name != "Dimension_Radius2D" || c.Parameter == nil || c.Parameter.Name != "d5" {
		t.Fatalf("dimension = %+v", c)
	}
	if len(c.Entities) != 1 || c.Entities[0].Kind() != model.EntityCircle {
		t.Fatalf("dimension entities = %+v", c.Entities)
	}
}

func TestConstraintOnLostEntityIsDropped(t *testing.T) {
	sb := wirebuild.NewSegment(6)
	opaque := sb.AddRecord(uuid.MustParse("deadbeef-0000-4000-8000-000000000000"), []byte{1, 2, 3})
	p1 := sb.AddRecord(raw.TypePoint2D, wirebuild.Point2DPayload(6, 3, 0, 0))
	sketch := sb.AddRecord(raw.TypeSketch2D, wirebuild.Sketch2DPayload(6, "S", []int{p1}, []int{4}))
	sb.AddRecord(raw.TypeCoincident, wirebuild.ConstraintPayload(sketch, p1, opaque))

	sink := &diag.Sink{}
	doc := buildDoc(t, sb, sink)
	if len(doc.Sketches[0].Constraints) != 0 {
		t.Fatalf("constraint should be dropped, got %+v", doc.Sketches[0].Constraints)
	}
	if sink.Count(diag.CodeUnresolvedReference) != 1 {
		t.Fatalf("diagnostics = %v", sink.Entries())
	}
}
