package scripting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/internal/wirebuild"
	"github.com/wudi/inventorkit/ir/model"
	"github.com/wudi/inventorkit/ir/raw"
	"github.com/wudi/inventorkit/ir/resolved"
	"github.com/wudi/inventorkit/scripting"
)

func sampleDocument(t *testing.T) *model.Document {
	t.Helper()
	sb := wirebuild.NewSegment(6)
	mm := sb.AddRecord(raw.TypeUnit, wirebuild.UnitPayload(6, "mm"))
	param := sb.AddRecord(raw.TypeParameter, wirebuild.ParameterPayload(6, "L", mm, "", 5, 5, 0, ""))
	sketch := sb.AddRecord(raw.TypeSketch2D, wirebuild.Sketch2DPayload(6, "Sketch1", nil, nil))
	sb.AddRecord(raw.TypeFxExtrude, wirebuild.FxExtrudePayload(6, "Extrusion1", 0, 0, sketch, param, false))

	entry := catalog.Entry{Name: "M0", Type: catalog.SegDC, Version: 6}
	arena, err := raw.DecodeSegment(entry, sb.M(), sb.B(), &diag.Sink{})
	if err != nil {
		t.Fatal(err)
	}
	g := resolved.Resolve([]*raw.Arena{arena}, nil)
	return model.Build(model.BuildInput{Db: catalog.Db{Kind: catalog.KindPart}, Graph: g})
}

func TestScriptReadsParameters(t *testing.T) {
	e := scripting.NewEngine()
	if err := e.RegisterDocument(sampleDocument(t)); err != nil {
		t.Fatal(err)
	}
	v, err := e.Execute(context.Background(), `param("L").value * 2`)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.(float64); !ok || got != 10 {
		t.Fatalf("result = %v (%T)", v, v)
	}
}

func TestScriptWalksFeatures(t *testing.T) {
	e := scripting.NewEngine()
	if err := e.RegisterDocument(sampleDocument(t)); err != nil {
		t.Fatal(err)
	}
	v, err := e.Execute(context.Background(),
		`features().filter(function(f){ return f.kind === "extrude"; })[0].name`)
	if err != nil {
		t.Fatal(err)
	}
	if v != "Extrusion1" {
		t.Fatalf("result = %v", v)
	}
}

func TestScriptDocObject(t *testing.T) {
	e := scripting.NewEngine()
	if err := e.RegisterDocument(sampleDocument(t)); err != nil {
		t.Fatal(err)
	}
	v, err := e.Execute(context.Background(), `doc.kind`)
	if err != nil {
		t.Fatal(err)
	}
	if v != "part" {
		t.Fatalf("doc.kind = %v", v)
	}
}

func TestExecuteHonorsContext(t *testing.T) {
	e := scripting.NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	if _, err := e.Execute(ctx, "while (true) {}"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	if _, err := e.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestExecuteImmediateCancel(t *testing.T) {
	e := scripting.NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, "42"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}
