package scripting

import (
	"context"

	"github.com/dop251/goja"

	"github.com/wudi/inventorkit/ir/model"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// RegisterDocument binds the document's read surface into the runtime:
// a 'doc' object plus param/params/features/sketches/diagnostics helpers.
// Values cross into JS as plain objects; handles stay opaque strings.
func (e *GojaEngine) RegisterDocument(doc *model.Document) error {
	docObj := e.vm.NewObject()
	if err := docObj.Set("kind", doc.Kind.String()); err != nil {
		return err
	}
	if err := docObj.Set("uid", doc.UID.String()); err != nil {
		return err
	}
	if err := docObj.Set("partial", doc.Partial); err != nil {
		return err
	}
	if err := e.vm.Set("doc", docObj); err != nil {
		return err
	}

	if err := e.vm.Set("param", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 || doc.Parameters == nil {
			return goja.Null()
		}
		p, ok := doc.Parameters.Lookup(call.Arguments[0].String())
		if !ok {
			return goja.Null()
		}
		return e.vm.ToValue(paramView(p))
	}); err != nil {
		return err
	}

	if err := e.vm.Set("params", func(goja.FunctionCall) goja.Value {
		var out []map[string]interface{}
		if doc.Parameters != nil {
			for _, p := range doc.Parameters.All() {
				out = append(out, paramView(p))
			}
		}
		return e.vm.ToValue(out)
	}); err != nil {
		return err
	}

	if err := e.vm.Set("features", func(goja.FunctionCall) goja.Value {
		out := make([]map[string]interface{}, 0, len(doc.Features))
		for _, f := range doc.Features {
			roles := make([]string, 0, len(f.Inputs))
			for _, in := range f.Inputs {
				roles = append(roles, in.Role)
			}
			out = append(out, map[string]interface{}{
				"name":       f.Name,
				"kind":       f.Kind.String(),
				"incomplete": f.Incomplete,
				"inputs":     roles,
			})
		}
		return e.vm.ToValue(out)
	}); err != nil {
		return err
	}

	if err := e.vm.Set("sketches", func(goja.FunctionCall) goja.Value {
		out := make([]map[string]interface{}, 0, len(doc.Sketches))
		for _, s := range doc.Sketches {
			out = append(out, map[string]interface{}{
				"name":        s.Name,
				"entities":    len(s.Entities),
				"constraints": len(s.Constraints),
			})
		}
		return e.vm.ToValue(out)
	}); err != nil {
		return err
	}

	return e.vm.Set("diagnostics", func(goja.FunctionCall) goja.Value {
		out := make([]map[string]interface{}, 0, len(doc.Diagnostics))
		for _, d := range doc.Diagnostics {
			out = append(out, map[string]interface{}{
				"code":    string(d.Code),
				"message": d.Message,
				"segment": d.Location.Segment,
			})
		}
		return e.vm.ToValue(out)
	})
}

func paramView(p *model.Parameter) map[string]interface{} {
	v := map[string]interface{}{
		"name":      p.Name,
		"formula":   p.Formula,
		"evaluated": p.Outcome.Kind == model.OutcomeEvaluated,
	}
	switch p.Kind {
	case model.ParamBoolean:
		v["value"] = p.BoolValue
	case model.ParamText:
		v["value"] = p.TextValue
	default:
		v["value"] = p.Value
		v["unit"] = p.Unit.Name
	}
	return v
}
