package model

import (
	"strings"

	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/resolved"
	"github.com/wudi/inventorkit/units"
)

// buildParameters collects the parameter records of the graph into a table and
// evaluates every formula. Evaluation happens exactly once: a parameter whose
// formula cannot be evaluated keeps its nominal value with a fallback outcome
// and is never re-evaluated later.
func buildParameters(g *resolved.Graph, res units.Resolver, sink *diag.Sink) *ParameterTable {
	t := &ParameterTable{
		byName:   map[string]*Parameter{},
		byHandle: map[resolved.Handle]*Parameter{},
	}
	g.Nodes(func(n *resolved.Node) bool {
		var p *Parameter
		switch n.Raw.TypeName {
		case "Parameter":
			p = &Parameter{
				Name:      n.Raw.Str("name"),
				H:         n.Handle,
				Kind:      ParamNumeric,
				Nominal:   n.Raw.Float("valueNominal"),
				Formula:   strings.TrimSpace(n.Raw.Str("formula")),
				Comment:   n.Raw.Str("comment"),
				Tolerance: uint16From(n.Raw.Attrs["tolerance"]),
			}
			if u := n.Ref("unit"); u != nil {
				p.Unit = units.Resolve(res, u.Raw.Str("name"))
			} else {
				p.Unit = units.Unit{Kind: units.KindUnitless, Factor: 1}
			}
		case "ParameterBoolean":
			p = &Parameter{
				Name:      n.Raw.Str("name"),
				H:         n.Handle,
				Kind:      ParamBoolean,
				BoolValue: n.Raw.Bool("value"),
				Outcome:   Outcome{Kind: OutcomeEvaluated},
			}
		case "ParameterText":
			p = &Parameter{
				Name:      n.Raw.Str("name"),
				H:         n.Handle,
				Kind:      ParamText,
				TextValue: n.Raw.Str("value"),
				Outcome:   Outcome{Kind: OutcomeEvaluated},
			}
		default:
			return true
		}
		t.params = append(t.params, p)
		t.byHandle[p.H] = p
		if p.Name != "" {
			if _, dup := t.byName[p.Name]; !dup {
				t.byName[p.Name] = p
			}
		}
		return true
	})

	e := newEvaluator(t, res, func(chain []string) {
		if sink != nil {
			sink.Warnf(diag.CodeCyclicParameter, diag.Location{},
				"parameter cycle: %s", strings.Join(chain, " -> "))
		}
	})
	for _, p := range t.params {
		e.settle(p)
		if p.Outcome.Kind == OutcomeFallbackNominal && sink != nil &&
			!strings.HasPrefix(p.Outcome.Reason, "circular parameter reference") {
			sink.Warnf(diag.CodeUnsupportedOperation,
				diag.Location{Segment: p.H.Segment, NodeIndex: p.H.Index},
				"parameter %q formula %q: %s", p.Name, p.Formula, p.Outcome.Reason)
		}
	}
	return t
}

// ByHandle returns the table entry built from the node at h.
func (t *ParameterTable) ByHandle(h resolved.Handle) (*Parameter, bool) {
	p, ok := t.byHandle[h]
	return p, ok
}

func uint16From(v interface{}) uint16 {
	u, _ := v.(uint16)
	return u
}
