package model

import (
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/raw"
	"github.com/wudi/inventorkit/ir/resolved"
)

// roleSpec names one reference a feature kind consumes and whether the feature
// is unusable without it.
type roleSpec struct {
	role     string
	required bool
}

type featureSpec struct {
	kind   FeatureKind
	hasOp  bool
	inputs []roleSpec // geometry references
	params []roleSpec // parameter table references
	lists  []roleSpec // reference lists (participants, sections, ...)
}

var featureSpecs = map[string]featureSpec{
	"FxExtrude": {
		kind:   FeatureExtrude,
		hasOp:  true,
		inputs: []roleSpec{{"profile", true}},
		params: []roleSpec{{"parameter", true}},
	},
	"FxRevolve": {
		kind:   FeatureRevolve,
		hasOp:  true,
		inputs: []roleSpec{{"profile", true}, {"axis", true}},
		params: []roleSpec{{"parameter", true}},
	},
	"FxLoft": {
		kind:  FeatureLoft,
		hasOp: true,
		lists: []roleSpec{{"sections", true}, {"rails", false}},
	},
	"FxCombine": {
		kind:   FeatureCombine,
		hasOp:  true,
		inputs: []roleSpec{{"base", true}, {"tool", true}},
	},
	"FxMirror": {
		kind:   FeatureMirror,
		inputs: []roleSpec{{"plane", true}},
		lists:  []roleSpec{{"participants", true}},
	},
	"FxHole": {
		kind:   FeatureHole,
		params: []roleSpec{{"diameter", true}, {"depth", false}},
		lists:  []roleSpec{{"centers", true}},
	},
	"FxRectangularPattern": {
		kind:   FeatureRectPattern,
		inputs: []roleSpec{{"direction1", true}, {"direction2", false}},
		params: []roleSpec{{"count1", true}, {"count2", false}, {"spacing1", true}, {"spacing2", false}},
		lists:  []roleSpec{{"participants", true}},
	},
	"FxCircularPattern": {
		kind:   FeatureCircPattern,
		inputs: []roleSpec{{"axis", true}},
		params: []roleSpec{{"count", true}, {"angle", true}},
		lists:  []roleSpec{{"participants", true}},
	},
}

// buildFeatures interprets the feature tree in arena order. Features with
// missing required inputs are emitted as incomplete rather than dropped, and
// records flagged as features but without structural decoding become opaque
// descriptors that keep their raw payload.
func buildFeatures(g *resolved.Graph, params *ParameterTable, sink *diag.Sink) []*Feature {
	var features []*Feature
	g.Nodes(func(n *resolved.Node) bool {
		if n.Raw.Opaque {
			if n.Raw.Flags&raw.FlagFeature != 0 {
				if sink != nil {
					sink.Warnf(diag.CodeUnsupportedFeature,
						loc(n.Handle), "feature type %s has no interpretation", n.Raw.TypeName)
				}
				features = append(features, &Feature{
					Kind: FeatureOpaque,
					Name: n.Raw.TypeName,
					H:    n.Handle,
					Raw:  n.Raw.Raw,
				})
			}
			return true
		}
		spec, ok := featureSpecs[n.Raw.TypeName]
		if !ok {
			return true
		}
		features = append(features, buildFeature(n, spec, params, sink))
		return true
	})
	return features
}

func buildFeature(n *resolved.Node, spec featureSpec, params *ParameterTable, sink *diag.Sink) *Feature {
	f := &Feature{
		Kind: spec.kind,
		Name: n.Raw.Str("name"),
		H:    n.Handle,
	}
	if spec.hasOp {
		if op, ok := n.Raw.Attrs["operation"].(uint16); ok {
			f.Operation = BoolOp(op)
		}
	}
	if pl, ok := n.Raw.Attrs["placement"].([]float64); ok && len(pl) == 12 {
		copy(f.Placement.Transform[:], pl)
	}

	incomplete := func(format string, args ...interface{}) {
		f.Incomplete = true
		if sink != nil {
			sink.Warnf(diag.CodeIncompleteFeature, loc(n.Handle), format, args...)
		}
	}

	// The orientation must point at something built before this feature;
	// forward references cannot be honored when replaying the tree in order.
	if wire, ok := n.Raw.Ref("orientation"); ok && !wire.IsNil() {
		target := n.Ref("orientation")
		switch {
		case target == nil:
			incomplete("%s %q: orientation reference did not resolve", f.Kind, f.Name)
		case target.Handle.Segment == n.Handle.Segment && target.Handle.Index >= n.Handle.Index:
			incomplete("%s %q: orientation points at a node not yet built", f.Kind, f.Name)
		default:
			f.Placement.Orientation = target
		}
	}

	for _, in := range spec.inputs {
		wire, present := n.Raw.Ref(in.role)
		target := n.Ref(in.role)
		switch {
		case !present || wire.IsNil():
			if in.required {
				incomplete("%s %q: no %s", f.Kind, f.Name, in.role)
			}
		case target == nil:
			if in.required {
				incomplete("%s %q: %s did not resolve", f.Kind, f.Name, in.role)
			}
		default:
			f.Inputs = append(f.Inputs, FeatureInput{Role: in.role, Node: target})
		}
	}

	for _, list := range spec.lists {
		targets := n.RefList(list.role)
		kept := 0
		for _, target := range targets {
			if target == nil {
				continue
			}
			f.Inputs = append(f.Inputs, FeatureInput{Role: list.role, Node: target})
			kept++
		}
		if kept < len(targets) {
			incomplete("%s %q: %d of %d %s lost", f.Kind, f.Name, len(targets)-kept, len(targets), list.role)
		} else if kept == 0 && list.required {
			incomplete("%s %q: no %s", f.Kind, f.Name, list.role)
		}
	}

	for _, pr := range spec.params {
		wire, present := n.Raw.Ref(pr.role)
		target := n.Ref(pr.role)
		var bound *Parameter
		if target != nil {
			bound, _ = params.ByHandle(target.Handle)
		}
		switch {
		case !present || wire.IsNil():
			if pr.required {
				incomplete("%s %q: no %s parameter", f.Kind, f.Name, pr.role)
			}
		case bound == nil:
			if pr.required {
				incomplete("%s %q: %s is not a parameter", f.Kind, f.Name, pr.role)
			}
		default:
			f.Params = append(f.Params, ParamBinding{Role: pr.role, Parameter: bound})
		}
	}
	return f
}

func loc(h resolved.Handle) diag.Location {
	return diag.Location{Segment: h.Segment, NodeIndex: h.Index}
}
