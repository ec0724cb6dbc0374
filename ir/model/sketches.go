package model

import (
	"strings"

	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/resolved"
)

// buildSketches assembles 2D sketches from the graph. Entities are built in
// dependency phases (points first, then curves that reference them), so a
// curve whose center or endpoint appears later in the arena still connects.
// Constraints attach afterwards; a constraint whose entity never became a
// model entity is dropped with a diagnostic, never fatal.
func buildSketches(g *resolved.Graph, params *ParameterTable, sink *diag.Sink) []*Sketch {
	entities := map[resolved.Handle]SketchEntity{}

	g.Nodes(func(n *resolved.Node) bool {
		if n.Raw.TypeName == "Point2D" {
			entities[n.Handle] = &Point2D{H: n.Handle, X: n.Raw.Float("x"), Y: n.Raw.Float("y")}
		}
		return true
	})

	point := func(n *resolved.Node) *Point2D {
		if n == nil {
			return nil
		}
		p, _ := entities[n.Handle].(*Point2D)
		return p
	}

	g.Nodes(func(n *resolved.Node) bool {
		switch n.Raw.TypeName {
		case "Line2D":
			entities[n.Handle] = &Line2D{
				H:     n.Handle,
				X:     n.Raw.Float("x"),
				Y:     n.Raw.Float("y"),
				DirX:  n.Raw.Float("dirX"),
				DirY:  n.Raw.Float("dirY"),
				Start: point(n.Ref("start")),
				End:   point(n.Ref("end")),
			}
		case "Circle2D", "Arc2D":
			c := &Circle2D{
				H:      n.Handle,
				Center: point(n.Ref("center")),
				R:      n.Raw.Float("r"),
			}
			if _, ok := n.Raw.Attrs["startParam"]; ok {
				c.IsArc = true
				c.StartParam = n.Raw.Float("startParam")
				c.EndParam = n.Raw.Float("endParam")
			}
			entities[n.Handle] = c
		case "Ellipse2D":
			e := &Ellipse2D{
				H:      n.Handle,
				Center: point(n.Ref("center")),
				DirX:   n.Raw.Float("dirX"),
				DirY:   n.Raw.Float("dirY"),
				A:      n.Raw.Float("a"),
				B:      n.Raw.Float("b"),
			}
			if _, ok := n.Raw.Attrs["startParam"]; ok {
				e.IsArc = true
				e.StartParam = n.Raw.Float("startParam")
				e.EndParam = n.Raw.Float("endParam")
			}
			entities[n.Handle] = e
		}
		return true
	})

	var sketches []*Sketch
	byHandle := map[resolved.Handle]*Sketch{}
	g.Nodes(func(n *resolved.Node) bool {
		if n.Raw.TypeName != "Sketch2D" {
			return true
		}
		s := &Sketch{Name: n.Raw.Str("name"), H: n.Handle}
		if pl, ok := n.Raw.Attrs["placement"].([]float64); ok && len(pl) == 12 {
			copy(s.Placement[:], pl)
		}
		for _, target := range n.RefList("entities") {
			if target == nil {
				continue // already reported by the resolver
			}
			if ent, ok := entities[target.Handle]; ok {
				s.Entities = append(s.Entities, ent)
			}
		}
		sketches = append(sketches, s)
		byHandle[n.Handle] = s
		return true
	})

	g.Nodes(func(n *resolved.Node) bool {
		isConstraint := strings.HasPrefix(n.Raw.TypeName, "Geometric_")
		isDimension := strings.HasPrefix(n.Raw.TypeName, "Dimension_")
		if !isConstraint && !isDimension {
			return true
		}
		owner := n.Ref("sketch")
		if owner == nil {
			return true
		}
		sketch, ok := byHandle[owner.Handle]
		if !ok {
			return true
		}
		c := &Constraint{Name: n.Raw.TypeName, H: n.Handle}
		complete := true
		for _, role := range []string{"entity", "entity2", "axis"} {
			wire, present := n.Raw.Ref(role)
			if !present || wire.IsNil() {
				continue
			}
			target := n.Ref(role)
			var ent SketchEntity
			if target != nil {
				ent = entities[target.Handle]
			}
			if ent == nil {
				complete = false
				continue
			}
			c.Entities = append(c.Entities, ent)
		}
		if isDimension {
			if target := n.Ref("parameter"); target != nil {
				c.Parameter, _ = params.ByHandle(target.Handle)
			}
			if c.Parameter == nil {
				complete = false
			}
		}
		if !complete {
			if sink != nil {
				sink.Warnf(diag.CodeUnresolvedReference,
					diag.Location{Segment: n.Handle.Segment, NodeIndex: n.Handle.Index},
					"%s lost an input entity, constraint dropped", n.Raw.TypeName)
			}
			return true
		}
		sketch.Constraints = append(sketch.Constraints, c)
		return true
	})

	return sketches
}
