// Package resolved turns the index-based references of raw node arenas into a
// navigable graph of handles. Resolution is a separate pass over immutable
// arenas: references outside an arena's bounds become UnresolvedReference
// entries on the graph instead of failing the decode, and resolving an
// already-resolved graph yields the same result.
package resolved

import (
	"sort"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/raw"
)

// Handle identifies a node across segments. Handles are stable once assigned:
// they are derived from the segment name and the node's arena index.
type Handle struct {
	Segment string
	Index   int
}

// Node wraps a raw node with its resolved reference targets. Targets are
// parallel to Raw.Refs: Targets[i] is nil for nil references and for
// unresolved ones (the latter are listed on the graph).
type Node struct {
	Handle  Handle
	Raw     *raw.Node
	Targets []*Node
}

// Ref returns the resolved target of the first reference with the given name.
func (n *Node) Ref(name string) *Node {
	for i, r := range n.Raw.Refs {
		if r.Name == name {
			return n.Targets[i]
		}
	}
	return nil
}

// RefList returns the resolved targets of every reference with the given
// name, in wire order. Nil and unresolved targets are kept as nil entries so
// positional inputs keep their positions.
func (n *Node) RefList(name string) []*Node {
	var out []*Node
	for i, r := range n.Raw.Refs {
		if r.Name == name {
			out = append(out, n.Targets[i])
		}
	}
	return out
}

// UnresolvedReference records a reference that pointed outside the graph.
type UnresolvedReference struct {
	From Handle
	Ref  raw.Ref
}

// Segment is one arena's worth of resolved nodes.
type Segment struct {
	Arena *raw.Arena
	Nodes []*Node
}

func (s *Segment) Node(index int) *Node {
	if index < 1 || index > len(s.Nodes) {
		return nil
	}
	return s.Nodes[index-1]
}

// Graph is the merged, resolved view over all segment arenas of a file.
type Graph struct {
	byName     map[string]*Segment
	byUID      map[uuid.UUID]*Segment
	order      []string
	Unresolved []UnresolvedReference
}

// Resolve builds the graph for the given arenas and fixes up every reference.
func Resolve(arenas []*raw.Arena, sink *diag.Sink) *Graph {
	g := &Graph{byName: map[string]*Segment{}, byUID: map[uuid.UUID]*Segment{}}
	for _, a := range arenas {
		seg := &Segment{Arena: a, Nodes: make([]*Node, len(a.Nodes))}
		for i, rn := range a.Nodes {
			seg.Nodes[i] = &Node{
				Handle:  Handle{Segment: a.Name, Index: rn.Index},
				Raw:     rn,
				Targets: make([]*Node, len(rn.Refs)),
			}
		}
		g.byName[a.Name] = seg
		if a.UID != uuid.Nil {
			g.byUID[a.UID] = seg
		}
		g.order = append(g.order, a.Name)
	}
	sort.Strings(g.order)
	g.Resolve(sink)
	return g
}

// Resolve re-runs the fixup pass. It is idempotent: handles never change, and
// a second pass finds exactly the same targets and unresolved references.
func (g *Graph) Resolve(sink *diag.Sink) {
	g.Unresolved = g.Unresolved[:0]
	for _, name := range g.order {
		seg := g.byName[name]
		for _, node := range seg.Nodes {
			for i, ref := range node.Raw.Refs {
				node.Targets[i] = nil
				if ref.IsNil() {
					continue
				}
				target := seg
				if ref.Segment != uuid.Nil {
					target = g.byUID[ref.Segment]
				}
				var resolvedTo *Node
				if target != nil {
					resolvedTo = target.Node(ref.Index)
				}
				if resolvedTo == nil {
					g.Unresolved = append(g.Unresolved, UnresolvedReference{From: node.Handle, Ref: ref})
					if sink != nil {
						sink.Warnf(diag.CodeUnresolvedReference,
							diag.Location{Segment: name, NodeIndex: node.Handle.Index},
							"%s ref %q -> %d not in graph", node.Raw.TypeName, ref.Name, ref.Index)
					}
					continue
				}
				node.Targets[i] = resolvedTo
			}
		}
	}
}

// Segment returns the resolved segment by name.
func (g *Graph) Segment(name string) *Segment { return g.byName[name] }

// SegmentByUID returns the resolved segment by its catalog UID.
func (g *Graph) SegmentByUID(uid uuid.UUID) *Segment { return g.byUID[uid] }

// Segments returns all segments in name order.
func (g *Graph) Segments() []*Segment {
	out := make([]*Segment, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.byName[name])
	}
	return out
}

// Nodes iterates every node in deterministic segment/name order.
func (g *Graph) Nodes(fn func(*Node) bool) {
	for _, name := range g.order {
		for _, n := range g.byName[name].Nodes {
			if !fn(n) {
				return
			}
		}
	}
}
