// Package model builds the document model handed to downstream consumers:
// iProperties, sketches with constraints, the parameter table, the feature
// tree and extracted embedded streams, together with every diagnostic raised
// on the way. The model is immutable once Build returns.
package model

import (
	"github.com/google/uuid"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/resolved"
	"github.com/wudi/inventorkit/units"
)

// Document is the aggregate decode result. Owned exclusively by the caller
// after the decode returns.
type Document struct {
	Kind      catalog.DocumentKind
	UID       uuid.UUID
	DbVersion int

	Properties []IProperty
	Catalog    []catalog.Entry
	Revisions  []catalog.Revision

	Graph      *resolved.Graph
	Sketches   []*Sketch
	Parameters *ParameterTable
	Features   []*Feature
	Workbooks  []Workbook
	Thumbnail  *Thumbnail

	// UFRxDoc is the undocumented top-level structure stream, recognized and
	// carried verbatim.
	UFRxDoc []byte

	// Partial is set when any segment failed outright; the model still holds
	// everything that did decode.
	Partial     bool
	Diagnostics []diag.Diagnostic
}

// IProperty is one document metadata entry from an OLE property set stream.
type IProperty struct {
	Set   string // property set stream name
	ID    uint32
	Name  string // well-known or dictionary name; empty when unknown
	Value interface{}
}

// Workbook is an embedded spreadsheet stream extracted for downstream
// handling; the decoder does not interpret it.
type Workbook struct {
	Storage string
	Name    string
	Data    []byte
}

// Thumbnail is the container's preview image; only the header is interpreted.
type Thumbnail struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// EntityKind discriminates sketch entity variants.
type EntityKind int

const (
	EntityPoint EntityKind = iota
	EntityLine
	EntityCircle
	EntityEllipse
)

// SketchEntity is the variant over 2D sketch primitives.
type SketchEntity interface {
	Kind() EntityKind
	Handle() resolved.Handle
}

type Point2D struct {
	H    resolved.Handle
	X, Y float64
}

func (p *Point2D) Kind() EntityKind        { return EntityPoint }
func (p *Point2D) Handle() resolved.Handle { return p.H }

type Line2D struct {
	H          resolved.Handle
	X, Y       float64 // root point
	DirX, DirY float64
	Start, End *Point2D // nil for construction lines without endpoints
}

func (l *Line2D) Kind() EntityKind        { return EntityLine }
func (l *Line2D) Handle() resolved.Handle { return l.H }

// Circle2D covers full circles and arcs: IsArc selects whether the sweep
// parameters are meaningful.
type Circle2D struct {
	H                    resolved.Handle
	Center               *Point2D
	R                    float64
	IsArc                bool
	StartParam, EndParam float64
}

func (c *Circle2D) Kind() EntityKind        { return EntityCircle }
func (c *Circle2D) Handle() resolved.Handle { return c.H }

type Ellipse2D struct {
	H                    resolved.Handle
	Center               *Point2D
	DirX, DirY           float64 // major axis direction
	A, B                 float64 // major/minor radius
	IsArc                bool
	StartParam, EndParam float64
}

func (e *Ellipse2D) Kind() EntityKind        { return EntityEllipse }
func (e *Ellipse2D) Handle() resolved.Handle { return e.H }

// Constraint is a geometric constraint or dimension attached to entities by
// reference. Dimensions carry the driving parameter.
type Constraint struct {
	Name      string // record type name, e.g. "Geometric_Coincident2D"
	H         resolved.Handle
	Entities  []SketchEntity
	Parameter *Parameter // dimensions only
}

// Sketch is one 2D sketch with its entities in record order.
type Sketch struct {
	Name        string
	H           resolved.Handle
	Placement   [12]float64
	Entities    []SketchEntity
	Constraints []*Constraint
}

// ParameterKind discriminates the parameter table's variants.
type ParameterKind int

const (
	ParamNumeric ParameterKind = iota
	ParamBoolean
	ParamText
)

// OutcomeKind tags how a parameter's value was obtained. A fallback outcome is
// captured once, at table build time, and is not recomputed afterwards.
type OutcomeKind int

const (
	// OutcomeEvaluated means the formula (or constant) evaluated cleanly.
	OutcomeEvaluated OutcomeKind = iota
	// OutcomeFallbackNominal means the formula used an operation the
	// evaluator does not support, or sat on a reference cycle; the nominal
	// value was substituted with its unit.
	OutcomeFallbackNominal
)

type Outcome struct {
	Kind   OutcomeKind
	Reason string // fallback outcomes only
}

type Parameter struct {
	Name      string
	H         resolved.Handle
	Kind      ParameterKind
	Value     float64 // evaluated result, in Unit
	Nominal   float64 // last pre-computed value from the file
	Unit      units.Unit
	Formula   string // empty when the parameter is a constant
	Tolerance uint16
	Comment   string
	Outcome   Outcome

	BoolValue bool   // ParamBoolean
	TextValue string // ParamText
}

// ParameterTable holds parameters in record order with name lookup.
type ParameterTable struct {
	params   []*Parameter
	byName   map[string]*Parameter
	byHandle map[resolved.Handle]*Parameter
}

func (t *ParameterTable) All() []*Parameter {
	out := make([]*Parameter, len(t.params))
	copy(out, t.params)
	return out
}

func (t *ParameterTable) Lookup(name string) (*Parameter, bool) {
	p, ok := t.byName[name]
	return p, ok
}

func (t *ParameterTable) Len() int { return len(t.params) }

// FeatureKind is the closed set of feature tags the interpreter understands.
type FeatureKind int

const (
	FeatureOpaque FeatureKind = iota
	FeatureExtrude
	FeatureRevolve
	FeatureLoft
	FeatureCombine
	FeatureRectPattern
	FeatureCircPattern
	FeatureMirror
	FeatureHole
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureExtrude:
		return "extrude"
	case FeatureRevolve:
		return "revolve"
	case FeatureLoft:
		return "loft"
	case FeatureCombine:
		return "combine"
	case FeatureRectPattern:
		return "rectangular-pattern"
	case FeatureCircPattern:
		return "circular-pattern"
	case FeatureMirror:
		return "mirror"
	case FeatureHole:
		return "hole"
	}
	return "opaque"
}

// BoolOp is the boolean operation of sketch-based features.
type BoolOp uint16

const (
	OpJoin BoolOp = iota
	OpCut
	OpIntersect
	OpNewBody
)

// FeatureInput is one ordered input reference (profile, axis, section, ...).
// Node is nil when the reference did not resolve.
type FeatureInput struct {
	Role string
	Node *resolved.Node
}

// ParamBinding ties a feature input to a parameter table entry.
type ParamBinding struct {
	Role      string
	Parameter *Parameter
}

// Placement is a feature's transform plus its optional orientation reference.
type Placement struct {
	Transform   [12]float64
	Orientation *resolved.Node // nil when placed on the default axes
}

// Feature is one entry of the ordered feature tree. Incomplete features are
// still emitted so the consumer sees as much of the tree as decoded.
type Feature struct {
	Kind       FeatureKind
	Name       string
	H          resolved.Handle
	Operation  BoolOp
	Inputs     []FeatureInput
	Params     []ParamBinding
	Placement  Placement
	Incomplete bool
	Raw        []byte // opaque features keep their undecoded payload
}
