package model

import (
	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/ir/resolved"
	"github.com/wudi/inventorkit/units"
)

// BuildInput carries everything the model builder consumes. Properties,
// workbooks and the thumbnail come from container streams outside the segment
// graph and are attached by the caller.
type BuildInput struct {
	Db        catalog.Db
	Entries   []catalog.Entry
	Revisions []catalog.Revision
	Graph     *resolved.Graph

	Properties []IProperty
	Workbooks  []Workbook
	Thumbnail  *Thumbnail

	Units units.Resolver
	Sink  *diag.Sink
}

// Build assembles the document model from a resolved graph. Build order is
// fixed: parameters first, then sketches (dimensions bind parameters), then
// features (inputs bind both). Build never fails; everything that could not
// be interpreted is a diagnostic on the sink.
func Build(in BuildInput) *Document {
	sink := in.Sink
	if sink == nil {
		sink = &diag.Sink{}
	}
	res := in.Units
	if res == nil {
		res = units.DefaultResolver()
	}

	doc := &Document{
		Kind:       in.Db.Kind,
		UID:        in.Db.UID,
		DbVersion:  in.Db.Version,
		Properties: in.Properties,
		Catalog:    in.Entries,
		Revisions:  in.Revisions,
		Graph:      in.Graph,
		Workbooks:  in.Workbooks,
		Thumbnail:  in.Thumbnail,
	}
	doc.Parameters = buildParameters(in.Graph, res, sink)
	doc.Sketches = buildSketches(in.Graph, doc.Parameters, sink)
	doc.Features = buildFeatures(in.Graph, doc.Parameters, sink)
	return doc
}
