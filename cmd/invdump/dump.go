package main

import (
	"fmt"

	"github.com/wudi/inventorkit/ir/model"
)

// dumpView flattens the document into plain structs for YAML output. Graph
// handles are rendered as "segment#index" strings.
type dumpDoc struct {
	Kind        string          `yaml:"kind"`
	UID         string          `yaml:"uid"`
	DbVersion   int             `yaml:"dbVersion"`
	Partial     bool            `yaml:"partial,omitempty"`
	Properties  []dumpProperty  `yaml:"properties,omitempty"`
	Parameters  []dumpParameter `yaml:"parameters,omitempty"`
	Sketches    []dumpSketch    `yaml:"sketches,omitempty"`
	Features    []dumpFeature   `yaml:"features,omitempty"`
	Workbooks   []string        `yaml:"workbooks,omitempty"`
	Diagnostics []string        `yaml:"diagnostics,omitempty"`
}

type dumpProperty struct {
	Set   string      `yaml:"set"`
	Name  string      `yaml:"name,omitempty"`
	ID    uint32      `yaml:"id"`
	Value interface{} `yaml:"value"`
}

type dumpParameter struct {
	Name    string      `yaml:"name"`
	Value   interface{} `yaml:"value"`
	Unit    string      `yaml:"unit,omitempty"`
	Formula string      `yaml:"formula,omitempty"`
	Nominal string      `yaml:"nominal,omitempty"` // fallback reason when set
}

type dumpSketch struct {
	Name        string   `yaml:"name"`
	Entities    []string `yaml:"entities,omitempty"`
	Constraints []string `yaml:"constraints,omitempty"`
}

type dumpFeature struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind"`
	Incomplete bool              `yaml:"incomplete,omitempty"`
	Inputs     map[string]string `yaml:"inputs,omitempty"`
	Params     map[string]string `yaml:"params,omitempty"`
}

func dumpView(doc *model.Document) dumpDoc {
	d := dumpDoc{
		Kind:      doc.Kind.String(),
		UID:       doc.UID.String(),
		DbVersion: doc.DbVersion,
		Partial:   doc.Partial,
	}
	for _, p := range doc.Properties {
		d.Properties = append(d.Properties, dumpProperty{Set: p.Set, Name: p.Name, ID: p.ID, Value: p.Value})
	}
	for _, p := range doc.Parameters.All() {
		dp := dumpParameter{Name: p.Name, Formula: p.Formula}
		switch p.Kind {
		case model.ParamBoolean:
			dp.Value = p.BoolValue
		case model.ParamText:
			dp.Value = p.TextValue
		default:
			dp.Value = p.Value
			dp.Unit = p.Unit.Name
		}
		if p.Outcome.Kind == model.OutcomeFallbackNominal {
			dp.Nominal = p.Outcome.Reason
		}
		d.Parameters = append(d.Parameters, dp)
	}
	for _, s := range doc.Sketches {
		ds := dumpSketch{Name: s.Name}
		for _, e := range s.Entities {
			ds.Entities = append(ds.Entities, describeEntity(e))
		}
		for _, c := range s.Constraints {
			ds.Constraints = append(ds.Constraints, c.Name)
		}
		d.Sketches = append(d.Sketches, ds)
	}
	for _, f := range doc.Features {
		df := dumpFeature{Name: f.Name, Kind: f.Kind.String(), Incomplete: f.Incomplete}
		for _, in := range f.Inputs {
			if df.Inputs == nil {
				df.Inputs = map[string]string{}
			}
			df.Inputs[in.Role] = fmt.Sprintf("%s#%d", in.Node.Handle.Segment, in.Node.Handle.Index)
		}
		for _, pb := range f.Params {
			if df.Params == nil {
				df.Params = map[string]string{}
			}
			df.Params[pb.Role] = pb.Parameter.Name
		}
		d.Features = append(d.Features, df)
	}
	for _, w := range doc.Workbooks {
		d.Workbooks = append(d.Workbooks, w.Storage+"/"+w.Name)
	}
	for _, diag := range doc.Diagnostics {
		d.Diagnostics = append(d.Diagnostics, diag.String())
	}
	return d
}
