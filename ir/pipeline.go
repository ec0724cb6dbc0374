// Package ir wires the decode stages into one pipeline: container, catalog,
// per-segment decode, reference resolution, model build. The pipeline is
// synchronous from the caller's view; segment decoding fans out internally.
package ir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/cfb"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/filters"
	"github.com/wudi/inventorkit/ir/model"
	"github.com/wudi/inventorkit/ir/raw"
	"github.com/wudi/inventorkit/ir/resolved"
	"github.com/wudi/inventorkit/observability"
	"github.com/wudi/inventorkit/units"
	"github.com/wudi/inventorkit/workbook"
)

// Well-known container stream names.
const (
	streamDb        = "RSeDb"
	streamSegInfo   = "RSeSegInfo"
	streamRevisions = "RSeDbRevisionInfo"
	streamUFRxDoc   = "UFRxDoc"
	streamThumbnail = "Thumbnail"
	segmentStorage  = "RSeStorage"
)

var ErrCatalogUnreadable = errors.New("catalog unreadable")

// Config tunes a Pipeline. The zero value is usable: default filters, default
// unit resolver, nop observability, GOMAXPROCS segment workers.
type Config struct {
	Filters        *filters.Pipeline
	Units          units.Resolver
	Logger         observability.Logger
	Tracer         observability.Tracer
	MaxConcurrency int
}

// Pipeline decodes Inventor files into document models. A Pipeline is
// immutable and safe for concurrent use.
type Pipeline struct {
	filters *filters.Pipeline
	units   units.Resolver
	log     observability.Logger
	tracer  observability.Tracer
	workers int
}

func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		filters: cfg.Filters,
		units:   cfg.Units,
		log:     cfg.Logger,
		tracer:  cfg.Tracer,
		workers: cfg.MaxConcurrency,
	}
	if p.filters == nil {
		p.filters = filters.NewDefault()
	}
	if p.units == nil {
		p.units = units.DefaultResolver()
	}
	if p.log == nil {
		p.log = observability.NopLogger{}
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Decode reads the whole input and decodes it. Only container-level problems
// fail the decode; segment and record damage surfaces as diagnostics on the
// returned document.
func (p *Pipeline) Decode(ctx context.Context, r io.Reader) (*model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return p.DecodeBytes(ctx, data)
}

// DecodeBytes decodes an in-memory file.
func (p *Pipeline) DecodeBytes(ctx context.Context, data []byte) (*model.Document, error) {
	ctx, span := p.tracer.StartSpan(ctx, "inv.decode")
	defer span.Finish()
	start := time.Now()

	container, err := cfb.Open(data)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sink := &diag.Sink{}
	db, entries, revisions, err := p.readCatalog(container, sink)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	arenas, partial := p.decodeSegments(ctx, container, entries, sink)
	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}
	graph := resolved.Resolve(arenas, sink)

	in := model.BuildInput{
		Db:        *db,
		Entries:   entries,
		Revisions: revisions,
		Graph:     graph,
		Units:     p.units,
		Sink:      sink,
	}
	in.Properties = p.readProperties(container, sink)
	in.Workbooks = p.readWorkbooks(container, sink)
	if thumb, err := container.ReadStream(streamThumbnail); err == nil {
		in.Thumbnail = model.ParseThumbnail(thumb)
	}

	doc := model.Build(in)
	if ufrx, err := container.ReadStream(streamUFRxDoc); err == nil {
		doc.UFRxDoc = ufrx
	}
	doc.Partial = partial
	doc.Diagnostics = sink.Entries()

	nodes := 0
	for _, a := range arenas {
		nodes += len(a.Nodes)
	}
	p.log.Info("decode complete",
		observability.Int64(observability.MetricDecodeTime, time.Since(start).Milliseconds()),
		observability.Int(observability.MetricSegmentCount, len(arenas)),
		observability.Int(observability.MetricNodeCount, nodes),
		observability.Int(observability.MetricFeatureCount, len(doc.Features)),
		observability.Int("inv.diagnostics", len(doc.Diagnostics)))
	return doc, nil
}

// readCatalog decodes RSeDb, RSeSegInfo and the optional revision stream, in
// that order. An unreadable database or segment directory is fatal; an
// out-of-range database version is carried as a diagnostic and the best-effort
// header is used.
func (p *Pipeline) readCatalog(c *cfb.Container, sink *diag.Sink) (*catalog.Db, []catalog.Entry, []catalog.Revision, error) {
	dbData, err := c.ReadStream(streamDb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnreadable, err)
	}
	db, err := catalog.DecodeDb(dbData)
	if err != nil {
		if !errors.Is(err, catalog.ErrUnsupportedVersion) || db == nil {
			return nil, nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnreadable, err)
		}
		sink.Warnf(diag.CodeUnsupportedVersion, diag.Location{Stream: streamDb},
			"database version %d outside %d..%d, continuing best-effort",
			db.Version, catalog.MinVersion, catalog.MaxVersion)
		// Segment layouts are version-dispatched; clamp to the nearest known.
		if db.Version > catalog.MaxVersion {
			db.Version = catalog.MaxVersion
		} else {
			db.Version = catalog.MinVersion
		}
	}

	segData, err := c.ReadStream(streamSegInfo)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnreadable, err)
	}
	entries, err := catalog.DecodeSegInfo(segData, db.Version)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnreadable, err)
	}

	var revisions []catalog.Revision
	if revData, err := c.ReadStream(streamRevisions); err == nil {
		revisions, err = catalog.DecodeRevisions(revData)
		if err != nil {
			sink.Warnf(diag.CodeCatalogCorrupt, diag.Location{Stream: streamRevisions},
				"revision info unreadable: %v", err)
		}
	}
	return db, entries, revisions, nil
}

// decodeSegments fans segment decoding out over a bounded worker pool and
// joins before returning. Arenas come back in catalog order with failed
// segments dropped; the second result reports whether anything was dropped.
func (p *Pipeline) decodeSegments(ctx context.Context, c *cfb.Container, entries []catalog.Entry, sink *diag.Sink) ([]*raw.Arena, bool) {
	arenas := make([]*raw.Arena, len(entries))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			arenas[i] = p.decodeSegment(ctx, c, entries[i], sink)
		}(i)
	}
	wg.Wait()

	out := make([]*raw.Arena, 0, len(arenas))
	partial := false
	for _, a := range arenas {
		if a == nil {
			partial = true
			continue
		}
		out = append(out, a)
	}
	return out, partial
}

// decodeSegment reads one M/B stream pair. Any failure is recorded on the
// sink and drops just this segment.
func (p *Pipeline) decodeSegment(ctx context.Context, c *cfb.Container, entry catalog.Entry, sink *diag.Sink) *raw.Arena {
	loc := diag.Location{Stream: segmentStorage + "/" + entry.Name, Segment: entry.Name}

	mData, err := c.ReadStream(segmentStorage + "/M" + entry.Name)
	if err != nil {
		sink.Errorf(diag.CodeStreamNotFound, loc, "segment %q: %v", entry.Name, err)
		return nil
	}
	bData, err := c.ReadStream(segmentStorage + "/B" + entry.Name)
	if err != nil {
		sink.Errorf(diag.CodeStreamNotFound, loc, "segment %q: %v", entry.Name, err)
		return nil
	}

	// The catalog may window the payload inside the B stream.
	if entry.Length > 0 {
		end := int64(entry.Offset) + int64(entry.Length)
		if end > int64(len(bData)) {
			sink.Errorf(diag.CodeTruncatedData, loc,
				"segment %q: range [%d,%d) exceeds %d stream bytes", entry.Name, entry.Offset, end, len(bData))
			return nil
		}
		bData = bData[entry.Offset:end]
	}

	codec := "Raw"
	var expected int64
	if entry.Compressed {
		codec = "Zlib"
		expected = int64(entry.Inflated)
	}
	bData, err = p.filters.Inflate(ctx, bData, codec, expected, sink, loc)
	if err != nil {
		sink.Errorf(diag.CodeDecompressionError, loc, "segment %q: %v", entry.Name, err)
		return nil
	}

	arena, err := raw.DecodeSegment(entry, mData, bData, sink)
	if err != nil {
		sink.Errorf(diag.CodeCatalogCorrupt, loc, "segment %q: %v", entry.Name, err)
		return nil
	}
	p.log.Debug("segment decoded",
		observability.String("segment", entry.Name),
		observability.Int(observability.MetricNodeCount, len(arena.Nodes)))
	return arena
}

// readProperties decodes every OLE property set stream. Their names start
// with the 0x05 marker byte, per the structured storage convention.
func (p *Pipeline) readProperties(c *cfb.Container, sink *diag.Sink) []model.IProperty {
	var props []model.IProperty
	for _, path := range c.Streams() {
		base := path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			base = path[i+1:]
		}
		if len(base) == 0 || base[0] != 0x05 {
			continue
		}
		data, err := c.ReadStream(path)
		if err != nil {
			continue
		}
		setName := base[1:]
		decoded, err := model.DecodePropertySet(setName, data)
		if err != nil {
			sink.Warnf(diag.CodeTruncatedData, diag.Location{Stream: path},
				"property set %q: %v", setName, err)
			continue
		}
		props = append(props, decoded...)
	}
	return props
}

func (p *Pipeline) readWorkbooks(c *cfb.Container, sink *diag.Sink) []model.Workbook {
	streams, err := workbook.Extract(c)
	if err != nil {
		sink.Warnf(diag.CodeTruncatedData, diag.Location{Stream: "RSeEmbeddings"},
			"workbook extraction: %v", err)
	}
	out := make([]model.Workbook, 0, len(streams))
	for _, s := range streams {
		out = append(out, model.Workbook{Storage: s.Storage, Name: s.Name, Data: s.Data})
	}
	return out
}
