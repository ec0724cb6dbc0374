// Package filters inflates compressed segment payloads. Whether a segment is
// compressed is carried by its catalog entry, never inferred from content.
package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wudi/inventorkit/diag"
)

var ErrDecompression = errors.New("decompression error")

// Decoder turns a raw segment payload into its plain bytes.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte) ([]byte, error)
}

type Limits struct {
	MaxInflatedSize int64
}

// Pipeline selects a decoder by catalog compression tag and applies limits.
type Pipeline struct {
	decoders []Decoder
	limits   Limits
}

func NewPipeline(decoders []Decoder, limits Limits) *Pipeline {
	return &Pipeline{decoders: decoders, limits: limits}
}

// NewDefault returns a pipeline with all payload decoders registered.
func NewDefault() *Pipeline {
	return NewPipeline([]Decoder{
		NewRawDecoder(),
		NewZlibDecoder(),
		NewDeflateDecoder(),
	}, Limits{})
}

func (p *Pipeline) find(name string) Decoder {
	for _, d := range p.decoders {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Inflate decodes data with the named decoder. When expectedSize is positive
// and the inflated length disagrees, the mismatch is recorded on the sink and
// the inflated bytes are still returned; one malformed segment must not block
// the rest of the file.
func (p *Pipeline) Inflate(ctx context.Context, data []byte, name string, expectedSize int64, sink *diag.Sink, loc diag.Location) ([]byte, error) {
	dec := p.find(name)
	if dec == nil {
		return nil, fmt.Errorf("unknown payload encoding %q: %w", name, ErrDecompression)
	}
	out, err := dec.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	if p.limits.MaxInflatedSize > 0 && int64(len(out)) > p.limits.MaxInflatedSize {
		return nil, fmt.Errorf("inflated size %d exceeds limit %d: %w", len(out), p.limits.MaxInflatedSize, ErrDecompression)
	}
	if expectedSize > 0 && int64(len(out)) != expectedSize && sink != nil {
		sink.Warnf(diag.CodeSizeMismatch, loc, "inflated %d bytes, catalog declares %d", len(out), expectedSize)
	}
	return out, nil
}

type rawDecoder struct{}

func NewRawDecoder() Decoder    { return rawDecoder{} }
func (rawDecoder) Name() string { return "Raw" }
func (rawDecoder) Decode(ctx context.Context, in []byte) ([]byte, error) {
	return in, nil
}

type zlibDecoder struct{}

func NewZlibDecoder() Decoder    { return zlibDecoder{} }
func (zlibDecoder) Name() string { return "Zlib" }
func (zlibDecoder) Decode(ctx context.Context, in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out.Bytes(), nil
}

type deflateDecoder struct{}

func NewDeflateDecoder() Decoder    { return deflateDecoder{} }
func (deflateDecoder) Name() string { return "Deflate" }
func (deflateDecoder) Decode(ctx context.Context, in []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(in))
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out.Bytes(), nil
}
