// Package diag carries the diagnostics channel of the decoder: every partial,
// opaque or unresolved condition met during a decode is appended to a Sink and
// returned alongside the document, never thrown away silently.
package diag

import (
	"fmt"
	"sync"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Code classifies a diagnostic. The set mirrors the decoder's error taxonomy;
// codes are stable strings so downstream consumers can switch on them.
type Code string

const (
	CodeUnsupportedVersion   Code = "UnsupportedVersion"
	CodeStreamNotFound       Code = "StreamNotFound"
	CodeCatalogCorrupt       Code = "CatalogCorrupt"
	CodeDecompressionError   Code = "DecompressionError"
	CodeSizeMismatch         Code = "SizeMismatch"
	CodeTruncatedData        Code = "TruncatedData"
	CodeOpaqueNode           Code = "OpaqueNode"
	CodeUnresolvedReference  Code = "UnresolvedReference"
	CodeCyclicParameter      Code = "CyclicParameter"
	CodeUnsupportedOperation Code = "UnsupportedOperation"
	CodeUnsupportedFeature   Code = "UnsupportedFeature"
	CodeIncompleteFeature    Code = "IncompleteFeature"
)

// Location points at where in the file a diagnostic was raised. Zero fields
// mean "not applicable" (e.g. a parameter cycle has no byte offset).
type Location struct {
	Stream     string
	Segment    string
	ByteOffset int64
	NodeIndex  int
}

func (l Location) String() string {
	switch {
	case l.Segment != "" && l.NodeIndex > 0:
		return fmt.Sprintf("%s#%d", l.Segment, l.NodeIndex)
	case l.Segment != "":
		return fmt.Sprintf("%s@%d", l.Segment, l.ByteOffset)
	case l.Stream != "":
		return fmt.Sprintf("%s@%d", l.Stream, l.ByteOffset)
	}
	return ""
}

type Diagnostic struct {
	Code     Code
	Severity Severity
	Location Location
	Message  string
}

func (d Diagnostic) String() string {
	if loc := d.Location.String(); loc != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, loc, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
}

// Sink accumulates diagnostics. It is safe for concurrent use; segment
// decoders run in parallel and share one sink per decode.
type Sink struct {
	mu      sync.Mutex
	entries []Diagnostic
}

func (s *Sink) Report(d Diagnostic) {
	s.mu.Lock()
	s.entries = append(s.entries, d)
	s.mu.Unlock()
}

// Warnf reports a warning-severity diagnostic with a formatted message.
func (s *Sink) Warnf(code Code, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{Code: code, Severity: SeverityWarning, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Errorf reports an error-severity diagnostic with a formatted message.
func (s *Sink) Errorf(code Code, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{Code: code, Severity: SeverityError, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of the accumulated diagnostics in report order.
func (s *Sink) Entries() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns how many diagnostics carry the given code.
func (s *Sink) Count(code Code) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.entries {
		if d.Code == code {
			n++
		}
	}
	return n
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
