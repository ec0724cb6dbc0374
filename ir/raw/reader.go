package raw

import (
	"github.com/google/uuid"

	"github.com/wudi/inventorkit/scanner"
)

// recordReader reads one record's fields into its node. It is error-sticky:
// after the first failed read every call is a no-op, and the pending error is
// returned by finish(). Readers stay linear field lists, as the layouts are.
type recordReader struct {
	cursor  *scanner.Cursor
	node    *Node
	version int
	err     error
}

func (r *recordReader) finish() error { return r.err }

func (r *recordReader) uint8(name string) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.cursor.ReadUint8()
	if err != nil {
		r.err = err
		return 0
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) boolean(name string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.cursor.ReadBool()
	if err != nil {
		r.err = err
		return false
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) uint16(name string) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.cursor.ReadUint16()
	if err != nil {
		r.err = err
		return 0
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) uint32(name string) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.cursor.ReadUint32()
	if err != nil {
		r.err = err
		return 0
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) float64(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.cursor.ReadFloat64()
	if err != nil {
		r.err = err
		return 0
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) float64A(name string, n int) {
	if r.err != nil {
		return
	}
	v, err := r.cursor.ReadFloat64A(n)
	if err != nil {
		r.err = err
		return
	}
	r.node.set(name, v)
}

func (r *recordReader) text16(name string) string {
	if r.err != nil {
		return ""
	}
	enc := scanner.TextUTF16LE
	if r.version < 5 {
		enc = scanner.TextWindows1252
	}
	v, err := r.cursor.ReadLen32Text(enc)
	if err != nil {
		r.err = err
		return ""
	}
	r.node.set(name, v)
	return v
}

func (r *recordReader) ref(name string, kind RefKind) {
	if r.err != nil {
		return
	}
	idx, err := r.cursor.ReadUint32()
	if err != nil {
		r.err = err
		return
	}
	r.node.Refs = append(r.node.Refs, Ref{Name: name, Kind: kind, Index: int(idx)})
}

func (r *recordReader) childRef(name string) { r.ref(name, RefChild) }
func (r *recordReader) crossRef(name string) { r.ref(name, RefCross) }

// refList reads a uint32 count followed by that many reference indices, all
// recorded under the same name.
func (r *recordReader) refList(name string, kind RefKind) {
	if r.err != nil {
		return
	}
	n, err := r.cursor.ReadUint32()
	if err != nil {
		r.err = err
		return
	}
	for i := uint32(0); i < n; i++ {
		r.ref(name, kind)
		if r.err != nil {
			return
		}
	}
}

// externalRef reads a segment UID plus index: a cross-segment reference.
func (r *recordReader) externalRef(name string) {
	if r.err != nil {
		return
	}
	seg, err := r.cursor.ReadGUID()
	if err != nil {
		r.err = err
		return
	}
	idx, err := r.cursor.ReadUint32()
	if err != nil {
		r.err = err
		return
	}
	r.node.Refs = append(r.node.Refs, Ref{Name: name, Kind: RefCross, Index: int(idx), Segment: seg})
}

func (r *recordReader) guid(name string) uuid.UUID {
	if r.err != nil {
		return uuid.Nil
	}
	v, err := r.cursor.ReadGUID()
	if err != nil {
		r.err = err
		return uuid.Nil
	}
	r.node.set(name, v)
	return v
}
