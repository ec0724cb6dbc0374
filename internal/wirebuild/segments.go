package wirebuild

import (
	"github.com/google/uuid"
)

// SegmentBuilder assembles an M/B stream pair: the M stream holds the type
// table and record directory, the B stream holds the record payloads.
type SegmentBuilder struct {
	version int
	types   []uuid.UUID
	typeIdx map[uuid.UUID]uint16
	records []segRecord
}

type segRecord struct {
	typeIndex uint16
	flags     uint16
	payload   []byte
}

func NewSegment(version int) *SegmentBuilder {
	return &SegmentBuilder{version: version, typeIdx: map[uuid.UUID]uint16{}}
}

func (s *SegmentBuilder) Version() int { return s.version }

// AddRecord appends a record and returns its 1-based node index.
func (s *SegmentBuilder) AddRecord(typeID uuid.UUID, payload []byte) int {
	return s.AddRecordFlags(typeID, payload, 0)
}

// AddRecordFlags appends a record with directory flags set.
func (s *SegmentBuilder) AddRecordFlags(typeID uuid.UUID, payload []byte, flags uint16) int {
	idx, ok := s.typeIdx[typeID]
	if !ok {
		idx = uint16(len(s.types))
		s.types = append(s.types, typeID)
		s.typeIdx[typeID] = idx
	}
	s.records = append(s.records, segRecord{typeIndex: idx, flags: flags, payload: payload})
	return len(s.records)
}

// M returns the structural stream bytes.
func (s *SegmentBuilder) M() []byte {
	b := AppendUint32(nil, uint32(len(s.types)))
	for _, t := range s.types {
		b = AppendGUID(b, t)
	}
	b = AppendUint32(b, uint32(len(s.records)))
	offset := uint32(0)
	for _, r := range s.records {
		b = AppendUint32(b, offset)
		b = AppendUint32(b, uint32(len(r.payload)))
		b = AppendUint16(b, r.typeIndex)
		b = AppendUint16(b, r.flags)
		offset += uint32(len(r.payload))
	}
	return b
}

// B returns the payload stream bytes.
func (s *SegmentBuilder) B() []byte {
	var b []byte
	for _, r := range s.records {
		b = append(b, r.payload...)
	}
	return b
}

// --- record payload encoders, matching the layouts in ir/raw ---

func textField(version int, s string) []byte {
	if version < 5 {
		b := AppendUint32(nil, uint32(len(s)))
		return append(b, []byte(s)...) // fixtures use ASCII below version 5
	}
	return AppendLen32Text16(nil, s)
}

func Sketch2DPayload(version int, name string, entities, constraints []int) []byte {
	b := textField(version, name)
	b = AppendUint32(b, 0) // flags
	b = append(b, identityPlacement()...)
	b = AppendUint32(b, uint32(len(entities)))
	for _, e := range entities {
		b = AppendUint32(b, uint32(e))
	}
	b = AppendUint32(b, uint32(len(constraints)))
	for _, c := range constraints {
		b = AppendUint32(b, uint32(c))
	}
	return b
}

func Point2DPayload(version, sketch int, x, y float64) []byte {
	b := AppendUint32(nil, uint32(sketch))
	b = AppendFloat64(b, x)
	b = AppendFloat64(b, y)
	if version >= 7 {
		b = AppendUint32(b, 0)
	}
	return b
}

func Line2DPayload(sketch int, x, y, dx, dy float64, start, end int) []byte {
	b := AppendUint32(nil, uint32(sketch))
	b = AppendFloat64(b, x)
	b = AppendFloat64(b, y)
	b = AppendFloat64(b, dx)
	b = AppendFloat64(b, dy)
	b = AppendUint32(b, uint32(start))
	return AppendUint32(b, uint32(end))
}

// Circle2DPayload encodes a full circle when arc is nil, an arc otherwise.
func Circle2DPayload(sketch, center int, r float64, arc *[2]float64) []byte {
	b := AppendUint32(nil, uint32(sketch))
	b = AppendUint32(b, uint32(center))
	b = AppendFloat64(b, r)
	if arc == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = AppendFloat64(b, arc[0])
	return AppendFloat64(b, arc[1])
}

func Ellipse2DPayload(sketch, center int, dx, dy, a, bAxis float64, arc *[2]float64) []byte {
	b := AppendUint32(nil, uint32(sketch))
	b = AppendUint32(b, uint32(center))
	b = AppendFloat64(b, dx)
	b = AppendFloat64(b, dy)
	b = AppendFloat64(b, a)
	b = AppendFloat64(b, bAxis)
	if arc == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = AppendFloat64(b, arc[0])
	return AppendFloat64(b, arc[1])
}

// ConstraintPayload encodes the sketch ref plus entity refs of a geometric
// constraint or (with a leading parameter ref) a dimension.
func ConstraintPayload(refs ...int) []byte {
	var b []byte
	for _, r := range refs {
		b = AppendUint32(b, uint32(r))
	}
	return b
}

func ParameterPayload(version int, name string, unit int, formula string, nominal, model float64, tolerance uint16, comment string) []byte {
	b := textField(version, name)
	b = AppendUint32(b, uint32(unit))
	b = append(b, textField(version, formula)...)
	b = AppendFloat64(b, nominal)
	b = AppendFloat64(b, model)
	b = AppendUint16(b, tolerance)
	if version >= 6 {
		b = append(b, textField(version, comment)...)
	}
	return b
}

func ParameterBooleanPayload(version int, name string, value bool) []byte {
	var b []byte
	if version >= 5 {
		b = textField(version, name)
	}
	if value {
		return append(b, 1)
	}
	return append(b, 0)
}

func ParameterTextPayload(version int, name, value string) []byte {
	b := textField(version, name)
	return append(b, textField(version, value)...)
}

func UnitPayload(version int, name string) []byte {
	return textField(version, name)
}

func identityPlacement() []byte {
	var b []byte
	for i := 0; i < 12; i++ {
		v := 0.0
		if i == 0 || i == 5 || i == 10 {
			v = 1.0
		}
		b = AppendFloat64(b, v)
	}
	return b
}

// FeatureHeader encodes the common feature prefix: name, identity placement,
// orientation reference.
func FeatureHeader(version int, name string, orientation int) []byte {
	b := textField(version, name)
	b = append(b, identityPlacement()...)
	return AppendUint32(b, uint32(orientation))
}

func FxExtrudePayload(version int, name string, orientation int, op uint16, profile, parameter int, symmetric bool) []byte {
	b := FeatureHeader(version, name, orientation)
	b = AppendUint16(b, op)
	b = AppendUint32(b, uint32(profile))
	b = AppendUint32(b, uint32(parameter))
	if symmetric {
		return append(b, 1)
	}
	return append(b, 0)
}

func FxRevolvePayload(version int, name string, orientation int, op uint16, profile, axis, parameter int) []byte {
	b := FeatureHeader(version, name, orientation)
	b = AppendUint16(b, op)
	b = AppendUint32(b, uint32(profile))
	b = AppendUint32(b, uint32(axis))
	return AppendUint32(b, uint32(parameter))
}

func FxCircPatternPayload(version int, name string, orientation int, participants []int, axis, count, angle int) []byte {
	b := FeatureHeader(version, name, orientation)
	b = AppendUint32(b, uint32(len(participants)))
	for _, p := range participants {
		b = AppendUint32(b, uint32(p))
	}
	b = AppendUint32(b, uint32(axis))
	b = AppendUint32(b, uint32(count))
	return AppendUint32(b, uint32(angle))
}

func FxMirrorPayload(version int, name string, orientation int, participants []int, plane int) []byte {
	b := FeatureHeader(version, name, orientation)
	b = AppendUint32(b, uint32(len(participants)))
	for _, p := range participants {
		b = AppendUint32(b, uint32(p))
	}
	return AppendUint32(b, uint32(plane))
}

func FxHolePayload(version int, name string, orientation int, centers []int, diameter, depth int, holeType uint16) []byte {
	b := FeatureHeader(version, name, orientation)
	b = AppendUint32(b, uint32(len(centers)))
	for _, c := range centers {
		b = AppendUint32(b, uint32(c))
	}
	b = AppendUint32(b, uint32(diameter))
	b = AppendUint32(b, uint32(depth))
	return AppendUint16(b, holeType)
}

func BrowserFolderPayload(version int, name string, children []int) []byte {
	b := textField(version, name)
	b = AppendUint32(b, 0)
	b = AppendUint32(b, uint32(len(children)))
	for _, c := range children {
		b = AppendUint32(b, uint32(c))
	}
	return b
}

func BrowserLabelPayload(version int, name string, targetSegment uuid.UUID, targetIndex int) []byte {
	b := textField(version, name)
	b = AppendUint32(b, 0)
	b = AppendGUID(b, targetSegment)
	return AppendUint32(b, uint32(targetIndex))
}
