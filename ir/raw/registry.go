package raw

import "github.com/google/uuid"

// Record type identifiers. The container names record types by GUID; the
// well-known ones below were recovered from part files of releases 2003–2018.
//
// Structural support matrix (decoded = typed fields, structure-only = the
// record is located and sized but its payload stays opaque):
//
//	segment    part        assembly    drawing
//	App        decoded     decoded     decoded
//	DC         decoded     decoded     structure-only
//	Graphics   structure-only          structure-only
//	BRep       structure-only          structure-only
//	Result     structure-only          structure-only
//	Notebook   structure-only          structure-only
//
// Anything not listed in the registry degrades to an opaque node at decode
// time, regardless of segment.
var (
	// Sketch container and 2D entities.
	TypeSketch2D  = uuid.MustParse("8006a2a0-ecc4-11d4-8de9-0010b541caa8")
	TypePoint2D   = uuid.MustParse("8006a022-ecc4-11d4-8de9-0010b541caa8")
	TypeLine2D    = uuid.MustParse("8006a016-ecc4-11d4-8de9-0010b541caa8")
	TypeCircle2D  = uuid.MustParse("8006a04c-ecc4-11d4-8de9-0010b541caa8")
	TypeArc2D     = uuid.MustParse("8006a046-ecc4-11d4-8de9-0010b541caa8")
	TypeEllipse2D = uuid.MustParse("8006a04a-ecc4-11d4-8de9-0010b541caa8")

	// Geometric constraints.
	TypeCoincident    = uuid.MustParse("8006a072-ecc4-11d4-8de9-0010b541caa8")
	TypeParallel      = uuid.MustParse("8006a076-ecc4-11d4-8de9-0010b541caa8")
	TypePerpendicular = uuid.MustParse("8006a078-ecc4-11d4-8de9-0010b541caa8")
	TypeHorizontal    = uuid.MustParse("8006a07a-ecc4-11d4-8de9-0010b541caa8")
	TypeVertical      = uuid.MustParse("8006a07c-ecc4-11d4-8de9-0010b541caa8")
	TypeGround        = uuid.MustParse("8006a082-ecc4-11d4-8de9-0010b541caa8")
	TypeTangent       = uuid.MustParse("8006a086-ecc4-11d4-8de9-0010b541caa8")
	TypeMidpoint      = uuid.MustParse("8006a088-ecc4-11d4-8de9-0010b541caa8")
	TypeSymmetry      = uuid.MustParse("8006a08e-ecc4-11d4-8de9-0010b541caa8")

	// Dimension constraints.
	TypeDimDistance = uuid.MustParse("c173a079-012f-11d5-8dea-0010b541caa8")
	TypeDimOffset   = uuid.MustParse("c173a077-012f-11d5-8dea-0010b541caa8")
	TypeDimRadius   = uuid.MustParse("c173a07b-012f-11d5-8dea-0010b541caa8")
	TypeDimDiameter = uuid.MustParse("c173a07d-012f-11d5-8dea-0010b541caa8")
	TypeDimAngle    = uuid.MustParse("c173a07f-012f-11d5-8dea-0010b541caa8")

	// Parameter table.
	TypeParameter        = uuid.MustParse("90874d26-ecc4-11d4-8de9-0010b541caa8")
	TypeParameterBoolean = uuid.MustParse("90874d28-ecc4-11d4-8de9-0010b541caa8")
	TypeParameterText    = uuid.MustParse("8367b125-ecc4-11d4-8de9-0010b541caa8")
	TypeUnit             = uuid.MustParse("f8a779fd-ecc4-11d4-8de9-0010b541caa8")

	// Features.
	TypeFxExtrude     = uuid.MustParse("729abe28-ecc4-11d4-8de9-0010b541caa8")
	TypeFxRevolve     = uuid.MustParse("4dab0601-ecc4-11d4-8de9-0010b541caa8")
	TypeFxLoft        = uuid.MustParse("9a676a50-ecc4-11d4-8de9-0010b541caa8")
	TypeFxCombine     = uuid.MustParse("93c7ee68-ecc4-11d4-8de9-0010b541caa8")
	TypeFxMirror      = uuid.MustParse("12a31e33-ecc4-11d4-8de9-0010b541caa8")
	TypeFxHole        = uuid.MustParse("3c99df60-ecc4-11d4-8de9-0010b541caa8")
	TypeFxRectPattern = uuid.MustParse("58b0c13d-27cc-4f06-93fd-0524b69e6578")
	TypeFxCircPattern = uuid.MustParse("7bb0e824-4852-4f1b-b43c-7f729a3d7eb8")

	// App (browser) segment.
	TypeBrowserFolder = uuid.MustParse("2b241309-ecc4-11d4-8de9-0010b541caa8")
	TypeBrowserLabel  = uuid.MustParse("9b043321-ecc4-11d4-8de9-0010b541caa8")
)

type registeredReader struct {
	name string
	read func(*recordReader) error
}

var registry = map[uuid.UUID]registeredReader{
	TypeSketch2D:  {"Sketch2D", readSketch2D},
	TypePoint2D:   {"Point2D", readPoint2D},
	TypeLine2D:    {"Line2D", readLine2D},
	TypeCircle2D:  {"Circle2D", readCircle2D},
	TypeArc2D:     {"Arc2D", readCircle2D}, // same layout, arc flag always set
	TypeEllipse2D: {"Ellipse2D", readEllipse2D},

	TypeCoincident:    {"Geometric_Coincident2D", readConstraintPair},
	TypeParallel:      {"Geometric_Parallel2D", readConstraintPair},
	TypePerpendicular: {"Geometric_Perpendicular2D", readConstraintPair},
	TypeTangent:       {"Geometric_Tangent2D", readConstraintPair},
	TypeHorizontal:    {"Geometric_Horizontal2D", readConstraintSingle},
	TypeVertical:      {"Geometric_Vertical2D", readConstraintSingle},
	TypeGround:        {"Geometric_Ground2D", readConstraintSingle},
	TypeMidpoint:      {"Geometric_SymmetryPoint2D", readConstraintPair},
	TypeSymmetry:      {"Geometric_SymmetryLine2D", readConstraintTriple},

	TypeDimDistance: {"Dimension_Distance2D", readDimensionPair},
	TypeDimOffset:   {"Dimension_Offset2D", readDimensionPair},
	TypeDimAngle:    {"Dimension_Angle2D", readDimensionPair},
	TypeDimRadius:   {"Dimension_Radius2D", readDimensionSingle},
	TypeDimDiameter: {"Dimension_Diameter2D", readDimensionSingle},

	TypeParameter:        {"Parameter", readParameter},
	TypeParameterBoolean: {"ParameterBoolean", readParameterBoolean},
	TypeParameterText:    {"ParameterText", readParameterText},
	TypeUnit:             {"Unit", readUnit},

	TypeFxExtrude:     {"FxExtrude", readFxExtrude},
	TypeFxRevolve:     {"FxRevolve", readFxRevolve},
	TypeFxLoft:        {"FxLoft", readFxLoft},
	TypeFxCombine:     {"FxCombine", readFxCombine},
	TypeFxMirror:      {"FxMirror", readFxMirror},
	TypeFxHole:        {"FxHole", readFxHole},
	TypeFxRectPattern: {"FxRectangularPattern", readFxRectPattern},
	TypeFxCircPattern: {"FxCircularPattern", readFxCircPattern},

	TypeBrowserFolder: {"BrowserFolder", readBrowserFolder},
	TypeBrowserLabel:  {"BrowserLabel", readBrowserLabel},
}

func lookupReader(typeID uuid.UUID) *registeredReader {
	r, ok := registry[typeID]
	if !ok {
		return nil
	}
	return &r
}
