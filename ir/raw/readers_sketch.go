package raw

// Sketch record layouts. All sketch entities open with a cross reference to
// their owning sketch, matching the content-header convention of the format.

func readSketch2D(r *recordReader) error {
	r.text16("name")
	r.uint32("flags")
	r.float64A("placement", 12)
	r.refList("entities", RefChild)
	r.refList("constraints", RefChild)
	return r.finish()
}

func readPoint2D(r *recordReader) error {
	r.crossRef("sketch")
	r.float64("x")
	r.float64("y")
	if r.version >= 7 {
		// 2013 onwards appends association flags to sketch points.
		r.uint32("flags")
	}
	return r.finish()
}

func readLine2D(r *recordReader) error {
	r.crossRef("sketch")
	r.float64("x")
	r.float64("y")
	r.float64("dirX")
	r.float64("dirY")
	r.crossRef("start")
	r.crossRef("end")
	return r.finish()
}

// readCircle2D covers circles and arcs: the arc flag selects whether start
// and end sweep parameters follow the radius.
func readCircle2D(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("center")
	r.float64("r")
	if arc := r.uint8("isArc"); arc != 0 {
		r.float64("startParam")
		r.float64("endParam")
	}
	return r.finish()
}

func readEllipse2D(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("center")
	r.float64("dirX")
	r.float64("dirY")
	r.float64("a")
	r.float64("b")
	if arc := r.uint8("isArc"); arc != 0 {
		r.float64("startParam")
		r.float64("endParam")
	}
	return r.finish()
}

func readConstraintSingle(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("entity")
	return r.finish()
}

func readConstraintPair(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("entity")
	r.crossRef("entity2")
	return r.finish()
}

func readConstraintTriple(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("entity")
	r.crossRef("entity2")
	r.crossRef("axis")
	return r.finish()
}

func readDimensionSingle(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("parameter")
	r.crossRef("entity")
	return r.finish()
}

func readDimensionPair(r *recordReader) error {
	r.crossRef("sketch")
	r.crossRef("parameter")
	r.crossRef("entity")
	r.crossRef("entity2")
	return r.finish()
}
