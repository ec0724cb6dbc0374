package raw

// Feature records. Every feature opens with the same placement header: a
// display name, a 3x4 transform and an orientation reference into the arena
// (0 when the feature is placed on the default axes). Kind-specific inputs
// follow.

func readFeatureHeader(r *recordReader) {
	r.text16("name")
	r.float64A("placement", 12)
	r.crossRef("orientation")
}

func readFxExtrude(r *recordReader) error {
	readFeatureHeader(r)
	r.uint16("operation")
	r.crossRef("profile")
	r.crossRef("parameter") // extent distance
	r.uint8("symmetric")
	return r.finish()
}

func readFxRevolve(r *recordReader) error {
	readFeatureHeader(r)
	r.uint16("operation")
	r.crossRef("profile")
	r.crossRef("axis")
	r.crossRef("parameter") // sweep angle
	return r.finish()
}

func readFxLoft(r *recordReader) error {
	readFeatureHeader(r)
	r.uint16("operation")
	r.refList("sections", RefCross)
	r.refList("rails", RefCross)
	r.uint8("closed")
	return r.finish()
}

func readFxCombine(r *recordReader) error {
	readFeatureHeader(r)
	r.uint16("operation")
	r.crossRef("base")
	r.crossRef("tool")
	r.uint8("keepTool")
	return r.finish()
}

func readFxMirror(r *recordReader) error {
	readFeatureHeader(r)
	r.refList("participants", RefCross)
	r.crossRef("plane")
	return r.finish()
}

func readFxHole(r *recordReader) error {
	readFeatureHeader(r)
	r.refList("centers", RefCross)
	r.crossRef("diameter") // parameter
	r.crossRef("depth")    // parameter, nil for through-all
	r.uint16("holeType")
	return r.finish()
}

func readFxRectPattern(r *recordReader) error {
	readFeatureHeader(r)
	r.refList("participants", RefCross)
	r.crossRef("direction1")
	r.crossRef("direction2")
	r.crossRef("count1")   // parameter
	r.crossRef("count2")   // parameter
	r.crossRef("spacing1") // parameter
	r.crossRef("spacing2") // parameter
	return r.finish()
}

func readFxCircPattern(r *recordReader) error {
	readFeatureHeader(r)
	r.refList("participants", RefCross)
	r.crossRef("axis")
	r.crossRef("count") // parameter
	r.crossRef("angle") // parameter
	return r.finish()
}
