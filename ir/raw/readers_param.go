package raw

// Parameter table records. A numeric Parameter carries both the nominal value
// (last evaluation result, in the parameter's own unit) and the model value
// (converted to base units); the formula text is empty for constants.

func readParameter(r *recordReader) error {
	r.text16("name")
	r.childRef("unit")
	r.text16("formula")
	r.float64("valueNominal")
	r.float64("valueModel")
	r.uint16("tolerance")
	if r.version >= 6 {
		r.text16("comment")
	}
	return r.finish()
}

func readParameterBoolean(r *recordReader) error {
	if r.version >= 5 {
		r.text16("name")
	}
	r.boolean("value")
	return r.finish()
}

func readParameterText(r *recordReader) error {
	r.text16("name")
	r.text16("value")
	return r.finish()
}

func readUnit(r *recordReader) error {
	r.text16("name")
	return r.finish()
}
