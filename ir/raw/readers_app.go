package raw

// App (browser) segment records: the tree shown in Inventor's model browser.
// Labels reference nodes in other segments by segment UID plus index; those
// references are fixed up after all segments have decoded.

func readBrowserFolder(r *recordReader) error {
	r.text16("name")
	r.uint32("flags")
	r.refList("children", RefChild)
	return r.finish()
}

func readBrowserLabel(r *recordReader) error {
	r.text16("name")
	r.uint32("flags")
	r.externalRef("target")
	return r.finish()
}
