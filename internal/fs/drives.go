package fs

// Drive is a mounted volume offered as a place to start browsing.
type Drive struct {
	Name string
	Path string
}
