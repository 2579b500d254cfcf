// internal/assembly/template.go
package assembly

import "path/filepath"

// Location is the directory a template and its siblings resolve against.
type Location struct {
	Dir string
}

// Template identifies one assembly unit. Treat it as a value; nothing in
// this package mutates one after construction.
type Template struct {
	FileName string
	Key      string
	Switches string
	Location Location
}

func NewTemplate(loc Location, fileName, key, switches string) Template {
	return Template{
		FileName: fileName,
		Key:      key,
		Switches: switches,
		Location: loc,
	}
}

// Path returns the template's absolute location on disk.
func (t Template) Path() string {
	return filepath.Join(t.Location.Dir, t.FileName)
}

// Sibling returns a template in the same location.
func (t Template) Sibling(fileName, switches string) Template {
	return NewTemplate(t.Location, fileName, "", switches)
}
