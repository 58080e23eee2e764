package report

import (
	"encoding/xml"
	"io"
)

// ReadFileObjects parses and returns all fileobject elements from the
// reader, skipping everything else.
func ReadFileObjects(r io.Reader) ([]FileObject, error) {
	dec := xml.NewDecoder(r)
	var objs []FileObject

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "fileobject" {
			var fo FileObject
			if err := dec.DecodeElement(&fo, &start); err != nil {
				return nil, err
			}
			objs = append(objs, fo)
		}
	}
	return objs, nil
}
