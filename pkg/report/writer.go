package report

import (
	"encoding/xml"
	"io"
)

// Writer streams a carve report: one header, then a fileobject per
// recovered file, closed with the root end tag.
type Writer struct {
	w   io.Writer
	enc *xml.Encoder
}

func NewWriter(w io.Writer) *Writer {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return &Writer{
		w:   w,
		enc: enc,
	}
}

func (w *Writer) WriteHeader(hdr Header) error {
	_, _ = w.w.Write([]byte(xml.Header))

	// The root tag is emitted by hand so the version attribute lands on
	// it rather than on a nested element.
	start := xml.StartElement{
		Name: xml.Name{Local: "dfxml"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmloutputversion"}, Value: hdr.XMLOutput},
		},
	}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}

	hdr.XMLOutput = ""
	return w.enc.Encode(hdr)
}

func (w *Writer) WriteFileObject(obj FileObject) error {
	return w.enc.Encode(obj)
}

func (w *Writer) Close() error {
	if err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "dfxml"}}); err != nil {
		return err
	}
	return w.enc.Flush()
}
