package canonical

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/cardforge/cardforge/pkg/errors"
)

// Annotation attribute names carried by data-bound elements.
const (
	AttrFieldID     = "data-field-id"
	AttrFieldKind   = "data-field-kind"
	AttrBarcodeType = "data-barcode-type"
	AttrFitMode     = "data-fit-mode"
	AttrDefault     = "data-default"
)

// DefaultPxPerMm is the device resolution assumed when converting between
// physical and pixel units (10 px/mm = 254 dpi).
const DefaultPxPerMm = 10.0

// MmToPx converts millimeters to pixels at the given resolution.
func MmToPx(mm, pxPerMm float64) float64 { return mm * pxPerMm }

// PxToMm converts pixels to millimeters at the given resolution.
func PxToMm(px, pxPerMm float64) float64 { return px / pxPerMm }

// Element is one node of the parsed document tree. Text holds the element's
// character data; for the subset Cardforge emits, elements carry either text
// or child elements, never interleaved content.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// RemoveAttr deletes the named attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// FloatAttr returns the named attribute parsed as a float. Unit suffixes
// (mm, px) are stripped. Returns 0 if absent or unparsable.
func (e *Element) FloatAttr(name string) float64 {
	v := strings.TrimSpace(e.Attr(name))
	v = strings.TrimSuffix(v, "px")
	v = strings.TrimSuffix(v, "mm")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// Document is a parsed canonical vector document.
type Document struct {
	Root *Element
}

// FieldRef describes one data-bound element found in a document.
type FieldRef struct {
	ID          string
	Kind        string
	BarcodeType string
	FitMode     string
	Element     *Element
}

// Parse reads a canonical document from its serialized form.
// Malformed input is reported with code PARSE_FAILURE.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var stack []*Element
	var root *Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "malformed document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				// Drop namespace declarations other than the default one;
				// the subset we consume is single-namespace.
				if a.Name.Space == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: a.Name.Local, Space: a.Name.Space}, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New(errors.ErrCodeParseFailure, "multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New(errors.ErrCodeParseFailure, "unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				s := string(t)
				if strings.TrimSpace(s) != "" {
					stack[len(stack)-1].Text += s
				}
			}
		}
	}

	if root == nil {
		return nil, errors.New(errors.ErrCodeParseFailure, "empty document")
	}
	if len(stack) != 0 {
		return nil, errors.New(errors.ErrCodeParseFailure, "unterminated element %q", stack[len(stack)-1].Name)
	}
	return &Document{Root: root}, nil
}

// Bytes serializes the document. Serialization is deterministic: attributes
// are written in stored order, so a parse/serialize round trip over output
// produced by this package is byte-stable.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeElement(&buf, d.Root, 0)
	return buf.Bytes()
}

func writeElement(buf *bytes.Buffer, e *Element, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	if e.Name == "svg" && depth == 0 && e.Attr("xmlns") == "" {
		buf.WriteString(` xmlns="http://www.w3.org/2000/svg"`)
	}
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteByte('>')
	if e.Text != "" {
		_ = xml.EscapeText(buf, []byte(e.Text))
	}
	if len(e.Children) > 0 {
		buf.WriteByte('\n')
		for _, c := range e.Children {
			writeElement(buf, c, depth+1)
		}
		buf.WriteString(indent)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteString(">\n")
}

// Width returns the document width in its declared unit.
func (d *Document) Width() float64 { return d.Root.FloatAttr("width") }

// Height returns the document height in its declared unit.
func (d *Document) Height() float64 { return d.Root.FloatAttr("height") }

// ViewBox returns the document's viewBox as (minX, minY, width, height).
// ok is false when no viewBox is declared.
func (d *Document) ViewBox() (minX, minY, w, h float64, ok bool) {
	v := d.Root.Attr("viewBox")
	if v == "" {
		return 0, 0, 0, 0, false
	}
	parts := strings.Fields(v)
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		vals[i] = f
	}
	return vals[0], vals[1], vals[2], vals[3], true
}

// Fields returns every data-bound element in document order.
func (d *Document) Fields() []FieldRef {
	var refs []FieldRef
	walk(d.Root, func(e *Element) {
		id := e.Attr(AttrFieldID)
		kind := e.Attr(AttrFieldKind)
		if id == "" || kind == "" {
			return
		}
		refs = append(refs, FieldRef{
			ID:          id,
			Kind:        kind,
			BarcodeType: e.Attr(AttrBarcodeType),
			FitMode:     e.Attr(AttrFitMode),
			Element:     e,
		})
	})
	return refs
}

// FindField returns the element annotated with the given field id, or nil.
func (d *Document) FindField(id string) *Element {
	var found *Element
	walk(d.Root, func(e *Element) {
		if found == nil && e.Attr(AttrFieldID) == id {
			found = e
		}
	})
	return found
}

// FontFamilies returns the distinct font-family values referenced by the
// document, in first-seen order.
func (d *Document) FontFamilies() []string {
	seen := make(map[string]bool)
	var fams []string
	walk(d.Root, func(e *Element) {
		f := strings.TrimSpace(e.Attr("font-family"))
		if f != "" && !seen[f] {
			seen[f] = true
			fams = append(fams, f)
		}
	})
	return fams
}

func walk(e *Element, fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		walk(c, fn)
	}
}
