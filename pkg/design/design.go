// Package design implements the visual-design compiler: it translates a
// freeform design-surface object graph into the canonical vector document
// consumed by the rendering engine.
//
// The object graph is a closed set of tagged variants rather than a
// duck-typed union: Static for pass-through markup, and DynamicText,
// ImagePlaceholder, and BarcodeObject for the three data-bound kinds. Each
// dynamic object carries a field id and kind-specific configuration; the
// compiler annotates the emitted element with that binding so the renderer
// can locate it without shape heuristics.
//
// Compiling then extracting reproduces the binding set exactly:
//
//	ExtractFields(Compile(d)) == bindings(d)
//
// for every design whose dynamic objects carry unique field ids. Duplicate
// field ids are rejected at compile time.
package design

import (
	"encoding/json"
	"fmt"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// Box is an object's placement on the design surface, in document units.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Object is one element of the design-surface object graph.
type Object interface {
	// objectKind returns the variant tag; it also closes the interface.
	objectKind() string
}

// Static is any object with no data binding. Its markup is serialized into
// the canonical document as-is.
type Static struct {
	Markup string `json:"markup"`
}

// DynamicText is a text region bound to a field.
type DynamicText struct {
	FieldID    string         `json:"field_id"`
	Default    string         `json:"default,omitempty"`
	FontFamily string         `json:"font_family,omitempty"`
	FontSize   float64        `json:"font_size,omitempty"`
	Align      template.Align `json:"align,omitempty"`
	Box        Box            `json:"box"`
}

// ImagePlaceholder is an image region bound to a field.
type ImagePlaceholder struct {
	FieldID string           `json:"field_id"`
	Fit     template.FitMode `json:"fit,omitempty"`
	Box     Box              `json:"box"`
}

// BarcodeObject is a barcode region bound to a field.
type BarcodeObject struct {
	FieldID string `json:"field_id"`
	Type    string `json:"type,omitempty"`
	Box     Box    `json:"box"`
}

func (Static) objectKind() string           { return "static" }
func (DynamicText) objectKind() string      { return "text" }
func (ImagePlaceholder) objectKind() string { return "image" }
func (BarcodeObject) objectKind() string    { return "barcode" }

// Design is a complete design surface: a drawing area plus its object graph.
type Design struct {
	Width   float64  // document units
	Height  float64  // document units
	Unit    string   // "mm" or "px"; defaults to px
	Objects []Object // drawn back-to-front
}

// Binding is the data-binding triple carried by one dynamic object:
// the field id, the field kind, and the kind-specific configuration
// (default text, fit mode, or barcode symbology).
type Binding struct {
	FieldID string
	Kind    template.FieldKind
	Extra   string
}

// designJSON is the on-disk form of a Design (the CLI import format).
type designJSON struct {
	Width   float64           `json:"width"`
	Height  float64           `json:"height"`
	Unit    string            `json:"unit,omitempty"`
	Objects []json.RawMessage `json:"objects"`
}

type objectHeader struct {
	Kind string `json:"kind"`
}

// Decode parses the design import format. This is the entry point callers
// should use: the standard decoder reports top-level syntax errors before
// the custom unmarshaler ever runs, so Decode maps those to PARSE_FAILURE
// as well.
func Decode(data []byte) (Design, error) {
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		if errors.GetCode(err) != "" {
			return Design{}, err
		}
		return Design{}, errors.Wrap(errors.ErrCodeParseFailure, err, "malformed design")
	}
	return d, nil
}

// UnmarshalJSON decodes the design import format, dispatching each object
// on its "kind" tag.
func (d *Design) UnmarshalJSON(data []byte) error {
	var raw designJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeParseFailure, err, "malformed design")
	}

	d.Width = raw.Width
	d.Height = raw.Height
	d.Unit = raw.Unit
	d.Objects = make([]Object, 0, len(raw.Objects))

	for i, msg := range raw.Objects {
		var hdr objectHeader
		if err := json.Unmarshal(msg, &hdr); err != nil {
			return errors.Wrap(errors.ErrCodeParseFailure, err, "object %d: missing kind", i)
		}
		obj, err := decodeObject(hdr.Kind, msg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeParseFailure, err, "object %d", i)
		}
		d.Objects = append(d.Objects, obj)
	}
	return nil
}

func decodeObject(kind string, msg json.RawMessage) (Object, error) {
	switch kind {
	case "static", "":
		var o Static
		return o, json.Unmarshal(msg, &o)
	case "text":
		var o DynamicText
		return o, json.Unmarshal(msg, &o)
	case "image":
		var o ImagePlaceholder
		return o, json.Unmarshal(msg, &o)
	case "barcode":
		var o BarcodeObject
		return o, json.Unmarshal(msg, &o)
	default:
		return nil, fmt.Errorf("unknown object kind %q", kind)
	}
}
