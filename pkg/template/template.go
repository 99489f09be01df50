// Package template defines the Cardforge data model: templates, field
// definitions, and card data, together with the state-transition functions
// that mutate field lists and bound values.
//
// A Template is an immutable description of one imported design. Field and
// data mutations are modeled as explicit functions (AddField, RenameField,
// RemoveField, SetImageValue, UpdateImageValue) that take the current state
// and return the next state; no ambient mutable globals are involved. Every
// mutation is all-or-nothing and preserves two invariants:
//   - field ids are unique within a template's field list
//   - card data keys are a subset of the current field ids
package template

import (
	"github.com/google/uuid"

	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
)

// Unit is the physical unit of a template's declared dimensions.
type Unit string

const (
	UnitMm Unit = "mm"
	UnitPx Unit = "px"
)

// ViewBox is a template's optional declared viewBox.
type ViewBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Template is the immutable description of one design. It is created on
// import and replaced wholesale on re-import, never partially mutated.
type Template struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Doc     []byte   `json:"doc"` // serialized canonical vector document
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Unit    Unit     `json:"unit"`
	ViewBox *ViewBox `json:"view_box,omitempty"`
	Fonts   []string `json:"fonts,omitempty"`

	Fields []FieldDefinition `json:"fields"`

	// FieldSeq is the highest id suffix ever minted by AddField for this
	// template. It only grows, so removing a field never frees its id.
	FieldSeq int `json:"field_seq,omitempty"`
}

// New builds a template from a serialized canonical document, minting a
// fresh stable id and extracting dimensions, viewBox, referenced fonts,
// and auto-detected fields from the document itself.
func New(name string, doc []byte) (*Template, error) {
	if err := errors.ValidateTemplateName(name); err != nil {
		return nil, err
	}

	parsed, err := canonical.Parse(doc)
	if err != nil {
		return nil, err
	}

	t := &Template{
		ID:     uuid.NewString(),
		Name:   name,
		Doc:    doc,
		Width:  parsed.Width(),
		Height: parsed.Height(),
		Unit:   unitOf(parsed),
		Fonts:  parsed.FontFamilies(),
		Fields: DetectFields(parsed),
	}
	t.FieldSeq = maxGeneratedSuffix(t.Fields)
	if minX, minY, w, h, ok := parsed.ViewBox(); ok {
		t.ViewBox = &ViewBox{MinX: minX, MinY: minY, Width: w, Height: h}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func unitOf(d *canonical.Document) Unit {
	// A trailing "mm" on the width attribute marks a physical template;
	// everything else is treated as pixels.
	if w := d.Root.Attr("width"); len(w) > 2 && w[len(w)-2:] == "mm" {
		return UnitMm
	}
	return UnitPx
}

// Validate checks the template invariants: positive dimensions, a positive
// viewBox when one is declared, and unique field ids.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New(errors.ErrCodeInvalidTemplate, "template id is empty")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidTemplate,
			"template dimensions must be positive, got %gx%g", t.Width, t.Height)
	}
	if t.ViewBox != nil && (t.ViewBox.Width <= 0 || t.ViewBox.Height <= 0) {
		return errors.New(errors.ErrCodeInvalidTemplate,
			"viewBox dimensions must be positive, got %gx%g", t.ViewBox.Width, t.ViewBox.Height)
	}
	if t.Unit != UnitMm && t.Unit != UnitPx {
		return errors.New(errors.ErrCodeInvalidTemplate, "unknown unit %q", t.Unit)
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.ID] {
			return errors.New(errors.ErrCodeDuplicateFieldID, "duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// Document parses and returns the template's canonical document.
func (t *Template) Document() (*canonical.Document, error) {
	return canonical.Parse(t.Doc)
}
