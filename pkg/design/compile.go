package design

import (
	"fmt"

	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// Compile walks the design's object graph and emits the canonical vector
// document. Static objects pass through unchanged; each dynamic object is
// serialized with its field id and field-kind annotation.
//
// Two dynamic objects carrying the same field id would leave the renderer's
// choice of binding undefined, so Compile rejects duplicates with
// DUPLICATE_FIELD_ID instead of silently picking one.
func Compile(d Design) (*canonical.Document, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"design dimensions must be positive, got %gx%g", d.Width, d.Height)
	}

	root := &canonical.Element{Name: "svg"}
	unit := d.Unit
	if unit != "mm" {
		unit = "px"
	}
	suffix := ""
	if unit == "mm" {
		suffix = "mm"
	}
	root.SetAttr("width", fmt.Sprintf("%g%s", d.Width, suffix))
	root.SetAttr("height", fmt.Sprintf("%g%s", d.Height, suffix))
	root.SetAttr("viewBox", fmt.Sprintf("0 0 %g %g", d.Width, d.Height))

	bound := make(map[string]bool)
	claim := func(id string) error {
		if err := errors.ValidateFieldID(id); err != nil {
			return err
		}
		if bound[id] {
			return errors.New(errors.ErrCodeDuplicateFieldID,
				"field id bound by two objects: %s", id)
		}
		bound[id] = true
		return nil
	}

	for i, obj := range d.Objects {
		switch o := obj.(type) {
		case Static:
			el, err := parseFragment(o.Markup)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeParseFailure, err,
					"static object %d", i)
			}
			root.Children = append(root.Children, el)
		case DynamicText:
			if err := claim(o.FieldID); err != nil {
				return nil, err
			}
			root.Children = append(root.Children, compileText(o))
		case ImagePlaceholder:
			if err := claim(o.FieldID); err != nil {
				return nil, err
			}
			root.Children = append(root.Children, compileImage(o))
		case BarcodeObject:
			if err := claim(o.FieldID); err != nil {
				return nil, err
			}
			root.Children = append(root.Children, compileBarcode(o))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported,
				"object %d: unknown kind %T", i, obj)
		}
	}

	return &canonical.Document{Root: root}, nil
}

func compileText(o DynamicText) *canonical.Element {
	el := &canonical.Element{Name: "text", Text: o.Default}
	// Baseline sits at the bottom of the box; the anchor x depends on the
	// declared alignment so substituted text grows the right way.
	x := o.Box.X
	anchor := "start"
	switch o.Align {
	case template.AlignMiddle:
		x = o.Box.X + o.Box.W/2
		anchor = "middle"
	case template.AlignEnd:
		x = o.Box.X + o.Box.W
		anchor = "end"
	}
	el.SetAttr("x", formatNum(x))
	el.SetAttr("y", formatNum(o.Box.Y+o.Box.H))
	if o.FontFamily != "" {
		el.SetAttr("font-family", o.FontFamily)
	}
	if o.FontSize > 0 {
		el.SetAttr("font-size", formatNum(o.FontSize))
	}
	el.SetAttr("text-anchor", anchor)
	el.SetAttr(canonical.AttrFieldID, o.FieldID)
	el.SetAttr(canonical.AttrFieldKind, string(template.KindText))
	if o.Default != "" {
		el.SetAttr(canonical.AttrDefault, o.Default)
	}
	return el
}

func compileImage(o ImagePlaceholder) *canonical.Element {
	el := &canonical.Element{Name: "image"}
	setBox(el, o.Box)
	fit := o.Fit
	if !fit.Valid() {
		fit = template.FitCover
	}
	el.SetAttr(canonical.AttrFieldID, o.FieldID)
	el.SetAttr(canonical.AttrFieldKind, string(template.KindImage))
	el.SetAttr(canonical.AttrFitMode, string(fit))
	return el
}

func compileBarcode(o BarcodeObject) *canonical.Element {
	el := &canonical.Element{Name: "rect"}
	setBox(el, o.Box)
	el.SetAttr("fill", "none")
	typ := o.Type
	if typ == "" {
		typ = "code128"
	}
	el.SetAttr(canonical.AttrFieldID, o.FieldID)
	el.SetAttr(canonical.AttrFieldKind, string(template.KindBarcode))
	el.SetAttr(canonical.AttrBarcodeType, typ)
	return el
}

func setBox(el *canonical.Element, b Box) {
	el.SetAttr("x", formatNum(b.X))
	el.SetAttr("y", formatNum(b.Y))
	el.SetAttr("width", formatNum(b.W))
	el.SetAttr("height", formatNum(b.H))
}

func formatNum(f float64) string {
	return fmt.Sprintf("%g", f)
}

// parseFragment parses a single-rooted markup fragment into an element.
func parseFragment(markup string) (*canonical.Element, error) {
	doc, err := canonical.Parse([]byte(markup))
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

// ExtractFields returns the binding set of a compiled document: one Binding
// per annotated element, in document order. It is the inverse of Compile
// over the dynamic objects of a design.
func ExtractFields(doc *canonical.Document) []Binding {
	refs := doc.Fields()
	bindings := make([]Binding, 0, len(refs))
	for _, ref := range refs {
		b := Binding{FieldID: ref.ID, Kind: template.FieldKind(ref.Kind)}
		switch b.Kind {
		case template.KindText:
			b.Extra = ref.Element.Attr(canonical.AttrDefault)
		case template.KindImage:
			b.Extra = ref.FitMode
		case template.KindBarcode:
			b.Extra = ref.BarcodeType
		}
		bindings = append(bindings, b)
	}
	return bindings
}
