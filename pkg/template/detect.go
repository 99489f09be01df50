package template

import (
	"github.com/cardforge/cardforge/pkg/canonical"
)

// DetectFields scans a canonical document for placeholder annotations and
// synthesizes one field definition per annotated element. Kind comes from
// the element's data-field-kind attribute; geometry-relevant styling (font,
// size, alignment, fit mode, barcode symbology) is inferred from the
// element's own attributes.
//
// Detected fields are marked AutoDetected and carry the source element's id
// attribute (falling back to the field id when the element has none) as
// their SourceRef.
func DetectFields(doc *canonical.Document) []FieldDefinition {
	refs := doc.Fields()
	fields := make([]FieldDefinition, 0, len(refs))
	seen := make(map[string]bool, len(refs))

	for _, ref := range refs {
		kind := FieldKind(ref.Kind)
		if !kind.Valid() || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true

		def := FieldDefinition{
			ID:           ref.ID,
			Label:        ref.ID,
			Kind:         kind,
			AutoDetected: true,
			SourceRef:    ref.ID,
		}
		if elID := ref.Element.Attr("id"); elID != "" {
			def.SourceRef = elID
		}

		switch kind {
		case KindText:
			def.FontFamily = ref.Element.Attr("font-family")
			def.FontSize = ref.Element.FloatAttr("font-size")
			if def.FontSize == 0 {
				def.FontSize = 12
			}
			def.Align = alignFromAnchor(ref.Element.Attr("text-anchor"))
		case KindImage:
			def.Fit = FitMode(ref.FitMode)
			if !def.Fit.Valid() {
				def.Fit = FitCover
			}
		case KindBarcode:
			def.BarcodeType = ref.BarcodeType
			if def.BarcodeType == "" {
				def.BarcodeType = "code128"
			}
		}
		fields = append(fields, def)
	}
	return fields
}

func alignFromAnchor(anchor string) Align {
	switch anchor {
	case "middle":
		return AlignMiddle
	case "end":
		return AlignEnd
	default:
		return AlignStart
	}
}
