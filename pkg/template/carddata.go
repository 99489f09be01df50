package template

// ImageValue is the structured value bound to an image field. Offset and
// scale are independently adjustable without replacing the image reference.
type ImageValue struct {
	Src     string  `json:"src"` // opaque reference: file path or data URI
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Scale   float64 `json:"scale"`
}

// Value is a tagged union of the three field value shapes. Exactly one of
// the branches is meaningful, selected by Kind.
type Value struct {
	Kind    FieldKind  `json:"kind"`
	Text    string     `json:"text,omitempty"`    // kind == text
	Image   ImageValue `json:"image,omitempty"`   // kind == image
	Barcode string     `json:"barcode,omitempty"` // kind == barcode: payload to encode
}

// TextValue builds a text field value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// BarcodeValue builds a barcode field value.
func BarcodeValue(payload string) Value { return Value{Kind: KindBarcode, Barcode: payload} }

// CardData maps field ids to bound values. Every key must correspond to a
// field currently present in the template's field list; RenameField and
// RemoveField keep the mapping in step with the field list.
type CardData map[string]Value

func (d CardData) clone() CardData {
	next := make(CardData, len(d))
	for k, v := range d {
		next[k] = v
	}
	return next
}

// SetImageValue assigns an image source to a field, defaulting offset and
// scale to (0, 0, 1) on first assignment. Re-assigning the source keeps the
// stored offset and scale so a replaced photo stays framed the same way.
func SetImageValue(data CardData, fieldID, src string) CardData {
	next := data.clone()
	v, ok := next[fieldID]
	if !ok || v.Kind != KindImage {
		next[fieldID] = Value{Kind: KindImage, Image: ImageValue{Src: src, Scale: 1}}
		return next
	}
	v.Image.Src = src
	next[fieldID] = v
	return next
}

// UpdateImageValue adjusts the offset and scale of an existing image value.
// Applied to a missing or non-image value it is a no-op.
func UpdateImageValue(data CardData, fieldID string, offsetX, offsetY, scale float64) CardData {
	v, ok := data[fieldID]
	if !ok || v.Kind != KindImage {
		return data
	}
	next := data.clone()
	v.Image.OffsetX = offsetX
	v.Image.OffsetY = offsetY
	v.Image.Scale = scale
	next[fieldID] = v
	return next
}
