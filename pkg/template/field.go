package template

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cardforge/cardforge/pkg/errors"
)

// FieldKind classifies what a field's bound value means at render time.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindImage   FieldKind = "image"
	KindBarcode FieldKind = "barcode"
)

// Valid reports whether k is a known field kind.
func (k FieldKind) Valid() bool {
	return k == KindText || k == KindImage || k == KindBarcode
}

// Align is a text field's horizontal alignment.
type Align string

const (
	AlignStart  Align = "start"
	AlignMiddle Align = "middle"
	AlignEnd    Align = "end"
)

// FitMode is the policy for mapping a source image into its target box.
type FitMode string

const (
	// FitCover fills the box, cropping overflow, preserving aspect ratio.
	FitCover FitMode = "cover"
	// FitContain fits inside the box, preserving aspect ratio, letterboxing.
	FitContain FitMode = "contain"
	// FitFill stretches to the box, ignoring aspect ratio.
	FitFill FitMode = "fill"
)

// Valid reports whether m is a known fit mode.
func (m FitMode) Valid() bool {
	return m == FitCover || m == FitContain || m == FitFill
}

// FieldDefinition describes one editable region of a template.
//
// The id is stable across renames of the label; renaming the id itself mints
// a new id and migrates the bound data (see RenameField). Auto-detected
// fields always carry a SourceRef back to the element they were detected
// from; manually added ones never do.
type FieldDefinition struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Kind  FieldKind `json:"kind"`

	// Text styling (kind == text)
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	Align      Align   `json:"align,omitempty"`

	// Image placement (kind == image)
	Fit FitMode `json:"fit,omitempty"`

	// Barcode symbology (kind == barcode)
	BarcodeType string `json:"barcode_type,omitempty"`

	AutoDetected bool   `json:"auto_detected,omitempty"`
	SourceRef    string `json:"source_ref,omitempty"`
}

// generatedID matches ids minted by AddField.
var generatedID = regexp.MustCompile(`^field-(\d+)$`)

// maxGeneratedSuffix returns the highest suffix among generated ids in the
// field list, or zero when none match.
func maxGeneratedSuffix(fields []FieldDefinition) int {
	max := 0
	for _, f := range fields {
		m := generatedID.FindStringSubmatch(f.ID)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}

// nextID synthesizes a fresh unique id with a monotonic suffix. seq is the
// highest suffix ever minted for this field list; suffixes present in the
// current list are folded in so imported documents with generated-looking
// ids cannot collide. An id that is merely absent is never reused.
func nextID(fields []FieldDefinition, seq int) (string, int) {
	if m := maxGeneratedSuffix(fields); m > seq {
		seq = m
	}
	seq++
	return fmt.Sprintf("field-%d", seq), seq
}

// AddField appends a manually added field of the given kind with
// kind-appropriate defaults. seq is the caller's id high-water mark
// (Template.FieldSeq); the advanced mark is returned alongside the new
// field list and the created definition, and must be stored back so that
// removed ids are never reused. The input slice is not modified.
func AddField(fields []FieldDefinition, seq int, kind FieldKind) ([]FieldDefinition, int, FieldDefinition, error) {
	if !kind.Valid() {
		return nil, seq, FieldDefinition{}, errors.New(errors.ErrCodeInvalidFieldKind, "unknown field kind %q", kind)
	}

	def := FieldDefinition{Kind: kind}
	def.ID, seq = nextID(fields, seq)
	def.Label = def.ID
	switch kind {
	case KindText:
		def.FontSize = 12
		def.Align = AlignStart
	case KindImage:
		def.Fit = FitCover
	case KindBarcode:
		def.BarcodeType = "code128"
	}

	next := make([]FieldDefinition, len(fields), len(fields)+1)
	copy(next, fields)
	return append(next, def), seq, def, nil
}

// RenameField rekeys a field and its bound value from oldID to newID.
//
// The rename is atomic: the field list and card data are both rekeyed, or
// neither is. A newID colliding with a different existing field is rejected
// with DUPLICATE_FIELD_ID and the inputs are returned unchanged.
func RenameField(fields []FieldDefinition, data CardData, oldID, newID string) ([]FieldDefinition, CardData, error) {
	if err := errors.ValidateFieldID(newID); err != nil {
		return fields, data, err
	}
	if oldID == newID {
		return fields, data, nil
	}

	idx := -1
	for i, f := range fields {
		if f.ID == newID {
			return fields, data, errors.New(errors.ErrCodeDuplicateFieldID,
				"field id already in use: %s", newID)
		}
		if f.ID == oldID {
			idx = i
		}
	}
	if idx < 0 {
		return fields, data, errors.New(errors.ErrCodeFieldNotFound, "no field with id %q", oldID)
	}

	next := make([]FieldDefinition, len(fields))
	copy(next, fields)
	next[idx].ID = newID

	nextData := data.clone()
	if v, ok := nextData[oldID]; ok {
		delete(nextData, oldID)
		nextData[newID] = v
	}
	return next, nextData, nil
}

// RemoveField removes the field with the given id together with its bound
// value. Removing an unknown id is rejected.
func RemoveField(fields []FieldDefinition, data CardData, id string) ([]FieldDefinition, CardData, error) {
	idx := -1
	for i, f := range fields {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fields, data, errors.New(errors.ErrCodeFieldNotFound, "no field with id %q", id)
	}

	next := make([]FieldDefinition, 0, len(fields)-1)
	next = append(next, fields[:idx]...)
	next = append(next, fields[idx+1:]...)

	nextData := data.clone()
	delete(nextData, id)
	return next, nextData, nil
}

// CheckInvariants verifies the field model invariants: unique field ids,
// card data keys a subset of field ids, and source references present
// exactly on auto-detected fields.
func CheckInvariants(fields []FieldDefinition, data CardData) error {
	ids := make(map[string]bool, len(fields))
	for _, f := range fields {
		if ids[f.ID] {
			return errors.New(errors.ErrCodeDuplicateFieldID, "duplicate field id %q", f.ID)
		}
		ids[f.ID] = true

		if f.AutoDetected && f.SourceRef == "" {
			return errors.New(errors.ErrCodeInvalidTemplate,
				"auto-detected field %q has no source reference", f.ID)
		}
		if !f.AutoDetected && f.SourceRef != "" {
			return errors.New(errors.ErrCodeInvalidTemplate,
				"manually added field %q carries a source reference", f.ID)
		}
	}
	for id := range data {
		if !ids[id] {
			return errors.New(errors.ErrCodeFieldNotFound,
				"card data references unknown field %q", id)
		}
	}
	return nil
}
