package errors

import (
	"strings"
	"unicode"
)

// ValidateFieldID validates a field identifier for safety and correctness.
// Field ids are opaque strings used as the join key between field definitions
// and card data, so they must be stable, printable, and free of whitespace.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or whitespace
//   - Maximum length of 128 characters
func ValidateFieldID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidFieldID, "field id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidFieldID, "field id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFieldID, "field id contains control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidFieldID, "field id cannot contain whitespace")
		}
	}

	return nil
}

// ValidateTemplateName validates a template display name.
// Names are user-facing and less constrained than ids, but still must not
// contain control characters.
func ValidateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidTemplate, "template name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidTemplate, "template name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTemplate, "template name contains control characters")
		}
	}

	return nil
}
