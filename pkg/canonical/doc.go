// Package canonical implements the field-annotated vector document shared by
// the design compiler, the field model, and the rendering engine.
//
// A canonical document is an SVG subset in which data-bound elements carry
// two custom attributes: data-field-id and data-field-kind (text, image, or
// barcode). Barcode elements may additionally carry data-barcode-type, and
// image elements data-fit-mode. Consumers depend only on these attributes
// and on basic geometry; full SVG fidelity is not required.
//
// The package also holds the shared millimeter/pixel conversion constants
// used by the rendering and print-layout engines.
package canonical
