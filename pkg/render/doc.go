// Package render implements the data-binding rendering engine: given a
// template's canonical document, its field definitions, and a set of bound
// values, it produces the fully substituted document.
//
// Rendering is a pure function of its inputs (identical inputs produce
// byte-identical output) and degrades rather than fails: an invalid barcode
// payload renders a visibly hatched placeholder, an unresolvable font falls
// back to the document's inherited font, and a document that cannot be
// parsed at all comes back as the original template bytes with a logged
// diagnostic. The caller always receives a displayable document.
//
// Raster work for image and barcode fields fans out across goroutines and
// fans in before the document is assembled; fields within one pass have no
// ordering dependency. Render passes carry a generation stamp so a caller
// superseded by a newer pass can discard a stale result (last-writer-wins
// at the consumer).
package render
