// Package marker implements the fiducial marker codec: encoding dictionary
// identities into small binary matrices, rendering them as exact black/white
// rasters, and detecting them again in arbitrary images.
//
// A marker is an N×N payload grid (N=5 in the production dictionary) wrapped
// in a solid one-cell black border, so a rendered marker covers (N+2)×(N+2)
// cells. Identities form a closed dictionary of bit patterns chosen for
// mutual Hamming distance, including distance across the four rotations, so
// a marker photographed at an unknown orientation still decodes uniquely.
//
// The encode path (Encode, Render) is pure and deterministic and never
// produces anything the detect path cannot read back. The detect path
// (Detect) is a pipeline of pure stages (binarize, contour trace, quad
// approximation, perspective unwarp, grid sampling, dictionary lookup),
// each independently testable, and tolerates the moderate rotation and
// perspective of a camera photograph. Finding no marker is an empty result,
// not an error; quads that fail to decode are dropped silently.
package marker
