package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"

	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// Supported barcode symbol types.
const (
	BarcodeEAN13   = "ean13"
	BarcodeCode128 = "code128"
	BarcodeQR      = "qr"
)

// symbolPolicy is the explicit per-type sizing and validation policy.
type symbolPolicy struct {
	// square forces the symbol into the largest square inside the box.
	square bool
	// validate rejects payloads the symbology cannot encode.
	validate func(payload string) error
	// encode produces the symbol.
	encode func(payload string) (barcode.Barcode, error)
}

var symbolPolicies = map[string]symbolPolicy{
	BarcodeEAN13: {
		validate: validateEAN13,
		encode: func(p string) (barcode.Barcode, error) {
			return ean.Encode(p)
		},
	},
	BarcodeCode128: {
		validate: validateCode128,
		encode: func(p string) (barcode.Barcode, error) {
			return code128.Encode(p)
		},
	},
	BarcodeQR: {
		square: true,
		validate: func(p string) error {
			if p == "" {
				return errors.New(errors.ErrCodeInvalidPayload, "empty payload")
			}
			return nil
		},
		encode: func(p string) (barcode.Barcode, error) {
			return qr.Encode(p, qr.M, qr.Auto)
		},
	},
}

func validateEAN13(p string) error {
	if len(p) != 12 && len(p) != 13 {
		return errors.New(errors.ErrCodeInvalidPayload,
			"EAN-13 payload must be 12 or 13 digits, got %d characters", len(p))
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return errors.New(errors.ErrCodeInvalidPayload, "EAN-13 payload must be numeric")
		}
	}
	return nil
}

func validateCode128(p string) error {
	if p == "" {
		return errors.New(errors.ErrCodeInvalidPayload, "empty payload")
	}
	for _, r := range p {
		if r > 127 {
			return errors.New(errors.ErrCodeInvalidPayload,
				"Code 128 payload must be ASCII")
		}
	}
	return nil
}

// rasterizeBarcode produces the substitution for one barcode field. An
// invalid payload degrades to a visibly hatched placeholder so a partially
// filled form still previews; the diagnostic is logged by the fan-in stage,
// never surfaced to the viewer.
func (r *Renderer) rasterizeBarcode(f template.FieldDefinition, el *canonical.Element, payload string, unitScale float64) rasterResult {
	b := boxOf(el)
	if b.w <= 0 || b.h <= 0 {
		return rasterResult{err: errors.New(errors.ErrCodeInvalidTemplate,
			"barcode field %q has a degenerate box", f.ID)}
	}

	pxW := rasterSize(b.w, unitScale)
	pxH := rasterSize(b.h, unitScale)

	typ := strings.ToLower(f.BarcodeType)
	policy, ok := symbolPolicies[typ]

	var symbol image.Image
	var perr error
	switch {
	case !ok:
		perr = errors.New(errors.ErrCodeUnsupported, "unknown barcode type %q", f.BarcodeType)
	default:
		if policy.square {
			side := pxW
			if pxH < side {
				side = pxH
			}
			pxW, pxH = side, side
		}
		perr = policy.validate(payload)
		if perr == nil {
			var bc barcode.Barcode
			bc, perr = policy.encode(payload)
			if perr == nil {
				symbol, perr = barcode.Scale(bc, pxW, pxH)
			}
			if perr != nil {
				perr = errors.Wrap(errors.ErrCodeInvalidPayload, perr,
					"barcode field %q", f.ID)
			}
		}
	}

	if perr != nil {
		symbol = placeholderRaster(pxW, pxH)
	}

	uri, err := pngDataURI(symbol)
	if err != nil {
		return rasterResult{err: errors.Wrap(errors.ErrCodeInternal, err,
			"barcode field %q encode", f.ID)}
	}

	// Center the symbol in the original box: the square policy shrinks one
	// dimension, and the shrunk symbol must not stick to the box corner.
	w := float64(pxW) / unitScale
	h := float64(pxH) / unitScale
	x := b.x + (b.w-w)/2
	y := b.y + (b.h-h)/2

	return rasterResult{
		err: perr,
		apply: func(el *canonical.Element) {
			el.Name = "image"
			el.Text = ""
			el.Children = nil
			el.RemoveAttr("fill")
			el.SetAttr("x", trimNum(x))
			el.SetAttr("y", trimNum(y))
			el.SetAttr("width", trimNum(w))
			el.SetAttr("height", trimNum(h))
			el.SetAttr("preserveAspectRatio", "none")
			el.SetAttr("href", uri)
		},
	}
}

// placeholderRaster draws the degraded-payload marker: a bordered white box
// with a diagonal hatch. It reads as "barcode missing" at a glance without
// blanking the card.
func placeholderRaster(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < 2 || y < 2 || x >= w-2 || y >= h-2:
				img.Set(x, y, black)
			case (x+y)%12 < 2:
				img.Set(x, y, black)
			default:
				img.Set(x, y, white)
			}
		}
	}
	return img
}
