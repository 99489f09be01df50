package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

// rasterizeImage produces the substitution for one image field: the source
// raster cropped and scaled per the field's fit mode, placed at the
// element's original box modulated by the stored offset and scale.
func (r *Renderer) rasterizeImage(ctx context.Context, f template.FieldDefinition, el *canonical.Element, v template.ImageValue, unitScale float64) rasterResult {
	box := boxOf(el)
	if box.w <= 0 || box.h <= 0 {
		return rasterResult{err: errors.New(errors.ErrCodeInvalidTemplate,
			"image field %q has a degenerate box", f.ID)}
	}

	src, err := r.loadImage(ctx, v.Src)
	if err != nil {
		return rasterResult{err: errors.Wrap(errors.ErrCodeInvalidPayload, err,
			"image field %q source unreadable", f.ID)}
	}

	pxW := rasterSize(box.w, unitScale)
	pxH := rasterSize(box.h, unitScale)
	fitted := fitImage(src, pxW, pxH, f.Fit)

	uri, err := pngDataURI(fitted)
	if err != nil {
		return rasterResult{err: errors.Wrap(errors.ErrCodeInternal, err,
			"image field %q encode", f.ID)}
	}

	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	// Visual placement: original box center plus offsets; visual size:
	// original size times scale.
	cx := box.x + box.w/2 + v.OffsetX
	cy := box.y + box.h/2 + v.OffsetY
	w := box.w * scale
	h := box.h * scale

	return rasterResult{apply: func(el *canonical.Element) {
		el.Name = "image"
		el.Text = ""
		el.Children = nil
		el.RemoveAttr("fill")
		el.SetAttr("x", trimNum(cx-w/2))
		el.SetAttr("y", trimNum(cy-h/2))
		el.SetAttr("width", trimNum(w))
		el.SetAttr("height", trimNum(h))
		// The raster is pre-fitted, so the viewer must not re-fit it.
		el.SetAttr("preserveAspectRatio", "none")
		el.SetAttr("href", uri)
	}}
}

// fitImage maps the source into a pxW x pxH raster per the fit mode.
func fitImage(src image.Image, pxW, pxH int, mode template.FitMode) image.Image {
	switch mode {
	case template.FitContain:
		// Fit inside, preserve aspect, letterbox on a transparent canvas
		// so the embedded raster's geometry still matches the box exactly.
		inner := imaging.Fit(src, pxW, pxH, imaging.Lanczos)
		canvas := imaging.New(pxW, pxH, image.Transparent)
		return imaging.PasteCenter(canvas, inner)
	case template.FitFill:
		return imaging.Resize(src, pxW, pxH, imaging.Lanczos)
	default: // cover
		return imaging.Fill(src, pxW, pxH, imaging.Center, imaging.Lanczos)
	}
}

// loadImage resolves an image source (data URI, URL, or file path) through
// the renderer's asset loader and decodes it.
func (r *Renderer) loadImage(ctx context.Context, src string) (image.Image, error) {
	raw, err := r.assets.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}

// pngDataURI encodes an image as a base64 PNG data URI for embedding.
func pngDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// rasterSize converts a document-unit length to a raster pixel count.
func rasterSize(units, unitScale float64) int {
	px := int(math.Round(units * unitScale))
	if px < 1 {
		px = 1
	}
	return px
}

type box struct {
	x, y, w, h float64
}

func boxOf(el *canonical.Element) box {
	return box{
		x: el.FloatAttr("x"),
		y: el.FloatAttr("y"),
		w: el.FloatAttr("width"),
		h: el.FloatAttr("height"),
	}
}

func trimNum(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}
