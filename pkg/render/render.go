package render

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cardforge/cardforge/pkg/assets"
	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/fonts"
	"github.com/cardforge/cardforge/pkg/template"
)

// Renderer binds field values into canonical documents.
// A Renderer is stateless apart from its collaborators and the pass
// counter; one Renderer may serve concurrent render passes.
type Renderer struct {
	fonts  fonts.Resolver
	assets *assets.Loader
	logger *log.Logger
	gen    atomic.Uint64
}

// New creates a renderer. A nil resolver resolves nothing (every font falls
// back); a nil logger discards diagnostics. Image sources load through the
// default uncached asset loader; use NewWithAssets to share a cache.
func New(resolver fonts.Resolver, logger *log.Logger) *Renderer {
	return NewWithAssets(resolver, nil, logger)
}

// NewWithAssets creates a renderer loading image sources through loader. A
// nil loader uses the default uncached loader.
func NewWithAssets(resolver fonts.Resolver, loader *assets.Loader, logger *log.Logger) *Renderer {
	if resolver == nil {
		resolver = fonts.MapResolver{}
	}
	if loader == nil {
		loader = assets.Default()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Renderer{fonts: resolver, assets: loader, logger: logger}
}

// Result is the output of one render pass.
type Result struct {
	Generation uint64
	Doc        []byte
}

// Latest returns the generation stamp of the most recently started pass.
// A consumer holding a Result with an older stamp should discard it.
func (r *Renderer) Latest() uint64 { return r.gen.Load() }

// RenderPass runs Render under a fresh generation stamp.
func (r *Renderer) RenderPass(ctx context.Context, tpl *template.Template, data template.CardData) (Result, error) {
	gen := r.gen.Add(1)
	doc, err := r.Render(ctx, tpl, tpl.Fields, data)
	return Result{Generation: gen, Doc: doc}, err
}

// Render substitutes the bound values into the template's canonical
// document and returns the serialized result.
//
// Failure policy: per-field problems degrade that one field and are logged;
// if the template document cannot be parsed, or an internal panic occurs,
// the original template bytes are returned so the caller still has a
// displayable document. The only errors surfaced are context cancellation
// from the raster fan-out.
func (r *Renderer) Render(ctx context.Context, tpl *template.Template, fields []template.FieldDefinition, data template.CardData) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("render failed, returning unrendered template", "template", tpl.ID, "panic", rec)
			out, err = tpl.Doc, nil
		}
	}()

	doc, perr := canonical.Parse(tpl.Doc)
	if perr != nil {
		r.logger.Warn("template document unparsable, returning it unrendered",
			"template", tpl.ID, "err", perr)
		return tpl.Doc, nil
	}

	unitScale := 1.0
	if tpl.Unit == template.UnitMm {
		unitScale = canonical.DefaultPxPerMm
	}

	// Text substitution is cheap and runs inline. Image and barcode fields
	// need raster generation, which fans out below.
	type rasterJob struct {
		field template.FieldDefinition
		el    *canonical.Element
		value template.Value
	}
	var jobs []rasterJob

	for _, f := range fields {
		el := doc.FindField(f.ID)
		if el == nil {
			r.logger.Debug("field has no element in document", "field", f.ID)
			continue
		}
		v, bound := data[f.ID]
		switch f.Kind {
		case template.KindText:
			r.applyText(el, f, v, bound)
		case template.KindImage:
			if bound && v.Kind == template.KindImage && v.Image.Src != "" {
				jobs = append(jobs, rasterJob{field: f, el: el, value: v})
			}
		case template.KindBarcode:
			if bound && v.Kind == template.KindBarcode {
				jobs = append(jobs, rasterJob{field: f, el: el, value: v})
			}
		}
	}

	// Fan out raster work; fields in one pass have no ordering dependency.
	rasters := make([]rasterResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			switch job.field.Kind {
			case template.KindImage:
				rasters[i] = r.rasterizeImage(gctx, job.field, job.el, job.value.Image, unitScale)
			case template.KindBarcode:
				rasters[i] = r.rasterizeBarcode(job.field, job.el, job.value.Barcode, unitScale)
			}
			return nil
		})
	}
	if gerr := g.Wait(); gerr != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, gerr, "render pass interrupted")
	}

	// Fan in: apply results in field order so output stays deterministic.
	for i, job := range jobs {
		res := rasters[i]
		if res.err != nil {
			r.logger.Warn("field substitution degraded",
				"field", job.field.ID, "err", res.err)
		}
		if res.apply != nil {
			res.apply(job.el)
		}
	}

	return doc.Bytes(), nil
}

// rasterResult carries a prepared element mutation back to the fan-in
// stage. err is informational; a placeholder apply is still present when a
// field degraded.
type rasterResult struct {
	apply func(*canonical.Element)
	err   error
}

// applyText replaces the element's text content and resolves its font.
// An unavailable font family falls back to the document's inherited font
// rather than failing the render.
func (r *Renderer) applyText(el *canonical.Element, f template.FieldDefinition, v template.Value, bound bool) {
	switch {
	case bound && v.Kind == template.KindText:
		el.Text = v.Text
	case el.Attr(canonical.AttrDefault) != "":
		el.Text = el.Attr(canonical.AttrDefault)
	default:
		el.Text = ""
	}

	if fam := el.Attr("font-family"); fam != "" {
		if _, err := r.fonts.Resolve(fam); err != nil {
			r.logger.Debug("font not resolvable, inheriting document font",
				"field", f.ID, "family", fam)
			el.RemoveAttr("font-family")
		}
	}
}
