package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/cardforge/cardforge/pkg/errors"
)

// ToPDF rasterizes a rendered vector document to PDF via rsvg-convert.
// librsvg must be installed (apt install librsvg2-bin on Linux, brew
// install librsvg on macOS).
func ToPDF(ctx context.Context, doc []byte) ([]byte, error) {
	return rsvgConvert(ctx, doc, "pdf")
}

// ToPNG rasterizes a rendered vector document to PNG via rsvg-convert.
// A scale of 2 doubles the output resolution.
func ToPNG(ctx context.Context, doc []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, doc, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert pipes the document through rsvg-convert. A missing binary is
// UNSUPPORTED so callers can tell a setup problem from a broken document.
func rsvgConvert(ctx context.Context, doc []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export needs rsvg-convert on PATH (librsvg2-bin on Linux, librsvg via Homebrew)", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(doc)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert: %s", stderr.String())
	}
	return out.Bytes(), nil
}
