// Package fonts resolves font family names to available fonts.
//
// Only name resolution matters to rendering: the engine needs to know
// whether a template's declared family is available so it can fall back to
// the document's inherited font instead of failing the render. Actual glyph
// loading is left to the SVG rasterizer.
package fonts

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"

	"github.com/cardforge/cardforge/pkg/errors"
)

// Font is a resolved font: the real family name and, when known, the file
// it was found in.
type Font struct {
	Family string
	Path   string
}

// Resolver maps a requested family name to an available font.
type Resolver interface {
	// Resolve returns the font for a family name, or an error with code
	// FONT_NOT_FOUND when the family is not available.
	Resolve(family string) (Font, error)
}

// MapResolver is a fixed in-memory resolver for tests and embedded setups.
type MapResolver map[string]Font

// Resolve implements Resolver.
func (m MapResolver) Resolve(family string) (Font, error) {
	if f, ok := m[normalize(family)]; ok {
		return f, nil
	}
	return Font{}, errors.New(errors.ErrCodeFontNotFound, "font family not available: %s", family)
}

// SystemResolver resolves families against fonts installed on the host,
// located with findfont and verified by parsing the file's name table. The
// family index is built lazily on first use and cached.
type SystemResolver struct {
	once     sync.Once
	families map[string]Font
}

// NewSystemResolver returns a resolver over the host's installed fonts.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{}
}

// Resolve implements Resolver.
func (r *SystemResolver) Resolve(family string) (Font, error) {
	r.once.Do(r.index)
	if f, ok := r.families[normalize(family)]; ok {
		return f, nil
	}
	return Font{}, errors.New(errors.ErrCodeFontNotFound, "font family not available: %s", family)
}

// index builds the family table from the host's font directories. Files
// that fail to parse are skipped; a partial index is still useful.
func (r *SystemResolver) index() {
	r.families = make(map[string]Font)
	for _, path := range findfont.List() {
		if !strings.HasSuffix(strings.ToLower(path), ".ttf") {
			continue
		}
		fam, ok := familyOf(path)
		if !ok {
			continue
		}
		key := normalize(fam)
		if _, exists := r.families[key]; !exists {
			r.families[key] = Font{Family: fam, Path: path}
		}
	}
}

// familyOf reads the family name from a TrueType file's name table.
func familyOf(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return "", false
	}
	fam := f.Name(truetype.NameIDFontFamily)
	if fam == "" {
		return "", false
	}
	return fam, true
}

func normalize(family string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(family), `'"`))
}
