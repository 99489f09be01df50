package canonical

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cardforge/cardforge/pkg/errors"
)

const sampleDoc = `<svg width="85.6mm" height="54mm" viewBox="0 0 856 540">
  <rect x="0" y="0" width="856" height="540" fill="#ffffff"/>
  <text x="40" y="120" font-family="Inter" font-size="32" data-field-id="employee-name" data-field-kind="text" data-default="Full Name">Full Name</text>
  <rect x="600" y="40" width="200" height="240" data-field-id="photo" data-field-kind="image" data-fit-mode="cover"/>
  <rect x="40" y="420" width="400" height="80" data-field-id="badge-id" data-field-kind="barcode" data-barcode-type="code128"/>
</svg>`

func TestParseSample(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.Root.Name != "svg" {
		t.Errorf("Root.Name = %q, want %q", doc.Root.Name, "svg")
	}
	if got := doc.Width(); got != 85.6 {
		t.Errorf("Width() = %v, want 85.6", got)
	}
	if got := doc.Height(); got != 54 {
		t.Errorf("Height() = %v, want 54", got)
	}

	minX, minY, w, h, ok := doc.ViewBox()
	if !ok {
		t.Fatal("ViewBox() ok = false, want true")
	}
	if minX != 0 || minY != 0 || w != 856 || h != 540 {
		t.Errorf("ViewBox() = %v %v %v %v, want 0 0 856 540", minX, minY, w, h)
	}
}

func TestParseFailure(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "truncated", input: `<svg width="10"><rect`},
		{name: "unbalanced", input: `<svg></svg></svg>`},
		{name: "empty", input: ``},
		{name: "text only", input: `just text`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() error = nil, want PARSE_FAILURE")
			}
			if !errors.Is(err, errors.ErrCodeParseFailure) {
				t.Errorf("Parse() code = %v, want PARSE_FAILURE", errors.GetCode(err))
			}
		})
	}
}

func TestFields(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	refs := doc.Fields()
	if len(refs) != 3 {
		t.Fatalf("Fields() returned %d refs, want 3", len(refs))
	}

	// Document order is preserved.
	wantIDs := []string{"employee-name", "photo", "badge-id"}
	for i, ref := range refs {
		if ref.ID != wantIDs[i] {
			t.Errorf("Fields()[%d].ID = %q, want %q", i, ref.ID, wantIDs[i])
		}
	}

	if refs[2].BarcodeType != "code128" {
		t.Errorf("barcode ref BarcodeType = %q, want code128", refs[2].BarcodeType)
	}
	if refs[1].FitMode != "cover" {
		t.Errorf("image ref FitMode = %q, want cover", refs[1].FitMode)
	}
}

func TestFindField(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	el := doc.FindField("photo")
	if el == nil {
		t.Fatal("FindField(photo) = nil")
	}
	if el.Name != "rect" {
		t.Errorf("element name = %q, want rect", el.Name)
	}

	if doc.FindField("no-such-field") != nil {
		t.Error("FindField(no-such-field) != nil")
	}
}

func TestFontFamilies(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	fams := doc.FontFamilies()
	if len(fams) != 1 || fams[0] != "Inter" {
		t.Errorf("FontFamilies() = %v, want [Inter]", fams)
	}
}

func TestBytesRoundTripStable(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first := doc.Bytes()

	doc2, err := Parse(first)
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	second := doc2.Bytes()

	if !bytes.Equal(first, second) {
		t.Errorf("serialization not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestBytesAddsNamespace(t *testing.T) {
	doc, err := Parse([]byte(`<svg width="10" height="10"/>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := string(doc.Bytes())
	if !strings.Contains(out, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("Bytes() missing svg namespace:\n%s", out)
	}
}

func TestElementAttrs(t *testing.T) {
	el := &Element{Name: "text"}

	if got := el.Attr("x"); got != "" {
		t.Errorf("Attr(x) on empty element = %q, want \"\"", got)
	}

	el.SetAttr("x", "10")
	el.SetAttr("x", "20") // replace, not append
	if got := el.Attr("x"); got != "20" {
		t.Errorf("Attr(x) = %q, want 20", got)
	}
	if len(el.Attrs) != 1 {
		t.Errorf("len(Attrs) = %d, want 1", len(el.Attrs))
	}

	el.RemoveAttr("x")
	if got := el.Attr("x"); got != "" {
		t.Errorf("Attr(x) after remove = %q, want \"\"", got)
	}
}

func TestFloatAttr(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"12.5", 12.5},
		{"85.6mm", 85.6},
		{"300px", 300},
		{" 42 ", 42},
		{"bogus", 0},
		{"", 0},
	}

	for _, tt := range tests {
		el := &Element{Name: "rect"}
		if tt.value != "" {
			el.SetAttr("width", tt.value)
		}
		if got := el.FloatAttr("width"); got != tt.want {
			t.Errorf("FloatAttr(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestUnitConversion(t *testing.T) {
	if got := MmToPx(54, DefaultPxPerMm); got != 540 {
		t.Errorf("MmToPx(54) = %v, want 540", got)
	}
	if got := PxToMm(540, DefaultPxPerMm); got != 54 {
		t.Errorf("PxToMm(540) = %v, want 54", got)
	}
}
