package filter

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage creates an image where every pixel is distinct
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), uint8(y * 60), uint8(x + y*width), 255})
		}
	}
	return img
}

func sameImage(a, b *image.NRGBA) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

func TestNew(t *testing.T) {
	for _, kind := range []Kind{Rotation, BrightnessContrast, Flip} {
		f, err := New(kind)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", kind, err)
		}
		if f.Kind() != kind {
			t.Errorf("Expected kind %s, got %s", kind, f.Kind())
		}
		if err := f.Validate(); err != nil {
			t.Errorf("Default %s filter should be valid: %v", kind, err)
		}
	}

	if _, err := New(Kind(42)); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestRotateDimensions(t *testing.T) {
	in := createTestImage(5, 3)
	w, h := 5, 3

	tests := []struct {
		name   string
		filter *RotateFilter
		width  int
		height int
		// where input pixel (x, y) lands in the output
		mapXY func(x, y int) (int, int)
	}{
		{"cw90", &RotateFilter{Count: 1}, h, w, func(x, y int) (int, int) { return h - 1 - y, x }},
		{"ccw90", &RotateFilter{Count: 1, CCW: true}, h, w, func(x, y int) (int, int) { return y, w - 1 - x }},
		{"180", &RotateFilter{Count: 2}, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }},
		{"cw270", &RotateFilter{Count: 3}, h, w, func(x, y int) (int, int) { return y, w - 1 - x }},
		{"full turn", &RotateFilter{Count: 4}, w, h, func(x, y int) (int, int) { return x, y }},
		{"five steps", &RotateFilter{Count: 5}, h, w, func(x, y int) (int, int) { return h - 1 - y, x }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.filter.Apply(in)
			if out.Bounds().Dx() != tt.width || out.Bounds().Dy() != tt.height {
				t.Fatalf("Expected %dx%d, got %dx%d", tt.width, tt.height, out.Bounds().Dx(), out.Bounds().Dy())
			}
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					ox, oy := tt.mapXY(x, y)
					if got, want := out.NRGBAAt(ox, oy), in.NRGBAAt(x, y); got != want {
						t.Errorf("Pixel (%d,%d) -> (%d,%d): expected %v, got %v", x, y, ox, oy, want, got)
					}
				}
			}
		})
	}
}

func TestFlip(t *testing.T) {
	in := createTestImage(4, 3)

	horizontal := NewFlip().Apply(in)
	vertical := (&FlipFilter{Vertical: true}).Apply(in)

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if horizontal.NRGBAAt(3-x, y) != in.NRGBAAt(x, y) {
				t.Errorf("Horizontal flip should reverse columns at (%d,%d)", x, y)
			}
			if vertical.NRGBAAt(x, 2-y) != in.NRGBAAt(x, y) {
				t.Errorf("Vertical flip should reverse rows at (%d,%d)", x, y)
			}
		}
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	in := createTestImage(4, 4)
	orig := createTestImage(4, 4)

	filters := []Filter{
		NewRotate(),
		NewFlip(),
		&BrightnessContrastFilter{Contrast: 2, Brightness: 50},
	}
	for _, f := range filters {
		f.Apply(in)
		if !sameImage(in, orig) {
			t.Errorf("%s filter modified its input", f.Kind())
		}
	}
}

func TestBrightnessContrastIsAffine(t *testing.T) {
	params := []struct{ contrast, brightness float64 }{
		{1.0, 0},
		{1.0, 100},
		{1.5, 20},
		{2.2, 0},
		{3.0, 100},
	}

	in := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for v := 0; v < 256; v++ {
		in.SetNRGBA(v, 0, color.NRGBA{uint8(v), uint8(255 - v), uint8(v / 2), 255})
	}

	expect := func(c, b float64, v uint8) uint8 {
		return uint8(math.Min(255, math.Round(c*float64(v)+b)))
	}

	for _, p := range params {
		f := &BrightnessContrastFilter{Contrast: p.contrast, Brightness: p.brightness}
		out := f.Apply(in)
		for v := 0; v < 256; v++ {
			src := in.NRGBAAt(v, 0)
			got := out.NRGBAAt(v, 0)
			want := color.NRGBA{
				expect(p.contrast, p.brightness, src.R),
				expect(p.contrast, p.brightness, src.G),
				expect(p.contrast, p.brightness, src.B),
				255,
			}
			if got != want {
				t.Fatalf("contrast=%g brightness=%g value=%d: expected %v, got %v",
					p.contrast, p.brightness, v, want, got)
			}
		}
	}
}

func TestBrightnessContrastIdentity(t *testing.T) {
	in := createTestImage(6, 4)
	out := NewBrightnessContrast().Apply(in)
	if !sameImage(in, out) {
		t.Error("Default brightness/contrast should not change the image")
	}
}

func TestConfigure(t *testing.T) {
	bc := NewBrightnessContrast()
	if err := bc.Configure("contrast", "2.5"); err != nil {
		t.Fatalf("Configure contrast failed: %v", err)
	}
	if bc.Contrast != 2.5 {
		t.Errorf("Expected contrast 2.5, got %g", bc.Contrast)
	}
	if err := bc.Configure("contrast", "3.5"); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Expected ErrInvalidParam for contrast 3.5, got %v", err)
	}
	if err := bc.Configure("brightness", "-1"); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Expected ErrInvalidParam for brightness -1, got %v", err)
	}
	if err := bc.Configure("gamma", "1"); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Expected ErrUnknownParam, got %v", err)
	}

	rot := NewRotate()
	if err := rot.Configure("ccw", "yes"); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Expected ErrInvalidParam for ccw=yes, got %v", err)
	}
	if err := rot.Configure("count", "-2"); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Expected ErrInvalidParam for negative count, got %v", err)
	}

	flip := NewFlip()
	if err := flip.Configure("axis", "v"); err != nil || !flip.Vertical {
		t.Errorf("axis=v should select a vertical flip, err=%v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		kind    Kind
		wantErr error
	}{
		{"rotate90cw", Rotation, nil},
		{"FlipV", Flip, nil},
		{"rotate", Rotation, nil},
		{"rotate:count=2,ccw=true", Rotation, nil},
		{"bc:contrast=1.5,brightness=20", BrightnessContrast, nil},
		{"flip:vertical=true", Flip, nil},
		{"blur", 0, ErrUnknownKind},
		{"", 0, ErrUnknownKind},
		{"bc:contrast", 0, ErrInvalidParam},
		{"bc:contrast=9", 0, ErrInvalidParam},
		{"flip:angle=3", 0, ErrUnknownParam},
	}

	for _, tt := range tests {
		f, err := Parse(tt.spec)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q): expected %v, got %v", tt.spec, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tt.spec, err)
			continue
		}
		if f.Kind() != tt.kind {
			t.Errorf("Parse(%q): expected kind %s, got %s", tt.spec, tt.kind, f.Kind())
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	f := &BrightnessContrastFilter{Contrast: 1.25, Brightness: 10}
	spec := Format(f)
	if spec != "bc:brightness=10,contrast=1.25" {
		t.Errorf("Unexpected spec %q", spec)
	}
	parsed, err := Parse(spec)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", spec, err)
	}
	got := parsed.(*BrightnessContrastFilter)
	if *got != *f {
		t.Errorf("Expected %+v, got %+v", *f, *got)
	}
}

func BenchmarkBrightnessContrast(b *testing.B) {
	f := &BrightnessContrastFilter{Contrast: 1.8, Brightness: 30}
	img := createTestImage(640, 360)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Apply(img)
	}
}

func BenchmarkRotate(b *testing.B) {
	f := NewRotate()
	img := createTestImage(640, 360)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Apply(img)
	}
}
