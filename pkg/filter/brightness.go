package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
)

// Parameter ranges for BrightnessContrastFilter
const (
	MinContrast   = 1.0
	MaxContrast   = 3.0
	MinBrightness = 0.0
	MaxBrightness = 100.0
)

// BrightnessContrastFilter remaps every colour channel linearly:
// out = clamp(Contrast*in + Brightness). Alpha is left untouched.
type BrightnessContrastFilter struct {
	Contrast   float64
	Brightness float64
}

// NewBrightnessContrast returns the identity transform
func NewBrightnessContrast() *BrightnessContrastFilter {
	return &BrightnessContrastFilter{Contrast: MinContrast, Brightness: MinBrightness}
}

func (b *BrightnessContrastFilter) Kind() Kind { return BrightnessContrast }

func (b *BrightnessContrastFilter) Apply(in image.Image) *image.NRGBA {
	lut := b.table()
	return imaging.AdjustFunc(in, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

// Value maps a single channel value
func (b *BrightnessContrastFilter) Value(v uint8) uint8 {
	return clampChannel(b.Contrast*float64(v) + b.Brightness)
}

func (b *BrightnessContrastFilter) table() [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = b.Value(uint8(i))
	}
	return lut
}

func clampChannel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (b *BrightnessContrastFilter) Configure(key, value string) error {
	if key != "contrast" && key != "brightness" {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, BrightnessContrast, key)
	}
	v, err := parseFloat(BrightnessContrast, key, value)
	if err != nil {
		return err
	}
	switch key {
	case "contrast":
		b.Contrast = v
	case "brightness":
		b.Brightness = v
	}
	return b.Validate()
}

func (b *BrightnessContrastFilter) Params() map[string]string {
	return map[string]string{
		"contrast":   strconv.FormatFloat(b.Contrast, 'g', -1, 64),
		"brightness": strconv.FormatFloat(b.Brightness, 'g', -1, 64),
	}
}

func (b *BrightnessContrastFilter) Validate() error {
	if math.IsNaN(b.Contrast) || b.Contrast < MinContrast || b.Contrast > MaxContrast {
		return fmt.Errorf("%w: %s.contrast must be between %.1f and %.1f, got %g",
			ErrInvalidParam, BrightnessContrast, MinContrast, MaxContrast, b.Contrast)
	}
	if math.IsNaN(b.Brightness) || b.Brightness < MinBrightness || b.Brightness > MaxBrightness {
		return fmt.Errorf("%w: %s.brightness must be between %.0f and %.0f, got %g",
			ErrInvalidParam, BrightnessContrast, MinBrightness, MaxBrightness, b.Brightness)
	}
	return nil
}
