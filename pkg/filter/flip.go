package filter

import (
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
)

// FlipFilter mirrors a frame. Vertical flips reverse the row order,
// horizontal flips reverse the column order.
type FlipFilter struct {
	Vertical bool
}

// NewFlip returns a horizontal flip
func NewFlip() *FlipFilter {
	return &FlipFilter{}
}

func (f *FlipFilter) Kind() Kind { return Flip }

func (f *FlipFilter) Apply(in image.Image) *image.NRGBA {
	if f.Vertical {
		return imaging.FlipV(in)
	}
	return imaging.FlipH(in)
}

func (f *FlipFilter) Configure(key, value string) error {
	switch key {
	case "vertical":
		b, err := parseBool(Flip, key, value)
		if err != nil {
			return err
		}
		f.Vertical = b
	case "axis":
		switch value {
		case "h", "horizontal":
			f.Vertical = false
		case "v", "vertical":
			f.Vertical = true
		default:
			return fmt.Errorf("%w: %s.%s=%q", ErrInvalidParam, Flip, key, value)
		}
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, Flip, key)
	}
	return nil
}

func (f *FlipFilter) Params() map[string]string {
	return map[string]string{"vertical": strconv.FormatBool(f.Vertical)}
}

func (f *FlipFilter) Validate() error { return nil }
