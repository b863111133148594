package filter

import (
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
)

// RotateFilter rotates a frame by a number of quarter turns
type RotateFilter struct {
	// Count is the number of 90 degree steps. Only Count mod 4 matters.
	Count int
	// CCW rotates counter-clockwise instead of clockwise.
	CCW bool
}

// NewRotate returns a single clockwise quarter turn
func NewRotate() *RotateFilter {
	return &RotateFilter{Count: 1}
}

func (r *RotateFilter) Kind() Kind { return Rotation }

// Apply rotates in. Quarter and three-quarter turns swap width and height.
func (r *RotateFilter) Apply(in image.Image) *image.NRGBA {
	switch r.steps() {
	case 1:
		return imaging.Rotate90(in)
	case 2:
		return imaging.Rotate180(in)
	case 3:
		return imaging.Rotate270(in)
	default:
		return imaging.Clone(in)
	}
}

// steps returns the counter-clockwise quarter turns in [0, 3]; imaging rotates counter-clockwise
func (r *RotateFilter) steps() int {
	n := ((r.Count % 4) + 4) % 4
	if !r.CCW {
		n = (4 - n) % 4
	}
	return n
}

func (r *RotateFilter) Configure(key, value string) error {
	switch key {
	case "count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s.%s=%q", ErrInvalidParam, Rotation, key, value)
		}
		r.Count = n
	case "ccw":
		b, err := parseBool(Rotation, key, value)
		if err != nil {
			return err
		}
		r.CCW = b
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, Rotation, key)
	}
	return r.Validate()
}

func (r *RotateFilter) Params() map[string]string {
	return map[string]string{
		"count": strconv.Itoa(r.Count),
		"ccw":   strconv.FormatBool(r.CCW),
	}
}

func (r *RotateFilter) Validate() error {
	if r.Count < 0 {
		return fmt.Errorf("%w: %s.count must not be negative, got %d", ErrInvalidParam, Rotation, r.Count)
	}
	return nil
}
