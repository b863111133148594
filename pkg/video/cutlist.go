package video

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/menta2k/video-filter/pkg/types"
)

// ErrInvalidRange is returned for ranges with negative or reversed bounds
var ErrInvalidRange = errors.New("invalid frame range")

// CutList is the set of frames marked for removal. Ranges are kept sorted
// and merged, so no two ranges overlap or touch.
type CutList struct {
	ranges []types.Range
}

// NewCutList creates a cut list from arbitrary ranges
func NewCutList(ranges ...types.Range) (*CutList, error) {
	c := &CutList{}
	for _, r := range ranges {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ParseRange parses "start-end" or a single frame index
func ParseRange(s string) (types.Range, error) {
	s = strings.TrimSpace(s)
	startStr, endStr, isSpan := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return types.Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	end := start
	if isSpan {
		end, err = strconv.Atoi(strings.TrimSpace(endStr))
		if err != nil {
			return types.Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
	}
	r := types.Range{Start: start, End: end}
	if err := checkRange(r); err != nil {
		return types.Range{}, err
	}
	return r, nil
}

// ParseCutList parses a comma separated list of ranges
func ParseCutList(s string) (*CutList, error) {
	c := &CutList{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRange(part)
		if err != nil {
			return nil, err
		}
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func checkRange(r types.Range) error {
	if r.Start < 0 || r.End < r.Start {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Add marks a range for removal, merging it with neighbouring ranges
func (c *CutList) Add(r types.Range) error {
	if err := checkRange(r); err != nil {
		return err
	}

	merged := make([]types.Range, 0, len(c.ranges)+1)
	placed := false
	for _, cur := range c.ranges {
		switch {
		case cur.End+1 < r.Start:
			merged = append(merged, cur)
		case r.End+1 < cur.Start:
			if !placed {
				merged = append(merged, r)
				placed = true
			}
			merged = append(merged, cur)
		default:
			if cur.Start < r.Start {
				r.Start = cur.Start
			}
			if cur.End > r.End {
				r.End = cur.End
			}
		}
	}
	if !placed {
		merged = append(merged, r)
	}
	c.ranges = merged
	return nil
}

// Remove unmarks a range, splitting existing ranges where needed
func (c *CutList) Remove(r types.Range) error {
	if err := checkRange(r); err != nil {
		return err
	}

	out := make([]types.Range, 0, len(c.ranges)+1)
	for _, cur := range c.ranges {
		if cur.End < r.Start || cur.Start > r.End {
			out = append(out, cur)
			continue
		}
		if cur.Start < r.Start {
			out = append(out, types.Range{Start: cur.Start, End: r.Start - 1})
		}
		if cur.End > r.End {
			out = append(out, types.Range{Start: r.End + 1, End: cur.End})
		}
	}
	c.ranges = out
	return nil
}

// Clear removes every range
func (c *CutList) Clear() {
	c.ranges = nil
}

// Ranges returns a copy of the normalised ranges
func (c *CutList) Ranges() []types.Range {
	out := make([]types.Range, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// Clone returns an independent copy
func (c *CutList) Clone() *CutList {
	if c == nil {
		return &CutList{}
	}
	return &CutList{ranges: c.Ranges()}
}

// Len returns the number of ranges
func (c *CutList) Len() int {
	return len(c.ranges)
}

// find returns the index of the range containing frame, or -1
func (c *CutList) find(frame int) int {
	i := sort.Search(len(c.ranges), func(i int) bool { return c.ranges[i].End >= frame })
	if i < len(c.ranges) && c.ranges[i].Start <= frame {
		return i
	}
	return -1
}

// Contains reports whether frame is marked for removal
func (c *CutList) Contains(frame int) bool {
	return c.find(frame) >= 0
}

// NextKept returns the first frame at or after frame that is not cut, or -1
// when every frame from there up to total-1 is cut.
func (c *CutList) NextKept(frame, total int) int {
	if frame < 0 {
		frame = 0
	}
	if i := c.find(frame); i >= 0 {
		frame = c.ranges[i].End + 1
	}
	if frame >= total {
		return -1
	}
	return frame
}

// PrevKept returns the last frame at or before frame that is not cut, or -1
func (c *CutList) PrevKept(frame, total int) int {
	if frame >= total {
		frame = total - 1
	}
	if i := c.find(frame); i >= 0 {
		frame = c.ranges[i].Start - 1
	}
	if frame < 0 {
		return -1
	}
	return frame
}

// KeptCount returns the number of frames in [0, total) that survive the cut
func (c *CutList) KeptCount(total int) int {
	kept := total
	for _, r := range c.ranges {
		if r.Start >= total {
			break
		}
		end := r.End
		if end >= total {
			end = total - 1
		}
		kept -= end - r.Start + 1
	}
	if kept < 0 {
		return 0
	}
	return kept
}

// KeptRanges returns the complement of the cut list within [0, total)
func (c *CutList) KeptRanges(total int) []types.Range {
	var kept []types.Range
	next := 0
	for _, r := range c.ranges {
		if r.Start >= total {
			break
		}
		if r.Start > next {
			kept = append(kept, types.Range{Start: next, End: r.Start - 1})
		}
		next = r.End + 1
	}
	if next < total {
		kept = append(kept, types.Range{Start: next, End: total - 1})
	}
	return kept
}

// Validate checks that every range lies inside a video of total frames
func (c *CutList) Validate(total int) error {
	for _, r := range c.ranges {
		if r.End >= total {
			return fmt.Errorf("%w: %d-%d exceeds last frame %d", ErrInvalidRange, r.Start, r.End, total-1)
		}
	}
	return nil
}

// String renders the list in the form accepted by ParseCutList
func (c *CutList) String() string {
	parts := make([]string, len(c.ranges))
	for i, r := range c.ranges {
		if r.Start == r.End {
			parts[i] = strconv.Itoa(r.Start)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
	}
	return strings.Join(parts, ",")
}
