package filter

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Chain applies filters in insertion order. It is safe for concurrent use,
// so a playback goroutine can apply it while filters are toggled.
type Chain struct {
	mu      sync.RWMutex
	filters []Filter
}

// NewChain creates a chain holding the given filters
func NewChain(filters ...Filter) *Chain {
	c := &Chain{}
	for _, f := range filters {
		if f != nil {
			c.filters = append(c.filters, f)
		}
	}
	return c
}

// ParseChain builds a chain from filter specs, see Parse
func ParseChain(specs []string) (*Chain, error) {
	c := NewChain()
	for i, spec := range specs {
		f, err := Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		c.Add(f)
	}
	return c, nil
}

// Add appends a filter to the end of the chain
func (c *Chain) Add(f Filter) {
	if f == nil {
		return
	}
	c.mu.Lock()
	c.filters = append(c.filters, f)
	c.mu.Unlock()
}

// Remove drops every filter of the given kind and returns how many were removed
func (c *Chain) Remove(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.filters[:0]
	removed := 0
	for _, f := range c.filters {
		if f.Kind() == kind {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	for i := len(kept); i < len(c.filters); i++ {
		c.filters[i] = nil
	}
	c.filters = kept
	return removed
}

// RemoveMatching drops the most recently added filter whose settings equal
// spec (a preset name or "kind:key=value,..."). It reports whether one was
// removed; filters of the same kind with other settings stay.
func (c *Chain) RemoveMatching(spec string) (bool, error) {
	target, err := Parse(spec)
	if err != nil {
		return false, err
	}
	want := Format(target)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.filters) - 1; i >= 0; i-- {
		if Format(c.filters[i]) == want {
			c.filters = append(c.filters[:i], c.filters[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// RemoveAt drops the filter at position i
func (c *Chain) RemoveAt(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.filters) {
		return fmt.Errorf("filter index %d out of range [0, %d)", i, len(c.filters))
	}
	c.filters = append(c.filters[:i], c.filters[i+1:]...)
	return nil
}

// Clear removes all filters
func (c *Chain) Clear() {
	c.mu.Lock()
	c.filters = nil
	c.mu.Unlock()
}

// Len returns the number of filters
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filters)
}

// Filters returns a snapshot of the chain
func (c *Chain) Filters() []Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// Specs returns the textual form of every filter, see Format
func (c *Chain) Specs() []string {
	filters := c.Filters()
	specs := make([]string, len(filters))
	for i, f := range filters {
		specs[i] = Format(f)
	}
	return specs
}

// Apply runs in through every filter. An empty chain returns a copy of in.
func (c *Chain) Apply(in image.Image) *image.NRGBA {
	filters := c.Filters()
	if len(filters) == 0 {
		return imaging.Clone(in)
	}

	var out *image.NRGBA
	var cur image.Image = in
	for _, f := range filters {
		out = f.Apply(cur)
		cur = out
	}
	return out
}
