// Package filter implements per-frame image transforms and the ordered
// chain that applies them during playback and export.
package filter

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies a filter variant
type Kind int

const (
	Rotation Kind = iota + 1
	BrightnessContrast
	Flip
)

var (
	// ErrUnknownKind is returned when a filter kind or preset is not recognised
	ErrUnknownKind = errors.New("unknown filter kind")
	// ErrUnknownParam is returned by Configure for keys the filter does not have
	ErrUnknownParam = errors.New("unknown filter parameter")
	// ErrInvalidParam is returned when a parameter value cannot be parsed or is out of range
	ErrInvalidParam = errors.New("invalid filter parameter")
)

var kindNames = map[Kind]string{
	Rotation:           "rotate",
	BrightnessContrast: "bc",
	Flip:               "flip",
}

// String returns the short name used in filter specs
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind from its short name
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "rotation", "rotate":
		return Rotation, nil
	case "bc", "brightness", "contrast", "brightnesscontrast":
		return BrightnessContrast, nil
	case "flip":
		return Flip, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Filter transforms one frame into another
type Filter interface {
	// Kind reports the variant of the filter.
	Kind() Kind
	// Apply returns the transformed frame. The input is not modified.
	Apply(in image.Image) *image.NRGBA
	// Configure sets a named parameter from its textual value.
	Configure(key, value string) error
	// Params returns the current parameters keyed by name.
	Params() map[string]string
	// Validate reports whether the parameters are within range.
	Validate() error
}

// New creates a default-initialised filter of the given kind
func New(kind Kind) (Filter, error) {
	switch kind {
	case Rotation:
		return NewRotate(), nil
	case BrightnessContrast:
		return NewBrightnessContrast(), nil
	case Flip:
		return NewFlip(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

// presets mirror the toggle actions of the editor menu
var presets = map[string]func() Filter{
	"rotate90cw":  func() Filter { return &RotateFilter{Count: 1} },
	"rotate90ccw": func() Filter { return &RotateFilter{Count: 1, CCW: true} },
	"rotate180":   func() Filter { return &RotateFilter{Count: 2} },
	"fliph":       func() Filter { return &FlipFilter{} },
	"flipv":       func() Filter { return &FlipFilter{Vertical: true} },
}

// NewPreset creates a filter from one of the named presets
func NewPreset(name string) (Filter, error) {
	create, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: preset %q", ErrUnknownKind, name)
	}
	return create(), nil
}

// PresetNames returns the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse builds a filter from its textual form.
//
// Accepted forms are a preset name ("rotate90cw") or a kind followed by
// optional comma separated parameters ("bc:contrast=1.5,brightness=20").
func Parse(spec string) (Filter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty filter spec", ErrUnknownKind)
	}

	name, params, hasParams := strings.Cut(spec, ":")
	if !hasParams {
		if f, err := NewPreset(name); err == nil {
			return f, nil
		}
	}

	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	f, err := New(kind)
	if err != nil {
		return nil, err
	}

	if hasParams && strings.TrimSpace(params) != "" {
		for _, pair := range strings.Split(params, ",") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("%w: %s: expected key=value, got %q", ErrInvalidParam, kind, pair)
			}
			if err := f.Configure(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return nil, err
			}
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Format renders a filter back into the textual form accepted by Parse
func Format(f Filter) string {
	params := f.Params()
	if len(params) == 0 {
		return f.Kind().String()
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return f.Kind().String() + ":" + strings.Join(pairs, ",")
}

func parseBool(kind Kind, key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s.%s=%q", ErrInvalidParam, kind, key, value)
	}
	return b, nil
}

func parseFloat(kind Kind, key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s=%q", ErrInvalidParam, kind, key, value)
	}
	return f, nil
}
