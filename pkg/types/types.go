package types

import "time"

// Range is an inclusive span of frame indices
type Range struct {
	Start int `json:"start" toml:"start"`
	End   int `json:"end" toml:"end"`
}

// Len returns the number of frames covered by the range
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// VideoInfo describes an opened video source
type VideoInfo struct {
	Path       string        `json:"path"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	FrameCount int           `json:"frame_count"`
	FPS        float64       `json:"fps"`
	Duration   time.Duration `json:"duration"`
	Codec      string        `json:"codec"`
}

// ExportOptions controls how frames are written out
type ExportOptions struct {
	// Format is the still image format for image-sequence output.
	Format   string
	Quality  int
	Lossless bool
	// Codec is passed to the ffmpeg encoder; empty lets ffmpeg choose.
	Codec string
}
