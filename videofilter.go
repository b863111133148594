// Package videofilter provides frame filters and a headless video editor.
//
// The package combines a small set of per-frame image transforms (rotation,
// flipping and a linear brightness/contrast remap) with a video model that
// can seek, cut frame ranges, play back and export through ffmpeg.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		videofilter "github.com/menta2k/video-filter"
//		"github.com/menta2k/video-filter/pkg/types"
//	)
//
//	func main() {
//		vf := videofilter.New()
//
//		// Open a video with a clockwise rotation applied to every frame
//		editor, err := vf.OpenVideo(context.Background(), "clip.mp4", "rotate90cw")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer editor.Close()
//
//		// Drop the first second and export the rest
//		editor.AddSelection(types.Range{Start: 0, End: 24})
//		if _, err := editor.Export(context.Background(), "clip_edited.avi", nil); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of four main components:
//
// 1. Filter (pkg/filter): Filter kinds, the factory, presets and the ordered chain
// 2. Processing (pkg/processing): Still image loading and saving
// 3. Video (pkg/video): Sources, sinks, cut list, editor and player
// 4. Types (pkg/types): Shared frame range and video metadata types
package videofilter

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/video-filter/pkg/filter"
	"github.com/menta2k/video-filter/pkg/processing"
	"github.com/menta2k/video-filter/pkg/video"
)

// Version of the video filter library
const Version = "1.0.0"

// VideoFilter provides a high-level interface over the filter and video packages
type VideoFilter struct {
	processor *processing.Processor
	opts      video.Options
}

// New creates a new VideoFilter with default configuration
func New() *VideoFilter {
	return NewWithOptions(video.DefaultOptions())
}

// NewWithOptions creates a new VideoFilter whose editors use opts
func NewWithOptions(opts video.Options) *VideoFilter {
	return &VideoFilter{
		processor: processing.NewProcessor(),
		opts:      opts,
	}
}

// LoadImage loads an image from a file or URL
func (vf *VideoFilter) LoadImage(source string) (image.Image, error) {
	return vf.processor.LoadImageSmart(source)
}

// SaveImage saves an image, choosing the format from the file extension
func (vf *VideoFilter) SaveImage(img image.Image, path string) error {
	return vf.processor.SaveImage(img, path, "", vf.opts.Export.Quality, vf.opts.Export.Lossless)
}

// ApplyFilters runs img through the filters described by specs, in order
func (vf *VideoFilter) ApplyFilters(img image.Image, specs ...string) (*image.NRGBA, error) {
	chain, err := filter.ParseChain(specs)
	if err != nil {
		return nil, err
	}
	return chain.Apply(img), nil
}

// ProcessImageFile is a convenience function that loads, filters and saves an image
func (vf *VideoFilter) ProcessImageFile(inputPath, outputPath string, specs []string) error {
	img, err := vf.LoadImage(inputPath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	out, err := vf.ApplyFilters(img, specs...)
	if err != nil {
		return fmt.Errorf("invalid filter chain: %w", err)
	}

	if err := vf.SaveImage(out, outputPath); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// OpenVideo opens a video file or image-sequence directory in a new editor
// with the given filters installed
func (vf *VideoFilter) OpenVideo(ctx context.Context, path string, specs ...string) (*video.Editor, error) {
	chain, err := filter.ParseChain(specs)
	if err != nil {
		return nil, err
	}

	editor := video.NewEditor(vf.opts)
	if err := editor.Open(ctx, path); err != nil {
		return nil, err
	}
	for _, f := range chain.Filters() {
		editor.AddFilter(f)
	}
	return editor, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
