package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/menta2k/video-filter/internal/utils"
	"github.com/menta2k/video-filter/pkg/processing"
	"github.com/menta2k/video-filter/pkg/types"
)

var (
	// ErrFrameOutOfRange is returned when a frame index is outside the video
	ErrFrameOutOfRange = errors.New("frame index out of range")
	// ErrNoFrames is returned for sources without any decodable frame
	ErrNoFrames = errors.New("video has no frames")
)

// Source provides random access to decoded frames
type Source interface {
	Info() types.VideoInfo
	ReadFrame(ctx context.Context, index int) (image.Image, error)
	Close() error
}

// Sink consumes frames in presentation order. Close finalizes the output,
// Abort stops and removes whatever was written.
type Sink interface {
	WriteFrame(img image.Image) error
	Close() error
	Abort() error
}

// SequenceSource reads a directory of still images as a video, one file per
// frame in lexical order.
type SequenceSource struct {
	info      types.VideoInfo
	files     []string
	processor *processing.Processor
}

// OpenSequence lists the images in dir and exposes them at fps frames per second
func OpenSequence(dir string, fps float64) (*SequenceSource, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %g", fps)
	}
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}

	s := &SequenceSource{
		files:     files,
		processor: processing.NewProcessor(),
	}

	first, err := s.processor.LoadImage(files[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode first frame: %w", err)
	}
	s.info = types.VideoInfo{
		Path:       dir,
		Width:      first.Bounds().Dx(),
		Height:     first.Bounds().Dy(),
		FrameCount: len(files),
		FPS:        fps,
		Duration:   FrameTime(len(files), fps),
		Codec:      "image-sequence",
	}
	return s, nil
}

func (s *SequenceSource) Info() types.VideoInfo { return s.info }

func (s *SequenceSource) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.files) {
		return nil, fmt.Errorf("%w: %d", ErrFrameOutOfRange, index)
	}
	return s.processor.LoadImage(s.files[index])
}

func (s *SequenceSource) Close() error { return nil }

// SequenceSink writes numbered still images into a directory
type SequenceSink struct {
	dir       string
	opts      types.ExportOptions
	processor *processing.Processor
	next      int
	files     []string
	// created is set when the sink made dir itself
	created bool
}

// NewSequenceSink creates dir if needed and writes frames into it
func NewSequenceSink(dir string, opts types.ExportOptions) (*SequenceSink, error) {
	if opts.Format == "" {
		opts.Format = "png"
	}
	created := !utils.DirExists(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &SequenceSink{dir: dir, opts: opts, processor: processing.NewProcessor(), created: created}, nil
}

func (s *SequenceSink) WriteFrame(img image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.%s", s.next, s.opts.Format))
	if err := s.processor.SaveImage(img, path, s.opts.Format, s.opts.Quality, s.opts.Lossless); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", s.next, err)
	}
	s.files = append(s.files, path)
	s.next++
	return nil
}

// Written returns the number of frames written so far
func (s *SequenceSink) Written() int { return s.next }

func (s *SequenceSink) Close() error { return nil }

// Abort deletes the frames written so far, and the directory if the sink created it
func (s *SequenceSink) Abort() error {
	var errs []error
	for _, path := range s.files {
		if err := utils.RemoveIfExists(path); err != nil {
			errs = append(errs, err)
		}
	}
	s.files = nil
	if s.created && len(errs) == 0 {
		if err := os.Remove(s.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isSequencePath reports whether path should be treated as an image sequence
func isSequencePath(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FrameTime returns the presentation time of frame index at fps
func FrameTime(index int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(index) * float64(time.Second) / fps))
}
