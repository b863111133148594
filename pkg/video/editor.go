// Package video provides the headless editing model: frame sources and
// sinks, the cut list, seeking, filtered frame access, export and playback.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/video-filter/internal/utils"
	"github.com/menta2k/video-filter/pkg/filter"
	"github.com/menta2k/video-filter/pkg/processing"
	"github.com/menta2k/video-filter/pkg/types"
)

var (
	// ErrNotOpen is returned by operations that need an opened video
	ErrNotOpen = errors.New("no video open")
	// ErrEndOfVideo is returned when no kept frame follows the current one
	ErrEndOfVideo = errors.New("end of video")
	// ErrOutputLocked is returned when another export holds the output path
	ErrOutputLocked = errors.New("output is locked by another export")
)

// Options configures an Editor
type Options struct {
	Binaries Binaries
	// SequenceFPS is the frame rate assumed for image-sequence directories.
	SequenceFPS float64
	Export      types.ExportOptions
	Logger      logrus.FieldLogger
}

// DefaultOptions returns the options used by NewEditor when none are given
func DefaultOptions() Options {
	return Options{
		SequenceFPS: 25,
		Export: types.ExportOptions{
			Format:  "png",
			Quality: 90,
		},
	}
}

// ProgressFunc reports export progress after each written frame
type ProgressFunc func(done, total int)

// ExportResult summarises a finished export
type ExportResult struct {
	RunID   string
	Path    string
	Frames  int
	Elapsed time.Duration
}

// Editor holds an open video, its filter chain and its cut list. All
// methods are safe for concurrent use.
type Editor struct {
	opts      Options
	log       logrus.FieldLogger
	processor *processing.Processor
	chain     *filter.Chain

	mu      sync.RWMutex
	source  Source
	info    types.VideoInfo
	cuts    *CutList
	current int
}

// NewEditor creates an editor with no video open
func NewEditor(opts Options) *Editor {
	defaults := DefaultOptions()
	if opts.SequenceFPS <= 0 {
		opts.SequenceFPS = defaults.SequenceFPS
	}
	if opts.Export.Format == "" {
		opts.Export.Format = defaults.Export.Format
	}
	if opts.Export.Quality <= 0 {
		opts.Export.Quality = defaults.Export.Quality
	}

	log := opts.Logger
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = silent
	}

	return &Editor{
		opts:      opts,
		log:       log,
		processor: processing.NewProcessor(),
		chain:     filter.NewChain(),
		cuts:      &CutList{},
	}
}

// Open loads a video file, or an image-sequence directory, replacing any
// video already open. On failure the editor is left closed.
func (e *Editor) Open(ctx context.Context, path string) error {
	e.Close()

	var (
		src Source
		err error
	)
	if isSequencePath(path) {
		src, err = OpenSequence(path, e.opts.SequenceFPS)
	} else {
		src, err = OpenFFmpeg(ctx, path, e.opts.Binaries)
	}
	if err != nil {
		e.log.WithError(err).WithField("path", path).Warn("Failed to open video")
		return fmt.Errorf("open %s: %w", path, err)
	}
	return e.OpenSource(src)
}

// OpenSource attaches an already opened source, replacing any video already open
func (e *Editor) OpenSource(src Source) error {
	info := src.Info()
	if info.FrameCount <= 0 {
		src.Close()
		return ErrNoFrames
	}

	e.Close()

	e.mu.Lock()
	e.source = src
	e.info = info
	e.cuts = &CutList{}
	e.current = 0
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"path":   info.Path,
		"frames": info.FrameCount,
		"fps":    info.FPS,
		"size":   fmt.Sprintf("%dx%d", info.Width, info.Height),
		"codec":  info.Codec,
	}).Info("Video opened")
	return nil
}

// Close releases the open video, if any
func (e *Editor) Close() error {
	e.mu.Lock()
	src := e.source
	e.source = nil
	e.info = types.VideoInfo{}
	e.current = 0
	e.mu.Unlock()

	if src == nil {
		return nil
	}
	return src.Close()
}

// IsOpen reports whether a video is open
func (e *Editor) IsOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.source != nil
}

// Info describes the open video
func (e *Editor) Info() types.VideoInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info
}

// FrameCount returns the number of frames of the open video
func (e *Editor) FrameCount() int {
	return e.Info().FrameCount
}

// Duration returns the length of the open video
func (e *Editor) Duration() time.Duration {
	return e.Info().Duration
}

// Codec returns the codec name of the open video
func (e *Editor) Codec() string {
	return e.Info().Codec
}

// CurrentFrame returns the index of the current frame
func (e *Editor) CurrentFrame() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// CurrentMsecs returns the presentation time of the current frame in milliseconds
func (e *Editor) CurrentMsecs() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return FrameTime(e.current, e.info.FPS).Milliseconds()
}

// GoToFrame seeks to frame. A frame inside the cut list is replaced by the
// next kept frame (or the previous one at the end of the video); the frame
// actually selected is returned.
func (e *Editor) GoToFrame(frame int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return 0, ErrNotOpen
	}
	total := e.info.FrameCount
	if frame < 0 || frame >= total {
		return e.current, fmt.Errorf("%w: %d (video has %d frames)", ErrFrameOutOfRange, frame, total)
	}

	pos, err := e.keptFrom(frame)
	if err != nil {
		return e.current, err
	}
	e.current = pos
	return pos, nil
}

// keptFrom resolves frame to the nearest kept frame. Caller holds mu.
func (e *Editor) keptFrom(frame int) (int, error) {
	total := e.info.FrameCount
	pos := e.cuts.NextKept(frame, total)
	if pos < 0 {
		pos = e.cuts.PrevKept(frame, total)
	}
	if pos < 0 {
		return 0, fmt.Errorf("%w: every frame is cut", ErrNoFrames)
	}
	return pos, nil
}

// NextFrame advances to the next kept frame
func (e *Editor) NextFrame() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return 0, ErrNotOpen
	}
	pos := e.cuts.NextKept(e.current+1, e.info.FrameCount)
	if pos < 0 {
		return e.current, ErrEndOfVideo
	}
	e.current = pos
	return pos, nil
}

// FrameImage decodes frame index and runs it through the filter chain
func (e *Editor) FrameImage(ctx context.Context, index int) (*image.NRGBA, error) {
	e.mu.RLock()
	src := e.source
	e.mu.RUnlock()

	if src == nil {
		return nil, ErrNotOpen
	}
	img, err := src.ReadFrame(ctx, index)
	if err != nil {
		return nil, err
	}
	return e.chain.Apply(img), nil
}

// CurrentImage returns the filtered current frame
func (e *Editor) CurrentImage(ctx context.Context) (*image.NRGBA, error) {
	return e.FrameImage(ctx, e.CurrentFrame())
}

// SaveCurrentFrame writes the filtered current frame to path; the format
// follows the file extension.
func (e *Editor) SaveCurrentFrame(ctx context.Context, path string) error {
	img, err := e.CurrentImage(ctx)
	if err != nil {
		return err
	}
	if err := e.processor.SaveImage(img, path, "", e.opts.Export.Quality, e.opts.Export.Lossless); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	e.log.WithFields(logrus.Fields{"frame": e.CurrentFrame(), "path": path}).Info("Frame saved")
	return nil
}

// Chain returns the filter chain applied to every frame
func (e *Editor) Chain() *filter.Chain {
	return e.chain
}

// AddFilter appends f to the filter chain
func (e *Editor) AddFilter(f filter.Filter) {
	e.chain.Add(f)
	e.log.WithField("filter", filter.Format(f)).Debug("Filter added")
}

// RemoveFilter removes every filter of kind from the chain
func (e *Editor) RemoveFilter(kind filter.Kind) int {
	n := e.chain.Remove(kind)
	e.log.WithFields(logrus.Fields{"kind": kind.String(), "removed": n}).Debug("Filter removed")
	return n
}

// RemoveMatchingFilter removes the last filter added with the settings in spec
func (e *Editor) RemoveMatchingFilter(spec string) (bool, error) {
	removed, err := e.chain.RemoveMatching(spec)
	if err != nil {
		return false, err
	}
	e.log.WithFields(logrus.Fields{"filter": spec, "removed": removed}).Debug("Filter removed")
	return removed, nil
}

// CutList returns a copy of the cut list
func (e *Editor) CutList() *CutList {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cuts.Clone()
}

// SetCutList replaces the cut list
func (e *Editor) SetCutList(cuts *CutList) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return ErrNotOpen
	}
	next := cuts.Clone()
	if err := next.Validate(e.info.FrameCount); err != nil {
		return err
	}
	return e.applyCuts(next)
}

// AddSelection marks a frame range for removal
func (e *Editor) AddSelection(r types.Range) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return ErrNotOpen
	}
	next := e.cuts.Clone()
	if err := next.Add(r); err != nil {
		return err
	}
	if err := next.Validate(e.info.FrameCount); err != nil {
		return err
	}
	return e.applyCuts(next)
}

// applyCuts installs cuts and moves the current frame off any cut range. Caller holds mu.
func (e *Editor) applyCuts(cuts *CutList) error {
	prev := e.cuts
	e.cuts = cuts
	pos, err := e.keptFrom(e.current)
	if err != nil {
		e.cuts = prev
		return err
	}
	e.current = pos
	e.log.WithFields(logrus.Fields{
		"cuts": cuts.String(),
		"kept": cuts.KeptCount(e.info.FrameCount),
	}).Debug("Cut list updated")
	return nil
}

// DefaultFrameName returns the suggested file name for saving the current frame
func (e *Editor) DefaultFrameName() string {
	return fmt.Sprintf("%s_frame%d.png", e.Info().Path, e.CurrentFrame())
}

// DefaultExportName returns the suggested file name for an export with extension ext
func (e *Editor) DefaultExportName(ext string) string {
	return fmt.Sprintf("%s_edited.%s", e.Info().Path, strings.TrimPrefix(ext, "."))
}

// Export writes every kept frame through the filter chain to path. A path
// with an image-sequence layout (an existing directory or no extension)
// receives numbered stills, anything else is encoded by ffmpeg. A failed or
// cancelled export removes the output it wrote.
func (e *Editor) Export(ctx context.Context, path string, progress ProgressFunc) (ExportResult, error) {
	e.mu.RLock()
	src := e.source
	info := e.info
	cuts := e.cuts.Clone()
	e.mu.RUnlock()

	if src == nil {
		return ExportResult{}, ErrNotOpen
	}

	runID := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{"run_id": runID, "output": path})

	lock := flock.New(filepath.Clean(path) + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return ExportResult{}, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return ExportResult{}, fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = utils.RemoveIfExists(lock.Path())
	}()

	sink, err := e.newSink(path, info.FPS)
	if err != nil {
		return ExportResult{}, err
	}

	total := cuts.KeptCount(info.FrameCount)
	log.WithFields(logrus.Fields{"frames": total, "cuts": cuts.String()}).Info("Export started")

	start := time.Now()
	done := 0
	fail := func(err error) (ExportResult, error) {
		if abortErr := sink.Abort(); abortErr != nil {
			log.WithError(abortErr).Warn("Failed to remove partial export")
		}
		log.WithError(err).WithField("frames", done).Warn("Export aborted")
		return ExportResult{}, err
	}
	for _, r := range cuts.KeptRanges(info.FrameCount) {
		for i := r.Start; i <= r.End; i++ {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			img, err := src.ReadFrame(ctx, i)
			if err != nil {
				return fail(fmt.Errorf("read frame %d: %w", i, err))
			}
			if err := sink.WriteFrame(e.chain.Apply(img)); err != nil {
				return fail(err)
			}
			done++
			if progress != nil {
				progress(done, total)
			}
		}
	}
	if err := sink.Close(); err != nil {
		return fail(err)
	}

	result := ExportResult{
		RunID:   runID,
		Path:    path,
		Frames:  done,
		Elapsed: time.Since(start),
	}
	log.WithFields(logrus.Fields{"frames": done, "elapsed": result.Elapsed}).Info("Export finished")
	return result, nil
}

func (e *Editor) newSink(path string, fps float64) (Sink, error) {
	if isSequencePath(path) || filepath.Ext(path) == "" {
		return NewSequenceSink(path, e.opts.Export)
	}
	return NewFFmpegSink(path, fps, e.opts.Export, e.opts.Binaries)
}
