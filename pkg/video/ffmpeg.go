package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/menta2k/video-filter/internal/utils"
	"github.com/menta2k/video-filter/pkg/types"
)

// Binaries names the ffmpeg tools to run
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

func (b Binaries) ffmpeg() string {
	if strings.TrimSpace(b.FFmpeg) == "" {
		return "ffmpeg"
	}
	return b.FFmpeg
}

// FFmpegSource decodes a video file through an ffmpeg child process that
// streams raw RGBA frames. Sequential reads reuse the running decoder,
// any other read restarts it at the requested frame.
type FFmpegSource struct {
	info types.VideoInfo
	bins Binaries

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr bytes.Buffer
	next   int
}

// OpenFFmpeg probes path and prepares a decoder for it
func OpenFFmpeg(ctx context.Context, path string, bins Binaries) (*FFmpegSource, error) {
	info, err := Probe(ctx, bins.FFprobe, path)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("ffprobe: invalid frame size %dx%d", info.Width, info.Height)
	}
	return &FFmpegSource{info: info, bins: bins}, nil
}

func (s *FFmpegSource) Info() types.VideoInfo { return s.info }

func (s *FFmpegSource) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= s.info.FrameCount {
		return nil, fmt.Errorf("%w: %d", ErrFrameOutOfRange, index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || index != s.next {
		if err := s.restart(index); err != nil {
			return nil, err
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	if _, err := io.ReadFull(s.reader, img.Pix); err != nil {
		s.stop()
		stderr := strings.TrimSpace(s.stderr.String())
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %d (decoder ended early)", ErrFrameOutOfRange, index)
		}
		return nil, fmt.Errorf("ffmpeg decode frame %d: %w: %s", index, err, stderr)
	}
	s.next = index + 1
	return img, nil
}

// restart launches a decoder positioned at frame index. Caller holds mu.
func (s *FFmpegSource) restart(index int) error {
	s.stop()

	args := []string{"-v", "error", "-nostdin", "-noautorotate"}
	if seek := seekSeconds(index, s.info.FPS); seek > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seek, 'f', 6, 64))
	}
	args = append(args,
		"-i", s.info.Path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.bins.ffmpeg(), args...) //nolint:gosec
	s.stderr.Reset()
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	s.cmd = cmd
	s.cancel = cancel
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, s.info.Width*s.info.Height*4)
	s.next = index
	return nil
}

// seekSeconds returns the input seek position for frame index. It lands half
// a frame early so that rounding never skips past the frame's timestamp.
func seekSeconds(index int, fps float64) float64 {
	if index <= 0 || fps <= 0 {
		return 0
	}
	return (float64(index) - 0.5) / fps
}

// stop terminates the running decoder. Caller holds mu.
func (s *FFmpegSource) stop() {
	if s.cmd == nil {
		return
	}
	s.cancel()
	_ = s.stdout.Close()
	_ = s.cmd.Wait()
	s.cmd = nil
	s.cancel = nil
	s.stdout = nil
	s.reader = nil
}

func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	return nil
}

// FFmpegSink encodes frames through an ffmpeg child process reading raw
// RGBA on stdin. The frame size is fixed by the first frame written.
type FFmpegSink struct {
	path string
	fps  float64
	opts types.ExportOptions
	bins Binaries

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	frames int
}

// NewFFmpegSink prepares an encoder writing to path at fps
func NewFFmpegSink(path string, fps float64, opts types.ExportOptions, bins Binaries) (*FFmpegSink, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %g", fps)
	}
	return &FFmpegSink{path: path, fps: fps, opts: opts, bins: bins}, nil
}

func (s *FFmpegSink) start(width, height int) error {
	args := []string{
		"-v", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(s.fps, 'f', -1, 64),
		"-i", "-",
	}
	if s.opts.Codec != "" {
		args = append(args, "-c:v", s.opts.Codec)
	}
	args = append(args, s.path)

	cmd := exec.Command(s.bins.ffmpeg(), args...) //nolint:gosec
	cmd.Stderr = &s.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	s.width = width
	s.height = height
	return nil
}

func (s *FFmpegSink) WriteFrame(img image.Image) error {
	b := img.Bounds()
	if s.cmd == nil {
		if err := s.start(b.Dx(), b.Dy()); err != nil {
			return err
		}
	}
	if b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %d is %dx%d, encoder expects %dx%d", s.frames, b.Dx(), b.Dy(), s.width, s.height)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != s.width*4 || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	if _, err := s.stdin.Write(nrgba.Pix[:s.width*s.height*4]); err != nil {
		stderr := s.stopEncoder()
		return fmt.Errorf("ffmpeg write frame %d: %w: %s", s.frames, err, stderr)
	}
	s.frames++
	return nil
}

// Written returns the number of frames sent to the encoder
func (s *FFmpegSink) Written() int { return s.frames }

// stopEncoder kills the encoder and returns its stderr
func (s *FFmpegSink) stopEncoder() string {
	if s.cmd == nil {
		return ""
	}
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	return strings.TrimSpace(s.stderr.String())
}

// Abort kills the encoder and removes the partial output file
func (s *FFmpegSink) Abort() error {
	s.stopEncoder()
	if s.width == 0 {
		// never started, path was not touched
		return nil
	}
	return utils.RemoveIfExists(s.path)
}

func (s *FFmpegSink) Close() error {
	if s.cmd == nil {
		return nil
	}
	_ = s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd = nil
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}
