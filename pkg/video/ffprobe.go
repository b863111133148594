package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/menta2k/video-filter/pkg/types"
)

// probeResult is the subset of ffprobe JSON output the editor needs
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Probe runs ffprobe on path and describes its first video stream
func Probe(ctx context.Context, binary, path string) (types.VideoInfo, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return types.VideoInfo{}, errors.New("ffprobe: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.VideoInfo{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return types.VideoInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(path, output)
}

func parseProbe(path string, output []byte) (types.VideoInfo, error) {
	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	var stream *probeStream
	for i := range result.Streams {
		if strings.EqualFold(result.Streams[i].CodecType, "video") {
			stream = &result.Streams[i]
			break
		}
	}
	if stream == nil {
		return types.VideoInfo{}, fmt.Errorf("%w: no video stream in %s", ErrNoFrames, path)
	}

	fps := parseRate(stream.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(stream.RFrameRate)
	}
	if fps <= 0 {
		return types.VideoInfo{}, fmt.Errorf("ffprobe: unknown frame rate for %s", path)
	}

	seconds := parseSeconds(stream.Duration)
	if seconds <= 0 {
		seconds = parseSeconds(result.Format.Duration)
	}

	frames, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames))
	if err != nil || frames <= 0 {
		frames = int(math.Round(seconds * fps))
	}
	if frames <= 0 {
		return types.VideoInfo{}, fmt.Errorf("%w: %s", ErrNoFrames, path)
	}
	if seconds <= 0 {
		seconds = float64(frames) / fps
	}

	return types.VideoInfo{
		Path:       path,
		Width:      stream.Width,
		Height:     stream.Height,
		FrameCount: frames,
		FPS:        fps,
		Duration:   time.Duration(seconds * float64(time.Second)),
		Codec:      stream.CodecName,
	}, nil
}

// parseRate parses ffprobe rationals such as "30000/1001"
func parseRate(value string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return parseSeconds(value)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
