package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/menta2k/video-filter/pkg/filter"
	"github.com/menta2k/video-filter/pkg/types"
	"github.com/menta2k/video-filter/pkg/video"
)

// Config holds the application configuration
type Config struct {
	Video   VideoConfig   `toml:"video"`
	Output  OutputConfig  `toml:"output"`
	Filters FiltersConfig `toml:"filters"`
	Logging LoggingConfig `toml:"logging"`
}

// VideoConfig holds decoding settings
type VideoConfig struct {
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
	SequenceFPS   float64 `toml:"sequence_fps"`
}

// OutputConfig holds settings for saved frames and exports
type OutputConfig struct {
	FrameFormat string `toml:"frame_format"`
	Quality     int    `toml:"quality"`
	Lossless    bool   `toml:"lossless"`
	VideoExt    string `toml:"video_ext"`
	Codec       string `toml:"codec"`
	OutputDir   string `toml:"output_dir"`
}

// FiltersConfig holds the filter chain applied when none is given on the command line
type FiltersConfig struct {
	Default []string `toml:"default"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

var validFrameFormats = []string{"png", "jpg", "jpeg", "webp", "bmp", "tiff", "gif"}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			SequenceFPS:   25,
		},
		Output: OutputConfig{
			FrameFormat: "png",
			Quality:     90,
			Lossless:    false,
			VideoExt:    "avi",
			Codec:       "",
			OutputDir:   ".",
		},
		Filters: FiltersConfig{
			Default: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty path
// uses GetConfigPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile saves configuration to a TOML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Video.SequenceFPS <= 0 {
		return fmt.Errorf("video.sequence_fps must be positive")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if !contains(validFrameFormats, strings.ToLower(c.Output.FrameFormat)) {
		return fmt.Errorf("output.frame_format must be one of %s", strings.Join(validFrameFormats, ", "))
	}

	if strings.TrimSpace(c.Output.VideoExt) == "" {
		return fmt.Errorf("output.video_ext cannot be empty")
	}

	if _, err := filter.ParseChain(c.Filters.Default); err != nil {
		return fmt.Errorf("filters.default: %w", err)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format must be auto, text or json")
	}

	return nil
}

// EditorOptions converts the configuration into editor options
func (c *Config) EditorOptions() video.Options {
	return video.Options{
		Binaries: video.Binaries{
			FFmpeg:  c.Video.FFmpegBinary,
			FFprobe: c.Video.FFprobeBinary,
		},
		SequenceFPS: c.Video.SequenceFPS,
		Export: types.ExportOptions{
			Format:   strings.ToLower(c.Output.FrameFormat),
			Quality:  c.Output.Quality,
			Lossless: c.Output.Lossless,
			Codec:    c.Output.Codec,
		},
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.toml"
	}
	return filepath.Join(home, ".config", "video-filter", "config.toml")
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
