package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[video]
sequence_fps = 30

[output]
frame_format = "webp"
quality = 75
lossless = true

[filters]
default = ["rotate90cw", "bc:contrast=1.2"]

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Video.SequenceFPS != 30 {
		t.Errorf("Expected sequence_fps 30, got %g", cfg.Video.SequenceFPS)
	}
	if cfg.Video.FFmpegBinary != "ffmpeg" {
		t.Errorf("Unset values should keep their defaults, got ffmpeg_binary %q", cfg.Video.FFmpegBinary)
	}
	if cfg.Output.FrameFormat != "webp" || cfg.Output.Quality != 75 || !cfg.Output.Lossless {
		t.Errorf("Unexpected output config %+v", cfg.Output)
	}
	if !reflect.DeepEqual(cfg.Filters.Default, []string{"rotate90cw", "bc:contrast=1.2"}) {
		t.Errorf("Unexpected filters %v", cfg.Filters.Default)
	}

	opts := cfg.EditorOptions()
	if opts.SequenceFPS != 30 || opts.Export.Format != "webp" || opts.Export.Quality != 75 {
		t.Errorf("Unexpected editor options %+v", opts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("An explicit missing config file should be an error")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"quality":      "[output]\nquality = 0\n",
		"format":       "[output]\nframe_format = \"raw\"\n",
		"filter":       "[filters]\ndefault = [\"sharpen\"]\n",
		"fps":          "[video]\nsequence_fps = 0\n",
		"unknown key":  "[output]\ncolour = \"red\"\n",
		"log format":   "[logging]\nformat = \"xml\"\n",
		"syntax error": "[output\n",
	}
	for name, contents := range tests {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte(contents), 0644)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected Load to fail", name)
		}
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Output.Codec = "mpeg4"
	cfg.Filters.Default = []string{"flipv"}

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mpeg4") {
		t.Errorf("Saved config missing codec:\n%s", data)
	}

	var decoded Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Saved config is not valid TOML: %v", err)
	}
	if !reflect.DeepEqual(&decoded, cfg) {
		t.Errorf("Round trip mismatch:\n%+v\n%+v", decoded, *cfg)
	}
}

func TestGetConfigPath(t *testing.T) {
	if !strings.HasSuffix(GetConfigPath(), "config.toml") {
		t.Errorf("Unexpected config path %q", GetConfigPath())
	}
}
