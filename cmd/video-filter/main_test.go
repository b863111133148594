package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/video-filter/internal/config"
	"github.com/menta2k/video-filter/pkg/processing"
)

type cliTestEnv struct {
	configPath string
	clipDir    string
	workDir    string
}

func setupCLITestEnv(t *testing.T) cliTestEnv {
	t.Helper()
	workDir := t.TempDir()

	cfg := config.Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "text"
	cfg.Output.OutputDir = workDir
	configPath := filepath.Join(workDir, "config.toml")
	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("write config: %v", err)
	}

	clipDir := filepath.Join(workDir, "clip")
	if err := os.Mkdir(clipDir, 0755); err != nil {
		t.Fatal(err)
	}
	p := processing.NewProcessor()
	for i := 0; i < 5; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 6; x++ {
				img.SetNRGBA(x, y, color.NRGBA{uint8(i * 10), 0, 0, 255})
			}
		}
		if err := p.SaveImage(img, filepath.Join(clipDir, fmt.Sprintf("%02d.png", i)), "png", 90, false); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}

	return cliTestEnv{configPath: configPath, clipDir: clipDir, workDir: workDir}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestFiltersCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"filters"}, "")
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	for _, want := range []string{"rotate90cw", "fliph", "bc", "brightness=0"} {
		requireContains(t, out, want)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample config")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("config init should refuse to overwrite without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "sequence_fps")
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[output]\nquality = 500\n"), 0644)

	if _, _, err := runCLI(t, []string{"config", "show"}, path); err == nil {
		t.Fatal("expected an invalid config to fail")
	}
	if _, _, err := runCLI(t, []string{"filters"}, path); err != nil {
		t.Fatalf("filters should not load config: %v", err)
	}
}

func TestImageCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.clipDir, "00.png")
	output := filepath.Join(env.workDir, "rotated.png")

	out, _, err := runCLI(t, []string{"image", input, "-f", "rotate90cw", "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	requireContains(t, out, output)

	img, err := processing.NewProcessor().LoadImage(output)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 6 {
		t.Errorf("Expected 4x6, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	if _, _, err := runCLI(t, []string{"image", input, "-f", "blur"}, env.configPath); err == nil {
		t.Error("Expected an error for an unknown filter")
	}
}

func TestInfoAndCutsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"info", env.clipDir, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, `"frame_count": 5`)

	out, _, err = runCLI(t, []string{"cuts", env.clipDir, "--cut", "1-2"}, env.configPath)
	if err != nil {
		t.Fatalf("cuts: %v", err)
	}
	requireContains(t, out, "3 of 5 frames kept")

	if _, _, err := runCLI(t, []string{"cuts", env.clipDir, "--cut", "0-4"}, env.configPath); err == nil {
		t.Error("Cutting every frame should fail")
	}
}

func TestFrameCommandSkipsCutFrame(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.workDir, "still.png")

	out, _, err := runCLI(t, []string{"frame", env.clipDir, "--frame", "1", "--cut", "1", "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	requireContains(t, out, "2/5")

	img, err := processing.NewProcessor().LoadImage(output)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	if r>>8 != 20 {
		t.Errorf("Expected frame 2 (red 20), got red %d", r>>8)
	}
}

func TestExportCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.workDir, "edited")

	out, _, err := runCLI(t, []string{"export", env.clipDir, "--cut", "0", "-f", "flipv", "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "4 frames")

	entries, err := os.ReadDir(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 exported frames, got %d", len(entries))
	}
	if _, err := os.Stat(output + ".lock"); !os.IsNotExist(err) {
		t.Error("Export lock file should be removed")
	}
}

func TestPlayCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	saveDir := filepath.Join(env.workDir, "shown")

	out, _, err := runCLI(t, []string{"play", env.clipDir, "--cut", "3", "--rate", "50", "--save-dir", saveDir}, env.configPath)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	requireContains(t, out, "played 4 frames")
	requireContains(t, out, "4/5")

	entries, err := os.ReadDir(saveDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 saved frames, got %d", len(entries))
	}
}
