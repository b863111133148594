package videofilter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/menta2k/video-filter/pkg/processing"
)

// createTestImage creates a test image with a bright block in the top-left corner
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/4 && y < height/4 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	vf := New()
	if vf == nil {
		t.Fatal("New() returned nil")
	}
	if vf.processor == nil {
		t.Error("processor component is nil")
	}
	if vf.opts.SequenceFPS <= 0 {
		t.Error("Expected a positive default sequence frame rate")
	}
}

func TestApplyFilters(t *testing.T) {
	vf := New()
	img := createTestImage(40, 20)

	out, err := vf.ApplyFilters(img, "rotate90cw", "flipv")
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 40 {
		t.Errorf("Expected 20x40, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	// top-left block: rotated to the top-right, then flipped to the bottom-right
	if out.NRGBAAt(19, 39).R != 255 {
		t.Error("Expected the bright block in the bottom-right corner")
	}

	if _, err := vf.ApplyFilters(img, "emboss"); err == nil {
		t.Error("Expected an error for an unknown filter")
	}
}

func TestProcessImageFile(t *testing.T) {
	vf := New()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")

	if err := vf.SaveImage(createTestImage(30, 30), in); err != nil {
		t.Fatal(err)
	}
	if err := vf.ProcessImageFile(in, out, []string{"bc:contrast=1,brightness=100"}); err != nil {
		t.Fatalf("ProcessImageFile failed: %v", err)
	}

	img, err := processing.NewProcessor().LoadImage(out)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := img.At(29, 29).RGBA()
	if r>>8 != 164 {
		t.Errorf("Expected background 64+100=164, got %d", r>>8)
	}
}

func TestOpenVideoSequence(t *testing.T) {
	vf := New()
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		if err := vf.SaveImage(createTestImage(16, 8), filepath.Join(dir, fmt.Sprintf("%03d.png", i))); err != nil {
			t.Fatal(err)
		}
	}

	editor, err := vf.OpenVideo(context.Background(), dir, "rotate90ccw")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	defer editor.Close()

	if editor.FrameCount() != 5 {
		t.Errorf("Expected 5 frames, got %d", editor.FrameCount())
	}
	img, err := editor.CurrentImage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected rotated 8x16 frame, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	if _, err := vf.OpenVideo(context.Background(), dir, "nope"); err == nil {
		t.Error("Expected an error for an invalid filter spec")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected version %s, got %s", Version, GetVersion())
	}
}
