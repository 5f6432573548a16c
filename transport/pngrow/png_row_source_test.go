package pngrow

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 64), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestOpen_EmitsResampledRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.png")
	writeTestPNG(t, path)

	src, err := Open(path, 8, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	select {
	case row := <-src.Rows():
		if len(row.R) != 8 || len(row.G) != 8 || len(row.B) != 8 {
			t.Fatalf("row width = %d, want 8", len(row.R))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a resampled row")
	}
}

func TestOpen_RejectsMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/path.png", 8, time.Millisecond); err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}
