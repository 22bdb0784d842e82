package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 255, 0, 255})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 255, 255})
	img.SetRGBA(1, 1, color.RGBA{10, 20, 30, 255})
	return img
}

func TestEncodePPM(t *testing.T) {
	var buf bytes.Buffer
	if err := encodePPM(&buf, testImage()); err != nil {
		t.Fatalf("encodePPM: %v", err)
	}
	want := append([]byte("P6\n2 2\n255\n"),
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 10, 20, 30,
	)
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("encodePPM (-want +got):\n%s", diff)
	}
}

func TestEncodePPMSubImage(t *testing.T) {
	sub := testImage().SubImage(image.Rect(1, 1, 2, 2)).(*image.RGBA)
	var buf bytes.Buffer
	if err := encodePPM(&buf, sub); err != nil {
		t.Fatalf("encodePPM: %v", err)
	}
	want := append([]byte("P6\n1 1\n255\n"), 10, 20, 30)
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("encodePPM (-want +got):\n%s", diff)
	}
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "out.PNG")
		if err := writeImage(path, testImage()); err != nil {
			t.Fatalf("writeImage: %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		decoded, err := png.Decode(f)
		if err != nil {
			t.Fatalf("png.Decode: %v", err)
		}
		r, g, b, _ := decoded.At(1, 1).RGBA()
		if got := [3]uint32{r >> 8, g >> 8, b >> 8}; got != [3]uint32{10, 20, 30} {
			t.Errorf("pixel (1,1) = %v, want [10 20 30]", got)
		}
	})

	t.Run("ppm", func(t *testing.T) {
		path := filepath.Join(dir, "out.ppm")
		if err := writeImage(path, testImage()); err != nil {
			t.Fatalf("writeImage: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("P6\n2 2\n255\n")) || len(data) != 11+12 {
			t.Errorf("ppm file is %d bytes with header %q", len(data), data[:min(len(data), 11)])
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := writeImage(filepath.Join(dir, "out.jpg"), testImage()); err == nil {
			t.Error("writeImage(.jpg) succeeded, want an error")
		}
	})
}
