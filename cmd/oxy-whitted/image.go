package main

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// writeImage saves img as binary PPM or PNG, chosen by the file extension.
func writeImage(path string, img *image.RGBA) (err error) {
	var encode func(io.Writer, *image.RGBA) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		encode = encodePPM
	case ".png":
		encode = func(w io.Writer, img *image.RGBA) error { return png.Encode(w, img) }
	default:
		return fmt.Errorf("write %s: unsupported extension, want .ppm or .png", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write %s: %w", path, cerr)
		}
	}()

	if err := encode(f, img); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// encodePPM writes a P6 image, top row first, dropping alpha.
func encodePPM(w io.Writer, img *image.RGBA) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			if _, err := bw.Write(row[i : i+3]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
