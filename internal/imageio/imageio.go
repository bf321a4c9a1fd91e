// Package imageio decodes, crops and encodes raster images.
//
// Importing the package registers decoders for PNG, JPEG, GIF, BMP, TIFF
// and WebP with the standard image package.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotFound is returned when the input path does not exist.
var ErrNotFound = errors.New("image not found")

// ErrUnsupported is returned when no registered decoder or encoder matches.
var ErrUnsupported = errors.New("unsupported image format")

// Decode reads and decodes the image at path. It returns the decoded image
// and the name of the format that decoded it.
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, name, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, "", fmt.Errorf("image %s has no pixels (%dx%d)", path, b.Dx(), b.Dy())
	}
	return img, name, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, string, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, name, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the part of img inside r. The result shares pixels with img
// when the concrete image type supports SubImage; otherwise the pixels are
// copied into a new RGBA image. Rectangles are clipped to the image bounds,
// so the result may be empty.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}

// ToRGBA returns a mutable RGBA copy of img with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// PNG encodes img as PNG bytes.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode writes img to w in the format named by ext (".png", ".jpg",
// ".jpeg", ".gif", ".bmp", ".tif", ".tiff").
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".gif":
		return gif.Encode(w, img, nil)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Save encodes img to path, choosing the format from the file extension.
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
