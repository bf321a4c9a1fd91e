// Package format provides input format detection for gridocr.
package format

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PNG indicates a PNG image.
	PNG
	// JPEG indicates a JPEG image.
	JPEG
	// GIF indicates a GIF image.
	GIF
	// BMP indicates a Windows bitmap.
	BMP
	// TIFF indicates a TIFF image.
	TIFF
	// WEBP indicates a WebP image.
	WEBP
	// PDF indicates a PDF document. PDFs can only be sent to cloud OCR.
	PDF
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case GIF:
		return "GIF"
	case BMP:
		return "BMP"
	case TIFF:
		return "TIFF"
	case WEBP:
		return "WEBP"
	case PDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case GIF:
		return ".gif"
	case BMP:
		return ".bmp"
	case TIFF:
		return ".tiff"
	case WEBP:
		return ".webp"
	case PDF:
		return ".pdf"
	default:
		return ""
	}
}

// MIMEType returns the media type for the format, or
// "application/octet-stream" when unknown.
func (f Format) MIMEType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	case WEBP:
		return "image/webp"
	case PDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether the format is a raster image.
func (f Format) IsImage() bool {
	return f >= PNG && f <= WEBP
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return PNG
	case ".jpg", ".jpeg", ".jpe":
		return JPEG
	case ".gif":
		return GIF
	case ".bmp", ".dib":
		return BMP
	case ".tif", ".tiff":
		return TIFF
	case ".webp":
		return WEBP
	case ".pdf":
		return PDF
	default:
		return Unknown
	}
}

var (
	magicPNG      = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG     = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87    = []byte("GIF87a")
	magicGIF89    = []byte("GIF89a")
	magicBMP      = []byte("BM")
	magicTIFFLE   = []byte("II*\x00")
	magicTIFFBE   = []byte("MM\x00*")
	magicRIFF     = []byte("RIFF")
	magicWEBP     = []byte("WEBP")
	magicPDF      = []byte("%PDF-")
	headerMaxSize = 512
)

// DetectFromMagic checks file magic bytes to determine format.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicPNG):
		return PNG
	case bytes.HasPrefix(data, magicJPEG):
		return JPEG
	case bytes.HasPrefix(data, magicGIF87), bytes.HasPrefix(data, magicGIF89):
		return GIF
	case bytes.HasPrefix(data, magicTIFFLE), bytes.HasPrefix(data, magicTIFFBE):
		return TIFF
	case len(data) >= 12 && bytes.HasPrefix(data, magicRIFF) && bytes.Equal(data[8:12], magicWEBP):
		return WEBP
	case bytes.HasPrefix(data, magicPDF):
		return PDF
	// "BM" is short enough to collide with text; require the header size.
	case len(data) >= 14 && bytes.HasPrefix(data, magicBMP):
		return BMP
	}
	return Unknown
}

// DetectFromReader reads the start of r and detects its format from the
// magic bytes.
func DetectFromReader(r io.Reader) (Format, error) {
	header := make([]byte, headerMaxSize)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown, err
	}
	return DetectFromMagic(header[:n]), nil
}

// DetectFile detects the format of the file at path from its content,
// falling back to the extension when the content is not recognized.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	got, err := DetectFromReader(f)
	if err != nil {
		return Unknown, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if got == Unknown {
		got = Detect(path)
	}
	return got, nil
}
