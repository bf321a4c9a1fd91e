// Package ocr defines the text recognition capability used by the grid
// extractor and the command line tools, and provides a Tesseract-backed
// implementation of it.
//
// Recognizers are plain values owned by the caller. Create one, pass it to
// whatever needs it, and close it when done:
//
//	client, err := ocr.New(ocr.WithLanguages("eng"))
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
//	results, err := client.Recognize(ctx, img)
//
// The Tesseract client requires the "ocr" build tag and a system
// installation of Tesseract. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/gridocr/model"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// ErrInvalidResult is returned by Validate when a recognizer produced a
// result that does not have the expected shape.
var ErrInvalidResult = errors.New("invalid recognition result")

// Result is one piece of recognized text.
type Result struct {
	// Region is where the text was found, in the coordinate space of the
	// image passed to Recognize.
	Region model.BBox

	Text string

	// Confidence is in [0, 1]. Zero means the engine did not report one.
	Confidence float64
}

// Recognizer recognizes text in an image. Results are returned in the
// engine's reading order.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Result, error)
}

// RecognizerFunc adapts an ordinary function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) ([]Result, error)

// Recognize calls f(ctx, img).
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	return f(ctx, img)
}

// Validate checks every result and returns an error wrapping
// ErrInvalidResult for the first malformed one.
func Validate(results []Result) error {
	for i, r := range results {
		if !utf8.ValidString(r.Text) {
			return fmt.Errorf("%w: result %d: text is not valid UTF-8", ErrInvalidResult, i)
		}
		if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("%w: result %d: confidence %v outside [0,1]", ErrInvalidResult, i, r.Confidence)
		}
		if !r.Region.IsFinite() || r.Region.Width < 0 || r.Region.Height < 0 {
			return fmt.Errorf("%w: result %d: bad region %+v", ErrInvalidResult, i, r.Region)
		}
	}
	return nil
}

// JoinText concatenates the text of every result in order, separated by a
// single space.
func JoinText(results []Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}
	return strings.Join(parts, " ")
}

// PageSegMode represents page segmentation modes for OCR.
// These control how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes (matching Tesseract's numbering).
const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

// Option configures a Client.
type Option func(*options)

type options struct {
	languages   []string
	pageSegMode PageSegMode
	hasPSM      bool
}

// WithLanguages sets the Tesseract languages, e.g. "eng" or "chi_sim".
// Default is "eng" (English).
func WithLanguages(langs ...string) Option {
	return func(o *options) { o.languages = append([]string(nil), langs...) }
}

// WithPageSegMode sets the page segmentation mode. Table cells usually
// recognize best with PSM_SINGLE_LINE or PSM_SINGLE_BLOCK.
func WithPageSegMode(mode PageSegMode) Option {
	return func(o *options) {
		o.pageSegMode = mode
		o.hasPSM = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
