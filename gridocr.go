// Package gridocr provides a fluent API for reading fixed-grid tables out of
// images.
//
// Basic usage:
//
//	rec, err := ocr.New(ocr.WithLanguages("eng"))
//	if err != nil {
//	    // handle error
//	}
//	defer rec.Close()
//
//	err = gridocr.Open("ledger.png").
//	    Recognizer(rec).
//	    WriteFile(ctx, "ledger.csv")
//
// With options:
//
//	table, err := gridocr.Open("ledger.png").
//	    Recognizer(rec).
//	    RowHeight(30).
//	    Columns(120, 80, 80, 80).
//	    Table(ctx)
//
// For finer control, the grid package exposes the Extractor directly.
package gridocr

import (
	"image"
)

// Open returns an Extractor for the image file at filename. The file is
// read when a terminal operation such as Table runs.
//
// Example:
//
//	table, err := gridocr.Open("scan.png").Recognizer(rec).Table(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromImage returns an Extractor for an already-decoded image.
//
// Example:
//
//	img, _, _ := image.Decode(f)
//	table, err := gridocr.FromImage(img).Recognizer(rec).Table(ctx)
func FromImage(img image.Image) *Extractor {
	return &Extractor{
		img:     img,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	table := gridocr.Must(gridocr.Open("scan.png").Recognizer(rec).Table(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
