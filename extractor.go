package gridocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/rs/zerolog"

	"github.com/tsawler/gridocr/format"
	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

// ErrNoRecognizer is returned by terminal operations when no recognizer was
// configured with Recognizer.
var ErrNoRecognizer = errors.New("no recognizer configured")

// Extractor provides a fluent interface for extracting a grid table from an
// image. Each configuration method returns a new Extractor instance, making
// it safe to share a partially configured Extractor and allowing method
// chaining.
type Extractor struct {
	// Source
	filename string
	img      image.Image

	// Configuration
	options ExtractOptions
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		img:      e.img,
		options:  e.options.clone(),
	}
}

// RowHeight sets the height of every row in pixels.
func (e *Extractor) RowHeight(px int) *Extractor {
	newExt := e.clone()
	newExt.options.rowHeight = px
	return newExt
}

// Columns sets the column widths in pixels, left to right.
//
// Example:
//
//	table, err := gridocr.Open("scan.png").Columns(120, 80, 80).Recognizer(rec).Table(ctx)
func (e *Extractor) Columns(widths ...int) *Extractor {
	newExt := e.clone()
	newExt.options.colWidths = append([]int(nil), widths...)
	return newExt
}

// Recognizer sets the engine used to read each cell.
func (e *Extractor) Recognizer(rec ocr.Recognizer) *Extractor {
	newExt := e.clone()
	newExt.options.recognizer = rec
	return newExt
}

// Logger sets the logger for progress and per-cell failures.
func (e *Extractor) Logger(l zerolog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = l
	return newExt
}

// OnRow registers a callback run after each completed row.
func (e *Extractor) OnRow(fn func(row int, cells []model.Cell)) *Extractor {
	newExt := e.clone()
	newExt.options.onRow = fn
	return newExt
}

// Delimiter sets the field separator used by WriteCSV and WriteFile.
//
// Example:
//
//	err := gridocr.Open("scan.png").Recognizer(rec).Delimiter('\t').WriteFile(ctx, "scan.tsv")
func (e *Extractor) Delimiter(comma rune) *Extractor {
	newExt := e.clone()
	newExt.options.comma = comma
	return newExt
}

// loadImage decodes the source file unless an image was supplied.
func (e *Extractor) loadImage() (image.Image, error) {
	if e.img != nil {
		return e.img, nil
	}
	if e.filename == "" {
		return nil, fmt.Errorf("no image specified")
	}

	if f, err := format.DetectFile(e.filename); err == nil && f == format.PDF {
		return nil, fmt.Errorf("%s is a PDF; convert it to an image or use cloud OCR", e.filename)
	}
	img, _, err := imageio.Decode(e.filename)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Table runs the extraction and returns the table.
func (e *Extractor) Table(ctx context.Context) (*model.Table, error) {
	if e.options.recognizer == nil {
		return nil, ErrNoRecognizer
	}

	opts := []grid.Option{grid.WithLogger(e.options.logger)}
	if e.options.onRow != nil {
		opts = append(opts, grid.WithRowCallback(e.options.onRow))
	}
	ex, err := grid.NewExtractor(e.options.recognizer, e.options.rowHeight, e.options.colWidths, opts...)
	if err != nil {
		return nil, err
	}

	img, err := e.loadImage()
	if err != nil {
		return nil, err
	}

	table, err := ex.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	table.Source = e.filename
	return table, nil
}

// WriteCSV runs the extraction and writes the table to w. Nothing is
// written if extraction fails.
func (e *Extractor) WriteCSV(ctx context.Context, w io.Writer) error {
	table, err := e.Table(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, e.options.comma); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// WriteFile runs the extraction and writes the table to path. The file is
// only created once extraction has succeeded.
func (e *Extractor) WriteFile(ctx context.Context, path string) error {
	table, err := e.Table(ctx)
	if err != nil {
		return err
	}
	if err := table.WriteFile(path, e.options.comma); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	return nil
}
