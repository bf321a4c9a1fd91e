package gridocr

import (
	"github.com/rs/zerolog"

	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

// ExtractOptions holds configuration for grid extraction.
type ExtractOptions struct {
	// Grid geometry
	rowHeight int
	colWidths []int

	// Recognition
	recognizer ocr.Recognizer

	// Output
	comma rune

	// Observation
	logger zerolog.Logger
	onRow  func(row int, cells []model.Cell)
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		rowHeight: grid.DefaultRowHeight,
		colWidths: append([]int(nil), grid.DefaultColumnWidths...),
		comma:     ',',
		logger:    zerolog.Nop(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o

	// Deep copy widths slice
	if o.colWidths != nil {
		newOpts.colWidths = make([]int, len(o.colWidths))
		copy(newOpts.colWidths, o.colWidths)
	}

	return newOpts
}
