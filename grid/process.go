package grid

import (
	"context"
	"fmt"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

// Process decodes the image at imagePath, extracts its grid and writes the
// table to outputPath as delimited text. The table is kept in memory until
// the end and written once; a failed write loses it.
func Process(ctx context.Context, rec ocr.Recognizer, imagePath, outputPath string, rowHeight int, colWidths []int, comma rune, opts ...Option) (*model.Table, error) {
	ex, err := NewExtractor(rec, rowHeight, colWidths, opts...)
	if err != nil {
		return nil, err
	}

	img, _, err := imageio.Decode(imagePath)
	if err != nil {
		return nil, err
	}

	table, err := ex.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	table.Source = imagePath

	if err := table.WriteFile(outputPath, comma); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}
	return table, nil
}
