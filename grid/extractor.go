package grid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

// Sentinel cell values written in place of recognized text.
const (
	OutOfBounds      = "<OUT_OF_BOUNDS>"
	RecognitionError = "<OCR_ERROR>"
)

// DefaultRowHeight is the row height used when none is configured.
const DefaultRowHeight = 24

// DefaultColumnWidths is the 9-column profile used when none is configured.
var DefaultColumnWidths = []int{81, 80, 82, 80, 82, 81, 81, 81, 82}

var (
	// ErrInvalidGrid is returned for a non-positive row height or column width.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrInvalidImage is returned for an image without pixels.
	ErrInvalidImage = errors.New("invalid image")
)

// Extractor cuts an image into a fixed grid and recognizes every cell.
// It is not safe for concurrent use when the recognizer is not.
type Extractor struct {
	rec       ocr.Recognizer
	rowHeight int
	colWidths []int
	logger    zerolog.Logger
	onRow     func(row int, cells []model.Cell)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for progress and per-cell failures.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithRowCallback registers fn to be called after each row is complete.
func WithRowCallback(fn func(row int, cells []model.Cell)) Option {
	return func(e *Extractor) { e.onRow = fn }
}

// NewExtractor validates the grid and returns an Extractor that recognizes
// cells with rec.
func NewExtractor(rec ocr.Recognizer, rowHeight int, colWidths []int, opts ...Option) (*Extractor, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: recognizer is nil", ErrInvalidGrid)
	}
	if rowHeight <= 0 {
		return nil, fmt.Errorf("%w: row height %d must be positive", ErrInvalidGrid, rowHeight)
	}
	if len(colWidths) == 0 {
		return nil, fmt.Errorf("%w: no column widths", ErrInvalidGrid)
	}
	for i, w := range colWidths {
		if w <= 0 {
			return nil, fmt.Errorf("%w: column %d width %d must be positive", ErrInvalidGrid, i, w)
		}
	}

	e := &Extractor{
		rec:       rec,
		rowHeight: rowHeight,
		colWidths: append([]int(nil), colWidths...),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RowCount returns the number of complete rows of rowHeight that fit in
// imageHeight. A trailing strip shorter than one row is not counted.
func RowCount(imageHeight, rowHeight int) int {
	if rowHeight <= 0 || imageHeight <= 0 {
		return 0
	}
	return imageHeight / rowHeight
}

// Extract walks the grid top to bottom and left to right and returns the
// recognized table.
//
// A column that does not fit inside the image width is recorded as
// OutOfBounds and ends its row; the row is kept. A recognizer failure is
// recorded as RecognitionError and traversal continues. The context is
// checked between rows.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*model.Table, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, width, height)
	}

	e.logger.Info().
		Int("width", width).
		Int("height", height).
		Int("row_height", e.rowHeight).
		Ints("col_widths", e.colWidths).
		Msg("extracting grid")

	table := model.NewTable("", e.rowHeight, e.colWidths)

	for y, row := 0, 0; e.rowHeight <= height-y; y, row = y+e.rowHeight, row+1 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction stopped at row %d: %w", row, err)
		}

		cells := make([]model.Cell, 0, len(e.colWidths))
		x := 0
		for col, w := range e.colWidths {
			if w > width-x {
				cells = append(cells, model.Cell{
					Row:    row,
					Col:    col,
					Text:   OutOfBounds,
					BBox:   model.NewBBox(float64(x), float64(y), float64(w), float64(e.rowHeight)),
					Status: model.CellOutOfBounds,
				})
				break
			}

			rect := image.Rect(x, y, x+w, y+e.rowHeight).Add(bounds.Min)
			cells = append(cells, e.recognizeCell(ctx, img, rect, row, col))
			x += w
		}

		table.AppendRow(cells)
		if e.onRow != nil {
			e.onRow(row, cells)
		}
		if (row+1)%10 == 0 {
			e.logger.Debug().Int("rows", row+1).Msg("processed rows")
		}
	}

	e.logger.Info().
		Int("rows", table.RowCount()).
		Int("failed_cells", table.CountStatus(model.CellFailed)).
		Msg("finished grid extraction")

	return table, nil
}

func (e *Extractor) recognizeCell(ctx context.Context, img image.Image, rect image.Rectangle, row, col int) model.Cell {
	cell := model.Cell{
		Row:  row,
		Col:  col,
		BBox: model.BBoxFromRect(rect.Sub(img.Bounds().Min)),
	}

	crop := imageio.Crop(img, rect)
	if crop.Bounds().Empty() {
		e.logger.Warn().Int("row", row).Int("col", col).Msg("empty cell crop")
		cell.Status = model.CellEmpty
		return cell
	}

	results, err := e.rec.Recognize(ctx, crop)
	if err == nil {
		err = ocr.Validate(results)
	}
	if err != nil {
		e.logger.Warn().
			Err(err).
			Int("row", row).
			Int("col", col).
			Int("x", rect.Min.X).
			Int("y", rect.Min.Y).
			Msg("cell recognition failed")
		cell.Text = RecognitionError
		cell.Status = model.CellFailed
		return cell
	}

	cell.Text = ocr.JoinText(results)
	cell.Status = model.CellRecognized
	return cell
}

// ParseColumnWidths parses a comma separated list of positive integers such
// as "81,80,82". Blank entries between commas are ignored.
func ParseColumnWidths(s string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: column width %q is not an integer", ErrInvalidGrid, part)
		}
		if w <= 0 {
			return nil, fmt.Errorf("%w: column width %d must be positive", ErrInvalidGrid, w)
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 {
		return nil, fmt.Errorf("%w: column widths cannot be empty", ErrInvalidGrid)
	}
	return widths, nil
}

// FormatColumnWidths is the inverse of ParseColumnWidths.
func FormatColumnWidths(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}
