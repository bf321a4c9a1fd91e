// Package grid extracts a table from an image laid out on a fixed grid.
//
// The caller supplies a row height and an ordered list of column widths.
// Rows are cut from the top of the image downward and cells from left to
// right; each cell is passed to an [ocr.Recognizer] and the recognized
// fragments are joined with single spaces:
//
//	ex, err := grid.NewExtractor(rec, 24, []int{81, 80, 82})
//	if err != nil {
//	    // handle error
//	}
//	table, err := ex.Extract(ctx, img)
//
// A strip at the bottom shorter than one row is never processed. A column
// that would extend past the right edge is recorded as [OutOfBounds] and
// ends its row. A cell whose recognition fails is recorded as
// [RecognitionError]; other cells are unaffected and nothing is retried.
//
// Traversal is sequential. Recognizers such as the Tesseract client hold
// per-call state and are called from a single goroutine.
package grid
