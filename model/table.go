package model

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CellStatus records how a cell's text was obtained
type CellStatus int

const (
	// CellRecognized means the text came from the recognizer.
	CellRecognized CellStatus = iota
	// CellEmpty means the crop had zero area and no recognition ran.
	CellEmpty
	// CellFailed means the recognizer returned an error or a malformed result.
	CellFailed
	// CellOutOfBounds means the column did not fit inside the image.
	CellOutOfBounds
)

// String returns the string representation of the status.
func (s CellStatus) String() string {
	switch s {
	case CellRecognized:
		return "recognized"
	case CellEmpty:
		return "empty"
	case CellFailed:
		return "failed"
	case CellOutOfBounds:
		return "out_of_bounds"
	default:
		return "unknown"
	}
}

// Cell represents a table cell
type Cell struct {
	Row    int // zero-based traversal row index
	Col    int // zero-based traversal column index
	Text   string
	BBox   BBox
	Status CellStatus
}

// Table represents a table with cells organized in rows and columns
type Table struct {
	Rows [][]Cell

	// Grid the table was cut with
	Source    string
	RowHeight int
	ColWidths []int
}

// NewTable creates an empty table for the given grid
func NewTable(source string, rowHeight int, colWidths []int) *Table {
	return &Table{
		Rows:      make([][]Cell, 0),
		Source:    source,
		RowHeight: rowHeight,
		ColWidths: append([]int(nil), colWidths...),
	}
}

// AppendRow appends a row of cells
func (t *Table) AppendRow(cells []Cell) {
	t.Rows = append(t.Rows, cells)
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of cells in the widest row
func (t *Table) ColCount() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// GetCell returns the cell at the given row and column (0-indexed)
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// Records returns the cell texts in row-major order
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = cell.Text
		}
		records[i] = rec
	}
	return records
}

// GetText returns the table as tab separated lines
func (t *Table) GetText() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			sb.WriteString(cell.Text)
			if j < len(row)-1 {
				sb.WriteString("\t")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteCSV writes one line per row with fields separated by comma. Fields
// containing the delimiter, a quote or a line break are quoted, as is the
// single field of a row whose only cell is empty.
func (t *Table) WriteCSV(w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	for _, rec := range t.Records() {
		// A lone empty field would otherwise come out as a blank line,
		// which readers skip.
		if len(rec) == 1 && rec[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			continue
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf, ','); err != nil {
		return ""
	}
	return buf.String()
}

// WriteFile persists the table as delimited text at path.
func (t *Table) WriteFile(path string, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := t.WriteCSV(f, comma); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// ToMarkdown converts the table to markdown format. The first row is used
// as the header and short rows are padded with empty cells.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	cols := t.ColCount()
	var sb strings.Builder

	writeRow := func(row []Cell) {
		for j := 0; j < cols; j++ {
			text := ""
			if j < len(row) {
				text = strings.ReplaceAll(row[j].Text, "\n", " ")
				text = strings.ReplaceAll(text, "|", "\\|")
			}
			sb.WriteString("| ")
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])

	// Separator
	for j := 0; j < cols; j++ {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")

	for i := 1; i < len(t.Rows); i++ {
		writeRow(t.Rows[i])
	}

	return sb.String()
}

// CountStatus returns how many cells carry the given status
func (t *Table) CountStatus(status CellStatus) int {
	n := 0
	for _, row := range t.Rows {
		for _, cell := range row {
			if cell.Status == status {
				n++
			}
		}
	}
	return n
}
