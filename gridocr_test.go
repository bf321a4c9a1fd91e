package gridocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

func stub(text string) ocr.Recognizer {
	return ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Result, error) {
		return []ocr.Result{{Text: text}}, nil
	})
}

func blank(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("nonexistent.png").Recognizer(stub("A")).Table(context.Background())
	if !errors.Is(err, imageio.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_PDFRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path).Recognizer(stub("A")).Table(context.Background())
	if err == nil || !strings.Contains(err.Error(), "PDF") {
		t.Errorf("expected PDF error, got %v", err)
	}
}

func TestTable_NoRecognizer(t *testing.T) {
	_, err := FromImage(blank(10, 10)).Table(context.Background())
	if !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("expected ErrNoRecognizer, got %v", err)
	}
}

func TestTable_Defaults(t *testing.T) {
	// 9 default columns of about 81px each need 730px; 48px gives two rows.
	table, err := FromImage(blank(730, 48)).Recognizer(stub("x")).Table(context.Background())
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if table.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", table.RowCount())
	}
	if table.ColCount() != len(grid.DefaultColumnWidths) {
		t.Errorf("ColCount() = %d, want %d", table.ColCount(), len(grid.DefaultColumnWidths))
	}
}

func TestTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	if err := imageio.Save(path, blank(100, 50)); err != nil {
		t.Fatal(err)
	}

	table, err := Open(path).Recognizer(stub("A")).RowHeight(25).Columns(50, 50).Table(context.Background())
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if table.Source != path {
		t.Errorf("Source = %q, want %q", table.Source, path)
	}
	if got := table.ToCSV(); got != "A,A\nA,A\n" {
		t.Errorf("ToCSV() = %q", got)
	}
}

func TestWriteCSV_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	err := FromImage(blank(100, 25)).
		Recognizer(stub("A")).
		RowHeight(25).
		Columns(60, 60).
		Delimiter('\t').
		WriteCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := buf.String(); got != "A\t<OUT_OF_BOUNDS>\n" {
		t.Errorf("WriteCSV() = %q", got)
	}
}

func TestWriteFile_NoOutputOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := FromImage(blank(100, 25)).Recognizer(stub("A")).Columns(0, 10).WriteFile(context.Background(), path)
	if !errors.Is(err, grid.ErrInvalidGrid) {
		t.Fatalf("expected ErrInvalidGrid, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after a failed extraction")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := FromImage(blank(50, 25)).Recognizer(stub("中文")).RowHeight(25).Columns(50).WriteFile(context.Background(), path)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "中文\n" {
		t.Errorf("file = %q", data)
	}
}

func TestOnRow(t *testing.T) {
	var rows []int
	_, err := FromImage(blank(20, 30)).
		Recognizer(stub("A")).
		RowHeight(10).
		Columns(20).
		OnRow(func(row int, cells []model.Cell) { rows = append(rows, row) }).
		Table(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0] != 0 || rows[2] != 2 {
		t.Errorf("OnRow rows = %v, want [0 1 2]", rows)
	}
}

func TestChainImmutability(t *testing.T) {
	base := FromImage(blank(10, 10))

	withCols := base.Columns(5, 5)
	withOther := base.Columns(3)
	taller := withCols.RowHeight(40)

	if len(base.options.colWidths) != len(grid.DefaultColumnWidths) {
		t.Error("base extractor should keep default columns")
	}
	if len(withCols.options.colWidths) != 2 || len(withOther.options.colWidths) != 1 {
		t.Error("derived extractors should be independent")
	}
	if withCols.options.rowHeight != grid.DefaultRowHeight || taller.options.rowHeight != 40 {
		t.Error("RowHeight should not modify its receiver")
	}

	widths := []int{7, 8}
	fromSlice := base.Columns(widths...)
	widths[0] = 99
	if fromSlice.options.colWidths[0] != 7 {
		t.Error("Columns should copy its argument")
	}
}

func TestMust(t *testing.T) {
	// Test Must with successful result
	result := Must("hello", nil)
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}

	// Test Must with error (should panic)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Must to panic on error")
		}
	}()
	Must("", os.ErrNotExist)
}
