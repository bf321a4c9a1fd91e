package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

func white(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestDraw_Outline(t *testing.T) {
	src := white(100, 60)
	results := []ocr.Result{{Region: model.NewBBox(20, 30, 40, 20), Text: "x"}}

	out := Draw(src, results, WithLabels(false), WithStroke(1))

	red := color.RGBA{R: 255, A: 255}
	if got := out.RGBAAt(20, 30); got != red {
		t.Errorf("corner pixel = %+v, want red", got)
	}
	if got := out.RGBAAt(59, 49); got != red {
		t.Errorf("opposite corner pixel = %+v, want red", got)
	}
	if got := out.RGBAAt(40, 40); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("interior pixel = %+v, want white", got)
	}
	if got := src.RGBAAt(20, 30); got != (color.RGBA{255, 255, 255, 255}) {
		t.Error("Draw must not modify the source image")
	}
}

func TestDraw_Labels(t *testing.T) {
	src := white(200, 60)
	results := []ocr.Result{{Region: model.NewBBox(10, 30, 80, 20), Text: "Total", Confidence: 0.87}}

	out := Draw(src, results, WithColor(color.RGBA{B: 255, A: 255}))

	// The label strip sits above the box and is filled with the box color.
	if got := out.RGBAAt(10, 20); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("label background pixel = %+v, want blue", got)
	}
}

func TestDraw_NonZeroOrigin(t *testing.T) {
	base := white(100, 100)
	sub := base.SubImage(image.Rect(50, 50, 100, 100))
	results := []ocr.Result{{Region: model.NewBBox(60, 60, 10, 10)}}

	out := Draw(sub, results, WithLabels(false), WithStroke(1))
	if out.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(10, 10); got.G != 0 {
		t.Errorf("shifted corner pixel = %+v, want red", got)
	}
}

func TestDraw_SkipsOutsideAndEmpty(t *testing.T) {
	src := white(10, 10)
	results := []ocr.Result{
		{Region: model.NewBBox(50, 50, 5, 5)},
		{Region: model.NewBBox(2, 2, 0, 0)},
	}
	out := Draw(src, results)
	for i, p := range out.Pix {
		if p != 255 {
			t.Fatalf("pixel byte %d changed to %d", i, p)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label(ocr.Result{Text: "abc"}); got != "abc" {
		t.Errorf("Label() = %q", got)
	}
	if got := Label(ocr.Result{Text: "abc", Confidence: 0.934}); got != "abc (0.93)" {
		t.Errorf("Label() = %q", got)
	}
}
