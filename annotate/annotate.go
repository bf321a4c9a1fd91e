// Package annotate draws recognition results onto a copy of an image so
// the detected regions can be inspected by eye.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/ocr"
)

// Option configures Draw.
type Option func(*config)

type config struct {
	color  color.Color
	stroke int
	labels bool
}

// WithColor sets the outline and label background color. Default is red.
func WithColor(c color.Color) Option {
	return func(cfg *config) { cfg.color = c }
}

// WithStroke sets the outline thickness in pixels. Default is 2.
func WithStroke(px int) Option {
	return func(cfg *config) { cfg.stroke = px }
}

// WithLabels turns the "text (confidence)" labels on or off. Default is on.
// The bitmap font only covers ASCII; other runes render as boxes.
func WithLabels(on bool) Option {
	return func(cfg *config) { cfg.labels = on }
}

// Draw returns an RGBA copy of img with every result region outlined.
// Regions are interpreted in img's coordinate space.
func Draw(img image.Image, results []ocr.Result, opts ...Option) *image.RGBA {
	cfg := config{color: color.RGBA{R: 255, A: 255}, stroke: 2, labels: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stroke < 1 {
		cfg.stroke = 1
	}

	dst := imageio.ToRGBA(img)
	origin := img.Bounds().Min
	src := image.NewUniform(cfg.color)

	for _, r := range results {
		rect := r.Region.Rect().Sub(origin).Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}
		outline(dst, rect, src, cfg.stroke)
		if cfg.labels {
			label(dst, rect, src, Label(r))
		}
	}
	return dst
}

// Label returns the caption drawn next to a result.
func Label(r ocr.Result) string {
	if r.Confidence == 0 {
		return r.Text
	}
	return fmt.Sprintf("%s (%.2f)", r.Text, r.Confidence)
}

func outline(dst *image.RGBA, r image.Rectangle, src image.Image, stroke int) {
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, s := range sides {
		draw.Draw(dst, s.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// label draws text in white on a filled strip above r, or inside r when
// there is no room above.
func label(dst *image.RGBA, r image.Rectangle, bg image.Image, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	width := font.MeasureString(face, text).Ceil()

	top := r.Min.Y - height
	if top < dst.Bounds().Min.Y {
		top = r.Min.Y
	}
	box := image.Rect(r.Min.X, top, r.Min.X+width+2, top+height).Intersect(dst.Bounds())
	draw.Draw(dst, box, bg, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(r.Min.X+1, top+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}
