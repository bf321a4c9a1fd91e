// Package split cuts tall images into horizontal bands.
//
// Long scans (receipts, ledgers, screenshots of spreadsheets) are often
// too tall for OCR engines or vision APIs to handle in one piece. Split
// divides such an image into full-width bands of a target height; the last
// band holds whatever is left and may be shorter.
package split

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/gridocr/internal/imageio"
)

// DefaultBandHeight is the target band height in pixels.
const DefaultBandHeight = 800

// ErrInvalidHeight is returned for a band height that is not positive.
var ErrInvalidHeight = errors.New("band height must be a positive integer")

// Band is one horizontal slice of an image.
type Band struct {
	Index  int
	Image  image.Image
	Bounds image.Rectangle // in the source image's coordinates
}

// Split divides img into bands of bandHeight rows.
func Split(img image.Image, bandHeight int) ([]Band, error) {
	if bandHeight <= 0 {
		return nil, ErrInvalidHeight
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}

	n := b.Dy() / bandHeight
	if b.Dy()%bandHeight != 0 {
		n++
	}
	bands := make([]Band, 0, n)
	for y := b.Min.Y; y < b.Max.Y; {
		end := b.Max.Y
		if bandHeight < b.Max.Y-y {
			end = y + bandHeight
		}
		r := image.Rect(b.Min.X, y, b.Max.X, end)
		bands = append(bands, Band{
			Index:  len(bands),
			Image:  imageio.Crop(img, r),
			Bounds: r,
		})
		y = end
	}
	return bands, nil
}

// FileName returns the file name used for band i.
func FileName(i int) string {
	return fmt.Sprintf("sub_image_%03d.png", i)
}

// SaveOption configures Save.
type SaveOption func(*saveConfig)

type saveConfig struct {
	workers int
	logger  zerolog.Logger
}

// WithWorkers limits how many bands are encoded at once.
func WithWorkers(n int) SaveOption {
	return func(c *saveConfig) { c.workers = n }
}

// WithLogger sets the logger used to report each written band.
func WithLogger(l zerolog.Logger) SaveOption {
	return func(c *saveConfig) { c.logger = l }
}

// Save writes each band to dir as a PNG, creating dir if needed. It returns
// the written paths in band order.
func Save(ctx context.Context, bands []Band, dir string, opts ...SaveOption) ([]string, error) {
	cfg := saveConfig{workers: runtime.NumCPU(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		cfg.logger.Info().Str("dir", dir).Msg("created output directory")
	}

	paths := make([]string, len(bands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for i, band := range bands {
		path := filepath.Join(dir, FileName(band.Index))
		paths[i] = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := imageio.Save(path, band.Image); err != nil {
				return err
			}
			b := band.Image.Bounds()
			cfg.logger.Info().
				Str("path", path).
				Int("width", b.Dx()).
				Int("height", b.Dy()).
				Msg("saved band")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// File splits the image at path into bands of bandHeight and saves them in
// dir.
func File(ctx context.Context, path, dir string, bandHeight int, opts ...SaveOption) ([]string, error) {
	if bandHeight <= 0 {
		return nil, ErrInvalidHeight
	}
	img, _, err := imageio.Decode(path)
	if err != nil {
		return nil, err
	}
	bands, err := Split(img, bandHeight)
	if err != nil {
		return nil, err
	}
	return Save(ctx, bands, dir, opts...)
}
