//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/internal/textnorm"
	"github.com/tsawler/gridocr/model"
)

// Client wraps Tesseract for OCR operations. A Client is not safe for
// concurrent use.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New(opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	client := gosseract.NewClient()

	if len(o.languages) > 0 {
		if err := client.SetLanguage(o.languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	if o.hasPSM {
		if err := client.SetPageSegMode(gosseract.PageSegMode(o.pageSegMode)); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage performs OCR on image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Recognize performs OCR on img and returns one Result per text line.
func (c *Client) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := imageio.PNG(img)
	if err != nil {
		return nil, err
	}
	if err := c.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	// The encoded PNG starts at (0,0); shift boxes back into img's space.
	offset := img.Bounds().Min
	results := make([]Result, 0, len(boxes))
	for _, b := range boxes {
		text := textnorm.Line(b.Word)
		if text == "" {
			continue
		}
		results = append(results, Result{
			Region:     model.BBoxFromRect(b.Box.Add(offset)),
			Text:       text,
			Confidence: clampConfidence(b.Confidence / 100),
		})
	}
	return results, nil
}

// SetLanguage sets the language(s) for OCR recognition.
// Multiple languages can be given (e.g., "eng", "fra").
func (c *Client) SetLanguage(langs ...string) error {
	return c.client.SetLanguage(langs...)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
