//go:build !ocr

package ocr

import (
	"context"
	"image"
)

// Client is a stub OCR client that returns errors for all operations.
// To enable OCR, rebuild with: go build -tags ocr
type Client struct{}

// New returns an error indicating OCR support is not enabled.
func New(opts ...Option) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op for the stub client.
// It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage returns an error indicating OCR support is not enabled.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// Recognize returns an error indicating OCR support is not enabled.
func (c *Client) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	return nil, ErrOCRNotEnabled
}

// SetLanguage returns an error indicating OCR support is not enabled.
func (c *Client) SetLanguage(langs ...string) error {
	return ErrOCRNotEnabled
}

// SetPageSegMode returns an error indicating OCR support is not enabled.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return ErrOCRNotEnabled
}
