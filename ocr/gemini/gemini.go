// Package gemini recognizes text with a Gemini vision model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/internal/textnorm"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// Prompt is sent with every image.
const Prompt = "Transcribe all text in this image exactly as written, one line of output per line of text. " +
	"Output only the text. If the image contains no text, output nothing."

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("missing Gemini API key")

// Config configures a Recognizer.
type Config struct {
	APIKey string
	Model  string
}

// Recognizer implements ocr.Recognizer on top of a Gemini model.
type Recognizer struct {
	client    *genai.Client
	modelName string
}

// New dials the Gemini API. Call Close when done.
func New(ctx context.Context, cfg Config) (*Recognizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Recognizer{client: cl, modelName: name}, nil
}

// Close releases the underlying client.
func (r *Recognizer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Recognize sends img as PNG and returns one result per non-empty output
// line. Regions cover the whole image and confidence is not reported.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Result, error) {
	data, err := imageio.PNG(img)
	if err != nil {
		return nil, err
	}

	m := r.client.GenerativeModel(r.modelName)
	m.SetTemperature(0)

	resp, err := m.GenerateContent(ctx, genai.ImageData("png", data), genai.Text(Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return toResults(responseText(resp), model.BBoxFromRect(img.Bounds())), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func toResults(text string, region model.BBox) []ocr.Result {
	text = strings.TrimSpace(text)
	// Models sometimes wrap the answer in a code fence.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var results []ocr.Result
	for _, line := range textnorm.Lines(text) {
		results = append(results, ocr.Result{Region: region, Text: line})
	}
	return results
}
