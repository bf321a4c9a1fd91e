// Package mistral is a client for the Mistral OCR API.
//
// It covers the three calls needed to OCR local files: inline images sent as
// data URLs, PDF upload with a signed download URL, and document OCR. The
// Client also implements ocr.Recognizer so it can be used as a grid cell
// backend.
package mistral

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/internal/textnorm"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

const (
	// DefaultModel is the OCR model used when Config.Model is empty.
	DefaultModel = "mistral-ocr-latest"
	// DefaultBaseURL is the API root used when Config.BaseURL is empty.
	DefaultBaseURL = "https://api.mistral.ai"

	maxErrorBody = 64 << 10
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("missing Mistral API key")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mistral api error %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client

	// RequestsPerSecond limits outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Page is one page of an OCR response.
type Page struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Response is the body returned by the OCR endpoint.
type Response struct {
	Model string `json:"model"`
	Pages []Page `json:"pages"`
}

// Markdown returns the markdown of every page joined by blank lines.
func (r *Response) Markdown() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		parts = append(parts, p.Markdown)
	}
	return strings.Join(parts, "\n\n")
}

// Client talks to the Mistral API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a Client for cfg.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 2 * time.Minute}
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// Model returns the OCR model name sent with each request.
func (c *Client) Model() string { return c.model }

type document struct {
	Type        string `json:"type"`
	ImageURL    string `json:"image_url,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

type ocrRequest struct {
	Model    string   `json:"model"`
	Document document `json:"document"`
}

// ProcessImage OCRs an encoded image sent inline as a base64 data URL.
func (c *Client) ProcessImage(ctx context.Context, data []byte, mimeType string) (*Response, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return c.process(ctx, document{Type: "image_url", ImageURL: dataURL})
}

// ProcessDocumentURL OCRs a document the API can download from url.
func (c *Client) ProcessDocumentURL(ctx context.Context, url string) (*Response, error) {
	return c.process(ctx, document{Type: "document_url", DocumentURL: url})
}

func (c *Client) process(ctx context.Context, doc document) (*Response, error) {
	body, err := json.Marshal(ocrRequest{Model: c.model, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}

	var parsed Response
	if err := c.do(ctx, http.MethodPost, "/v1/ocr", "application/json", bytes.NewReader(body), &parsed); err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	return &parsed, nil
}

// File describes an uploaded file.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

// UploadFile uploads r under name for OCR use.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	var f File
	if err := c.do(ctx, http.MethodPost, "/v1/files", mw.FormDataContentType(), &buf, &f); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("upload %s: response has no file id", name)
	}
	return &f, nil
}

// SignedURL returns a temporary download URL for an uploaded file.
func (c *Client) SignedURL(ctx context.Context, fileID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/v1/files/" + url.PathEscape(fileID) + "/url"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return "", fmt.Errorf("signed url for %s: %w", fileID, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("signed url for %s: empty url", fileID)
	}
	return out.URL, nil
}

// ProcessPDF uploads a PDF and OCRs it through its signed URL.
func (c *Client) ProcessPDF(ctx context.Context, name string, r io.Reader) (*Response, error) {
	f, err := c.UploadFile(ctx, name, r)
	if err != nil {
		return nil, err
	}
	u, err := c.SignedURL(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	return c.ProcessDocumentURL(ctx, u)
}

var imageRef = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)

// Recognize implements ocr.Recognizer. Each non-empty markdown line becomes
// one result covering the whole image. The API reports no confidence, so
// Confidence is zero.
func (c *Client) Recognize(ctx context.Context, img image.Image) ([]ocr.Result, error) {
	data, err := imageio.PNG(img)
	if err != nil {
		return nil, err
	}
	resp, err := c.ProcessImage(ctx, data, "image/png")
	if err != nil {
		return nil, err
	}

	region := model.BBoxFromRect(img.Bounds())
	var results []ocr.Result
	for _, line := range textnorm.Lines(imageRef.ReplaceAllString(resp.Markdown(), "")) {
		results = append(results, ocr.Result{Region: region, Text: line})
	}
	return results, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(slurp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
