package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/gridocr/config"
	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
	"github.com/tsawler/gridocr/ocr"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GRIDOCR_ROW_HEIGHT", "GRIDOCR_COL_WIDTHS", "GRIDOCR_ENGINE", "GRIDOCR_LANG",
		"MISTRAL_API_KEY", "MISTRAL_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

// stubEngine replaces the recognizer factory for the duration of a test.
func stubEngine(t *testing.T, rec ocr.Recognizer) *int {
	t.Helper()
	calls := 0
	orig := newRecognizer
	newRecognizer = func(context.Context, *config.Config, zerolog.Logger) (ocr.Recognizer, io.Closer, error) {
		calls++
		return rec, nopCloser{}, nil
	}
	t.Cleanup(func() { newRecognizer = orig })
	return &calls
}

func constant(text string) ocr.Recognizer {
	return ocr.RecognizerFunc(func(_ context.Context, img image.Image) ([]ocr.Result, error) {
		return []ocr.Result{{Region: model.BBoxFromRect(img.Bounds()), Text: text, Confidence: 0.9}}, nil
	})
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.Black)
	path := filepath.Join(dir, "in.png")
	require.NoError(t, imageio.Save(path, img))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", "", "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGrid_WritesCSV(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 50)
	out := filepath.Join(dir, "out.csv")

	_, _, err := run(t, "grid", in, out, "--row-height", "25", "--col-widths", "50,50", "--no-progress")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A,A\nA,A\n", string(data))
}

func TestGrid_OutOfBoundsColumn(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 50)
	out := filepath.Join(dir, "out.csv")

	_, _, err := run(t, "grid", in, out, "--row-height", "25", "--col-widths", "60,60")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A,<OUT_OF_BOUNDS>\nA,<OUT_OF_BOUNDS>\n", string(data))
}

func TestGrid_PartialTrailingRowIgnored(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 30)
	out := filepath.Join(dir, "out.csv")

	_, _, err := run(t, "grid", in, out, "--row-height", "25", "--col-widths", "50,50", "--no-progress")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A,A\n", string(data))
}

func TestGrid_InvalidWidthsFailBeforeProcessing(t *testing.T) {
	isolateEnv(t)
	calls := stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 50)

	for _, widths := range []string{"80,abc", "", "0,10", "-5"} {
		t.Run(widths, func(t *testing.T) {
			out := filepath.Join(dir, "out.csv")
			_, _, err := run(t, "grid", in, out, "--col-widths="+widths)
			require.Error(t, err)
			assert.NoFileExists(t, out)
		})
	}
	assert.Zero(t, *calls, "recognizer must not be started for invalid widths")
}

func TestGrid_InvalidRowHeightFailsBeforeProcessing(t *testing.T) {
	isolateEnv(t)
	calls := stubEngine(t, constant("A"))
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	for _, h := range []string{"0", "-24"} {
		t.Run(h, func(t *testing.T) {
			// The image does not exist: the row height must be rejected first.
			_, _, err := run(t, "grid", filepath.Join(dir, "nope.png"), out, "--row-height="+h)
			require.Error(t, err)
			assert.ErrorIs(t, err, grid.ErrInvalidGrid)
			assert.NotErrorIs(t, err, imageio.ErrNotFound)
			assert.NoFileExists(t, out)
		})
	}
	assert.Zero(t, *calls, "recognizer must not be started for an invalid row height")
}

func TestGrid_MissingImage(t *testing.T) {
	isolateEnv(t)
	calls := stubEngine(t, constant("A"))
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	_, _, err := run(t, "grid", filepath.Join(dir, "nope.png"), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, imageio.ErrNotFound)
	assert.NoFileExists(t, out)
	assert.Zero(t, *calls)
}

func TestGrid_FailedCellsAndDelimiter(t *testing.T) {
	isolateEnv(t)
	n := 0
	stubEngine(t, ocr.RecognizerFunc(func(_ context.Context, img image.Image) ([]ocr.Result, error) {
		n++
		if n == 2 {
			return nil, errors.New("engine crashed")
		}
		return []ocr.Result{{Text: "x;y"}}, nil
	}))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 25)
	out := filepath.Join(dir, "out.csv")

	_, stderr, err := run(t, "grid", in, out, "--row-height", "25", "--col-widths", "50,50", "--delimiter", ";", "--no-progress")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\"x;y\";<OCR_ERROR>\n", string(data))
	assert.Contains(t, stderr, "1 cells could not be recognized")
}

func TestGrid_Markdown(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 100, 25)

	stdout, _, err := run(t, "grid", in, filepath.Join(dir, "o.csv"), "--row-height", "25", "--col-widths", "50,50", "--markdown")
	require.NoError(t, err)
	assert.Contains(t, stdout, "| A | A |")
}

func TestGrid_UnknownEngine(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, constant("A"))
	dir := t.TempDir()
	in := writePNG(t, dir, 10, 10)

	_, _, err := run(t, "grid", in, filepath.Join(dir, "o.csv"), "--engine", "abbyy")
	assert.ErrorContains(t, err, "unknown engine")
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{",", ',', false},
		{";", ';', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{"|", '|', false},
		{"", 0, true},
		{",,", 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "parseDelimiter(%q)", tt.in)
			continue
		}
		assert.NoError(t, err, "parseDelimiter(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSplit(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 100, 250))
	in := filepath.Join(dir, "tall.png")
	require.NoError(t, imageio.Save(in, src))
	outDir := filepath.Join(dir, "bands")

	stdout, _, err := run(t, "split", in, outDir, "--height", "100")
	require.NoError(t, err)

	heights := []int{100, 100, 50}
	for i, h := range heights {
		path := filepath.Join(outDir, []string{"sub_image_000.png", "sub_image_001.png", "sub_image_002.png"}[i])
		assert.Contains(t, stdout, path)
		img, _, err := imageio.Decode(path)
		require.NoError(t, err)
		assert.Equal(t, 100, img.Bounds().Dx())
		assert.Equal(t, h, img.Bounds().Dy())
	}
}

func TestSplit_InvalidHeight(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, 10, 10)

	_, _, err := run(t, "split", in, filepath.Join(dir, "out"), "--height", "0")
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestRecognize(t *testing.T) {
	isolateEnv(t)
	stubEngine(t, ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Result, error) {
		return []ocr.Result{
			{Region: model.NewBBox(1, 1, 5, 5), Text: "Hello", Confidence: 0.987},
			{Region: model.NewBBox(1, 6, 5, 3), Text: "World", Confidence: 0.5},
		}, nil
	}))
	dir := t.TempDir()
	in := writePNG(t, dir, 20, 20)
	annotated := filepath.Join(dir, "boxes.png")

	stdout, _, err := run(t, "recognize", in, "--annotate", annotated)
	require.NoError(t, err)

	assert.Equal(t, "Line 1: Hello    # Confidence: 0.987\nLine 2: World    # Confidence: 0.500\n", stdout)
	assert.FileExists(t, annotated)
}

func TestCloud_Image(t *testing.T) {
	isolateEnv(t)
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Document struct {
				Type string `json:"type"`
			} `json:"document"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotType = body.Document.Type
		json.NewEncoder(w).Encode(map[string]any{
			"pages": []map[string]any{{"index": 0, "markdown": "| a | b |"}},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gridocr.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mistral:\n  base_url: "+srv.URL+"\n"), 0o644))
	t.Setenv("MISTRAL_API_KEY", "k")
	in := writePNG(t, dir, 4, 4)

	stdout, _, err := run(t, "--config", cfgPath, "cloud", in)
	require.NoError(t, err)
	assert.Equal(t, "image_url", gotType)
	assert.Equal(t, "| a | b |\n", stdout)
}

func TestCloud_MissingKey(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, 4, 4)

	_, _, err := run(t, "cloud", in)
	assert.ErrorContains(t, err, "API key")
}

func TestCloud_UnknownFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, _, err := run(t, "cloud", path)
	assert.ErrorContains(t, err, "neither an image nor a PDF")
}
