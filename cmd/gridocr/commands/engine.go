package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tsawler/gridocr/config"
	"github.com/tsawler/gridocr/ocr"
	"github.com/tsawler/gridocr/ocr/gemini"
	"github.com/tsawler/gridocr/ocr/mistral"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newRecognizer builds the recognizer selected by cfg. Tests replace it.
var newRecognizer = func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Recognizer, io.Closer, error) {
	log.Debug().Str("engine", cfg.OCR.Engine).Strs("languages", cfg.OCR.Languages).Msg("starting recognizer")

	switch cfg.OCR.Engine {
	case config.EngineTesseract:
		c, err := ocr.New(
			ocr.WithLanguages(cfg.OCR.Languages...),
			ocr.WithPageSegMode(ocr.PSM_SINGLE_BLOCK),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case config.EngineMistral:
		c, err := newMistralClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser{}, nil

	case config.EngineGemini:
		r, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q", cfg.OCR.Engine)
	}
}

func newMistralClient(cfg *config.Config) (*mistral.Client, error) {
	return mistral.New(mistral.Config{
		APIKey:            cfg.Mistral.APIKey,
		Model:             cfg.Mistral.Model,
		BaseURL:           cfg.Mistral.BaseURL,
		RequestsPerSecond: cfg.Mistral.RequestsPerSecond,
		Burst:             1,
	})
}
