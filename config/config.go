// Package config loads gridocr settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/split"
)

// Recognition engines.
const (
	EngineTesseract = "tesseract"
	EngineMistral   = "mistral"
	EngineGemini    = "gemini"
)

// Config holds all configuration for gridocr.
type Config struct {
	Grid          GridConfig          `yaml:"grid"`
	OCR           OCRConfig           `yaml:"ocr"`
	Mistral       MistralConfig       `yaml:"mistral"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Split         SplitConfig         `yaml:"split"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GridConfig holds the cell geometry.
type GridConfig struct {
	RowHeight int   `yaml:"row_height"`
	ColWidths []int `yaml:"col_widths"`
}

// OCRConfig selects and tunes the recognition engine.
type OCRConfig struct {
	Engine    string   `yaml:"engine"` // tesseract, mistral or gemini
	Languages []string `yaml:"languages"`
}

// MistralConfig holds Mistral API settings.
type MistralConfig struct {
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// SplitConfig holds band splitter settings.
type SplitConfig struct {
	BandHeight int `yaml:"band_height"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			RowHeight: grid.DefaultRowHeight,
			ColWidths: append([]int(nil), grid.DefaultColumnWidths...),
		},
		OCR: OCRConfig{
			Engine:    EngineTesseract,
			Languages: []string{"eng"},
		},
		Mistral: MistralConfig{
			Model:   "mistral-ocr-latest",
			BaseURL: "https://api.mistral.ai",
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Split: SplitConfig{
			BandHeight: split.DefaultBandHeight,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Grid.RowHeight <= 0 {
		return fmt.Errorf("row_height must be positive, got %d", c.Grid.RowHeight)
	}
	if len(c.Grid.ColWidths) == 0 {
		return fmt.Errorf("col_widths cannot be empty")
	}
	for i, w := range c.Grid.ColWidths {
		if w <= 0 {
			return fmt.Errorf("col_widths[%d] must be positive, got %d", i, w)
		}
	}

	switch c.OCR.Engine {
	case EngineTesseract, EngineMistral, EngineGemini:
	default:
		return fmt.Errorf("invalid ocr engine: %q", c.OCR.Engine)
	}

	if c.Split.BandHeight <= 0 {
		return fmt.Errorf("band_height must be positive, got %d", c.Split.BandHeight)
	}
	if c.Mistral.RequestsPerSecond < 0 {
		return fmt.Errorf("mistral requests_per_second cannot be negative")
	}

	if f := c.Observability.LogFormat; f != "console" && f != "json" {
		return fmt.Errorf("invalid log format: %q", f)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GRIDOCR_ROW_HEIGHT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("GRIDOCR_ROW_HEIGHT: %q is not an integer", v)
		}
		cfg.Grid.RowHeight = n
	}

	if v := os.Getenv("GRIDOCR_COL_WIDTHS"); v != "" {
		widths, err := grid.ParseColumnWidths(v)
		if err != nil {
			return fmt.Errorf("GRIDOCR_COL_WIDTHS: %w", err)
		}
		cfg.Grid.ColWidths = widths
	}

	if v := os.Getenv("GRIDOCR_ENGINE"); v != "" {
		cfg.OCR.Engine = strings.ToLower(v)
	}

	if v := os.Getenv("GRIDOCR_LANG"); v != "" {
		cfg.OCR.Languages = SplitLanguages(v)
	}

	if v := os.Getenv("MISTRAL_API_KEY"); v != "" {
		cfg.Mistral.APIKey = v
	}

	if v := os.Getenv("MISTRAL_MODEL"); v != "" {
		cfg.Mistral.Model = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// SplitLanguages splits a Tesseract language list such as "eng+deu" or
// "eng,deu".
func SplitLanguages(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
