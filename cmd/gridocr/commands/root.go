// Package commands implements the gridocr command tree.
package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsawler/gridocr/cmd/gridocr/ui"
	"github.com/tsawler/gridocr/config"
	"github.com/tsawler/gridocr/internal/observability"
)

// app carries state shared by all subcommands of one invocation.
type app struct {
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string
	noColor   bool

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gridocr",
		Short: "Extract text from fixed-grid table images",
		Long: `gridocr cuts a table image into a fixed grid of rows and columns,
recognizes the text in every cell and writes the result as CSV.

It also splits tall images into bands, prints line-level recognition
results and sends files to Mistral's cloud OCR.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (YAML)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console or json)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newGridCmd(a),
		newSplitCmd(a),
		newRecognizeCmd(a),
		newCloudCmd(a),
	)
	return root
}

// Execute runs the root command. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		ui.DisableColor()
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Observability.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Observability.LogFormat = a.logFormat
	}
	a.cfg = cfg

	a.logger = observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Output:  cmd.ErrOrStderr(),
		Service: "gridocr",
	})
	return nil
}
