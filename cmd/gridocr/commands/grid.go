package commands

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/tsawler/gridocr/cmd/gridocr/ui"
	"github.com/tsawler/gridocr/config"
	"github.com/tsawler/gridocr/grid"
	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/model"
)

type gridOptions struct {
	rowHeight  int
	colWidths  string
	engine     string
	lang       string
	delimiter  string
	markdown   bool
	noProgress bool
}

func newGridCmd(a *app) *cobra.Command {
	o := &gridOptions{}

	cmd := &cobra.Command{
		Use:   "grid IMAGE OUTPUT",
		Short: "Recognize every cell of a fixed-grid table and write CSV",
		Long: `Cut IMAGE into rows of --row-height pixels and columns of
--col-widths pixels, recognize each cell and write the table to OUTPUT.

A trailing strip shorter than one row is ignored. A column that does not
fit in the image is written as <OUT_OF_BOUNDS> and ends its row. A cell
the recognizer fails on is written as <OCR_ERROR>.`,
		Example: `  gridocr grid table.png table.csv
  gridocr grid table.png table.csv --row-height 30 --col-widths 120,80,80
  gridocr grid scan.png out.tsv --delimiter tab --engine mistral`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, a, o, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.rowHeight, "row-height", 0, fmt.Sprintf("row height in pixels (default %d)", grid.DefaultRowHeight))
	f.StringVar(&o.colWidths, "col-widths", "", fmt.Sprintf("comma separated column widths (default %q)", grid.FormatColumnWidths(grid.DefaultColumnWidths)))
	f.StringVarP(&o.engine, "engine", "e", "", "recognition engine: tesseract, mistral or gemini")
	f.StringVarP(&o.lang, "lang", "l", "", "tesseract languages, e.g. eng+deu")
	f.StringVarP(&o.delimiter, "delimiter", "d", ",", `field delimiter; "tab" for TSV`)
	f.BoolVar(&o.markdown, "markdown", false, "also print the table as markdown to stdout")
	f.BoolVar(&o.noProgress, "no-progress", false, "hide the progress bar")
	return cmd
}

func runGrid(cmd *cobra.Command, a *app, o *gridOptions, imagePath, outputPath string) error {
	cfg := *a.cfg
	if err := applyEngineFlags(cmd, &cfg, o.engine, o.lang); err != nil {
		return err
	}

	rowHeight := cfg.Grid.RowHeight
	if cmd.Flags().Changed("row-height") {
		rowHeight = o.rowHeight
	}
	colWidths := cfg.Grid.ColWidths
	if cmd.Flags().Changed("col-widths") {
		w, err := grid.ParseColumnWidths(o.colWidths)
		if err != nil {
			return fmt.Errorf("invalid --col-widths: %w", err)
		}
		colWidths = w
	}
	if rowHeight <= 0 {
		return fmt.Errorf("invalid --row-height: %w: row height %d must be positive", grid.ErrInvalidGrid, rowHeight)
	}
	comma, err := parseDelimiter(o.delimiter)
	if err != nil {
		return err
	}

	img, _, err := imageio.Decode(imagePath)
	if err != nil {
		return err
	}

	rec, closer, err := newRecognizer(cmd.Context(), &cfg, a.logger)
	if err != nil {
		return fmt.Errorf("start %s recognizer: %w", cfg.OCR.Engine, err)
	}
	defer closer.Close()

	rows := grid.RowCount(img.Bounds().Dy(), rowHeight)
	var bar *ui.ProgressBar
	opts := []grid.Option{grid.WithLogger(a.logger.With().Str("image", imagePath).Logger())}
	if !o.noProgress && rows > 0 {
		bar = ui.NewProgressBar(cmd.ErrOrStderr(), rows, "recognizing")
		opts = append(opts, grid.WithRowCallback(func(int, []model.Cell) { bar.Add(1) }))
	}

	ex, err := grid.NewExtractor(rec, rowHeight, colWidths, opts...)
	if err != nil {
		return err
	}

	table, err := ex.Extract(cmd.Context(), img)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	table.Source = imagePath

	if err := table.WriteFile(outputPath, comma); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}

	out := cmd.OutOrStdout()
	if o.markdown {
		fmt.Fprint(out, table.ToMarkdown())
	}
	if n := table.CountStatus(model.CellFailed); n > 0 {
		ui.Warning(cmd.ErrOrStderr(), "%d cells could not be recognized", n)
	}
	ui.Success(cmd.ErrOrStderr(), "wrote %d rows to %s", table.RowCount(), outputPath)
	return nil
}

// applyEngineFlags copies --engine and --lang onto cfg.
func applyEngineFlags(cmd *cobra.Command, cfg *config.Config, engine, lang string) error {
	if cmd.Flags().Changed("engine") {
		switch e := strings.ToLower(engine); e {
		case config.EngineTesseract, config.EngineMistral, config.EngineGemini:
			cfg.OCR.Engine = e
		default:
			return fmt.Errorf("unknown engine %q (want tesseract, mistral or gemini)", engine)
		}
	}
	if cmd.Flags().Changed("lang") {
		cfg.OCR.Languages = config.SplitLanguages(lang)
	}
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}
