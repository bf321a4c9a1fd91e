package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/gridocr/annotate"
	"github.com/tsawler/gridocr/cmd/gridocr/ui"
	"github.com/tsawler/gridocr/internal/imageio"
)

func newRecognizeCmd(a *app) *cobra.Command {
	var (
		engine   string
		lang     string
		annotOut string
	)

	cmd := &cobra.Command{
		Use:   "recognize IMAGE",
		Short: "Print every recognized line of an image with its confidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if err := applyEngineFlags(cmd, &cfg, engine, lang); err != nil {
				return err
			}

			img, _, err := imageio.Decode(args[0])
			if err != nil {
				return err
			}

			rec, closer, err := newRecognizer(cmd.Context(), &cfg, a.logger)
			if err != nil {
				return fmt.Errorf("start %s recognizer: %w", cfg.OCR.Engine, err)
			}
			defer closer.Close()

			results, err := rec.Recognize(cmd.Context(), img)
			if err != nil {
				return fmt.Errorf("recognize %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				ui.Warning(cmd.ErrOrStderr(), "no text detected")
			}
			for i, r := range results {
				fmt.Fprintf(out, "Line %d: %s    # Confidence: %.3f\n", i+1, r.Text, r.Confidence)
			}

			if annotOut != "" {
				if err := imageio.Save(annotOut, annotate.Draw(img, results)); err != nil {
					return err
				}
				ui.Success(cmd.ErrOrStderr(), "visualization saved to %s", annotOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&engine, "engine", "e", "", "recognition engine: tesseract, mistral or gemini")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "tesseract languages, e.g. eng+deu")
	cmd.Flags().StringVar(&annotOut, "annotate", "", "write a copy of the image with detected regions drawn to this path")
	return cmd
}
