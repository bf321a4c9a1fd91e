package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/gridocr/cmd/gridocr/ui"
	"github.com/tsawler/gridocr/format"
	"github.com/tsawler/gridocr/internal/imageio"
	"github.com/tsawler/gridocr/ocr/mistral"
)

func newCloudCmd(a *app) *cobra.Command {
	var (
		model  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "cloud FILE",
		Short: "OCR an image or PDF with Mistral's OCR API",
		Long: `Send FILE to the Mistral OCR API and print the markdown it returns.

Images are sent inline. PDFs are uploaded, then processed through a
signed URL. Requires MISTRAL_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if model != "" {
				cfg.Mistral.Model = model
			}
			path := args[0]

			kind, err := format.DetectFile(path)
			if err != nil {
				return err
			}
			if kind == format.Unknown {
				return fmt.Errorf("%s is neither an image nor a PDF", path)
			}

			client, err := newMistralClient(&cfg)
			if err != nil {
				return err
			}

			spin := ui.NewSpinner(cmd.ErrOrStderr(), "sending "+filepath.Base(path)+" to "+client.Model())
			spin.Start()
			resp, err := processCloud(cmd, client, path, kind)
			spin.Stop()
			if err != nil {
				return err
			}

			a.logger.Info().Str("file", path).Int("pages", len(resp.Pages)).Msg("cloud ocr finished")

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			for _, p := range resp.Pages {
				if len(resp.Pages) > 1 {
					fmt.Fprintf(out, "<!-- page %d -->\n", p.Index+1)
				}
				fmt.Fprintln(out, p.Markdown)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "OCR model (default from config, mistral-ocr-latest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	return cmd
}

func processCloud(cmd *cobra.Command, client *mistral.Client, path string, kind format.Format) (*mistral.Response, error) {
	ctx := cmd.Context()

	if kind == format.PDF {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return client.ProcessPDF(ctx, filepath.Base(path), f)
	}

	// PNG and JPEG go as-is. Everything else is re-encoded as PNG.
	if kind == format.PNG || kind == format.JPEG {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return client.ProcessImage(ctx, data, kind.MIMEType())
	}

	img, _, err := imageio.Decode(path)
	if err != nil {
		return nil, err
	}
	data, err := imageio.PNG(img)
	if err != nil {
		return nil, err
	}
	return client.ProcessImage(ctx, data, format.PNG.MIMEType())
}
