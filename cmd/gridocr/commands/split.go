package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/gridocr/cmd/gridocr/ui"
	"github.com/tsawler/gridocr/split"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		height  int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "split IMAGE OUTDIR",
		Short: "Cut a tall image into full-width bands",
		Long: `Cut IMAGE into bands of --height pixels and save them in OUTDIR as
sub_image_000.png, sub_image_001.png and so on. The last band holds the
remainder and may be shorter. OUTDIR is created if it does not exist.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.cfg.Split.BandHeight
			if cmd.Flags().Changed("height") {
				h = height
			}

			opts := []split.SaveOption{split.WithLogger(a.logger)}
			if workers > 0 {
				opts = append(opts, split.WithWorkers(workers))
			}

			paths, err := split.File(cmd.Context(), args[0], args[1], h, opts...)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			ui.Success(cmd.ErrOrStderr(), "split %s into %d images in %s", args[0], len(paths), args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&height, "height", split.DefaultBandHeight, "band height in pixels")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel encoders (default: number of CPUs)")
	return cmd
}
