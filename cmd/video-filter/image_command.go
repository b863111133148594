package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	videofilter "github.com/menta2k/video-filter"
	"github.com/menta2k/video-filter/internal/utils"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var specs []string
	var output string

	cmd := &cobra.Command{
		Use:   "image <input>",
		Short: "Apply the filter chain to a still image (file or URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			input := args[0]

			target := strings.TrimSpace(output)
			if target == "" {
				target = utils.GenerateOutputFilename(input, cfg.Output.OutputDir, "", "_filtered", cfg.Output.FrameFormat)
			}

			vf := videofilter.NewWithOptions(cfg.EditorOptions())
			if err := vf.ProcessImageFile(input, target, ctx.filterSpecs(specs)); err != nil {
				return err
			}

			ctx.log().WithField("output", target).Info("Image written")
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&specs, "filter", "f", nil, "Filter to apply, repeatable (e.g. rotate90cw, bc:contrast=1.5)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path")
	return cmd
}
