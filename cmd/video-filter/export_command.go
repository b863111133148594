package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/pkg/video"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var specs []string
	var cuts []string
	var output string
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "export <video>",
		Short: "Write every kept frame through the filter chain",
		Long: "Export writes the video without the cut ranges and with the filter chain applied.\n" +
			"An output path without extension (or an existing directory) receives numbered stills,\n" +
			"anything else is encoded with ffmpeg.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], specs, cuts)
			if err != nil {
				return err
			}
			defer editor.Close()

			cfg := ctx.configValue()
			target := strings.TrimSpace(output)
			if target == "" {
				target = filepath.Join(cfg.Output.OutputDir, filepath.Base(editor.DefaultExportName(cfg.Output.VideoExt)))
			}

			var progress video.ProgressFunc
			if showProgress || isTerminal(os.Stderr) {
				total := editor.CutList().KeptCount(editor.FrameCount())
				bar := progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("exporting"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionClearOnFinish(),
				)
				defer bar.Finish()
				progress = func(done, total int) {
					_ = bar.Set(done)
				}
			}

			result, err := editor.Export(cmd.Context(), target, progress)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s frames in %s\n",
				result.Path, humanize.Comma(int64(result.Frames)), result.Elapsed.Round(1e6))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&specs, "filter", "f", nil, "Filter to apply, repeatable")
	cmd.Flags().StringArrayVar(&cuts, "cut", nil, "Frame range to cut, repeatable (e.g. 100-250)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video file or frame directory (default <video>_edited.<ext>)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Always show a progress bar")
	return cmd
}
