package main

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/internal/utils"
	"github.com/menta2k/video-filter/pkg/processing"
	"github.com/menta2k/video-filter/pkg/video"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var specs []string
	var cuts []string
	var from int
	var rate float64
	var saveDir string

	cmd := &cobra.Command{
		Use:   "play <video>",
		Short: "Play back the kept frames at the video frame rate",
		Long: "Play walks the kept frames in real time (scaled by --rate), logging the\n" +
			"timeline position of each one. With --save-dir every shown frame is written\n" +
			"to that directory. Interrupt to stop.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], specs, cuts)
			if err != nil {
				return err
			}
			defer editor.Close()

			if _, err := editor.GoToFrame(from); err != nil {
				return err
			}

			cfg := ctx.configValue()
			logger := ctx.log()
			if saveDir != "" {
				if err := utils.EnsureDir(saveDir); err != nil {
					return err
				}
			}
			processor := processing.NewProcessor()

			var shown int
			player := video.NewPlayer(editor, func(index int, img image.Image) {
				shown++
				frames, times := video.FramePosition(editor)
				entry := logger.WithFields(logrus.Fields{"frame": frames, "time": times})
				if saveDir != "" {
					name := fmt.Sprintf("frame_%06d.%s", index, cfg.Output.FrameFormat)
					path := filepath.Join(saveDir, name)
					if err := processor.SaveImage(img, path, cfg.Output.FrameFormat, cfg.Output.Quality, cfg.Output.Lossless); err != nil {
						entry.WithError(err).Warn("Failed to save frame")
						return
					}
					entry = entry.WithField("saved", path)
				}
				entry.Info("Frame")
			})
			player.SetRate(rate)

			if err := player.Play(cmd.Context()); err != nil {
				return err
			}
			player.Wait()

			frames, times := video.FramePosition(editor)
			fmt.Fprintf(cmd.OutOrStdout(), "played %d frames, stopped at %s  %s\n", shown, frames, times)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&specs, "filter", "f", nil, "Filter to apply, repeatable")
	cmd.Flags().StringArrayVar(&cuts, "cut", nil, "Frame range to cut, repeatable (e.g. 100-250)")
	cmd.Flags().IntVar(&from, "from", 0, "Frame to start from")
	cmd.Flags().Float64Var(&rate, "rate", 1, "Playback speed multiplier")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "Directory to write every shown frame to")
	return cmd
}
