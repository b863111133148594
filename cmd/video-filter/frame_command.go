package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/pkg/processing"
	"github.com/menta2k/video-filter/pkg/video"
)

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var specs []string
	var cuts []string
	var frame int
	var output string
	var thumb int

	cmd := &cobra.Command{
		Use:   "frame <video>",
		Short: "Save a single filtered frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], specs, cuts)
			if err != nil {
				return err
			}
			defer editor.Close()

			pos, err := editor.GoToFrame(frame)
			if err != nil {
				return err
			}
			if pos != frame {
				ctx.log().WithFields(logrus.Fields{
					"requested": frame,
					"frame":     pos,
				}).Warn("Requested frame is cut, using the nearest kept frame")
			}

			target := strings.TrimSpace(output)
			if target == "" {
				target = filepath.Join(ctx.configValue().Output.OutputDir, filepath.Base(editor.DefaultFrameName()))
			}

			if thumb > 0 {
				img, err := editor.CurrentImage(cmd.Context())
				if err != nil {
					return err
				}
				cfg := ctx.configValue()
				p := processing.NewProcessor()
				if err := p.SaveImage(p.Thumbnail(img, thumb), target, "", cfg.Output.Quality, cfg.Output.Lossless); err != nil {
					return err
				}
			} else if err := editor.SaveCurrentFrame(cmd.Context(), target); err != nil {
				return err
			}

			frames, times := video.FramePosition(editor)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", target, frames, times)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&specs, "filter", "f", nil, "Filter to apply, repeatable")
	cmd.Flags().StringArrayVar(&cuts, "cut", nil, "Frame range to cut, repeatable (e.g. 100-250)")
	cmd.Flags().IntVarP(&frame, "frame", "n", 0, "Frame index")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path (default <video>_frame<N>.png)")
	cmd.Flags().IntVar(&thumb, "thumb", 0, "Scale the frame so its long side is at most this many pixels")
	return cmd
}
