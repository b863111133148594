package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/internal/utils"
	"github.com/menta2k/video-filter/pkg/video"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <video>",
		Short: "Show video metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], []string{}, nil)
			if err != nil {
				return err
			}
			defer editor.Close()

			info := editor.Info()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			rows := [][]string{
				{"File", info.Path},
				{"Codec", info.Codec},
				{"Size", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Frames", humanize.Comma(int64(info.FrameCount))},
				{"Frame rate", strconv.FormatFloat(info.FPS, 'f', 3, 64) + " fps"},
				{"Duration", video.FormatTimecode(info.Duration)},
			}
			if st, err := os.Stat(info.Path); err == nil && !st.IsDir() {
				rows = append(rows, []string{"File size", utils.FormatFileSize(st.Size())})
			}
			fmt.Fprintln(out, renderTable("", []string{"Property", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
