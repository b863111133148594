package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/pkg/types"
	"github.com/menta2k/video-filter/pkg/video"
)

func newCutsCommand(ctx *commandContext) *cobra.Command {
	var cuts []string

	cmd := &cobra.Command{
		Use:   "cuts <video>",
		Short: "Show which frame ranges a cut list removes and keeps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], nil, cuts)
			if err != nil {
				return err
			}
			defer editor.Close()

			info := editor.Info()
			list := editor.CutList()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, renderTable("Cut", rangeHeaders, rangeRows(list.Ranges(), info.FPS), rangeAligns))
			fmt.Fprintln(out, renderTable("Kept", rangeHeaders, rangeRows(list.KeptRanges(info.FrameCount), info.FPS), rangeAligns))
			fmt.Fprintf(out, "%s of %s frames kept\n",
				humanize.Comma(int64(list.KeptCount(info.FrameCount))), humanize.Comma(int64(info.FrameCount)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&cuts, "cut", nil, "Frame range to cut, repeatable (e.g. 100-250)")
	return cmd
}

var (
	rangeHeaders = []string{"Start", "End", "Frames", "From", "To"}
	rangeAligns  = []columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft}
)

func rangeRows(ranges []types.Range, fps float64) [][]string {
	rows := make([][]string, 0, len(ranges))
	for _, r := range ranges {
		rows = append(rows, []string{
			strconv.Itoa(r.Start),
			strconv.Itoa(r.End),
			strconv.Itoa(r.Len()),
			video.FormatTimecode(video.FrameTime(r.Start, fps)),
			video.FormatTimecode(video.FrameTime(r.End+1, fps)),
		})
	}
	return rows
}
