package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/video-filter/pkg/filter"
)

func newFiltersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "filters",
		Short:       "List filter kinds and presets",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var kinds [][]string
			for _, kind := range []filter.Kind{filter.Rotation, filter.BrightnessContrast, filter.Flip} {
				f, err := filter.New(kind)
				if err != nil {
					return err
				}
				kinds = append(kinds, []string{kind.String(), formatParams(f.Params())})
			}
			fmt.Fprintln(out, renderTable("Filters", []string{"Kind", "Defaults"}, kinds, nil))

			var presets [][]string
			for _, name := range filter.PresetNames() {
				f, err := filter.NewPreset(name)
				if err != nil {
					return err
				}
				presets = append(presets, []string{name, filter.Format(f)})
			}
			fmt.Fprintln(out, renderTable("Presets", []string{"Name", "Equivalent"}, presets, nil))
			return nil
		},
	}
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	return strings.Join(pairs, " ")
}
