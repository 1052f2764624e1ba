package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/moideas/internal/sweep"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List built-in sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			type presetItem struct {
				Name string `json:"name"`
				Size int    `json:"size"`
			}
			var items []presetItem
			for _, name := range sweep.Presets() {
				g, err := sweep.Preset(name)
				if err != nil {
					return err
				}
				items = append(items, presetItem{Name: name, Size: g.Size()})
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), items)
			}

			t := newTable("presets", "name", "configurations")
			for _, it := range items {
				t.addRow(it.Name, strconv.Itoa(it.Size))
			}
			fmt.Fprint(cmd.OutOrStdout(), t.render())
			return nil
		},
	}

	cmd.AddCommand(newPresetsShowCmd())
	return cmd
}

func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>...",
		Short: "Print presets as a grid file",
		Long: `Print one or more presets in the YAML format read by 'moideas run --grid'.
Redirect the output to a file to start a custom sweep from a preset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grids := make([]sweep.Grid, 0, len(args))
			for _, name := range args {
				g, err := sweep.Preset(name)
				if err != nil {
					return err
				}
				grids = append(grids, g)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), sweep.File{Grids: grids})
			}

			data, err := sweep.Marshal(grids)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
