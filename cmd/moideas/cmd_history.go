package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			batches, err := s.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"batches": batches,
					"count":   len(batches),
				})
			}

			if len(batches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches stored yet. Run 'moideas run' first.")
				return nil
			}

			t := newTable("history", "id", "sweep", "seed", "runs", "created")
			for _, b := range batches {
				t.addRow(b.ID, b.Name, strconv.FormatInt(b.Seed, 10), strconv.Itoa(b.Runs), b.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			fmt.Fprint(cmd.OutOrStdout(), t.render())
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of batches to list (0 for all)")
	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show the summaries of a stored batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			summaries, err := s.GetSummaries(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"batch_id":  args[0],
					"summaries": summaries,
				})
			}

			fmt.Fprint(cmd.OutOrStdout(), summaryTable(args[0], summaries).render())
			return nil
		},
	}
}
