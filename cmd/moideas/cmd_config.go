package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect moideas configuration",
		Long: `View and validate moideas configuration settings.

Configuration is read from ~/.moideas/config.yaml, then a .env file
(MOIDEAS_ENV selects another), then MOIDEAS_* environment variables.

Examples:
  moideas config list
  moideas config validate --config ./sweep-config.yaml`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigValidateCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}

			storePath, err := cfg.StorePath()
			if err != nil {
				storePath = "(unavailable)"
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Batch Settings:")
			fmt.Fprintf(w, "  batch.runs:     %d\n", cfg.Batch.Runs)
			fmt.Fprintf(w, "  batch.seed:     %d\n", cfg.Batch.Seed)
			fmt.Fprintf(w, "  batch.workers:  %d\n", cfg.Batch.Workers)
			fmt.Fprintf(w, "  batch.output:   %s\n", valueOrDefault(cfg.Batch.Output, "(disabled)"))
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Store Settings:")
			fmt.Fprintf(w, "  store.enabled:  %v\n", cfg.Store.Enabled)
			fmt.Fprintf(w, "  store.path:     %s\n", storePath)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Logging Settings:")
			fmt.Fprintf(w, "  logging.level:  %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"valid": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
			return nil
		},
	}
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
