package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nvandessel/moideas/internal/config"
	"github.com/nvandessel/moideas/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Expose the simulator to MCP clients over stdin/stdout.

Tools: moideas_simulate, moideas_presets, moideas_history.
Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			defer logger.Sync()

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			auditDir, err := config.DataDir()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "moideas",
				Version:  version,
				Store:    s,
				AuditDir: auditDir,
				Logger:   logger,
				Runs:     cfg.Batch.Runs,
				Seed:     cfg.Batch.Seed,
				Workers:  cfg.Batch.Workers,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			logger.Info("mcp server listening on stdio", zap.String("version", version))
			return server.Run(cmd.Context())
		},
	}
}
