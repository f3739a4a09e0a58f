package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraziphy/balanced-spiking-network/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulations over the Model Context Protocol (stdio)",
		Long: `Start an MCP server on stdin/stdout exposing two tools:

  bsn_simulate  run a simulation with parameter overrides
  bsn_runs      list runs stored in the catalog

Parameters a call does not override come from the loaded configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("catalog"); cmd.Flags().Changed("catalog") {
				cfg.Output.Catalog = dir
			}

			events := newEvents(cfg)
			defer events.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:       "bsn",
				Version:    version,
				Base:       cfg,
				CatalogDir: cfg.Output.Catalog,
				Logger:     newLogger(cmd, cfg),
				Events:     events,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().String("catalog", "", "Run catalog directory (overrides config)")
	return cmd
}
