package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraziphy/balanced-spiking-network/internal/config"
	"github.com/fraziphy/balanced-spiking-network/internal/logging"
)

// Set by the linker at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bsn",
		Short: "Balanced spiking network - LIF E/I network simulator",
		Long: `bsn simulates a recurrently connected network of leaky integrate-and-fire
neurons in a balanced excitatory/inhibitory regime.

Runs are reproducible: every random draw derives from (seed, session, trial).
The session fixes the network realization, the trial the initial state and
the input neurons.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./bsn.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newConfigCmd(),
		newRunsCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger returns the stderr logger of a command.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// newEvents returns the run event logger, or nil when no events directory is set.
func newEvents(cfg *config.Config) *logging.EventLogger {
	if cfg.Logging.EventsDir == "" {
		return nil
	}
	return logging.NewEventLogger(cfg.Logging.EventsDir, cfg.Logging.Level)
}
