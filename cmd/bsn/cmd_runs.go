package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraziphy/balanced-spiking-network/internal/results"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse and maintain the run catalog",
		Long: `Inspect runs recorded in the SQLite catalog and verify record files.

The catalog directory comes from --catalog or output.catalog in the config.

Examples:
  bsn runs list --catalog runs/           # Newest runs first
  bsn runs show <id> --spikes             # One run with its spikes
  bsn runs prune --keep 10 --max-age 720h # Keep 10 newest plus last 30 days
  bsn runs verify spikes.gz               # Check a record file's checksum
  bsn runs plot <id> --svg raster.svg     # Raster plot of a run
  bsn runs plot <id> --serve              # ...or browse it locally`,
	}
	cmd.PersistentFlags().String("catalog", "", "Run catalog directory (overrides config)")

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsPruneCmd(),
		newRunsVerifyCmd(),
		newRunsPlotCmd(),
	)
	return cmd
}

// openCatalog opens the catalog named by --catalog or the configuration.
func openCatalog(cmd *cobra.Command) (*results.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir := cfg.Output.Catalog
	if cmd.Flags().Changed("catalog") {
		dir, _ = cmd.Flags().GetString("catalog")
	}
	if dir == "" {
		return nil, errors.New("no run catalog configured (use --catalog or output.catalog)")
	}
	return results.OpenCatalog(dir)
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := cat.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs in catalog.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  N=%-6d seed=%d s%d/t%d  %8.1f ms  %7d spikes  %6.2f Hz\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Neurons, r.Entropy,
					r.Session, r.Trial, r.Duration, r.SpikeCount, r.RateHz)
			}
			fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			ctx := cmd.Context()
			info, err := cat.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			set1, set2, err := cat.Inputs(ctx, info.ID)
			if err != nil {
				return err
			}
			withSpikes, _ := cmd.Flags().GetBool("spikes")

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				out := map[string]any{"run": info, "input_1_neurons": set1, "input_2_neurons": set2}
				if withSpikes {
					spikes, err := cat.Spikes(ctx, info.ID)
					if err != nil {
						return err
					}
					out["spikes"] = spikes
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			w := cmd.OutOrStdout()
			m := info.Meta
			fmt.Fprintf(w, "Run %s\n", info.ID)
			fmt.Fprintf(w, "  created:  %s\n", info.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(w, "  seed:     %d (session %d, trial %d)\n", info.Entropy, info.Session, info.Trial)
			fmt.Fprintf(w, "  network:  N=%d C=%d f=%g g=%g J=%g\n", m.Topology.N, m.Topology.C, m.Topology.F, m.Topology.G, m.Topology.JMean)
			fmt.Fprintf(w, "  neuron:   mu_zero=%g tau_m=%g dt=%g V_th=%g±%g (%s)\n",
				m.Neural.MuZero, m.Neural.TauM, m.Neural.DT, m.Topology.VthMean, m.Topology.VthStd, m.Topology.VthDistribution)
			fmt.Fprintf(w, "  recorded: %g ms after %g ms burn-in\n", info.Duration, info.BurnIn)
			fmt.Fprintf(w, "  spikes:   %d (%.2f Hz)\n", info.SpikeCount, info.RateHz)
			fmt.Fprintf(w, "  inputs:   %d / %d neurons (%s / %s)\n", len(set1), len(set2), m.Stim1, m.Stim2)
			if info.OutputPath != "" {
				fmt.Fprintf(w, "  output:   %s (%s)\n", info.OutputPath, info.OutputFormat)
			}
			if withSpikes {
				spikes, err := cat.Spikes(ctx, info.ID)
				if err != nil {
					return err
				}
				for _, s := range spikes {
					fmt.Fprintf(w, "%.1f\t%d\n", s.Time, s.Neuron)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("spikes", false, "Include the spike list")
	return cmd
}

func newRunsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs outside the retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetDuration("max-age")
			policy := retentionPolicy(keep, maxAge)
			if policy == nil {
				return errors.New("nothing to prune by: set --keep and/or --max-age")
			}

			cat, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			removed, err := pruneCatalog(cmd.Context(), cat, policy)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"removed": removed,
					"count":   len(removed),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", len(removed))
			return nil
		},
	}
	cmd.Flags().Int("keep", 0, "Keep the N most recent runs")
	cmd.Flags().Duration("max-age", 0, "Keep runs younger than this (e.g. 720h)")
	return cmd
}

// retentionPolicy combines the prune flags; a run survives if any policy keeps it.
func retentionPolicy(keep int, maxAge time.Duration) results.RetentionPolicy {
	var policies []results.RetentionPolicy
	if keep > 0 {
		policies = append(policies, &results.CountPolicy{MaxCount: keep})
	}
	if maxAge > 0 {
		policies = append(policies, &results.AgePolicy{MaxAge: maxAge})
	}
	switch len(policies) {
	case 0:
		return nil
	case 1:
		return policies[0]
	}
	return &results.CompositePolicy{Policies: policies}
}

func pruneCatalog(ctx context.Context, cat *results.Catalog, policy results.RetentionPolicy) ([]string, error) {
	removed, err := cat.Prune(ctx, policy)
	if err != nil {
		return removed, fmt.Errorf("failed to prune catalog: %w", err)
	}
	if removed == nil {
		removed = []string{}
	}
	return removed, nil
}

func newRunsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the checksum of a record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := results.ReadHeader(args[0])
			if err != nil {
				return err
			}
			verr := results.VerifyChecksum(args[0])

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				out := map[string]any{
					"path":   args[0],
					"valid":  verr == nil,
					"header": header,
				}
				if verr != nil {
					out["error"] = verr.Error()
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(out); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return fmt.Errorf("verification failed: %w", verr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (run %s, %d spikes, %d neurons)\n",
				args[0], header.RunID, header.SpikeCount, header.Neurons)
			return nil
		},
	}
}
