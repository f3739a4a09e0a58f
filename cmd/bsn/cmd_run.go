package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraziphy/balanced-spiking-network/internal/config"
	"github.com/fraziphy/balanced-spiking-network/internal/constants"
	"github.com/fraziphy/balanced-spiking-network/internal/experiment"
	"github.com/fraziphy/balanced-spiking-network/internal/results"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate the network and write its spikes",
		Long: `Build the network for (seed, session) and simulate it for one trial.

The record file holds the spikes, both input sets and the reproducibility
check. Flags override the config file; the config file overrides defaults.

Examples:
  bsn run                                  # 1 s of the default 10000-neuron network
  bsn run -d 500 --mu_zero 20 -o out.gz    # stronger drive, 500 ms
  bsn run --N 1000 --C 100 --trial 3       # small network, another trial
  bsn run --mu_1 sine --format arrow       # sine input to set 1, Arrow output`,
		RunE: runSimulation,
	}

	f := cmd.Flags()
	f.Float64P("duration", "d", constants.DefaultDuration, "Recorded duration (ms)")
	f.StringP("output", "o", "spikes.gz", "Output file (empty to skip)")
	f.String("format", config.FormatGzip, "Output format: gz or arrow")
	f.String("catalog", "", "Run catalog directory (empty to skip)")
	f.Float64("mu_zero", constants.BaselineCurrent, "Baseline input current")
	f.Float64("tau_m", constants.MembraneTau, "Membrane time constant (ms)")
	f.Float64("dt", constants.TimeStep, "Integration step (ms)")
	f.Int("N", constants.NetworkSize, "Number of neurons")
	f.Int("C", constants.InDegree, "In-degree of every neuron")
	f.Float64("f", constants.ExcitatoryFraction, "Fraction of excitatory neurons")
	f.Float64("g", constants.InhibitoryRatio, "Relative strength of inhibition")
	f.Float64("J_mean", constants.MeanWeight, "Mean excitatory weight")
	f.Float64("V_th_mean", constants.ThresholdMean, "Mean firing threshold (mV)")
	f.Float64("V_th_std", 0, "Firing threshold spread (mV)")
	f.String("V_th_distribution", "uniform", "Threshold distribution: uniform or normal")
	f.Float64("burn_in", 0, "Discarded transient before recording (ms)")
	f.Uint64("seed", constants.DefaultEntropy, "Root entropy of all random streams")
	f.Int("session", 0, "Session index (network realization)")
	f.Int("trial", 0, "Trial index (initial state and input neurons)")
	f.String("mu_1", "none", "Stimulus of input set 1: none, sine or bumps")
	f.String("mu_2", "none", "Stimulus of input set 2: none, sine or bumps")
	f.Float64("portion", constants.DefaultInputPortion, "Fraction of each population in input set 1")
	f.Float64("overlap", constants.DefaultInputOverlap, "Fraction of each population shared by both input sets")
	f.Int("workers", 1, "Goroutines per integration step")

	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	events := newEvents(cfg)
	defer events.Close()

	logger.Info("simulating", "neurons", cfg.Network.N, "in_degree", cfg.Network.C,
		"duration", cfg.Run.Duration, "burn_in", cfg.Run.BurnIn,
		"seed", cfg.Seed.Entropy, "session", cfg.Seed.Session, "trial", cfg.Seed.Trial)

	rec, err := experiment.Run(cfg, experiment.Options{Logger: logger, Events: events})
	if err != nil {
		return err
	}
	path, err := experiment.Save(cmd.Context(), rec, cfg.Output)
	if err != nil {
		return err
	}
	logger.Debug("run stored", "id", rec.Meta.ID, "path", path, "catalog", cfg.Output.Catalog)

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"run_id":    rec.Meta.ID,
			"output":    path,
			"format":    cfg.Output.Format,
			"catalog":   cfg.Output.Catalog,
			"steps":     rec.Meta.Steps,
			"summary":   rec.Summary,
			"inputs":    []int{len(rec.Input1), len(rec.Input2)},
			"rng_check": rec.RNGCheck,
		})
	}
	printRunSummary(cmd.OutOrStdout(), rec, path, cfg)
	return nil
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	floatFlag := func(name string, dst *float64) {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}
	intFlag := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	stringFlag := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}

	floatFlag("duration", &cfg.Run.Duration)
	floatFlag("burn_in", &cfg.Run.BurnIn)
	intFlag("workers", &cfg.Run.Workers)

	floatFlag("mu_zero", &cfg.Neural.MuZero)
	floatFlag("tau_m", &cfg.Neural.TauM)
	floatFlag("dt", &cfg.Neural.DT)

	intFlag("N", &cfg.Network.N)
	intFlag("C", &cfg.Network.C)
	floatFlag("f", &cfg.Network.F)
	floatFlag("g", &cfg.Network.G)
	floatFlag("J_mean", &cfg.Network.JMean)
	floatFlag("V_th_mean", &cfg.Network.VthMean)
	floatFlag("V_th_std", &cfg.Network.VthStd)
	stringFlag("V_th_distribution", &cfg.Network.VthDistribution)

	if f.Changed("seed") {
		cfg.Seed.Entropy, _ = f.GetUint64("seed")
	}
	intFlag("session", &cfg.Seed.Session)
	intFlag("trial", &cfg.Seed.Trial)

	stringFlag("mu_1", &cfg.Inputs.Mu1)
	stringFlag("mu_2", &cfg.Inputs.Mu2)
	floatFlag("portion", &cfg.Inputs.Portion)
	floatFlag("overlap", &cfg.Inputs.Overlap)

	stringFlag("output", &cfg.Output.Path)
	stringFlag("format", &cfg.Output.Format)
	stringFlag("catalog", &cfg.Output.Catalog)

	// The default file name follows the format unless a path was given.
	if !f.Changed("output") && cfg.Output.Format == config.FormatArrow && strings.HasSuffix(cfg.Output.Path, "."+config.FormatGzip) {
		cfg.Output.Path = strings.TrimSuffix(cfg.Output.Path, filepath.Ext(cfg.Output.Path)) + "." + config.FormatArrow
	}
}

func printRunSummary(w io.Writer, rec *results.Record, path string, cfg *config.Config) {
	s := rec.Summary
	fmt.Fprintf(w, "Run %s\n", rec.Meta.ID)
	fmt.Fprintf(w, "  network:  %d neurons (%d E, %d I), in-degree %d\n",
		cfg.Network.N, cfg.Network.NE(), cfg.Network.NI(), cfg.Network.C)
	fmt.Fprintf(w, "  seed:     %d (session %d, trial %d)\n", rec.Meta.Entropy, rec.Meta.Session, rec.Meta.Trial)
	fmt.Fprintf(w, "  recorded: %g ms (%d steps) after %g ms burn-in\n", rec.Meta.Duration, rec.Meta.Steps, rec.Meta.BurnIn)
	fmt.Fprintf(w, "  spikes:   %d (%d E, %d I) from %d active neurons\n", s.Spikes, s.Excitatory, s.Inhibitory, s.Active)
	fmt.Fprintf(w, "  rates:    %.2f Hz (E %.2f Hz, I %.2f Hz)\n", s.RateHz, s.RateEHz, s.RateIHz)
	if s.CVNeurons > 0 {
		fmt.Fprintf(w, "  ISI CV:   %.3f over %d neurons\n", s.MeanCV, s.CVNeurons)
	}
	fmt.Fprintf(w, "  inputs:   %d / %d neurons (%s / %s)\n", len(rec.Input1), len(rec.Input2), rec.Meta.Stim1, rec.Meta.Stim2)
	if path != "" {
		fmt.Fprintf(w, "  output:   %s (%s)\n", path, cfg.Output.Format)
	}
	if cfg.Output.Catalog != "" {
		fmt.Fprintf(w, "  catalog:  %s\n", filepath.Join(cfg.Output.Catalog, results.CatalogFile))
	}
}
