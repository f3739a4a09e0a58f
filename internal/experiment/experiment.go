// Package experiment runs a configured simulation end to end: it builds the
// network from a config.Config, runs burn-in and recording, and assembles the
// results.Record that the CLI and the MCP server persist or report.
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fraziphy/balanced-spiking-network/internal/analysis"
	"github.com/fraziphy/balanced-spiking-network/internal/config"
	"github.com/fraziphy/balanced-spiking-network/internal/logging"
	"github.com/fraziphy/balanced-spiking-network/internal/network"
	"github.com/fraziphy/balanced-spiking-network/internal/results"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
	"github.com/fraziphy/balanced-spiking-network/internal/stimulus"
)

// MetaKey is the Arrow schema metadata key holding the JSON run metadata.
const MetaKey = "bsn.meta"

// Options carries the collaborators of a run. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	Events *logging.EventLogger

	// Now stamps the record. Nil uses time.Now.
	Now func() time.Time
}

// Run validates cfg, builds its network and simulates it with spike
// recording on.
func Run(cfg *config.Config, opts Options) (*results.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stim1, err := stimulus.Parse(cfg.Inputs.Mu1)
	if err != nil {
		return nil, err
	}
	stim2, err := stimulus.Parse(cfg.Inputs.Mu2)
	if err != nil {
		return nil, err
	}

	reg, err := rngstream.NewRegistry(cfg.Seed.Entropy, cfg.Seed.Session, cfg.Seed.Trial)
	if err != nil {
		return nil, err
	}
	net, err := network.New(cfg.Neural, cfg.Network, reg, network.Options{
		Portion: cfg.Inputs.Portion,
		Overlap: cfg.Inputs.Overlap,
	})
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	runOpts := simulation.RunOptions{BurnIn: cfg.Run.BurnIn, Record: true}
	wave := reg.Stream(rngstream.InputWaveform)
	if stim1 != nil {
		runOpts.Stim1 = stim1.Generate(wave, cfg.Run.Duration, len(net.Inputs.Set1), cfg.Neural.DT)
	}
	if stim2 != nil {
		runOpts.Stim2 = stim2.Generate(wave, cfg.Run.Duration, len(net.Inputs.Set2), cfg.Neural.DT)
	}

	engineCfg := simulation.DefaultConfig()
	engineCfg.Workers = cfg.Run.Workers
	engineCfg.Logger = opts.Logger
	engineCfg.Events = opts.Events
	res, err := simulation.NewEngine(net, engineCfg).Run(cfg.Run.Duration, runOpts)
	if err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	return &results.Record{
		Meta: results.Meta{
			ID:        results.NewID(),
			CreatedAt: now().UTC(),
			Entropy:   cfg.Seed.Entropy,
			Session:   cfg.Seed.Session,
			Trial:     cfg.Seed.Trial,
			Neural:    cfg.Neural,
			Topology:  cfg.Network,
			Portion:   cfg.Inputs.Portion,
			Overlap:   cfg.Inputs.Overlap,
			Duration:  res.Duration,
			BurnIn:    res.BurnIn,
			Stim1:     stimulusName(stim1),
			Stim2:     stimulusName(stim2),
			Steps:     res.Steps,
		},
		Spikes:   res.Spikes,
		Input1:   net.Inputs.Set1,
		Input2:   net.Inputs.Set2,
		RNGCheck: reg.Check(),
		Summary:  analysis.Summarize(res.Spikes, cfg.Network.N, cfg.Network.NE(), res.Duration),
	}, nil
}

func stimulusName(g stimulus.Generator) string {
	if g == nil {
		return "none"
	}
	return g.Name()
}

// Save writes rec to out.Path in out.Format (skipped when the path is empty)
// and registers it in the catalog at out.Catalog (skipped when empty). It
// returns the path written, if any.
func Save(ctx context.Context, rec *results.Record, out config.OutputConfig) (string, error) {
	if out.Path != "" {
		switch out.Format {
		case config.FormatArrow:
			meta, err := ArrowMetadata(rec.Meta)
			if err != nil {
				return "", err
			}
			if err := results.WriteArrow(out.Path, rec.Spikes, meta); err != nil {
				return "", fmt.Errorf("writing arrow spike table: %w", err)
			}
		default:
			if err := results.WriteFile(out.Path, rec); err != nil {
				return "", fmt.Errorf("writing record: %w", err)
			}
		}
	}

	if out.Catalog != "" {
		cat, err := results.OpenCatalog(out.Catalog)
		if err != nil {
			return out.Path, fmt.Errorf("opening catalog: %w", err)
		}
		defer cat.Close()

		format := ""
		if out.Path != "" {
			format = out.Format
		}
		if err := cat.SaveRun(ctx, rec, out.Path, format); err != nil {
			return out.Path, fmt.Errorf("saving run to catalog: %w", err)
		}
	}
	return out.Path, nil
}

// ArrowMetadata flattens the identifying fields of meta into schema metadata,
// with the full metadata as JSON under MetaKey.
func ArrowMetadata(meta results.Meta) (map[string]string, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling run metadata: %w", err)
	}
	return map[string]string{
		"id":       meta.ID,
		"entropy":  strconv.FormatUint(meta.Entropy, 10),
		"session":  strconv.Itoa(meta.Session),
		"trial":    strconv.Itoa(meta.Trial),
		"neurons":  strconv.Itoa(meta.Topology.N),
		"duration": strconv.FormatFloat(meta.Duration, 'g', -1, 64),
		MetaKey:    string(data),
	}, nil
}
