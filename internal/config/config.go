// Package config provides configuration management for bsn.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fraziphy/balanced-spiking-network/internal/constants"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
	"github.com/fraziphy/balanced-spiking-network/internal/stimulus"
)

// DefaultFile is the config file looked up in the working directory by Load.
const DefaultFile = "bsn.yaml"

// Output formats.
const (
	FormatGzip  = "gz"
	FormatArrow = "arrow"
)

// Config is the full bsn configuration.
type Config struct {
	Neural  params.Neural   `json:"neural" yaml:"neural"`
	Network params.Topology `json:"network" yaml:"network"`
	Inputs  InputsConfig    `json:"inputs" yaml:"inputs"`
	Run     RunConfig       `json:"run" yaml:"run"`
	Seed    SeedConfig      `json:"seed" yaml:"seed"`
	Output  OutputConfig    `json:"output" yaml:"output"`
	Logging LoggingConfig   `json:"logging" yaml:"logging"`
}

// InputsConfig sizes the input populations and picks their stimuli.
type InputsConfig struct {
	// Portion is the fraction of each population in input set 1.
	Portion float64 `json:"portion" yaml:"portion"`

	// Overlap is the fraction of each population shared by both sets.
	Overlap float64 `json:"overlap" yaml:"overlap"`

	// Mu1 and Mu2 name the stimulus of each set: none, sine or bumps.
	Mu1 string `json:"mu_1" yaml:"mu_1"`
	Mu2 string `json:"mu_2" yaml:"mu_2"`
}

// RunConfig controls the simulation phases.
type RunConfig struct {
	Duration float64 `json:"duration" yaml:"duration"` // recorded time (ms)
	BurnIn   float64 `json:"burn_in" yaml:"burn_in"`   // discarded transient (ms)
	Workers  int     `json:"workers" yaml:"workers"`
}

// SeedConfig is the derivation path of all random streams.
type SeedConfig struct {
	Entropy uint64 `json:"entropy" yaml:"entropy"`
	Session int    `json:"session" yaml:"session"`
	Trial   int    `json:"trial" yaml:"trial"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`

	// Catalog is the directory of the SQLite run catalog. Empty disables it.
	Catalog string `json:"catalog" yaml:"catalog"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level controls logging verbosity: "error", "warn", "info", "debug" or "trace".
	Level string `json:"level" yaml:"level"`

	// EventsDir receives events.jsonl at debug level and below. Empty disables it.
	EventsDir string `json:"events_dir" yaml:"events_dir"`
}

// Default returns a Config with the conventional network and a 1 s run.
func Default() *Config {
	return &Config{
		Neural:  params.DefaultNeural(),
		Network: params.DefaultTopology(),
		Inputs: InputsConfig{
			Portion: constants.DefaultInputPortion,
			Overlap: constants.DefaultInputOverlap,
			Mu1:     "none",
			Mu2:     "none",
		},
		Run: RunConfig{
			Duration: constants.DefaultDuration,
			Workers:  1,
		},
		Seed: SeedConfig{
			Entropy: constants.DefaultEntropy,
		},
		Output: OutputConfig{
			Path:   "spikes.gz",
			Format: FormatGzip,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path, or from ./bsn.yaml when path is empty
// and that file exists, then applies environment variable overrides.
// Order: defaults -> config file -> environment variables
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Unset fields
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Output.Path = expandEnvVars(config.Output.Path)
	config.Output.Catalog = expandEnvVars(config.Output.Catalog)
	config.Logging.EventsDir = expandEnvVars(config.Logging.EventsDir)

	return config, nil
}

// Validate checks that the configuration describes a runnable simulation.
// Failures wrap simerr.ErrConfiguration or simerr.ErrSampling.
func (c *Config) Validate() error {
	if err := c.Neural.Validate(); err != nil {
		return err
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if c.Run.Duration < 0 {
		return simerr.Configf("duration must be non-negative, got %g", c.Run.Duration)
	}
	if c.Run.BurnIn < 0 {
		return simerr.Configf("burn_in must be non-negative, got %g", c.Run.BurnIn)
	}
	if c.Run.Workers < 0 {
		return simerr.Configf("workers must be non-negative, got %d", c.Run.Workers)
	}
	if c.Seed.Session < 0 || c.Seed.Trial < 0 {
		return simerr.Configf("session and trial must be non-negative, got %d and %d", c.Seed.Session, c.Seed.Trial)
	}
	if c.Inputs.Overlap < 0 || c.Inputs.Overlap > c.Inputs.Portion || c.Inputs.Portion > 1 {
		return simerr.Configf("inputs need 0 <= overlap <= portion <= 1, got overlap=%g portion=%g", c.Inputs.Overlap, c.Inputs.Portion)
	}
	for _, name := range []string{c.Inputs.Mu1, c.Inputs.Mu2} {
		if _, err := stimulus.Parse(name); err != nil {
			return err
		}
	}

	switch c.Output.Format {
	case FormatGzip, FormatArrow:
	default:
		return simerr.Configf("invalid output format: %s (valid: gz, arrow)", c.Output.Format)
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return simerr.Configf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// envBinding ties one BSN_* variable to a config field.
type envBinding struct {
	name  string
	apply func(string) error
}

func envFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			*dst = f
		}
		return err
	}
}

func envInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*dst = n
		}
		return err
	}
}

func envString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

// applyEnvOverrides applies BSN_* environment variable overrides to the config.
// A malformed numeric value is a configuration error.
func applyEnvOverrides(config *Config) error {
	bindings := []envBinding{
		{"BSN_DURATION", envFloat(&config.Run.Duration)},
		{"BSN_BURN_IN", envFloat(&config.Run.BurnIn)},
		{"BSN_WORKERS", envInt(&config.Run.Workers)},
		{"BSN_SESSION", envInt(&config.Seed.Session)},
		{"BSN_TRIAL", envInt(&config.Seed.Trial)},
		{"BSN_SEED", func(v string) error {
			n, err := strconv.ParseUint(v, 0, 64)
			if err == nil {
				config.Seed.Entropy = n
			}
			return err
		}},
		{"BSN_N", envInt(&config.Network.N)},
		{"BSN_C", envInt(&config.Network.C)},
		{"BSN_MU_ZERO", envFloat(&config.Neural.MuZero)},
		{"BSN_DT", envFloat(&config.Neural.DT)},
		{"BSN_OUTPUT", envString(&config.Output.Path)},
		{"BSN_FORMAT", envString(&config.Output.Format)},
		{"BSN_CATALOG", envString(&config.Output.Catalog)},
		{"BSN_LOG_LEVEL", envString(&config.Logging.Level)},
		{"BSN_EVENTS_DIR", envString(&config.Logging.EventsDir)},
	}

	var errs []error
	for _, b := range bindings {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.apply(v); err != nil {
			errs = append(errs, simerr.Configf("%s=%q: %v", b.name, v, err))
		}
	}
	return errors.Join(errs...)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
