package mcp

import "time"

// SimulateInput defines the input for the bsn_simulate tool. Unset fields
// keep the server's base configuration.
type SimulateInput struct {
	N               *int     `json:"N,omitempty" jsonschema:"Number of neurons"`
	C               *int     `json:"C,omitempty" jsonschema:"In-degree of every neuron"`
	F               *float64 `json:"f,omitempty" jsonschema:"Fraction of excitatory neurons"`
	G               *float64 `json:"g,omitempty" jsonschema:"Relative strength of inhibition"`
	JMean           *float64 `json:"J_mean,omitempty" jsonschema:"Mean excitatory weight"`
	MuZero          *float64 `json:"mu_zero,omitempty" jsonschema:"Baseline input current"`
	VthMean         *float64 `json:"V_th_mean,omitempty" jsonschema:"Mean firing threshold (mV)"`
	VthStd          *float64 `json:"V_th_std,omitempty" jsonschema:"Firing threshold spread (mV)"`
	VthDistribution string   `json:"V_th_distribution,omitempty" jsonschema:"Threshold distribution: uniform or normal"`
	Duration        *float64 `json:"duration,omitempty" jsonschema:"Recorded duration (ms)"`
	BurnIn          *float64 `json:"burn_in,omitempty" jsonschema:"Discarded transient before recording (ms)"`
	Seed            *uint64  `json:"seed,omitempty" jsonschema:"Root entropy of all random streams"`
	Session         *int     `json:"session,omitempty" jsonschema:"Session index (network realization)"`
	Trial           *int     `json:"trial,omitempty" jsonschema:"Trial index (initial state and inputs)"`
	Mu1             string   `json:"mu_1,omitempty" jsonschema:"Stimulus of input set 1: none, sine or bumps"`
	Mu2             string   `json:"mu_2,omitempty" jsonschema:"Stimulus of input set 2: none, sine or bumps"`
	Workers         *int     `json:"workers,omitempty" jsonschema:"Goroutines per integration step"`
	Save            bool     `json:"save,omitempty" jsonschema:"Store the run in the catalog (default: false)"`
	Output          string   `json:"output,omitempty" jsonschema:"Record file to write, relative to the catalog directory"`
	Format          string   `json:"format,omitempty" jsonschema:"Record file format: gz (default) or arrow"`
}

// SimulateOutput defines the output for the bsn_simulate tool.
type SimulateOutput struct {
	RunID      string    `json:"run_id" jsonschema:"Identifier of the run"`
	Saved      bool      `json:"saved" jsonschema:"Whether the run was stored in the catalog"`
	OutputPath string    `json:"output_path,omitempty" jsonschema:"Record file written, if any"`
	Steps      int       `json:"steps" jsonschema:"Recorded integration steps"`
	Spikes     int       `json:"spikes" jsonschema:"Recorded spike count"`
	RateHz     float64   `json:"rate_hz" jsonschema:"Mean firing rate over all neurons (Hz)"`
	RateEHz    float64   `json:"rate_e_hz" jsonschema:"Mean excitatory firing rate (Hz)"`
	RateIHz    float64   `json:"rate_i_hz" jsonschema:"Mean inhibitory firing rate (Hz)"`
	MeanCV     float64   `json:"mean_isi_cv" jsonschema:"Mean inter-spike interval CV"`
	Input1Size int       `json:"input_1_size" jsonschema:"Neurons in input set 1"`
	Input2Size int       `json:"input_2_size" jsonschema:"Neurons in input set 2"`
	RNGCheck   []float64 `json:"rng_check" jsonschema:"Reproducibility fingerprint of the connectivity stream"`
}

// RunsInput defines the input for the bsn_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum runs to return, newest first (default: all)"`
}

// RunsOutput defines the output for the bsn_runs tool.
type RunsOutput struct {
	Runs  []RunListItem `json:"runs" jsonschema:"Catalog entries"`
	Count int           `json:"count" jsonschema:"Number of runs returned"`
}

// RunListItem is a catalog entry.
type RunListItem struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Seed       uint64    `json:"seed"`
	Session    int       `json:"session"`
	Trial      int       `json:"trial"`
	Neurons    int       `json:"neurons"`
	Duration   float64   `json:"duration"`
	Spikes     int       `json:"spikes"`
	RateHz     float64   `json:"rate_hz"`
	OutputPath string    `json:"output_path,omitempty"`
}
