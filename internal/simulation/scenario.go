package simulation

import (
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/network"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/stimulus"
)

// Scenario defines a complete simulation experiment on a freshly built network.
type Scenario struct {
	Name     string
	Neural   *params.Neural   // nil = params.DefaultNeural()
	Topology *params.Topology // nil = SmallTopology()
	Inputs   *network.Options // nil = network.DefaultOptions()

	Entropy uint64
	Session int
	Trial   int

	Duration float64
	BurnIn   float64
	Workers  int

	// Stim1 and Stim2, when non-nil, generate waveforms for the input sets
	// from the input-waveform stream.
	Stim1 stimulus.Generator
	Stim2 stimulus.Generator
}

// SmallTopology is a 100-neuron network with in-degree 20.
func SmallTopology() params.Topology {
	top := params.DefaultTopology()
	top.N, top.C = 100, 20
	return top
}

// ScenarioResult captures the network, its state before and after the run,
// and the engine result.
type ScenarioResult struct {
	Name    string
	Network *network.Network
	Initial *network.State
	Result  Result
}

// Final returns the state after the run.
func (r ScenarioResult) Final() *network.State { return r.Network.State }

// Runner builds networks and runs scenarios, failing the test on any error.
type Runner struct {
	t *testing.T
}

// NewRunner creates a scenario runner.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Build constructs the scenario's network without running it.
func (r *Runner) Build(sc Scenario) *network.Network {
	r.t.Helper()

	neural := params.DefaultNeural()
	if sc.Neural != nil {
		neural = *sc.Neural
	}
	top := SmallTopology()
	if sc.Topology != nil {
		top = *sc.Topology
	}
	opts := network.DefaultOptions()
	if sc.Inputs != nil {
		opts = *sc.Inputs
	}

	reg, err := rngstream.NewRegistry(sc.Entropy, sc.Session, sc.Trial)
	if err != nil {
		r.t.Fatalf("%s: NewRegistry: %v", sc.Name, err)
	}
	net, err := network.New(neural, top, reg, opts)
	if err != nil {
		r.t.Fatalf("%s: network.New: %v", sc.Name, err)
	}
	return net
}

// Run builds the network and executes the scenario with spike recording on.
func (r *Runner) Run(sc Scenario) ScenarioResult {
	r.t.Helper()

	net := r.Build(sc)
	initial := net.State.Clone()

	opts := RunOptions{BurnIn: sc.BurnIn, Record: true}
	wave := net.Registry().Stream(rngstream.InputWaveform)
	if sc.Stim1 != nil {
		opts.Stim1 = sc.Stim1.Generate(wave, sc.Duration, len(net.Inputs.Set1), net.Neural.DT)
	}
	if sc.Stim2 != nil {
		opts.Stim2 = sc.Stim2.Generate(wave, sc.Duration, len(net.Inputs.Set2), net.Neural.DT)
	}

	cfg := DefaultConfig()
	cfg.Workers = sc.Workers
	res, err := NewEngine(net, cfg).Run(sc.Duration, opts)
	if err != nil {
		r.t.Fatalf("%s: Run: %v", sc.Name, err)
	}

	return ScenarioResult{Name: sc.Name, Network: net, Initial: initial, Result: res}
}
