package simulation

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/fraziphy/balanced-spiking-network/internal/inputs"
	"github.com/fraziphy/balanced-spiking-network/internal/logging"
	"github.com/fraziphy/balanced-spiking-network/internal/network"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

// Phase names used in logs and events.
const (
	PhaseBurnIn    = "burn_in"
	PhaseRecording = "recording"
)

// Config holds tunable engine settings that do not affect the numerics.
type Config struct {
	// Workers partitions the per-neuron update across goroutines. Values
	// below 2 run serially. Output is identical for any worker count.
	Workers int

	// Logger receives phase boundaries at Debug and per-step spikers at Trace.
	// Nil discards.
	Logger *slog.Logger

	// Events receives phase_start/phase_end JSONL events. Nil is valid.
	Events *logging.EventLogger
}

// DefaultConfig returns a serial, silent engine configuration.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// RunOptions describes one call to Run.
type RunOptions struct {
	// BurnIn is the duration (ms) of a non-recording phase run before the
	// recording phase. Stimuli are never applied during burn-in.
	BurnIn float64

	// Record collects spikes of the recording phase.
	Record bool

	// Stim1 and Stim2 hold one row per neuron of the matching input set and
	// at least one column per recording step. Nil disables the stimulus.
	Stim1 [][]float64
	Stim2 [][]float64
}

// Spike is a single threshold crossing.
type Spike struct {
	Time   float64 `json:"t"` // ms since the start of the recording phase
	Neuron int     `json:"i"`
}

// Result summarizes a run.
type Result struct {
	Spikes      []Spike `json:"spikes"`
	Steps       int     `json:"steps"`
	BurnInSteps int     `json:"burn_in_steps"`
	Duration    float64 `json:"duration"`
	BurnIn      float64 `json:"burn_in"`
}

// binding attaches a stimulus waveform to the neurons it drives.
type binding struct {
	rows [][]float64
	row  []int // neuron -> row, -1 when not driven
}

// Engine integrates one network. It holds references to the network and
// scratch buffers only; all neuron state lives in the network's State.
// An Engine is not safe for concurrent use.
type Engine struct {
	net    *network.Network
	config Config
	logger *slog.Logger

	refSteps int
	syn      []float64
	prev     []int
	chunks   []chunk
}

type chunk struct {
	lo, hi int
	fired  []int
}

// NewEngine creates an engine for net.
func NewEngine(net *network.Network, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	n := net.Size()
	workers := max(config.Workers, 1)
	workers = min(workers, n)
	chunks := make([]chunk, workers)
	for w := range chunks {
		chunks[w] = chunk{lo: w * n / workers, hi: (w + 1) * n / workers}
	}

	return &Engine{
		net:      net,
		config:   config,
		logger:   logger,
		refSteps: net.Neural.RefractorySteps(),
		syn:      make([]float64, n),
		chunks:   chunks,
	}
}

// Run executes the optional burn-in phase and then the recording phase of
// tSim ms. All arguments are validated before the state is touched, so a
// failed Run leaves the network unchanged.
func (e *Engine) Run(tSim float64, opts RunOptions) (Result, error) {
	dt := e.net.Neural.DT
	if tSim < 0 || math.IsNaN(tSim) || math.IsInf(tSim, 0) {
		return Result{}, simerr.Configf("simulation duration must be a non-negative finite number, got %g", tSim)
	}
	if opts.BurnIn < 0 || math.IsNaN(opts.BurnIn) || math.IsInf(opts.BurnIn, 0) {
		return Result{}, simerr.Configf("burn-in duration must be a non-negative finite number, got %g", opts.BurnIn)
	}

	steps := params.Steps(tSim, dt)
	burnSteps := params.Steps(opts.BurnIn, dt)

	stim1, err := bindStimulus("mu_1", opts.Stim1, e.net.Inputs.Set1, e.net.Size(), steps)
	if err != nil {
		return Result{}, err
	}
	stim2, err := bindStimulus("mu_2", opts.Stim2, e.net.Inputs.Set2, e.net.Size(), steps)
	if err != nil {
		return Result{}, err
	}

	res := Result{Steps: steps, BurnInSteps: burnSteps, Duration: tSim, BurnIn: opts.BurnIn}
	if burnSteps > 0 {
		e.phase(PhaseBurnIn, opts.BurnIn, burnSteps, false, nil, nil)
	}
	res.Spikes = e.phase(PhaseRecording, tSim, steps, opts.Record, stim1, stim2)
	if opts.Record && res.Spikes == nil {
		res.Spikes = []Spike{}
	}
	return res, nil
}

// bindStimulus checks rows against the input set and columns against steps.
func bindStimulus(name string, rows [][]float64, set []int, n, steps int) (*binding, error) {
	if rows == nil {
		return nil, nil
	}
	if len(rows) != len(set) {
		return nil, &simerr.BoundsError{Stimulus: name, Row: -1, Rows: len(rows), WantRows: len(set)}
	}
	for p, r := range rows {
		if len(r) < steps {
			return nil, &simerr.BoundsError{Stimulus: name, Row: p, Cols: len(r), WantCols: steps}
		}
	}
	return &binding{rows: rows, row: inputs.RowIndex(set, n)}, nil
}

// phase integrates steps steps of one phase and rebases spike history.
// Zero steps leave the state untouched.
func (e *Engine) phase(name string, duration float64, steps int, record bool, stim1, stim2 *binding) []Spike {
	if steps == 0 {
		return nil
	}
	ctx := context.Background()
	st := e.net.State
	dt := e.net.Neural.DT

	e.logger.Debug("phase start", "phase", name, "steps", steps, "duration_ms", duration)
	e.config.Events.Phase("phase_start", name, steps, duration, 0)

	// Spikers of the last step of the previous phase sit at step -1.
	e.prev = e.prev[:0]
	for i, s := range st.SpikeStep {
		if s == -1 {
			e.prev = append(e.prev, i)
		}
	}

	var spikes []Spike
	total := 0
	trace := e.logger.Enabled(ctx, logging.LevelTrace)
	for k := 0; k < steps; k++ {
		e.net.W.Scatter(e.prev, 1, e.syn)

		e.step(k, stim1, stim2)

		e.prev = e.prev[:0]
		for _, c := range e.chunks {
			e.prev = append(e.prev, c.fired...)
		}
		total += len(e.prev)
		if record {
			t := float64(k) * dt
			for _, i := range e.prev {
				spikes = append(spikes, Spike{Time: t, Neuron: i})
			}
		}
		if trace && len(e.prev) > 0 {
			e.logger.Log(ctx, logging.LevelTrace, "spikes", "phase", name, "step", k, "neurons", e.prev)
		}
	}

	st.Rebase(steps, dt)

	e.logger.Debug("phase end", "phase", name, "steps", steps, "spikes", total)
	e.config.Events.Phase("phase_end", name, steps, duration, total)
	return spikes
}

// step updates every neuron for step k, chunk by chunk.
func (e *Engine) step(k int, stim1, stim2 *binding) {
	if len(e.chunks) == 1 {
		e.update(&e.chunks[0], k, stim1, stim2)
		return
	}
	var g errgroup.Group
	for w := range e.chunks {
		c := &e.chunks[w]
		g.Go(func() error {
			e.update(c, k, stim1, stim2)
			return nil
		})
	}
	_ = g.Wait() // update never fails
}

// update applies the refractory test, drive, Euler step, threshold and
// clamp to neurons [c.lo, c.hi). Fired neurons are collected in ascending order.
func (e *Engine) update(c *chunk, k int, stim1, stim2 *binding) {
	p := e.net.Neural
	st := e.net.State
	vth := e.net.Thresholds
	synScale := p.TauM / p.DT
	t := float64(k) * p.DT

	c.fired = c.fired[:0]
	for i := c.lo; i < c.hi; i++ {
		refractory := k-st.SpikeStep[i] <= e.refSteps
		st.Refractory[i] = refractory
		syn := e.syn[i] * synScale
		e.syn[i] = 0

		if refractory {
			st.V[i] = p.Vr
			continue
		}

		ext := p.MuZero
		if stim1 != nil {
			if r := stim1.row[i]; r >= 0 {
				ext += stim1.rows[r][k]
			}
		}
		if stim2 != nil {
			if r := stim2.row[i]; r >= 0 {
				ext += stim2.rows[r][k]
			}
		}

		v := st.V[i]
		v += p.DT * (-(v - p.EL) + syn + ext) / p.TauM
		if v >= vth[i] {
			v = p.Vr
			st.LastSpike[i] = t
			st.SpikeStep[i] = k
			c.fired = append(c.fired, i)
		}
		st.V[i] = v
	}
}
