package network

import (
	"math"
	"slices"
)

// NeverStep marks a neuron that has not spiked. It is far enough from any
// reachable step that refractory and delay comparisons never match it.
const NeverStep = math.MinInt / 2

// State is the mutable per-neuron state of a network. It is owned by one
// engine at a time and is not safe for concurrent use.
type State struct {
	V          []float64 `json:"v"`
	LastSpike  []float64 `json:"last_spike"` // ms relative to the current phase start, -Inf = never
	Refractory []bool    `json:"refractory"`

	// SpikeStep mirrors LastSpike as an integer step index relative to the
	// current phase start. Delay and refractory decisions use it.
	SpikeStep []int `json:"spike_step"`
}

// NewState allocates a state for n neurons that have never spiked. V is zero.
func NewState(n int) *State {
	s := &State{
		V:          make([]float64, n),
		LastSpike:  make([]float64, n),
		Refractory: make([]bool, n),
		SpikeStep:  make([]int, n),
	}
	s.forget()
	return s
}

func (s *State) forget() {
	for i := range s.LastSpike {
		s.LastSpike[i] = math.Inf(-1)
		s.SpikeStep[i] = NeverStep
		s.Refractory[i] = false
	}
}

// Len returns the neuron count.
func (s *State) Len() int { return len(s.V) }

// Clone returns a deep copy.
func (s *State) Clone() *State {
	return &State{
		V:          slices.Clone(s.V),
		LastSpike:  slices.Clone(s.LastSpike),
		Refractory: slices.Clone(s.Refractory),
		SpikeStep:  slices.Clone(s.SpikeStep),
	}
}

// Equal reports whether two states are identical, treating -Inf as equal to itself.
func (s *State) Equal(o *State) bool {
	return slices.Equal(s.V, o.V) &&
		slices.Equal(s.LastSpike, o.LastSpike) &&
		slices.Equal(s.Refractory, o.Refractory) &&
		slices.Equal(s.SpikeStep, o.SpikeStep)
}

// Rebase shifts spike history by a finished phase of steps steps so that
// times are relative to the start of the next phase. LastSpike is derived
// from the shifted SpikeStep, keeping both clocks on the dt grid even when
// the phase duration is not a multiple of dt. Neurons that never spiked stay
// at -Inf.
func (s *State) Rebase(steps int, dt float64) {
	for i, k := range s.SpikeStep {
		if k == NeverStep {
			s.LastSpike[i] = math.Inf(-1)
			continue
		}
		s.SpikeStep[i] = k - steps
		s.LastSpike[i] = float64(k-steps) * dt
	}
}
