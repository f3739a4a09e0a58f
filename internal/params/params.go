// Package params holds the immutable parameter sets of the network: the
// neuron-level constants shared by every cell and the topology that shapes
// populations and connectivity.
package params

import (
	"math"

	"github.com/fraziphy/balanced-spiking-network/internal/constants"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

// Neural holds the LIF constants shared by every neuron.
type Neural struct {
	EL     float64 `yaml:"e_l" json:"e_l"`         // leak reversal potential (mV)
	Vr     float64 `yaml:"v_r" json:"v_r"`         // reset potential (mV)
	TauM   float64 `yaml:"tau_m" json:"tau_m"`     // membrane time constant (ms)
	TauR   float64 `yaml:"tau_r" json:"tau_r"`     // refractory duration (ms)
	MuZero float64 `yaml:"mu_zero" json:"mu_zero"` // constant external drive
	DT     float64 `yaml:"dt" json:"dt"`           // integration step (ms)
}

// DefaultNeural returns the conventional parameter set.
func DefaultNeural() Neural {
	return Neural{
		EL:     constants.RestingPotential,
		Vr:     constants.ResetPotential,
		TauM:   constants.MembraneTau,
		TauR:   constants.RefractoryTau,
		MuZero: constants.BaselineCurrent,
		DT:     constants.TimeStep,
	}
}

// Validate checks TauM > 0, DT > 0 and TauR >= 0.
func (n Neural) Validate() error {
	if !(n.TauM > 0) {
		return simerr.Configf("tau_m must be positive, got %g", n.TauM)
	}
	if !(n.DT > 0) {
		return simerr.Configf("dt must be positive, got %g", n.DT)
	}
	if !(n.TauR >= 0) {
		return simerr.Configf("tau_r must be non-negative, got %g", n.TauR)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"e_l", n.EL}, {"v_r", n.Vr}, {"mu_zero", n.MuZero}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return simerr.Configf("%s must be finite, got %g", f.name, f.v)
		}
	}
	return nil
}

// RefractorySteps returns the number of steps after a spike during which a
// neuron stays refractory: step k is refractory iff k - spikeStep <= RefractorySteps.
func (n Neural) RefractorySteps() int {
	return int(math.Floor(n.TauR/n.DT + constants.StepTolerance))
}

// Topology describes population sizes, in-degrees and weight statistics.
type Topology struct {
	N               int     `yaml:"n" json:"n"`
	C               int     `yaml:"c" json:"c"`
	F               float64 `yaml:"f" json:"f"`
	G               float64 `yaml:"g" json:"g"`
	JMean           float64 `yaml:"j_mean" json:"j_mean"`
	VthMean         float64 `yaml:"v_th_mean" json:"v_th_mean"`
	VthStd          float64 `yaml:"v_th_std" json:"v_th_std"`
	VthDistribution string  `yaml:"v_th_distribution" json:"v_th_distribution"`
}

// DefaultTopology returns the 10000-neuron, 1000-synapse network.
func DefaultTopology() Topology {
	return Topology{
		N:               constants.NetworkSize,
		C:               constants.InDegree,
		F:               constants.ExcitatoryFraction,
		G:               constants.InhibitoryRatio,
		JMean:           constants.MeanWeight,
		VthMean:         constants.ThresholdMean,
		VthStd:          0,
		VthDistribution: "uniform",
	}
}

// NE is the excitatory population size floor(F*N).
func (t Topology) NE() int { return FloorCount(t.F, t.N) }

// NI is the inhibitory population size N - NE.
func (t Topology) NI() int { return t.N - t.NE() }

// CE is the excitatory in-degree floor(F*C).
func (t Topology) CE() int { return FloorCount(t.F, t.C) }

// CI is the inhibitory in-degree C - CE.
func (t Topology) CI() int { return t.C - t.CE() }

// Validate checks the population and in-degree invariants. In-degrees that do
// not fit their source population are reported as *simerr.SampleSizeError.
func (t Topology) Validate() error {
	if t.N <= 0 {
		return simerr.Configf("network size must be positive, got %d", t.N)
	}
	if t.C < 0 {
		return simerr.Configf("in-degree must be non-negative, got %d", t.C)
	}
	if !(t.F > 0 && t.F < 1) {
		return simerr.Configf("excitatory fraction must be in (0, 1), got %g", t.F)
	}
	if ne := t.NE(); ne <= 0 || ne >= t.N {
		return simerr.Configf("excitatory fraction %g of %d neurons leaves an empty population (N_E=%d)", t.F, t.N, ne)
	}
	if t.VthStd < 0 || math.IsNaN(t.VthStd) {
		return simerr.Configf("threshold std must be non-negative, got %g", t.VthStd)
	}
	if err := simerr.CheckSample("excitatory in-degree", t.CE(), t.NE()); err != nil {
		return err
	}
	if err := simerr.CheckSample("inhibitory in-degree", t.CI(), t.NI()); err != nil {
		return err
	}
	return nil
}

// Steps returns the number of integration steps covering duration:
// floor(duration/dt), tolerant of representation error so that 50/0.1 is 500.
func Steps(duration, dt float64) int {
	if duration <= 0 || dt <= 0 {
		return 0
	}
	return int(math.Floor(duration/dt + constants.StepTolerance))
}

// FloorCount truncates frac*n. The tolerance keeps (0.3-0.1)*8000 at 1600.
func FloorCount(frac float64, n int) int {
	return int(math.Floor(frac*float64(n) + constants.StepTolerance))
}
