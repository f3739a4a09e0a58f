// Package constants provides named constants used throughout the balanced
// spiking network codebase. Biological values follow the conventional LIF
// parametrization in millivolts and milliseconds.
package constants

// Membrane constants
const (
	// RestingPotential is the leak reversal potential E_L (mV).
	RestingPotential = -70.0

	// ResetPotential is the potential V_r a neuron is clamped to after a spike (mV).
	// It must stay below every spike threshold.
	ResetPotential = -75.0

	// MembraneTau is the membrane time constant tau_m (ms).
	MembraneTau = 10.0

	// RefractoryTau is the absolute refractory duration tau_r (ms).
	RefractoryTau = 2.0
)

// Input and integration constants
const (
	// BaselineCurrent is the constant external drive mu_zero applied to every neuron.
	BaselineCurrent = 15.1

	// TimeStep is the explicit Euler integration step dt (ms).
	TimeStep = 0.1

	// StepTolerance absorbs floating point representation error when a
	// duration is divided into integration steps (e.g. 50/0.1).
	StepTolerance = 1e-9
)

// Topology constants
const (
	// NetworkSize is the default total neuron count N.
	NetworkSize = 10000

	// InDegree is the default number of presynaptic partners C per neuron.
	InDegree = 1000

	// ExcitatoryFraction is the default fraction f of excitatory neurons and inputs.
	ExcitatoryFraction = 0.8

	// InhibitoryRatio is the default inhibitory/excitatory weight ratio g.
	InhibitoryRatio = 5.0

	// MeanWeight is the default excitatory synaptic weight J_mean.
	MeanWeight = 1e-3
)

// Threshold constants
const (
	// ThresholdMean is the default mean spike threshold V_th (mV).
	ThresholdMean = -55.0

	// ThresholdEpsilon is the minimum margin kept between any threshold and V_r.
	ThresholdEpsilon = 1e-6
)

// Input population constants. By default 30% of each population receives
// stimulus 1 and stimulus 2 reuses 10% of the population from that set.
const (
	DefaultInputPortion = 0.3
	DefaultInputOverlap = 0.1
)

// Run constants
const (
	// DefaultDuration is the default recorded simulation time (ms).
	DefaultDuration = 1000.0

	// DefaultEntropy seeds the stream registry when no seed is supplied.
	DefaultEntropy uint64 = 0x5eed
)
