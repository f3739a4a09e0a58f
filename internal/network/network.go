// Package network assembles a balanced E/I network: thresholds, connectivity,
// input populations and the initial state, each drawn from its own stream.
package network

import (
	"fmt"

	"github.com/fraziphy/balanced-spiking-network/internal/connectivity"
	"github.com/fraziphy/balanced-spiking-network/internal/inputs"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
	"github.com/fraziphy/balanced-spiking-network/internal/thresholds"
)

// Options controls the input population sizes.
type Options struct {
	Portion float64
	Overlap float64
}

// DefaultOptions returns the 30%/10% input configuration.
func DefaultOptions() Options {
	return Options{Portion: inputs.DefaultPortion, Overlap: inputs.DefaultOverlap}
}

// Network bundles the immutable structure of a network with its state.
// Thresholds and W are read-only after New and may be shared.
type Network struct {
	Neural     params.Neural
	Topology   params.Topology
	Thresholds []float64
	W          *connectivity.Matrix
	Inputs     inputs.Selection
	State      *State

	registry *rngstream.Registry
}

// New builds a network from parameters and the stream registry.
func New(neural params.Neural, top params.Topology, reg *rngstream.Registry, opts Options) (*Network, error) {
	if err := neural.Validate(); err != nil {
		return nil, err
	}
	if err := top.Validate(); err != nil {
		return nil, err
	}
	dist, err := thresholds.ParseDistribution(top.VthDistribution)
	if err != nil {
		return nil, err
	}
	if !(top.VthMean > neural.Vr) {
		return nil, simerr.Configf("mean threshold %g must exceed the reset potential %g", top.VthMean, neural.Vr)
	}

	vth, err := thresholds.Build(top.VthMean, top.VthStd, top.N, neural.Vr, reg.Stream(rngstream.Thresholds), dist)
	if err != nil {
		return nil, fmt.Errorf("building thresholds: %w", err)
	}
	w, err := connectivity.Build(top, reg.Stream(rngstream.Connectivity))
	if err != nil {
		return nil, err
	}
	sel, err := inputs.Select(top.N, top.NE(), opts.Portion, opts.Overlap, reg.Stream(rngstream.InputSelection))
	if err != nil {
		return nil, fmt.Errorf("selecting input neurons: %w", err)
	}

	n := &Network{
		Neural:     neural,
		Topology:   top,
		Thresholds: vth,
		W:          w,
		Inputs:     sel,
		State:      NewState(top.N),
		registry:   reg,
	}
	n.ResetState()
	return n, nil
}

// Registry returns the stream registry the network was built from.
func (n *Network) Registry() *rngstream.Registry { return n.registry }

// ResetState draws V uniformly in [Vr, VthMean) from the initial-state stream
// and clears spike history. Structure is left untouched.
func (n *Network) ResetState() {
	s := n.registry.Stream(rngstream.InitialState)
	for i := range n.State.V {
		n.State.V[i] = s.Uniform(n.Neural.Vr, n.Topology.VthMean)
	}
	n.State.forget()
}

// Size returns N.
func (n *Network) Size() int { return n.Topology.N }
