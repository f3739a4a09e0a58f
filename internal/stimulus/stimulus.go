// Package stimulus generates the dynamic input currents fed to the input
// populations. A stimulus is a matrix with one row per input neuron and one
// column per integration step.
package stimulus

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

// DefaultNoiseStd is the per-sample Gaussian noise added by both shapes.
const DefaultNoiseStd = 0.2

// Generator produces an n×steps stimulus for a run of durationMS.
type Generator interface {
	Name() string
	Generate(s *rngstream.Stream, durationMS float64, nNeurons int, dt float64) [][]float64
}

// Parse returns the generator for name. "none" returns a nil Generator.
func Parse(name string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case "sine":
		return DefaultSine(), nil
	case "bumps":
		return DefaultBumps(), nil
	}
	return nil, simerr.Configf("unknown stimulus %q (want none, sine or bumps)", name)
}

// Sine is a half-wave rectified sinusoid shared by all neurons plus
// independent Gaussian noise per neuron and sample.
type Sine struct {
	Amplitude   float64
	FrequencyHz float64
	NoiseStd    float64
}

// DefaultSine returns a 2.5 Hz (400 ms period) sine of amplitude 2.
func DefaultSine() Sine {
	return Sine{Amplitude: 2, FrequencyHz: 2.5, NoiseStd: DefaultNoiseStd}
}

func (Sine) Name() string { return "sine" }

func (g Sine) Generate(s *rngstream.Stream, durationMS float64, nNeurons int, dt float64) [][]float64 {
	samples := params.Steps(durationMS, dt)
	base := make([]float64, samples)
	for k := range base {
		t := float64(k) * dt
		base[k] = math.Max(g.Amplitude*math.Sin(2*math.Pi*g.FrequencyHz*t/1000), 0)
	}
	return withNoise(s, base, nNeurons, g.NoiseStd)
}

// Bumps is a profile with two tall bumps near the edges of the run and a
// lower one in the middle, tapered to zero at both ends.
type Bumps struct {
	Height    float64 // height of the tallest point after normalization
	MidHeight float64
	NoiseStd  float64
}

// DefaultBumps returns the profile normalized to height 3.
func DefaultBumps() Bumps {
	return Bumps{Height: 3, MidHeight: 0.8, NoiseStd: DefaultNoiseStd}
}

func (Bumps) Name() string { return "bumps" }

func (g Bumps) Generate(s *rngstream.Stream, durationMS float64, nNeurons int, dt float64) [][]float64 {
	const (
		offset = 1.0 // bump position
		width  = 2.0 // taper half-width
	)
	samples := params.Steps(durationMS, dt)
	x := make([]float64, samples)
	switch {
	case samples == 1:
		x[0] = -width
	case samples > 1:
		floats.Span(x, -width, width)
	}

	mid := math.Min(g.MidHeight, g.Height-0.5)
	base := make([]float64, samples)
	for k, xv := range x {
		v := g.Height*(math.Exp(-(xv+offset)*(xv+offset)/0.4)+math.Exp(-(xv-offset)*(xv-offset)/0.2)) +
			mid*math.Exp(-xv*xv/0.4)
		taper := 1 - (xv/width)*(xv/width)
		base[k] = v * taper * taper
	}
	if samples > 0 {
		if peak := floats.Max(base); peak > 0 {
			floats.Scale(g.Height/peak, base)
		}
	}
	for k := range base {
		base[k] = math.Max(base[k], 0)
	}
	return withNoise(s, base, nNeurons, g.NoiseStd)
}

// withNoise repeats base for every neuron, adding noise row by row.
func withNoise(s *rngstream.Stream, base []float64, nNeurons int, std float64) [][]float64 {
	out := make([][]float64, nNeurons)
	for i := range out {
		row := make([]float64, len(base))
		for k, b := range base {
			row[k] = b + s.Normal(0, std)
		}
		out[i] = row
	}
	return out
}
