// Package thresholds draws the per-neuron spike thresholds.
package thresholds

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fraziphy/balanced-spiking-network/internal/constants"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

// Distribution is the shape thresholds are drawn from.
type Distribution string

const (
	// Uniform draws from [mean - std*sqrt(3), mean + std*sqrt(3)), which has
	// standard deviation std.
	Uniform Distribution = "uniform"

	// Normal draws from N(mean, std²).
	Normal Distribution = "normal"
)

// ParseDistribution maps a name to a Distribution, case-insensitively.
func ParseDistribution(name string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(strings.TrimSpace(name))); d {
	case Uniform, Normal:
		return d, nil
	}
	return "", simerr.Configf("unsupported threshold distribution %q (want uniform or normal)", name)
}

// Build returns n thresholds with the given mean and standard deviation.
// A zero std yields the constant mean for any distribution and consumes no
// randomness. Every returned value is at least vr + constants.ThresholdEpsilon.
func Build(mean, std float64, n int, vr float64, s *rngstream.Stream, dist Distribution) ([]float64, error) {
	if dist != Uniform && dist != Normal {
		return nil, simerr.Configf("unsupported threshold distribution %q", string(dist))
	}
	if n < 0 {
		return nil, simerr.Configf("threshold count must be non-negative, got %d", n)
	}
	if std < 0 || math.IsNaN(std) {
		return nil, simerr.Configf("threshold std must be non-negative, got %g", std)
	}
	floor := vr + constants.ThresholdEpsilon
	if mean < floor && std == 0 {
		return nil, simerr.Configf("threshold mean %g is not above the reset potential %g", mean, vr)
	}

	out := make([]float64, n)
	if std == 0 {
		for i := range out {
			out[i] = mean
		}
		return out, nil
	}

	var d interface{ Rand() float64 }
	switch dist {
	case Uniform:
		half := std * math.Sqrt(3)
		d = distuv.Uniform{Min: mean - half, Max: mean + half, Src: s.Source()}
	case Normal:
		d = distuv.Normal{Mu: mean, Sigma: std, Src: s.Source()}
	}
	for i := range out {
		out[i] = math.Max(d.Rand(), floor)
	}
	return out, nil
}
