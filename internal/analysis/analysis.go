// Package analysis computes summary statistics of recorded spike trains.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

// minISISpikes is the smallest spike count for which a neuron's ISI CV is defined.
const minISISpikes = 3

// Summary describes the activity of a recording.
type Summary struct {
	Spikes     int     `json:"spikes"`
	Excitatory int     `json:"excitatory_spikes"`
	Inhibitory int     `json:"inhibitory_spikes"`
	Active     int     `json:"active_neurons"`
	RateHz     float64 `json:"rate_hz"`
	RateEHz    float64 `json:"rate_e_hz"`
	RateIHz    float64 `json:"rate_i_hz"`
	MeanCV     float64 `json:"mean_isi_cv"` // 0 when no neuron has enough spikes
	CVNeurons  int     `json:"cv_neurons"`
}

// Summarize computes counts, mean firing rates and the mean ISI coefficient of
// variation for an n-neuron network whose first ne neurons are excitatory,
// recorded over duration ms.
func Summarize(spikes []simulation.Spike, n, ne int, duration float64) Summary {
	var s Summary
	s.Spikes = len(spikes)

	times := make(map[int][]float64)
	for _, sp := range spikes {
		if sp.Neuron < ne {
			s.Excitatory++
		} else {
			s.Inhibitory++
		}
		times[sp.Neuron] = append(times[sp.Neuron], sp.Time)
	}
	s.Active = len(times)

	if duration > 0 {
		sec := duration / 1000
		s.RateHz = rate(s.Spikes, n, sec)
		s.RateEHz = rate(s.Excitatory, ne, sec)
		s.RateIHz = rate(s.Inhibitory, n-ne, sec)
	}

	var cvs []float64
	for _, ts := range times {
		if len(ts) < minISISpikes {
			continue
		}
		isi := make([]float64, len(ts)-1)
		for i := 1; i < len(ts); i++ {
			isi[i-1] = ts[i] - ts[i-1]
		}
		mean, std := stat.MeanStdDev(isi, nil)
		if mean > 0 {
			cvs = append(cvs, std/mean)
		}
	}
	if len(cvs) > 0 {
		s.MeanCV = stat.Mean(cvs, nil)
		s.CVNeurons = len(cvs)
	}
	return s
}

func rate(count, neurons int, seconds float64) float64 {
	if neurons <= 0 {
		return 0
	}
	return float64(count) / float64(neurons) / seconds
}
