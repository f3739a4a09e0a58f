package results

import (
	"testing"
	"time"

	"github.com/fraziphy/balanced-spiking-network/internal/analysis"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

func sampleRecord(t *testing.T, createdAt time.Time) *Record {
	t.Helper()
	top := params.DefaultTopology()
	top.N, top.C = 100, 20
	spikes := []simulation.Spike{
		{Time: 0.1, Neuron: 4},
		{Time: 0.1, Neuron: 17},
		{Time: 3.2, Neuron: 90},
	}
	return &Record{
		Meta: Meta{
			ID:        NewID(),
			CreatedAt: createdAt,
			Entropy:   1 << 63,
			Session:   2,
			Trial:     5,
			Neural:    params.DefaultNeural(),
			Topology:  top,
			Portion:   0.3,
			Overlap:   0.1,
			Duration:  50,
			Stim1:     "sine",
			Stim2:     "none",
			Steps:     500,
		},
		Spikes:   spikes,
		Input1:   []int{1, 2, 3, 85},
		Input2:   []int{2, 40, 86},
		RNGCheck: []float64{0.5, -1.25, 2},
		Summary:  analysis.Summarize(spikes, top.N, top.NE(), 50),
	}
}
