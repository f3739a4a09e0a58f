package simulation

import (
	"math"
	"testing"
)

// AssertSpikesOnGrid asserts that every spike time is a non-negative multiple
// of dt inside the recording window and every index is a valid neuron.
func AssertSpikesOnGrid(t *testing.T, result ScenarioResult) {
	t.Helper()
	dt := result.Network.Neural.DT
	n := result.Network.Size()
	for _, s := range result.Result.Spikes {
		k := s.Time / dt
		if s.Time < 0 || s.Time >= result.Result.Duration || math.Abs(k-math.Round(k)) > 1e-6 {
			t.Errorf("AssertSpikesOnGrid: %s: spike time %g is not on the dt=%g grid of [0, %g)", result.Name, s.Time, dt, result.Result.Duration)
		}
		if s.Neuron < 0 || s.Neuron >= n {
			t.Errorf("AssertSpikesOnGrid: %s: neuron %d outside [0, %d)", result.Name, s.Neuron, n)
		}
	}
}

// AssertSpikeOrder asserts that spikes are ordered by time and, within a
// step, by ascending neuron index.
func AssertSpikeOrder(t *testing.T, result ScenarioResult) {
	t.Helper()
	spikes := result.Result.Spikes
	for i := 1; i < len(spikes); i++ {
		a, b := spikes[i-1], spikes[i]
		if b.Time < a.Time || (b.Time == a.Time && b.Neuron <= a.Neuron) {
			t.Errorf("AssertSpikeOrder: %s: spike %d (%g, %d) after (%g, %d)", result.Name, i, b.Time, b.Neuron, a.Time, a.Neuron)
		}
	}
}

// AssertRefractoryGap asserts that no neuron spikes twice within tau_r + dt.
func AssertRefractoryGap(t *testing.T, result ScenarioResult) {
	t.Helper()
	p := result.Network.Neural
	minGap := p.RefractorySteps() + 1
	last := make(map[int]int)
	for _, s := range result.Result.Spikes {
		k := int(math.Round(s.Time / p.DT))
		if prev, ok := last[s.Neuron]; ok && k-prev < minGap {
			t.Errorf("AssertRefractoryGap: %s: neuron %d spiked at steps %d and %d (min gap %d)", result.Name, s.Neuron, prev, k, minGap)
		}
		last[s.Neuron] = k
	}
}

// AssertResetInvariant asserts that, after the run, every refractory neuron
// and every neuron that fired in the final step sits at V_r, and no neuron is
// at or above its threshold.
func AssertResetInvariant(t *testing.T, result ScenarioResult) {
	t.Helper()
	net := result.Network
	st := result.Final()
	for i, v := range st.V {
		if (st.Refractory[i] || st.SpikeStep[i] == -1) && v != net.Neural.Vr {
			t.Errorf("AssertResetInvariant: %s: neuron %d refractory=%v at V=%g, want V_r=%g", result.Name, i, st.Refractory[i], v, net.Neural.Vr)
		}
		if v >= net.Thresholds[i] {
			t.Errorf("AssertResetInvariant: %s: neuron %d at V=%g >= threshold %g", result.Name, i, v, net.Thresholds[i])
		}
	}
}

// AssertSameSpikes asserts that two runs produced identical spike trains.
func AssertSameSpikes(t *testing.T, a, b ScenarioResult) {
	t.Helper()
	if len(a.Result.Spikes) != len(b.Result.Spikes) {
		t.Fatalf("AssertSameSpikes: %s has %d spikes, %s has %d", a.Name, len(a.Result.Spikes), b.Name, len(b.Result.Spikes))
	}
	for i := range a.Result.Spikes {
		if a.Result.Spikes[i] != b.Result.Spikes[i] {
			t.Fatalf("AssertSameSpikes: spike %d differs: %+v vs %+v", i, a.Result.Spikes[i], b.Result.Spikes[i])
		}
	}
}

// AssertRebased asserts that every finite LastSpike in the final state lies in
// [-duration, 0) and agrees with the step mirror.
func AssertRebased(t *testing.T, result ScenarioResult) {
	t.Helper()
	st := result.Final()
	dt := result.Network.Neural.DT
	d := result.Result.Duration
	for i, ls := range st.LastSpike {
		if math.IsInf(ls, -1) {
			continue
		}
		if result.Result.Steps > 0 && (ls >= 0 || ls < -d-result.Result.BurnIn-1e-9) {
			t.Errorf("AssertRebased: %s: neuron %d last spike %g not rebased", result.Name, i, ls)
		}
		if got := float64(st.SpikeStep[i]) * dt; math.Abs(got-ls) > 1e-6 {
			t.Errorf("AssertRebased: %s: neuron %d last spike %g, step mirror %g", result.Name, i, ls, got)
		}
	}
}
