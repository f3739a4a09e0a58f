package params

import (
	"errors"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

func TestDefaultTopologyDerivedCounts(t *testing.T) {
	top := DefaultTopology()
	if got := top.NE(); got != 8000 {
		t.Errorf("NE() = %d, want 8000", got)
	}
	if got := top.NI(); got != 2000 {
		t.Errorf("NI() = %d, want 2000", got)
	}
	if got := top.CE(); got != 800 {
		t.Errorf("CE() = %d, want 800", got)
	}
	if got := top.CI(); got != 200 {
		t.Errorf("CI() = %d, want 200", got)
	}
	if err := top.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestTopologyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Topology)
		wantErr error
	}{
		{"valid small", func(t *Topology) { t.N, t.C = 100, 20 }, nil},
		{"zero neurons", func(t *Topology) { t.N = 0 }, simerr.ErrConfiguration},
		{"fraction one", func(t *Topology) { t.F = 1 }, simerr.ErrConfiguration},
		{"empty excitatory", func(t *Topology) { t.N, t.C, t.F = 10, 2, 0.05 }, simerr.ErrConfiguration},
		{"excitatory in-degree too large", func(t *Topology) { t.N, t.C = 10, 20 }, simerr.ErrSampling},
		{"inhibitory in-degree too large", func(t *Topology) { t.N, t.C = 10, 11 }, simerr.ErrSampling},
		{"negative std", func(t *Topology) { t.VthStd = -1 }, simerr.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top := DefaultTopology()
			tt.mutate(&top)
			err := top.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNeuralValidate(t *testing.T) {
	if err := DefaultNeural().Validate(); err != nil {
		t.Fatalf("DefaultNeural().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Neural)
	}{
		{"zero tau_m", func(n *Neural) { n.TauM = 0 }},
		{"negative dt", func(n *Neural) { n.DT = -0.1 }},
		{"negative tau_r", func(n *Neural) { n.TauR = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := DefaultNeural()
			tt.mutate(&n)
			if err := n.Validate(); !errors.Is(err, simerr.ErrConfiguration) {
				t.Errorf("Validate() = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		duration, dt float64
		want         int
	}{
		{50, 0.1, 500},
		{1000, 0.1, 10000},
		{0.3, 0.1, 3},
		{0.05, 0.1, 0},
		{0, 0.1, 0},
		{-5, 0.1, 0},
		{10, 0.25, 40},
	}
	for _, tt := range tests {
		if got := Steps(tt.duration, tt.dt); got != tt.want {
			t.Errorf("Steps(%g, %g) = %d, want %d", tt.duration, tt.dt, got, tt.want)
		}
	}
}

func TestRefractorySteps(t *testing.T) {
	n := DefaultNeural()
	if got := n.RefractorySteps(); got != 20 {
		t.Errorf("RefractorySteps() = %d, want 20", got)
	}
	n.TauR = 0
	if got := n.RefractorySteps(); got != 0 {
		t.Errorf("RefractorySteps() with tau_r=0 = %d, want 0", got)
	}
}

func TestFloorCount(t *testing.T) {
	if got := FloorCount(0.3-0.1, 8000); got != 1600 {
		t.Errorf("FloorCount(0.2, 8000) = %d, want 1600", got)
	}
	if got := FloorCount(0.3, 2000); got != 600 {
		t.Errorf("FloorCount(0.3, 2000) = %d, want 600", got)
	}
}
