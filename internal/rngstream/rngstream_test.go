package rngstream

import (
	"errors"
	"slices"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

func draws(s *Stream, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Float64()
	}
	return out
}

func mustRegistry(t *testing.T, entropy uint64, session, trial int) *Registry {
	t.Helper()
	r, err := NewRegistry(entropy, session, trial)
	if err != nil {
		t.Fatalf("NewRegistry(%d, %d, %d): %v", entropy, session, trial, err)
	}
	return r
}

func TestRegistryDeterministic(t *testing.T) {
	a := mustRegistry(t, 42, 1, 2)
	b := mustRegistry(t, 42, 1, 2)
	for _, p := range Purposes() {
		if !slices.Equal(draws(a.Stream(p), 16), draws(b.Stream(p), 16)) {
			t.Errorf("%s: streams from identical seed paths differ", p)
		}
	}
}

func TestRegistryStreamsIndependent(t *testing.T) {
	r := mustRegistry(t, 7, 0, 0)
	seen := make(map[float64]Purpose)
	for _, p := range Purposes() {
		v := r.Stream(p).Float64()
		if other, ok := seen[v]; ok {
			t.Errorf("%s and %s produced the same first draw", p, other)
		}
		seen[v] = p
	}
}

func TestRegistrySameInstance(t *testing.T) {
	r := mustRegistry(t, 1, 0, 0)
	if r.Stream(Connectivity) != r.Stream(Connectivity) {
		t.Error("Stream returned different instances for one purpose")
	}
}

func TestLookup(t *testing.T) {
	r := mustRegistry(t, 1, 0, 0)
	for _, p := range Purposes() {
		s, err := r.Lookup(p)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", p, err)
		}
		if s != r.Stream(p) {
			t.Errorf("Lookup(%s) returned a different instance than Stream", p)
		}
	}

	for _, p := range []Purpose{-1, Purpose(len(Purposes()))} {
		if _, err := r.Lookup(p); !errors.Is(err, simerr.ErrConfiguration) {
			t.Errorf("Lookup(%d) error = %v, want ErrConfiguration", int(p), err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("Stream(unknown) did not panic")
		}
	}()
	r.Stream(Purpose(99))
}

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		name    string
		want    Purpose
		wantErr bool
	}{
		{"initial_state", InitialState, false},
		{"thresholds", Thresholds, false},
		{"input_selection", InputSelection, false},
		{"connectivity", Connectivity, false},
		{"input_waveform", InputWaveform, false},
		{"weights", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePurpose(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePurpose(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, simerr.ErrConfiguration) {
					t.Errorf("error %v does not wrap ErrConfiguration", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParsePurpose(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestTrialScoping(t *testing.T) {
	t0 := mustRegistry(t, 99, 3, 0)
	t1 := mustRegistry(t, 99, 3, 1)

	for _, p := range Purposes() {
		same := slices.Equal(draws(t0.Stream(p), 8), draws(t1.Stream(p), 8))
		switch p.Scope() {
		case ScopeSession:
			if !same {
				t.Errorf("%s: session-scoped stream changed with trial", p)
			}
		case ScopeTrial:
			if same {
				t.Errorf("%s: trial-scoped stream ignored trial", p)
			}
		}
	}

	s1 := mustRegistry(t, 99, 4, 0)
	if slices.Equal(draws(t0.Stream(Connectivity), 8), draws(s1.Stream(Connectivity), 8)) {
		t.Error("connectivity stream ignored session")
	}
}

func TestNewRegistryRejectsNegative(t *testing.T) {
	if _, err := NewRegistry(0, -1, 0); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("negative session: err = %v, want ErrConfiguration", err)
	}
	if _, err := NewRegistry(0, 0, -1); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("negative trial: err = %v, want ErrConfiguration", err)
	}
}

func TestCheckDoesNotPerturb(t *testing.T) {
	a := mustRegistry(t, 5, 0, 0)
	b := mustRegistry(t, 5, 0, 0)

	c1 := a.Check()
	c2 := a.Check()
	if len(c1) != 3 {
		t.Fatalf("Check() returned %d draws, want 3", len(c1))
	}
	if !slices.Equal(c1, c2) {
		t.Errorf("Check() not repeatable: %v vs %v", c1, c2)
	}
	if !slices.Equal(draws(a.Stream(Connectivity), 4), draws(b.Stream(Connectivity), 4)) {
		t.Error("Check() advanced the live connectivity stream")
	}
}

func TestChoice(t *testing.T) {
	r := mustRegistry(t, 11, 0, 0)
	s := r.Stream(InputSelection)
	pop := []int{10, 11, 12, 13, 14, 15, 16, 17}

	got, err := s.Choice(pop, 5)
	if err != nil {
		t.Fatalf("Choice: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	seen := make(map[int]bool)
	for _, v := range got {
		if !slices.Contains(pop, v) {
			t.Errorf("%d not in population", v)
		}
		if seen[v] {
			t.Errorf("%d drawn twice", v)
		}
		seen[v] = true
	}

	all, err := s.Choice(pop, len(pop))
	if err != nil {
		t.Fatalf("Choice(all): %v", err)
	}
	slices.Sort(all)
	if !slices.Equal(all, pop) {
		t.Errorf("Choice(all) = %v, want permutation of %v", all, pop)
	}

	_, err = s.Choice(pop, 9)
	var sse *simerr.SampleSizeError
	if !errors.As(err, &sse) {
		t.Fatalf("Choice(9 of 8) err = %v, want SampleSizeError", err)
	}
	if sse.Requested != 9 || sse.Available != 8 {
		t.Errorf("SampleSizeError counts = %d/%d", sse.Requested, sse.Available)
	}
}

func TestUniformAndNormal(t *testing.T) {
	r := mustRegistry(t, 3, 0, 0)
	s := r.Stream(InitialState)
	for range 1000 {
		if v := s.Uniform(-75, -55); v < -75 || v >= -55 {
			t.Fatalf("Uniform(-75, -55) = %g out of range", v)
		}
	}
	if v := s.Normal(4, 0); v != 4 {
		t.Errorf("Normal(4, 0) = %g, want 4", v)
	}
}

func TestScopeValid(t *testing.T) {
	for _, s := range []Scope{ScopeSession, ScopeTrial} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if Scope("global").Valid() {
		t.Error(`Scope("global").Valid() = true`)
	}
}
