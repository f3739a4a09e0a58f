package inputs

import (
	"errors"
	"slices"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

func stream(t *testing.T, trial int) *rngstream.Stream {
	t.Helper()
	reg, err := rngstream.NewRegistry(2024, 0, trial)
	if err != nil {
		t.Fatal(err)
	}
	return reg.Stream(rngstream.InputSelection)
}

func countBelow(set []int, ne int) (exc, inh int) {
	for _, i := range set {
		if i < ne {
			exc++
		} else {
			inh++
		}
	}
	return exc, inh
}

func assertUnique(t *testing.T, name string, set []int) {
	t.Helper()
	seen := make(map[int]bool, len(set))
	for _, i := range set {
		if seen[i] {
			t.Fatalf("%s contains %d twice", name, i)
		}
		seen[i] = true
	}
}

func TestSelectDefaultSizes(t *testing.T) {
	const n, ne = 10000, 8000
	sel, err := Select(n, ne, DefaultPortion, DefaultOverlap, stream(t, 0))
	if err != nil {
		t.Fatal(err)
	}
	assertUnique(t, "Set1", sel.Set1)
	assertUnique(t, "Set2", sel.Set2)

	if e, i := countBelow(sel.Set1, ne); e != 2400 || i != 600 {
		t.Errorf("Set1 (exc, inh) = (%d, %d), want (2400, 600)", e, i)
	}
	if e, i := countBelow(sel.Set2, ne); e != 2400 || i != 600 {
		t.Errorf("Set2 (exc, inh) = (%d, %d), want (2400, 600)", e, i)
	}
	if e, i := countBelow(sel.Overlap(), ne); e != 800 || i != 200 {
		t.Errorf("overlap (exc, inh) = (%d, %d), want (800, 200)", e, i)
	}
	for _, i := range sel.Set1 {
		if i < 0 || i >= n {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestSelectZeroOverlapIsDisjoint(t *testing.T) {
	sel, err := Select(100, 80, 0.3, 0, stream(t, 0))
	if err != nil {
		t.Fatal(err)
	}
	if ov := sel.Overlap(); len(ov) != 0 {
		t.Errorf("Overlap() = %v, want empty", ov)
	}
	if len(sel.Set2) != len(sel.Set1) {
		t.Errorf("len(Set2) = %d, want %d", len(sel.Set2), len(sel.Set1))
	}
}

func TestSelectDeterministic(t *testing.T) {
	a, err := Select(500, 400, 0.3, 0.1, stream(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Select(500, 400, 0.3, 0.1, stream(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Set1, b.Set1) || !slices.Equal(a.Set2, b.Set2) {
		t.Error("identical streams produced different selections")
	}
}

func TestSelectErrors(t *testing.T) {
	tests := []struct {
		name             string
		n, ne            int
		portion, overlap float64
		want             error
	}{
		{"overlap above portion", 100, 80, 0.1, 0.2, simerr.ErrConfiguration},
		{"negative overlap", 100, 80, 0.3, -0.1, simerr.ErrConfiguration},
		{"portion above one", 100, 80, 1.5, 0.1, simerr.ErrConfiguration},
		{"no inhibitory population", 100, 100, 0.3, 0.1, simerr.ErrConfiguration},
		{"new part exceeds complement", 100, 80, 0.8, 0.1, simerr.ErrSampling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(tt.n, tt.ne, tt.portion, tt.overlap, stream(t, 0))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Select() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRowIndex(t *testing.T) {
	idx := RowIndex([]int{4, 1, 7}, 8)
	want := []int{-1, 1, -1, -1, 0, -1, -1, 2}
	if !slices.Equal(idx, want) {
		t.Errorf("RowIndex = %v, want %v", idx, want)
	}
}

func TestContains(t *testing.T) {
	sel := Selection{Set1: []int{1, 2}, Set2: []int{2, 3}}
	tests := []struct {
		i        int
		in1, in2 bool
	}{
		{1, true, false},
		{2, true, true},
		{3, false, true},
		{0, false, false},
	}
	for _, tt := range tests {
		in1, in2 := sel.Contains(tt.i)
		if in1 != tt.in1 || in2 != tt.in2 {
			t.Errorf("Contains(%d) = (%v, %v), want (%v, %v)", tt.i, in1, in2, tt.in1, tt.in2)
		}
	}
}
