// Package inputs selects the two neuron populations that receive the dynamic
// stimuli. Both sets take a fixed portion of the excitatory and of the
// inhibitory population, and the second set reuses part of the first.
package inputs

import (
	"fmt"
	"slices"

	"github.com/fraziphy/balanced-spiking-network/internal/constants"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

const (
	DefaultPortion = constants.DefaultInputPortion
	DefaultOverlap = constants.DefaultInputOverlap
)

// Selection holds the neuron indices of both input sets. Excitatory members
// come first within each set. Neither set contains duplicates.
type Selection struct {
	Set1 []int `json:"set1"`
	Set2 []int `json:"set2"`
}

// Select draws the input sets of an n-neuron network whose first ne neurons
// are excitatory.
//
// Set1 holds floor(portion*NE) excitatory and floor(portion*NI) inhibitory
// neurons. Set2 holds floor(overlap*NE) and floor(overlap*NI) neurons reused
// from Set1 plus floor((portion-overlap)*NE) and floor((portion-overlap)*NI)
// neurons outside Set1.
func Select(n, ne int, portion, overlap float64, s *rngstream.Stream) (Selection, error) {
	if ne <= 0 || ne >= n {
		return Selection{}, simerr.Configf("excitatory population %d must be in (0, %d)", ne, n)
	}
	if !(overlap >= 0 && overlap <= portion && portion <= 1) {
		return Selection{}, simerr.Configf("input fractions need 0 <= overlap <= portion <= 1, got overlap=%g portion=%g", overlap, portion)
	}
	ni := n - ne

	excAll := sequence(0, ne)
	inhAll := sequence(ne, n)

	set1E, err := s.Choice(excAll, params.FloorCount(portion, ne))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting excitatory inputs of set 1: %w", err)
	}
	set1I, err := s.Choice(inhAll, params.FloorCount(portion, ni))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting inhibitory inputs of set 1: %w", err)
	}

	overlapE, err := s.Choice(set1E, params.FloorCount(overlap, ne))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting excitatory overlap: %w", err)
	}
	overlapI, err := s.Choice(set1I, params.FloorCount(overlap, ni))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting inhibitory overlap: %w", err)
	}

	fresh := portion - overlap
	newE, err := s.Choice(complement(excAll, set1E), params.FloorCount(fresh, ne))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting new excitatory inputs of set 2: %w", err)
	}
	newI, err := s.Choice(complement(inhAll, set1I), params.FloorCount(fresh, ni))
	if err != nil {
		return Selection{}, fmt.Errorf("selecting new inhibitory inputs of set 2: %w", err)
	}

	return Selection{
		Set1: slices.Concat(set1E, set1I),
		Set2: slices.Concat(overlapE, overlapI, newE, newI),
	}, nil
}

// Contains reports membership of neuron i in each set.
func (sel Selection) Contains(i int) (inSet1, inSet2 bool) {
	return slices.Contains(sel.Set1, i), slices.Contains(sel.Set2, i)
}

// Overlap returns the neurons present in both sets, ascending.
func (sel Selection) Overlap() []int {
	in1 := make(map[int]bool, len(sel.Set1))
	for _, i := range sel.Set1 {
		in1[i] = true
	}
	var out []int
	for _, i := range sel.Set2 {
		if in1[i] {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}

// RowIndex maps every neuron of an n-neuron network to its position in set,
// or -1 when it is not a member. Stimulus row p drives neuron set[p].
func RowIndex(set []int, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	for p, i := range set {
		idx[i] = p
	}
	return idx
}

func sequence(lo, hi int) []int {
	out := make([]int, hi-lo)
	for i := range out {
		out[i] = lo + i
	}
	return out
}

// complement returns the elements of all (ascending) that are not in drawn.
func complement(all, drawn []int) []int {
	skip := make(map[int]bool, len(drawn))
	for _, i := range drawn {
		skip[i] = true
	}
	out := make([]int, 0, len(all)-len(drawn))
	for _, i := range all {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}
