// Package connectivity builds the fixed in-degree connectivity matrix of the
// network. Entry (i, j) is the weight from presynaptic neuron j onto
// postsynaptic neuron i: rows are targets, columns are sources.
package connectivity

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
)

// Matrix is an immutable N×N connectivity matrix. Rows are stored sorted by
// column; a per-source fan-out index mirrors them for spike propagation.
// Matrix implements mat.Matrix and is safe for concurrent reads.
type Matrix struct {
	n  int
	ne int

	rowPtr []int
	cols   []int32
	vals   []float64

	outPtr  []int
	targets []int32
	weights []float64
}

var _ mat.Matrix = (*Matrix)(nil)

// Build samples, for every target row, CE distinct excitatory sources from
// [0, NE) with weight +JMean and CI distinct inhibitory sources from [NE, N)
// with weight -JMean*G. Excitatory and inhibitory rows follow the same rule.
func Build(top params.Topology, s *rngstream.Stream) (*Matrix, error) {
	if err := top.Validate(); err != nil {
		return nil, fmt.Errorf("building connectivity: %w", err)
	}

	n, ne, ni := top.N, top.NE(), top.NI()
	ce, ci := top.CE(), top.CI()
	wE, wI := top.JMean, -top.JMean*top.G
	deg := ce + ci

	m := &Matrix{
		n:      n,
		ne:     ne,
		rowPtr: make([]int, n+1),
		cols:   make([]int32, 0, n*deg),
		vals:   make([]float64, 0, n*deg),
	}

	excIdx := make([]int, ce)
	inhIdx := make([]int, ci)
	src := s.Source()
	for i := 0; i < n; i++ {
		if ce > 0 {
			sampleuv.WithoutReplacement(excIdx, ne, src)
			slices.Sort(excIdx)
		}
		if ci > 0 {
			sampleuv.WithoutReplacement(inhIdx, ni, src)
			slices.Sort(inhIdx)
		}
		for _, j := range excIdx {
			m.cols = append(m.cols, int32(j))
			m.vals = append(m.vals, wE)
		}
		for _, j := range inhIdx {
			m.cols = append(m.cols, int32(ne+j))
			m.vals = append(m.vals, wI)
		}
		m.rowPtr[i+1] = len(m.cols)
	}

	m.buildFanOut()
	return m, nil
}

// buildFanOut transposes the row storage into per-source target lists.
// Targets within a source are ascending because rows are visited in order.
func (m *Matrix) buildFanOut() {
	m.outPtr = make([]int, m.n+1)
	for _, j := range m.cols {
		m.outPtr[j+1]++
	}
	for j := 0; j < m.n; j++ {
		m.outPtr[j+1] += m.outPtr[j]
	}

	next := slices.Clone(m.outPtr[:m.n])
	m.targets = make([]int32, len(m.cols))
	m.weights = make([]float64, len(m.vals))
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.cols[k]
			p := next[j]
			m.targets[p] = int32(i)
			m.weights[p] = m.vals[k]
			next[j]++
		}
	}
}

// Dims returns the matrix dimensions (N, N).
func (m *Matrix) Dims() (r, c int) { return m.n, m.n }

// At returns the weight from source j onto target i.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic(mat.ErrIndexOutOfRange)
	}
	row := m.cols[m.rowPtr[i]:m.rowPtr[i+1]]
	if k, ok := slices.BinarySearch(row, int32(j)); ok {
		return m.vals[m.rowPtr[i]+k]
	}
	return 0
}

// T returns the implicit transpose.
func (m *Matrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// Row returns the sources of target i in ascending order and their weights.
// The slices alias the matrix and must not be modified.
func (m *Matrix) Row(i int) ([]int32, []float64) {
	return m.cols[m.rowPtr[i]:m.rowPtr[i+1]], m.vals[m.rowPtr[i]:m.rowPtr[i+1]]
}

// FanOut returns the targets of source j in ascending order and their weights.
// The slices alias the matrix and must not be modified.
func (m *Matrix) FanOut(j int) ([]int32, []float64) {
	return m.targets[m.outPtr[j]:m.outPtr[j+1]], m.weights[m.outPtr[j]:m.outPtr[j+1]]
}

// InDegree counts the excitatory and inhibitory sources of target i.
func (m *Matrix) InDegree(i int) (exc, inh int) {
	cols, _ := m.Row(i)
	for _, j := range cols {
		if int(j) < m.ne {
			exc++
		} else {
			inh++
		}
	}
	return exc, inh
}

// NNZ returns the number of stored connections.
func (m *Matrix) NNZ() int { return len(m.cols) }

// Scatter adds scale*W[i, j] into acc[i] for every source j in sources.
// Sources are applied in the order given.
func (m *Matrix) Scatter(sources []int, scale float64, acc []float64) {
	for _, j := range sources {
		tg, w := m.FanOut(j)
		for k, i := range tg {
			acc[i] += scale * w[k]
		}
	}
}

// Dense materializes the full matrix. It allocates N² float64 values
// (800 MB at N=10000) and is intended for inspection of small networks.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(m.n, m.n, nil)
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			d.Set(i, int(m.cols[k]), m.vals[k])
		}
	}
	return d
}
