// Package rngstream manages the independent random streams of a simulation.
// Every randomized concern (initial state, thresholds, connectivity, input
// selection, input waveforms) draws from its own PCG stream derived from
// (entropy, session, trial), so consuming one never shifts another.
package rngstream

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

// Purpose identifies a stream.
type Purpose int

const (
	InitialState Purpose = iota
	Thresholds
	InputSelection
	Connectivity
	InputWaveform

	numPurposes
)

var purposeNames = [numPurposes]string{
	InitialState:   "initial_state",
	Thresholds:     "thresholds",
	InputSelection: "input_selection",
	Connectivity:   "connectivity",
	InputWaveform:  "input_waveform",
}

// Purposes lists every purpose in derivation order.
func Purposes() []Purpose {
	out := make([]Purpose, numPurposes)
	for i := range out {
		out[i] = Purpose(i)
	}
	return out
}

func (p Purpose) String() string {
	if p < 0 || p >= numPurposes {
		return fmt.Sprintf("purpose(%d)", int(p))
	}
	return purposeNames[p]
}

// Scope reports whether the purpose is keyed on the session only or on the trial too.
func (p Purpose) Scope() Scope {
	switch p {
	case Thresholds, Connectivity:
		return ScopeSession
	default:
		return ScopeTrial
	}
}

// checkDraws is the size of the consistency sample returned by Check.
const checkDraws = 3

// Registry holds one stream per purpose. Streams are created once and never reseeded.
type Registry struct {
	entropy uint64
	session int
	trial   int
	streams [numPurposes]*Stream
}

// NewRegistry derives all streams for the given seed path.
func NewRegistry(entropy uint64, session, trial int) (*Registry, error) {
	if session < 0 {
		return nil, simerr.Configf("session must be non-negative, got %d", session)
	}
	if trial < 0 {
		return nil, simerr.Configf("trial must be non-negative, got %d", trial)
	}

	r := &Registry{entropy: entropy, session: session, trial: trial}
	for _, p := range Purposes() {
		hi, lo := derive(entropy, p, session, trial)
		pcg := rand.NewPCG(hi, lo)
		r.streams[p] = &Stream{purpose: p, pcg: pcg, rng: rand.New(pcg)}
	}
	return r, nil
}

// derive hashes the derivation path into the two PCG seed words.
func derive(entropy uint64, p Purpose, session, trial int) (uint64, uint64) {
	path := []uint64{entropy, uint64(p), uint64(session)}
	if p.Scope() == ScopeTrial {
		path = append(path, uint64(trial))
	}

	buf := make([]byte, 8*(len(path)+1))
	for i, w := range path {
		binary.LittleEndian.PutUint64(buf[8*i:], w)
	}
	last := len(buf) - 8
	binary.LittleEndian.PutUint64(buf[last:], 0)
	hi := xxhash.Sum64(buf)
	binary.LittleEndian.PutUint64(buf[last:], 1)
	lo := xxhash.Sum64(buf)
	return hi, lo
}

// Stream returns the stream for p. Purposes are compile-time constants, so an
// unknown p is a programming error and panics. Use Lookup for purposes that
// come from outside the program.
func (r *Registry) Stream(p Purpose) *Stream {
	s, err := r.Lookup(p)
	if err != nil {
		panic("rngstream: " + err.Error())
	}
	return s
}

// Lookup returns the stream for p, or a configuration error for an unknown purpose.
func (r *Registry) Lookup(p Purpose) (*Stream, error) {
	if p < 0 || p >= numPurposes {
		return nil, simerr.Configf("unknown stream %s", p)
	}
	return r.streams[p], nil
}

// ParsePurpose maps a stream name such as "connectivity" to its purpose.
func ParsePurpose(name string) (Purpose, error) {
	for p, n := range purposeNames {
		if n == name {
			return Purpose(p), nil
		}
	}
	return 0, simerr.Configf("unknown stream %q", name)
}

// Entropy returns the root seed.
func (r *Registry) Entropy() uint64 { return r.entropy }

// Session returns the session index.
func (r *Registry) Session() int { return r.session }

// Trial returns the trial index.
func (r *Registry) Trial() int { return r.trial }

// Check returns three standard-normal draws from a copy of the connectivity
// stream. The live stream is not advanced, so the sample fingerprints the
// stream state after network construction.
func (r *Registry) Check() []float64 {
	snap := r.streams[Connectivity].snapshot()
	out := make([]float64, checkDraws)
	for i := range out {
		out[i] = snap.NormFloat64()
	}
	return out
}

// Stream is a single purpose-bound random stream. It is not safe for concurrent use.
type Stream struct {
	purpose Purpose
	pcg     *rand.PCG
	rng     *rand.Rand
}

// Purpose returns what the stream is used for.
func (s *Stream) Purpose() Purpose { return s.purpose }

// Source exposes the underlying generator for gonum distributions.
func (s *Stream) Source() rand.Source { return s.pcg }

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 { return s.rng.Float64() }

// Uniform returns a value in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Normal returns a draw from N(mu, sigma²).
func (s *Stream) Normal(mu, sigma float64) float64 {
	return mu + sigma*s.rng.NormFloat64()
}

// Choice draws k distinct elements of population without replacement.
func (s *Stream) Choice(population []int, k int) ([]int, error) {
	if err := simerr.CheckSample(s.purpose.String()+" choice", k, len(population)); err != nil {
		return nil, err
	}
	if k == 0 {
		return []int{}, nil
	}
	idx := make([]int, k)
	sampleuv.WithoutReplacement(idx, len(population), s.pcg)
	out := make([]int, k)
	for i, j := range idx {
		out[i] = population[j]
	}
	return out, nil
}

func (s *Stream) snapshot() *rand.Rand {
	state, err := s.pcg.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("rngstream: snapshot %s: %v", s.purpose, err))
	}
	var cp rand.PCG
	if err := cp.UnmarshalBinary(state); err != nil {
		panic(fmt.Sprintf("rngstream: snapshot %s: %v", s.purpose, err))
	}
	return rand.New(&cp)
}
