// Package simerr defines the error taxonomy shared by the network builders and
// the simulation engine. All failures are caller configuration defects and are
// reported before any network state is mutated.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an invalid parameter combination: an unsupported
	// distribution name, an in-degree larger than its source population,
	// incoherent portion/overlap fractions and similar.
	ErrConfiguration = errors.New("configuration error")

	// ErrSampling marks a without-replacement draw larger than its population.
	ErrSampling = errors.New("sampling error")

	// ErrBounds marks a stimulus array that does not cover the requested run.
	ErrBounds = errors.New("bounds error")
)

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// SampleSizeError reports a without-replacement draw that cannot be satisfied.
type SampleSizeError struct {
	What      string // which population was sampled, e.g. "excitatory in-degree"
	Requested int
	Available int
}

func (e *SampleSizeError) Error() string {
	return fmt.Sprintf("sampling error: %s requests %d draws without replacement from a population of %d",
		e.What, e.Requested, e.Available)
}

// Unwrap makes errors.Is(err, ErrSampling) hold.
func (e *SampleSizeError) Unwrap() error { return ErrSampling }

// CheckSample returns a *SampleSizeError when requested exceeds available or is negative.
func CheckSample(what string, requested, available int) error {
	if requested < 0 || requested > available {
		return &SampleSizeError{What: what, Requested: requested, Available: available}
	}
	return nil
}

// BoundsError reports a stimulus array whose shape does not match the input
// population or is too short for the number of integration steps.
type BoundsError struct {
	Stimulus string // "mu_1" or "mu_2"
	Rows     int
	WantRows int
	Row      int // first offending row, -1 when the row count is wrong
	Cols     int
	WantCols int
}

func (e *BoundsError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("bounds error: %s has %d rows, input population has %d neurons",
			e.Stimulus, e.Rows, e.WantRows)
	}
	return fmt.Sprintf("bounds error: %s row %d has %d samples, run needs %d",
		e.Stimulus, e.Row, e.Cols, e.WantCols)
}

// Unwrap makes errors.Is(err, ErrBounds) hold.
func (e *BoundsError) Unwrap() error { return ErrBounds }
