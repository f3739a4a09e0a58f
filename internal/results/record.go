// Package results persists simulation output: a checksummed gzip record file,
// an Arrow IPC spike table and a SQLite catalog of runs.
package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/fraziphy/balanced-spiking-network/internal/analysis"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

// Meta describes how a run was produced.
type Meta struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Entropy   uint64          `json:"entropy"`
	Session   int             `json:"session"`
	Trial     int             `json:"trial"`
	Neural    params.Neural   `json:"neural"`
	Topology  params.Topology `json:"topology"`
	Portion   float64         `json:"portion"`
	Overlap   float64         `json:"overlap"`
	Duration  float64         `json:"duration"`
	BurnIn    float64         `json:"burn_in"`
	Stim1     string          `json:"mu_1"`
	Stim2     string          `json:"mu_2"`
	Steps     int             `json:"steps"`
}

// Record is the complete output of one run.
type Record struct {
	Meta     Meta               `json:"meta"`
	Spikes   []simulation.Spike `json:"spikes"`
	Input1   []int              `json:"input_1_neurons"`
	Input2   []int              `json:"input_2_neurons"`
	RNGCheck []float64          `json:"rng_check"`
	Summary  analysis.Summary   `json:"summary"`
}

// NewID returns a fresh run identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id parses as a run identifier.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
