package rngstream

// Scope says which part of the seed path a stream is keyed on.
type Scope string

const (
	// ScopeSession streams depend on (entropy, session). They shape the network
	// itself, so every trial of a session sees the same wiring and thresholds.
	ScopeSession Scope = "session"

	// ScopeTrial streams depend on (entropy, session, trial).
	ScopeTrial Scope = "trial"
)

// Valid returns true if the scope is a recognized value.
func (s Scope) Valid() bool {
	switch s {
	case ScopeSession, ScopeTrial:
		return true
	}
	return false
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}
