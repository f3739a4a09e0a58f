// Package simulation integrates a balanced LIF network in fixed time steps.
//
// The Engine advances a network.State through an optional non-recording
// burn-in phase followed by a recording phase. Every step applies, in order:
// the refractory test, the one-step-delayed synaptic drive of the previous
// step's spikers, the external drive (baseline plus optional stimuli on the
// input populations), the Euler membrane update, threshold crossing with reset
// and the refractory clamp. After each phase spike history is rebased so that
// times are relative to the start of the next phase.
//
// The package also provides a scenario harness used by its property tests:
//
//	func TestResetInvariant(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    res := r.Run(simulation.Scenario{Name: "reset", Duration: 50})
//	    simulation.AssertRefractoryGap(t, res)
//	}
package simulation
