package timestep

import (
	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single (S, A, R, S') transition. The
// Discount field holds the cumulative discount applied when
// bootstrapping from NextState: γ for one-step transitions, γⁿ for
// n-step transitions, and 0 when NextState is terminal.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	Discount  float64
	NextState mat.Vector
}

// NewTransition packages two consecutive timesteps and the action
// taken in the first into a Transition
func NewTransition(step TimeStep, action mat.Vector,
	nextStep TimeStep) Transition {
	discount := nextStep.Discount
	if nextStep.TerminalEnd() {
		discount = 0.0
	}

	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  discount,
		NextState: nextStep.Observation,
	}
}
