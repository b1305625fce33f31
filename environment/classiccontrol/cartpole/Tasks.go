package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/revolvedev/revolve/environment"
	ts "github.com/revolvedev/revolve/timestep"
)

// FailAngle is the angle at which the Balance task considers the pole
// to have fallen
const FailAngle float64 = 12 * 2 * math.Pi / 360

// Balance implements the classic control Cartpole Balance task. The
// goal of the agent is to keep the pole upright for as long as
// possible.
//
// The rewards are +1 for every timestep the pole is above the fail
// angle and -1 on the step the pole falls below it.
//
// Episodes end after a step limit or after the pole has fallen below
// the fail angle.
type Balance struct {
	env.Starter
	stepLimiter  env.Ender
	angleLimiter env.Ender
	failAngle    float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legalAngles := []r1.Interval{{Min: -failAngle, Max: failAngle}}
	angleFeatureIndex := []int{2}
	angleLimiter := env.NewIntervalLimit(legalAngles, angleFeatureIndex)

	return &Balance{s, stepLimiter, angleLimiter, failAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.angleLimiter.End(t); end {
		return true
	}
	return b.stepLimiter.End(t)
}

// GetReward returns the reward for a transition
func (b *Balance) GetReward(_, _, nextState mat.Vector) float64 {
	angle := nextState.AtVec(2)
	if angle < -b.failAngle || angle > b.failAngle {
		return -1.0
	}
	return 1.0
}

// AtGoal returns whether the pole is balanced in the argument state
func (b *Balance) AtGoal(state mat.Matrix) bool {
	angle := state.At(2, 0)
	return angle >= -b.failAngle && angle <= b.failAngle
}
