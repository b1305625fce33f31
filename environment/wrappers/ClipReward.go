package wrappers

import (
	"gonum.org/v1/gonum/mat"

	env "github.com/revolvedev/revolve/environment"
	ts "github.com/revolvedev/revolve/timestep"
	"github.com/revolvedev/revolve/utils/floatutils"
)

// ClipReward wraps an environment so that rewards are clipped to
// [min, max]. Atari environments conventionally clip rewards to
// [-1, 1] so that a single learning rate works across games.
type ClipReward struct {
	env.Environment
	min, max float64
}

// NewClipReward returns a new ClipReward wrapping e
func NewClipReward(e env.Environment, min, max float64) *ClipReward {
	return &ClipReward{e, min, max}
}

// Step takes a single environmental step, clipping the reward of the
// resulting timestep
func (c *ClipReward) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := c.Environment.Step(a)
	step.Reward = floatutils.Clip(step.Reward, c.min, c.max)
	return step, last, err
}
