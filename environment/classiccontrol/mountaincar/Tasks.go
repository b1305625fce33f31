package mountaincar

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/revolvedev/revolve/environment"
	ts "github.com/revolvedev/revolve/timestep"
)

// GoalPosition is the x position of the goal in the Goal task
const GoalPosition float64 = 0.5

// Goal implements the classic control Mountain Car Goal task. The
// agent must reach the goal position at the top of the right hill.
//
// The rewards are -1 on every timestep until the goal is reached, at
// which point the episode ends in a terminal state with reward 0.
//
// Episodes also end after a step limit.
type Goal struct {
	env.Starter
	stepLimiter  env.Ender
	goalPosition float64
}

// NewGoal creates and returns a new Goal task ending episodes when the
// car reaches goalPosition or after episodeSteps timesteps
func NewGoal(s env.Starter, episodeSteps int, goalPosition float64) *Goal {
	return &Goal{s, env.NewStepLimit(episodeSteps), goalPosition}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (g *Goal) End(t *ts.TimeStep) bool {
	if t.Observation.AtVec(0) >= g.goalPosition {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return g.stepLimiter.End(t)
}

// GetReward returns the reward for a transition
func (g *Goal) GetReward(_, _, nextState mat.Vector) float64 {
	if nextState.AtVec(0) >= g.goalPosition {
		return 0.0
	}
	return -1.0
}

// AtGoal returns whether the argument state is a goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= g.goalPosition
}

// bounds returns the interval of legal starting positions used by
// default starters
func bounds() r1.Interval {
	return r1.Interval{Min: -0.6, Max: -0.4}
}

// NewDefaultStarter returns the conventional Mountain Car starter,
// sampling a start position uniformly from [-0.6, -0.4) with zero
// velocity
func NewDefaultStarter(seed uint64) env.Starter {
	return env.NewUniformStarter([]r1.Interval{
		bounds(),
		{Min: 0.0, Max: 0.0},
	}, seed)
}
