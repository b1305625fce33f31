// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/revolvedev/revolve/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when an episode ends. The End method inspects a
// TimeStep and, if the episode should end at that step, modifies the
// step so that its StepType is timestep.Last, setting the appropriate
// EndType, and returns true.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme and episode endings for acting in
// some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for a transition from state to
	// nextState under action a
	GetReward(state, a, nextState mat.Vector) float64

	// AtGoal returns whether state is a goal state of the Task
	AtGoal(state mat.Matrix) bool
}

// Environment implements a simulated environment that an agent
// interacts with
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step given an action, returning the
	// next timestep and whether it is the last of the episode
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	// CurrentTimeStep returns the last timestep of the environment
	CurrentTimeStep() ts.TimeStep

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec
}

// Closer is an Environment that holds external resources and must be
// closed after use
type Closer interface {
	Environment
	Close() error
}

// Close closes e if it holds external resources and is a no-op
// otherwise
func Close(e Environment) error {
	if closer, ok := e.(Closer); ok {
		return closer.Close()
	}
	return nil
}
