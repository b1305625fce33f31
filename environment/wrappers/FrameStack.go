// Package wrappers provides environment wrappers that transform the
// observations or rewards of an underlying environment
package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/revolvedev/revolve/environment"
	ts "github.com/revolvedev/revolve/timestep"
)

// FrameStack wraps an environment so that observations consist of the
// last k environmental observations concatenated together, oldest
// first. On reset, the stack is filled with k copies of the first
// observation. This is the conventional input for value networks on
// Atari-style environments, where a single frame hides velocity
// information.
type FrameStack struct {
	env.Environment
	k      int
	frames []float64 // flat ring of k frames, oldest first
	size   int       // length of a single observation
}

// NewFrameStack returns a new FrameStack wrapping e that stacks the
// last k observations
func NewFrameStack(e env.Environment, k int) (*FrameStack, error) {
	if k < 1 {
		return nil, fmt.Errorf("newFrameStack: stack depth must be "+
			"positive \n\twant(>0) \n\thave(%v)", k)
	}

	size := e.ObservationSpec().Shape.Len()
	f := &FrameStack{
		Environment: e,
		k:           k,
		frames:      make([]float64, k*size),
		size:        size,
	}
	f.fill(e.CurrentTimeStep().Observation)

	return f, nil
}

// Reset resets the underlying environment and fills the stack with
// the starting observation
func (f *FrameStack) Reset() (ts.TimeStep, error) {
	step, err := f.Environment.Reset()
	if err != nil {
		return step, err
	}

	f.fill(step.Observation)
	step.Observation = f.stacked()
	return step, nil
}

// Step takes a single environmental step, pushing the new observation
// onto the stack
func (f *FrameStack) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := f.Environment.Step(a)
	if err != nil {
		return step, last, err
	}

	f.push(step.Observation)
	step.Observation = f.stacked()
	return step, last, nil
}

// CurrentTimeStep returns the current timestep with the stacked
// observation
func (f *FrameStack) CurrentTimeStep() ts.TimeStep {
	step := f.Environment.CurrentTimeStep()
	step.Observation = f.stacked()
	return step
}

// ObservationSpec returns the observation specification of the wrapped
// environment, with bounds repeated for each stacked frame
func (f *FrameStack) ObservationSpec() env.Spec {
	spec := f.Environment.ObservationSpec()

	shape := mat.NewVecDense(f.k*f.size, nil)
	lower := make([]float64, f.k*f.size)
	upper := make([]float64, f.k*f.size)
	for i := 0; i < f.k; i++ {
		for j := 0; j < f.size; j++ {
			lower[i*f.size+j] = spec.LowerBound.AtVec(j)
			upper[i*f.size+j] = spec.UpperBound.AtVec(j)
		}
	}

	return env.NewSpec(shape, env.Observation, mat.NewVecDense(f.k*f.size,
		lower), mat.NewVecDense(f.k*f.size, upper), spec.Cardinality)
}

// fill fills the stack with k copies of obs
func (f *FrameStack) fill(obs mat.Vector) {
	for i := 0; i < f.k; i++ {
		for j := 0; j < f.size; j++ {
			f.frames[i*f.size+j] = obs.AtVec(j)
		}
	}
}

// push drops the oldest frame and appends obs
func (f *FrameStack) push(obs mat.Vector) {
	copy(f.frames, f.frames[f.size:])
	offset := (f.k - 1) * f.size
	for j := 0; j < f.size; j++ {
		f.frames[offset+j] = obs.AtVec(j)
	}
}

// stacked returns the current stacked observation
func (f *FrameStack) stacked() mat.Vector {
	out := make([]float64, len(f.frames))
	copy(out, f.frames)
	return mat.NewVecDense(len(out), out)
}
