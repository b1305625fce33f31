// Package mountaincar implements the Mountain Car classic control
// environment
package mountaincar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/revolvedev/revolve/environment"
	ts "github.com/revolvedev/revolve/timestep"
	"github.com/revolvedev/revolve/utils/floatutils"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// MountainCar implements the classic control environment Mountain Car.
// An underpowered car must drive up a steep hill by building momentum.
//
// The environment state is continuous and consists of the car's x
// position and velocity, bounded by the constants defined in this
// package.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Accelerate backward
//	  1		Do nothing
//	  2		Accelerate forward
type MountainCar struct {
	env.Task
	positionBounds r1.Interval
	speedBounds    r1.Interval
	lastStep       ts.TimeStep
	discount       float64
}

// New creates a new MountainCar environment with the argument task
func New(t env.Task, discount float64) (*MountainCar, ts.TimeStep) {
	state := t.Start()
	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	mountainCar := &MountainCar{
		Task:           t,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
		lastStep:       firstStep,
		discount:       discount,
	}

	return mountainCar, firstStep
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (m *MountainCar) Reset() (ts.TimeStep, error) {
	state := m.Start()
	startStep := ts.New(ts.First, 0, m.discount, state, 0)
	m.lastStep = startStep

	return startStep, nil
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (m *MountainCar) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1, 2}", intAction)
	}

	// Map the action to the direction of the applied force
	force := float64(intAction - 1)

	position := m.lastStep.Observation.AtVec(0)
	velocity := m.lastStep.Observation.AtVec(1)

	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.ClipInterval(velocity, m.speedBounds)

	position += velocity
	position = floatutils.ClipInterval(position, m.positionBounds)

	// The car stops dead when hitting the left wall
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	newState := mat.NewVecDense(2, []float64{position, velocity})
	reward := m.GetReward(m.lastStep.Observation, a, newState)
	nextStep := ts.New(ts.Mid, reward, m.discount, newState,
		m.lastStep.Number+1)

	m.End(&nextStep)

	m.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// CurrentTimeStep returns the current timestep of the environment
func (m *MountainCar) CurrentTimeStep() ts.TimeStep {
	return m.lastStep
}

// ActionSpec returns the action specification of the environment
func (m *MountainCar) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (m *MountainCar) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(2, nil)
	lowerBound := mat.NewVecDense(2, []float64{MinPosition, -MaxSpeed})
	upperBound := mat.NewVecDense(2, []float64{MaxPosition, MaxSpeed})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (m *MountainCar) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{m.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

func (m *MountainCar) String() string {
	state := m.lastStep.Observation
	return fmt.Sprintf("MountainCar  |  Position: %v  |  Speed: %v",
		state.AtVec(0), state.AtVec(1))
}
