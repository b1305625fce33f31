// Package envconfig provides configuration structs for constructing
// environments from experiment configuration files.
package envconfig

import (
	"fmt"

	env "github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/environment/classiccontrol/cartpole"
	"github.com/revolvedev/revolve/environment/classiccontrol/mountaincar"
	"github.com/revolvedev/revolve/environment/gym"
	"github.com/revolvedev/revolve/environment/wrappers"
	ts "github.com/revolvedev/revolve/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// Environments implemented natively. Any other name is constructed
// through the gym package.
const (
	CartPole    string = "CartPole"
	MountainCar string = "MountainCar"
)

// Config describes the environment an experiment runs on. It mirrors
// the env block of the experiment file:
//
//	env:
//	  name: PongNoFrameskip-v4
//	  is_atari: true
//	  is_discrete: true
//	  frame_stack: 4
type Config struct {
	Name       string `yaml:"name"`
	IsAtari    bool   `yaml:"is_atari"`
	IsDiscrete bool   `yaml:"is_discrete"`
	FrameStack int    `yaml:"frame_stack"`

	// Episode cutoff and discount are engine-side settings with
	// defaults applied by Validate
	EpisodeCutoff int     `yaml:"episode_cutoff"`
	Discount      float64 `yaml:"discount"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("validate: env.name is required")
	}
	if !c.IsDiscrete {
		return fmt.Errorf("validate: environment %v: only discrete "+
			"action environments are supported", c.Name)
	}
	if c.FrameStack < 0 {
		return fmt.Errorf("validate: env.frame_stack must be "+
			"non-negative \n\thave(%v)", c.FrameStack)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: env.discount must be in [0, 1] "+
			"\n\thave(%v)", c.Discount)
	}

	if c.EpisodeCutoff == 0 {
		c.EpisodeCutoff = 500
	}
	if c.Discount == 0 {
		c.Discount = 0.99
	}
	if c.FrameStack == 0 {
		c.FrameStack = 1
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	var e env.Environment
	var first ts.TimeStep
	var err error

	switch c.Name {
	case CartPole:
		e, first = createCartPole(c.EpisodeCutoff, seed, c.Discount)

	case MountainCar:
		e, first = createMountainCar(c.EpisodeCutoff, seed, c.Discount)

	default:
		// Anything else, Atari included, is reached through gym
		e, first, err = gym.New(c.Name, c.Discount, seed)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
		}
	}

	if c.IsAtari {
		e = wrappers.NewClipReward(e, -1.0, 1.0)
	}

	if c.FrameStack > 1 {
		e, err = wrappers.NewFrameStack(e, c.FrameStack)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
		}
		first = e.CurrentTimeStep()
	}

	return e, first, nil
}

// createCartPole is a factory for creating the CartPole environment
// with default physical parameters and the Balance task
func createCartPole(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	starter := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	task := cartpole.NewBalance(starter, cutoff, cartpole.FailAngle)
	return cartpole.New(task, discount)
}

// createMountainCar is a factory for creating the MountainCar
// environment with default physical parameters and the Goal task
func createMountainCar(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	starter := mountaincar.NewDefaultStarter(seed)
	task := mountaincar.NewGoal(starter, cutoff, mountaincar.GoalPosition)
	return mountaincar.New(task, discount)
}
