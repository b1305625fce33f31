// Package experiment implements running experiments: driving the
// agent-environment interaction over a fixed number of training
// episodes, periodically evaluating the agent, and recording the data
// the interaction generates.
package experiment

import (
	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/experiment/checkpointer"
	"github.com/revolvedev/revolve/experiment/tracker"
)

// Experiment runs an agent on an environment and tracks the data
// generated by the interaction
type Experiment interface {
	// Run runs the experiment to completion
	Run() error

	// Save writes all tracked data to disk
	Save() error

	// Register registers a Tracker to track data generated by
	// training episodes
	Register(t tracker.Tracker)

	// RegisterCheckpointer registers a Checkpointer run after each
	// training episode
	RegisterCheckpointer(c checkpointer.Checkpointer)

	Environment() environment.Environment
	Agent() agent.Agent
}

// Config describes the schedule of an experiment: how many training
// episodes to run, how often to interleave evaluation phases, and
// whether to draw episodes to frames
type Config struct {
	// TotalNumEpisodes is the number of training episodes to run
	TotalNumEpisodes int

	// TestInterval is the number of training episodes between
	// evaluation phases. A TestInterval of 0 disables evaluation.
	TestInterval int

	// TestNum is the number of evaluation episodes per evaluation
	// phase
	TestNum int

	RenderTrain bool
	RenderTest  bool

	// Progress draws a progress bar over training episodes
	Progress bool

	// EnvName selects the drawing used when rendering
	EnvName string

	// OutDir is the directory frames are written under
	OutDir string
}
