package dqn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/expreplay"
	"github.com/revolvedev/revolve/network"
	ts "github.com/revolvedev/revolve/timestep"
	"github.com/revolvedev/revolve/utils/intutils"
)

// DQNBaseAgent is the interaction loop of the DQN agent family. It
// selects actions with a batch-1 behaviour network, accumulates
// observed transitions through an n-step queue into a replay buffer,
// and delegates weight updates to a DQNLearner on the train_freq
// schedule once update_starting_point transitions have accumulated.
type DQNBaseAgent struct {
	behaviour   network.NeuralNet
	behaviourVM G.VM

	greedy  ActionSelector
	egreedy *EpsGreedy

	learner *DQNLearner
	replay  expreplay.ExperienceReplayer
	nstep   *nstepQueue

	trainFreq           int
	updateStartingPoint int
	multipleLearn       int
	usePER              bool

	numActions int
	totalSteps int

	currentStep ts.TimeStep
	eval        bool
}

// New creates and returns a new DQNBaseAgent
func New(c Config, env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("new: actions must be 1-dimensional")
	}
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("new: actions must be enumerated " +
			"starting from 0")
	}

	hp := c.HyperParameters
	features := env.ObservationSpec().Shape.Len()
	numActions := env.ActionSpec().NumActions()

	// Behaviour network for selecting actions
	g := G.NewGraph()
	behaviour, err := c.model(features, 1, numActions, g, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"network: %v", err)
	}
	behaviourVM := G.NewTapeMachine(g)

	learnerFactory, err := agent.Lookup(agent.KindLearner, c.Learner)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	createLearner, ok := learnerFactory.(LearnerFactory)
	if !ok {
		return nil, fmt.Errorf("new: %q is not a DQN-family learner",
			c.Learner)
	}
	learner, err := createLearner(c, behaviour, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	greedy, err := c.selector()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	egreedy := NewEpsGreedy(greedy, hp, numActions, int64(seed))

	// The replay buffer stores actions as scalar indices
	sampleMethod := expreplay.Uniform
	if hp.UsePER {
		sampleMethod = expreplay.Prioritized
	}
	replay, err := expreplay.Config{
		SampleMethod:      sampleMethod,
		SampleSize:        hp.BatchSize,
		MaxReplayCapacity: hp.BufferSize,
		MinReplayCapacity: intutils.Max(hp.UpdateStartingPoint,
			hp.BatchSize),

		Alpha:         hp.PerAlpha,
		Beta:          hp.PerBeta,
		BetaIncrement: hp.PerBetaIncrement,
		Epsilon:       hp.PerEps,
	}.Create(features, 1, int64(seed))
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DQNBaseAgent{
		behaviour:   behaviour,
		behaviourVM: behaviourVM,

		greedy:  greedy,
		egreedy: egreedy,

		learner: learner,
		replay:  replay,
		nstep:   newNstepQueue(hp.NStep, hp.Gamma),

		trainFreq:           hp.TrainFreq,
		updateStartingPoint: hp.UpdateStartingPoint,
		multipleLearn:       hp.MultipleLearn,
		usePER:              hp.UsePER,

		numActions: numActions,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DQNBaseAgent) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first "+
			"of an episode", t.Number)
	}
	d.currentStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep
func (d *DQNBaseAgent) Observe(action mat.Vector,
	nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions \n\thave(%v)", action.Len())
	}

	if !d.eval {
		transition := ts.NewTransition(d.currentStep, action, nextStep)
		if nstepTransition, full := d.nstep.push(transition); full {
			if err := d.replay.Add(nstepTransition); err != nil {
				return fmt.Errorf("observe: %v", err)
			}
		}
	}

	d.currentStep = nextStep
	return nil
}

// EndEpisode flushes the pending n-step transitions into the replay
// buffer
func (d *DQNBaseAgent) EndEpisode() error {
	for _, transition := range d.nstep.flush() {
		if err := d.replay.Add(transition); err != nil {
			return fmt.Errorf("endepisode: %v", err)
		}
	}
	return nil
}

// Step updates the weights of the agent's policies on the training
// schedule: every trainFreq environment steps, once the replay buffer
// holds updateStartingPoint transitions.
func (d *DQNBaseAgent) Step() error {
	if d.eval {
		return nil
	}

	d.totalSteps++
	if d.replay.Capacity() < d.updateStartingPoint {
		return nil
	}
	if d.totalSteps%d.trainFreq != 0 {
		return nil
	}

	for i := 0; i < d.multipleLearn; i++ {
		batch, err := d.replay.Sample()
		if expreplay.IsEmptyBuffer(err) ||
			expreplay.IsInsufficientSamples(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("step: %v", err)
		}

		elementLoss, err := d.learner.Step(batch)
		if err != nil {
			return fmt.Errorf("step: %v", err)
		}

		if d.usePER {
			err = d.replay.UpdatePriorities(batch.Indices, elementLoss)
			if err != nil {
				return fmt.Errorf("step: %v", err)
			}
		}
	}

	// The behaviour policy acts with the newly learned weights
	if err := d.learner.SyncInto(d.behaviour); err != nil {
		return fmt.Errorf("step: could not sync behaviour network: %v",
			err)
	}
	d.egreedy.Decay()

	return nil
}

// SelectAction runs the behaviour network and returns the selected
// action. In training mode, actions are ε-greedy with fresh network
// noise; in evaluation mode, actions are greedy.
func (d *DQNBaseAgent) SelectAction(t ts.TimeStep) *mat.VecDense {
	if !d.eval {
		// Fresh noise on every action keeps noisy-network
		// exploration state-dependent
		if err := d.behaviour.ResampleNoise(); err != nil {
			panic(fmt.Sprintf("selectaction: %v", err))
		}
	}

	if err := d.behaviour.SetInput(vecData(t.Observation)); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	selector := ActionSelector(d.egreedy)
	if d.eval {
		selector = d.greedy
	}
	action, err := selector.SelectAction(d.behaviour.Output())
	d.behaviourVM.Reset()
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	return mat.NewVecDense(1, []float64{float64(action)})
}

// Eval sets the agent to evaluation mode
func (d *DQNBaseAgent) Eval() { d.eval = true }

// Train sets the agent to training mode
func (d *DQNBaseAgent) Train() { d.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (d *DQNBaseAgent) IsEval() bool { return d.eval }

// TotalSteps returns the number of environment steps observed so far
func (d *DQNBaseAgent) TotalSteps() int { return d.totalSteps }

// Epsilon returns the current exploration ε of the behaviour policy
func (d *DQNBaseAgent) Epsilon() float64 { return d.egreedy.Epsilon() }

// Close closes the agent's virtual machines
func (d *DQNBaseAgent) Close() error {
	if err := d.behaviourVM.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return d.learner.Close()
}

// vecData copies the elements of v into a []float64
func vecData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
