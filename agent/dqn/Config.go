// Package dqn implements the DQN family of agents, up to and
// including Rainbow: double Q-learning targets, dueling architectures,
// n-step returns, prioritized experience replay, categorical (C51)
// value distributions, and noisy networks.
//
// Components are addressed by dotted path in experiment configuration
// files and registered with the agent package registry:
//
//	agent: revolve.dqn.agent.DQNBaseAgent
//	learner: revolve.dqn.learner.DQNLearner
//	loss: revolve.dqn.loss.CategoricalLoss
//	action_selector: revolve.dqn.action_selector.CategoricalActionSelector
package dqn

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/initwfn"
	"github.com/revolvedev/revolve/network"
	"github.com/revolvedev/revolve/solver"
)

// Registered component paths
const (
	AgentPath   string = "revolve.dqn.agent.DQNBaseAgent"
	LearnerPath string = "revolve.dqn.learner.DQNLearner"

	DQNLossPath         string = "revolve.dqn.loss.DQNLoss"
	CategoricalLossPath string = "revolve.dqn.loss.CategoricalLoss"

	MaxQSelectorPath string = "revolve.dqn.action_selector." +
		"MaxQActionSelector"
	CategoricalSelectorPath string = "revolve.dqn.action_selector." +
		"CategoricalActionSelector"

	MultiHeadModelPath          string = "revolve.models.MultiHeadDQN"
	DuelingModelPath            string = "revolve.models.DuelingDQN"
	DuelingCategoricalModelPath string = "revolve.models.DuelingC51"
)

// Factory types stored in the agent package registry. Each component
// path registers a factory of the matching type.
type (
	// AgentFactory creates an agent from a Config
	AgentFactory func(c Config, e environment.Environment,
		seed uint64) (agent.Agent, error)

	// LearnerFactory creates a learner updating the weights of
	// behaviour
	LearnerFactory func(c Config, behaviour network.NeuralNet,
		seed uint64) (*DQNLearner, error)

	// LossFactory creates a loss from hyperparameters
	LossFactory func(hp HyperParameters) (Loss, error)

	// SelectorFactory creates a greedy action selector from
	// hyperparameters
	SelectorFactory func(hp HyperParameters) (ActionSelector, error)

	// ModelFactory creates a value network on graph g
	ModelFactory func(m ModelConfig, hp HyperParameters, features,
		batch, actions int, g *G.ExprGraph,
		seed uint64) (network.NeuralNet, error)
)

func init() {
	agent.Register(agent.KindAgent, AgentPath, AgentFactory(New))
	agent.Register(agent.KindLearner, LearnerPath,
		LearnerFactory(NewDQNLearner))

	agent.Register(agent.KindLoss, DQNLossPath,
		LossFactory(NewDQNLoss))
	agent.Register(agent.KindLoss, CategoricalLossPath,
		LossFactory(NewCategoricalLoss))

	agent.Register(agent.KindActionSelector, MaxQSelectorPath,
		SelectorFactory(NewMaxQActionSelector))
	agent.Register(agent.KindActionSelector, CategoricalSelectorPath,
		SelectorFactory(NewCategoricalActionSelector))

	agent.Register(agent.KindModel, MultiHeadModelPath,
		ModelFactory(newMultiHeadModel))
	agent.Register(agent.KindModel, DuelingModelPath,
		ModelFactory(newDuelingModel))
	agent.Register(agent.KindModel, DuelingCategoricalModelPath,
		ModelFactory(newDuelingCategoricalModel))
}

// HyperParameters holds the hyperparameters of the DQN agent family.
// It mirrors the hyper_params fragment of the experiment file.
type HyperParameters struct {
	BatchSize           int `yaml:"batch_size"`
	BufferSize          int `yaml:"buffer_size"`
	UpdateStartingPoint int `yaml:"update_starting_point"`
	TrainFreq           int `yaml:"train_freq"`
	MultipleLearn       int `yaml:"multiple_learn"`

	Gamma float64 `yaml:"gamma"`
	NStep int     `yaml:"n_step"`

	UsePER           bool    `yaml:"use_per"`
	PerAlpha         float64 `yaml:"per_alpha"`
	PerBeta          float64 `yaml:"per_beta"`
	PerBetaIncrement float64 `yaml:"per_beta_increment"`
	PerEps           float64 `yaml:"per_eps"`

	Solver *solver.Solver `yaml:"solver"`

	TargetUpdateFreq int     `yaml:"target_update_freq"`
	Tau              float64 `yaml:"tau"`

	MaxEpsilon   float64 `yaml:"max_epsilon"`
	MinEpsilon   float64 `yaml:"min_epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`

	// Categorical value distributions
	VMin     float64 `yaml:"v_min"`
	VMax     float64 `yaml:"v_max"`
	NumAtoms int     `yaml:"num_atoms"`
}

// Validate returns an error describing whether or not the
// hyperparameters are valid
func (hp *HyperParameters) Validate() error {
	if hp.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive \n\thave(%v)",
			hp.BatchSize)
	}
	if hp.BufferSize < hp.BatchSize {
		return fmt.Errorf("buffer_size must be >= batch_size "+
			"\n\twant(>= %v)\n\thave(%v)", hp.BatchSize, hp.BufferSize)
	}
	if hp.Gamma < 0 || hp.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1] \n\thave(%v)", hp.Gamma)
	}
	if hp.NStep < 1 {
		return fmt.Errorf("n_step must be >= 1 \n\thave(%v)", hp.NStep)
	}
	if hp.TrainFreq < 1 {
		return fmt.Errorf("train_freq must be >= 1 \n\thave(%v)",
			hp.TrainFreq)
	}
	if hp.MultipleLearn < 1 {
		hp.MultipleLearn = 1
	}
	if hp.TargetUpdateFreq < 1 {
		return fmt.Errorf("target_update_freq must be >= 1 \n\thave(%v)",
			hp.TargetUpdateFreq)
	}
	if hp.Tau < 0 || hp.Tau > 1 {
		return fmt.Errorf("tau must be in [0, 1] \n\thave(%v)", hp.Tau)
	}
	if hp.MaxEpsilon < hp.MinEpsilon {
		return fmt.Errorf("max_epsilon must be >= min_epsilon "+
			"\n\thave(%v < %v)", hp.MaxEpsilon, hp.MinEpsilon)
	}
	if hp.Solver == nil {
		return fmt.Errorf("a solver is required")
	}
	return nil
}

// ModelConfig describes the value network of the agent. It mirrors the
// models fragment of the experiment file.
type ModelConfig struct {
	Type string `yaml:"type"`

	HiddenSizes []int                 `yaml:"hidden_sizes"`
	Biases      []bool                `yaml:"biases"`
	Activations []*network.Activation `yaml:"activations"`
	Init        *initwfn.InitWFn      `yaml:"init"`

	UseNoisy bool    `yaml:"use_noisy"`
	Sigma0   float64 `yaml:"sigma0"`
}

// Validate returns an error describing whether or not the model
// configuration is valid
func (m *ModelConfig) Validate() error {
	if _, err := agent.Lookup(agent.KindModel, m.Type); err != nil {
		return fmt.Errorf("models.type: %v", err)
	}
	if len(m.HiddenSizes) == 0 {
		return fmt.Errorf("models.hidden_sizes must not be empty")
	}
	if len(m.Biases) != len(m.HiddenSizes) {
		return fmt.Errorf("models.biases: invalid length \n\twant(%v)"+
			"\n\thave(%v)", len(m.HiddenSizes), len(m.Biases))
	}
	if len(m.Activations) != len(m.HiddenSizes) {
		return fmt.Errorf("models.activations: invalid length "+
			"\n\twant(%v)\n\thave(%v)", len(m.HiddenSizes),
			len(m.Activations))
	}
	if m.Init == nil {
		return fmt.Errorf("models.init is required")
	}
	if m.Sigma0 == 0 {
		m.Sigma0 = network.DefaultSigma0
	}
	return nil
}

// Config describes a DQN-family agent: the component paths naming the
// agent, learner, loss, and action selector implementations, together
// with the hyperparameter and model fragments.
type Config struct {
	Agent          string `yaml:"agent"`
	Learner        string `yaml:"learner"`
	Loss           string `yaml:"loss"`
	ActionSelector string `yaml:"action_selector"`
	Device         string `yaml:"device"`

	HyperParameters HyperParameters `yaml:"hyper_params"`
	Model           ModelConfig     `yaml:"models"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c *Config) Validate() error {
	if _, err := agent.Lookup(agent.KindAgent, c.Agent); err != nil {
		return fmt.Errorf("validate: agent: %v", err)
	}
	if _, err := agent.Lookup(agent.KindLearner, c.Learner); err != nil {
		return fmt.Errorf("validate: learner: %v", err)
	}
	if _, err := agent.Lookup(agent.KindLoss, c.Loss); err != nil {
		return fmt.Errorf("validate: loss: %v", err)
	}
	if _, err := agent.Lookup(agent.KindActionSelector,
		c.ActionSelector); err != nil {
		return fmt.Errorf("validate: action_selector: %v", err)
	}

	// Gorgonia tape machines run on the CPU only
	if c.Device != "" && c.Device != "cpu" {
		return fmt.Errorf("validate: device %q is not supported, only "+
			"\"cpu\"", c.Device)
	}

	if err := c.HyperParameters.Validate(); err != nil {
		return fmt.Errorf("validate: hyper_params: %v", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	if c.Loss == CategoricalLossPath && c.HyperParameters.NumAtoms < 2 {
		return fmt.Errorf("validate: categorical loss requires "+
			"num_atoms >= 2 \n\thave(%v)", c.HyperParameters.NumAtoms)
	}
	return nil
}

// CreateAgent creates the agent that the config describes
func (c Config) CreateAgent(e environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createagent: %v", err)
	}

	factory, err := agent.Lookup(agent.KindAgent, c.Agent)
	if err != nil {
		return nil, fmt.Errorf("createagent: %v", err)
	}
	create, ok := factory.(AgentFactory)
	if !ok {
		return nil, fmt.Errorf("createagent: %q is not a DQN-family "+
			"agent", c.Agent)
	}
	return create(c, e, seed)
}

// ValidAgent returns whether the argument agent is valid for the
// Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DQNBaseAgent)
	return ok
}

// model creates the value network the config describes on graph g
func (c Config) model(features, batch, actions int, g *G.ExprGraph,
	seed uint64) (network.NeuralNet, error) {
	factory, err := agent.Lookup(agent.KindModel, c.Model.Type)
	if err != nil {
		return nil, err
	}
	create, ok := factory.(ModelFactory)
	if !ok {
		return nil, fmt.Errorf("model: %q is not a DQN-family model",
			c.Model.Type)
	}
	return create(c.Model, c.HyperParameters, features, batch, actions, g,
		seed)
}

// loss creates the loss the config describes
func (c Config) loss() (Loss, error) {
	factory, err := agent.Lookup(agent.KindLoss, c.Loss)
	if err != nil {
		return nil, err
	}
	create, ok := factory.(LossFactory)
	if !ok {
		return nil, fmt.Errorf("loss: %q is not a DQN-family loss", c.Loss)
	}
	return create(c.HyperParameters)
}

// selector creates the greedy action selector the config describes
func (c Config) selector() (ActionSelector, error) {
	factory, err := agent.Lookup(agent.KindActionSelector,
		c.ActionSelector)
	if err != nil {
		return nil, err
	}
	create, ok := factory.(SelectorFactory)
	if !ok {
		return nil, fmt.Errorf("selector: %q is not a DQN-family action "+
			"selector", c.ActionSelector)
	}
	return create(c.HyperParameters)
}

// newMultiHeadModel creates a flat action-value network
func newMultiHeadModel(m ModelConfig, hp HyperParameters, features,
	batch, actions int, g *G.ExprGraph,
	seed uint64) (network.NeuralNet, error) {
	return network.NewMultiHeadMLP(features, batch, actions, g,
		m.HiddenSizes, m.Biases, m.Init.InitWFn(), m.Activations)
}

// newDuelingModel creates a dueling action-value network
func newDuelingModel(m ModelConfig, hp HyperParameters, features, batch,
	actions int, g *G.ExprGraph, seed uint64) (network.NeuralNet, error) {
	return network.NewDuelingMLP(features, batch, actions, g,
		m.HiddenSizes, m.Biases, m.Init.InitWFn(), m.Activations,
		m.UseNoisy, m.Sigma0, seed)
}

// newDuelingCategoricalModel creates a dueling categorical (C51)
// network
func newDuelingCategoricalModel(m ModelConfig, hp HyperParameters,
	features, batch, actions int, g *G.ExprGraph,
	seed uint64) (network.NeuralNet, error) {
	return network.NewDuelingCategoricalMLP(features, batch, actions, g,
		m.HiddenSizes, m.Biases, m.Init.InitWFn(), m.Activations,
		hp.NumAtoms, hp.VMin, hp.VMax, m.UseNoisy, m.Sigma0, seed)
}
