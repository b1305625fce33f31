package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revolvedev/revolve/agent/dqn"
)

const testHyperParams = `
batch_size: 32
buffer_size: 1000
update_starting_point: 100
train_freq: 1
multiple_learn: 1

gamma: 0.99
n_step: 3

use_per: true
per_alpha: 0.6
per_beta: 0.4
per_beta_increment: 0.0001
per_eps: 0.000001

solver:
  type: Adam
  config:
    step_size: 0.001
    epsilon: 1e-8
    beta1: 0.9
    beta2: 0.999
    batch: 32
    clip: -1.0

target_update_freq: 100
tau: 1.0

max_epsilon: 0.0
min_epsilon: 0.0
epsilon_decay: 0.0

v_min: -10.0
v_max: 10.0
num_atoms: 51
`

const testModels = `
type: revolve.models.DuelingC51

hidden_sizes: [64, 64]
biases: [true, true]
activations: [relu, relu]

init:
  type: GlorotU
  config:
    gain: 1.0

use_noisy: true
sigma0: 0.5
`

const testExperiment = `
agent: revolve.dqn.agent.DQNBaseAgent
learner: revolve.dqn.learner.DQNLearner
loss: revolve.dqn.loss.CategoricalLoss
action_selector: revolve.dqn.action_selector.CategoricalActionSelector
device: cpu
log_wandb: false

env:
  name: CartPole
  is_atari: false
  is_discrete: true
  frame_stack: 1

total_num_episodes: 100
test_interval: 10
test_num: 5

render_train: false
render_test: false

defaults:
  - hyper_params: rainbow
  - models: duelingC51
`

// writeConfigs lays out an experiment file and its fragments in a
// temporary directory, returning the experiment file's path
func writeConfigs(t *testing.T, experiment string) string {
	t.Helper()
	dir := t.TempDir()

	write := func(relative, content string) {
		t.Helper()
		path := filepath.Join(dir, relative)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("hyper_params/rainbow.yaml", testHyperParams)
	write("models/duelingC51.yaml", testModels)
	write("experiment.yaml", experiment)

	return filepath.Join(dir, "experiment.yaml")
}

func TestLoadComposesFragments(t *testing.T) {
	path := writeConfigs(t, testExperiment)

	experiment, err := Load(path)
	require.NoError(t, err)

	// Values of the experiment file itself
	require.Equal(t, dqn.AgentPath, experiment.Agent)
	require.Equal(t, dqn.CategoricalLossPath, experiment.Loss)
	require.Equal(t, "CartPole", experiment.Env.Name)
	require.Equal(t, 100, experiment.TotalNumEpisodes)
	require.Equal(t, 10, experiment.TestInterval)
	require.Equal(t, 5, experiment.TestNum)

	// Values composed in from the fragments
	require.Equal(t, 32, experiment.HyperParams.BatchSize)
	require.Equal(t, 3, experiment.HyperParams.NStep)
	require.Equal(t, 51, experiment.HyperParams.NumAtoms)
	require.NotNil(t, experiment.HyperParams.Solver)
	require.Equal(t, dqn.DuelingCategoricalModelPath,
		experiment.Models.Type)
	require.Equal(t, []int{64, 64}, experiment.Models.HiddenSizes)
	require.True(t, experiment.Models.UseNoisy)
}

func TestLoadExperimentOverridesFragment(t *testing.T) {
	override := testExperiment + `
hyper_params:
  v_min: 0.0
  v_max: 200.0
  batch_size: 16
`
	path := writeConfigs(t, override)

	experiment, err := Load(path)
	require.NoError(t, err)

	// Overridden keys come from the experiment file
	require.Equal(t, 0.0, experiment.HyperParams.VMin)
	require.Equal(t, 200.0, experiment.HyperParams.VMax)
	require.Equal(t, 16, experiment.HyperParams.BatchSize)

	// Untouched keys still come from the fragment
	require.Equal(t, 51, experiment.HyperParams.NumAtoms)
	require.Equal(t, 1000, experiment.HyperParams.BufferSize)
}

func TestLoadResolvesFragmentsInParentDirectory(t *testing.T) {
	path := writeConfigs(t, testExperiment)
	dir := filepath.Dir(path)

	// An experiment file in a subdirectory uses the parent's fragments
	nested := filepath.Join(dir, "atari", "experiment.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte(testExperiment), 0o644))

	experiment, err := Load(nested)
	require.NoError(t, err)
	require.Equal(t, 32, experiment.HyperParams.BatchSize)
}

func TestLoadMissingFragment(t *testing.T) {
	experiment := `
defaults:
  - hyper_params: nonexistent
`
	path := writeConfigs(t, experiment)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nonexistent")
}

func TestLoadUnknownGroup(t *testing.T) {
	experiment := `
defaults:
  - optimizers: adam
`
	path := writeConfigs(t, experiment)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "optimizers")
}

func TestLoadUnknownComponentPath(t *testing.T) {
	bad := `
agent: revolve.dqn.agent.DQNBaseAgent
learner: revolve.dqn.learner.DQNLearner
loss: revolve.dqn.loss.QuantileLoss
action_selector: revolve.dqn.action_selector.CategoricalActionSelector
device: cpu

env:
  name: CartPole
  is_discrete: true

total_num_episodes: 100
test_interval: 10
test_num: 5

defaults:
  - hyper_params: rainbow
  - models: duelingC51
`
	path := writeConfigs(t, bad)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "QuantileLoss")
}

func TestLoadInvalidSchedule(t *testing.T) {
	bad := `
agent: revolve.dqn.agent.DQNBaseAgent
learner: revolve.dqn.learner.DQNLearner
loss: revolve.dqn.loss.CategoricalLoss
action_selector: revolve.dqn.action_selector.CategoricalActionSelector
device: cpu

env:
  name: CartPole
  is_discrete: true

total_num_episodes: 0

defaults:
  - hyper_params: rainbow
  - models: duelingC51
`
	path := writeConfigs(t, bad)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "total_num_episodes")
}
