// Package config loads experiment configuration files. An experiment
// file names the agent components by dotted path, describes the
// environment, and sets the schedule of the experiment:
//
//	agent: revolve.dqn.agent.DQNBaseAgent
//	learner: revolve.dqn.learner.DQNLearner
//	loss: revolve.dqn.loss.CategoricalLoss
//	action_selector: revolve.dqn.action_selector.CategoricalActionSelector
//	device: cpu
//	log_wandb: false
//	env:
//	  name: PongNoFrameskip-v4
//	  is_atari: true
//	  is_discrete: true
//	  frame_stack: 4
//	total_num_episodes: 5000
//	test_interval: 50
//	test_num: 5
//	render_train: false
//	render_test: false
//	defaults:
//	  - hyper_params: rainbow
//	  - models: duelingC51
//
// The defaults block composes the file with fragments: each
// `group: name` entry merges `<group>/<name>.yaml`, resolved relative
// to the experiment file's directory and then its parent, under the
// `group` key. Keys set in the experiment file itself override the
// fragment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/agent/dqn"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/environment/envconfig"
)

// Config groups that defaults entries may name
var knownGroups = map[string]bool{
	"hyper_params": true,
	"models":       true,
	"env":          true,
}

// Default is a single entry of the defaults block, written in the
// configuration file as a single-entry `group: name` mapping
type Default struct {
	Group string
	Name  string
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (d *Default) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var entry map[string]string
	if err := unmarshal(&entry); err != nil {
		return err
	}
	if len(entry) != 1 {
		return fmt.Errorf("unmarshalyaml: defaults entries must be "+
			"single `group: name` mappings \n\thave(%v entries)",
			len(entry))
	}
	for group, name := range entry {
		d.Group = group
		d.Name = name
	}
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface
func (d Default) MarshalYAML() (interface{}, error) {
	return map[string]string{d.Group: d.Name}, nil
}

// Experiment is a fully composed experiment configuration
type Experiment struct {
	Agent          string `yaml:"agent"`
	Learner        string `yaml:"learner"`
	Loss           string `yaml:"loss"`
	ActionSelector string `yaml:"action_selector"`
	Device         string `yaml:"device"`
	LogWandB       bool   `yaml:"log_wandb"`

	Env envconfig.Config `yaml:"env"`

	TotalNumEpisodes int `yaml:"total_num_episodes"`
	TestInterval     int `yaml:"test_interval"`
	TestNum          int `yaml:"test_num"`

	RenderTrain bool `yaml:"render_train"`
	RenderTest  bool `yaml:"render_test"`

	Defaults []Default `yaml:"defaults"`

	HyperParams dqn.HyperParameters `yaml:"hyper_params"`
	Models      dqn.ModelConfig     `yaml:"models"`
}

// Load reads, composes, and validates the experiment file at path.
// Any failure, a missing fragment, an unknown component path, an
// invalid value, aborts the load so that experiments fail before
// allocating environments or networks.
func Load(path string) (*Experiment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not read experiment file: %v",
			err)
	}

	var root map[string]interface{}
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("load: could not parse %v: %v", path, err)
	}

	defaults, err := defaultsOf(root)
	if err != nil {
		return nil, fmt.Errorf("load: %v: %v", path, err)
	}

	// Fragments first, then the experiment file itself on top
	merged := map[string]interface{}{}
	dir := filepath.Dir(path)
	for _, d := range defaults {
		fragment, err := loadFragment(dir, d)
		if err != nil {
			return nil, fmt.Errorf("load: %v: %v", path, err)
		}
		merged[d.Group] = fragment
	}
	for key, value := range root {
		if existing, ok := merged[key]; ok {
			merged[key] = merge(existing, value)
		} else {
			merged[key] = value
		}
	}

	composed, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("load: could not compose %v: %v", path, err)
	}

	experiment := &Experiment{}
	if err := yaml.Unmarshal(composed, experiment); err != nil {
		return nil, fmt.Errorf("load: could not parse composed %v: %v",
			path, err)
	}

	if err := experiment.Validate(); err != nil {
		return nil, fmt.Errorf("load: %v: %v", path, err)
	}
	return experiment, nil
}

// defaultsOf decodes the defaults block of a parsed experiment file
func defaultsOf(root map[string]interface{}) ([]Default, error) {
	rawDefaults, ok := root["defaults"]
	if !ok {
		return nil, nil
	}

	encoded, err := yaml.Marshal(rawDefaults)
	if err != nil {
		return nil, fmt.Errorf("invalid defaults block: %v", err)
	}
	var defaults []Default
	if err := yaml.Unmarshal(encoded, &defaults); err != nil {
		return nil, fmt.Errorf("invalid defaults block: %v", err)
	}

	for _, d := range defaults {
		if !knownGroups[d.Group] {
			return nil, fmt.Errorf("no such config group %q, available "+
				"groups: hyper_params, models, env", d.Group)
		}
	}
	return defaults, nil
}

// loadFragment reads the fragment file of a defaults entry, looking in
// the experiment file's directory and then its parent
func loadFragment(dir string, d Default) (interface{}, error) {
	candidates := []string{
		filepath.Join(dir, d.Group, d.Name+".yaml"),
		filepath.Join(dir, "..", d.Group, d.Name+".yaml"),
	}

	for _, candidate := range candidates {
		raw, err := os.ReadFile(candidate)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read fragment %v: %v",
				candidate, err)
		}

		var fragment interface{}
		if err := yaml.Unmarshal(raw, &fragment); err != nil {
			return nil, fmt.Errorf("could not parse fragment %v: %v",
				candidate, err)
		}
		return fragment, nil
	}

	return nil, fmt.Errorf("no fragment %v/%v.yaml found in %v",
		d.Group, d.Name, candidates)
}

// merge merges override onto base. Mappings merge recursively; any
// other kind of value in override replaces the value in base.
func merge(base, override interface{}) interface{} {
	baseMap, baseOk := base.(map[string]interface{})
	overrideMap, overrideOk := override.(map[string]interface{})
	if !baseOk || !overrideOk {
		return override
	}

	merged := make(map[string]interface{}, len(baseMap))
	for key, value := range baseMap {
		merged[key] = value
	}
	for key, value := range overrideMap {
		if existing, ok := merged[key]; ok {
			merged[key] = merge(existing, value)
		} else {
			merged[key] = value
		}
	}
	return merged
}

// Validate returns an error describing whether or not the experiment
// configuration is valid
func (e *Experiment) Validate() error {
	if e.TotalNumEpisodes <= 0 {
		return fmt.Errorf("validate: total_num_episodes must be "+
			"positive \n\thave(%v)", e.TotalNumEpisodes)
	}
	if e.TestInterval < 0 {
		return fmt.Errorf("validate: test_interval must be "+
			"non-negative \n\thave(%v)", e.TestInterval)
	}
	if e.TestInterval > 0 && e.TestNum <= 0 {
		return fmt.Errorf("validate: test_num must be positive when "+
			"test_interval is set \n\thave(%v)", e.TestNum)
	}

	if err := e.Env.Validate(); err != nil {
		return fmt.Errorf("validate: env: %v", err)
	}

	agentConfig := e.AgentConfig()
	if err := agentConfig.Validate(); err != nil {
		return err
	}
	return nil
}

// AgentConfig returns the agent portion of the experiment
// configuration
func (e *Experiment) AgentConfig() dqn.Config {
	return dqn.Config{
		Agent:          e.Agent,
		Learner:        e.Learner,
		Loss:           e.Loss,
		ActionSelector: e.ActionSelector,
		Device:         e.Device,

		HyperParameters: e.HyperParams,
		Model:           e.Models,
	}
}

// CreateAgent creates the agent the experiment configuration describes
func (e *Experiment) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return e.AgentConfig().CreateAgent(env, seed)
}
