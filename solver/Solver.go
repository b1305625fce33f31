// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be serialized into YAML configuration files.
package solver

import (
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
	"gopkg.in/yaml.v3"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	RMSProp Type = "RMSProp"
	Vanilla Type = "Vanilla"
)

// Solver wraps Gorgonia Solvers so that they can be YAML marshalled
// and unmarshalled in configuration files.
type Solver struct {
	G.Solver `yaml:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// MarshalYAML implements the yaml.Marshaler interface
func (s *Solver) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"type":   string(s.Type),
		"config": s.Config,
	}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (s *Solver) UnmarshalYAML(unmarshal func(interface{}) error) error {
	config, typeName, err := unmarshalConfig(
		unmarshal,
		"type",
		"config",
		map[string]reflect.Type{
			string(Vanilla): reflect.TypeOf(VanillaConfig{}),
			string(Adam):    reflect.TypeOf(AdamConfig{}),
			string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(unmarshal func(interface{}) error, typeField,
	valueField string, customTypes map[string]reflect.Type) (Config, Type,
	error) {
	m := map[string]interface{}{}
	if err := unmarshal(&m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing or invalid "+
			"%q field", typeField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: no such solver type "+
			"%q", typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := yaml.Marshal(m[valueField])
	if err != nil {
		return nil, "", err
	}
	if err := yaml.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}

	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)
	return concreteValue, Type(typeName), nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create the Gorgonia Solvers it describes.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}
