// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be serialized into YAML configuration files.
package initwfn

import (
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
	"gopkg.in/yaml.v3"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
)

// InitWFn wraps Gorgonia InitWFn so that they can be YAML marshalled
// and unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type, w.Config)
}

// MarshalYAML implements the yaml.Marshaler interface
func (w *InitWFn) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"type":   string(w.Type),
		"config": w.Config,
	}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (w *InitWFn) UnmarshalYAML(unmarshal func(interface{}) error) error {
	config, typeName, err := unmarshalConfig(
		unmarshal,
		"type",
		"config",
		map[string]reflect.Type{
			string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
			string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
			string(HeU):      reflect.TypeOf(HeUConfig{}),
			string(HeN):      reflect.TypeOf(HeNConfig{}),
			string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
			string(Ones):     reflect.TypeOf(OnesConfig{}),
			string(Constant): reflect.TypeOf(ConstantConfig{}),
			string(Uniform):  reflect.TypeOf(UniformConfig{}),
			string(Gaussian): reflect.TypeOf(GaussianConfig{}),
		})
	if err != nil {
		return err
	}

	w.Type = typeName
	w.Config = config
	w.initWFn = w.Config.Create()

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
		return nil, "", fmt.Errorf("unmarshalConfig: no such weight "+
			"initializer type %q", typeName)
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

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}
