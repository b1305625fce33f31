package solver

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSolverYAMLRoundTrip(t *testing.T) {
	adam, err := NewAdam(0.001, 1e-8, 0.9, 0.999, 32, -1.0)
	if err != nil {
		t.Fatal(err)
	}

	data, err := yaml.Marshal(adam)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Solver
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Type != Adam {
		t.Errorf("incorrect solver type \n\twant(%v)\n\thave(%v)", Adam,
			decoded.Type)
	}
	config, ok := decoded.Config.(AdamConfig)
	if !ok {
		t.Fatalf("incorrect config type %T", decoded.Config)
	}
	if config != adam.Config.(AdamConfig) {
		t.Errorf("incorrect config \n\twant(%v)\n\thave(%v)",
			adam.Config, config)
	}
	if decoded.Solver == nil {
		t.Error("decoding should create the wrapped solver")
	}
}

func TestSolverUnmarshalConfigs(t *testing.T) {
	tests := []struct {
		yaml     string
		wantType Type
	}{
		{
			yaml: "type: Adam\nconfig:\n  step_size: 0.001\n  " +
				"epsilon: 1e-8\n  beta1: 0.9\n  beta2: 0.999\n  " +
				"batch: 16\n  clip: -1.0\n",
			wantType: Adam,
		},
		{
			yaml: "type: RMSProp\nconfig:\n  step_size: 0.001\n  " +
				"epsilon: 1e-8\n  rho: 0.99\n  batch: 16\n  clip: -1.0\n",
			wantType: RMSProp,
		},
		{
			yaml: "type: Vanilla\nconfig:\n  step_size: 0.01\n  " +
				"batch: 16\n  clip: -1.0\n",
			wantType: Vanilla,
		},
	}

	for _, test := range tests {
		var s Solver
		if err := yaml.Unmarshal([]byte(test.yaml), &s); err != nil {
			t.Fatalf("%v: %v", test.wantType, err)
		}
		if s.Type != test.wantType {
			t.Errorf("incorrect type \n\twant(%v)\n\thave(%v)",
				test.wantType, s.Type)
		}
		if s.Solver == nil {
			t.Errorf("%v: no wrapped solver created", test.wantType)
		}
	}
}

func TestSolverUnmarshalUnknownType(t *testing.T) {
	var s Solver
	err := yaml.Unmarshal([]byte("type: Momentum\nconfig: {}\n"), &s)
	if err == nil {
		t.Error("unknown solver types should be rejected")
	}
}
