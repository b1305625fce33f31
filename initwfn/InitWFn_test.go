package initwfn

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitWFnYAMLRoundTrip(t *testing.T) {
	glorot, err := NewGlorotU(1.5)
	if err != nil {
		t.Fatal(err)
	}

	data, err := yaml.Marshal(glorot)
	if err != nil {
		t.Fatal(err)
	}

	var decoded InitWFn
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Type != GlorotU {
		t.Errorf("incorrect type \n\twant(%v)\n\thave(%v)", GlorotU,
			decoded.Type)
	}
	config, ok := decoded.Config.(GlorotUConfig)
	if !ok {
		t.Fatalf("incorrect config type %T", decoded.Config)
	}
	if config.Gain != 1.5 {
		t.Errorf("incorrect gain \n\twant(%v)\n\thave(%v)", 1.5,
			config.Gain)
	}
	if decoded.InitWFn() == nil {
		t.Error("decoding should create the wrapped InitWFn")
	}
}

func TestInitWFnUnmarshalTypes(t *testing.T) {
	tests := []struct {
		yaml     string
		wantType Type
	}{
		{"type: GlorotN\nconfig:\n  gain: 1.0\n", GlorotN},
		{"type: HeU\nconfig:\n  gain: 1.0\n", HeU},
		{"type: Zeroes\nconfig: {}\n", Zeroes},
		{"type: Constant\nconfig:\n  value: 0.5\n", Constant},
		{"type: Uniform\nconfig:\n  low: -1.0\n  high: 1.0\n", Uniform},
		{
			"type: Gaussian\nconfig:\n  mean: 0.0\n  stddev: 0.1\n",
			Gaussian,
		},
	}

	for _, test := range tests {
		var w InitWFn
		if err := yaml.Unmarshal([]byte(test.yaml), &w); err != nil {
			t.Fatalf("%v: %v", test.wantType, err)
		}
		if w.Type != test.wantType {
			t.Errorf("incorrect type \n\twant(%v)\n\thave(%v)",
				test.wantType, w.Type)
		}
		if w.InitWFn() == nil {
			t.Errorf("%v: no wrapped InitWFn created", test.wantType)
		}
	}
}

func TestInitWFnUnmarshalUnknownType(t *testing.T) {
	var w InitWFn
	err := yaml.Unmarshal([]byte("type: Orthogonal\nconfig: {}\n"), &w)
	if err == nil {
		t.Error("unknown initializer types should be rejected")
	}
}
