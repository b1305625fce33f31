package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

func TestMultiHeadMLPForward(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMultiHeadMLP(2, 1, 3, g, []int{4}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	if net.Features() != 2 {
		t.Errorf("incorrect feature count \n\twant(%v)\n\thave(%v)", 2,
			net.Features())
	}
	if net.Outputs() != 3 {
		t.Errorf("incorrect output count \n\twant(%v)\n\thave(%v)", 3,
			net.Outputs())
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput([]float64{0.5, -0.5}); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	defer vm.Reset()

	// Zero weights predict zero action values
	output := net.Output().Data().([]float64)
	if len(output) != 3 {
		t.Fatalf("incorrect output size \n\twant(%v)\n\thave(%v)", 3,
			len(output))
	}
	for i, v := range output {
		if v != 0 {
			t.Errorf("incorrect prediction for action %v \n\twant(%v)"+
				"\n\thave(%v)", i, 0.0, v)
		}
	}
}

func TestMultiHeadMLPSetInputSize(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMultiHeadMLP(3, 2, 2, g, []int{4}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	if err := net.SetInput([]float64{1, 2, 3}); err == nil {
		t.Error("inputs smaller than the batch should be rejected")
	}
	if err := net.SetInput(make([]float64, 6)); err != nil {
		t.Errorf("batch-sized inputs should be accepted \n\thave(%v)",
			err)
	}
}

func TestMultiHeadMLPCloneWithBatch(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMultiHeadMLP(2, 1, 3, g, []int{4}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	clone, err := net.CloneWithBatch(16)
	if err != nil {
		t.Fatal(err)
	}

	if clone.BatchSize() != 16 {
		t.Errorf("incorrect clone batch size \n\twant(%v)\n\thave(%v)",
			16, clone.BatchSize())
	}
	if clone.Graph() == net.Graph() {
		t.Error("clones should live in their own graph")
	}

	// Clones share weight values, not weight nodes
	original := net.Learnables()
	cloned := clone.Learnables()
	if len(original) != len(cloned) {
		t.Fatalf("incorrect number of cloned learnables \n\twant(%v)"+
			"\n\thave(%v)", len(original), len(cloned))
	}
	for i := range original {
		if original[i] == cloned[i] {
			t.Errorf("learnable %v was not cloned", i)
		}

		want := original[i].Value().Data().([]float64)
		have := cloned[i].Value().Data().([]float64)
		for j := range want {
			if math.Abs(want[j]-have[j]) > 1e-12 {
				t.Errorf("learnable %v weight %v differs \n\twant(%v)"+
					"\n\thave(%v)", i, j, want[j], have[j])
				break
			}
		}
	}
}

func TestDuelingCategoricalMLPUniformAtZero(t *testing.T) {
	g := G.NewGraph()
	net, err := NewDuelingCategoricalMLP(2, 1, 2, g, []int{4},
		[]bool{true}, G.Zeroes(), []*Activation{ReLU()}, 5, -1.0, 1.0,
		false, 0.5, 14)
	if err != nil {
		t.Fatal(err)
	}

	dist, ok := net.(Distributional)
	if !ok {
		t.Fatal("network should predict value distributions")
	}
	if dist.NumAtoms() != 5 {
		t.Errorf("incorrect atom count \n\twant(%v)\n\thave(%v)", 5,
			dist.NumAtoms())
	}

	support := dist.Support()
	wantSupport := []float64{-1.0, -0.5, 0.0, 0.5, 1.0}
	for i := range wantSupport {
		if math.Abs(support[i]-wantSupport[i]) > 1e-12 {
			t.Errorf("incorrect support atom %v \n\twant(%v)\n\thave(%v)",
				i, wantSupport[i], support[i])
		}
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput([]float64{0.25, -0.25}); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	defer vm.Reset()

	// Zero logits give a uniform distribution over the atoms
	probs := net.Output().Data().([]float64)
	if len(probs) != 2*5 {
		t.Fatalf("incorrect output size \n\twant(%v)\n\thave(%v)", 10,
			len(probs))
	}
	for i, p := range probs {
		if math.Abs(p-0.2) > 1e-12 {
			t.Errorf("incorrect probability %v \n\twant(%v)\n\thave(%v)",
				i, 0.2, p)
		}
	}
}
