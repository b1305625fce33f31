package dqn

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/revolvedev/revolve/expreplay"
	"github.com/revolvedev/revolve/network"
)

func TestProjectDistribution(t *testing.T) {
	support := []float64{-1.0, 0.0, 1.0}

	tests := []struct {
		name     string
		dist     []float64
		reward   float64
		discount float64
		want     []float64
	}{
		{
			// Zero reward and full bootstrap leave atoms in place
			name:     "identity",
			dist:     []float64{0.2, 0.5, 0.3},
			reward:   0.0,
			discount: 1.0,
			want:     []float64{0.2, 0.5, 0.3},
		},
		{
			// A terminal transition collapses all mass onto the
			// reward
			name:     "terminal",
			dist:     []float64{0.2, 0.5, 0.3},
			reward:   0.0,
			discount: 0.0,
			want:     []float64{0.0, 1.0, 0.0},
		},
		{
			// The atom at -1 shifts to -0.5, splitting its mass
			// evenly between the atoms at -1 and 0
			name:     "half shift",
			dist:     []float64{1.0, 0.0, 0.0},
			reward:   0.5,
			discount: 1.0,
			want:     []float64{0.5, 0.5, 0.0},
		},
		{
			// Atoms shifted past the support clamp to its bounds
			name:     "clamp above",
			dist:     []float64{0.2, 0.5, 0.3},
			reward:   10.0,
			discount: 1.0,
			want:     []float64{0.0, 0.0, 1.0},
		},
		{
			name:     "clamp below",
			dist:     []float64{0.2, 0.5, 0.3},
			reward:   -10.0,
			discount: 1.0,
			want:     []float64{1.0, 0.0, 0.0},
		},
		{
			name:     "terminal with reward",
			dist:     []float64{0.1, 0.1, 0.8},
			reward:   -0.5,
			discount: 0.0,
			want:     []float64{0.5, 0.5, 0.0},
		},
	}

	for _, test := range tests {
		out := make([]float64, len(support))
		projectDistribution(test.dist, support, test.reward,
			test.discount, out)

		total := 0.0
		for i := range out {
			if math.Abs(out[i]-test.want[i]) > 1e-12 {
				t.Errorf("%v: incorrect mass at atom %v \n\twant(%v)"+
					"\n\thave(%v)", test.name, i, test.want[i], out[i])
			}
			total += out[i]
		}
		if math.Abs(total-1.0) > 1e-12 {
			t.Errorf("%v: projection should conserve probability mass "+
				"\n\twant(%v)\n\thave(%v)", test.name, 1.0, total)
		}
	}
}

func TestDQNLossHuber(t *testing.T) {
	g := G.NewGraph()
	net, err := network.NewMultiHeadMLP(2, 2, 2, g, []int{4},
		[]bool{true}, G.Zeroes(), []*network.Activation{network.ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	loss, err := NewDQNLoss(HyperParameters{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loss.Attach(net); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()

	if err := net.SetInput(make([]float64, 4)); err != nil {
		t.Fatal(err)
	}

	// A zero network predicts Q = 0 everywhere, so with terminal
	// transitions the TD error is exactly the reward
	batch := &expreplay.Batch{
		States:     make([]float64, 4),
		Actions:    []float64{0, 1},
		Rewards:    []float64{0.5, 3.0},
		Discounts:  []float64{0.0, 0.0},
		NextStates: make([]float64, 4),
		Indices:    []int{0, 1},
		Weights:    []float64{1.0, 1.0},
	}
	next := tensor.New(tensor.WithBacking(make([]float64, 4)),
		tensor.WithShape(2, 2))
	if err := loss.SetBatch(batch, next, next); err != nil {
		t.Fatal(err)
	}

	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	defer vm.Reset()

	// Quadratic below a unit error, linear above it
	want := []float64{0.5 * 0.5 * 0.5, 3.0 - 0.5}
	have := loss.ElementLoss()
	if len(have) != len(want) {
		t.Fatalf("incorrect number of element losses \n\twant(%v)"+
			"\n\thave(%v)", len(want), len(have))
	}
	for i := range want {
		if math.Abs(have[i]-want[i]) > 1e-12 {
			t.Errorf("incorrect element loss %v \n\twant(%v)\n\thave(%v)",
				i, want[i], have[i])
		}
	}
}

func TestProjectDistributionDiscounted(t *testing.T) {
	support := []float64{-1.0, 0.0, 1.0}

	// A discount of 0.5 moves the atom at 1 to 0.5, splitting its mass
	// between the atoms at 0 and 1
	out := make([]float64, len(support))
	projectDistribution([]float64{0.0, 0.0, 1.0}, support, 0.0, 0.5, out)

	want := []float64{0.0, 0.5, 0.5}
	for i := range out {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("incorrect mass at atom %v \n\twant(%v)\n\thave(%v)",
				i, want[i], out[i])
		}
	}
}
