package dqn

import (
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func TestMaxQActionSelector(t *testing.T) {
	selector, err := NewMaxQActionSelector(HyperParameters{})
	if err != nil {
		t.Fatal(err)
	}

	output := tensor.New(
		tensor.WithBacking([]float64{-1.0, 3.0, 2.0}),
		tensor.WithShape(1, 3),
	)

	action, err := selector.SelectAction(output)
	if err != nil {
		t.Fatal(err)
	}
	if action != 1 {
		t.Errorf("incorrect greedy action \n\twant(%v)\n\thave(%v)", 1,
			action)
	}
}

func TestCategoricalActionSelector(t *testing.T) {
	selector, err := NewCategoricalActionSelector(HyperParameters{
		VMin:     -1.0,
		VMax:     1.0,
		NumAtoms: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Action 0 concentrates on -1, action 1 on +1
	output := tensor.New(
		tensor.WithBacking([]float64{
			1.0, 0.0, 0.0,
			0.0, 0.0, 1.0,
		}),
		tensor.WithShape(1, 2, 3),
	)

	action, err := selector.SelectAction(output)
	if err != nil {
		t.Fatal(err)
	}
	if action != 1 {
		t.Errorf("incorrect greedy action \n\twant(%v)\n\thave(%v)", 1,
			action)
	}
}

func TestCategoricalActionSelectorInvalid(t *testing.T) {
	if _, err := NewCategoricalActionSelector(HyperParameters{
		VMin:     -1.0,
		VMax:     1.0,
		NumAtoms: 1,
	}); err == nil {
		t.Error("fewer than 2 atoms should be rejected")
	}

	if _, err := NewCategoricalActionSelector(HyperParameters{
		VMin:     1.0,
		VMax:     -1.0,
		NumAtoms: 51,
	}); err == nil {
		t.Error("an empty support should be rejected")
	}
}

func TestEpsGreedyDecay(t *testing.T) {
	greedy, err := NewMaxQActionSelector(HyperParameters{})
	if err != nil {
		t.Fatal(err)
	}

	egreedy := NewEpsGreedy(greedy, HyperParameters{
		MaxEpsilon:   1.0,
		MinEpsilon:   0.5,
		EpsilonDecay: 0.3,
	}, 2, 1)

	wantEps := []float64{0.7, 0.5, 0.5}
	for _, want := range wantEps {
		egreedy.Decay()
		if math.Abs(egreedy.Epsilon()-want) > 1e-12 {
			t.Errorf("incorrect annealed epsilon \n\twant(%v)"+
				"\n\thave(%v)", want, egreedy.Epsilon())
		}
	}
}

func TestEpsGreedyExplores(t *testing.T) {
	greedy, err := NewMaxQActionSelector(HyperParameters{})
	if err != nil {
		t.Fatal(err)
	}

	// With epsilon of 1, every action is uniformly random
	egreedy := NewEpsGreedy(greedy, HyperParameters{
		MaxEpsilon: 1.0,
		MinEpsilon: 1.0,
	}, 3, 1)

	output := tensor.New(
		tensor.WithBacking([]float64{10.0, 0.0, 0.0}),
		tensor.WithShape(1, 3),
	)

	counts := make([]int, 3)
	for i := 0; i < 300; i++ {
		action, err := egreedy.SelectAction(output)
		if err != nil {
			t.Fatal(err)
		}
		counts[action]++
	}

	for a, count := range counts {
		if count == 0 {
			t.Errorf("action %v was never explored", a)
		}
	}
}
