package expreplay

import (
	"math"
	"testing"
)

func TestPrioritizedAddedUsesMaxPriority(t *testing.T) {
	selector, err := NewPrioritizedSelector(1, 4, 1.0, 0.4, 0.0, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := selector.(*prioritizedSelector)

	// New transitions enter with the maximum priority seen so far
	p.added(0)
	if p.tree.Priority(0) != 1.0 {
		t.Errorf("incorrect initial priority \n\twant(%v)\n\thave(%v)",
			1.0, p.tree.Priority(0))
	}

	if err := p.updatePriorities([]int{0}, []float64{2.0}); err != nil {
		t.Fatal(err)
	}
	if p.tree.Priority(0) != 2.5 {
		t.Errorf("incorrect updated priority \n\twant(%v)\n\thave(%v)",
			2.5, p.tree.Priority(0))
	}

	p.added(1)
	if p.tree.Priority(1) != 2.5 {
		t.Errorf("maximum priority should track updates \n\twant(%v)"+
			"\n\thave(%v)", 2.5, p.tree.Priority(1))
	}
}

func TestPrioritizedNegativePrioritiesUseMagnitude(t *testing.T) {
	selector, err := NewPrioritizedSelector(1, 4, 1.0, 0.4, 0.0, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := selector.(*prioritizedSelector)

	if err := p.updatePriorities([]int{0}, []float64{-3.0}); err != nil {
		t.Fatal(err)
	}
	if p.tree.Priority(0) != 3.5 {
		t.Errorf("incorrect priority \n\twant(%v)\n\thave(%v)", 3.5,
			p.tree.Priority(0))
	}
}

func TestPrioritizedEqualPrioritiesEqualWeights(t *testing.T) {
	replay, err := New(mustPrioritized(t, 4, 4, 0.6, 0.4, 0.0), 4, 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		transition := testTransition(float64(i), 0, float64(i), 0.99)
		if err := replay.Add(transition); err != nil {
			t.Fatal(err)
		}
	}

	batch, err := replay.Sample()
	if err != nil {
		t.Fatal(err)
	}

	// With equal priorities, every normalized importance sampling
	// weight is 1
	for i, w := range batch.Weights {
		if math.Abs(w-1.0) > 1e-12 {
			t.Errorf("incorrect weight of sample %v \n\twant(%v)"+
				"\n\thave(%v)", i, 1.0, w)
		}
	}
}

func TestPrioritizedBetaAnneals(t *testing.T) {
	selector, err := NewPrioritizedSelector(1, 2, 0.6, 0.4, 0.5, 0.001, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := selector.(*prioritizedSelector)

	replay, err := New(p, 1, 2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := replay.Add(testTransition(0, 0, 0, 0.99)); err != nil {
		t.Fatal(err)
	}

	for _, want := range []float64{0.9, 1.0, 1.0} {
		if _, err := replay.Sample(); err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.beta-want) > 1e-12 {
			t.Errorf("incorrect annealed beta \n\twant(%v)\n\thave(%v)",
				want, p.beta)
		}
	}
}

func TestPrioritizedInvalidParameters(t *testing.T) {
	tests := []struct {
		name                 string
		alpha, beta, epsilon float64
	}{
		{"negative alpha", -0.5, 0.4, 0.001},
		{"zero beta", 0.6, 0.0, 0.001},
		{"beta above one", 0.6, 1.5, 0.001},
		{"zero epsilon", 0.6, 0.4, 0.0},
	}

	for _, test := range tests {
		_, err := NewPrioritizedSelector(1, 4, test.alpha, test.beta, 0.0,
			test.epsilon, 1)
		if err == nil {
			t.Errorf("%v: expected an error", test.name)
		}
	}
}

// mustPrioritized creates a prioritized selector or fails the test
func mustPrioritized(t *testing.T, batchSize, capacity int, alpha, beta,
	betaIncrement float64) Selector {
	t.Helper()
	selector, err := NewPrioritizedSelector(batchSize, capacity, alpha,
		beta, betaIncrement, 0.001, 1)
	if err != nil {
		t.Fatal(err)
	}
	return selector
}
