package expreplay

import (
	"math"
	"testing"
)

func TestSumTreeSetTotal(t *testing.T) {
	tree := newSumTree(4)

	priorities := []float64{1.0, 2.0, 3.0, 4.0}
	for i, p := range priorities {
		tree.Set(i, p)
	}

	if tree.Total() != 10.0 {
		t.Errorf("incorrect total priority \n\twant(%v)\n\thave(%v)",
			10.0, tree.Total())
	}
	for i, p := range priorities {
		if tree.Priority(i) != p {
			t.Errorf("incorrect priority of leaf %v \n\twant(%v)"+
				"\n\thave(%v)", i, p, tree.Priority(i))
		}
	}

	// Overwriting a leaf adjusts the total by the change only
	tree.Set(1, 5.0)
	if tree.Total() != 13.0 {
		t.Errorf("incorrect total after overwrite \n\twant(%v)"+
			"\n\thave(%v)", 13.0, tree.Total())
	}
}

func TestSumTreeGet(t *testing.T) {
	tree := newSumTree(4)
	for i, p := range []float64{1.0, 2.0, 3.0, 4.0} {
		tree.Set(i, p)
	}

	// Leaves cover cumulative mass [0, 1), [1, 3), [3, 6), [6, 10)
	tests := []struct {
		mass         float64
		index        int
		wantPriority float64
	}{
		{0.0, 0, 1.0},
		{0.99, 0, 1.0},
		{1.0, 1, 2.0},
		{2.5, 1, 2.0},
		{3.0, 2, 3.0},
		{5.9, 2, 3.0},
		{6.0, 3, 4.0},
		{9.99, 3, 4.0},
	}

	for _, test := range tests {
		index, priority := tree.Get(test.mass)
		if index != test.index {
			t.Errorf("incorrect leaf for mass %v \n\twant(%v)\n\thave(%v)",
				test.mass, test.index, index)
		}
		if math.Abs(priority-test.wantPriority) > 1e-12 {
			t.Errorf("incorrect priority for mass %v \n\twant(%v)"+
				"\n\thave(%v)", test.mass, test.wantPriority, priority)
		}
	}
}
