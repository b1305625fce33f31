package expreplay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/revolvedev/revolve/timestep"
)

// testTransition returns a transition whose state features encode v so
// that sampled batches can be matched back to insertions
func testTransition(v, action, reward, discount float64) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{v, v + 0.5}),
		Action:    mat.NewVecDense(1, []float64{action}),
		Reward:    reward,
		Discount:  discount,
		NextState: mat.NewVecDense(2, []float64{v + 1, v + 1.5}),
	}
}

func TestCacheSampleFifo(t *testing.T) {
	replay, err := New(NewFifoSelector(2), 2, 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := replay.Add(testTransition(0, 1, 0.5, 0.99)); err != nil {
		t.Fatal(err)
	}
	if err := replay.Add(testTransition(10, 0, -0.5, 0.0)); err != nil {
		t.Fatal(err)
	}

	batch, err := replay.Sample()
	if err != nil {
		t.Fatal(err)
	}

	want := &Batch{
		States:     []float64{0, 0.5, 10, 10.5},
		Actions:    []float64{1, 0},
		Rewards:    []float64{0.5, -0.5},
		Discounts:  []float64{0.99, 0.0},
		NextStates: []float64{1, 1.5, 11, 11.5},
		Indices:    []int{0, 1},
		Weights:    []float64{1, 1},
	}
	if diff := cmp.Diff(want, batch); diff != "" {
		t.Errorf("incorrect batch (-want +have):\n%s", diff)
	}
}

func TestCacheWrapsAround(t *testing.T) {
	replay, err := New(NewFifoSelector(3), 3, 3, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Four insertions into a buffer of three: the oldest is overwritten
	for i := 0; i < 4; i++ {
		transition := testTransition(float64(i), 0, float64(i), 0.99)
		if err := replay.Add(transition); err != nil {
			t.Fatal(err)
		}
	}

	if replay.Capacity() != 3 {
		t.Errorf("incorrect capacity after wraparound \n\twant(%v)"+
			"\n\thave(%v)", 3, replay.Capacity())
	}

	batch, err := replay.Sample()
	if err != nil {
		t.Fatal(err)
	}

	// Fifo order starts from the oldest surviving transition
	wantRewards := []float64{1, 2, 3}
	if diff := cmp.Diff(wantRewards, batch.Rewards); diff != "" {
		t.Errorf("incorrect rewards (-want +have):\n%s", diff)
	}
}

func TestCacheSampleErrors(t *testing.T) {
	replay, err := New(NewUniformSelector(2, 1), 3, 8, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := replay.Sample(); !IsEmptyBuffer(err) {
		t.Errorf("sampling an empty buffer should fail \n\thave(%v)", err)
	}

	if err := replay.Add(testTransition(0, 0, 0, 0.99)); err != nil {
		t.Fatal(err)
	}
	if _, err := replay.Sample(); !IsInsufficientSamples(err) {
		t.Errorf("sampling below min capacity should fail \n\thave(%v)",
			err)
	}

	if err := replay.Add(testTransition(1, 0, 0, 0.99)); err != nil {
		t.Fatal(err)
	}
	if err := replay.Add(testTransition(2, 0, 0, 0.99)); err != nil {
		t.Fatal(err)
	}
	if _, err := replay.Sample(); err != nil {
		t.Errorf("sampling at min capacity should succeed \n\thave(%v)",
			err)
	}
}

func TestCacheRejectsWrongSizes(t *testing.T) {
	replay, err := New(NewUniformSelector(1, 1), 1, 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	badState := timestep.Transition{
		State:     mat.NewVecDense(3, nil),
		Action:    mat.NewVecDense(1, nil),
		NextState: mat.NewVecDense(3, nil),
	}
	if err := replay.Add(badState); err == nil {
		t.Error("adding a transition with the wrong feature size should " +
			"fail")
	}

	badAction := timestep.Transition{
		State:     mat.NewVecDense(2, nil),
		Action:    mat.NewVecDense(2, nil),
		NextState: mat.NewVecDense(2, nil),
	}
	if err := replay.Add(badAction); err == nil {
		t.Error("adding a transition with the wrong action size should " +
			"fail")
	}
}
