package wrappers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/environment/classiccontrol/mountaincar"
)

// newTestMountainCar returns a deterministic MountainCar starting at
// the bottom of the hill
func newTestMountainCar(t *testing.T) env.Environment {
	t.Helper()

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: -0.5, Max: -0.5},
		{Min: 0.0, Max: 0.0},
	}, 1)
	task := mountaincar.NewGoal(starter, 200, mountaincar.GoalPosition)
	m, _ := mountaincar.New(task, 0.99)
	return m
}

func TestFrameStackFillsOnReset(t *testing.T) {
	stack, err := NewFrameStack(newTestMountainCar(t), 3)
	if err != nil {
		t.Fatal(err)
	}

	step, err := stack.Reset()
	if err != nil {
		t.Fatal(err)
	}

	// The first observation is repeated across the whole stack
	want := []float64{-0.5, 0, -0.5, 0, -0.5, 0}
	have := make([]float64, step.Observation.Len())
	for i := range have {
		have[i] = step.Observation.AtVec(i)
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("incorrect stacked observation (-want +have):\n%s", diff)
	}
}

func TestFrameStackPushesOldestFirst(t *testing.T) {
	inner := newTestMountainCar(t)
	stack, err := NewFrameStack(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stack.Reset(); err != nil {
		t.Fatal(err)
	}

	step, _, err := stack.Step(mat.NewVecDense(1, []float64{2}))
	if err != nil {
		t.Fatal(err)
	}

	// Oldest frame first, newest frame last
	current := inner.CurrentTimeStep().Observation
	if step.Observation.Len() != 2*current.Len() {
		t.Fatalf("incorrect stacked size \n\twant(%v)\n\thave(%v)",
			2*current.Len(), step.Observation.Len())
	}
	if step.Observation.AtVec(0) != -0.5 {
		t.Errorf("incorrect oldest frame \n\twant(%v)\n\thave(%v)", -0.5,
			step.Observation.AtVec(0))
	}
	for j := 0; j < current.Len(); j++ {
		want := current.AtVec(j)
		have := step.Observation.AtVec(current.Len() + j)
		if have != want {
			t.Errorf("incorrect newest frame feature %v \n\twant(%v)"+
				"\n\thave(%v)", j, want, have)
		}
	}
}

func TestFrameStackObservationSpec(t *testing.T) {
	stack, err := NewFrameStack(newTestMountainCar(t), 4)
	if err != nil {
		t.Fatal(err)
	}

	spec := stack.ObservationSpec()
	if spec.Shape.Len() != 8 {
		t.Errorf("incorrect stacked observation size \n\twant(%v)"+
			"\n\thave(%v)", 8, spec.Shape.Len())
	}
}

func TestFrameStackInvalidDepth(t *testing.T) {
	if _, err := NewFrameStack(newTestMountainCar(t), 0); err == nil {
		t.Error("a stack depth of 0 should be rejected")
	}
}
