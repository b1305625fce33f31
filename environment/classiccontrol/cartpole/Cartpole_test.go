package cartpole

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/revolvedev/revolve/environment"
)

func newTestCartpole(t *testing.T, seed uint64) *Cartpole {
	t.Helper()

	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	starter := env.NewUniformStarter([]r1.Interval{
		bounds, bounds, bounds, bounds,
	}, seed)
	task := NewBalance(starter, 500, FailAngle)

	c, _ := New(task, 0.99)
	return c
}

func TestCartpoleDeterministic(t *testing.T) {
	a := newTestCartpole(t, 14)
	b := newTestCartpole(t, 14)

	stepA, err := a.Reset()
	if err != nil {
		t.Fatal(err)
	}
	stepB, err := b.Reset()
	if err != nil {
		t.Fatal(err)
	}

	// Identically seeded environments traverse identical trajectories
	for i := 0; i < 100; i++ {
		action := mat.NewVecDense(1, []float64{float64(i % 3)})

		var lastA, lastB bool
		stepA, lastA, err = a.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		stepB, lastB, err = b.Step(action)
		if err != nil {
			t.Fatal(err)
		}

		if lastA != lastB {
			t.Fatalf("step %v: environments disagree on episode end", i)
		}
		for j := 0; j < stepA.Observation.Len(); j++ {
			if stepA.Observation.AtVec(j) != stepB.Observation.AtVec(j) {
				t.Fatalf("step %v: observations diverge at feature %v "+
					"\n\twant(%v)\n\thave(%v)", i, j,
					stepA.Observation.AtVec(j), stepB.Observation.AtVec(j))
			}
		}

		if lastA {
			if stepA, err = a.Reset(); err != nil {
				t.Fatal(err)
			}
			if stepB, err = b.Reset(); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestCartpoleSpecs(t *testing.T) {
	c := newTestCartpole(t, 14)

	if c.ObservationSpec().Shape.Len() != 4 {
		t.Errorf("incorrect observation size \n\twant(%v)\n\thave(%v)",
			4, c.ObservationSpec().Shape.Len())
	}

	actionSpec := c.ActionSpec()
	if actionSpec.Cardinality != env.Discrete {
		t.Error("cartpole actions should be discrete")
	}
	if actionSpec.NumActions() != 3 {
		t.Errorf("incorrect number of actions \n\twant(%v)\n\thave(%v)",
			3, actionSpec.NumActions())
	}
}

func TestCartpoleEpisodeCutoff(t *testing.T) {
	bounds := r1.Interval{Min: 0.0, Max: 0.0}
	starter := env.NewUniformStarter([]r1.Interval{
		bounds, bounds, bounds, bounds,
	}, 14)
	task := NewBalance(starter, 10, FailAngle)
	c, _ := New(task, 0.99)

	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	// Doing nothing from a perfectly balanced start runs into the
	// step limit
	noop := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 9; i++ {
		_, last, err := c.Step(noop)
		if err != nil {
			t.Fatal(err)
		}
		if last {
			t.Fatalf("episode ended early at step %v", i+1)
		}
	}

	step, last, err := c.Step(noop)
	if err != nil {
		t.Fatal(err)
	}
	if !last {
		t.Fatal("episode should end at the step limit")
	}
	if step.TerminalEnd() {
		t.Error("cutoff endings should bootstrap, not terminate")
	}
}
