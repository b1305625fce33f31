package dqn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/revolvedev/revolve/timestep"
)

// step returns a one-step transition identified by id
func step(id int, reward, discount float64) ts.Transition {
	return ts.Transition{
		State:     mat.NewVecDense(1, []float64{float64(id)}),
		Action:    mat.NewVecDense(1, []float64{0}),
		Reward:    reward,
		Discount:  discount,
		NextState: mat.NewVecDense(1, []float64{float64(id + 1)}),
	}
}

func TestNstepQueueAccumulates(t *testing.T) {
	q := newNstepQueue(3, 0.9)

	if _, full := q.push(step(0, 1.0, 1.0)); full {
		t.Fatal("queue emitted a transition before accumulating n steps")
	}
	if _, full := q.push(step(1, 1.0, 1.0)); full {
		t.Fatal("queue emitted a transition before accumulating n steps")
	}

	out, full := q.push(step(2, 1.0, 1.0))
	if !full {
		t.Fatal("queue did not emit a transition after n steps")
	}

	// r₀ + γr₁ + γ²r₂ with γ = 0.9
	wantReward := 1.0 + 0.9 + 0.81
	if math.Abs(out.Reward-wantReward) > 1e-12 {
		t.Errorf("incorrect n-step reward \n\twant(%v)\n\thave(%v)",
			wantReward, out.Reward)
	}

	wantDiscount := math.Pow(0.9, 3)
	if math.Abs(out.Discount-wantDiscount) > 1e-12 {
		t.Errorf("incorrect n-step discount \n\twant(%v)\n\thave(%v)",
			wantDiscount, out.Discount)
	}

	if out.State.AtVec(0) != 0 {
		t.Errorf("n-step transition should start at the oldest state "+
			"\n\twant(%v)\n\thave(%v)", 0, out.State.AtVec(0))
	}
	if out.NextState.AtVec(0) != 3 {
		t.Errorf("n-step transition should end at the newest state "+
			"\n\twant(%v)\n\thave(%v)", 3, out.NextState.AtVec(0))
	}
}

func TestNstepQueueSlides(t *testing.T) {
	q := newNstepQueue(2, 1.0)

	q.push(step(0, 1.0, 1.0))
	q.push(step(1, 2.0, 1.0))
	out, full := q.push(step(2, 4.0, 1.0))
	if !full {
		t.Fatal("queue did not emit a transition")
	}

	// The window slides by one step per push
	if out.State.AtVec(0) != 1 {
		t.Errorf("incorrect window start \n\twant(%v)\n\thave(%v)", 1,
			out.State.AtVec(0))
	}
	if out.Reward != 6.0 {
		t.Errorf("incorrect n-step reward \n\twant(%v)\n\thave(%v)", 6.0,
			out.Reward)
	}
}

func TestNstepQueueTerminalTruncates(t *testing.T) {
	q := newNstepQueue(3, 0.9)

	q.push(step(0, 1.0, 1.0))
	q.push(step(1, 5.0, 0.0)) // Terminal
	out, full := q.push(step(2, 100.0, 1.0))
	if !full {
		t.Fatal("queue did not emit a transition")
	}

	// Rewards after the terminal step belong to the next episode
	wantReward := 1.0 + 0.9*5.0
	if math.Abs(out.Reward-wantReward) > 1e-12 {
		t.Errorf("incorrect truncated reward \n\twant(%v)\n\thave(%v)",
			wantReward, out.Reward)
	}
	if out.Discount != 0 {
		t.Errorf("terminal transitions should not bootstrap "+
			"\n\twant(%v)\n\thave(%v)", 0, out.Discount)
	}
}

func TestNstepQueueFlush(t *testing.T) {
	q := newNstepQueue(3, 1.0)

	q.push(step(0, 1.0, 1.0))
	q.push(step(1, 2.0, 1.0))

	flushed := q.flush()
	if len(flushed) != 2 {
		t.Fatalf("incorrect number of flushed transitions \n\twant(%v)"+
			"\n\thave(%v)", 2, len(flushed))
	}

	if flushed[0].Reward != 3.0 {
		t.Errorf("incorrect first flushed reward \n\twant(%v)"+
			"\n\thave(%v)", 3.0, flushed[0].Reward)
	}
	if flushed[1].Reward != 2.0 {
		t.Errorf("incorrect second flushed reward \n\twant(%v)"+
			"\n\thave(%v)", 2.0, flushed[1].Reward)
	}

	if _, full := q.push(step(2, 1.0, 1.0)); full {
		t.Error("flush should empty the queue")
	}
}

func TestNstepQueueUsesConfiguredGamma(t *testing.T) {
	// Identical transitions, carrying an environmental discount of
	// 0.9, pushed through queues configured with different gammas
	gammas := []float64{0.0, 0.5, 1.0}
	wantRewards := []float64{1.0, 1.0 + 0.5*2.0, 1.0 + 2.0}
	wantDiscounts := []float64{0.0, 0.25, 1.0}

	for i, gamma := range gammas {
		q := newNstepQueue(2, gamma)

		q.push(step(0, 1.0, 0.9))
		out, full := q.push(step(1, 2.0, 0.9))
		if !full {
			t.Fatal("queue did not emit a transition")
		}

		if math.Abs(out.Reward-wantRewards[i]) > 1e-12 {
			t.Errorf("gamma %v: incorrect n-step reward \n\twant(%v)"+
				"\n\thave(%v)", gamma, wantRewards[i], out.Reward)
		}
		if math.Abs(out.Discount-wantDiscounts[i]) > 1e-12 {
			t.Errorf("gamma %v: incorrect bootstrap discount \n\twant(%v)"+
				"\n\thave(%v)", gamma, wantDiscounts[i], out.Discount)
		}
	}
}
