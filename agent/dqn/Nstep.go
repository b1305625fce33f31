package dqn

import (
	ts "github.com/revolvedev/revolve/timestep"
)

// nstepQueue accumulates one-step transitions and emits n-step
// transitions: the state and action of the oldest step, the discounted
// sum of the n rewards, the cumulative discount for bootstrapping, and
// the newest next state. The queue discounts with the agent's gamma
// hyperparameter, not the environment's discount: every non-terminal
// step contributes a factor of gamma, so emitted transitions carry a
// gamma^n bootstrap discount. Discounts are 0 at terminal steps, so an
// episode end inside the window truncates the return and zeroes the
// bootstrap automatically.
type nstepQueue struct {
	n     int
	gamma float64
	queue []ts.Transition
}

// newNstepQueue returns a new nstepQueue emitting n-step transitions
// discounted by gamma
func newNstepQueue(n int, gamma float64) *nstepQueue {
	return &nstepQueue{
		n:     n,
		gamma: gamma,
		queue: make([]ts.Transition, 0, n),
	}
}

// push adds a one-step transition to the queue, returning an n-step
// transition and true once n steps have accumulated
func (q *nstepQueue) push(t ts.Transition) (ts.Transition, bool) {
	if t.Discount != 0 {
		t.Discount = q.gamma
	}
	q.queue = append(q.queue, t)
	if len(q.queue) < q.n {
		return ts.Transition{}, false
	}

	out := q.nstep()
	q.queue = q.queue[1:]
	return out, true
}

// flush returns the n-step transitions still pending at episode end,
// each shorter than n steps, and empties the queue
func (q *nstepQueue) flush() []ts.Transition {
	flushed := make([]ts.Transition, 0, len(q.queue))
	for len(q.queue) > 0 {
		flushed = append(flushed, q.nstep())
		q.queue = q.queue[1:]
	}
	return flushed
}

// nstep folds the queued transitions into a single transition starting
// at the oldest queued step
func (q *nstepQueue) nstep() ts.Transition {
	first := q.queue[0]

	reward := first.Reward
	discount := first.Discount
	nextState := first.NextState

	for _, t := range q.queue[1:] {
		reward += discount * t.Reward
		discount *= t.Discount
		nextState = t.NextState

		// Everything after a terminal step belongs to the next episode
		if discount == 0 {
			break
		}
	}

	return ts.Transition{
		State:     first.State,
		Action:    first.Action,
		Reward:    reward,
		Discount:  discount,
		NextState: nextState,
	}
}
