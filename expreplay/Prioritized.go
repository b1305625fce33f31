package expreplay

import (
	"fmt"
	"math"
	"math/rand"
)

// prioritizedSelector is a Selector which samples data from an
// experience replay buffer proportionally to transition priorities,
// as in prioritized experience replay. A transition with priority p is
// sampled with probability proportional to pᵅ. Newly added transitions
// receive the maximum priority seen so far, so that each transition is
// sampled at least once.
//
// Sampling proportionally to priorities biases the updates made with
// the sampled data; importance sampling weights (N·P(i))^(-β)
// returned by choose correct for the bias. β is annealed towards 1
// over the course of training.
type prioritizedSelector struct {
	samples int
	tree    *sumTree

	alpha         float64
	beta          float64
	betaIncrement float64
	epsilon       float64

	maxPriority float64
	rng         *rand.Rand
}

// NewPrioritizedSelector returns a new Selector which samples data
// proportionally to transition priorities
func NewPrioritizedSelector(samples, capacity int, alpha, beta,
	betaIncrement, epsilon float64, seed int64) (Selector, error) {
	if alpha < 0 {
		return nil, fmt.Errorf("newPrioritizedSelector: alpha must be "+
			"non-negative \n\thave(%v)", alpha)
	}
	if beta <= 0 || beta > 1 {
		return nil, fmt.Errorf("newPrioritizedSelector: beta must be in "+
			"(0, 1] \n\thave(%v)", beta)
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("newPrioritizedSelector: epsilon must be "+
			"positive \n\thave(%v)", epsilon)
	}

	return &prioritizedSelector{
		samples: samples,
		tree:    newSumTree(capacity),

		alpha:         alpha,
		beta:          beta,
		betaIncrement: betaIncrement,
		epsilon:       epsilon,

		maxPriority: 1.0,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (p *prioritizedSelector) BatchSize() int {
	return p.samples
}

// added gives the transition inserted at index the maximum priority
// seen so far
func (p *prioritizedSelector) added(index int) {
	p.tree.Set(index, math.Pow(p.maxPriority, p.alpha))
}

// updatePriorities sets the priority of each argument index to the
// corresponding priority, raised to alpha. Priorities are usually the
// absolute temporal difference errors of the last update.
func (p *prioritizedSelector) updatePriorities(indices []int,
	priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("updatePriorities: invalid number of priorities"+
			"\n\twant(%v)\n\thave(%v)", len(indices), len(priorities))
	}

	for i, index := range indices {
		priority := math.Abs(priorities[i]) + p.epsilon
		p.tree.Set(index, math.Pow(priority, p.alpha))

		if priority > p.maxPriority {
			p.maxPriority = priority
		}
	}
	return nil
}

// choose stratifies the total priority mass into BatchSize() equal
// segments and samples one transition from each, returning the chosen
// indices and their importance sampling weights
func (p *prioritizedSelector) choose(c *cache) ([]int, []float64, error) {
	total := p.tree.Total()
	if total <= 0 {
		return nil, nil, fmt.Errorf("choose: no priority mass to " +
			"sample from")
	}

	indices := make([]int, p.BatchSize())
	weights := make([]float64, p.BatchSize())
	n := float64(c.Capacity())
	segment := total / float64(p.BatchSize())

	maxWeight := 0.0
	for i := 0; i < p.BatchSize(); i++ {
		mass := (float64(i) + p.rng.Float64()) * segment
		index, priority := p.tree.Get(mass)

		prob := priority / total
		weight := math.Pow(n*prob, -p.beta)

		indices[i] = index
		weights[i] = weight
		if weight > maxWeight {
			maxWeight = weight
		}
	}

	// Normalize so that weights only scale updates down
	for i := range weights {
		weights[i] /= maxWeight
	}

	p.beta = math.Min(1.0, p.beta+p.betaIncrement)

	return indices, weights, nil
}
