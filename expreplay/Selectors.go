package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/revolvedev/revolve/utils/intutils"
)

// SelectorType describes the available ways of sampling data from an
// experience replay buffer
type SelectorType string

// Available SelectorTypes
const (
	Fifo        SelectorType = "Fifo"
	Uniform     SelectorType = "Uniform"
	Prioritized SelectorType = "Prioritized"
)

// CreateSelector is a factory method for creating Selectors. The
// alpha, beta, betaIncrement, and epsilon parameters are used only by
// prioritized Selectors.
func CreateSelector(t SelectorType, batchSize, capacity int, alpha, beta,
	betaIncrement, epsilon float64, seed int64) (Selector, error) {
	switch t {
	case Fifo:
		return NewFifoSelector(batchSize), nil

	case Uniform:
		return NewUniformSelector(batchSize, seed), nil

	case Prioritized:
		return NewPrioritizedSelector(batchSize, capacity, alpha, beta,
			betaIncrement, epsilon, seed)
	}
	return nil, fmt.Errorf("createSelector: no such selector type %q", t)
}

// Selector implements functionality for choosing how data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer, along with the importance sampling
	// weight of each index
	choose(c *cache) ([]int, []float64, error)

	// BatchSize returns the number of elements that will be selected
	BatchSize() int

	// added notifies the Selector that data was inserted at index
	added(index int)

	// updatePriorities updates the sampling priorities of the
	// transitions at the argument buffer indices
	updatePriorities(indices []int, priorities []float64) error
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// added implements the Selector interface
func (u *uniformSelector) added(index int) {}

// updatePriorities implements the Selector interface. A
// uniformSelector has no priorities, so this is a no-op.
func (u *uniformSelector) updatePriorities([]int, []float64) error {
	return nil
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache) ([]int, []float64, error) {
	selected := make([]int, u.BatchSize())
	weights := make([]float64, u.BatchSize())

	for i := 0; i < u.BatchSize(); i++ {
		selected[i] = u.rng.Intn(c.Capacity())
		weights[i] = 1.0
	}

	return selected, weights, nil
}

// fifoSelector is a Selector which selects the oldest data in an
// experience replay buffer
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws the oldest data
// from an experience replay buffer
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// added implements the Selector interface
func (f *fifoSelector) added(index int) {}

// updatePriorities implements the Selector interface. A fifoSelector
// has no priorities, so this is a no-op.
func (f *fifoSelector) updatePriorities([]int, []float64) error {
	return nil
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f *fifoSelector) choose(c *cache) ([]int, []float64, error) {
	size := intutils.Min(f.BatchSize(), c.Capacity())
	selected := make([]int, size)
	weights := make([]float64, size)

	// The oldest index is insertPos once the buffer has wrapped, and
	// 0 otherwise
	oldest := 0
	if c.full {
		oldest = c.insertPos
	}

	for i := 0; i < size; i++ {
		selected[i] = (oldest + i) % c.maxCapacity
		weights[i] = 1.0
	}

	return selected, weights, nil
}
