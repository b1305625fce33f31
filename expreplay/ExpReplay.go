// Package expreplay implements experience replay buffers. Data is
// stored in a circular buffer, with the oldest transitions overwritten
// once the buffer is full. How data is sampled from the buffer is
// determined by a Selector, which may sample uniformly or
// proportionally to transition priorities.
package expreplay

import (
	"fmt"

	"github.com/revolvedev/revolve/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int

	// Prioritized sampling only
	Alpha         float64 // Priority exponent
	Beta          float64 // Initial importance sampling exponent
	BetaIncrement float64 // Per-sample annealing of Beta towards 1
	Epsilon       float64 // Priority floor so no transition starves
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	sampler, err := CreateSelector(c.SampleMethod, c.SampleSize,
		c.MaxReplayCapacity, c.Alpha, c.Beta, c.BetaIncrement, c.Epsilon,
		seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// Batch is a batch of transitions drawn from an ExperienceReplayer.
// The state and action slices hold their vectors in row-major order.
// Indices holds the buffer index each transition was drawn from, so
// that priorities can later be updated at those indices. Weights holds
// the importance sampling weight of each transition; for non-prioritized
// sampling each weight is 1.
type Batch struct {
	States     []float64
	Actions    []float64
	Rewards    []float64
	Discounts  []float64
	NextStates []float64

	Indices []int
	Weights []float64
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of transitions from the buffer
	Sample() (*Batch, error)

	// UpdatePriorities updates the priorities of the transitions at
	// the argument buffer indices. For non-prioritized sampling this
	// is a no-op.
	UpdatePriorities(indices []int, priorities []float64) error

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer. Data is stored at
// indices [0, maxCapacity), with insertPos the next index to write at.
// Once the buffer has filled, insertion wraps around and overwrites
// the oldest data first.
type cache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	discountCache  []float64
	nextStateCache []float64

	insertPos int
	full      bool

	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer. The featureSize and actionSize parameters define
// the size of the feature and action vectors.
//
// Pixel observations should be flattened before adding to the buffer.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}
	if minCapacity < sampler.BatchSize() {
		minCapacity = sampler.BatchSize()
	}

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		discountCache:  make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Capacity: %v/%v \nStates: %v \nActions: %v \nRewards: " +
		"%v \nDiscounts: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.maxCapacity, c.stateCache,
		c.actionCache, c.rewardCache, c.discountCache, c.nextStateCache)
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	if c.full {
		return c.maxCapacity
	}
	return c.insertPos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the cache, overwriting the oldest
// transition if the cache is full
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}

	index := c.insertPos

	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	c.rewardCache[index] = t.Reward
	c.discountCache[index] = t.Discount

	c.insertPos++
	if c.insertPos >= c.maxCapacity {
		c.insertPos = 0
		c.full = true
	}

	c.sampler.added(index)
	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *cache) Sample() (*Batch, error) {
	if c.Capacity() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if c.Capacity() < c.MinCapacity() {
		return nil, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	indices, weights, err := c.sampler.choose(c)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	batch := &Batch{
		States:     make([]float64, len(indices)*c.featureSize),
		Actions:    make([]float64, len(indices)*c.actionSize),
		Rewards:    make([]float64, len(indices)),
		Discounts:  make([]float64, len(indices)),
		NextStates: make([]float64, len(indices)*c.featureSize),
		Indices:    indices,
		Weights:    weights,
	}

	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(batch.States[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize])
		copy(batch.NextStates[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize])

		actionStartInd := i * c.actionSize
		expActionInd := index * c.actionSize
		copy(batch.Actions[actionStartInd:actionStartInd+c.actionSize],
			c.actionCache[expActionInd:expActionInd+c.actionSize])

		batch.Rewards[i] = c.rewardCache[index]
		batch.Discounts[i] = c.discountCache[index]
	}

	return batch, nil
}

// UpdatePriorities updates the priorities of the transitions at the
// argument buffer indices
func (c *cache) UpdatePriorities(indices []int,
	priorities []float64) error {
	return c.sampler.updatePriorities(indices, priorities)
}
