package dqn

import (
	"fmt"
	"math"
	"math/rand"

	G "gorgonia.org/gorgonia"

	"github.com/revolvedev/revolve/utils/floatutils"
)

// ActionSelector selects the greedy action given the output of a value
// network run on a single observation
type ActionSelector interface {
	SelectAction(output G.Value) (int, error)
}

// maxQActionSelector selects the action with the largest predicted
// action value. The network output is a (1, actions) matrix.
type maxQActionSelector struct{}

// NewMaxQActionSelector returns a new ActionSelector which selects the
// action of maximum predicted value
func NewMaxQActionSelector(hp HyperParameters) (ActionSelector, error) {
	return maxQActionSelector{}, nil
}

// SelectAction implements the ActionSelector interface
func (m maxQActionSelector) SelectAction(output G.Value) (int, error) {
	values, ok := output.Data().([]float64)
	if !ok || len(values) == 0 {
		return 0, fmt.Errorf("selectaction: no action values predicted")
	}
	return floatutils.ArgMax(values), nil
}

// categoricalActionSelector selects the action whose predicted return
// distribution has the largest expected value over the support. The
// network output is a (1, actions, atoms) tensor of probabilities.
type categoricalActionSelector struct {
	support []float64
}

// NewCategoricalActionSelector returns a new ActionSelector for
// categorical value distributions supported on NumAtoms evenly spaced
// values in [VMin, VMax]
func NewCategoricalActionSelector(
	hp HyperParameters) (ActionSelector, error) {
	if hp.NumAtoms < 2 {
		return nil, fmt.Errorf("newcategoricalactionselector: at least "+
			"2 atoms are required \n\thave(%v)", hp.NumAtoms)
	}
	if hp.VMin >= hp.VMax {
		return nil, fmt.Errorf("newcategoricalactionselector: support "+
			"must have positive width \n\thave([%v, %v])", hp.VMin, hp.VMax)
	}

	delta := (hp.VMax - hp.VMin) / float64(hp.NumAtoms-1)
	support := make([]float64, hp.NumAtoms)
	for i := range support {
		support[i] = hp.VMin + float64(i)*delta
	}

	return &categoricalActionSelector{support: support}, nil
}

// SelectAction implements the ActionSelector interface
func (c *categoricalActionSelector) SelectAction(output G.Value) (int,
	error) {
	probs, ok := output.Data().([]float64)
	if !ok || len(probs) == 0 {
		return 0, fmt.Errorf("selectaction: no distributions predicted")
	}

	numAtoms := len(c.support)
	if len(probs)%numAtoms != 0 {
		return 0, fmt.Errorf("selectaction: invalid distribution size "+
			"\n\twant(multiple of %v)\n\thave(%v)", numAtoms, len(probs))
	}

	numActions := len(probs) / numAtoms
	values := make([]float64, numActions)
	for a := 0; a < numActions; a++ {
		for j := 0; j < numAtoms; j++ {
			values[a] += c.support[j] * probs[a*numAtoms+j]
		}
	}
	return floatutils.ArgMax(values), nil
}

// EpsGreedy wraps an ActionSelector so that a uniformly random action
// is taken with probability ε, annealed towards MinEpsilon by
// EpsilonDecay on each call to Decay. With noisy networks, ε is
// usually 0 and exploration comes from the network noise instead.
type EpsGreedy struct {
	inner ActionSelector

	eps      float64
	minEps   float64
	epsDecay float64

	numActions int
	rng        *rand.Rand
}

// NewEpsGreedy returns a new EpsGreedy wrapping inner
func NewEpsGreedy(inner ActionSelector, hp HyperParameters,
	numActions int, seed int64) *EpsGreedy {
	return &EpsGreedy{
		inner:      inner,
		eps:        hp.MaxEpsilon,
		minEps:     hp.MinEpsilon,
		epsDecay:   hp.EpsilonDecay,
		numActions: numActions,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// SelectAction implements the ActionSelector interface
func (e *EpsGreedy) SelectAction(output G.Value) (int, error) {
	if e.rng.Float64() < e.eps {
		return e.rng.Intn(e.numActions), nil
	}
	return e.inner.SelectAction(output)
}

// Epsilon returns the current value of ε
func (e *EpsGreedy) Epsilon() float64 {
	return e.eps
}

// Decay anneals ε towards its minimum value
func (e *EpsGreedy) Decay() {
	e.eps = math.Max(e.minEps, e.eps-e.epsDecay)
}
