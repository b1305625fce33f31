package dqn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/revolvedev/revolve/expreplay"
	"github.com/revolvedev/revolve/network"
	"github.com/revolvedev/revolve/utils/floatutils"
)

// Loss builds the loss of a DQN-family learner on the graph of the
// training network and feeds it update targets computed from sampled
// batches. Both implementations use double Q-learning targets: the
// online network chooses the bootstrap action in the next state and
// the target network evaluates it.
type Loss interface {
	// Attach builds the loss ops on the graph of net, creating the
	// input nodes the loss needs. It must be called exactly once,
	// before gradients of the returned cost are computed.
	Attach(net network.NeuralNet) (*G.Node, error)

	// SetBatch feeds a sampled batch, along with the target and
	// online network predictions at the batch's next states, into the
	// graph input nodes
	SetBatch(batch *expreplay.Batch, targetNext, onlineNext G.Value) error

	// ElementLoss returns the per-transition losses of the last run
	// of the training network, used as replay priorities
	ElementLoss() []float64
}

// dqnLoss is the Huber (smooth-L1) double Q-learning TD error:
//
//	huber(r + γⁿ Q_target(s', argmax_a Q(s', a)) - Q(s, a))
//
// quadratic within a unit margin of the target and linear beyond it
type dqnLoss struct {
	batchSize  int
	numActions int

	selectedActions *G.Node
	targets         *G.Node
	weights         *G.Node

	elemVal G.Value
}

// NewDQNLoss returns a new double Q-learning loss
func NewDQNLoss(hp HyperParameters) (Loss, error) {
	return &dqnLoss{}, nil
}

// Attach implements the Loss interface
func (d *dqnLoss) Attach(net network.NeuralNet) (*G.Node, error) {
	if _, ok := net.(network.Distributional); ok {
		return nil, fmt.Errorf("attach: dqn loss requires scalar action " +
			"values, not value distributions")
	}

	d.batchSize = net.BatchSize()
	d.numActions = net.Outputs()
	g := net.Graph()

	d.selectedActions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(d.batchSize, d.numActions),
		G.WithName("selectedActions"))
	d.targets = G.NewVector(g, tensor.Float64,
		G.WithShape(d.batchSize), G.WithName("updateTarget"))
	d.weights = G.NewVector(g, tensor.Float64,
		G.WithShape(d.batchSize), G.WithName("isWeights"))

	// Q(s, a) for the taken actions
	selectedValue := G.Must(G.HadamardProd(net.Prediction(),
		d.selectedActions))
	selectedValue = G.Must(G.Sum(selectedValue, 1))

	diff := G.Must(G.Sub(d.targets, selectedValue))

	// Huber with unit margin: ½d² - ½max(|d| - 1, 0)², equal to ½d²
	// for |d| <= 1 and |d| - ½ beyond
	excess := G.Must(G.Rectify(G.Must(G.Sub(G.Must(G.Abs(diff)),
		G.NewConstant(1.0)))))
	losses := G.Must(G.Sub(G.Must(G.Square(diff)),
		G.Must(G.Square(excess))))
	losses = G.Must(G.Mul(losses, G.NewConstant(0.5)))
	G.Read(losses, &d.elemVal)

	weighted := G.Must(G.HadamardProd(losses, d.weights))
	cost := G.Must(G.Mean(weighted))
	return cost, nil
}

// SetBatch implements the Loss interface
func (d *dqnLoss) SetBatch(batch *expreplay.Batch, targetNext,
	onlineNext G.Value) error {
	targetQ, ok := targetNext.Data().([]float64)
	if !ok {
		return fmt.Errorf("setbatch: target network predicted no values")
	}
	onlineQ, ok := onlineNext.Data().([]float64)
	if !ok {
		return fmt.Errorf("setbatch: online network predicted no values")
	}

	targets := make([]float64, d.batchSize)
	mask := make([]float64, d.batchSize*d.numActions)
	for i := 0; i < d.batchSize; i++ {
		row := i * d.numActions

		// Double Q-learning: the online network chooses, the target
		// network evaluates
		next := floatutils.ArgMax(onlineQ[row : row+d.numActions])
		targets[i] = batch.Rewards[i] +
			batch.Discounts[i]*targetQ[row+next]

		mask[row+int(batch.Actions[i])] = 1.0
	}

	err := G.Let(d.selectedActions, tensor.New(tensor.WithBacking(mask),
		tensor.WithShape(d.batchSize, d.numActions)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set selected actions: %v",
			err)
	}
	err = G.Let(d.targets, tensor.New(tensor.WithBacking(targets),
		tensor.WithShape(d.batchSize)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set update targets: %v", err)
	}
	err = G.Let(d.weights, tensor.New(tensor.WithBacking(batch.Weights),
		tensor.WithShape(d.batchSize)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set importance sampling "+
			"weights: %v", err)
	}
	return nil
}

// ElementLoss implements the Loss interface
func (d *dqnLoss) ElementLoss() []float64 {
	values := d.elemVal.Data().([]float64)
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// categoricalLoss is the C51 loss: the cross entropy between the
// predicted distribution of the taken action and the distributional
// Bellman target projected onto the fixed support.
type categoricalLoss struct {
	batchSize  int
	numActions int
	numAtoms   int
	support    []float64

	selectedActions *G.Node // (batch, actions, 1) one-hot mask
	targetDist      *G.Node // (batch, atoms) projected target
	weights         *G.Node

	elemVal G.Value
}

// NewCategoricalLoss returns a new C51 loss
func NewCategoricalLoss(hp HyperParameters) (Loss, error) {
	if hp.NumAtoms < 2 {
		return nil, fmt.Errorf("newcategoricalloss: at least 2 atoms "+
			"are required \n\thave(%v)", hp.NumAtoms)
	}
	if hp.VMin >= hp.VMax {
		return nil, fmt.Errorf("newcategoricalloss: support must have "+
			"positive width \n\thave([%v, %v])", hp.VMin, hp.VMax)
	}
	return &categoricalLoss{}, nil
}

// Attach implements the Loss interface
func (c *categoricalLoss) Attach(net network.NeuralNet) (*G.Node, error) {
	dist, ok := net.(network.Distributional)
	if !ok {
		return nil, fmt.Errorf("attach: categorical loss requires a " +
			"network predicting value distributions")
	}

	c.batchSize = net.BatchSize()
	c.numActions = net.Outputs()
	c.numAtoms = dist.NumAtoms()
	c.support = dist.Support()
	g := net.Graph()

	c.selectedActions = G.NewTensor(g, tensor.Float64, 3,
		G.WithShape(c.batchSize, c.numActions, 1),
		G.WithName("selectedActions"))
	c.targetDist = G.NewMatrix(g, tensor.Float64,
		G.WithShape(c.batchSize, c.numAtoms),
		G.WithName("targetDistribution"))
	c.weights = G.NewVector(g, tensor.Float64,
		G.WithShape(c.batchSize), G.WithName("isWeights"))

	// Distribution of the taken action: mask over actions, sum out
	// the action axis
	chosen := G.Must(G.BroadcastHadamardProd(net.Prediction(),
		c.selectedActions, nil, []byte{2}))
	chosen = G.Must(G.Sum(chosen, 1)) // (batch, atoms)

	// Cross entropy against the projected target. The softmax output
	// is strictly positive, but guard the log anyway.
	logChosen := G.Must(G.Log(G.Must(G.Add(chosen,
		G.NewConstant(1e-8)))))
	losses := G.Must(G.HadamardProd(c.targetDist, logChosen))
	losses = G.Must(G.Sum(losses, 1))
	losses = G.Must(G.Neg(losses))
	G.Read(losses, &c.elemVal)

	weighted := G.Must(G.HadamardProd(losses, c.weights))
	cost := G.Must(G.Mean(weighted))
	return cost, nil
}

// SetBatch implements the Loss interface
func (c *categoricalLoss) SetBatch(batch *expreplay.Batch, targetNext,
	onlineNext G.Value) error {
	targetProbs, ok := targetNext.Data().([]float64)
	if !ok {
		return fmt.Errorf("setbatch: target network predicted no " +
			"distributions")
	}
	onlineProbs, ok := onlineNext.Data().([]float64)
	if !ok {
		return fmt.Errorf("setbatch: online network predicted no " +
			"distributions")
	}

	targets := make([]float64, c.batchSize*c.numAtoms)
	mask := make([]float64, c.batchSize*c.numActions)
	values := make([]float64, c.numActions)

	for i := 0; i < c.batchSize; i++ {
		row := i * c.numActions * c.numAtoms

		// Double Q-learning over expected values of the online
		// network's distributions
		for a := 0; a < c.numActions; a++ {
			values[a] = 0
			for j := 0; j < c.numAtoms; j++ {
				values[a] += c.support[j] *
					onlineProbs[row+a*c.numAtoms+j]
			}
		}
		next := floatutils.ArgMax(values)

		dist := targetProbs[row+next*c.numAtoms : row+(next+1)*c.numAtoms]
		projectDistribution(dist, c.support, batch.Rewards[i],
			batch.Discounts[i],
			targets[i*c.numAtoms:(i+1)*c.numAtoms])

		mask[i*c.numActions+int(batch.Actions[i])] = 1.0
	}

	err := G.Let(c.selectedActions, tensor.New(tensor.WithBacking(mask),
		tensor.WithShape(c.batchSize, c.numActions, 1)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set selected actions: %v",
			err)
	}
	err = G.Let(c.targetDist, tensor.New(tensor.WithBacking(targets),
		tensor.WithShape(c.batchSize, c.numAtoms)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set target "+
			"distributions: %v", err)
	}
	err = G.Let(c.weights, tensor.New(tensor.WithBacking(batch.Weights),
		tensor.WithShape(c.batchSize)))
	if err != nil {
		return fmt.Errorf("setbatch: could not set importance sampling "+
			"weights: %v", err)
	}
	return nil
}

// ElementLoss implements the Loss interface
func (c *categoricalLoss) ElementLoss() []float64 {
	values := c.elemVal.Data().([]float64)
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// projectDistribution projects the distributional Bellman target
// r + discount·z onto the fixed support, accumulating the projected
// probability mass into out. Each shifted atom r + discount·z_j is
// clamped to the support bounds and its mass dist[j] is split between
// the two nearest support atoms in proportion to its distance from
// each.
func projectDistribution(dist, support []float64, reward,
	discount float64, out []float64) {
	n := len(support)
	vMin := support[0]
	vMax := support[n-1]
	delta := (vMax - vMin) / float64(n-1)

	for i := range out {
		out[i] = 0
	}

	for j := 0; j < n; j++ {
		tz := floatutils.Clip(reward+discount*support[j], vMin, vMax)
		b := (tz - vMin) / delta
		l := math.Floor(b)
		u := math.Ceil(b)

		li := int(l)
		ui := int(u)
		if li == ui {
			// The shifted atom lies exactly on a support atom
			out[li] += dist[j]
		} else {
			out[li] += dist[j] * (u - b)
			out[ui] += dist[j] * (b - l)
		}
	}
}
