package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// DuelingMLP implements a multi-layer perceptron with a dueling
// architecture. A shared trunk feeds an advantage head with one output
// per action and a scalar state value head, combined as
//
//	q(s, a) = v(s) + a(s, a) - mean_a'(a(s, a'))
//
// When noisy is set, the heads use noisy layers in place of fully
// connected layers, providing exploration without ε-greedy action
// selection.
type DuelingMLP struct {
	g       *G.ExprGraph
	trunk   []Layer
	advHead []Layer
	valHead []Layer
	input   *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	prediction *G.Node
	predVal    G.Value
}

// NewDuelingMLP returns a new DuelingMLP. The hidden sizes, biases,
// and activations describe the shared trunk; the heads are single
// linear layers on top of the trunk.
func NewDuelingMLP(features, batch, actions int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, noisy bool, sigma0 float64,
	seed uint64) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newduelingmlp: invalid number of "+
			"features %v", features)
	}
	if actions <= 0 {
		return nil, fmt.Errorf("newduelingmlp: invalid number of "+
			"actions %v", actions)
	}
	if len(hiddenSizes) == 0 {
		return nil, fmt.Errorf("newduelingmlp: at least one hidden layer " +
			"is required")
	}

	trunk, err := makeFCLayers(g, features, hiddenSizes, biases, init,
		activations, "Trunk")
	if err != nil {
		return nil, fmt.Errorf("newduelingmlp: %v", err)
	}

	trunkOut := hiddenSizes[len(hiddenSizes)-1]
	advHead, valHead, err := makeHeads(g, trunkOut, actions, 1, init, noisy,
		sigma0, seed)
	if err != nil {
		return nil, fmt.Errorf("newduelingmlp: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	network := &DuelingMLP{
		g:          g,
		trunk:      trunk,
		advHead:    advHead,
		valHead:    valHead,
		input:      input,
		numOutputs: actions,
		numInputs:  features,
		batchSize:  batch,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newduelingmlp: %v", err)
	}
	return network, nil
}

// makeHeads creates the advantage and value heads on graph g. The
// advantage head has advOut outputs per atom count; the value head
// valOut.
func makeHeads(g *G.ExprGraph, trunkOut, advOut, valOut int,
	init G.InitWFn, noisy bool, sigma0 float64, seed uint64) ([]Layer,
	[]Layer, error) {
	if noisy {
		norm := newNoiseSource(seed)
		advHead, err := makeNoisyLayers(g, trunkOut, []int{advOut}, sigma0,
			[]*Activation{Identity()}, "Adv", norm)
		if err != nil {
			return nil, nil, err
		}
		valHead, err := makeNoisyLayers(g, trunkOut, []int{valOut}, sigma0,
			[]*Activation{Identity()}, "Val", norm)
		if err != nil {
			return nil, nil, err
		}
		return advHead, valHead, nil
	}

	advHead, err := makeFCLayers(g, trunkOut, []int{advOut}, []bool{true},
		init, []*Activation{Identity()}, "Adv")
	if err != nil {
		return nil, nil, err
	}
	valHead, err := makeFCLayers(g, trunkOut, []int{valOut}, []bool{true},
		init, []*Activation{Identity()}, "Val")
	if err != nil {
		return nil, nil, err
	}
	return advHead, valHead, nil
}

// fwd populates the graph with the forward pass of the network
func (d *DuelingMLP) fwd() error {
	hidden, err := forward(d.input, d.trunk)
	if err != nil {
		return fmt.Errorf("fwd: %v", err)
	}

	adv, err := forward(hidden, d.advHead)
	if err != nil {
		return fmt.Errorf("fwd: %v", err)
	}
	val, err := forward(hidden, d.valHead)
	if err != nil {
		return fmt.Errorf("fwd: %v", err)
	}

	// Centre the advantages so that v and a are identifiable
	advMean, err := G.Mean(adv, 1)
	if err != nil {
		return fmt.Errorf("fwd: could not compute mean advantage: %v", err)
	}
	advMean, err = G.Reshape(advMean, tensor.Shape{d.batchSize, 1})
	if err != nil {
		return fmt.Errorf("fwd: could not reshape mean advantage: %v", err)
	}
	centred, err := G.BroadcastSub(adv, advMean, nil, []byte{1})
	if err != nil {
		return fmt.Errorf("fwd: could not centre advantages: %v", err)
	}

	pred, err := G.BroadcastAdd(centred, val, nil, []byte{1})
	if err != nil {
		return fmt.Errorf("fwd: could not combine value and "+
			"advantages: %v", err)
	}

	d.prediction = pred
	G.Read(d.prediction, &d.predVal)
	return nil
}

// Graph returns the computational graph of the network
func (d *DuelingMLP) Graph() *G.ExprGraph {
	return d.g
}

// Clone clones the network, with its current weights, into a new graph
func (d *DuelingMLP) Clone() (NeuralNet, error) {
	return d.CloneWithBatch(d.batchSize)
}

// CloneWithBatch clones the network, with its current weights, into a
// new graph with a new input batch size
func (d *DuelingMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()

	trunk, err := cloneLayersTo(g, d.trunk)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	advHead, err := cloneLayersTo(g, d.advHead)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	valHead, err := cloneLayersTo(g, d.valHead)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, d.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	network := &DuelingMLP{
		g:          g,
		trunk:      trunk,
		advHead:    advHead,
		valHead:    valHead,
		input:      input,
		numOutputs: d.numOutputs,
		numInputs:  d.numInputs,
		batchSize:  batch,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (d *DuelingMLP) BatchSize() int {
	return d.batchSize
}

// Features returns the number of features in a single input
// observation
func (d *DuelingMLP) Features() int {
	return d.numInputs
}

// Outputs returns the number of outputs per input observation
func (d *DuelingMLP) Outputs() int {
	return d.numOutputs
}

// SetInput sets the network input to the argument observations,
// stored in row-major order
func (d *DuelingMLP) SetInput(input []float64) error {
	if len(input) != d.numInputs*d.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", d.numInputs*d.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(d.batchSize, d.numInputs),
	)
	return G.Let(d.input, inputTensor)
}

// Set sets the weights of the network to those of source
func (d *DuelingMLP) Set(source NeuralNet) error {
	return set(d, source)
}

// Polyak sets the weights of the network to a polyak average between
// its existing weights and the weights of source
func (d *DuelingMLP) Polyak(source NeuralNet, tau float64) error {
	return polyak(d, source, tau)
}

// Learnables returns the learnable nodes of the network
func (d *DuelingMLP) Learnables() G.Nodes {
	return learnables(d.trunk, d.advHead, d.valHead)
}

// Model returns the learnable nodes with their gradients
func (d *DuelingMLP) Model() []G.ValueGrad {
	learnables := d.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, learnable := range learnables {
		model[i] = learnable
	}
	return model
}

// Output returns the last value of the network predictions
func (d *DuelingMLP) Output() G.Value {
	return d.predVal
}

// Prediction returns the prediction node of the network's graph
func (d *DuelingMLP) Prediction() *G.Node {
	return d.prediction
}

// ResampleNoise draws fresh noise for the noisy head layers
func (d *DuelingMLP) ResampleNoise() error {
	return resampleLayerNoise(d.trunk, d.advHead, d.valHead)
}
