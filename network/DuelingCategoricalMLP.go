package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// DuelingCategoricalMLP implements the dueling categorical network of
// Rainbow. Instead of a scalar action value per action, the network
// predicts a probability distribution over a fixed support of numAtoms
// return values for each action. A shared trunk feeds an advantage
// head with actions × numAtoms outputs and a value head with numAtoms
// outputs; the heads are combined per atom the same way as a
// DuelingMLP, then a softmax over atoms yields the distributions.
//
// Output() holds a (batch, actions, numAtoms) tensor of probabilities.
type DuelingCategoricalMLP struct {
	g       *G.ExprGraph
	trunk   []Layer
	advHead []Layer
	valHead []Layer
	input   *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	numAtoms int
	support  []float64

	prediction *G.Node
	predVal    G.Value
}

// NewDuelingCategoricalMLP returns a new DuelingCategoricalMLP whose
// distributions are supported on numAtoms evenly spaced values in
// [vMin, vMax]
func NewDuelingCategoricalMLP(features, batch, actions int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, numAtoms int, vMin, vMax float64,
	noisy bool, sigma0 float64, seed uint64) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newduelingcategoricalmlp: invalid number "+
			"of features %v", features)
	}
	if actions <= 0 {
		return nil, fmt.Errorf("newduelingcategoricalmlp: invalid number "+
			"of actions %v", actions)
	}
	if numAtoms < 2 {
		return nil, fmt.Errorf("newduelingcategoricalmlp: at least 2 "+
			"atoms are required \n\thave(%v)", numAtoms)
	}
	if vMin >= vMax {
		return nil, fmt.Errorf("newduelingcategoricalmlp: support must "+
			"have positive width \n\thave([%v, %v])", vMin, vMax)
	}
	if len(hiddenSizes) == 0 {
		return nil, fmt.Errorf("newduelingcategoricalmlp: at least one " +
			"hidden layer is required")
	}

	trunk, err := makeFCLayers(g, features, hiddenSizes, biases, init,
		activations, "Trunk")
	if err != nil {
		return nil, fmt.Errorf("newduelingcategoricalmlp: %v", err)
	}

	trunkOut := hiddenSizes[len(hiddenSizes)-1]
	advHead, valHead, err := makeHeads(g, trunkOut, actions*numAtoms,
		numAtoms, init, noisy, sigma0, seed)
	if err != nil {
		return nil, fmt.Errorf("newduelingcategoricalmlp: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	delta := (vMax - vMin) / float64(numAtoms-1)
	support := make([]float64, numAtoms)
	for i := range support {
		support[i] = vMin + float64(i)*delta
	}

	network := &DuelingCategoricalMLP{
		g:          g,
		trunk:      trunk,
		advHead:    advHead,
		valHead:    valHead,
		input:      input,
		numOutputs: actions,
		numInputs:  features,
		batchSize:  batch,
		numAtoms:   numAtoms,
		support:    support,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newduelingcategoricalmlp: %v", err)
	}
	return network, nil
}

// fwd populates the graph with the forward pass of the network
func (d *DuelingCategoricalMLP) fwd() error {
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

	adv, err = G.Reshape(adv, tensor.Shape{d.batchSize, d.numOutputs,
		d.numAtoms})
	if err != nil {
		return fmt.Errorf("fwd: could not reshape advantages: %v", err)
	}
	val, err = G.Reshape(val, tensor.Shape{d.batchSize, 1, d.numAtoms})
	if err != nil {
		return fmt.Errorf("fwd: could not reshape values: %v", err)
	}

	// Centre the advantages per atom
	advMean, err := G.Mean(adv, 1)
	if err != nil {
		return fmt.Errorf("fwd: could not compute mean advantage: %v", err)
	}
	advMean, err = G.Reshape(advMean, tensor.Shape{d.batchSize, 1,
		d.numAtoms})
	if err != nil {
		return fmt.Errorf("fwd: could not reshape mean advantage: %v", err)
	}
	centred, err := G.BroadcastSub(adv, advMean, nil, []byte{1})
	if err != nil {
		return fmt.Errorf("fwd: could not centre advantages: %v", err)
	}

	logits, err := G.BroadcastAdd(centred, val, nil, []byte{1})
	if err != nil {
		return fmt.Errorf("fwd: could not combine value and "+
			"advantages: %v", err)
	}

	// Normalize over atoms so that each action's prediction is a
	// probability distribution over the support
	pred, err := G.SoftMax(logits, 2)
	if err != nil {
		return fmt.Errorf("fwd: could not compute distributions: %v", err)
	}

	d.prediction = pred
	G.Read(d.prediction, &d.predVal)
	return nil
}

// Graph returns the computational graph of the network
func (d *DuelingCategoricalMLP) Graph() *G.ExprGraph {
	return d.g
}

// Clone clones the network, with its current weights, into a new graph
func (d *DuelingCategoricalMLP) Clone() (NeuralNet, error) {
	return d.CloneWithBatch(d.batchSize)
}

// CloneWithBatch clones the network, with its current weights, into a
// new graph with a new input batch size
func (d *DuelingCategoricalMLP) CloneWithBatch(batch int) (NeuralNet,
	error) {
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

	support := make([]float64, len(d.support))
	copy(support, d.support)

	network := &DuelingCategoricalMLP{
		g:          g,
		trunk:      trunk,
		advHead:    advHead,
		valHead:    valHead,
		input:      input,
		numOutputs: d.numOutputs,
		numInputs:  d.numInputs,
		batchSize:  batch,
		numAtoms:   d.numAtoms,
		support:    support,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (d *DuelingCategoricalMLP) BatchSize() int {
	return d.batchSize
}

// Features returns the number of features in a single input
// observation
func (d *DuelingCategoricalMLP) Features() int {
	return d.numInputs
}

// Outputs returns the number of actions the network predicts
// distributions for
func (d *DuelingCategoricalMLP) Outputs() int {
	return d.numOutputs
}

// NumAtoms returns the number of atoms in the support
func (d *DuelingCategoricalMLP) NumAtoms() int {
	return d.numAtoms
}

// Support returns the fixed support of the predicted distributions
func (d *DuelingCategoricalMLP) Support() []float64 {
	return d.support
}

// SetInput sets the network input to the argument observations,
// stored in row-major order
func (d *DuelingCategoricalMLP) SetInput(input []float64) error {
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
func (d *DuelingCategoricalMLP) Set(source NeuralNet) error {
	return set(d, source)
}

// Polyak sets the weights of the network to a polyak average between
// its existing weights and the weights of source
func (d *DuelingCategoricalMLP) Polyak(source NeuralNet,
	tau float64) error {
	return polyak(d, source, tau)
}

// Learnables returns the learnable nodes of the network
func (d *DuelingCategoricalMLP) Learnables() G.Nodes {
	return learnables(d.trunk, d.advHead, d.valHead)
}

// Model returns the learnable nodes with their gradients
func (d *DuelingCategoricalMLP) Model() []G.ValueGrad {
	learnables := d.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, learnable := range learnables {
		model[i] = learnable
	}
	return model
}

// Output returns the last value of the network predictions, a
// (batch, actions, atoms) tensor of probabilities
func (d *DuelingCategoricalMLP) Output() G.Value {
	return d.predVal
}

// Prediction returns the prediction node of the network's graph
func (d *DuelingCategoricalMLP) Prediction() *G.Node {
	return d.prediction
}

// ResampleNoise draws fresh noise for the noisy head layers
func (d *DuelingCategoricalMLP) ResampleNoise() error {
	return resampleLayerNoise(d.trunk, d.advHead, d.valHead)
}
