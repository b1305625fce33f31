package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MultiHeadMLP implements a multi-layer perceptron with one output
// per action. Given a batch of states, the network predicts the
// action value of each action in each state, with row i of the output
// holding the action values of state i.
type MultiHeadMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	prediction *G.Node
	predVal    G.Value
}

// NewMultiHeadMLP returns a new MultiHeadMLP with the argument hidden
// layer sizes, bias units, and activations. An output layer of
// numOutputs linear units is appended to the hidden layers.
func NewMultiHeadMLP(features, batch, numOutputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newmultiheadmlp: invalid number of "+
			"features %v", features)
	}
	if numOutputs <= 0 {
		return nil, fmt.Errorf("newmultiheadmlp: invalid number of "+
			"outputs %v", numOutputs)
	}

	// Output layer
	hiddenSizes = append([]int{}, hiddenSizes...)
	hiddenSizes = append(hiddenSizes, numOutputs)
	biases = append([]bool{}, biases...)
	biases = append(biases, true)
	activations = append([]*Activation{}, activations...)
	activations = append(activations, Identity())

	layers, err := makeFCLayers(g, features, hiddenSizes, biases, init,
		activations, "")
	if err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	network := &MultiHeadMLP{
		g:          g,
		layers:     layers,
		input:      input,
		numOutputs: numOutputs,
		numInputs:  features,
		batchSize:  batch,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: %v", err)
	}
	return network, nil
}

// fwd populates the graph with the forward pass of the network
func (e *MultiHeadMLP) fwd() error {
	pred, err := forward(e.input, e.layers)
	if err != nil {
		return fmt.Errorf("fwd: %v", err)
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)
	return nil
}

// Graph returns the computational graph of the network
func (e *MultiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones the network, with its current weights, into a new graph
func (e *MultiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones the network, with its current weights, into a
// new graph with a new input batch size
func (e *MultiHeadMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()

	layers, err := cloneLayersTo(g, e.layers)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	network := &MultiHeadMLP{
		g:          g,
		layers:     layers,
		input:      input,
		numOutputs: e.numOutputs,
		numInputs:  e.numInputs,
		batchSize:  batch,
	}

	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *MultiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input
// observation
func (e *MultiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs per input observation
func (e *MultiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the network input to the argument observations,
// stored in row-major order
func (e *MultiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.batchSize, e.numInputs),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of the network to those of source
func (e *MultiHeadMLP) Set(source NeuralNet) error {
	return set(e, source)
}

// Polyak sets the weights of the network to a polyak average between
// its existing weights and the weights of source
func (e *MultiHeadMLP) Polyak(source NeuralNet, tau float64) error {
	return polyak(e, source, tau)
}

// Learnables returns the learnable nodes of the network
func (e *MultiHeadMLP) Learnables() G.Nodes {
	return learnables(e.layers)
}

// Model returns the learnable nodes with their gradients
func (e *MultiHeadMLP) Model() []G.ValueGrad {
	learnables := e.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, learnable := range learnables {
		model[i] = learnable
	}
	return model
}

// Output returns the last value of the network predictions
func (e *MultiHeadMLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the prediction node of the network's graph
func (e *MultiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// ResampleNoise implements the NeuralNet interface. A MultiHeadMLP
// has no noisy layers, so this is a no-op.
func (e *MultiHeadMLP) ResampleNoise() error {
	return resampleLayerNoise(e.layers)
}
