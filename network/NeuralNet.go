// Package network implements neural network function approximators
// using Gorgonia
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet is a neural network function approximator. A NeuralNet
// populates a gorgonia.ExprGraph with its forward pass; an external VM
// runs the graph. Before running the VM, SetInput() should be called
// with the observation(s) to predict values for. After running the VM,
// Output() holds the predictions.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node

	// ResampleNoise draws fresh noise for any noisy layers in the
	// network. It is a no-op for networks without noisy layers.
	ResampleNoise() error
}

// Distributional is a NeuralNet that predicts a probability
// distribution over a fixed support of returns for each action,
// rather than a single expected value per action.
type Distributional interface {
	NeuralNet

	// NumAtoms returns the number of atoms in the support
	NumAtoms() int

	// Support returns the fixed support of the predicted distributions
	Support() []float64
}

// set sets the weights of dest to be equal to the weights of source
func set(dest, source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: differing number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// polyak sets the weights of dest to a polyak average between its
// existing weights and the weights of source
func polyak(dest, source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}
