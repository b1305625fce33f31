package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a NeuralNet. A Layer populates a graph
// with its forward pass through fwd and can clone itself into another
// graph, carrying its current weights with it.
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) (Layer, error)
	Learnables() G.Nodes
}

// noiseResampler is implemented by layers whose forward pass depends
// on externally sampled noise
type noiseResampler interface {
	resampleNoise() error
}

// fcLayer implements a fully connected layer of a NeuralNet
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer returns a new fully connected layer between in and out
// units on graph g. If bias is false, the layer has no bias unit.
func newFCLayer(g *G.ExprGraph, in, out int, bias bool, init G.InitWFn,
	act *Activation, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var biasN *G.Node
	if bias {
		biasN = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, out),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: biasN, act: act}
}

// fwd computes the forward pass of the layer on input x
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	out, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	if f.bias != nil {
		out, err = G.BroadcastAdd(out, f.bias, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias: %v", err)
		}
	}

	return f.act.fwd(out)
}

// CloneTo clones the layer, with its current weights, into graph g
func (f *fcLayer) CloneTo(g *G.ExprGraph) (Layer, error) {
	weights, err := cloneNode(g, f.weights)
	if err != nil {
		return nil, fmt.Errorf("cloneto: %v", err)
	}

	var bias *G.Node
	if f.bias != nil {
		bias, err = cloneNode(g, f.bias)
		if err != nil {
			return nil, fmt.Errorf("cloneto: %v", err)
		}
	}

	act := *f.act
	return &fcLayer{weights: weights, bias: bias, act: &act}, nil
}

// Learnables returns the learnable nodes of the layer
func (f *fcLayer) Learnables() G.Nodes {
	if f.bias == nil {
		return G.Nodes{f.weights}
	}
	return G.Nodes{f.weights, f.bias}
}

// cloneNode copies node, with its current value, into graph g
func cloneNode(g *G.ExprGraph, node *G.Node) (*G.Node, error) {
	value, ok := node.Value().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("clonenode: node %v has no dense value",
			node.Name())
	}

	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(node.Shape()...),
		G.WithName(node.Name()),
		G.WithValue(value.Clone().(*tensor.Dense)),
	), nil
}

// makeFCLayers creates a stack of fully connected layers on g with the
// argument hidden sizes, bias units, and activations. Layer names are
// prefixed with prefix so that multiple stacks can share a graph.
func makeFCLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation,
	prefix string) ([]Layer, error) {
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("makefclayers: invalid number of biases"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(biases))
	}
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("makefclayers: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(activations))
	}

	layers := make([]Layer, len(hiddenSizes))
	in := features
	for i, out := range hiddenSizes {
		name := fmt.Sprintf("%vL%d", prefix, i)
		layers[i] = newFCLayer(g, in, out, biases[i], init, activations[i],
			name)
		in = out
	}
	return layers, nil
}

// forward threads x through layers in order
func forward(x *G.Node, layers []Layer) (*G.Node, error) {
	var err error
	for _, layer := range layers {
		x, err = layer.fwd(x)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

// cloneLayersTo clones each layer in layers into graph g
func cloneLayersTo(g *G.ExprGraph, layers []Layer) ([]Layer, error) {
	cloned := make([]Layer, len(layers))
	for i, layer := range layers {
		c, err := layer.CloneTo(g)
		if err != nil {
			return nil, err
		}
		cloned[i] = c
	}
	return cloned, nil
}

// learnables collects the learnable nodes of each layer in layers
func learnables(layerStacks ...[]Layer) G.Nodes {
	var nodes G.Nodes
	for _, layers := range layerStacks {
		for _, layer := range layers {
			nodes = append(nodes, layer.Learnables()...)
		}
	}
	return nodes
}

// resampleLayerNoise resamples the noise of any noisy layers in the
// argument stacks
func resampleLayerNoise(layerStacks ...[]Layer) error {
	for _, layers := range layerStacks {
		for _, layer := range layers {
			if sampler, ok := layer.(noiseResampler); ok {
				if err := sampler.resampleNoise(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
