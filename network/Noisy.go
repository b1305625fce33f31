package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// DefaultSigma0 is the default initial value of the noise scale of
// noisy layers, scaled by 1/√in per layer
const DefaultSigma0 float64 = 0.5

// noisyLayer implements a fully connected layer with factorized
// Gaussian noise on its weights and bias. The effective weights on
// each forward pass are w = wμ + wσ ⊙ εw, and similarly for the bias.
// The ε nodes are plain inputs to the graph, set by resampleNoise,
// so that gradients flow only to the μ and σ learnables.
type noisyLayer struct {
	weightMu    *G.Node
	weightSigma *G.Node
	biasMu      *G.Node
	biasSigma   *G.Node

	weightEps *G.Node
	biasEps   *G.Node

	in, out int
	act     *Activation
	norm    *distuv.Normal
}

// newNoisyLayer returns a new noisy layer between in and out units on
// graph g. All noisy layers of a network share norm for sampling ε.
func newNoisyLayer(g *G.ExprGraph, in, out int, sigma0 float64,
	act *Activation, name string, norm *distuv.Normal) (*noisyLayer,
	error) {
	bound := 1.0 / math.Sqrt(float64(in))
	sigmaInit := sigma0 / math.Sqrt(float64(in))

	layer := &noisyLayer{
		weightMu: G.NewMatrix(g, tensor.Float64, G.WithShape(in, out),
			G.WithName(name+"WMu"), G.WithInit(G.Uniform(-bound, bound))),
		weightSigma: G.NewMatrix(g, tensor.Float64, G.WithShape(in, out),
			G.WithName(name+"WSigma"), G.WithInit(G.ValuesOf(sigmaInit))),
		biasMu: G.NewMatrix(g, tensor.Float64, G.WithShape(1, out),
			G.WithName(name+"BMu"), G.WithInit(G.Uniform(-bound, bound))),
		biasSigma: G.NewMatrix(g, tensor.Float64, G.WithShape(1, out),
			G.WithName(name+"BSigma"), G.WithInit(G.ValuesOf(sigmaInit))),
		weightEps: G.NewMatrix(g, tensor.Float64, G.WithShape(in, out),
			G.WithName(name+"WEps"), G.WithInit(G.Zeroes())),
		biasEps: G.NewMatrix(g, tensor.Float64, G.WithShape(1, out),
			G.WithName(name+"BEps"), G.WithInit(G.Zeroes())),
		in:   in,
		out:  out,
		act:  act,
		norm: norm,
	}

	if err := layer.resampleNoise(); err != nil {
		return nil, fmt.Errorf("newnoisylayer: %v", err)
	}
	return layer, nil
}

// fwd computes the forward pass of the layer on input x
func (n *noisyLayer) fwd(x *G.Node) (*G.Node, error) {
	weightNoise, err := G.HadamardProd(n.weightSigma, n.weightEps)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not scale weight noise: %v", err)
	}
	weights, err := G.Add(n.weightMu, weightNoise)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not perturb weights: %v", err)
	}

	biasNoise, err := G.HadamardProd(n.biasSigma, n.biasEps)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not scale bias noise: %v", err)
	}
	bias, err := G.Add(n.biasMu, biasNoise)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not perturb bias: %v", err)
	}

	out, err := G.Mul(x, weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}
	out, err = G.BroadcastAdd(out, bias, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not add bias: %v", err)
	}

	return n.act.fwd(out)
}

// resampleNoise draws fresh factorized noise ε and sets the ε input
// nodes. With factorized noise, εw[i][j] = f(εin[i])f(εout[j]) and
// εb[j] = f(εout[j]), where f(x) = sgn(x)√|x|.
func (n *noisyLayer) resampleNoise() error {
	epsIn := make([]float64, n.in)
	for i := range epsIn {
		epsIn[i] = noiseScale(n.norm.Rand())
	}
	epsOut := make([]float64, n.out)
	for j := range epsOut {
		epsOut[j] = noiseScale(n.norm.Rand())
	}

	weightEps := make([]float64, n.in*n.out)
	for i := 0; i < n.in; i++ {
		for j := 0; j < n.out; j++ {
			weightEps[i*n.out+j] = epsIn[i] * epsOut[j]
		}
	}

	err := G.Let(n.weightEps, tensor.New(
		tensor.WithBacking(weightEps),
		tensor.WithShape(n.in, n.out),
	))
	if err != nil {
		return fmt.Errorf("resamplenoise: could not set weight noise: %v",
			err)
	}

	err = G.Let(n.biasEps, tensor.New(
		tensor.WithBacking(epsOut),
		tensor.WithShape(1, n.out),
	))
	if err != nil {
		return fmt.Errorf("resamplenoise: could not set bias noise: %v", err)
	}
	return nil
}

// CloneTo clones the layer, with its current weights and noise, into
// graph g
func (n *noisyLayer) CloneTo(g *G.ExprGraph) (Layer, error) {
	nodes := []*G.Node{n.weightMu, n.weightSigma, n.biasMu, n.biasSigma,
		n.weightEps, n.biasEps}
	cloned := make([]*G.Node, len(nodes))
	for i, node := range nodes {
		c, err := cloneNode(g, node)
		if err != nil {
			return nil, fmt.Errorf("cloneto: %v", err)
		}
		cloned[i] = c
	}

	act := *n.act
	return &noisyLayer{
		weightMu:    cloned[0],
		weightSigma: cloned[1],
		biasMu:      cloned[2],
		biasSigma:   cloned[3],
		weightEps:   cloned[4],
		biasEps:     cloned[5],
		in:          n.in,
		out:         n.out,
		act:         &act,
		norm:        n.norm,
	}, nil
}

// Learnables returns the learnable nodes of the layer. The ε nodes
// are not learnable.
func (n *noisyLayer) Learnables() G.Nodes {
	return G.Nodes{n.weightMu, n.weightSigma, n.biasMu, n.biasSigma}
}

// noiseScale is the factorized noise scaling f(x) = sgn(x)√|x|
func noiseScale(x float64) float64 {
	if x < 0 {
		return -math.Sqrt(-x)
	}
	return math.Sqrt(x)
}

// newNoiseSource returns the standard normal distribution used for
// sampling layer noise
func newNoiseSource(seed uint64) *distuv.Normal {
	return &distuv.Normal{
		Mu:    0.0,
		Sigma: 1.0,
		Src:   rand.NewSource(seed),
	}
}

// makeNoisyLayers creates a stack of noisy layers on g with the
// argument hidden sizes and activations
func makeNoisyLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	sigma0 float64, activations []*Activation, prefix string,
	norm *distuv.Normal) ([]Layer, error) {
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("makenoisylayers: invalid number of "+
			"activations\n\twant(%v)\n\thave(%v)", len(hiddenSizes),
			len(activations))
	}

	layers := make([]Layer, len(hiddenSizes))
	in := features
	for i, out := range hiddenSizes {
		name := fmt.Sprintf("%vL%d", prefix, i)
		layer, err := newNoisyLayer(g, in, out, sigma0, activations[i],
			name, norm)
		if err != nil {
			return nil, fmt.Errorf("makenoisylayers: %v", err)
		}
		layers[i] = layer
		in = out
	}
	return layers, nil
}
