package dqn

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Save writes the agent's learned weights to filename as a gob-encoded
// map from learnable name to values
func (d *DQNBaseAgent) Save(filename string) error {
	weights := make(map[string][]float64)
	for _, node := range d.behaviour.Learnables() {
		values, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("save: learnable %v holds no values",
				node.Name())
		}
		weights[node.Name()] = append([]float64(nil), values...)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("save: could not create checkpoint "+
			"directory: %v", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v",
			err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(weights); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return nil
}

// Load restores weights written by Save into the behaviour network and
// every network of the learner
func (d *DQNBaseAgent) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open checkpoint file: %v", err)
	}
	defer file.Close()

	var weights map[string][]float64
	if err := gob.NewDecoder(file).Decode(&weights); err != nil {
		return fmt.Errorf("load: could not decode weights: %v", err)
	}

	for _, node := range d.behaviour.Learnables() {
		values, ok := weights[node.Name()]
		if !ok {
			return fmt.Errorf("load: checkpoint holds no weights for "+
				"learnable %v", node.Name())
		}
		if len(values) != node.Shape().TotalSize() {
			return fmt.Errorf("load: learnable %v sizes do not match "+
				"\n\twant(%v)\n\thave(%v)", node.Name(),
				node.Shape().TotalSize(), len(values))
		}

		backing := append([]float64(nil), values...)
		err := G.Let(node, tensor.New(tensor.WithBacking(backing),
			tensor.WithShape(node.Shape()...)))
		if err != nil {
			return fmt.Errorf("load: could not set learnable %v: %v",
				node.Name(), err)
		}
	}

	if err := d.learner.LoadFrom(d.behaviour); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}
