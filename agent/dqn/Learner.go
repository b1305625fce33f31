package dqn

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/revolvedev/revolve/expreplay"
	"github.com/revolvedev/revolve/network"
)

// DQNLearner updates the weights of a DQN-family agent. It holds three
// batch-sized copies of the value network:
//
//   - trainNet, whose graph carries the loss and whose weights the
//     solver adapts
//   - targetNet, which evaluates bootstrap actions and is synced with
//     trainNet on the target update schedule
//   - onlineNet, which chooses bootstrap actions (double Q-learning)
//     and is synced with trainNet before every update
type DQNLearner struct {
	trainNet network.NeuralNet
	trainVM  G.VM
	solver   G.Solver
	loss     Loss

	targetNet network.NeuralNet
	targetVM  G.VM

	onlineNet network.NeuralNet
	onlineVM  G.VM

	tau              float64
	targetUpdateFreq int
	gradientSteps    int
}

// NewDQNLearner returns a new DQNLearner updating the weights of
// behaviour. The learner's training network starts from the behaviour
// network's weights.
func NewDQNLearner(c Config, behaviour network.NeuralNet,
	seed uint64) (*DQNLearner, error) {
	hp := c.HyperParameters

	trainNet, err := behaviour.CloneWithBatch(hp.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("newdqnlearner: could not create training "+
			"network: %v", err)
	}

	loss, err := c.loss()
	if err != nil {
		return nil, fmt.Errorf("newdqnlearner: %v", err)
	}

	cost, err := loss.Attach(trainNet)
	if err != nil {
		return nil, fmt.Errorf("newdqnlearner: %v", err)
	}
	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("newdqnlearner: could not compute "+
			"gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(trainNet.Graph(),
		G.BindDualValues(trainNet.Learnables()...))

	targetNet, err := trainNet.CloneWithBatch(hp.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("newdqnlearner: could not create target "+
			"network: %v", err)
	}
	targetVM := G.NewTapeMachine(targetNet.Graph())

	onlineNet, err := trainNet.CloneWithBatch(hp.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("newdqnlearner: could not create online "+
			"evaluation network: %v", err)
	}
	onlineVM := G.NewTapeMachine(onlineNet.Graph())

	return &DQNLearner{
		trainNet: trainNet,
		trainVM:  trainVM,
		solver:   hp.Solver,
		loss:     loss,

		targetNet: targetNet,
		targetVM:  targetVM,

		onlineNet: onlineNet,
		onlineVM:  onlineVM,

		tau:              hp.Tau,
		targetUpdateFreq: hp.TargetUpdateFreq,
	}, nil
}

// Step performs a single gradient step on the argument batch and
// returns the per-transition losses, used as replay priorities
func (d *DQNLearner) Step(batch *expreplay.Batch) ([]float64, error) {
	// Noisy layers draw fresh noise for every update
	if err := d.trainNet.ResampleNoise(); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	if err := d.targetNet.ResampleNoise(); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// The online network chooses bootstrap actions with the current
	// weights
	if err := d.onlineNet.Set(d.trainNet); err != nil {
		return nil, fmt.Errorf("step: could not sync online network: %v",
			err)
	}

	// Predict the action values of the next states
	if err := d.targetNet.SetInput(batch.NextStates); err != nil {
		return nil, fmt.Errorf("step: could not set target net input: %v",
			err)
	}
	if err := d.targetVM.RunAll(); err != nil {
		return nil, fmt.Errorf("step: could not run target net: %v", err)
	}
	if err := d.onlineNet.SetInput(batch.NextStates); err != nil {
		return nil, fmt.Errorf("step: could not set online net input: %v",
			err)
	}
	if err := d.onlineVM.RunAll(); err != nil {
		return nil, fmt.Errorf("step: could not run online net: %v", err)
	}

	// Compute the update targets on the CPU and feed them into the
	// training graph
	err := d.loss.SetBatch(batch, d.targetNet.Output(),
		d.onlineNet.Output())
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	d.targetVM.Reset()
	d.onlineVM.Reset()

	if err := d.trainNet.SetInput(batch.States); err != nil {
		return nil, fmt.Errorf("step: could not set train net input: %v",
			err)
	}

	// Run the learning step
	if err := d.trainVM.RunAll(); err != nil {
		return nil, fmt.Errorf("step: could not run training net: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return nil, fmt.Errorf("step: could not step solver: %v", err)
	}
	elementLoss := d.loss.ElementLoss()
	d.trainVM.Reset()
	d.gradientSteps++

	// Update the target network by moving its weights towards the
	// newly learned weights
	if d.gradientSteps%d.targetUpdateFreq == 0 {
		if d.tau == 1.0 {
			err = d.targetNet.Set(d.trainNet)
		} else {
			err = d.targetNet.Polyak(d.trainNet, d.tau)
		}
		if err != nil {
			return nil, fmt.Errorf("step: could not update target "+
				"network: %v", err)
		}
	}

	return elementLoss, nil
}

// SyncInto sets the weights of net to the learner's current weights
func (d *DQNLearner) SyncInto(net network.NeuralNet) error {
	return net.Set(d.trainNet)
}

// LoadFrom sets the weights of every learner network to the weights
// of net, e.g. when restoring a checkpoint
func (d *DQNLearner) LoadFrom(net network.NeuralNet) error {
	if err := d.trainNet.Set(net); err != nil {
		return fmt.Errorf("loadfrom: could not set training network: %v",
			err)
	}
	if err := d.targetNet.Set(net); err != nil {
		return fmt.Errorf("loadfrom: could not set target network: %v",
			err)
	}
	if err := d.onlineNet.Set(net); err != nil {
		return fmt.Errorf("loadfrom: could not set online network: %v",
			err)
	}
	return nil
}

// GradientSteps returns the number of gradient steps taken so far
func (d *DQNLearner) GradientSteps() int {
	return d.gradientSteps
}

// Close closes the learner's virtual machines
func (d *DQNLearner) Close() error {
	if err := d.trainVM.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	if err := d.targetVM.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return d.onlineVM.Close()
}
