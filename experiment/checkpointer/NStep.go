package checkpointer

import (
	"fmt"
)

// nStep checkpoints an object every interval training episodes
type nStep struct {
	interval int
	object   Serializable
	filename func() string
}

// NewNStep returns a Checkpointer that saves object every interval
// training episodes, to filenames drawn from filename
func NewNStep(interval int, object Serializable,
	filename func() string) (Checkpointer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("newnstep: checkpoint interval must be "+
			"positive \n\thave(%v)", interval)
	}
	if object == nil {
		return nil, fmt.Errorf("newnstep: no object to checkpoint")
	}
	if filename == nil {
		return nil, fmt.Errorf("newnstep: no filename generator")
	}

	return &nStep{
		interval: interval,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint implements the Checkpointer interface
func (n *nStep) Checkpoint(episode int) error {
	if episode%n.interval != 0 {
		return nil
	}

	if err := n.object.Save(n.filename()); err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	return nil
}
