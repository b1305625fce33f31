package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	ts "github.com/revolvedev/revolve/timestep"
)

// Return tracks the episodic returns of an agent-environment
// interaction and saves them as a gob-encoded []float64
type Return struct {
	filename string

	currentReturn   float64
	episodicReturns []float64
}

// NewReturn returns a new Return tracker which saves to filename
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track implements the Tracker interface. The first timestep of an
// episode carries no reward, so tracking every timestep in order
// accumulates exactly the episodic return.
func (r *Return) Track(t ts.TimeStep) {
	r.currentReturn += t.Reward
	if t.Last() {
		r.episodicReturns = append(r.episodicReturns, r.currentReturn)
		r.currentReturn = 0
	}
}

// Returns returns the episodic returns tracked so far
func (r *Return) Returns() []float64 {
	out := make([]float64, len(r.episodicReturns))
	copy(out, r.episodicReturns)
	return out
}

// Save implements the Tracker interface
func (r *Return) Save() error {
	dir := filepath.Dir(r.filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: could not create data directory: %v", err)
	}

	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not create data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(r.episodicReturns); err != nil {
		return fmt.Errorf("save: could not encode episodic returns: %v",
			err)
	}
	return nil
}
