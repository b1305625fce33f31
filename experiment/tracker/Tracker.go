// Package tracker implements tracking and saving of experimental data
// generated when an agent interacts with an environment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/revolvedev/revolve/timestep"
)

// Tracker tracks experimental data of an agent-environment
// interaction and saves it to disk
type Tracker interface {
	// Track records whatever data the Tracker needs from a single
	// timestep of the interaction
	Track(t ts.TimeStep)

	// Save writes the tracked data to disk
	Save() error
}

// LoadData loads the data that a Tracker saved to filename
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v",
			err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}
	return data, nil
}
