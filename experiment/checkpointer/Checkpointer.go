// Package checkpointer implements checkpointing of agents during
// experiments so that learned weights can be restored later
package checkpointer

import (
	"fmt"
	"path/filepath"
	"time"
)

// Serializable is an object that can save itself to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer checkpoints a Serializable on some schedule, keyed on
// the number of the training episode that just completed
type Checkpointer interface {
	Checkpoint(episode int) error
}

// FileEnumerator returns a function generating enumerated checkpoint
// filenames in dir: prefix_0suffix, prefix_1suffix, and so on
func FileEnumerator(dir, prefix, suffix string) func() string {
	i := 0
	return func() string {
		name := filepath.Join(dir, fmt.Sprintf("%v_%d%v", prefix, i,
			suffix))
		i++
		return name
	}
}

// FileTimer returns a function generating timestamped checkpoint
// filenames in dir
func FileTimer(dir, prefix, suffix string) func() string {
	return func() string {
		stamp := time.Now().Format("2006-01-02T15-04-05")
		return filepath.Join(dir, fmt.Sprintf("%v_%v%v", prefix, stamp,
			suffix))
	}
}
