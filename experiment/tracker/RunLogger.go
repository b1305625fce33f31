package tracker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// RunLogger appends per-episode and per-evaluation metrics of a run to
// a JSON-lines file, one event per line, so that runs can be shipped to
// external experiment dashboards
type RunLogger struct {
	file *os.File
	log  zerolog.Logger
}

// NewRunLogger returns a new RunLogger appending to filename
func NewRunLogger(filename string) (*RunLogger, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("newrunlogger: could not create metrics "+
			"directory: %v", err)
	}

	file, err := os.OpenFile(filename,
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("newrunlogger: could not open metrics "+
			"file: %v", err)
	}

	return &RunLogger{
		file: file,
		log:  zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

// Episode records the metrics of a completed training episode
func (r *RunLogger) Episode(episode, steps int, episodeReturn,
	epsilon float64) {
	r.log.Info().
		Str("event", "episode").
		Int("episode", episode).
		Int("steps", steps).
		Float64("return", episodeReturn).
		Float64("epsilon", epsilon).
		Send()
}

// Evaluation records the metrics of an evaluation phase run after
// the argument training episode
func (r *RunLogger) Evaluation(episode, numEpisodes int,
	meanReturn float64) {
	r.log.Info().
		Str("event", "evaluation").
		Int("episode", episode).
		Int("test_episodes", numEpisodes).
		Float64("mean_return", meanReturn).
		Send()
}

// Close closes the underlying metrics file
func (r *RunLogger) Close() error {
	return r.file.Close()
}
