package experiment

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/environment/render"
	"github.com/revolvedev/revolve/experiment/checkpointer"
	"github.com/revolvedev/revolve/experiment/tracker"
	ts "github.com/revolvedev/revolve/timestep"
	"github.com/revolvedev/revolve/utils/progressbar"
)

// Online is an Experiment that runs an agent online on an environment:
// the agent learns from the same episodes it generates. Training
// episodes are interleaved with evaluation phases of TestNum episodes
// every TestInterval training episodes, during which the agent acts
// greedily and does not learn.
type Online struct {
	environment environment.Environment
	agent       agent.Agent
	conf        Config

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer

	trainRenderer *render.Renderer
	testRenderer  *render.Renderer
	progress      *progressbar.ProgressBar

	log    zerolog.Logger
	runLog *tracker.RunLogger
}

// NewOnline returns a new online experiment running a on e under the
// schedule of c, logging progress to log
func NewOnline(e environment.Environment, a agent.Agent, c Config,
	log zerolog.Logger) (*Online, error) {
	if c.TotalNumEpisodes <= 0 {
		return nil, fmt.Errorf("newonline: experiments must run a "+
			"positive number of episodes \n\thave(%v)", c.TotalNumEpisodes)
	}

	o := &Online{
		environment: e,
		agent:       a,
		conf:        c,
		log:         log,
	}

	var err error
	if c.RenderTrain {
		o.trainRenderer, err = render.New(
			filepath.Join(c.OutDir, "frames", "train"), c.EnvName)
		if err != nil {
			return nil, fmt.Errorf("newonline: %v", err)
		}
	}
	if c.RenderTest {
		o.testRenderer, err = render.New(
			filepath.Join(c.OutDir, "frames", "test"), c.EnvName)
		if err != nil {
			return nil, fmt.Errorf("newonline: %v", err)
		}
	}

	return o, nil
}

// Register implements the Experiment interface
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RegisterCheckpointer implements the Experiment interface
func (o *Online) RegisterCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// LogMetricsTo additionally records run metrics with r
func (o *Online) LogMetricsTo(r *tracker.RunLogger) {
	o.runLog = r
}

// Run implements the Experiment interface
func (o *Online) Run() error {
	if o.conf.Progress {
		o.progress = progressbar.New(40, o.conf.TotalNumEpisodes,
			time.Second)
		o.progress.Display()
		defer o.progress.Close()
	}

	for episode := 1; episode <= o.conf.TotalNumEpisodes; episode++ {
		episodeReturn, steps, err := o.runEpisode(o.trainRenderer, true)
		if err != nil {
			return fmt.Errorf("run: training episode %v: %v", episode,
				err)
		}

		epsilon := 0.0
		event := o.log.Info().
			Int("episode", episode).
			Int("steps", steps).
			Float64("return", episodeReturn)
		if explorer, ok := o.agent.(interface{ Epsilon() float64 }); ok {
			epsilon = explorer.Epsilon()
			event = event.Float64("epsilon", epsilon)
		}
		event.Msg("training episode complete")

		if o.runLog != nil {
			o.runLog.Episode(episode, steps, episodeReturn, epsilon)
		}

		if o.conf.TestInterval > 0 && episode%o.conf.TestInterval == 0 {
			meanReturn, err := o.evaluate()
			if err != nil {
				return fmt.Errorf("run: evaluation after episode %v: %v",
					episode, err)
			}

			o.log.Info().
				Int("episode", episode).
				Int("test_episodes", o.conf.TestNum).
				Float64("mean_return", meanReturn).
				Msg("evaluation complete")

			if o.runLog != nil {
				o.runLog.Evaluation(episode, o.conf.TestNum, meanReturn)
			}
		}

		for _, c := range o.checkpointers {
			if err := c.Checkpoint(episode); err != nil {
				return fmt.Errorf("run: could not checkpoint after "+
					"episode %v: %v", episode, err)
			}
		}

		if o.progress != nil {
			o.progress.Increment()
		}
	}

	return nil
}

// evaluate runs TestNum evaluation episodes and returns their mean
// return. The agent is left in training mode.
func (o *Online) evaluate() (float64, error) {
	o.agent.Eval()
	defer o.agent.Train()

	total := 0.0
	for i := 0; i < o.conf.TestNum; i++ {
		episodeReturn, _, err := o.runEpisode(o.testRenderer, false)
		if err != nil {
			return 0, err
		}
		total += episodeReturn
	}
	return total / float64(o.conf.TestNum), nil
}

// runEpisode runs a single episode to completion, returning its return
// and length. Only training episodes feed the registered trackers; the
// agent itself decides whether to learn based on its mode.
func (o *Online) runEpisode(renderer *render.Renderer,
	track bool) (float64, int, error) {
	step, err := o.environment.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("runepisode: could not reset "+
			"environment: %v", err)
	}
	if err := o.agent.ObserveFirst(step); err != nil {
		return 0, 0, fmt.Errorf("runepisode: %v", err)
	}
	if track {
		o.track(step)
	}
	if err := o.render(renderer, step); err != nil {
		return 0, 0, fmt.Errorf("runepisode: %v", err)
	}

	episodeReturn := 0.0
	steps := 0
	for !step.Last() {
		action := o.agent.SelectAction(step)

		next, _, err := o.environment.Step(action)
		if err != nil {
			return 0, 0, fmt.Errorf("runepisode: could not step "+
				"environment: %v", err)
		}
		if track {
			o.track(next)
		}
		if err := o.render(renderer, next); err != nil {
			return 0, 0, fmt.Errorf("runepisode: %v", err)
		}

		if err := o.agent.Observe(action, next); err != nil {
			return 0, 0, fmt.Errorf("runepisode: %v", err)
		}
		if err := o.agent.Step(); err != nil {
			return 0, 0, fmt.Errorf("runepisode: %v", err)
		}

		episodeReturn += next.Reward
		steps++
		step = next
	}

	if err := o.agent.EndEpisode(); err != nil {
		return 0, 0, fmt.Errorf("runepisode: %v", err)
	}
	return episodeReturn, steps, nil
}

// track records a timestep with every registered tracker
func (o *Online) track(step ts.TimeStep) {
	for _, t := range o.trackers {
		t.Track(step)
	}
}

// render draws a timestep if renderer is active
func (o *Online) render(renderer *render.Renderer, step ts.TimeStep) error {
	if renderer == nil {
		return nil
	}
	return renderer.Render(step)
}

// Save implements the Experiment interface
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Environment implements the Experiment interface
func (o *Online) Environment() environment.Environment {
	return o.environment
}

// Agent implements the Experiment interface
func (o *Online) Agent() agent.Agent {
	return o.agent
}
