// Command revolve runs a value-based deep reinforcement learning
// experiment described by a YAML experiment file:
//
//	revolve -config configs/rainbow.yaml -seed 192382 -out results
package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/revolvedev/revolve/agent"
	"github.com/revolvedev/revolve/config"
	"github.com/revolvedev/revolve/environment"
	"github.com/revolvedev/revolve/experiment"
	"github.com/revolvedev/revolve/experiment/checkpointer"
	"github.com/revolvedev/revolve/experiment/tracker"
)

func main() {
	var (
		configPath = flag.String("config", "", "experiment file to run")
		seed       = flag.Uint64("seed", 192382, "seed of the run")
		outDir     = flag.String("out", "results", "directory run "+
			"artifacts are written under")
		checkpointEvery = flag.Int("checkpoint", 0, "checkpoint the "+
			"agent every this many episodes (0 disables)")
		progress = flag.Bool("progress", false, "draw a progress bar "+
			"over training episodes")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	if *configPath == "" {
		log.Fatal().Msg("no experiment file given, use -config")
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load experiment file")
	}

	env, _, err := conf.Env.Create(*seed)
	if err != nil {
		log.Fatal().Err(err).Str("env", conf.Env.Name).
			Msg("could not create environment")
	}
	defer environment.Close(env)

	a, err := conf.CreateAgent(env, *seed)
	if err != nil {
		log.Fatal().Err(err).Str("agent", conf.Agent).
			Msg("could not create agent")
	}
	defer agent.Close(a)

	log.Info().
		Str("agent", conf.Agent).
		Str("loss", conf.Loss).
		Str("env", conf.Env.Name).
		Uint64("seed", *seed).
		Int("episodes", conf.TotalNumEpisodes).
		Msg("starting experiment")

	e, err := experiment.NewOnline(env, a, experiment.Config{
		TotalNumEpisodes: conf.TotalNumEpisodes,
		TestInterval:     conf.TestInterval,
		TestNum:          conf.TestNum,

		RenderTrain: conf.RenderTrain,
		RenderTest:  conf.RenderTest,
		Progress:    *progress,

		EnvName: conf.Env.Name,
		OutDir:  *outDir,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create experiment")
	}

	e.Register(tracker.NewReturn(filepath.Join(*outDir, "returns.bin")))

	if conf.LogWandB {
		runLog, err := tracker.NewRunLogger(
			filepath.Join(*outDir, "metrics.jsonl"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create metrics log")
		}
		defer runLog.Close()
		e.LogMetricsTo(runLog)
	}

	if *checkpointEvery > 0 {
		serializable, ok := a.(checkpointer.Serializable)
		if !ok {
			log.Fatal().Str("agent", conf.Agent).
				Msg("agent cannot be checkpointed")
		}
		nstep, err := checkpointer.NewNStep(*checkpointEvery, serializable,
			checkpointer.FileEnumerator(filepath.Join(*outDir,
				"checkpoints"), "weights", ".bin"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create checkpointer")
		}
		e.RegisterCheckpointer(nstep)
	}

	if err := e.Run(); err != nil {
		log.Fatal().Err(err).Msg("experiment failed")
	}
	if err := e.Save(); err != nil {
		log.Fatal().Err(err).Msg("could not save experiment data")
	}

	log.Info().Str("out", *outDir).Msg("experiment complete")
}
