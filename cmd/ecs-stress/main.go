package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mateusmp/bitengine/config"
	"github.com/mateusmp/bitengine/internal/sim"
	"github.com/pkg/profile"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML engine config.")
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of entities kept alive.")
	churn := flag.Float64("churn", 0.01, "Fraction of the population destroyed and respawned every frame.")
	seed := flag.Uint64("seed", 1, "Seed for the population generator.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	jsonOutput := flag.Bool("json", false, "Print the report as JSON.")
	memProfile := flag.Bool("profile", false, "Write an allocation profile to the working directory.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger(os.Stderr)

	if *memProfile {
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	log.Info().Int("entities", *entityCount).Float64("churn", *churn).Msg("starting stress test")
	world, err := sim.NewWorld(cfg, log, sim.Options{Entities: *entityCount, ChurnRate: *churn, Seed: *seed})
	if err != nil {
		log.Fatal().Err(err).Msg("build world")
	}
	defer world.Close()

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		ChurnRate:      *churn,
		Config:         cfg,
		GCPauseMetrics: *gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info().Dur("duration", *duration).Msg("running simulation")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			world.Step(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.Summary = world.Summary()
	report.Processors = world.Scheduler.GetStats().Processors
	report.EntitySystem = world.ES.CollectStats()
	log.Info().Uint64("frames", report.Summary.Frames).Msg("simulation finished")

	if *jsonOutput {
		err = report.WriteJSON(os.Stdout)
	} else {
		err = report.Generate(os.Stdout)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("write report")
	}
}
