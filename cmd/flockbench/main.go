package main

import (
	"flag"
	"os"
	"time"

	golog "github.com/tochemey/goakt/v3/log"
	"gonum.org/v1/gonum/stat"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/simulation"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (defaults apply when empty)")
	steps := flag.Int("steps", 500, "number of simulation steps to run")
	dt := flag.Float64("dt", 1.0, "simulated seconds per step")
	numAgents := flag.Int("agents", 0, "override the number of agents")
	indexStrategy := flag.String("index", "", "override the spatial index strategy: grid or octree")
	workers := flag.Int("workers", -1, "override compute workers (0 = GOMAXPROCS)")
	csvPath := flag.String("csv", "", "write per-step telemetry to this CSV file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := golog.InfoLevel
	if *verbose {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stderr)

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		loaded, err := simulation.LoadConfig(*configPath)
		if err != nil {
			logger.Errorf("loading config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *numAgents > 0 {
		cfg.NumAgents = *numAgents
	}
	if *indexStrategy != "" {
		cfg.IndexStrategy = *indexStrategy
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}

	world, err := simulation.NewWorld(cfg, logger)
	if err != nil {
		logger.Errorf("building world: %v", err)
		os.Exit(1)
	}
	if err := world.Populate(); err != nil {
		logger.Errorf("populating world: %v", err)
		os.Exit(1)
	}

	rec, err := simulation.NewRecorder(*csvPath)
	if err != nil {
		logger.Errorf("opening telemetry csv: %v", err)
		os.Exit(1)
	}
	defer rec.Close()

	logger.Infof("running %d steps: %d agents, %s index, %d workers",
		*steps, world.Len(), cfg.IndexStrategy, cfg.Workers)

	stepMillis := make([]float64, 0, *steps)
	start := time.Now()
	for i := 0; i < *steps; i++ {
		if err := world.Step(*dt); err != nil {
			logger.Errorf("step %d: %v", world.StepCount(), err)
			os.Exit(1)
		}
		s := world.LastStats()
		stepMillis = append(stepMillis, s.StepMillis)
		if err := rec.Record(s); err != nil {
			logger.Errorf("recording step %d: %v", s.Step, err)
			os.Exit(1)
		}
	}
	total := time.Since(start)

	mean := stat.Mean(stepMillis, nil)
	std := 0.0
	if len(stepMillis) > 1 {
		std = stat.StdDev(stepMillis, nil)
	}
	last := world.LastStats()
	logger.Infof("done in %v: step %.3fms mean (std %.3f), %.1f neighbors mean at the end",
		total.Round(time.Millisecond), mean, std, last.NeighborsMean)
	if *csvPath != "" {
		logger.Infof("telemetry written to %s", *csvPath)
	}
}
