package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/spatial"
)

var (
	// ErrUnknownAgent reports an operation on an agent id the world has
	// never seen (or already despawned).
	ErrUnknownAgent = errors.New("simulation: unknown agent")

	// ErrDuplicateAgent reports a Spawn with an id that is already alive.
	ErrDuplicateAgent = errors.New("simulation: duplicate agent id")
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workerScratch holds per-worker reusable query and neighbor buffers.
type workerScratch struct {
	entries   []spatial.Entry
	neighbors []behavior.Neighbor
}

// World owns the registered agents, one spatial index and one shared
// steering pipeline, and advances them with a two-phase step: compute every
// agent's force against the settled previous positions (parallel across
// agents, read-only), then serially integrate and re-index every agent.
// The split keeps results independent of agent processing order.
type World struct {
	cfg      *Config
	index    spatial.Index
	pipeline *behavior.Pipeline
	bus      *Bus
	logger   log.Logger
	rng      *rand.Rand

	agents map[string]*behavior.AgentState
	order  []string // stable spawn order, drives deterministic iteration

	step    int64
	simTime float64

	numWorkers int
	scratches  []workerScratch
	forces     []geometry.Vector3D

	neighborCounts []float64
	forceMags      []float64
	lastStats      StepStats
}

// NewWorld builds the index and steering pipeline from cfg. A nil logger
// discards everything, the library never insists on output.
func NewWorld(cfg *Config, logger log.Logger) (*World, error) {
	if logger == nil {
		logger = log.DiscardLogger
	}

	index, err := newIndex(cfg)
	if err != nil {
		return nil, err
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}

	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].entries = make([]spatial.Entry, 0, 64)
		scratches[i].neighbors = make([]behavior.Neighbor, 0, 64)
	}

	return &World{
		cfg:        cfg,
		index:      index,
		pipeline:   pipeline,
		bus:        NewBus(cfg.MaxMessagesPerStep, logger),
		logger:     logger,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		agents:     make(map[string]*behavior.AgentState),
		numWorkers: numWorkers,
		scratches:  scratches,
	}, nil
}

func newIndex(cfg *Config) (spatial.Index, error) {
	switch cfg.IndexStrategy {
	case IndexGrid:
		return spatial.NewGrid(cfg.CellSize)
	case IndexOctree:
		bounds := spatial.AABB{
			Max: geometry.Vector3D{X: cfg.WorldWidth, Y: cfg.WorldHeight, Z: cfg.WorldDepth},
		}
		return spatial.NewOctree(bounds, cfg.CapacityThreshold, cfg.MaxDepth)
	default:
		return nil, fmt.Errorf("%w: unknown index strategy %q", spatial.ErrConfig, cfg.IndexStrategy)
	}
}

// newPipeline wires the configured rules in their fixed evaluation order:
// separation, alignment, cohesion, wander, boundary.
func newPipeline(cfg *Config) (*behavior.Pipeline, error) {
	sep, err := behavior.NewSeparation(cfg.Separation)
	if err != nil {
		return nil, err
	}
	ali, err := behavior.NewAlignment(cfg.Alignment)
	if err != nil {
		return nil, err
	}
	coh, err := behavior.NewCohesion(cfg.Cohesion)
	if err != nil {
		return nil, err
	}
	wan, err := behavior.NewWander(cfg.Wander, cfg.WanderTurnRate)
	if err != nil {
		return nil, err
	}
	boundary, err := behavior.NewBoundary(
		behavior.RuleConfig{Weight: 1, Enabled: true, MaxDistance: cfg.PerceptionRadius},
		geometry.Vector3D{},
		geometry.Vector3D{X: cfg.WorldWidth, Y: cfg.WorldHeight, Z: cfg.WorldDepth},
		cfg.BoundaryMargin,
		cfg.TurnFactor,
	)
	if err != nil {
		return nil, err
	}
	return behavior.NewPipeline(sep, ali, coh, wan, boundary), nil
}

// Spawn registers a new agent at pos with the world's shared physics limits
// and inserts it into the spatial index.
func (w *World) Spawn(id string, pos, vel geometry.Vector3D) error {
	if _, ok := w.agents[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAgent, id)
	}
	a := &behavior.AgentState{
		ID:               id,
		Pos:              pos,
		Vel:              vel,
		PerceptionRadius: w.cfg.PerceptionRadius,
		MaxSpeed:         w.cfg.MaxSpeed,
		MaxForce:         w.cfg.MaxForce,
	}
	if err := w.index.Insert(id, pos); err != nil {
		return err
	}
	w.agents[id] = a
	w.order = append(w.order, id)
	w.logger.Debugf("spawned %s at %s", id, pos)
	return nil
}

// Despawn removes the agent from the world and the index.
func (w *World) Despawn(id string) error {
	if _, ok := w.agents[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	if err := w.index.Remove(id); err != nil {
		return err
	}
	delete(w.agents, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.logger.Debugf("despawned %s", id)
	return nil
}

// Populate spawns cfg.NumAgents at seeded random positions with random unit
// velocities. Reusing the same seed reproduces the same swarm.
func (w *World) Populate() error {
	for i := 0; i < w.cfg.NumAgents; i++ {
		pos := geometry.Vector3D{
			X: w.rng.Float64() * w.cfg.WorldWidth,
			Y: w.rng.Float64() * w.cfg.WorldHeight,
			Z: w.rng.Float64() * w.cfg.WorldDepth,
		}
		vel := geometry.Vector3D{
			X: (w.rng.Float64() * 2) - 1,
			Y: (w.rng.Float64() * 2) - 1,
			Z: (w.rng.Float64() * 2) - 1,
		}
		if err := w.Spawn(fmt.Sprintf("agent-%04d", i), pos, vel); err != nil {
			return err
		}
	}
	w.logger.Infof("populated %d agents (%s index)", len(w.order), w.cfg.IndexStrategy)
	return nil
}

// Agent returns the live state for id. The pointer stays valid until the
// agent despawns; the caller must not mutate it mid-step.
func (w *World) Agent(id string) (*behavior.AgentState, error) {
	a, ok := w.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return a, nil
}

// Len returns the number of live agents.
func (w *World) Len() int {
	return len(w.order)
}

// Bus exposes the world's message bus.
func (w *World) Bus() *Bus {
	return w.bus
}

// Neighbors is the host-facing neighbor provider: one spatial query at the
// agent's perception radius, self excluded, distances precomputed. dst is
// reused when non-nil.
func (w *World) Neighbors(id string, dst []behavior.Neighbor) ([]behavior.Neighbor, error) {
	a, ok := w.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	entries := w.index.Query(a.Pos, a.PerceptionRadius, nil)
	return w.resolveNeighbors(a, entries, dst), nil
}

// resolveNeighbors turns raw index entries into neighbor records, dropping
// the querying agent itself.
func (w *World) resolveNeighbors(a *behavior.AgentState, entries []spatial.Entry, dst []behavior.Neighbor) []behavior.Neighbor {
	for _, e := range entries {
		if e.ID == a.ID {
			continue
		}
		other := w.agents[e.ID]
		dst = append(dst, behavior.Neighbor{
			ID:   e.ID,
			Pos:  e.Pos,
			Vel:  other.Vel,
			Dist: e.Pos.DistanceTo(a.Pos),
		})
	}
	return dst
}

// Step advances the simulation by dt seconds.
//
// Phase order: deliver pending messages, compute every agent's steering
// force against the settled positions, then apply kinematics and re-index.
// An index failure during apply means the caller broke the lifecycle
// contract somewhere; the step is aborted and the run is considered stalled.
func (w *World) Step(dt float64) error {
	start := time.Now()

	w.bus.dispatch(w)

	n := len(w.order)
	if cap(w.forces) < n {
		w.forces = make([]geometry.Vector3D, n)
		w.neighborCounts = make([]float64, n)
		w.forceMags = make([]float64, n)
	}
	w.forces = w.forces[:n]
	w.neighborCounts = w.neighborCounts[:n]
	w.forceMags = w.forceMags[:n]

	// Compute phase: read-only over agents and index, parallel when the
	// population is worth the goroutines.
	if n < parallelThreshold || w.numWorkers == 1 {
		w.computeChunk(0, n, &w.scratches[0])
	} else {
		w.computeParallel(n)
	}

	// Apply phase: serial writes, one index move per agent.
	for i, id := range w.order {
		a := w.agents[id]
		behavior.Integrate(a, w.forces[i], dt)
		if err := w.index.Move(id, a.Pos); err != nil {
			w.logger.Errorf("step %d: re-index of %s failed: %v", w.step, id, err)
			return fmt.Errorf("apply phase: %w", err)
		}
	}

	w.step++
	w.simTime += dt
	w.lastStats = w.collectStats(time.Since(start))
	return nil
}

// computeParallel fans the compute phase out over contiguous chunks.
func (w *World) computeParallel(n int) {
	chunkSize := (n + w.numWorkers - 1) / w.numWorkers
	var wg sync.WaitGroup
	for worker := 0; worker < w.numWorkers; worker++ {
		start := worker * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int, scratch *workerScratch) {
			defer wg.Done()
			w.computeChunk(start, end, scratch)
		}(start, end, &w.scratches[worker])
	}
	wg.Wait()
}

// computeChunk runs the steering pipeline for agents order[i0:i1].
func (w *World) computeChunk(i0, i1 int, scratch *workerScratch) {
	for i := i0; i < i1; i++ {
		a := w.agents[w.order[i]]
		scratch.entries = w.index.Query(a.Pos, a.PerceptionRadius, scratch.entries[:0])
		scratch.neighbors = w.resolveNeighbors(a, scratch.entries, scratch.neighbors[:0])

		force := w.pipeline.Compute(a, scratch.neighbors)
		w.forces[i] = force
		w.neighborCounts[i] = float64(len(scratch.neighbors))
		w.forceMags[i] = force.Len()
	}
}

// AgentSnapshot is a read-only copy of one agent for rendering or export.
type AgentSnapshot struct {
	ID  string
	Pos geometry.Vector3D
	Vel geometry.Vector3D
}

// Snapshot appends a copy of every agent in stable order to dst.
func (w *World) Snapshot(dst []AgentSnapshot) []AgentSnapshot {
	for _, id := range w.order {
		a := w.agents[id]
		dst = append(dst, AgentSnapshot{ID: a.ID, Pos: a.Pos, Vel: a.Vel})
	}
	return dst
}

// StepCount returns the number of completed steps.
func (w *World) StepCount() int64 {
	return w.step
}

// SimTime returns the accumulated simulation time in seconds.
func (w *World) SimTime() float64 {
	return w.simTime
}

// LastStats returns the telemetry record of the most recent step.
func (w *World) LastStats() StepStats {
	return w.lastStats
}
