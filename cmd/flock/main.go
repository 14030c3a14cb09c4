package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/ui"
)

// The engine is tuned in units per tick, so one Update at time scale 1 is
// one simulation second.
const tickDt = 1.0

type Game struct {
	world  *simulation.World
	cfg    *simulation.Config
	logger golog.Logger
	snap   []simulation.AgentSnapshot

	panel     *ui.Panel
	paused    *ui.Checkbox
	timeScale *ui.Slider
	showHUD   *ui.Checkbox
	spawned   int
}

func newGame(world *simulation.World, cfg *simulation.Config, logger golog.Logger) *Game {
	g := &Game{world: world, cfg: cfg, logger: logger}

	g.panel = ui.NewPanel("Controls", cfg.WorldWidth-220, 10, 210)
	g.paused = g.panel.AddCheckbox("pause", false)
	g.showHUD = g.panel.AddCheckbox("stats", true)
	g.timeScale = g.panel.AddSlider("time scale", 0, 3, 1)
	g.panel.AddButton("spawn 25", g.spawnAgents)
	return g
}

// spawnAgents drops a burst of agents at a random spot so index churn can be
// watched live.
func (g *Game) spawnAgents() {
	center := geometry.Vector3D{
		X: rand.Float64() * g.cfg.WorldWidth,
		Y: rand.Float64() * g.cfg.WorldHeight,
		Z: rand.Float64() * g.cfg.WorldDepth,
	}
	for i := 0; i < 25; i++ {
		g.spawned++
		id := fmt.Sprintf("manual-%04d", g.spawned)
		pos := center.Add(geometry.NewVectorSpherical(rand.Float64()*30, rand.Float64()*math.Pi, rand.Float64()*2*math.Pi))
		vel := geometry.NewVectorSpherical(g.cfg.MaxSpeed/2, rand.Float64()*math.Pi, rand.Float64()*2*math.Pi)
		if err := g.world.Spawn(id, pos, vel); err != nil {
			g.logger.Warnf("spawn %s: %v", id, err)
			return
		}
	}
}

func (g *Game) Update() error {
	g.panel.Update()
	if g.paused.Value {
		return nil
	}
	dt := tickDt * g.timeScale.Value
	if dt <= 0 {
		return nil
	}
	return g.world.Step(dt)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	g.snap = g.world.Snapshot(g.snap[:0])
	for _, a := range g.snap {
		drawAgent(screen, a, g.cfg.WorldDepth)
	}

	if g.showHUD.Value {
		s := g.world.LastStats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"step %d  agents %d  index %s\nneighbors mean %.1f p90 %.0f\nforce mean %.3f  step %.2fms",
			s.Step, s.Agents, g.cfg.IndexStrategy,
			s.NeighborsMean, s.NeighborsP90, s.ForceMean, s.StepMillis))
	}
	g.panel.Draw(screen)
}

// drawAgent renders a heading triangle. Depth only affects size: agents near
// the far plane shrink, which is enough of a 3D cue for a debug view.
func drawAgent(screen *ebiten.Image, a simulation.AgentSnapshot, worldDepth float64) {
	angle := math.Atan2(a.Vel.Y, a.Vel.X)

	scale := 1.0
	if worldDepth > 0 {
		scale = 1.2 - 0.8*(a.Pos.Z/worldDepth)
	}
	tip := 6 * scale
	wing := 5 * scale

	tipX := a.Pos.X + math.Cos(angle)*tip
	tipY := a.Pos.Y + math.Sin(angle)*tip
	rightX := a.Pos.X + math.Cos(angle+2.5)*wing
	rightY := a.Pos.Y + math.Sin(angle+2.5)*wing
	leftX := a.Pos.X + math.Cos(angle-2.5)*wing
	leftY := a.Pos.Y + math.Sin(angle-2.5)*wing

	vertices := []ebiten.Vertex{
		{
			DstX: float32(tipX),
			DstY: float32(tipY),
			SrcX: 1, SrcY: 1,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		},
		{
			DstX: float32(rightX),
			DstY: float32(rightY),
			SrcX: 1, SrcY: 1,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		},
		{
			DstX: float32(leftX),
			DstY: float32(leftY),
			SrcX: 1, SrcY: 1,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		},
	}

	indices := []uint16{0, 1, 2}
	op := &ebiten.DrawTrianglesOptions{}
	screen.DrawTriangles(vertices, indices, whiteImage, op)
}

func (g *Game) Layout(w, h int) (int, int) {
	return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight)
}

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
}

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (defaults apply when empty)")
	indexStrategy := flag.String("index", "", "override the spatial index strategy: grid or octree")
	numAgents := flag.Int("agents", 0, "override the number of agents")
	flag.Parse()

	logger := golog.DefaultLogger

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		loaded, err := simulation.LoadConfig(*configPath)
		if err != nil {
			logger.Errorf("loading config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *indexStrategy != "" {
		cfg.IndexStrategy = *indexStrategy
	}
	if *numAgents > 0 {
		cfg.NumAgents = *numAgents
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
	logger.Infof("flock ready: %d agents, %s index", world.Len(), cfg.IndexStrategy)

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Flocking Engine")
	if err := ebiten.RunGame(newGame(world, cfg, logger)); err != nil {
		logger.Errorf("run: %v", err)
		os.Exit(1)
	}
}
