package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/behavior"
)

//go:embed config_schema.json
var configSchema string

// IndexGrid and IndexOctree select the spatial partitioning strategy.
const (
	IndexGrid   = "grid"
	IndexOctree = "octree"
)

// Config collects every tunable of a simulation run. Rule configurations are
// shared read-only by all agents; the engine never mutates them after
// NewWorld.
type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`
	WorldDepth  float64 `json:"worldDepth"`

	// Population
	NumAgents int `json:"numAgents"`

	// Perception & Physics
	PerceptionRadius float64 `json:"perceptionRadius"` // Shared neighbor query radius
	MaxSpeed         float64 `json:"maxSpeed"`
	MaxForce         float64 `json:"maxForce"`

	// Spatial index selection
	IndexStrategy     string  `json:"indexStrategy"`     // "grid" or "octree"
	CellSize          float64 `json:"cellSize"`          // grid only
	CapacityThreshold int     `json:"capacityThreshold"` // octree only
	MaxDepth          int     `json:"maxDepth"`          // octree only

	// Steering rules, evaluated in this declaration order
	Separation behavior.RuleConfig `json:"separation"`
	Alignment  behavior.RuleConfig `json:"alignment"`
	Cohesion   behavior.RuleConfig `json:"cohesion"`
	Wander     behavior.RuleConfig `json:"wander"`

	WanderTurnRate float64 `json:"wanderTurnRate"` // Wander perturbation cap
	BoundaryMargin float64 `json:"boundaryMargin"` // Soft edge band width
	TurnFactor     float64 `json:"turnFactor"`     // Edge turning strength

	// Messaging
	MaxMessagesPerStep int `json:"maxMessagesPerStep"`

	// Engine
	Seed    int64 `json:"seed"`    // Spawn placement seed
	Workers int   `json:"workers"` // Compute-phase goroutines; 0 = GOMAXPROCS
}

// DefaultConfig returns a tuned 500-agent grid setup.
func DefaultConfig() *Config {
	return &Config{
		WorldWidth:  1000,
		WorldHeight: 800,
		WorldDepth:  600,

		NumAgents: 500,

		PerceptionRadius: 70,
		MaxSpeed:         4.0,
		MaxForce:         0.5,

		IndexStrategy:     IndexGrid,
		CellSize:          70,
		CapacityThreshold: 16,
		MaxDepth:          8,

		Separation: behavior.RuleConfig{Weight: 1.5, Enabled: true, MinDistance: 0, MaxDistance: 20},
		Alignment:  behavior.RuleConfig{Weight: 1.0, Enabled: true, MinDistance: 0, MaxDistance: 70},
		Cohesion:   behavior.RuleConfig{Weight: 0.8, Enabled: true, MinDistance: 0, MaxDistance: 70},
		Wander:     behavior.RuleConfig{Weight: 1.0, Enabled: true, MinDistance: 0, MaxDistance: 70},

		WanderTurnRate: 0.05,
		BoundaryMargin: 100,
		TurnFactor:     0.2,

		MaxMessagesPerStep: 64,

		Seed:    1,
		Workers: 0,
	}
}

// LoadConfig loads configuration from a JSON file and validates it against
// the embedded schema before unmarshalling, so malformed files fail fast
// with the schema's diagnostics instead of half-applied settings.
func LoadConfig(configFile string) (*Config, error) {
	sch, err := jsonschema.CompileString("config_schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Unknown keys were already rejected by the schema; start from defaults
	// so partial files stay runnable.
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
