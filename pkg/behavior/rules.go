package behavior

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// steerTowards turns a desired direction into a steering force: rescale the
// direction to the agent's full speed, then take the difference with the
// current velocity. A degenerate (near zero) direction contributes nothing.
func steerTowards(a *AgentState, dir geometry.Vector3D) geometry.Vector3D {
	if dir.LenSqr() < geometry.Epsilon*geometry.Epsilon {
		return geometry.Vector3D{}
	}
	return dir.WithLen(a.MaxSpeed).Sub(a.Vel)
}

// ---------------------------------------------------------------------
// Separation
// ---------------------------------------------------------------------

// Separation pushes an agent away from neighbors inside its distance band.
// Closer neighbors push harder (inverse distance weighting).
type Separation struct {
	baseRule
}

// NewSeparation validates cfg and builds the rule.
func NewSeparation(cfg RuleConfig) (*Separation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Separation{baseRule{name: "separation", cfg: cfg}}, nil
}

// ComputeForce accumulates inverse-distance-weighted repulsion vectors and
// steers along their average. Coincident neighbors (distance ~ 0) would need
// a divide by zero to point anywhere, so they contribute nothing.
func (r *Separation) ComputeForce(a *AgentState, neighbors []Neighbor) geometry.Vector3D {
	var sum geometry.Vector3D
	count := 0
	for _, n := range neighbors {
		if !inBand(n.Dist, r.cfg.MinDistance, r.cfg.MaxDistance) {
			continue
		}
		if n.Dist < geometry.Epsilon {
			continue
		}
		away := a.Pos.Sub(n.Pos).Mul(1 / (n.Dist * n.Dist)) // normalize, then weight by 1/d
		sum = sum.Add(away)
		count++
	}
	if count == 0 {
		return geometry.Vector3D{}
	}
	return steerTowards(a, sum.Mul(1/float64(count)))
}

// ---------------------------------------------------------------------
// Alignment
// ---------------------------------------------------------------------

// Alignment steers toward the average heading of neighbors in range.
type Alignment struct {
	baseRule
}

// NewAlignment validates cfg and builds the rule.
func NewAlignment(cfg RuleConfig) (*Alignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Alignment{baseRule{name: "alignment", cfg: cfg}}, nil
}

func (r *Alignment) ComputeForce(a *AgentState, neighbors []Neighbor) geometry.Vector3D {
	var velSum geometry.Vector3D
	count := 0
	for _, n := range neighbors {
		if !inBand(n.Dist, r.cfg.MinDistance, r.cfg.MaxDistance) {
			continue
		}
		velSum = velSum.Add(n.Vel)
		count++
	}
	if count == 0 {
		return geometry.Vector3D{}
	}
	return steerTowards(a, velSum.Mul(1/float64(count)))
}

// ---------------------------------------------------------------------
// Cohesion
// ---------------------------------------------------------------------

// Cohesion seeks the centroid of neighbors in range.
type Cohesion struct {
	baseRule
}

// NewCohesion validates cfg and builds the rule.
func NewCohesion(cfg RuleConfig) (*Cohesion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cohesion{baseRule{name: "cohesion", cfg: cfg}}, nil
}

func (r *Cohesion) ComputeForce(a *AgentState, neighbors []Neighbor) geometry.Vector3D {
	var posSum geometry.Vector3D
	count := 0
	for _, n := range neighbors {
		if !inBand(n.Dist, r.cfg.MinDistance, r.cfg.MaxDistance) {
			continue
		}
		posSum = posSum.Add(n.Pos)
		count++
	}
	if count == 0 {
		return geometry.Vector3D{}
	}
	centroid := posSum.Mul(1 / float64(count))
	return steerTowards(a, centroid.Sub(a.Pos))
}

// ---------------------------------------------------------------------
// Seek / Flee
// ---------------------------------------------------------------------

// TargetSource supplies a (possibly moving) target point each step.
type TargetSource func() geometry.Vector3D

// FixedTarget wraps a static point as a TargetSource.
func FixedTarget(p geometry.Vector3D) TargetSource {
	return func() geometry.Vector3D { return p }
}

// Seek steers toward a target point, independent of neighbors.
type Seek struct {
	baseRule
	target TargetSource
}

// NewSeek validates cfg and builds the rule around the given target.
func NewSeek(cfg RuleConfig, target TargetSource) (*Seek, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Seek{baseRule: baseRule{name: "seek", cfg: cfg}, target: target}, nil
}

func (r *Seek) ComputeForce(a *AgentState, _ []Neighbor) geometry.Vector3D {
	return steerTowards(a, r.target().Sub(a.Pos))
}

// Flee steers away from a target point while the agent is within the rule's
// MaxDistance of it; beyond that the threat is ignored.
type Flee struct {
	baseRule
	target TargetSource
}

// NewFlee validates cfg and builds the rule around the given target.
func NewFlee(cfg RuleConfig, target TargetSource) (*Flee, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Flee{baseRule: baseRule{name: "flee", cfg: cfg}, target: target}, nil
}

func (r *Flee) ComputeForce(a *AgentState, _ []Neighbor) geometry.Vector3D {
	away := a.Pos.Sub(r.target())
	if away.Len() > r.cfg.MaxDistance {
		return geometry.Vector3D{}
	}
	return steerTowards(a, away)
}

// ---------------------------------------------------------------------
// Wander
// ---------------------------------------------------------------------

// Wander perturbs the heading stochastically, bounded by a turn-rate limit.
// It draws from the process-wide PRNG, which is safe for concurrent agents;
// runs needing bit-exact replay should disable wander.
type Wander struct {
	baseRule
	turnRate float64
}

// NewWander validates cfg and builds the rule. turnRate caps the magnitude
// of the per-step perturbation force.
func NewWander(cfg RuleConfig, turnRate float64) (*Wander, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if turnRate < 0 {
		return nil, errConfigf("wander turnRate must be >= 0, got %v", turnRate)
	}
	return &Wander{baseRule: baseRule{name: "wander", cfg: cfg}, turnRate: turnRate}, nil
}

func (r *Wander) ComputeForce(_ *AgentState, _ []Neighbor) geometry.Vector3D {
	jitter := geometry.Vector3D{
		X: (rand.Float64() - 0.5) * 2,
		Y: (rand.Float64() - 0.5) * 2,
		Z: (rand.Float64() - 0.5) * 2,
	}
	return jitter.Limit(1).Mul(r.turnRate)
}

// ---------------------------------------------------------------------
// Boundary
// ---------------------------------------------------------------------

// Boundary is the soft world-edge turn: inside the margin of any face it
// pushes back toward the interior with a constant turn force, so flocks
// drift away from walls instead of bouncing.
type Boundary struct {
	baseRule
	min, max   geometry.Vector3D
	margin     float64
	turnFactor float64
}

// NewBoundary validates cfg and builds the rule for the world box min..max.
func NewBoundary(cfg RuleConfig, min, max geometry.Vector3D, margin, turnFactor float64) (*Boundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if margin < 0 || turnFactor < 0 {
		return nil, errConfigf("boundary margin and turnFactor must be >= 0, got %v and %v", margin, turnFactor)
	}
	return &Boundary{
		baseRule:   baseRule{name: "boundary", cfg: cfg},
		min:        min,
		max:        max,
		margin:     margin,
		turnFactor: turnFactor,
	}, nil
}

func (r *Boundary) ComputeForce(a *AgentState, _ []Neighbor) geometry.Vector3D {
	var f geometry.Vector3D
	f.X = r.axisTurn(a.Pos.X, r.min.X, r.max.X)
	f.Y = r.axisTurn(a.Pos.Y, r.min.Y, r.max.Y)
	f.Z = r.axisTurn(a.Pos.Z, r.min.Z, r.max.Z)
	return f
}

func (r *Boundary) axisTurn(v, lo, hi float64) float64 {
	if v < lo+r.margin {
		return r.turnFactor
	}
	if v > hi-r.margin {
		return -r.turnFactor
	}
	return 0
}
