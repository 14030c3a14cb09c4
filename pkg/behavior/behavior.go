// Package behavior composes weighted steering rules into a single bounded
// force per agent.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
// The classic trio (separation, alignment, cohesion) plus seek, flee and
// wander are provided; anything implementing Rule slots into the same
// pipeline.
package behavior

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// ErrConfig reports invalid rule construction parameters. Validation happens
// at configuration time, never silently clamped during simulation.
var ErrConfig = errors.New("behavior: invalid configuration")

// AgentState is the minimal read/write surface a rule sees of the host's
// agent entity. The host owns the lifetime; this package only reads it and
// the kinematics integrator writes Pos and Vel back.
type AgentState struct {
	ID  string
	Pos geometry.Vector3D
	Vel geometry.Vector3D

	PerceptionRadius float64
	MaxSpeed         float64
	MaxForce         float64
}

// Neighbor is one candidate from the perception query, with the distance to
// the querying agent precomputed so every rule can filter without a sqrt.
type Neighbor struct {
	ID   string
	Pos  geometry.Vector3D
	Vel  geometry.Vector3D
	Dist float64
}

// Rule is the capability every steering behavior implements. Instances are
// configuration: created once, shared read-only across all agents and steps,
// so ComputeForce must not mutate the rule.
type Rule interface {
	// Name identifies the rule in logs and telemetry.
	Name() string
	// Config returns the shared, immutable configuration.
	Config() RuleConfig
	// ShouldExecute gates the rule for this agent. The default is the
	// enabled flag; rules may add agent-state-dependent gating.
	ShouldExecute(a *AgentState) bool
	// ComputeForce proposes a raw (unweighted) steering force. Zero
	// neighbors must yield the zero vector, never NaN.
	ComputeForce(a *AgentState, neighbors []Neighbor) geometry.Vector3D
}

// RuleConfig is the per-rule configuration surface. Immutable after
// construction; the pipeline reads it every step.
type RuleConfig struct {
	Weight      float64 `json:"weight"`
	Enabled     bool    `json:"enabled"`
	MinDistance float64 `json:"minDistance"`
	MaxDistance float64 `json:"maxDistance"`
}

// DefaultRuleConfig returns the documented defaults: weight 1, enabled,
// neighbor band [0.5, 5].
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		Weight:      1,
		Enabled:     true,
		MinDistance: 0.5,
		MaxDistance: 5,
	}
}

// Validate fails fast on parameters no rule can run with.
func (c RuleConfig) Validate() error {
	if c.Weight < 0 {
		return fmt.Errorf("%w: weight must be >= 0, got %v", ErrConfig, c.Weight)
	}
	if c.MinDistance < 0 {
		return fmt.Errorf("%w: minDistance must be >= 0, got %v", ErrConfig, c.MinDistance)
	}
	if c.MaxDistance < c.MinDistance {
		return fmt.Errorf("%w: maxDistance %v < minDistance %v", ErrConfig, c.MaxDistance, c.MinDistance)
	}
	return nil
}

func errConfigf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}

// inBand is the single distance predicate every proximity rule applies,
// inclusive on both bounds.
func inBand(dist, minDist, maxDist float64) bool {
	return dist >= minDist && dist <= maxDist
}

// FilterNeighborsByDistance appends the neighbors whose distance lies in
// [minDist, maxDist] (inclusive on both bounds) to dst and returns the
// extended slice.
func FilterNeighborsByDistance(neighbors []Neighbor, minDist, maxDist float64, dst []Neighbor) []Neighbor {
	for _, n := range neighbors {
		if inBand(n.Dist, minDist, maxDist) {
			dst = append(dst, n)
		}
	}
	return dst
}

// baseRule carries the shared name/config/gate plumbing.
type baseRule struct {
	name string
	cfg  RuleConfig
}

func (b baseRule) Name() string                  { return b.name }
func (b baseRule) Config() RuleConfig            { return b.cfg }
func (b baseRule) ShouldExecute(*AgentState) bool { return b.cfg.Enabled }
