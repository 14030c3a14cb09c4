package behavior

import (
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// Pipeline composes the enabled rules for one agent: run each rule's gate,
// weight and sum the resulting forces, clamp to the agent's MaxForce.
//
// Rules are evaluated in the order they were passed to NewPipeline, every
// step, so results are reproducible given identical inputs. One Pipeline is
// shared by all agents; it holds no per-agent state.
type Pipeline struct {
	rules []Rule
}

// NewPipeline fixes the rule evaluation order.
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Rules returns the pipeline's rules in evaluation order.
func (p *Pipeline) Rules() []Rule {
	return p.rules
}

// Compute returns the final steering force for the agent this step.
// The summed vector is rescaled to exactly MaxForce when it exceeds it,
// preserving direction; below the limit it is returned unchanged.
func (p *Pipeline) Compute(a *AgentState, neighbors []Neighbor) geometry.Vector3D {
	var total geometry.Vector3D
	for _, r := range p.rules {
		if !r.ShouldExecute(a) {
			continue
		}
		force := r.ComputeForce(a, neighbors)
		total = total.Add(force.Mul(r.Config().Weight))
	}
	return total.Limit(a.MaxForce)
}
