package behavior

import (
	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// Integrate applies the steering force to the agent's velocity and position
// over dt, treating force as acceleration (unit mass).
//
// The order is contractual and behavior tuning assumes it: update velocity,
// clamp speed to MaxSpeed, then integrate position with the clamped velocity.
func Integrate(a *AgentState, force geometry.Vector3D, dt float64) {
	a.Vel = a.Vel.Add(force.Mul(dt)).Limit(a.MaxSpeed)
	a.Pos = a.Pos.Add(a.Vel.Mul(dt))
}
