// Package spatial indexes moving point agents and answers radius queries.
//
// Two interchangeable strategies implement the same Index contract: a uniform
// hash Grid (bucket agents into fixed-size cells) and an Octree (recursively
// subdivide space by density). Steering only ever needs "all agents within
// radius r of point p", so that is the whole query surface.
package spatial

import (
	"errors"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

var (
	// ErrConfig reports invalid construction parameters. It is returned at
	// configuration time, never silently clamped away.
	ErrConfig = errors.New("spatial: invalid configuration")

	// ErrNotIndexed reports an operation on an agent id that was never
	// inserted (or already removed). This is a caller lifecycle bug and is
	// surfaced loudly instead of being ignored.
	ErrNotIndexed = errors.New("spatial: agent not indexed")

	// ErrAlreadyIndexed reports a second Insert for the same agent id.
	ErrAlreadyIndexed = errors.New("spatial: agent already indexed")
)

// Entry is the index's back-reference to an agent: a stable id plus the last
// indexed position. The index never owns the agent's lifetime.
type Entry struct {
	ID  string
	Pos geometry.Vector3D
}

// Index is the capability set shared by every spatial partitioning strategy.
//
// An agent appears in exactly one bucket/leaf at all times. Query returns
// candidates in unspecified order after an exact distance check
// (distance <= radius, inclusive); excluding the querying agent itself is the
// caller's responsibility.
type Index interface {
	// Insert registers an agent at its current position.
	Insert(id string, pos geometry.Vector3D) error
	// Remove unregisters an agent.
	Remove(id string) error
	// Move re-indexes an agent after a position change. It is a cheap
	// in-place update when the mapped bucket is unchanged.
	Move(id string, pos geometry.Vector3D) error
	// Query appends every agent within radius of center to dst and returns
	// the extended slice. Pass a reused buffer to avoid allocations.
	Query(center geometry.Vector3D, radius float64, dst []Entry) []Entry
	// Len returns the number of indexed agents.
	Len() int
}
