package spatial

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// AABB is an axis-aligned bounding box, half-open on its max faces so that
// sibling regions partition their parent with no gaps or overlaps.
type AABB struct {
	Min, Max geometry.Vector3D
}

// Contains reports whether p lies inside the box (min inclusive, max exclusive).
func (b AABB) Contains(p geometry.Vector3D) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// Center returns the midpoint of the box.
func (b AABB) Center() geometry.Vector3D {
	return b.Min.Add(b.Max).Mul(0.5)
}

// IntersectsSphere reports whether the box touches the sphere at center c with
// radius r, by clamping c onto the box and comparing the residual distance.
func (b AABB) IntersectsSphere(c geometry.Vector3D, r float64) bool {
	nearest := geometry.Vector3D{
		X: clamp(c.X, b.Min.X, b.Max.X),
		Y: clamp(c.Y, b.Min.Y, b.Max.Y),
		Z: clamp(c.Z, b.Min.Z, b.Max.Z),
	}
	return nearest.DistanceSquaredTo(c) <= r*r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type octEntry struct {
	id   string
	pos  geometry.Vector3D
	leaf *octNode // nil while the entry sits on the outside list
}

// octNode holds either a direct item list (leaf) or exactly eight children
// partitioning its region (internal). count covers the whole subtree.
type octNode struct {
	bounds   AABB
	depth    int
	parent   *octNode
	children []*octNode
	items    []*octEntry
	count    int
}

// Octree subdivides a bounded region by agent density.
//
// A leaf splits once it holds more than capacity entries, but never beyond
// maxDepth: the depth bound guarantees termination when many agents occupy a
// near-identical position, at the price of over-full bottom leaves. An
// internal node whose subtree empties out after a removal merges back into a
// leaf so memory stays bounded under agent churn.
//
// Agents that wander outside the root bounds are carried on a flat overflow
// list that every query scans; with soft world boundaries that list stays
// tiny, and query results remain exact either way.
type Octree struct {
	root     *octNode
	capacity int
	maxDepth int
	entries  map[string]*octEntry
	outside  []*octEntry
}

var _ Index = (*Octree)(nil)

// NewOctree creates an octree over bounds. capacity is the leaf split
// threshold, maxDepth the mandatory subdivision limit.
func NewOctree(bounds AABB, capacity, maxDepth int) (*Octree, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacityThreshold must be > 0, got %d", ErrConfig, capacity)
	}
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: maxDepth must be > 0, got %d", ErrConfig, maxDepth)
	}
	if bounds.Max.X <= bounds.Min.X || bounds.Max.Y <= bounds.Min.Y || bounds.Max.Z <= bounds.Min.Z {
		return nil, fmt.Errorf("%w: bounds %v..%v have no volume", ErrConfig, bounds.Min, bounds.Max)
	}
	return &Octree{
		root:     &octNode{bounds: bounds, depth: 0},
		capacity: capacity,
		maxDepth: maxDepth,
		entries:  make(map[string]*octEntry),
	}, nil
}

// Insert registers the agent in the leaf containing its position.
func (o *Octree) Insert(id string, pos geometry.Vector3D) error {
	if _, ok := o.entries[id]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyIndexed, id)
	}
	e := &octEntry{id: id, pos: pos}
	o.entries[id] = e
	o.place(e)
	return nil
}

// Remove unregisters the agent from its leaf (or the overflow list).
func (o *Octree) Remove(id string) error {
	e, ok := o.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotIndexed, id)
	}
	delete(o.entries, id)
	o.unplace(e)
	return nil
}

// Move re-indexes the agent at its new position. When the position stays in
// the same leaf only the stored position is updated.
func (o *Octree) Move(id string, pos geometry.Vector3D) error {
	e, ok := o.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotIndexed, id)
	}
	if e.leaf != nil && e.leaf.bounds.Contains(pos) {
		e.pos = pos
		return nil
	}
	if e.leaf == nil && !o.root.bounds.Contains(pos) {
		e.pos = pos
		return nil
	}
	o.unplace(e)
	e.pos = pos
	o.place(e)
	return nil
}

// Query descends only into nodes whose region intersects the query sphere,
// collecting entries from visited leaves with the exact distance filter.
func (o *Octree) Query(center geometry.Vector3D, radius float64, dst []Entry) []Entry {
	if radius < 0 {
		return dst
	}
	radiusSq := radius * radius
	dst = o.root.query(center, radius, radiusSq, dst)
	for _, e := range o.outside {
		if e.pos.DistanceSquaredTo(center) <= radiusSq {
			dst = append(dst, Entry{ID: e.id, Pos: e.pos})
		}
	}
	return dst
}

// Len returns the number of indexed agents.
func (o *Octree) Len() int {
	return len(o.entries)
}

func (o *Octree) place(e *octEntry) {
	if !o.root.bounds.Contains(e.pos) {
		e.leaf = nil
		o.outside = append(o.outside, e)
		return
	}
	o.root.insert(e, o.capacity, o.maxDepth)
}

func (o *Octree) unplace(e *octEntry) {
	if e.leaf == nil {
		for i, other := range o.outside {
			if other == e {
				last := len(o.outside) - 1
				o.outside[i] = o.outside[last]
				o.outside[last] = nil
				o.outside = o.outside[:last]
				return
			}
		}
		return
	}
	leaf := e.leaf
	for i, other := range leaf.items {
		if other == e {
			last := len(leaf.items) - 1
			leaf.items[i] = leaf.items[last]
			leaf.items[last] = nil
			leaf.items = leaf.items[:last]
			break
		}
	}
	e.leaf = nil
	// Walk up decrementing subtree counts, merging emptied internal nodes
	// back into leaves.
	for n := leaf; n != nil; n = n.parent {
		n.count--
		if n.count == 0 && n.children != nil {
			n.children = nil
		}
	}
}

func (n *octNode) insert(e *octEntry, capacity, maxDepth int) {
	n.count++
	if n.children == nil {
		n.items = append(n.items, e)
		e.leaf = n
		if len(n.items) > capacity && n.depth < maxDepth {
			n.split(capacity, maxDepth)
		}
		return
	}
	n.childFor(e.pos).insert(e, capacity, maxDepth)
}

// split turns a leaf into an internal node, redistributing its items into the
// appropriate child by position. Redistribution may cascade further splits
// when the items cluster inside a single octant.
func (n *octNode) split(capacity, maxDepth int) {
	center := n.bounds.Center()
	n.children = make([]*octNode, 8)
	for i := range n.children {
		child := &octNode{depth: n.depth + 1, parent: n}
		child.bounds = octantBounds(n.bounds, center, i)
		n.children[i] = child
	}
	items := n.items
	n.items = nil
	for _, e := range items {
		n.childFor(e.pos).insert(e, capacity, maxDepth)
	}
}

// childFor selects the octant by comparing the position against the region
// center per axis; combined with half-open bounds this gives every point
// exactly one home.
func (n *octNode) childFor(p geometry.Vector3D) *octNode {
	center := n.bounds.Center()
	i := 0
	if p.X >= center.X {
		i |= 1
	}
	if p.Y >= center.Y {
		i |= 2
	}
	if p.Z >= center.Z {
		i |= 4
	}
	return n.children[i]
}

func octantBounds(b AABB, center geometry.Vector3D, i int) AABB {
	out := AABB{Min: b.Min, Max: center}
	if i&1 != 0 {
		out.Min.X = center.X
		out.Max.X = b.Max.X
	}
	if i&2 != 0 {
		out.Min.Y = center.Y
		out.Max.Y = b.Max.Y
	}
	if i&4 != 0 {
		out.Min.Z = center.Z
		out.Max.Z = b.Max.Z
	}
	return out
}

func (n *octNode) query(center geometry.Vector3D, radius, radiusSq float64, dst []Entry) []Entry {
	if n.count == 0 || !n.bounds.IntersectsSphere(center, radius) {
		return dst
	}
	if n.children == nil {
		for _, e := range n.items {
			if e.pos.DistanceSquaredTo(center) <= radiusSq {
				dst = append(dst, Entry{ID: e.id, Pos: e.pos})
			}
		}
		return dst
	}
	for _, child := range n.children {
		dst = child.query(center, radius, radiusSq, dst)
	}
	return dst
}
