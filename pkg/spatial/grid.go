package spatial

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

// cellKey is the integer cell coordinate: floor(position / cellSize) per axis.
type cellKey struct {
	x, y, z int
}

// gridEntry is shared between the id lookup map and the cell bucket, so a
// Move only has to touch the buckets, never rebuild anything.
type gridEntry struct {
	id  string
	pos geometry.Vector3D
	key cellKey
}

// Grid is a uniform hash grid over unbounded space.
//
// Cell size should approximate the typical perception radius: too small and a
// query visits many cells, too large and each bucket degrades toward a linear
// scan. Cells are a coarse filter only; Query always finishes with an exact
// distance check.
type Grid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]*gridEntry
	entries     map[string]*gridEntry
}

var _ Index = (*Grid)(nil)

// NewGrid creates a uniform grid with the given cell size.
func NewGrid(cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cellSize must be > 0, got %v", ErrConfig, cellSize)
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]*gridEntry),
		entries:     make(map[string]*gridEntry),
	}, nil
}

func (g *Grid) keyFor(p geometry.Vector3D) cellKey {
	return cellKey{
		x: int(math.Floor(p.X * g.invCellSize)),
		y: int(math.Floor(p.Y * g.invCellSize)),
		z: int(math.Floor(p.Z * g.invCellSize)),
	}
}

// Insert registers the agent in the bucket its position maps to. O(1) amortized.
func (g *Grid) Insert(id string, pos geometry.Vector3D) error {
	if _, ok := g.entries[id]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyIndexed, id)
	}
	e := &gridEntry{id: id, pos: pos, key: g.keyFor(pos)}
	g.entries[id] = e
	g.cells[e.key] = append(g.cells[e.key], e)
	return nil
}

// Remove unregisters the agent from its current bucket.
func (g *Grid) Remove(id string) error {
	e, ok := g.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotIndexed, id)
	}
	delete(g.entries, id)
	g.removeFromBucket(e)
	return nil
}

// Move re-indexes the agent at its new position. When the mapped cell is
// unchanged only the stored position is updated.
func (g *Grid) Move(id string, pos geometry.Vector3D) error {
	e, ok := g.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotIndexed, id)
	}
	newKey := g.keyFor(pos)
	if newKey == e.key {
		e.pos = pos
		return nil
	}
	g.removeFromBucket(e)
	e.pos = pos
	e.key = newKey
	g.cells[newKey] = append(g.cells[newKey], e)
	return nil
}

func (g *Grid) removeFromBucket(e *gridEntry) {
	bucket := g.cells[e.key]
	for i, other := range bucket {
		if other == e {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			bucket[last] = nil
			bucket = bucket[:last]
			break
		}
	}
	if len(bucket) == 0 {
		// Keep the map small under agent churn; the backing array is
		// recreated if the cell is repopulated later.
		delete(g.cells, e.key)
	} else {
		g.cells[e.key] = bucket
	}
}

// Query sweeps every cell overlapping the cube of side 2*radius centered at
// center, then applies the exact distance filter (inclusive) per candidate.
func (g *Grid) Query(center geometry.Vector3D, radius float64, dst []Entry) []Entry {
	if radius < 0 {
		return dst
	}
	minKey := g.keyFor(geometry.Vector3D{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius})
	maxKey := g.keyFor(geometry.Vector3D{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius})
	radiusSq := radius * radius

	for x := minKey.x; x <= maxKey.x; x++ {
		for y := minKey.y; y <= maxKey.y; y++ {
			for z := minKey.z; z <= maxKey.z; z++ {
				bucket, ok := g.cells[cellKey{x: x, y: y, z: z}]
				if !ok {
					continue
				}
				for _, e := range bucket {
					if e.pos.DistanceSquaredTo(center) <= radiusSq {
						dst = append(dst, Entry{ID: e.id, Pos: e.pos})
					}
				}
			}
		}
	}
	return dst
}

// Len returns the number of indexed agents.
func (g *Grid) Len() int {
	return len(g.entries)
}

// CellSize returns the configured cell size.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}
