package geotess

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sandialabs/geotess/r3"
)

// Grid is a multi-level, multi-tessellation triangulation of the unit
// sphere. A tessellation is a contiguous run of levels, each level a full
// triangulated covering of the sphere refining the one before it (coarsest
// first). Triangles are stored level by level, so a level is a contiguous
// triangle index range.
//
// A Grid is immutable once constructed and safe for concurrent use. The
// spoke lists and circumcenters that support natural-neighbor interpolation
// are built lazily, once per level, on first use.
type Grid struct {
	gridID   string
	vertices []Point

	// triangles[t] are the three corner vertex indices of triangle t, in
	// counterclockwise order viewed from outside the sphere.
	triangles [][3]int32

	// neighbors[t][k] is the triangle sharing the edge opposite corner k of
	// triangle t. Adjacency is symmetric and stays within t's level.
	neighbors [][3]int32

	// levels[l] is the [first, one-past-last) triangle range of level l;
	// tessellations[te] is the [first, one-past-last) level range of
	// tessellation te.
	levels        [][2]int32
	tessellations [][2]int32

	levelData []*levelData
}

// spoke is one directed edge radiating from a vertex: the incident triangle
// and the corner index of the vertex within it. A vertex's spokes are stored
// in circular rotation order, so consecutive spokes share an edge.
type spoke struct {
	triangle int32
	corner   int8
}

// levelData holds the lazily built per-level support structures.
type levelData struct {
	once sync.Once

	// spokes[v] is the ordered circular list of spokes around vertex v, or
	// nil if v does not participate in this level.
	spokes [][]spoke

	// cc[t-first] is the circumcenter of triangle t; ccDot[t-first] is the
	// dot product of the circumcenter with one of the triangle's corners.
	// A query point q is inside t's circumcircle iff q·cc > ccDot.
	cc    []r3.Vector
	ccDot []float64

	// desc[t-first] is a triangle of the next finer level of the same
	// tessellation containing t's centroid, used to seed the next level's
	// walk during a coarse-to-fine descent. nil for a tessellation's top
	// level; -1 where the seeding walk failed.
	desc []int32
}

// NewGrid constructs a Grid from its topology arrays. Triangle winding is
// normalized to counterclockwise, neighbor adjacency is computed per level
// from shared edges, and the level/tessellation structure is validated.
// The vertex, triangle, level and tessellation slices are retained, not
// copied.
func NewGrid(gridID string, vertices []Point, triangles [][3]int32, levels, tessellations [][2]int32) (*Grid, error) {
	g := &Grid{
		gridID:        gridID,
		vertices:      vertices,
		triangles:     triangles,
		levels:        levels,
		tessellations: tessellations,
		levelData:     make([]*levelData, len(levels)),
	}
	for i := range g.levelData {
		g.levelData[i] = &levelData{}
	}

	if err := g.checkStructure(); err != nil {
		return nil, err
	}
	for t := range triangles {
		tri := &triangles[t]
		for _, c := range tri {
			if int(c) < 0 || int(c) >= len(vertices) {
				return nil, fmt.Errorf("geotess: triangle %d references vertex %d of %d", t, c, len(vertices))
			}
		}
		a, b, c := g.vertices[tri[0]], g.vertices[tri[1]], g.vertices[tri[2]]
		if Side(a, b, c) < 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
	}
	if err := g.buildNeighbors(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) checkStructure() error {
	if len(g.vertices) < 3 || len(g.triangles) == 0 {
		return fmt.Errorf("geotess: grid requires vertices and triangles, got %d and %d",
			len(g.vertices), len(g.triangles))
	}
	if len(g.levels) == 0 || len(g.tessellations) == 0 {
		return fmt.Errorf("geotess: grid requires at least one level and one tessellation")
	}
	next := int32(0)
	for l, rng := range g.levels {
		if rng[0] != next || rng[1] <= rng[0] {
			return fmt.Errorf("geotess: level %d range [%d,%d) is not contiguous", l, rng[0], rng[1])
		}
		next = rng[1]
	}
	if int(next) != len(g.triangles) {
		return fmt.Errorf("geotess: levels cover %d of %d triangles", next, len(g.triangles))
	}
	nextLevel := int32(0)
	for te, rng := range g.tessellations {
		if rng[0] != nextLevel || rng[1] <= rng[0] {
			return fmt.Errorf("geotess: tessellation %d level range [%d,%d) is not contiguous", te, rng[0], rng[1])
		}
		nextLevel = rng[1]
	}
	if int(nextLevel) != len(g.levels) {
		return fmt.Errorf("geotess: tessellations cover %d of %d levels", nextLevel, len(g.levels))
	}
	for v, p := range g.vertices {
		if !p.IsUnit() {
			return fmt.Errorf("geotess: vertex %d is not a unit vector", v)
		}
	}
	return nil
}

// buildNeighbors matches each triangle edge with its unique partner within
// the same level. Every edge of a closed triangulation of the sphere belongs
// to exactly two triangles; anything else is a corrupt grid.
func (g *Grid) buildNeighbors() error {
	type edgeSlot struct {
		triangle int32
		corner   int8
	}
	g.neighbors = make([][3]int32, len(g.triangles))
	edges := make(map[[2]int32]edgeSlot, 3*len(g.triangles)/2)
	for _, rng := range g.levels {
		clear(edges)
		for t := rng[0]; t < rng[1]; t++ {
			tri := g.triangles[t]
			for k := 0; k < 3; k++ {
				a, b := tri[(k+1)%3], tri[(k+2)%3]
				if a > b {
					a, b = b, a
				}
				key := [2]int32{a, b}
				if other, ok := edges[key]; ok {
					g.neighbors[t][k] = other.triangle
					g.neighbors[other.triangle][other.corner] = t
					delete(edges, key)
				} else {
					edges[key] = edgeSlot{t, int8(k)}
				}
			}
		}
		if len(edges) != 0 {
			return fmt.Errorf("geotess: level [%d,%d) has %d unmatched edges; triangulation does not close the sphere",
				rng[0], rng[1], len(edges))
		}
	}
	return nil
}

// ID returns the grid's content identifier.
func (g *Grid) ID() string { return g.gridID }

// NVertices returns the number of vertices.
func (g *Grid) NVertices() int { return len(g.vertices) }

// NTriangles returns the total number of triangles across all levels.
func (g *Grid) NTriangles() int { return len(g.triangles) }

// NLevels returns the total number of levels across all tessellations.
func (g *Grid) NLevels() int { return len(g.levels) }

// NTessellations returns the number of tessellations.
func (g *Grid) NTessellations() int { return len(g.tessellations) }

// Vertex returns vertex v. It panics if v is out of range.
func (g *Grid) Vertex(v int) Point { return g.vertices[v] }

// Triangle returns the corner vertex indices of triangle t.
func (g *Grid) Triangle(t int) [3]int32 { return g.triangles[t] }

// Neighbor returns the triangle across the edge opposite corner k of
// triangle t.
func (g *Grid) Neighbor(t, k int) int { return int(g.neighbors[t][k]) }

// TriangleVertices returns the corner points of triangle t.
func (g *Grid) TriangleVertices(t int) (a, b, c Point) {
	tri := g.triangles[t]
	return g.vertices[tri[0]], g.vertices[tri[1]], g.vertices[tri[2]]
}

// LevelOfTriangle returns the global level index containing triangle t.
func (g *Grid) LevelOfTriangle(t int) int {
	return sort.Search(len(g.levels), func(l int) bool {
		return g.levels[l][1] > int32(t)
	})
}

// TopLevel returns the global index of the finest level of tessellation te.
func (g *Grid) TopLevel(te int) int { return int(g.tessellations[te][1]) - 1 }

// Level returns the [first, one-past-last) triangle range of global level l.
func (g *Grid) Level(l int) (first, last int) {
	return int(g.levels[l][0]), int(g.levels[l][1])
}

// Tessellation returns the [first, one-past-last) global level range of
// tessellation te.
func (g *Grid) Tessellation(te int) (firstLevel, lastLevel int) {
	return int(g.tessellations[te][0]), int(g.tessellations[te][1])
}

// tessOfLevel returns the tessellation owning global level l.
func (g *Grid) tessOfLevel(l int) int {
	return sort.Search(len(g.tessellations), func(te int) bool {
		return g.tessellations[te][1] > int32(l)
	})
}

// descendant returns a triangle of level+1 containing the centroid of
// triangle t of the given level, or -1 when unavailable.
func (g *Grid) descendant(level, t int) int {
	ld := g.level(level)
	if ld.desc == nil {
		return -1
	}
	return int(ld.desc[int32(t)-g.levels[level][0]])
}

// FirstTriangle returns the first triangle of the given global level.
func (g *Grid) FirstTriangle(level int) int { return int(g.levels[level][0]) }

// NLevelTriangles returns the number of triangles in the given global level.
func (g *Grid) NLevelTriangles(level int) int {
	return int(g.levels[level][1] - g.levels[level][0])
}

// FindTriangle walks from start to the triangle whose spherical interior (or
// edge or corner) contains unit vector v, within start's level.
//
// At each step the scalar triple product side test is evaluated for the
// three edges; if none is negative the triangle contains v, otherwise the
// walk crosses the edge with the most negative side value. Side tests
// compare against exact zero. Successive queries tend to be spatially close,
// so callers should pass the previous result as start.
//
// A walk that exceeds the step bound signals a corrupt grid and returns a
// *GeometryError.
func (g *Grid) FindTriangle(start int, v Point) (int, error) {
	level := g.LevelOfTriangle(start)
	maxSteps := 4*int(math.Sqrt(float64(g.NLevelTriangles(level)))) + 100

	t := start
	for step := 0; step < maxSteps; step++ {
		tri := g.triangles[t]
		worst, worstVal := -1, 0.0
		for k := 0; k < 3; k++ {
			a := g.vertices[tri[(k+1)%3]]
			b := g.vertices[tri[(k+2)%3]]
			if s := Side(a, b, v); s < worstVal {
				worst, worstVal = k, s
			}
		}
		if worst < 0 {
			return t, nil
		}
		t = int(g.neighbors[t][worst])
	}
	return -1, &GeometryError{
		Op:     "FindTriangle",
		Detail: fmt.Sprintf("walk from triangle %d did not converge within %d steps", start, maxSteps),
	}
}

// level returns the lazily built support data for a global level.
func (g *Grid) level(l int) *levelData {
	ld := g.levelData[l]
	ld.once.Do(func() {
		g.buildLevelData(l, ld)
	})
	return ld
}

func (g *Grid) buildLevelData(l int, ld *levelData) {
	first, last := g.levels[l][0], g.levels[l][1]

	ld.cc = make([]r3.Vector, last-first)
	ld.ccDot = make([]float64, last-first)
	for t := first; t < last; t++ {
		a, b, c := g.TriangleVertices(int(t))
		cc := Circumcenter(a, b, c)
		ld.cc[t-first] = cc.Vector
		ld.ccDot[t-first] = cc.Dot(a.Vector)
	}

	// One arbitrary incident spoke per vertex, then rotate around each
	// vertex via neighbor links to recover the full circular order.
	seed := make([]spoke, len(g.vertices))
	for i := range seed {
		seed[i].triangle = -1
	}
	for t := first; t < last; t++ {
		for c := 0; c < 3; c++ {
			seed[g.triangles[t][c]] = spoke{t, int8(c)}
		}
	}
	if te := g.tessOfLevel(l); l+1 < int(g.tessellations[te][1]) {
		start := int(g.levels[l+1][0])
		ld.desc = make([]int32, last-first)
		for t := first; t < last; t++ {
			a, b, c := g.TriangleVertices(int(t))
			d, err := g.FindTriangle(start, centroid(a, b, c))
			if err != nil {
				d = -1
			} else {
				start = d
			}
			ld.desc[t-first] = int32(d)
		}
	}

	ld.spokes = make([][]spoke, len(g.vertices))
	for v := range seed {
		s := seed[v]
		if s.triangle < 0 {
			continue
		}
		start := s
		for {
			ld.spokes[v] = append(ld.spokes[v], s)
			// Rotate to the neighbor across the edge from v to the next
			// corner; the vertex keeps the same identity in the new
			// triangle, only its corner index changes.
			nt := g.neighbors[s.triangle][(int(s.corner)+2)%3]
			s = spoke{nt, int8(g.cornerOf(int(nt), int32(v)))}
			if s == start {
				break
			}
		}
	}
}

// cornerOf returns the corner index of vertex v in triangle t. It panics if
// v is not a corner of t.
func (g *Grid) cornerOf(t int, v int32) int {
	tri := g.triangles[t]
	for k := 0; k < 3; k++ {
		if tri[k] == v {
			return k
		}
	}
	panic(fmt.Sprintf("geotess: vertex %d is not a corner of triangle %d", v, t))
}

// spokesAround returns the circular spoke list around vertex v at the given
// global level, or nil if v does not participate in that level.
func (g *Grid) spokesAround(level, v int) []spoke { return g.level(level).spokes[v] }

// circumcircleContains reports whether q lies inside the circumcircle of
// triangle t (which must belong to the given global level).
//
// The test compares q against the cached circumcenter dot threshold with no
// epsilon. Near cocircular configurations it is sensitive to floating-point
// noise; this is a documented precision limitation, not an error condition.
func (g *Grid) circumcircleContains(level, t int, q Point) bool {
	ld := g.level(level)
	i := int32(t) - g.levels[level][0]
	return q.Dot(ld.cc[i]) > ld.ccDot[i]
}

// circumcenterOf returns the cached circumcenter of triangle t at the given
// global level.
func (g *Grid) circumcenterOf(level, t int) Point {
	ld := g.level(level)
	return Point{ld.cc[int32(t)-g.levels[level][0]]}
}

// GridRegistry is a caller-owned cache of loaded grids keyed by content ID,
// letting models that reference the same grid share one copy in memory. It
// is safe for concurrent use while several models load at once.
//
// There is deliberately no package-level registry; owning the cache makes
// teardown and tests deterministic.
type GridRegistry struct {
	mu    sync.Mutex
	grids map[string]*Grid
}

// NewGridRegistry returns an empty registry.
func NewGridRegistry() *GridRegistry {
	return &GridRegistry{grids: make(map[string]*Grid)}
}

// Get returns the cached grid with the given ID, or nil.
func (r *GridRegistry) Get(gridID string) *Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grids[gridID]
}

// GetOrAdd returns the cached grid with the given ID, calling load to
// construct and cache it if absent. Concurrent callers for the same ID may
// both invoke load; the first to finish wins and the other's result is
// discarded.
func (r *GridRegistry) GetOrAdd(gridID string, load func() (*Grid, error)) (*Grid, error) {
	r.mu.Lock()
	g := r.grids[gridID]
	r.mu.Unlock()
	if g != nil {
		return g, nil
	}
	g, err := load()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached := r.grids[gridID]; cached != nil {
		return cached, nil
	}
	r.grids[gridID] = g
	return g, nil
}

// Len returns the number of cached grids.
func (r *GridRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.grids)
}
