package geotess

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// naturalNeighborInterpolator computes Sibson natural-neighbor coefficients.
//
// Inserting the query point into the triangulation as a new node would carve
// a Voronoi cell for it out of its neighbors' cells; each affected vertex
// receives a coefficient proportional to the area its cell loses. The
// affected triangles (those whose circumcircle contains the query point)
// form the Bowyer-Watson cavity; its boundary polygon lists every vertex
// with a non-zero coefficient, including vertices the containing triangle
// does not touch.
//
// The circumcircle membership test compares cached circumcenter dot products
// with no epsilon, so near-cocircular vertex configurations are sensitive to
// floating-point noise. Queries that coincide with a grid vertex are
// resolved by Position before this code runs.
//
// All scratch state (the marked bitset, edge chain, polygon buffers) is
// owned by the interpolator and cleared unconditionally at the end of every
// query, so a single Position can be reused indefinitely; it is not safe
// for concurrent use.
type naturalNeighborInterpolator struct {
	grid *Grid

	marked     []bool
	markedList []int32
	queue      []int32
	edgeNext   map[int32]nnEdge
	loopVerts  []int32
	loopTris   []int32
	areas      []float64
	arc        []int32
	poly       []Point
}

// nnEdge is one directed boundary edge of the cavity, oriented so the
// cavity lies to its left, recording the cavity triangle it came from.
type nnEdge struct {
	end int32
	tri int32
}

func newNaturalNeighborInterpolator(g *Grid) *naturalNeighborInterpolator {
	return &naturalNeighborInterpolator{
		grid:     g,
		marked:   make([]bool, g.NTriangles()),
		edgeNext: make(map[int32]nnEdge),
	}
}

func (nn *naturalNeighborInterpolator) interpolate(q Point, level, t int, s *tessState) error {
	defer nn.clear()

	if err := nn.expandCavity(q, level, t); err != nil {
		return err
	}
	if err := nn.chainBoundary(); err != nil {
		return err
	}
	if err := nn.stolenAreas(q, level); err != nil {
		return err
	}

	total := floats.Sum(nn.areas)
	if total <= 0 {
		return &GeometryError{
			Op:     "natural neighbor",
			Detail: "stolen Voronoi areas sum to zero",
		}
	}
	s.vertices = s.vertices[:0]
	s.coeffs = s.coeffs[:0]
	for i, v := range nn.loopVerts {
		s.vertices = append(s.vertices, int(v))
		s.coeffs = append(s.coeffs, nn.areas[i]/total)
	}
	return nil
}

// expandCavity marks every triangle whose circumcircle contains q,
// breadth-first from the containing triangle, and records the directed
// boundary edges between marked and unmarked triangles.
func (nn *naturalNeighborInterpolator) expandCavity(q Point, level, seed int) error {
	nn.mark(int32(seed))
	nn.queue = append(nn.queue[:0], int32(seed))
	for head := 0; head < len(nn.queue); head++ {
		t := nn.queue[head]
		tri := nn.grid.triangles[t]
		for k := 0; k < 3; k++ {
			nb := nn.grid.neighbors[t][k]
			if nn.marked[nb] {
				continue
			}
			if nn.grid.circumcircleContains(level, int(nb), q) {
				nn.mark(nb)
				nn.queue = append(nn.queue, nb)
				continue
			}
			// Boundary edge: the edge shared with the non-qualifying
			// neighbor, directed with the cavity on its left.
			start, end := tri[(k+1)%3], tri[(k+2)%3]
			if _, dup := nn.edgeNext[start]; dup {
				return &GeometryError{
					Op:     "natural neighbor",
					Detail: fmt.Sprintf("cavity boundary pinches at vertex %d", start),
				}
			}
			nn.edgeNext[start] = nnEdge{end: end, tri: t}
		}
	}
	if len(nn.edgeNext) < 3 {
		return &GeometryError{
			Op:     "natural neighbor",
			Detail: fmt.Sprintf("cavity boundary has %d edges", len(nn.edgeNext)),
		}
	}
	return nil
}

// chainBoundary orders the recorded boundary edges into a single closed
// loop. Each edge's start vertex must be the previous edge's end vertex; a
// mismatch means the cavity is not a topological disk and the grid or the
// circumcircle geometry is inconsistent.
func (nn *naturalNeighborInterpolator) chainBoundary() error {
	nn.loopVerts = nn.loopVerts[:0]
	nn.loopTris = nn.loopTris[:0]
	var first int32
	for v := range nn.edgeNext {
		first = v
		break
	}
	v := first
	for range nn.edgeNext {
		e, ok := nn.edgeNext[v]
		if !ok {
			return &GeometryError{
				Op:     "natural neighbor",
				Detail: fmt.Sprintf("boundary edges out of order at vertex %d", v),
			}
		}
		nn.loopVerts = append(nn.loopVerts, v)
		nn.loopTris = append(nn.loopTris, e.tri)
		v = e.end
	}
	if v != first {
		return &GeometryError{
			Op:     "natural neighbor",
			Detail: "boundary polygon does not close",
		}
	}
	return nil
}

// stolenAreas computes, for each boundary vertex, the spherical area the
// query point's inserted Voronoi cell would take from that vertex's cell.
//
// For boundary vertex v between boundary neighbors u and w, the stolen
// region is bounded by the two virtual circumcenters of the retriangulated
// cavity, Circumcenter(q,u,v) and Circumcenter(q,v,w), the circumcenters of
// the cavity triangles incident to v in rotation order between the edges
// (u,v) and (v,w), and the v-q bisector closing the polygon.
func (nn *naturalNeighborInterpolator) stolenAreas(q Point, level int) error {
	n := len(nn.loopVerts)
	nn.areas = nn.areas[:0]
	for i := 0; i < n; i++ {
		u := nn.loopVerts[(i-1+n)%n]
		v := nn.loopVerts[i]
		w := nn.loopVerts[(i+1)%n]
		tFirst := nn.loopTris[(i-1+n)%n] // cavity triangle holding edge (u,v)
		tLast := nn.loopTris[i]          // cavity triangle holding edge (v,w)

		pu, pv, pw := nn.grid.Vertex(int(u)), nn.grid.Vertex(int(v)), nn.grid.Vertex(int(w))
		vcPrev := Circumcenter(q, pu, pv)
		vcNext := Circumcenter(q, pv, pw)

		if err := nn.cavityArc(level, int(v), tFirst, tLast); err != nil {
			return err
		}

		nn.poly = nn.poly[:0]
		nn.poly = append(nn.poly, vcPrev)
		for _, t := range nn.arc {
			nn.poly = append(nn.poly, nn.grid.circumcenterOf(level, int(t)))
		}
		nn.poly = append(nn.poly, vcNext)

		// The stolen region is convex, so a fan from its first vertex
		// covers it exactly.
		area := 0.0
		for k := 1; k < len(nn.poly)-1; k++ {
			area += TriangleArea(nn.poly[0], nn.poly[k], nn.poly[k+1])
		}
		nn.areas = append(nn.areas, area)
	}
	return nil
}

// cavityArc collects, into nn.arc, the cavity triangles incident to vertex
// v in rotation order from tFirst to tLast. The cavity triangles around a
// boundary vertex are a contiguous arc of its spoke list.
func (nn *naturalNeighborInterpolator) cavityArc(level, v int, tFirst, tLast int32) error {
	spokes := nn.grid.spokesAround(level, v)
	start := -1
	for i, sp := range spokes {
		if !nn.marked[sp.triangle] {
			start = i
			break
		}
	}
	if start < 0 {
		return &GeometryError{
			Op:     "natural neighbor",
			Detail: fmt.Sprintf("boundary vertex %d is interior to the cavity", v),
		}
	}
	nn.arc = nn.arc[:0]
	for i := 1; i <= len(spokes); i++ {
		sp := spokes[(start+i)%len(spokes)]
		if nn.marked[sp.triangle] {
			nn.arc = append(nn.arc, sp.triangle)
		}
	}
	if len(nn.arc) == 0 {
		return &GeometryError{
			Op:     "natural neighbor",
			Detail: fmt.Sprintf("no cavity triangles incident to boundary vertex %d", v),
		}
	}
	// Orient the arc from the (u,v) edge triangle to the (v,w) edge
	// triangle so its circumcenters line up with the virtual ones.
	if nn.arc[0] != tFirst {
		reverse(nn.arc)
	}
	if nn.arc[0] != tFirst || nn.arc[len(nn.arc)-1] != tLast {
		return &GeometryError{
			Op: "natural neighbor",
			Detail: fmt.Sprintf("cavity triangles around vertex %d do not span its boundary edges (%d..%d)",
				v, tFirst, tLast),
		}
	}
	return nil
}

func (nn *naturalNeighborInterpolator) mark(t int32) {
	nn.marked[t] = true
	nn.markedList = append(nn.markedList, t)
}

// clear resets every piece of scratch state. It runs unconditionally after
// each query, error paths included; stale marks would silently corrupt the
// next query's cavity.
func (nn *naturalNeighborInterpolator) clear() {
	for _, t := range nn.markedList {
		nn.marked[t] = false
	}
	nn.markedList = nn.markedList[:0]
	nn.queue = nn.queue[:0]
	clear(nn.edgeNext)
	nn.loopVerts = nn.loopVerts[:0]
	nn.loopTris = nn.loopTris[:0]
	nn.arc = nn.arc[:0]
	nn.poly = nn.poly[:0]
}

func reverse(s []int32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
