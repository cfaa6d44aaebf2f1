package geotess

// Test fixtures: grids derived from the icosahedron by midpoint
// subdivision. Grid construction is deliberately not part of the public
// API (grids are loaded, not built), so the builders live here.

import (
	"math"
	"testing"
)

// icosahedronData returns the 12 vertices and 20 faces of the unit
// icosahedron.
func icosahedronData() ([]Point, [][3]int32) {
	phi := (1 + math.Sqrt(5)) / 2
	raw := [][3]float64{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	vertices := make([]Point, len(raw))
	for i, c := range raw {
		vertices[i] = PointFromCoords(c[0], c[1], c[2])
	}
	faces := [][3]int32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return vertices, faces
}

// subdivide splits each triangle into four, adding normalized edge
// midpoints to vertices as needed.
func subdivide(vertices *[]Point, tris [][3]int32) [][3]int32 {
	mid := make(map[[2]int32]int32)
	midpoint := func(a, b int32) int32 {
		key := [2]int32{a, b}
		if a > b {
			key = [2]int32{b, a}
		}
		if m, ok := mid[key]; ok {
			return m
		}
		p := Point{(*vertices)[a].Add((*vertices)[b].Vector).Normalize()}
		*vertices = append(*vertices, p)
		m := int32(len(*vertices) - 1)
		mid[key] = m
		return m
	}
	out := make([][3]int32, 0, 4*len(tris))
	for _, tr := range tris {
		ab := midpoint(tr[0], tr[1])
		bc := midpoint(tr[1], tr[2])
		ca := midpoint(tr[2], tr[0])
		out = append(out,
			[3]int32{tr[0], ab, ca},
			[3]int32{tr[1], bc, ab},
			[3]int32{tr[2], ca, bc},
			[3]int32{ab, bc, ca},
		)
	}
	return out
}

// testGrid builds a single-tessellation grid with nLevels levels, the
// coarsest being the icosahedron.
func testGrid(t *testing.T, nLevels int) *Grid {
	t.Helper()
	vertices, tris := icosahedronData()
	var triangles [][3]int32
	var levels [][2]int32
	for l := 0; l < nLevels; l++ {
		first := int32(len(triangles))
		triangles = append(triangles, tris...)
		levels = append(levels, [2]int32{first, int32(len(triangles))})
		if l+1 < nLevels {
			tris = subdivide(&vertices, tris)
		}
	}
	g, err := NewGrid("testgrid", vertices, triangles, levels, [][2]int32{{0, int32(nLevels)}})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

// multiTessGrid builds a grid with two tessellations: tessellation 0 is the
// bare icosahedron, tessellation 1 is the icosahedron plus one subdivision.
func multiTessGrid(t *testing.T) *Grid {
	t.Helper()
	vertices, ico := icosahedronData()
	var triangles [][3]int32
	var levels [][2]int32
	addLevel := func(tris [][3]int32) {
		first := int32(len(triangles))
		triangles = append(triangles, tris...)
		levels = append(levels, [2]int32{first, int32(len(triangles))})
	}
	addLevel(ico) // tess 0, level 0
	addLevel(ico) // tess 1, level 0
	addLevel(subdivide(&vertices, ico))
	g, err := NewGrid("multitess", vertices, triangles, levels,
		[][2]int32{{0, 1}, {1, 3}})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

// testModel builds a two-layer 3D model over the given grid. Both layers
// use tessellation 0 unless the grid has more than one, in which case the
// upper layer uses tessellation 1. Attribute 0 is attrFn evaluated at the
// vertex and constant along radius; attribute 1 grows linearly with radius
// from 0 at the layer bottom.
func testModel(t *testing.T, g *Grid, attrFn func(Point) float64) *Model {
	t.Helper()
	upperTess := 0
	if g.NTessellations() > 1 {
		upperTess = 1
	}
	meta := ModelMetadata{
		Description:    "test model",
		LayerNames:     []string{"mantle", "crust"},
		LayerTessIDs:   []int{0, upperTess},
		AttributeNames: []string{"vs", "ramp"},
		AttributeUnits: []string{"km/s", "1"},
		DataType:       TypeDouble,
		Shape:          Sphere,
	}
	m, err := NewModel(g, meta)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	mantleRadii := []float64{3480, 5000, 6000, 6341}
	crustRadii := []float64{6341, 6356, 6371}
	for v := 0; v < g.NVertices(); v++ {
		base := attrFn(g.Vertex(v))
		mk := func(radii []float64) *Profile {
			data := make([]*Data, len(radii))
			for i, r := range radii {
				data[i] = NewDataDouble(base, r-radii[0])
			}
			p, err := NewProfileNPoint(append([]float64(nil), radii...), data)
			if err != nil {
				t.Fatalf("NewProfileNPoint: %v", err)
			}
			return p
		}
		if err := m.SetProfile(v, 0, mk(mantleRadii)); err != nil {
			t.Fatalf("SetProfile mantle: %v", err)
		}
		if err := m.SetProfile(v, 1, mk(crustRadii)); err != nil {
			t.Fatalf("SetProfile crust: %v", err)
		}
	}
	return m
}

func linearField(v Point) float64 { return 2 + 0.5*v.Z }

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }
