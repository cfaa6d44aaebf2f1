package geotessio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandialabs/geotess/geotess"
)

// icosahedronGrid builds a single-level icosahedron grid for the io tests.
func icosahedronGrid(t *testing.T, id string) *geotess.Grid {
	t.Helper()
	phi := (1 + math.Sqrt(5)) / 2
	raw := [][3]float64{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	vertices := make([]geotess.Point, len(raw))
	for i, c := range raw {
		vertices[i] = geotess.PointFromCoords(c[0], c[1], c[2])
	}
	faces := [][3]int32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	g, err := geotess.NewGrid(id, vertices, faces, [][2]int32{{0, 20}}, [][2]int32{{0, 1}})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestGridRoundTrip(t *testing.T) {
	g := icosahedronGrid(t, "ico-1")
	var buf bytes.Buffer
	if err := WriteGrid(&buf, g); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	got, err := ReadGrid(&buf)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if got.ID() != g.ID() {
		t.Errorf("ID = %q, want %q", got.ID(), g.ID())
	}
	if got.NVertices() != g.NVertices() || got.NTriangles() != g.NTriangles() ||
		got.NLevels() != g.NLevels() || got.NTessellations() != g.NTessellations() {
		t.Fatalf("counts changed: %d/%d/%d/%d", got.NVertices(), got.NTriangles(), got.NLevels(), got.NTessellations())
	}
	for v := 0; v < g.NVertices(); v++ {
		if got.Vertex(v) != g.Vertex(v) {
			t.Fatalf("vertex %d changed: %v", v, got.Vertex(v))
		}
	}
	for tr := 0; tr < g.NTriangles(); tr++ {
		if got.Triangle(tr) != g.Triangle(tr) {
			t.Fatalf("triangle %d changed: %v", tr, got.Triangle(tr))
		}
	}
	// Recomputed adjacency supports walking.
	q := geotess.PointFromLatLng(37, -122)
	a, err := g.FindTriangle(0, q)
	if err != nil {
		t.Fatalf("FindTriangle: %v", err)
	}
	b, err := got.FindTriangle(0, q)
	if err != nil {
		t.Fatalf("FindTriangle on loaded grid: %v", err)
	}
	if a != b {
		t.Errorf("walk found %d, loaded grid found %d", a, b)
	}
}

func TestReadGridRejectsGarbage(t *testing.T) {
	if _, err := ReadGrid(strings.NewReader("not a grid file at all")); err == nil {
		t.Errorf("garbage accepted")
	}

	g := icosahedronGrid(t, "ico-trunc")
	var buf bytes.Buffer
	if err := WriteGrid(&buf, g); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	if _, err := ReadGrid(bytes.NewReader(buf.Bytes()[:buf.Len()/2])); err == nil {
		t.Errorf("truncated file accepted")
	}

	// Bump the version field past what we write.
	raw := append([]byte(nil), buf.Bytes()...)
	raw[6] = 99
	if _, err := ReadGrid(bytes.NewReader(raw)); err == nil {
		t.Errorf("unknown version accepted")
	}
}

func TestReadGridFileSharesRegistry(t *testing.T) {
	dir := t.TempDir()
	g := icosahedronGrid(t, "shared-ico")
	for _, name := range []string{"a.grid", "b.grid"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := WriteGrid(f, g); err != nil {
			t.Fatalf("WriteGrid: %v", err)
		}
		f.Close()
	}

	reg := geotess.NewGridRegistry()
	g1, err := ReadGridFile(filepath.Join(dir, "a.grid"), reg)
	if err != nil {
		t.Fatalf("ReadGridFile: %v", err)
	}
	g2, err := ReadGridFile(filepath.Join(dir, "b.grid"), reg)
	if err != nil {
		t.Fatalf("ReadGridFile: %v", err)
	}
	if g1 != g2 {
		t.Errorf("grids with the same content ID not shared")
	}
	if reg.Len() != 1 {
		t.Errorf("registry holds %d grids", reg.Len())
	}

	// Without a registry every read stands alone.
	g3, err := ReadGridFile(filepath.Join(dir, "a.grid"), nil)
	if err != nil {
		t.Fatalf("ReadGridFile: %v", err)
	}
	if g3 == g1 {
		t.Errorf("registry-free read returned a shared grid")
	}
}

const modelYAML = `description: io test model
earth_shape: SPHERE
data_type: DOUBLE
grid: test.grid
radial_interpolation: LINEAR
attributes:
  - {name: vs, unit: km/s}
  - {name: vp, unit: km/s}
layers:
  - {name: mantle, tessellation: 0}
  - {name: crust, tessellation: 0}
fill:
  - layer: mantle
    kind: NPOINT
    radii: [3480, 5000, 6341]
    values:
      - [4.0, 7.0]
      - [4.5, 8.0]
      - [4.8, 8.5]
  - layer: crust
    kind: CONSTANT
    radii: [6341, 6371]
    values:
      - [3.5, 6.0]
`

func writeTestModelYAML(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "test.grid"))
	if err != nil {
		t.Fatalf("create grid: %v", err)
	}
	if err := WriteGrid(f, icosahedronGrid(t, "yaml-ico")); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	f.Close()
	path := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(path, []byte(modelYAML), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestReadModelYAML(t *testing.T) {
	m, err := ReadModelYAML(writeTestModelYAML(t), nil)
	if err != nil {
		t.Fatalf("ReadModelYAML: %v", err)
	}
	if m.NLayers() != 2 || m.NAttributes() != 2 {
		t.Fatalf("model shape: %d layers, %d attributes", m.NLayers(), m.NAttributes())
	}
	if m.Metadata().LayerIndex("crust") != 1 || m.Metadata().AttributeIndex("vp") != 1 {
		t.Errorf("catalogue wrong")
	}

	pos, err := m.NewPosition(geotess.HorizontalLinear, geotess.RadialLinear)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	// The fill is uniform across vertices, so interpolation reproduces the
	// fill values everywhere.
	if err := pos.Set(10, 20, 1000); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := pos.Value(0)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	// radius 5371 sits between the 5000 and 6341 knots.
	want := 4.5 + (4.8-4.5)*(5371.0-5000)/(6341-5000)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("mantle vs = %v, want %v", got, want)
	}
	if err := pos.Set(10, 20, 10); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := pos.Value(1); math.Abs(got-6.0) > 1e-9 {
		t.Errorf("crust vp = %v, want 6", got)
	}
}

func TestBuildRejectsBadFill(t *testing.T) {
	g := icosahedronGrid(t, "badfill")
	spec := ModelSpec{
		Attributes: []AttributeSpec{{Name: "vs", Unit: "km/s"}},
		Layers:     []LayerSpec{{Name: "mantle", Tessellation: 0}},
		Fill: []FillSpec{{
			Layer:  "lithosphere", // no such layer
			Kind:   "CONSTANT",
			Radii:  []float64{3480, 6371},
			Values: [][]float64{{4}},
		}},
	}
	if _, err := spec.Build(g); err == nil {
		t.Errorf("fill for unknown layer accepted")
	}

	spec.Fill[0].Layer = "mantle"
	spec.Fill[0].Values = [][]float64{{4, 5}} // too wide
	if _, err := spec.Build(g); err == nil {
		t.Errorf("fill wider than the model accepted")
	}

	spec.Fill[0].Values = [][]float64{{4}}
	spec.Fill[0].Kind = "WAVY"
	if _, err := spec.Build(g); err == nil {
		t.Errorf("unknown fill kind accepted")
	}
}

func TestAttributeCSVRoundTrip(t *testing.T) {
	m, err := ReadModelYAML(writeTestModelYAML(t), nil)
	if err != nil {
		t.Fatalf("ReadModelYAML: %v", err)
	}
	// Perturb attribute 0 per point so the export carries real structure.
	pm := m.PointMap()
	for p := 0; p < pm.NPoints(); p++ {
		pm.SetPointValue(p, 0, float64(p)*0.25)
	}

	var buf bytes.Buffer
	if err := ExportAttributeCSV(m, 0, &buf); err != nil {
		t.Fatalf("ExportAttributeCSV: %v", err)
	}

	// Wipe and restore.
	for p := 0; p < pm.NPoints(); p++ {
		pm.SetPointValue(p, 0, 0)
	}
	if err := ImportAttributeCSV(m, 0, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ImportAttributeCSV: %v", err)
	}
	for p := 0; p < pm.NPoints(); p++ {
		if got := pm.PointValue(p, 0); got != float64(p)*0.25 {
			t.Fatalf("point %d = %v after round trip, want %v", p, got, float64(p)*0.25)
		}
	}

	// Attribute 1 was untouched throughout: point 3 is vertex 0's crust node.
	if got := pm.PointValue(3, 1); got != 6.0 {
		t.Errorf("attribute 1 disturbed: %v", got)
	}
}

func TestImportAttributeCSVValidation(t *testing.T) {
	m, err := ReadModelYAML(writeTestModelYAML(t), nil)
	if err != nil {
		t.Fatalf("ReadModelYAML: %v", err)
	}

	if err := ImportAttributeCSV(m, 5, strings.NewReader("")); err == nil {
		t.Errorf("attribute out of range accepted")
	}

	bad := "vertex,layer,node,radius,value\n99,0,0,3480,4.2\n"
	if err := ImportAttributeCSV(m, 0, strings.NewReader(bad)); err == nil {
		t.Errorf("row addressing a missing vertex accepted")
	}

	bad = "vertex,layer,node,radius,value\n0,0,9,3480,4.2\n"
	if err := ImportAttributeCSV(m, 0, strings.NewReader(bad)); err == nil {
		t.Errorf("row addressing a missing node accepted")
	}

	bad = "vertex,layer,node,radius,value\n0,0,1,4800,4.2\n"
	if err := ImportAttributeCSV(m, 0, strings.NewReader(bad)); err == nil {
		t.Errorf("row with a wrong radius accepted")
	}
}
