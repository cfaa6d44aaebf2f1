package geotess

import "sync"

// PointMap exposes a dense 0..N-1 "point" index over every active (vertex,
// layer, node) triple in a model, the address space used by weight maps and
// by tomography consumers that treat the model as one flat vector of
// unknowns.
//
// The map is derived state: it is built lazily from the model's profiles and
// rebuilt after the active region changes. Points at vertices outside the
// active region are excluded and report index -1.
type PointMap struct {
	model *Model

	mu      sync.Mutex
	region  func(Point) bool // nil means everything is active
	built   bool
	entries [][3]int32 // point -> (vertex, layer, node)
	first   [][]int32  // [vertex][layer] -> first point of profile, -1 if inactive
}

func newPointMap(m *Model) *PointMap {
	return &PointMap{model: m}
}

// SetActiveRegion restricts the point map to vertices for which active
// returns true. A nil predicate makes every vertex active. The map is
// rebuilt on next use.
func (pm *PointMap) SetActiveRegion(active func(Point) bool) {
	pm.mu.Lock()
	pm.region = active
	pm.built = false
	pm.entries = nil
	pm.first = nil
	pm.mu.Unlock()
}

func (pm *PointMap) build() {
	if pm.built {
		return
	}
	m := pm.model
	pm.first = make([][]int32, m.NVertices())
	pm.entries = pm.entries[:0]
	for v := 0; v < m.NVertices(); v++ {
		pm.first[v] = make([]int32, m.NLayers())
		active := pm.region == nil || pm.region(m.grid.Vertex(v))
		for layer := 0; layer < m.NLayers(); layer++ {
			pm.first[v][layer] = -1
			p := m.profiles[v][layer]
			if !active || p == nil || p.NData() == 0 {
				continue
			}
			pm.first[v][layer] = int32(len(pm.entries))
			for node := 0; node < p.NData(); node++ {
				pm.entries = append(pm.entries, [3]int32{int32(v), int32(layer), int32(node)})
			}
		}
	}
	pm.built = true
}

// NPoints returns the number of active points.
func (pm *PointMap) NPoints() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.build()
	return len(pm.entries)
}

// PointIndex returns the flat index of (vertex, layer, node), or -1 if the
// vertex is outside the active region or the node does not exist.
func (pm *PointMap) PointIndex(vertex, layer, node int) int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.build()
	if vertex < 0 || vertex >= len(pm.first) || layer < 0 || layer >= len(pm.first[vertex]) {
		return -1
	}
	f := pm.first[vertex][layer]
	if f < 0 || node < 0 || node >= pm.model.profiles[vertex][layer].NData() {
		return -1
	}
	return int(f) + node
}

// VertexIndex returns the grid vertex of the given point.
func (pm *PointMap) VertexIndex(point int) int { return int(pm.entry(point)[0]) }

// LayerIndex returns the layer of the given point.
func (pm *PointMap) LayerIndex(point int) int { return int(pm.entry(point)[1]) }

// NodeIndex returns the profile node of the given point.
func (pm *PointMap) NodeIndex(point int) int { return int(pm.entry(point)[2]) }

func (pm *PointMap) entry(point int) [3]int32 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.build()
	return pm.entries[point]
}

// PointValue returns attribute attr at the given point.
func (pm *PointMap) PointValue(point, attr int) float64 {
	e := pm.entry(point)
	return pm.model.profiles[e[0]][e[1]].Value(int(e[2]), attr)
}

// SetPointValue stores attribute attr at the given point. Intended for the
// load/setup phase only.
func (pm *PointMap) SetPointValue(point, attr int, value float64) {
	e := pm.entry(point)
	pm.model.profiles[e[0]][e[1]].Data(int(e[2])).SetDouble(attr, value)
}

// PointUnitVector returns the unit vector of the point's vertex.
func (pm *PointMap) PointUnitVector(point int) Point {
	return pm.model.grid.Vertex(int(pm.entry(point)[0]))
}

// PointRadius returns the radius of the point's node in km. Surface
// profiles carry no radius and report 0.
func (pm *PointMap) PointRadius(point int) float64 {
	e := pm.entry(point)
	p := pm.model.profiles[e[0]][e[1]]
	switch p.Kind() {
	case KindSurface, KindSurfaceEmpty:
		return 0
	case KindConstant:
		// The single data vector represents the whole interval.
		return 0.5 * (p.RadiusBottom() + p.RadiusTop())
	default:
		return p.Radius(int(e[2]))
	}
}
