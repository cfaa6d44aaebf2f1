package geotess

import (
	"fmt"
	"math"
	"sync"
)

// layerBoundaryTolerance is the largest mismatch, in km, allowed between the
// top radius of one layer and the bottom radius of the layer above it at the
// same vertex. Smaller mismatches are repaired by snapping the upper
// profile's bottom radius; larger ones reject the profile.
const layerBoundaryTolerance = 0.01

// Model owns a Grid and one Profile per (vertex, layer) slot, plus the
// metadata describing layers and attributes. It is populated during a
// single-threaded load phase and is read-only and freely shareable once
// complete; all querying goes through Position objects.
type Model struct {
	grid     *Grid
	meta     ModelMetadata
	profiles [][]*Profile // [vertex][layer]

	pmMu     sync.Mutex
	pointMap *PointMap
}

// NewModel creates an empty model over the given grid. Every (vertex,
// layer) slot starts nil and must be populated with SetProfile before the
// model is queried.
func NewModel(g *Grid, meta ModelMetadata) (*Model, error) {
	if g == nil {
		return nil, fmt.Errorf("geotess: model requires a grid")
	}
	if err := meta.validate(g); err != nil {
		return nil, err
	}
	profiles := make([][]*Profile, g.NVertices())
	for v := range profiles {
		profiles[v] = make([]*Profile, len(meta.LayerNames))
	}
	return &Model{grid: g, meta: meta, profiles: profiles}, nil
}

// Grid returns the model's grid.
func (m *Model) Grid() *Grid { return m.grid }

// Metadata returns the model's metadata.
func (m *Model) Metadata() *ModelMetadata { return &m.meta }

// NLayers returns the number of layers.
func (m *Model) NLayers() int { return len(m.meta.LayerNames) }

// NVertices returns the number of grid vertices.
func (m *Model) NVertices() int { return m.grid.NVertices() }

// NAttributes returns the number of attributes per node.
func (m *Model) NAttributes() int { return len(m.meta.AttributeNames) }

// Profile returns the profile at (vertex, layer), which is nil until set.
// It panics if either index is out of range.
func (m *Model) Profile(vertex, layer int) *Profile { return m.profiles[vertex][layer] }

// SetProfile installs a profile at (vertex, layer), replacing any previous
// one. The profile's attribute width must match the model, and its radial
// extent must meet the adjacent layers' boundaries at this vertex within
// layerBoundaryTolerance; mismatches below the tolerance are repaired by
// snapping the upper profile's bottom radius, larger ones are an error.
//
// Installing a profile invalidates the model's point map.
func (m *Model) SetProfile(vertex, layer int, p *Profile) error {
	if vertex < 0 || vertex >= m.grid.NVertices() {
		return fmt.Errorf("geotess: vertex %d out of range [0,%d)", vertex, m.grid.NVertices())
	}
	if layer < 0 || layer >= m.NLayers() {
		return fmt.Errorf("%w: layer %d of %d", ErrLayerOutOfRange, layer, m.NLayers())
	}
	if p == nil {
		return fmt.Errorf("geotess: nil profile for vertex %d layer %d", vertex, layer)
	}
	for i := 0; i < p.NData(); i++ {
		if p.Data(i).Size() != m.NAttributes() {
			return fmt.Errorf("geotess: profile node %d has %d attributes, model has %d",
				i, p.Data(i).Size(), m.NAttributes())
		}
		if p.Data(i).Type() != m.meta.DataType {
			return fmt.Errorf("geotess: profile node %d has data type %v, model stores %v",
				i, p.Data(i).Type(), m.meta.DataType)
		}
	}
	surface := p.kind == KindSurface || p.kind == KindSurfaceEmpty
	if surface && m.NLayers() != 1 {
		return fmt.Errorf("geotess: %v profile requires a single-layer 2D model", p.kind)
	}

	if !surface {
		if layer > 0 {
			if below := m.profiles[vertex][layer-1]; below != nil {
				if err := snapBoundary(below, p, vertex, layer); err != nil {
					return err
				}
			}
		}
		if layer+1 < m.NLayers() {
			if above := m.profiles[vertex][layer+1]; above != nil {
				if err := snapBoundary(p, above, vertex, layer+1); err != nil {
					return err
				}
			}
		}
	}

	m.profiles[vertex][layer] = p
	m.pmMu.Lock()
	m.pointMap = nil
	m.pmMu.Unlock()
	return nil
}

// snapBoundary reconciles the shared radius between a layer and the layer
// above it at one vertex.
func snapBoundary(below, above *Profile, vertex, upperLayer int) error {
	gap := math.Abs(above.RadiusBottom() - below.RadiusTop())
	if gap > layerBoundaryTolerance {
		return fmt.Errorf("geotess: vertex %d: bottom of layer %d (%f km) does not meet top of layer %d (%f km)",
			vertex, upperLayer, above.RadiusBottom(), upperLayer-1, below.RadiusTop())
	}
	if gap > 0 {
		above.snapBottom(below.RadiusTop())
	}
	return nil
}

// Value returns attribute attr at the given (vertex, layer, node),
// widened to float64.
func (m *Model) Value(vertex, layer, node, attr int) (float64, error) {
	p := m.profiles[vertex][layer]
	if p == nil {
		return 0, fmt.Errorf("geotess: no profile at vertex %d layer %d", vertex, layer)
	}
	if node >= p.NData() {
		return 0, ErrEmptyProfile
	}
	return p.Value(node, attr), nil
}

// Is3D reports whether the model carries a radial dimension. A model whose
// profiles are all SURFACE kinds is 2D.
func (m *Model) Is3D() bool {
	for v := range m.profiles {
		for _, p := range m.profiles[v] {
			if p != nil {
				return p.kind != KindSurface && p.kind != KindSurfaceEmpty
			}
		}
	}
	return false
}

// LayerOfRadius returns the index of the layer containing the given radius
// at the given vertex, clamped to the deepest and shallowest layers.
func (m *Model) LayerOfRadius(vertex int, radius float64) int {
	profs := m.profiles[vertex]
	for layer := 0; layer < len(profs); layer++ {
		if profs[layer] != nil && radius <= profs[layer].RadiusTop() {
			return layer
		}
	}
	return len(profs) - 1
}

// RadiusBottom returns the radius of the bottom of the deepest layer at the
// given vertex.
func (m *Model) RadiusBottom(vertex int) float64 {
	for _, p := range m.profiles[vertex] {
		if p != nil {
			return p.RadiusBottom()
		}
	}
	return 0
}

// RadiusTop returns the radius of the top of the shallowest layer at the
// given vertex.
func (m *Model) RadiusTop(vertex int) float64 {
	profs := m.profiles[vertex]
	for i := len(profs) - 1; i >= 0; i-- {
		if profs[i] != nil {
			return profs[i].RadiusTop()
		}
	}
	return 0
}

// checkComplete verifies that every (vertex, layer) slot holds a profile.
func (m *Model) checkComplete() error {
	for v := range m.profiles {
		for l, p := range m.profiles[v] {
			if p == nil {
				return fmt.Errorf("geotess: vertex %d layer %d has no profile", v, l)
			}
		}
	}
	return nil
}

// PointMap returns the model's flat point index, building it on first use.
// Safe to call from multiple goroutines once the model is loaded.
func (m *Model) PointMap() *PointMap {
	m.pmMu.Lock()
	defer m.pmMu.Unlock()
	if m.pointMap == nil {
		m.pointMap = newPointMap(m)
	}
	return m.pointMap
}

// NewPosition returns a query context over this model using the given
// horizontal and radial interpolation strategies. Each concurrent goroutine
// needs its own Position; the Position itself is not thread safe.
func (m *Model) NewPosition(h HorizontalKind, r RadialKind) (*Position, error) {
	if err := m.checkComplete(); err != nil {
		return nil, err
	}
	return newPosition(m, h, r)
}
