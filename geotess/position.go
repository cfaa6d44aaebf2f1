package geotess

import (
	"fmt"
)

// HorizontalKind selects the horizontal (2D) interpolation strategy of a
// Position.
type HorizontalKind int

const (
	// HorizontalLinear interpolates over the three corners of the
	// containing triangle with barycentric (area-ratio) coefficients.
	HorizontalLinear HorizontalKind = iota
	// HorizontalNaturalNeighbor interpolates with Sibson's
	// natural-neighbor (Voronoi stolen-area) coefficients.
	HorizontalNaturalNeighbor
)

// horizontalInterpolator computes the (vertex, coefficient) support of a
// query point known to lie in triangle t of the given global level. The
// exact-vertex-hit case is resolved by Position before the strategy runs.
type horizontalInterpolator interface {
	interpolate(q Point, level, t int, s *tessState) error
}

// tessState is the per-tessellation scratch a Position keeps between
// queries: the last walk result (the start of the next walk) and the
// current horizontal coefficients.
type tessState struct {
	valid    bool
	triangle int // containing triangle at the tessellation's top level; -1 before first walk
	vertices []int
	coeffs   []float64
}

// Position is an interpolation context over one model. It caches the walk
// triangle and horizontal coefficients per tessellation and reuses its
// scratch buffers across queries, so it must not be shared between
// goroutines; create one Position per worker.
//
// A Position is reusable indefinitely: every Set call fully repositions it.
type Position struct {
	model  *Model
	grid   *Grid
	horiz  horizontalInterpolator
	radial RadialKind

	positioned bool
	v          Point
	radius     float64
	layer      int // -1 when unconstrained
	tess       []tessState
}

func newPosition(m *Model, h HorizontalKind, r RadialKind) (*Position, error) {
	p := &Position{
		model:  m,
		grid:   m.grid,
		radial: r,
		layer:  -1,
		tess:   make([]tessState, m.grid.NTessellations()),
	}
	for i := range p.tess {
		p.tess[i].triangle = -1
	}
	switch h {
	case HorizontalLinear:
		p.horiz = &linearInterpolator{grid: m.grid}
	case HorizontalNaturalNeighbor:
		p.horiz = newNaturalNeighborInterpolator(m.grid)
	default:
		return nil, fmt.Errorf("geotess: unknown horizontal interpolator kind %d", h)
	}
	return p, nil
}

// Set positions the context at the given geographic latitude and longitude
// (degrees) and depth (km below the model's earth shape surface). On a 2D
// (surface-only) model use Set2D instead.
func (p *Position) Set(latDeg, lonDeg, depth float64) error {
	if !p.model.Is3D() {
		return fmt.Errorf("%w: depth query on a surface model", ErrModelDimension)
	}
	shape := p.model.meta.Shape
	v := shape.VectorFromLatLonDeg(latDeg, lonDeg)
	return p.SetUnitVector(v, shape.DepthToRadius(v, depth))
}

// Set2D positions the context horizontally on a 2D (surface-only) model,
// which has no radial dimension to constrain.
func (p *Position) Set2D(latDeg, lonDeg float64) error {
	if p.model.Is3D() {
		return fmt.Errorf("%w: Set2D on a 3D model", ErrModelDimension)
	}
	return p.position(p.model.meta.Shape.VectorFromLatLonDeg(latDeg, lonDeg), 0, 0)
}

// SetUnitVector positions the context at the given unit vector and radius
// (km). The layer containing the radius is derived from the model.
func (p *Position) SetUnitVector(v Point, radius float64) error {
	return p.position(v, radius, -1)
}

// SetLayer positions the context at the given unit vector and radius,
// constraining interpolation to the named layer. If the radius falls
// outside the layer's radial band, values are clamped to the band's
// endpoints; layers are physically discontinuous, so the constraint never
// extrapolates across a boundary.
func (p *Position) SetLayer(layer int, v Point, radius float64) error {
	if layer < 0 || layer >= p.model.NLayers() {
		return fmt.Errorf("%w: layer %d of %d", ErrLayerOutOfRange, layer, p.model.NLayers())
	}
	return p.position(v, radius, layer)
}

func (p *Position) position(v Point, radius float64, layer int) error {
	moved := !p.positioned || !v.ApproxEqual(p.v)
	p.v = v
	p.radius = radius
	p.layer = layer
	p.positioned = true
	if moved {
		// Keep each tessellation's triangle as the next walk's start, but
		// drop the coefficients. Radius-only changes invalidate nothing.
		for i := range p.tess {
			p.tess[i].valid = false
		}
	}
	// Walk the tessellation of the (or a) relevant layer now so geometric
	// errors surface from Set rather than from a later accessor.
	_, err := p.tessFor(p.currentLayer())
	return err
}

// currentLayer resolves the layer in effect: the constrained one, or the
// layer whose radial band contains the query radius.
func (p *Position) currentLayer() int {
	if p.layer >= 0 {
		return p.layer
	}
	// Compare against each layer's top radius interpolated at the query
	// point. Walking is cached per tessellation, so models whose layers
	// share one tessellation walk it once.
	for layer := 0; layer < p.model.NLayers(); layer++ {
		s, err := p.tessFor(layer)
		if err != nil {
			break
		}
		top := 0.0
		for i, vi := range s.vertices {
			top += s.coeffs[i] * p.model.profiles[vi][layer].RadiusTop()
		}
		if p.radius <= top {
			return layer
		}
	}
	return p.model.NLayers() - 1
}

// tessFor returns the positioned state of the tessellation supporting the
// given layer, walking and computing horizontal coefficients if the cached
// state is stale.
func (p *Position) tessFor(layer int) (*tessState, error) {
	if !p.positioned {
		return nil, ErrNotPositioned
	}
	te := p.model.meta.LayerTessIDs[layer]
	s := &p.tess[te]
	if s.valid {
		return s, nil
	}

	top := p.grid.TopLevel(te)
	t := s.triangle
	var err error
	if t < 0 {
		// First query on this tessellation: descend level by level from
		// the coarsest, seeding each level's walk with the found
		// triangle's descendant.
		t = p.grid.FirstTriangle(int(p.grid.tessellations[te][0]))
		for level := int(p.grid.tessellations[te][0]); ; level++ {
			t, err = p.grid.FindTriangle(t, p.v)
			if err != nil {
				return nil, err
			}
			if level == top {
				break
			}
			if d := p.grid.descendant(level, t); d >= 0 {
				t = d
			} else {
				t = p.grid.FirstTriangle(level + 1)
			}
		}
	} else {
		// Successive queries are usually close together; resume the walk
		// from the previous result at the top level.
		t, err = p.grid.FindTriangle(t, p.v)
		if err != nil {
			return nil, err
		}
	}
	s.triangle = t

	// Exact vertex hit: that vertex is the sole support, for either
	// strategy. This must precede the coefficient computation, which is
	// numerically degenerate when the query coincides with a vertex.
	tri := p.grid.Triangle(t)
	s.vertices = s.vertices[:0]
	s.coeffs = s.coeffs[:0]
	for _, vi := range tri {
		if p.v.Dot(p.grid.Vertex(int(vi)).Vector) > vertexHitDot {
			s.vertices = append(s.vertices, int(vi))
			s.coeffs = append(s.coeffs, 1)
			s.valid = true
			return s, nil
		}
	}

	if err := p.horiz.interpolate(p.v, top, t, s); err != nil {
		return nil, err
	}
	s.valid = true
	return s, nil
}

// Value returns the interpolated value of attribute attr at the current
// position.
func (p *Position) Value(attr int) (float64, error) {
	if attr < 0 || attr >= p.model.NAttributes() {
		panic(fmt.Sprintf("geotess: attribute %d out of range [0,%d)", attr, p.model.NAttributes()))
	}
	layer := p.currentLayer()
	s, err := p.tessFor(layer)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i, vi := range s.vertices {
		prof := p.model.profiles[vi][layer]
		val, err := prof.InterpolateValue(p.radius, attr, p.radial)
		if err != nil {
			return 0, fmt.Errorf("vertex %d layer %d: %w", vi, layer, err)
		}
		sum += s.coeffs[i] * val
	}
	return sum, nil
}

// Values interpolates every attribute at the current position into dst,
// which must have length NAttributes.
func (p *Position) Values(dst []float64) error {
	if len(dst) != p.model.NAttributes() {
		return fmt.Errorf("geotess: dst has %d slots, model has %d attributes",
			len(dst), p.model.NAttributes())
	}
	for a := range dst {
		v, err := p.Value(a)
		if err != nil {
			return err
		}
		dst[a] = v
	}
	return nil
}

// Coefficients returns the weight map of the current position: for every
// model point contributing to an interpolated value, the product of its
// horizontal and radial coefficients. Weights sum to 1 when every
// contributing point is inside the point map's active region; points
// outside it are omitted.
func (p *Position) Coefficients() (map[int]float64, error) {
	layer := p.currentLayer()
	s, err := p.tessFor(layer)
	if err != nil {
		return nil, err
	}
	pm := p.model.PointMap()
	weights := make(map[int]float64, 2*len(s.vertices))
	for i, vi := range s.vertices {
		prof := p.model.profiles[vi][layer]
		nodes, nw, n, err := prof.NodeWeights(p.radius)
		if err != nil {
			return nil, fmt.Errorf("vertex %d layer %d: %w", vi, layer, err)
		}
		for k := 0; k < n; k++ {
			if pt := pm.PointIndex(vi, layer, nodes[k]); pt >= 0 {
				weights[pt] += s.coeffs[i] * nw[k]
			}
		}
	}
	return weights, nil
}

// Vertices returns the grid vertices supporting the current position. The
// returned slice is scratch state, valid until the next Set call.
func (p *Position) Vertices() ([]int, error) {
	s, err := p.tessFor(p.currentLayer())
	if err != nil {
		return nil, err
	}
	return s.vertices, nil
}

// HorizontalCoefficients returns the horizontal interpolation coefficients
// aligned with Vertices. The returned slice is scratch state, valid until
// the next Set call.
func (p *Position) HorizontalCoefficients() ([]float64, error) {
	s, err := p.tessFor(p.currentLayer())
	if err != nil {
		return nil, err
	}
	return s.coeffs, nil
}

// Triangle returns the containing triangle found on the given tessellation,
// or -1 if that tessellation has not been walked at the current position.
func (p *Position) Triangle(te int) int {
	if !p.tess[te].valid {
		return -1
	}
	return p.tess[te].triangle
}

// LayerID returns the layer in effect at the current position.
func (p *Position) LayerID() (int, error) {
	if !p.positioned {
		return -1, ErrNotPositioned
	}
	return p.currentLayer(), nil
}

// UnitVector returns the current query point.
func (p *Position) UnitVector() Point { return p.v }

// Radius returns the current query radius in km.
func (p *Position) Radius() float64 { return p.radius }

// Depth returns the current depth below the model's earth shape surface in
// km.
func (p *Position) Depth() float64 {
	return p.model.meta.Shape.RadiusToDepth(p.v, p.radius)
}
