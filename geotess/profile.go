package geotess

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/interp"
)

// ProfileKind discriminates the six radial profile layouts. The (radii,
// data) shape is fixed per kind and validated by the constructors.
type ProfileKind int

const (
	// KindEmpty spans a radial interval but carries no data (2 radii, 0
	// data). It marks a layer with zero thickness of interest at a vertex.
	KindEmpty ProfileKind = iota
	// KindThin is a zero-thickness layer with one data vector (1 radius,
	// 1 data).
	KindThin
	// KindConstant holds one data vector constant across its interval
	// (2 radii, 1 data).
	KindConstant
	// KindNPoint holds N >= 2 radial samples (N radii, N data).
	KindNPoint
	// KindSurface carries one data vector and no radial dimension at all
	// (0 radii, 1 data), for 2D models.
	KindSurface
	// KindSurfaceEmpty carries nothing (0 radii, 0 data).
	KindSurfaceEmpty
)

var profileKindNames = [...]string{
	"EMPTY", "THIN", "CONSTANT", "NPOINT", "SURFACE", "SURFACE_EMPTY",
}

func (k ProfileKind) String() string { return profileKindNames[k] }

// RadialKind selects how values are interpolated along a profile's radii.
type RadialKind int

const (
	// RadialLinear interpolates linearly between the two bracketing nodes.
	RadialLinear RadialKind = iota
	// RadialCubicSpline evaluates a natural cubic spline fitted across the
	// whole profile. The fit is computed lazily once per profile/attribute
	// and cached.
	RadialCubicSpline
)

// Profile is the radial column of data at one (vertex, layer) slot: an
// ordered sequence of (radius, attribute-vector) samples spanning the
// layer's radial extent at that vertex. Radii are km from the Earth's
// center, monotonically non-decreasing, bottom first.
type Profile struct {
	kind  ProfileKind
	radii []float64
	data  []*Data

	// Cubic spline fits per attribute, built on first spline query. The
	// mutex guards lazy construction when one model is queried from many
	// goroutines at once.
	splineMu     sync.Mutex
	splines      []interp.NaturalCubic
	splineFitted bool
	splineLinear bool // duplicate knot radii: spline falls back to linear
}

// NewProfileEmpty returns an EMPTY profile spanning [rBottom, rTop].
func NewProfileEmpty(rBottom, rTop float64) (*Profile, error) {
	if rTop < rBottom {
		return nil, fmt.Errorf("geotess: profile radii out of order: bottom %g > top %g", rBottom, rTop)
	}
	return &Profile{kind: KindEmpty, radii: []float64{rBottom, rTop}}, nil
}

// NewProfileThin returns a THIN profile: a single radius and a single data
// vector.
func NewProfileThin(radius float64, data *Data) (*Profile, error) {
	if data == nil {
		return nil, fmt.Errorf("geotess: THIN profile requires a data vector")
	}
	return &Profile{kind: KindThin, radii: []float64{radius}, data: []*Data{data}}, nil
}

// NewProfileConstant returns a CONSTANT profile: one data vector constant
// across [rBottom, rTop].
func NewProfileConstant(rBottom, rTop float64, data *Data) (*Profile, error) {
	if rTop < rBottom {
		return nil, fmt.Errorf("geotess: profile radii out of order: bottom %g > top %g", rBottom, rTop)
	}
	if data == nil {
		return nil, fmt.Errorf("geotess: CONSTANT profile requires a data vector")
	}
	return &Profile{kind: KindConstant, radii: []float64{rBottom, rTop}, data: []*Data{data}}, nil
}

// NewProfileNPoint returns an NPOINT profile over the given samples. radii
// must be monotonically non-decreasing and len(data) == len(radii) >= 2.
func NewProfileNPoint(radii []float64, data []*Data) (*Profile, error) {
	if len(radii) < 2 || len(radii) != len(data) {
		return nil, fmt.Errorf("geotess: NPOINT profile requires N>=2 radii with matching data, got %d radii, %d data",
			len(radii), len(data))
	}
	for i := 1; i < len(radii); i++ {
		if radii[i] < radii[i-1] {
			return nil, fmt.Errorf("geotess: NPOINT radii not monotonic at node %d: %g < %g",
				i, radii[i], radii[i-1])
		}
	}
	for i, d := range data {
		if d == nil {
			return nil, fmt.Errorf("geotess: NPOINT profile node %d has no data", i)
		}
	}
	return &Profile{kind: KindNPoint, radii: radii, data: data}, nil
}

// NewProfileSurface returns a SURFACE profile for 2D models: one data
// vector, no radii.
func NewProfileSurface(data *Data) (*Profile, error) {
	if data == nil {
		return nil, fmt.Errorf("geotess: SURFACE profile requires a data vector")
	}
	return &Profile{kind: KindSurface, data: []*Data{data}}, nil
}

// NewProfileSurfaceEmpty returns a SURFACE_EMPTY profile.
func NewProfileSurfaceEmpty() *Profile {
	return &Profile{kind: KindSurfaceEmpty}
}

// Kind returns the profile's layout discriminant.
func (p *Profile) Kind() ProfileKind { return p.kind }

// NRadii returns the number of stored radii.
func (p *Profile) NRadii() int { return len(p.radii) }

// NData returns the number of stored data vectors (nodes).
func (p *Profile) NData() int { return len(p.data) }

// Radius returns stored radius i. It panics if i is out of range.
func (p *Profile) Radius(i int) float64 { return p.radii[i] }

// Data returns the data vector at node i. It panics if i is out of range.
func (p *Profile) Data(i int) *Data { return p.data[i] }

// Value returns attribute attr at node i, widened to float64.
func (p *Profile) Value(i, attr int) float64 { return p.data[i].Double(attr) }

// RadiusBottom returns the radius of the bottom of the profile. Surface
// profiles have no radial extent and report 0.
func (p *Profile) RadiusBottom() float64 {
	if len(p.radii) == 0 {
		return 0
	}
	return p.radii[0]
}

// RadiusTop returns the radius of the top of the profile.
func (p *Profile) RadiusTop() float64 {
	if len(p.radii) == 0 {
		return 0
	}
	return p.radii[len(p.radii)-1]
}

// Thickness returns RadiusTop - RadiusBottom.
func (p *Profile) Thickness() float64 { return p.RadiusTop() - p.RadiusBottom() }

// SetData replaces the data vector at node i and invalidates any cached
// spline fit. Intended for the load/setup phase; a model being queried
// concurrently must not be mutated.
func (p *Profile) SetData(i int, d *Data) {
	p.data[i] = d
	p.splineMu.Lock()
	p.splineFitted = false
	p.splines = nil
	p.splineMu.Unlock()
}

// snapBottom adjusts the bottom radius in place. Used by Model.SetProfile to
// repair sub-tolerance layer-boundary mismatches.
func (p *Profile) snapBottom(r float64) {
	if len(p.radii) > 0 {
		p.radii[0] = r
	}
}

// bracket returns the node index i such that radii[i] <= r < radii[i+1],
// clamped to the valid interval range.
func (p *Profile) bracket(r float64) int {
	i := sort.SearchFloat64s(p.radii, r) - 1
	if i < 0 {
		i = 0
	}
	if i > len(p.radii)-2 {
		i = len(p.radii) - 2
	}
	return i
}

// InterpolateValue returns attribute attr interpolated at the given radius.
//
// THIN, CONSTANT and SURFACE profiles return their single stored value
// regardless of radius. NPOINT profiles interpolate between the bracketing
// nodes, clamping to the endpoint values outside the profile's radial span
// rather than extrapolating. EMPTY and SURFACE_EMPTY profiles return
// ErrEmptyProfile.
func (p *Profile) InterpolateValue(radius float64, attr int, kind RadialKind) (float64, error) {
	switch p.kind {
	case KindEmpty, KindSurfaceEmpty:
		return 0, ErrEmptyProfile
	case KindThin, KindConstant, KindSurface:
		return p.data[0].Double(attr), nil
	}

	if radius <= p.radii[0] {
		return p.data[0].Double(attr), nil
	}
	if radius >= p.radii[len(p.radii)-1] {
		return p.data[len(p.data)-1].Double(attr), nil
	}
	i := p.bracket(radius)
	// A query exactly on a knot reproduces the stored value bit for bit,
	// whatever the interpolator kind.
	if radius == p.radii[i] {
		return p.data[i].Double(attr), nil
	}
	if radius == p.radii[i+1] {
		return p.data[i+1].Double(attr), nil
	}
	if kind == RadialCubicSpline && p.fitSplines() {
		return p.splines[attr].Predict(radius), nil
	}
	return linearInterp(p.radii[i], p.data[i].Double(attr),
		p.radii[i+1], p.data[i+1].Double(attr), radius), nil
}

// NodeWeights returns the node indices and coefficients that express the
// value at the given radius as a weighted sum of stored node values.
// Coefficients sum to 1. Weight maps always use the linear bracketing
// coefficients; a cubic-spline radial setting affects interpolated values
// only, since its node support spans the whole profile.
func (p *Profile) NodeWeights(radius float64) (nodes [2]int, weights [2]float64, n int, err error) {
	switch p.kind {
	case KindEmpty, KindSurfaceEmpty:
		return nodes, weights, 0, ErrEmptyProfile
	case KindThin, KindConstant, KindSurface:
		return [2]int{0, 0}, [2]float64{1, 0}, 1, nil
	}
	if radius <= p.radii[0] {
		return [2]int{0, 0}, [2]float64{1, 0}, 1, nil
	}
	last := len(p.radii) - 1
	if radius >= p.radii[last] {
		return [2]int{last, 0}, [2]float64{1, 0}, 1, nil
	}
	i := p.bracket(radius)
	if p.radii[i+1] == p.radii[i] {
		return [2]int{i, 0}, [2]float64{1, 0}, 1, nil
	}
	w := (radius - p.radii[i]) / (p.radii[i+1] - p.radii[i])
	return [2]int{i, i + 1}, [2]float64{1 - w, w}, 2, nil
}

// fitSplines builds the per-attribute natural cubic spline fits if they are
// not already cached. It reports false when the profile contains duplicate
// knot radii (a first-order discontinuity a single-valued cubic cannot
// represent), in which case the caller falls back to linear interpolation.
func (p *Profile) fitSplines() bool {
	p.splineMu.Lock()
	defer p.splineMu.Unlock()
	if p.splineFitted {
		return !p.splineLinear
	}
	p.splineFitted = true
	p.splineLinear = false
	for i := 1; i < len(p.radii); i++ {
		if p.radii[i] == p.radii[i-1] {
			p.splineLinear = true
			return false
		}
	}
	nAttr := p.data[0].Size()
	p.splines = make([]interp.NaturalCubic, nAttr)
	for a := 0; a < nAttr; a++ {
		ys := make([]float64, len(p.radii))
		for i, d := range p.data {
			ys[i] = d.Double(a)
		}
		if err := p.splines[a].Fit(p.radii, ys); err != nil {
			p.splineLinear = true
			p.splines = nil
			return false
		}
	}
	return true
}

// linearInterp returns the stored endpoint values exactly when x lands on a
// knot; the blended form can differ in the last ulp.
func linearInterp(x0, y0, x1, y1, x float64) float64 {
	switch {
	case x == x0 || x1 == x0:
		return y0
	case x == x1:
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
