package geotess

import (
	"math"

	"github.com/sandialabs/geotess/r3"
)

// Point represents a grid vertex or query location on the unit sphere as a
// normalized 3D vector.
//
// Fields should be treated as read-only. Use one of the factory methods for
// creation.
type Point struct {
	r3.Vector
}

// vertexHitDot is the vertex-coincidence threshold: a query whose dot
// product with a vertex exceeds cos(1e-7 radians) is treated as an exact hit
// on that vertex (within ~0.02 km at Earth radius). The short circuit exists
// to keep natural-neighbor polygon construction away from the degenerate
// case where the query is itself a Voronoi site.
var vertexHitDot = math.Cos(1e-7)

// PointFromCoords creates a new normalized point from coordinates.
//
// This always returns a valid point. If the given coordinates can not be
// normalized, the north pole is returned.
func PointFromCoords(x, y, z float64) Point {
	if x == 0 && y == 0 && z == 0 {
		return Point{r3.Vector{X: 0, Y: 0, Z: 1}}
	}
	return Point{r3.Vector{X: x, Y: y, Z: z}.Normalize()}
}

// PointFromLatLng creates a point from geocentric latitude and longitude in
// degrees. For geographic (ellipsoidal) coordinates go through an
// EarthShape instead.
func PointFromLatLng(latDeg, lonDeg float64) Point {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	cosLat := math.Cos(lat)
	return Point{r3.Vector{
		X: cosLat * math.Cos(lon),
		Y: cosLat * math.Sin(lon),
		Z: math.Sin(lat),
	}}
}

// LatLng returns the geocentric latitude and longitude of the point in
// degrees.
func (p Point) LatLng() (latDeg, lonDeg float64) {
	lat := math.Asin(math.Max(-1, math.Min(1, p.Z)))
	lon := math.Atan2(p.Y, p.X)
	return lat * 180 / math.Pi, lon * 180 / math.Pi
}

// ApproxEqual reports if the two points are similar enough to be equal.
func (p Point) ApproxEqual(other Point) bool {
	const epsilon = 1e-14
	return p.Vector.Angle(other.Vector) <= epsilon
}

// Side returns the scalar triple product (a ⨯ b) · q.
//
// For a directed great-circle edge from a to b, the sign tells which side of
// the edge q lies on: positive to the left, negative to the right, zero on
// the great circle itself. The triangle walk compares the raw value against
// exact zero; there is deliberately no epsilon here (see FindTriangle).
func Side(a, b, q Point) float64 {
	return a.Cross(b.Vector).Dot(q.Vector)
}

// TriangleArea returns the area on the unit sphere of the triangle defined
// by the given points.
//
// This method is based on l'Huilier's theorem,
//
//	tan(E/4) = sqrt(tan(s/2) tan((s-a)/2) tan((s-b)/2) tan((s-c)/2))
//
// where E is the spherical excess of the triangle (i.e. its area),
// a, b, c are the side lengths and s is the semiperimeter (a + b + c) / 2.
//
// The only significant source of error using l'Huilier's method is the
// cancellation error of the terms (s-a), (s-b), (s-c), so for extremely long
// and skinny triangles Girard's formula is used instead.
func TriangleArea(a, b, c Point) float64 {
	sa := b.Angle(c.Vector)
	sb := c.Angle(a.Vector)
	sc := a.Angle(b.Vector)
	s := 0.5 * (sa + sb + sc)
	if s >= 3e-4 {
		// Consider whether Girard's formula might be more accurate.
		dmin := s - math.Max(sa, math.Max(sb, sc))
		if dmin < 1e-2*s*s*s*s*s {
			// This triangle is skinny enough to use Girard's formula.
			ab := robustCross(a, b)
			bc := robustCross(b, c)
			ac := robustCross(a, c)
			area := math.Max(0.0, ab.Angle(ac)-ab.Angle(bc)+bc.Angle(ac))
			if dmin < s*0.1*area {
				return area
			}
		}
	}

	// Use l'Huilier's formula.
	return 4 * math.Atan(math.Sqrt(math.Max(0.0, math.Tan(0.5*s)*math.Tan(0.5*(s-sa))*
		math.Tan(0.5*(s-sb))*math.Tan(0.5*(s-sc)))))
}

// robustCross computes a normalized cross product that stays well defined
// when the inputs are nearly (anti)parallel, by crossing the sum with the
// difference of the two vectors.
func robustCross(a, b Point) r3.Vector {
	x := a.Add(b.Vector).Cross(b.Sub(a.Vector))
	if x.ApproxEqual(r3.Vector{}) {
		// The only result that makes sense mathematically is zero, but an
		// arbitrary orthogonal vector is more convenient for callers.
		return a.Ortho()
	}
	return x.Normalize()
}

// Circumcenter returns the center, on the unit sphere, of the circle passing
// through the three given points, on the same side of the sphere as the
// points themselves.
func Circumcenter(a, b, c Point) Point {
	cc := a.Sub(b.Vector).Cross(b.Sub(c.Vector))
	if cc.Dot(a.Vector.Add(b.Vector).Add(c.Vector)) < 0 {
		cc = cc.Neg()
	}
	return Point{cc.Normalize()}
}

// centroid returns the normalized mean of the three points.
func centroid(a, b, c Point) Point {
	return Point{a.Add(b.Vector).Add(c.Vector).Normalize()}
}
