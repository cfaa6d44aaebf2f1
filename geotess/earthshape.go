package geotess

import (
	"fmt"
	"math"
	"strings"
)

// EarthShape defines the figure of the Earth used to convert between
// geographic and geocentric latitude and between depth and radius. The core
// only ever consults it at the edges of a query; all internal geometry is on
// the unit sphere.
type EarthShape int

const (
	// Sphere treats the Earth as a sphere of radius 6371 km; geographic and
	// geocentric latitudes are equal.
	Sphere EarthShape = iota
	// GRS80 ellipsoid.
	GRS80
	// GRS80RConst uses GRS80 latitude conversions but a constant 6371 km
	// radius.
	GRS80RConst
	// WGS84 ellipsoid.
	WGS84
	// WGS84RConst uses WGS84 latitude conversions but a constant 6371 km
	// radius.
	WGS84RConst
	// IERS2003 ellipsoid.
	IERS2003
	// IERS2003RConst uses IERS2003 latitude conversions but a constant
	// 6371 km radius.
	IERS2003RConst
)

const constantRadius = 6371.0

type shapeParams struct {
	name              string
	equatorialRadius  float64 // km
	inverseFlattening float64 // 0 means spherical
	rconst            bool
}

var shapes = [...]shapeParams{
	Sphere:         {"SPHERE", constantRadius, 0, true},
	GRS80:          {"GRS80", 6378.137, 298.257222101, false},
	GRS80RConst:    {"GRS80_RCONST", 6378.137, 298.257222101, true},
	WGS84:          {"WGS84", 6378.137, 298.257223563, false},
	WGS84RConst:    {"WGS84_RCONST", 6378.137, 298.257223563, true},
	IERS2003:       {"IERS2003", 6378.1366, 298.25642, false},
	IERS2003RConst: {"IERS2003_RCONST", 6378.1366, 298.25642, true},
}

// ParseEarthShape returns the EarthShape named by s (case-insensitive, as
// written in model files, e.g. "WGS84" or "GRS80_RCONST").
func ParseEarthShape(s string) (EarthShape, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i := range shapes {
		if shapes[i].name == u {
			return EarthShape(i), nil
		}
	}
	return Sphere, fmt.Errorf("geotess: unknown earth shape %q", s)
}

func (es EarthShape) String() string { return shapes[es].name }

// EquatorialRadius returns the equatorial radius of the shape in km.
func (es EarthShape) EquatorialRadius() float64 { return shapes[es].equatorialRadius }

// InverseFlattening returns 1/f, or 0 for a sphere.
func (es EarthShape) InverseFlattening() float64 { return shapes[es].inverseFlattening }

// flatteningFactor returns (1-f)^2, the ratio used by both latitude and
// radius conversions. It is 1 for a sphere.
func (es EarthShape) flatteningFactor() float64 {
	p := shapes[es]
	if p.inverseFlattening == 0 {
		return 1
	}
	f := 1 / p.inverseFlattening
	return (1 - f) * (1 - f)
}

// Radius returns the radius in km of the shape's surface along unit vector v.
func (es EarthShape) Radius(v Point) float64 {
	p := shapes[es]
	if p.rconst {
		return constantRadius
	}
	// r = a / sqrt(1 + (a²/b² - 1) sin²(geocentric lat)), with sin = v.Z.
	k := 1/es.flatteningFactor() - 1
	return p.equatorialRadius / math.Sqrt(1+k*v.Z*v.Z)
}

// DepthToRadius converts a depth below the shape's surface along v to a
// geocentric radius, both in km.
func (es EarthShape) DepthToRadius(v Point, depth float64) float64 {
	return es.Radius(v) - depth
}

// RadiusToDepth converts a geocentric radius along v to a depth below the
// shape's surface, both in km.
func (es EarthShape) RadiusToDepth(v Point, radius float64) float64 {
	return es.Radius(v) - radius
}

// GeographicToGeocentric converts a geographic (ellipsoidal) latitude to a
// geocentric one, both in radians.
func (es EarthShape) GeographicToGeocentric(lat float64) float64 {
	// Leave the poles alone; tan is unbounded there.
	if math.Abs(lat) >= math.Pi/2-1e-12 {
		return lat
	}
	return math.Atan(math.Tan(lat) * es.flatteningFactor())
}

// GeocentricToGeographic converts a geocentric latitude to a geographic
// (ellipsoidal) one, both in radians.
func (es EarthShape) GeocentricToGeographic(lat float64) float64 {
	if math.Abs(lat) >= math.Pi/2-1e-12 {
		return lat
	}
	return math.Atan(math.Tan(lat) / es.flatteningFactor())
}

// VectorFromLatLonDeg returns the unit vector of the given geographic
// latitude and longitude in degrees.
func (es EarthShape) VectorFromLatLonDeg(latDeg, lonDeg float64) Point {
	gc := es.GeographicToGeocentric(latDeg * math.Pi / 180)
	return PointFromLatLng(gc*180/math.Pi, lonDeg)
}

// LatLonDeg returns the geographic latitude and longitude of v in degrees.
func (es EarthShape) LatLonDeg(v Point) (latDeg, lonDeg float64) {
	gcLat, lon := v.LatLng()
	return es.GeocentricToGeographic(gcLat*math.Pi/180) * 180 / math.Pi, lon
}
