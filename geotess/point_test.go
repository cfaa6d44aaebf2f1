package geotess

import (
	"math"
	"testing"
)

func TestSideSign(t *testing.T) {
	a := PointFromCoords(1, 0, 0)
	b := PointFromCoords(0, 1, 0)
	up := PointFromCoords(0, 0, 1)
	down := PointFromCoords(0, 0, -1)

	if s := Side(a, b, up); s <= 0 {
		t.Errorf("Side(a,b,up) = %v, want > 0", s)
	}
	if s := Side(a, b, down); s >= 0 {
		t.Errorf("Side(a,b,down) = %v, want < 0", s)
	}
	onEdge := PointFromCoords(1, 1, 0)
	if s := Side(a, b, onEdge); math.Abs(s) > 1e-15 {
		t.Errorf("Side(a,b,onEdge) = %v, want 0", s)
	}
}

func TestTriangleAreaOctant(t *testing.T) {
	a := PointFromCoords(1, 0, 0)
	b := PointFromCoords(0, 1, 0)
	c := PointFromCoords(0, 0, 1)
	if got := TriangleArea(a, b, c); !almostEqual(got, math.Pi/2, 1e-12) {
		t.Errorf("octant area = %v, want %v", got, math.Pi/2)
	}
	// Area is orientation independent.
	if got := TriangleArea(c, b, a); !almostEqual(got, math.Pi/2, 1e-12) {
		t.Errorf("reversed octant area = %v, want %v", got, math.Pi/2)
	}
}

func TestTriangleAreaSmall(t *testing.T) {
	// A tiny triangle's spherical area approaches its planar area.
	const h = 1e-4
	a := PointFromCoords(1, 0, 0)
	b := PointFromCoords(1, h, 0)
	c := PointFromCoords(1, 0, h)
	planar := h * h / 2
	if got := TriangleArea(a, b, c); !almostEqual(got, planar, planar*1e-6) {
		t.Errorf("small area = %v, want ~%v", got, planar)
	}
}

func TestCircumcenterEquidistant(t *testing.T) {
	a := PointFromCoords(1, 0.2, -0.1)
	b := PointFromCoords(-0.3, 1, 0.2)
	c := PointFromCoords(0.1, 0.4, 1)
	cc := Circumcenter(a, b, c)
	da := cc.Angle(a.Vector)
	db := cc.Angle(b.Vector)
	dc := cc.Angle(c.Vector)
	if !almostEqual(da, db, 1e-12) || !almostEqual(da, dc, 1e-12) {
		t.Errorf("circumcenter distances differ: %v %v %v", da, db, dc)
	}
	// Same side of the sphere as the triangle.
	if cc.Dot(a.Vector) <= 0 {
		t.Errorf("circumcenter on far side of sphere")
	}
}

func TestPointFromLatLngRoundTrip(t *testing.T) {
	cases := []struct{ lat, lon float64 }{
		{0, 0}, {45, 90}, {-30, -110}, {89.9, 180}, {-89.9, 0},
	}
	for _, tc := range cases {
		p := PointFromLatLng(tc.lat, tc.lon)
		if !p.IsUnit() {
			t.Errorf("(%v,%v): not a unit vector", tc.lat, tc.lon)
		}
		lat, lon := p.LatLng()
		if !almostEqual(lat, tc.lat, 1e-9) {
			t.Errorf("(%v,%v): lat round trip %v", tc.lat, tc.lon, lat)
		}
		if !almostEqual(lon, tc.lon, 1e-9) && !almostEqual(math.Abs(lon), 180, 1e-9) {
			t.Errorf("(%v,%v): lon round trip %v", tc.lat, tc.lon, lon)
		}
	}
}
