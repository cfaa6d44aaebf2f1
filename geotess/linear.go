package geotess

// linearInterpolator computes spherical barycentric coefficients over the
// corners of the containing triangle: each corner's coefficient is the area
// of the sub-triangle formed by the query point and the two opposite
// corners, normalized by the containing triangle's area. Coefficients sum
// to 1 and are each in [0,1] for a point inside the triangle.
//
// It keeps no state between calls.
type linearInterpolator struct {
	grid *Grid
}

func (li *linearInterpolator) interpolate(q Point, level, t int, s *tessState) error {
	a, b, c := li.grid.TriangleVertices(t)
	wa := TriangleArea(q, b, c)
	wb := TriangleArea(a, q, c)
	wc := TriangleArea(a, b, q)
	total := wa + wb + wc
	if total <= 0 {
		return &GeometryError{
			Op:     "linear interpolate",
			Detail: "containing triangle has zero area",
		}
	}

	tri := li.grid.Triangle(t)
	s.vertices = append(s.vertices[:0], int(tri[0]), int(tri[1]), int(tri[2]))
	s.coeffs = append(s.coeffs[:0], wa/total, wb/total, wc/total)
	return nil
}
