/*
Package geotess represents multi-layered 3D Earth models and interpolates
attribute values (velocity, density, ...) at arbitrary points inside them.

A model combines a Grid, a multi-level triangular tessellation of the unit
sphere, with a Profile per (vertex, layer) pair carrying radial attribute
samples. Interpolation is performed through a Position object: horizontal
weights come from either linear (barycentric) or natural-neighbor (Sibson)
interpolation over the tessellation, radial weights from linear or natural
cubic-spline interpolation over the profile radii.

A Model and its Grid are immutable once loaded and may be shared freely
across goroutines. A Position is a mutable query context and must not be
shared; the intended pattern is one Model, many goroutines, each owning its
own Position:

	pos, err := model.NewPosition(geotess.HorizontalNaturalNeighbor, geotess.RadialLinear)
	if err != nil {
		...
	}
	if err := pos.Set(30, -110, 25); err != nil {
		...
	}
	v, err := pos.Value(0)
*/
package geotess
