package geotess

import (
	"errors"
	"fmt"
)

// GeometryError reports an internal geometric inconsistency: a triangle walk
// that failed to converge or a natural-neighbor boundary polygon that failed
// to close. It indicates a corrupt grid (or a bug), never bad caller input,
// and retrying the identical query cannot succeed.
type GeometryError struct {
	Op     string
	Detail string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geotess: %s: %s", e.Op, e.Detail)
}

var (
	// ErrEmptyProfile is returned when radial data is requested from an
	// EMPTY or SURFACE_EMPTY profile.
	ErrEmptyProfile = errors.New("geotess: profile has no data")

	// ErrLayerOutOfRange is returned when a query names a layer index the
	// model does not have.
	ErrLayerOutOfRange = errors.New("geotess: layer index out of range")

	// ErrNotPositioned is returned by query methods called before any
	// successful Set call.
	ErrNotPositioned = errors.New("geotess: position has not been set")

	// ErrModelDimension is returned when a 3D operation is invoked on a 2D
	// (surface-only) model or a 2D operation on a 3D model.
	ErrModelDimension = errors.New("geotess: operation does not match model dimensionality")
)
