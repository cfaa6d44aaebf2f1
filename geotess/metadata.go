package geotess

import "fmt"

// ModelMetadata describes everything about a model except its grid and
// profile data: the layer structure, the attribute catalogue, the scalar
// storage type and the earth shape used for geographic conversions.
type ModelMetadata struct {
	// Description is free text carried with the model.
	Description string

	// LayerNames names each layer, deepest first.
	LayerNames []string

	// LayerTessIDs maps each layer to the grid tessellation supporting it.
	// Must be the same length as LayerNames.
	LayerTessIDs []int

	// AttributeNames and AttributeUnits describe the attribute vector
	// stored at every node. They must be the same length.
	AttributeNames []string
	AttributeUnits []string

	// DataType is the scalar storage type shared by all Data vectors.
	DataType DataType

	// Shape converts between geographic and geocentric coordinates and
	// between depth and radius.
	Shape EarthShape

	// RadialInterpolation is the default radial interpolator kind for
	// positions created from this model.
	RadialInterpolation RadialKind
}

// validate checks internal consistency and consistency with the grid the
// metadata is being attached to.
func (m *ModelMetadata) validate(g *Grid) error {
	if len(m.LayerNames) == 0 {
		return fmt.Errorf("geotess: metadata defines no layers")
	}
	if len(m.LayerNames) != len(m.LayerTessIDs) {
		return fmt.Errorf("geotess: %d layer names but %d layer tessellation ids",
			len(m.LayerNames), len(m.LayerTessIDs))
	}
	for i, te := range m.LayerTessIDs {
		if te < 0 || te >= g.NTessellations() {
			return fmt.Errorf("geotess: layer %q references tessellation %d of %d",
				m.LayerNames[i], te, g.NTessellations())
		}
	}
	if len(m.AttributeNames) == 0 {
		return fmt.Errorf("geotess: metadata defines no attributes")
	}
	if len(m.AttributeUnits) != len(m.AttributeNames) {
		return fmt.Errorf("geotess: %d attribute names but %d units",
			len(m.AttributeNames), len(m.AttributeUnits))
	}
	return nil
}

// LayerIndex returns the index of the named layer, or -1.
func (m *ModelMetadata) LayerIndex(name string) int {
	for i, n := range m.LayerNames {
		if n == name {
			return i
		}
	}
	return -1
}

// AttributeIndex returns the index of the named attribute, or -1.
func (m *ModelMetadata) AttributeIndex(name string) int {
	for i, n := range m.AttributeNames {
		if n == name {
			return i
		}
	}
	return -1
}
