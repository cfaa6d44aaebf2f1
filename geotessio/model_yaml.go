package geotessio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandialabs/geotess/geotess"
)

// ModelSpec is the YAML description of a model: its grid file, layer and
// attribute catalogues, and optional uniform profile fill rules. It is the
// file-shaped way to stand up small and synthetic models; large models
// carry their profile data in CSV files imported separately.
type ModelSpec struct {
	Description string `yaml:"description"`
	EarthShape  string `yaml:"earth_shape"`
	DataType    string `yaml:"data_type"`

	// GridFile is resolved relative to the YAML file's directory.
	GridFile string `yaml:"grid"`

	RadialInterpolation string `yaml:"radial_interpolation"`

	Attributes []AttributeSpec `yaml:"attributes"`
	Layers     []LayerSpec     `yaml:"layers"`

	// Fill gives one uniform profile rule per layer, applied at every
	// vertex. Layers without a rule are left empty and must be populated
	// by the caller.
	Fill []FillSpec `yaml:"fill"`
}

type AttributeSpec struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

type LayerSpec struct {
	Name         string `yaml:"name"`
	Tessellation int    `yaml:"tessellation"`
}

// FillSpec populates every vertex of one layer with the same profile shape.
type FillSpec struct {
	Layer string `yaml:"layer"`
	Kind  string `yaml:"kind"` // EMPTY, THIN, CONSTANT, NPOINT, SURFACE, SURFACE_EMPTY

	// Radii: EMPTY and CONSTANT take [bottom, top], THIN takes [radius],
	// NPOINT takes the full knot list. Ignored for surface kinds.
	Radii []float64 `yaml:"radii"`

	// Values[node][attribute]; one row for THIN/CONSTANT/SURFACE, one per
	// knot for NPOINT.
	Values [][]float64 `yaml:"values"`
}

// ReadModelYAML reads a ModelSpec from path, loads its grid through reg
// (which may be nil) and returns the populated model.
func ReadModelYAML(path string, reg *geotess.GridRegistry) (*geotess.Model, error) {
	start := time.Now()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geotessio: %w", err)
	}
	var spec ModelSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("geotessio: parse %s: %w", path, err)
	}
	grid, err := ReadGridFile(filepath.Join(filepath.Dir(path), spec.GridFile), reg)
	if err != nil {
		return nil, err
	}
	m, err := spec.Build(grid)
	if err != nil {
		return nil, fmt.Errorf("geotessio: %s: %w", path, err)
	}
	slog.Info("model loaded", "path", path,
		"layers", m.NLayers(), "attributes", m.NAttributes(),
		"vertices", m.NVertices(), "elapsed", time.Since(start))
	return m, nil
}

// Build constructs a model over the given grid from the spec, applying its
// fill rules.
func (spec *ModelSpec) Build(grid *geotess.Grid) (*geotess.Model, error) {
	shape, err := geotess.ParseEarthShape(defaultString(spec.EarthShape, "SPHERE"))
	if err != nil {
		return nil, err
	}
	dtype, err := geotess.ParseDataType(defaultString(spec.DataType, "DOUBLE"))
	if err != nil {
		return nil, err
	}
	radial := geotess.RadialLinear
	if strings.EqualFold(strings.TrimSpace(spec.RadialInterpolation), "CUBIC_SPLINE") {
		radial = geotess.RadialCubicSpline
	}

	meta := geotess.ModelMetadata{
		Description:         spec.Description,
		DataType:            dtype,
		Shape:               shape,
		RadialInterpolation: radial,
	}
	for _, a := range spec.Attributes {
		meta.AttributeNames = append(meta.AttributeNames, a.Name)
		meta.AttributeUnits = append(meta.AttributeUnits, a.Unit)
	}
	for _, l := range spec.Layers {
		meta.LayerNames = append(meta.LayerNames, l.Name)
		meta.LayerTessIDs = append(meta.LayerTessIDs, l.Tessellation)
	}
	m, err := geotess.NewModel(grid, meta)
	if err != nil {
		return nil, err
	}
	for _, fill := range spec.Fill {
		if err := applyFill(m, &fill); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func applyFill(m *geotess.Model, fill *FillSpec) error {
	layer := m.Metadata().LayerIndex(fill.Layer)
	if layer < 0 {
		return fmt.Errorf("fill references unknown layer %q", fill.Layer)
	}
	kind := strings.ToUpper(strings.TrimSpace(fill.Kind))
	dtype := m.Metadata().DataType

	newData := func(row []float64) (*geotess.Data, error) {
		if len(row) != m.NAttributes() {
			return nil, fmt.Errorf("fill for layer %q has %d values per node, model has %d attributes",
				fill.Layer, len(row), m.NAttributes())
		}
		d := geotess.NewData(dtype, len(row))
		for i, v := range row {
			d.SetDouble(i, v)
		}
		return d, nil
	}

	for v := 0; v < m.NVertices(); v++ {
		var p *geotess.Profile
		var err error
		switch kind {
		case "EMPTY":
			if len(fill.Radii) != 2 {
				return fmt.Errorf("EMPTY fill for layer %q requires [bottom, top] radii", fill.Layer)
			}
			p, err = geotess.NewProfileEmpty(fill.Radii[0], fill.Radii[1])
		case "THIN":
			if len(fill.Radii) != 1 || len(fill.Values) != 1 {
				return fmt.Errorf("THIN fill for layer %q requires one radius and one value row", fill.Layer)
			}
			d, derr := newData(fill.Values[0])
			if derr != nil {
				return derr
			}
			p, err = geotess.NewProfileThin(fill.Radii[0], d)
		case "CONSTANT":
			if len(fill.Radii) != 2 || len(fill.Values) != 1 {
				return fmt.Errorf("CONSTANT fill for layer %q requires [bottom, top] radii and one value row", fill.Layer)
			}
			d, derr := newData(fill.Values[0])
			if derr != nil {
				return derr
			}
			p, err = geotess.NewProfileConstant(fill.Radii[0], fill.Radii[1], d)
		case "NPOINT":
			if len(fill.Radii) < 2 || len(fill.Values) != len(fill.Radii) {
				return fmt.Errorf("NPOINT fill for layer %q requires matching radii and value rows", fill.Layer)
			}
			data := make([]*geotess.Data, len(fill.Values))
			for i, row := range fill.Values {
				if data[i], err = newData(row); err != nil {
					return err
				}
			}
			p, err = geotess.NewProfileNPoint(append([]float64(nil), fill.Radii...), data)
		case "SURFACE":
			if len(fill.Values) != 1 {
				return fmt.Errorf("SURFACE fill for layer %q requires one value row", fill.Layer)
			}
			d, derr := newData(fill.Values[0])
			if derr != nil {
				return derr
			}
			p, err = geotess.NewProfileSurface(d)
		case "SURFACE_EMPTY":
			p = geotess.NewProfileSurfaceEmpty()
		default:
			return fmt.Errorf("fill for layer %q has unknown profile kind %q", fill.Layer, fill.Kind)
		}
		if err != nil {
			return err
		}
		if err := m.SetProfile(v, layer, p); err != nil {
			return err
		}
	}
	return nil
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
