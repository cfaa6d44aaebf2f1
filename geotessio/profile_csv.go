package geotessio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gocarina/gocsv"

	"github.com/sandialabs/geotess/geotess"
)

// NodeRow is one CSV record of per-attribute profile data: the value of a
// single attribute at one (vertex, layer, node). Import and export work one
// attribute at a time so the same flat schema serves models of any
// attribute width.
type NodeRow struct {
	Vertex int     `csv:"vertex"`
	Layer  int     `csv:"layer"`
	Node   int     `csv:"node"`
	Radius float64 `csv:"radius"`
	Value  float64 `csv:"value"`
}

// ImportAttributeCSV reads NodeRow records and stores each value into
// attribute attr of the addressed node. The model's profiles must already
// exist with the right shapes (e.g. from a YAML fill); the radius column is
// checked against the stored profile, not used to build it.
func ImportAttributeCSV(m *geotess.Model, attr int, r io.Reader) error {
	if attr < 0 || attr >= m.NAttributes() {
		return fmt.Errorf("geotessio: attribute %d out of range [0,%d)", attr, m.NAttributes())
	}
	var rows []NodeRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return fmt.Errorf("geotessio: parse profile csv: %w", err)
	}
	for i, row := range rows {
		if row.Vertex < 0 || row.Vertex >= m.NVertices() || row.Layer < 0 || row.Layer >= m.NLayers() {
			return fmt.Errorf("geotessio: csv row %d addresses vertex %d layer %d outside model",
				i, row.Vertex, row.Layer)
		}
		p := m.Profile(row.Vertex, row.Layer)
		if p == nil || row.Node < 0 || row.Node >= p.NData() {
			return fmt.Errorf("geotessio: csv row %d addresses node %d missing from vertex %d layer %d",
				i, row.Node, row.Vertex, row.Layer)
		}
		if p.NRadii() > row.Node {
			if got := p.Radius(row.Node); got != 0 && absDiff(got, row.Radius) > 0.01 {
				return fmt.Errorf("geotessio: csv row %d radius %f does not match profile radius %f",
					i, row.Radius, got)
			}
		}
		p.Data(row.Node).SetDouble(attr, row.Value)
	}
	slog.Debug("profile csv imported", "attribute", attr, "rows", len(rows))
	return nil
}

// ExportAttributeCSV writes one NodeRow per active point of the model's
// point map, carrying attribute attr.
func ExportAttributeCSV(m *geotess.Model, attr int, w io.Writer) error {
	if attr < 0 || attr >= m.NAttributes() {
		return fmt.Errorf("geotessio: attribute %d out of range [0,%d)", attr, m.NAttributes())
	}
	pm := m.PointMap()
	rows := make([]NodeRow, 0, pm.NPoints())
	for p := 0; p < pm.NPoints(); p++ {
		rows = append(rows, NodeRow{
			Vertex: pm.VertexIndex(p),
			Layer:  pm.LayerIndex(p),
			Node:   pm.NodeIndex(p),
			Radius: pm.PointRadius(p),
			Value:  pm.PointValue(p, attr),
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("geotessio: write profile csv: %w", err)
	}
	return nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
