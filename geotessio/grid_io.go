// Package geotessio loads and saves geotess grids and models: a compact
// binary grid format, a YAML model description for small and synthetic
// models, and per-attribute CSV import/export of profile data.
//
// All of the file parsing lives here; the geotess core only ever sees
// populated topology arrays and profiles.
package geotessio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sandialabs/geotess/geotess"
	"github.com/sandialabs/geotess/r3"
)

var gridMagic = [6]byte{'G', 'T', 'G', 'R', 'I', 'D'}

const gridFormatVersion = 1

// WriteGrid writes g in the binary grid format: magic, version, grid ID,
// then the vertex, triangle, level and tessellation arrays, all
// little-endian. Neighbor adjacency is not stored; it is recomputed from
// shared edges on load.
func WriteGrid(w io.Writer, g *geotess.Grid) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(gridMagic[:]); err != nil {
		return fmt.Errorf("geotessio: write grid header: %w", err)
	}
	if err := writeAll(bw,
		uint16(gridFormatVersion),
		uint16(len(g.ID())),
	); err != nil {
		return err
	}
	if _, err := bw.WriteString(g.ID()); err != nil {
		return fmt.Errorf("geotessio: write grid id: %w", err)
	}
	if err := writeAll(bw,
		uint32(g.NVertices()),
		uint32(g.NTriangles()),
		uint32(g.NLevels()),
		uint32(g.NTessellations()),
	); err != nil {
		return err
	}
	for i := 0; i < g.NVertices(); i++ {
		v := g.Vertex(i)
		if err := writeAll(bw, v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	for t := 0; t < g.NTriangles(); t++ {
		tri := g.Triangle(t)
		if err := writeAll(bw, tri[0], tri[1], tri[2]); err != nil {
			return err
		}
	}
	for l := 0; l < g.NLevels(); l++ {
		first, last := g.Level(l)
		if err := writeAll(bw, int32(first), int32(last)); err != nil {
			return err
		}
	}
	for te := 0; te < g.NTessellations(); te++ {
		first, last := g.Tessellation(te)
		if err := writeAll(bw, int32(first), int32(last)); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("geotessio: flush grid: %w", err)
	}
	return nil
}

// ReadGrid reads a grid written by WriteGrid.
func ReadGrid(r io.Reader) (*geotess.Grid, error) {
	br := bufio.NewReader(r)
	var magic [6]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("geotessio: read grid header: %w", err)
	}
	if magic != gridMagic {
		return nil, fmt.Errorf("geotessio: not a grid file (magic %q)", magic[:])
	}
	var version, idLen uint16
	if err := readAll(br, &version, &idLen); err != nil {
		return nil, err
	}
	if version != gridFormatVersion {
		return nil, fmt.Errorf("geotessio: unsupported grid format version %d", version)
	}
	idBytes := make([]byte, idLen)
	if _, err := io.ReadFull(br, idBytes); err != nil {
		return nil, fmt.Errorf("geotessio: read grid id: %w", err)
	}
	var nVert, nTri, nLevel, nTess uint32
	if err := readAll(br, &nVert, &nTri, &nLevel, &nTess); err != nil {
		return nil, err
	}

	vertices := make([]geotess.Point, nVert)
	for i := range vertices {
		var v r3.Vector
		if err := readAll(br, &v.X, &v.Y, &v.Z); err != nil {
			return nil, err
		}
		vertices[i] = geotess.Point{Vector: v}
	}
	triangles := make([][3]int32, nTri)
	for i := range triangles {
		if err := readAll(br, &triangles[i][0], &triangles[i][1], &triangles[i][2]); err != nil {
			return nil, err
		}
	}
	levels := make([][2]int32, nLevel)
	for i := range levels {
		if err := readAll(br, &levels[i][0], &levels[i][1]); err != nil {
			return nil, err
		}
	}
	tessellations := make([][2]int32, nTess)
	for i := range tessellations {
		if err := readAll(br, &tessellations[i][0], &tessellations[i][1]); err != nil {
			return nil, err
		}
	}
	return geotess.NewGrid(string(idBytes), vertices, triangles, levels, tessellations)
}

// ReadGridFile reads the grid stored at path, consulting reg first so that
// models referencing the same grid file share one in-memory copy. The
// registry key is the grid's content ID, read from the file header before
// parsing the arrays. reg may be nil.
func ReadGridFile(path string, reg *geotess.GridRegistry) (*geotess.Grid, error) {
	start := time.Now()
	load := func() (*geotess.Grid, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("geotessio: %w", err)
		}
		defer f.Close()
		return ReadGrid(f)
	}
	if reg == nil {
		return load()
	}
	id, err := peekGridID(path)
	if err != nil {
		return nil, err
	}
	if g := reg.Get(id); g != nil {
		slog.Debug("grid reused from registry", "path", path, "gridID", id)
		return g, nil
	}
	g, err := reg.GetOrAdd(id, load)
	if err != nil {
		return nil, err
	}
	slog.Info("grid loaded", "path", path, "gridID", g.ID(),
		"vertices", g.NVertices(), "triangles", g.NTriangles(),
		"elapsed", time.Since(start))
	return g, nil
}

// peekGridID reads only the header of a grid file and returns its content
// ID.
func peekGridID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("geotessio: %w", err)
	}
	defer f.Close()
	var magic [6]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return "", fmt.Errorf("geotessio: read grid header: %w", err)
	}
	if magic != gridMagic {
		return "", fmt.Errorf("geotessio: %s is not a grid file", path)
	}
	var version, idLen uint16
	if err := readAll(f, &version, &idLen); err != nil {
		return "", err
	}
	idBytes := make([]byte, idLen)
	if _, err := io.ReadFull(f, idBytes); err != nil {
		return "", fmt.Errorf("geotessio: read grid id: %w", err)
	}
	return string(idBytes), nil
}

func writeAll(w io.Writer, values ...any) error {
	for _, v := range values {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("geotessio: write grid: %w", err)
		}
	}
	return nil
}

func readAll(r io.Reader, values ...any) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("geotessio: read grid: %w", err)
		}
	}
	return nil
}
