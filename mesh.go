/*
Copyright © 2026 the subgrid authors.
This file is part of subgrid.

subgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

subgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with subgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package subgrid

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// Mesh is an unstructured computational grid. The index of a face
// in Faces is its cell index, which is stable across timesteps.
type Mesh struct {
	// Faces holds the polygon vertices of each cell in world coordinates.
	Faces [][]geom.Point

	// Centers holds the center of each cell. If Centers is nil,
	// the mean of the face vertices is used.
	Centers []geom.Point
}

// Len returns the number of cells in the mesh.
func (m *Mesh) Len() int { return len(m.Faces) }

// Center returns the center of cell i.
func (m *Mesh) Center(i int) geom.Point {
	if m.Centers != nil {
		return m.Centers[i]
	}
	return vertexMean(m.Faces[i])
}

func vertexMean(face []geom.Point) geom.Point {
	var p geom.Point
	if len(face) == 0 {
		return p
	}
	for _, v := range face {
		p.X += v.X
		p.Y += v.Y
	}
	p.X /= float64(len(face))
	p.Y /= float64(len(face))
	return p
}

// Extent is the world-coordinate bounding box of a face.
type Extent struct {
	Left, Right, Lower, Upper float64
}

// FaceExtent returns the bounding box of cell i.
func (m *Mesh) FaceExtent(i int) Extent {
	b := geom.NewBounds()
	for _, p := range m.Faces[i] {
		b.Extend(p.Bounds())
	}
	return Extent{Left: b.Min.X, Right: b.Max.X, Lower: b.Min.Y, Upper: b.Max.Y}
}

// CenterPoints returns the centers of all cells.
func (m *Mesh) CenterPoints() []geom.Point {
	o := make([]geom.Point, m.Len())
	for i := range o {
		o[i] = m.Center(i)
	}
	return o
}

// ReadMeshShapefile reads a mesh from a polygon shapefile, one
// record per cell in file order. Only the outer ring of each
// polygon is used and the closing vertex is dropped. If sr is not nil,
// the faces are converted from the spatial reference in the shapefile's
// .prj file to sr.
func ReadMeshShapefile(filename string, sr *proj.SR) (*Mesh, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("subgrid: opening mesh shapefile: %v", err)
	}
	defer d.Close()

	var ct proj.Transformer
	if sr != nil {
		meshSR, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("subgrid: reading mesh spatial reference: %v", err)
		}
		if ct, err = meshSR.NewTransform(sr); err != nil {
			return nil, fmt.Errorf("subgrid: mesh spatial reference: %v", err)
		}
	}

	m := new(Mesh)
	for {
		var rec struct {
			geom.Polygon
		}
		if !d.DecodeRow(&rec) {
			break
		}
		if len(rec.Polygon) == 0 {
			return nil, fmt.Errorf("subgrid: mesh shapefile record %d has no rings", m.Len())
		}
		if ct != nil {
			g, err := rec.Polygon.Transform(ct)
			if err != nil {
				return nil, fmt.Errorf("subgrid: reprojecting mesh record %d: %v", m.Len(), err)
			}
			rec.Polygon = g.(geom.Polygon)
		}
		ring := rec.Polygon[0]
		for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		m.Faces = append(m.Faces, ring)
	}
	if err = d.Error(); err != nil {
		return nil, fmt.Errorf("subgrid: reading mesh shapefile: %v", err)
	}
	return m, nil
}

// WriteShapefile writes the faces of m to a polygon shapefile
// in the format read by ReadMeshShapefile.
func (m *Mesh) WriteShapefile(filename string) error {
	type rec struct {
		geom.Polygon
		Cell int
	}
	e, err := shp.NewEncoder(filename, rec{})
	if err != nil {
		return fmt.Errorf("subgrid: creating mesh shapefile: %v", err)
	}
	defer e.Close()
	for i, face := range m.Faces {
		ring := make([]geom.Point, len(face), len(face)+1)
		copy(ring, face)
		if len(face) > 0 {
			ring = append(ring, face[0])
		}
		if err := e.Encode(rec{Polygon: geom.Polygon{ring}, Cell: i}); err != nil {
			return fmt.Errorf("subgrid: writing mesh shapefile: %v", err)
		}
	}
	return nil
}
