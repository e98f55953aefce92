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
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"
	"github.com/fogleman/delaunay"
)

// barycentricTolerance allows points on a triangle edge to be
// matched despite rounding.
const barycentricTolerance = 1.e-10

// Triangulation is a Delaunay triangulation of the mesh cell centers.
// It depends only on the mesh and can be reused for any number of
// Interpolants.
type Triangulation struct {
	Points []geom.Point

	triangles []*triangle
	index     *rtree.Rtree
}

// triangle is an rtree item holding one Delaunay triangle and the
// indices of its vertices.
type triangle struct {
	geom.Polygon
	v [3]int
}

// Triangulate computes the Delaunay triangulation of centers.
func Triangulate(centers []geom.Point) (*Triangulation, error) {
	pts := make([]delaunay.Point, len(centers))
	for i, c := range centers {
		pts[i] = delaunay.Point{X: c.X, Y: c.Y}
	}
	d, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, fmt.Errorf("subgrid: triangulating cell centers: %v", err)
	}
	tr := &Triangulation{
		Points:    centers,
		triangles: make([]*triangle, len(d.Triangles)/3),
		index:     rtree.NewTree(25, 50),
	}
	for i := range tr.triangles {
		v := [3]int{d.Triangles[3*i], d.Triangles[3*i+1], d.Triangles[3*i+2]}
		t := &triangle{
			Polygon: geom.Polygon{{centers[v[0]], centers[v[1]], centers[v[2]]}},
			v:       v,
		}
		tr.triangles[i] = t
		tr.index.Insert(t)
	}
	return tr, nil
}

// locate returns the triangle containing p and the barycentric
// weights of its vertices, or nil if p is outside the hull.
func (tr *Triangulation) locate(p geom.Point) (*triangle, [3]float64) {
	for _, s := range tr.index.SearchIntersect(p.Bounds()) {
		t := s.(*triangle)
		a, b, c := tr.Points[t.v[0]], tr.Points[t.v[1]], tr.Points[t.v[2]]
		det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if det == 0 {
			continue
		}
		l0 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / det
		l1 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / det
		l2 := 1 - l0 - l1
		if l0 >= -barycentricTolerance && l1 >= -barycentricTolerance && l2 >= -barycentricTolerance {
			return t, [3]float64{l0, l1, l2}
		}
	}
	return nil, [3]float64{}
}

// Interpolant is a piecewise linear function over a Triangulation.
type Interpolant struct {
	tr     *Triangulation
	values []float64
	fill   float64
}

// Interpolant returns a linear interpolant of values, one per point of tr.
// Locations outside the convex hull of the points evaluate to fill.
func (tr *Triangulation) Interpolant(values []float64, fill float64) (*Interpolant, error) {
	if len(values) != len(tr.Points) {
		return nil, fmt.Errorf("subgrid: %d values for %d interpolation points: %v",
			len(values), len(tr.Points), ErrShape)
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Interpolant{tr: tr, values: v, fill: fill}, nil
}

// At returns the interpolated value at (x, y).
func (in *Interpolant) At(x, y float64) float64 {
	t, w := in.tr.locate(geom.Point{X: x, Y: y})
	if t == nil {
		return in.fill
	}
	return w[0]*in.values[t.v[0]] + w[1]*in.values[t.v[1]] + w[2]*in.values[t.v[2]]
}

// Interpolated holds mesh fields interpolated onto a terrain window.
// All slices are row-major over Window.
type Interpolated struct {
	Window Window

	S1, Vol1, DEM []float64

	// WaterDepth is the interpolated water depth, masked where the terrain
	// is at or above the interpolated water level or is itself masked.
	// Its transform places it at the window origin.
	WaterDepth *Band
}

// ComputeInterpolated interpolates the level, volume and depth of ts
// onto the pixel corners of window w of terrain t. A nil w selects the
// whole raster. Locations outside the hull of the cell centers take
// the value fill.
func ComputeInterpolated(tr *Triangulation, t *Terrain, ts *Timestep, w *Window, fill float64) (*Interpolated, error) {
	if !t.Transform.AxisAligned() {
		return nil, ErrRotated
	}
	if err := ts.check(len(tr.Points)); err != nil {
		return nil, err
	}
	win := Window{RowStop: t.Height(), ColStop: t.Width()}
	if w != nil {
		win = Window{
			RowStart: clip(w.RowStart, 0, t.Height()), RowStop: clip(w.RowStop, 0, t.Height()),
			ColStart: clip(w.ColStart, 0, t.Width()), ColStop: clip(w.ColStop, 0, t.Width()),
		}
	}
	depth := ts.WaterDepth
	if depth == nil {
		depth = make([]float64, len(ts.Vol1))
	}
	var fields [3]*Interpolant
	for i, v := range [][]float64{ts.S1, ts.Vol1, depth} {
		in, err := tr.Interpolant(v, fill)
		if err != nil {
			return nil, err
		}
		fields[i] = in
	}

	a := t.Transform
	o := &Interpolated{
		Window: win,
		S1:     make([]float64, 0, win.Size()),
		Vol1:   make([]float64, 0, win.Size()),
		DEM:    t.Window(win),
		WaterDepth: &Band{
			Data: sparse.ZerosDense(win.Rows(), win.Cols()),
			Mask: make([]bool, win.Size()),
			Transform: Affine{
				A: a.A, C: a.C + a.A*float64(win.ColStart),
				E: a.E, F: a.F + a.E*float64(win.RowStart),
			},
		},
	}
	i := 0
	for r := win.RowStart; r < win.RowStop; r++ {
		y := a.F + a.E*float64(r)
		for c := win.ColStart; c < win.ColStop; c++ {
			x := a.C + a.A*float64(c)
			s1 := fields[0].At(x, y)
			o.S1 = append(o.S1, s1)
			o.Vol1 = append(o.Vol1, fields[1].At(x, y))
			o.WaterDepth.Data.Elements[i] = fields[2].At(x, y)
			o.WaterDepth.Mask[i] = !t.Valid(r, c) || o.DEM[i] >= s1
			i++
		}
	}
	return o, nil
}
