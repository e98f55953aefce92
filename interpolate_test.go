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
	"testing"

	"github.com/ctessum/geom"
)

// hullPoints surround testTerrain, with one point inside.
var hullPoints = []geom.Point{
	{X: -1, Y: -1}, {X: 5, Y: -0.5}, {X: 5.5, Y: 5}, {X: -0.5, Y: 5.5}, {X: 2.1, Y: 1.9},
}

func linear(p geom.Point) float64 { return 1 + p.X + 2*p.Y }

func TestTriangulate(t *testing.T) {
	tr, err := Triangulate(hullPoints)
	if err != nil {
		t.Fatal(err)
	}
	// 2n - 2 - h triangles for n points with h on the hull.
	if len(tr.triangles) != 4 {
		t.Errorf("have %d triangles, want 4", len(tr.triangles))
	}
	for i, p := range hullPoints {
		tri, w := tr.locate(p)
		if tri == nil {
			t.Errorf("vertex %d is not in any triangle", i)
			continue
		}
		found := false
		for k, j := range tri.v {
			if j == i && !different(w[k], 1, 1.e-8) {
				found = true
			}
		}
		if !found {
			t.Errorf("vertex %d: triangle %v with weights %v", i, tri.v, w)
		}
	}
	if tri, _ := tr.locate(geom.Point{X: 10, Y: 10}); tri != nil {
		t.Errorf("a point outside the hull was located in triangle %v", tri.v)
	}
}

func TestInterpolant(t *testing.T) {
	tr, err := Triangulate(hullPoints)
	if err != nil {
		t.Fatal(err)
	}
	values := make([]float64, len(hullPoints))
	for i, p := range hullPoints {
		values[i] = linear(p)
	}
	in, err := tr.Interpolant(values, -1)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range hullPoints {
		if v := in.At(p.X, p.Y); different(v, values[i], 1.e-8) {
			t.Errorf("vertex %d: have %g, want %g", i, v, values[i])
		}
	}
	for _, p := range []geom.Point{{X: 0, Y: 0}, {X: 1.5, Y: 3.5}, {X: 4, Y: 1}, {X: 2.1, Y: 4}} {
		if v := in.At(p.X, p.Y); different(v, linear(p), 1.e-8) {
			t.Errorf("%v: have %g, want %g", p, v, linear(p))
		}
	}
	if v := in.At(10, 10); v != -1 {
		t.Errorf("outside the hull: have %g, want the fill value -1", v)
	}
	if _, err = tr.Interpolant(values[:2], 0); err == nil {
		t.Error("too few values should fail")
	}
}

func TestComputeInterpolated(t *testing.T) {
	terrain := testTerrain(t, testElevation)
	tr, err := Triangulate(hullPoints)
	if err != nil {
		t.Fatal(err)
	}
	n := len(hullPoints)
	ts := &Timestep{Vol1: make([]float64, n), S1: make([]float64, n), WaterDepth: make([]float64, n)}
	for i := range hullPoints {
		ts.Vol1[i] = 10
		ts.S1[i] = 3.5
		ts.WaterDepth[i] = 2
	}

	o, err := ComputeInterpolated(tr, terrain, ts, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.Window != (Window{RowStop: 4, ColStop: 4}) {
		t.Errorf("window: %v", o.Window)
	}
	if len(o.S1) != 16 || len(o.Vol1) != 16 || len(o.DEM) != 16 {
		t.Fatalf("fields have lengths %d, %d and %d, want 16", len(o.S1), len(o.Vol1), len(o.DEM))
	}
	for i, z := range testElevation {
		if different(o.S1[i], 3.5, 1.e-8) || different(o.Vol1[i], 10, 1.e-8) {
			t.Errorf("pixel %d: s1 = %g, vol1 = %g", i, o.S1[i], o.Vol1[i])
		}
		if o.DEM[i] != z {
			t.Errorf("pixel %d: dem = %g, want %g", i, o.DEM[i], z)
		}
		if masked := o.WaterDepth.Mask[i]; masked != (z >= 3.5) {
			t.Errorf("pixel %d with elevation %g: masked = %v", i, z, masked)
		}
		if !o.WaterDepth.Mask[i] && different(o.WaterDepth.Data.Elements[i], 2, 1.e-8) {
			t.Errorf("pixel %d: depth = %g, want 2", i, o.WaterDepth.Data.Elements[i])
		}
	}
	if o.WaterDepth.Transform != terrain.Transform {
		t.Errorf("transform: have %+v, want %+v", o.WaterDepth.Transform, terrain.Transform)
	}
}

func TestComputeInterpolatedWindow(t *testing.T) {
	terrain := testTerrain(t, testElevation)
	tr, err := Triangulate(hullPoints)
	if err != nil {
		t.Fatal(err)
	}
	n := len(hullPoints)
	ts := &Timestep{Vol1: make([]float64, n), S1: make([]float64, n)}
	for i, p := range hullPoints {
		ts.S1[i] = linear(p)
	}
	w := &Window{RowStart: 2, RowStop: 4, ColStart: 0, ColStop: 2}
	o, err := ComputeInterpolated(tr, terrain, ts, w, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.WaterDepth.Data.Shape[0] != 2 || o.WaterDepth.Data.Shape[1] != 2 {
		t.Fatalf("shape: %v", o.WaterDepth.Data.Shape)
	}
	if want := (Affine{A: 1, C: 0, E: -1, F: 2}); o.WaterDepth.Transform != want {
		t.Errorf("transform: have %+v, want %+v", o.WaterDepth.Transform, want)
	}
	// Pixel (row 2, col 0) has its corner at world (0, 2).
	if want := linear(geom.Point{X: 0, Y: 2}); different(o.S1[0], want, 1.e-8) {
		t.Errorf("s1: have %g, want %g", o.S1[0], want)
	}
	for i, d := range o.WaterDepth.Data.Elements {
		if d != 0 {
			t.Errorf("pixel %d: a missing water depth should interpolate to 0 but is %g", i, d)
		}
	}
}

func TestComputeInterpolatedRotated(t *testing.T) {
	terrain := testTerrain(t, testElevation)
	terrain.Transform.B = 0.1
	tr, err := Triangulate(hullPoints)
	if err != nil {
		t.Fatal(err)
	}
	n := len(hullPoints)
	ts := &Timestep{Vol1: make([]float64, n), S1: make([]float64, n)}
	if _, err = ComputeInterpolated(tr, terrain, ts, nil, 0); err != ErrRotated {
		t.Errorf("have error %v, want %v", err, ErrRotated)
	}
}
