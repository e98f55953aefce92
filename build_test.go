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
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

func TestBuildTables(t *testing.T) {
	tables := testTables(t, testTerrain(t, testElevation), 3)
	if len(tables) != 4 {
		t.Fatalf("have %d tables, want 4", len(tables))
	}
	if tables.Valid() != 4 {
		t.Errorf("have %d valid tables, want 4", tables.Valid())
	}
	want := &VolumeTable{
		Window:    Window{RowStart: 2, RowStop: 4, ColStart: 0, ColStop: 2},
		Extent:    Extent{Left: 0, Right: 2, Lower: 0, Upper: 2},
		BinEdges:  []float64{0, 1, 2, 3},
		NPerBin:   []int{1, 1, 2},
		Volume:    []float64{1, 2, 4},
		CumVolume: []float64{1, 3, 7},
	}
	if !reflect.DeepEqual(tables[0], want) {
		t.Errorf("cell 0: have %+v, want %+v", tables[0], want)
	}
	for i, tbl := range tables {
		vt := tbl.(*VolumeTable)
		if vt.Window.Size() != 4 {
			t.Errorf("cell %d: window %v has %d pixels, want 4", i, vt.Window, vt.Window.Size())
		}
		n := 0
		for _, c := range vt.NPerBin {
			n += c
		}
		if n != vt.Window.Size() {
			t.Errorf("cell %d: histogram holds %d pixels, want %d", i, n, vt.Window.Size())
		}
		for k := 1; k < len(vt.CumVolume); k++ {
			if vt.CumVolume[k] <= vt.CumVolume[k-1] {
				t.Errorf("cell %d: cumulative volume is not increasing: %v", i, vt.CumVolume)
				break
			}
		}
		if different(vt.Capacity(), floats.Sum(vt.Volume), testTolerance) {
			t.Errorf("cell %d: capacity %g != sum of volumes %g", i, vt.Capacity(), floats.Sum(vt.Volume))
		}
	}
}

func TestBuildTablesMasked(t *testing.T) {
	elev := append([]float64(nil), testElevation...)
	elev[13] = DefaultNoData // row 3, column 1: cell 0.
	tables := testTables(t, testTerrain(t, elev), 3)
	if _, ok := tables[0].(*MaskedTable); !ok {
		t.Fatalf("cell 0 should be masked but has %T", tables[0])
	}
	if w := tables[0].TerrainWindow(); w != (Window{RowStart: 2, RowStop: 4, ColStart: 0, ColStop: 2}) {
		t.Errorf("masked window: %v", w)
	}
	if !reflect.DeepEqual(tables.Excluded(), []int{0}) {
		t.Errorf("excluded: have %v, want [0]", tables.Excluded())
	}
	if tables.Valid() != 3 {
		t.Errorf("have %d valid tables, want 3", tables.Valid())
	}
}

func TestBuildTablesOutside(t *testing.T) {
	m := &Mesh{Faces: [][]geom.Point{square(10, 10, 12, 12)}}
	tables, err := BuildTables(m, testTerrain(t, testElevation), BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tables[0].(*MaskedTable); !ok {
		t.Errorf("a cell outside the raster should be masked but has %T", tables[0])
	}
}

func TestBuildTablesClipped(t *testing.T) {
	m := &Mesh{Faces: [][]geom.Point{square(-2, -2, 2, 2)}}
	tables, err := BuildTables(m, testTerrain(t, testElevation), BuildOptions{NBins: 3})
	if err != nil {
		t.Fatal(err)
	}
	vt, ok := tables[0].(*VolumeTable)
	if !ok {
		t.Fatalf("a face partly on the raster should have a volume table but has %T", tables[0])
	}
	if want := (Window{RowStart: 2, RowStop: 4, ColStart: 0, ColStop: 2}); vt.Window != want {
		t.Errorf("window: have %v, want %v", vt.Window, want)
	}
	if want := (Extent{Left: -2, Right: 2, Lower: -2, Upper: 2}); vt.Extent != want {
		t.Errorf("extent: have %+v, want %+v", vt.Extent, want)
	}
	if !reflect.DeepEqual(vt.CumVolume, []float64{1, 3, 7}) {
		t.Errorf("cumulative volume: have %v, want [1 3 7]", vt.CumVolume)
	}
}

func TestBuildTablesParallel(t *testing.T) {
	tr := testTerrain(t, testElevation)
	serial, err := BuildTables(testMesh(), tr, BuildOptions{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	var calls, last int
	parallel, err := BuildTables(testMesh(), tr, BuildOptions{
		Workers: 3,
		Progress: func(done, total int) {
			calls++
			last = done
			if total != 4 {
				t.Errorf("total: have %d, want 4", total)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel tables differ from serial tables")
	}
	if calls != 4 || last != 4 {
		t.Errorf("progress: %d calls ending at %d, want 4 ending at 4", calls, last)
	}
	if serial[0].(*VolumeTable).NBins() != DefaultNBins {
		t.Errorf("have %d bins, want %d", serial[0].(*VolumeTable).NBins(), DefaultNBins)
	}
}

func TestBuildTablesInvalid(t *testing.T) {
	tr := testTerrain(t, testElevation)
	if _, err := BuildTables(testMesh(), tr, BuildOptions{NBins: -1}); err == nil {
		t.Error("negative bin count should fail")
	}
	m := testMesh()
	m.Centers = m.CenterPoints()[:2]
	if _, err := BuildTables(m, tr, BuildOptions{}); err == nil {
		t.Error("mismatched centers should fail")
	}
}

func TestHistogramFlat(t *testing.T) {
	edges, counts := histogram([]float64{3, 3, 3}, 2)
	if !reflect.DeepEqual(edges, []float64{2.5, 3, 3.5}) {
		t.Errorf("edges: %v", edges)
	}
	if !reflect.DeepEqual(counts, []float64{0, 3}) {
		t.Errorf("counts: %v", counts)
	}
}
