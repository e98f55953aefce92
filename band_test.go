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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestComputeBand(t *testing.T) {
	tr := testTerrain(t, testElevation)
	tables := testTables(t, tr, 3)
	ts := testTimestep()

	b, excluded, err := ComputeBand(tr, tables, ts, WaterLevel)
	if err != nil {
		t.Fatal(err)
	}
	if len(excluded) != 0 {
		t.Errorf("excluded: %v", excluded)
	}
	for _, px := range [][2]int{{2, 0}, {2, 1}, {3, 0}, {3, 1}} {
		if v := b.Get(px[0], px[1]); v != 2.5 {
			t.Errorf("pixel %v: have level %g, want 2.5", px, v)
		}
	}

	b, _, err = ComputeBand(tr, tables, ts, WaterDepth)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2.5, 1.5, 0.5, 0}
	var have []float64
	for r := 2; r < 4; r++ {
		for c := 0; c < 2; c++ {
			have = append(have, b.Get(r, c))
		}
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("cell 0 depths: have %v, want %v", have, want)
	}
	for i, v := range b.Data.Elements {
		if !b.Mask[i] && v < 0 {
			t.Errorf("pixel %d has negative depth %g", i, v)
		}
	}
}

func TestComputeBandIdempotent(t *testing.T) {
	tr := testTerrain(t, testElevation)
	tables := testTables(t, tr, 4)
	ts := testTimestep()
	for _, m := range []Method{WaterLevel, WaterDepth} {
		b1, _, err := ComputeBand(tr, tables, ts, m)
		if err != nil {
			t.Fatal(err)
		}
		b2, _, err := ComputeBand(tr, tables, ts, m)
		if err != nil {
			t.Fatal(err)
		}
		if !b1.Equal(b2) {
			t.Errorf("%s: repeated bands differ", m)
		}
	}
}

func TestComputeBandMasked(t *testing.T) {
	elev := append([]float64(nil), testElevation...)
	elev[13] = DefaultNoData
	tr := testTerrain(t, elev)
	tables := testTables(t, tr, 3)

	b, excluded, err := ComputeBand(tr, tables, testTimestep(), WaterDepth)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(excluded, []int{0}) {
		t.Errorf("excluded: have %v, want [0]", excluded)
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			inCell0 := r >= 2 && c < 2
			if b.Masked(r, c) != inCell0 {
				t.Errorf("pixel (%d, %d): masked = %v", r, c, b.Masked(r, c))
			}
		}
	}
	if !math.IsNaN(b.Get(3, 1)) {
		t.Errorf("masked pixel should be NaN but is %g", b.Get(3, 1))
	}
}

func TestComputeBandShape(t *testing.T) {
	tr := testTerrain(t, testElevation)
	tables := testTables(t, tr, 3)
	ts := testTimestep()
	ts.Vol1 = ts.Vol1[:3]
	if _, _, err := ComputeBand(tr, tables, ts, WaterLevel); err == nil {
		t.Error("a timestep with too few cells should fail")
	}
}

func TestBandWrite(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	elev := append([]float64(nil), testElevation...)
	elev[13] = DefaultNoData
	tr := testTerrain(t, elev)
	b, _, err := ComputeBand(tr, testTables(t, tr, 3), testTimestep(), WaterDepth)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(filepath.Join(dir, "band.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err = b.Write(f); err != nil {
		t.Fatal(err)
	}
	b2, err := LoadBand(f)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Equal(b2) {
		t.Errorf("band changed after writing and reading")
	}
	if b2.Transform != tr.Transform {
		t.Errorf("transform: have %+v, want %+v", b2.Transform, tr.Transform)
	}
}
