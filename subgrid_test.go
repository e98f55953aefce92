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
	"io/ioutil"
	"math"
	"os"
	"testing"

	"github.com/ctessum/geom"
)

const testTolerance = 1.e-10

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	return math.Abs(a-b)/math.Abs(b) > tolerance
}

// testElevation is a 4x4 raster. Each 2x2 quadrant is one cell of testMesh.
var testElevation = []float64{
	5, 6, 7, 8,
	5, 6, 7, 9,
	0, 1, 2, 2,
	2, 3, 4, 4,
}

// testTransform maps pixel (col, row) to world (col, 4-row).
var testTransform = Affine{A: 1, C: 0, E: -1, F: 4}

func testTerrain(t *testing.T, elevation []float64) *Terrain {
	tr, err := NewTerrain(4, 4, elevation, DefaultNoData, testTransform)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func square(x0, y0, x1, y1 float64) []geom.Point {
	return []geom.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// testMesh returns four 2x2 cells. Cell 0 covers rows 2-3 and
// columns 0-1 of testElevation, cell 1 rows 2-3 and columns 2-3,
// cell 2 rows 0-1 and columns 0-1, and cell 3 rows 0-1 and columns 2-3.
func testMesh() *Mesh {
	return &Mesh{
		Faces: [][]geom.Point{
			square(0, 0, 2, 2),
			square(2, 0, 4, 2),
			square(0, 2, 2, 4),
			square(2, 2, 4, 4),
		},
	}
}

func testTables(t *testing.T, tr *Terrain, nBins int) Tables {
	tables, err := BuildTables(testMesh(), tr, BuildOptions{NBins: nBins, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	return tables
}

func testTimestep() *Timestep {
	return &Timestep{
		Vol1:       []float64{5, 2, 4, 30},
		S1:         []float64{2.5, 2.1, 5.7, 12},
		WaterDepth: []float64{1, 0.1, 0.5, 3},
	}
}

// tempDir creates a temporary directory and returns it with a
// function that removes it.
func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "subgrid")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}
