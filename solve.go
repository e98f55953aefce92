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
	"sort"
)

// Method specifies the kind of solved output.
type Method string

const (
	// WaterLevel solves for a single water level per cell.
	WaterLevel Method = "waterlevel"

	// WaterDepth solves for the water depth of every pixel in a cell.
	WaterDepth Method = "waterdepth"
)

// ParseMethod returns the Method named s.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case WaterLevel, WaterDepth:
		return m, nil
	default:
		return "", fmt.Errorf("subgrid: invalid method %q; valid options are %q and %q", s, WaterLevel, WaterDepth)
	}
}

// Level returns the water level at which the cell holds volume.
// pixelArea is the area of one terrain pixel. Volumes beyond the capacity
// of the table raise the level above the highest bin edge as if the
// whole window were a flat basin.
func (t *VolumeTable) Level(volume, pixelArea float64) float64 {
	n := len(t.CumVolume)
	k := sort.Search(n, func(i int) bool { return t.CumVolume[i] > volume })
	if k == n {
		return t.BinEdges[n] + (volume-t.CumVolume[n-1])/(float64(t.Window.Size())*pixelArea)
	}
	if t.Volume[k] == 0 {
		return t.BinEdges[k]
	}
	var prev float64
	if k > 0 {
		prev = t.CumVolume[k-1]
	}
	frac := (volume - prev) / t.Volume[k]
	return t.BinEdges[k] + frac*(t.BinEdges[k+1]-t.BinEdges[k])
}

// Depth returns the water depth over each elevation for the given level.
// Elevations at or above level have zero depth.
func Depth(elevation []float64, level float64) []float64 {
	o := make([]float64, len(elevation))
	for i, z := range elevation {
		if d := level - z; d > 0 {
			o[i] = d
		}
	}
	return o
}

// Solution is the solved state of one cell.
type Solution struct {
	Level float64

	// Depth holds the row-major water depth over the cell's terrain
	// window. It is nil for the WaterLevel method.
	Depth []float64
}

// Solve finds the water level of the cell with table t holding volume
// and, for the WaterDepth method, the depth of every pixel in its window.
func Solve(t *VolumeTable, terrain *Terrain, volume float64, m Method) (Solution, error) {
	s := Solution{Level: t.Level(volume, terrain.PixelArea())}
	switch m {
	case WaterLevel:
	case WaterDepth:
		s.Depth = Depth(terrain.Window(t.Window), s.Level)
	default:
		return Solution{}, fmt.Errorf("subgrid: invalid method %q", m)
	}
	return s, nil
}
