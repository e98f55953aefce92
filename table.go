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

import "errors"

var (
	// ErrShape is returned when the lengths of inputs that must
	// describe the same cells or pixels do not agree.
	ErrShape = errors.New("subgrid: input shapes do not match")

	// ErrSchema is returned when a table container does not have
	// the expected dimensions and variables.
	ErrSchema = errors.New("subgrid: invalid table container schema")
)

// Table holds the precomputed terrain statistics of one mesh cell.
// It is either a *VolumeTable or a *MaskedTable.
type Table interface {
	// TerrainWindow returns the pixel window of the cell.
	TerrainWindow() Window

	// FaceExtent returns the world bounding box of the cell.
	FaceExtent() Extent

	table()
}

// VolumeTable is the table of a cell whose terrain window is fully valid.
type VolumeTable struct {
	Window Window
	Extent Extent

	// BinEdges holds the NBins+1 increasing elevation bin edges.
	BinEdges []float64

	// NPerBin holds the number of window pixels in each bin.
	NPerBin []int

	// Volume holds the volume increment of each bin.
	Volume []float64

	// CumVolume holds the prefix sums of Volume: the volume needed to
	// fill the cell up to the upper edge of each bin.
	CumVolume []float64
}

// TerrainWindow implements Table.
func (t *VolumeTable) TerrainWindow() Window { return t.Window }

// FaceExtent implements Table.
func (t *VolumeTable) FaceExtent() Extent { return t.Extent }

func (*VolumeTable) table() {}

// NBins returns the number of histogram bins.
func (t *VolumeTable) NBins() int { return len(t.NPerBin) }

// Capacity returns the volume needed to fill the cell to its highest bin edge.
func (t *VolumeTable) Capacity() float64 {
	if len(t.CumVolume) == 0 {
		return 0
	}
	return t.CumVolume[len(t.CumVolume)-1]
}

// MaskedTable is the table of a cell whose terrain window is empty or
// contains masked pixels. Such cells are never solved.
type MaskedTable struct {
	Window Window
	Extent Extent
}

// TerrainWindow implements Table.
func (t *MaskedTable) TerrainWindow() Window { return t.Window }

// FaceExtent implements Table.
func (t *MaskedTable) FaceExtent() Extent { return t.Extent }

func (*MaskedTable) table() {}

// Tables holds one Table per mesh cell, in mesh index order.
type Tables []Table

// Valid returns the number of cells that have a *VolumeTable.
func (ts Tables) Valid() int {
	n := 0
	for _, t := range ts {
		if _, ok := t.(*VolumeTable); ok {
			n++
		}
	}
	return n
}

// Excluded returns the indices of the cells that have a *MaskedTable.
func (ts Tables) Excluded() []int {
	var o []int
	for i, t := range ts {
		if _, ok := t.(*MaskedTable); ok {
			o = append(o, i)
		}
	}
	return o
}

// NBins returns the number of bins of the first *VolumeTable,
// or zero if there are none.
func (ts Tables) NBins() int {
	for _, t := range ts {
		if vt, ok := t.(*VolumeTable); ok {
			return vt.NBins()
		}
	}
	return 0
}
