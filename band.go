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
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// bandFillValue is the netCDF default fill value for doubles.
const bandFillValue = 9.9692099683868690e+36

// Band is a masked raster with the same shape and transform as a terrain.
type Band struct {
	// Data has shape [rows, cols].
	Data *sparse.DenseArray

	// Mask is true for pixels without a value (row-major).
	Mask []bool

	Transform Affine
}

// NewBand returns a fully masked band with the shape and transform of t.
func NewBand(t *Terrain) *Band {
	b := &Band{
		Data:      sparse.ZerosDense(t.Height(), t.Width()),
		Mask:      make([]bool, t.Height()*t.Width()),
		Transform: t.Transform,
	}
	for i := range b.Mask {
		b.Mask[i] = true
	}
	return b
}

func (b *Band) width() int { return b.Data.Shape[1] }

// Masked returns whether the pixel at (row, col) has no value.
func (b *Band) Masked(row, col int) bool { return b.Mask[row*b.width()+col] }

// Get returns the value at (row, col). Masked pixels return NaN.
func (b *Band) Get(row, col int) float64 {
	if b.Masked(row, col) {
		return math.NaN()
	}
	return b.Data.Get(row, col)
}

// set assigns v to (row, col) and unmasks it.
func (b *Band) set(row, col int, v float64) {
	i := row*b.width() + col
	b.Data.Elements[i] = v
	b.Mask[i] = false
}

// Equal returns whether b and o have the same shape and mask and
// bit-identical values at all unmasked pixels.
func (b *Band) Equal(o *Band) bool {
	if len(b.Data.Shape) != len(o.Data.Shape) || len(b.Mask) != len(o.Mask) {
		return false
	}
	for i := range b.Data.Shape {
		if b.Data.Shape[i] != o.Data.Shape[i] {
			return false
		}
	}
	for i, m := range b.Mask {
		if m != o.Mask[i] {
			return false
		}
		if !m && math.Float64bits(b.Data.Elements[i]) != math.Float64bits(o.Data.Elements[i]) {
			return false
		}
	}
	return true
}

// ComputeBand solves every cell of timestep ts and writes the results into
// a band covering terrain t. For the WaterLevel method each pixel of a cell
// window holds the cell level; for WaterDepth each holds its own depth.
// Cells with a *MaskedTable are left masked; their indices are logged
// and returned. Cells are processed in index order, so where windows
// overlap the higher index wins.
func ComputeBand(t *Terrain, tables Tables, ts *Timestep, m Method) (*Band, []int, error) {
	if err := ts.check(len(tables)); err != nil {
		return nil, nil, err
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return nil, nil, err
	}
	b := NewBand(t)
	var excluded []int
	for i, tbl := range tables {
		vt, ok := tbl.(*VolumeTable)
		if !ok {
			excluded = append(excluded, i)
			continue
		}
		s, err := Solve(vt, t, ts.Vol1[i], m)
		if err != nil {
			return nil, nil, err
		}
		w := vt.Window
		k := 0
		for r := w.RowStart; r < w.RowStop; r++ {
			for c := w.ColStart; c < w.ColStop; c++ {
				if m == WaterDepth {
					b.set(r, c, s.Depth[k])
				} else {
					b.set(r, c, s.Level)
				}
				k++
			}
		}
	}
	if len(excluded) > 0 {
		Log.WithFields(logrus.Fields{
			"cells": excluded,
		}).Infof("skipped %d cells with masked terrain", len(excluded))
	}
	return b, excluded, nil
}

// Write writes b to NetCDF file w. Masked pixels hold the fill value.
func (b *Band) Write(w *os.File) error {
	ny, nx := b.Data.Shape[0], b.Data.Shape[1]
	h := cdf.NewHeader([]string{"y", "x"}, []int{ny, nx})
	h.AddAttribute("", "comment", "subgrid solved band")
	a := b.Transform
	h.AddAttribute("", "transform", []float64{a.A, a.B, a.C, a.D, a.E, a.F})
	h.AddVariable("band", []string{"y", "x"}, []float64{0})
	h.AddAttribute("band", "description", "solved water level or depth")
	h.AddAttribute("band", "_FillValue", []float64{bandFillValue})
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("subgrid: writing band: %v", err)
	}
	data := make([]float64, len(b.Data.Elements))
	for i, v := range b.Data.Elements {
		if b.Mask[i] {
			v = bandFillValue
		}
		data[i] = v
	}
	end := f.Header.Lengths("band")
	if _, err = f.Writer("band", make([]int, len(end)), end).Write(data); err != nil {
		return fmt.Errorf("subgrid: writing band: %v", err)
	}
	return cdf.UpdateNumRecs(w)
}

// LoadBand reads a band written by (*Band).Write.
func LoadBand(rw cdf.ReaderWriterAt) (*Band, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("subgrid.LoadBand: %v", err)
	}
	dims := f.Header.Lengths("band")
	if len(dims) != 2 {
		return nil, fmt.Errorf("subgrid.LoadBand: variable `band` must have 2 dimensions")
	}
	tr, ok := f.Header.GetAttribute("", "transform").([]float64)
	if !ok || len(tr) != 6 {
		return nil, fmt.Errorf("subgrid.LoadBand: missing or invalid global attribute `transform`")
	}
	fill, _ := f.Header.FillValue("band").(float64)
	r := f.Reader("band", nil, nil)
	buf := r.Zero(-1)
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("subgrid.LoadBand: %v", err)
	}
	data, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("subgrid.LoadBand: unsupported band type %T", buf)
	}
	b := &Band{
		Data:      sparse.ZerosDense(dims...),
		Mask:      make([]bool, len(data)),
		Transform: Affine{A: tr[0], B: tr[1], C: tr[2], D: tr[3], E: tr[4], F: tr[5]},
	}
	for i, v := range data {
		if v == fill {
			b.Mask[i] = true
			continue
		}
		b.Data.Elements[i] = v
	}
	return b, nil
}
