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
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// ErrRotated is returned when an operation requires an axis-aligned
// terrain transform but the transform has rotation or shear terms.
var ErrRotated = errors.New("subgrid: rotated terrain rasters are not supported")

// DefaultNoData is the value written for masked terrain pixels when
// no other no-data value is specified.
const DefaultNoData = -9999.

// Affine is a pixel to world transform, following the GDAL
// geotransform conventions:
//
//	x = C + A*col + B*row
//	y = F + D*col + E*row
//
// For north-up rasters E is negative.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// AxisAligned returns whether the transform has no rotation or shear.
func (a Affine) AxisAligned() bool { return a.B == 0 && a.D == 0 }

// Apply returns the world coordinates of the pixel corner (col, row).
func (a Affine) Apply(col, row float64) geom.Point {
	return geom.Point{
		X: a.C + a.A*col + a.B*row,
		Y: a.F + a.D*col + a.E*row,
	}
}

// Invert returns the fractional pixel coordinates of world point p.
func (a Affine) Invert(p geom.Point) (col, row float64) {
	det := a.A*a.E - a.B*a.D
	dx, dy := p.X-a.C, p.Y-a.F
	col = (a.E*dx - a.B*dy) / det
	row = (-a.D*dx + a.A*dy) / det
	return
}

// Window is a rectangular block of terrain pixels. Both ranges are
// half-open: rows RowStart..RowStop-1 and columns ColStart..ColStop-1.
// The same four integers are used in memory and in table containers.
type Window struct {
	RowStart, RowStop int
	ColStart, ColStop int
}

// Rows returns the number of rows in the window.
func (w Window) Rows() int {
	if w.RowStop < w.RowStart {
		return 0
	}
	return w.RowStop - w.RowStart
}

// Cols returns the number of columns in the window.
func (w Window) Cols() int {
	if w.ColStop < w.ColStart {
		return 0
	}
	return w.ColStop - w.ColStart
}

// Size returns the number of pixels in the window.
func (w Window) Size() int { return w.Rows() * w.Cols() }

// Empty returns true if the window contains no pixels.
func (w Window) Empty() bool { return w.Size() == 0 }

func (w Window) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", w.RowStart, w.RowStop, w.ColStart, w.ColStop)
}

// Terrain is a high resolution elevation raster.
type Terrain struct {
	// Elevation has shape [rows, cols].
	Elevation *sparse.DenseArray

	// Mask marks invalid pixels (row-major, same length as
	// Elevation.Elements). A nil Mask means that all pixels are valid.
	Mask []bool

	Transform Affine

	// Proj is the proj4 definition of the raster's spatial reference,
	// or "" if it is unknown.
	Proj string
}

// NewTerrain creates a terrain raster from row-major elevations.
// Pixels equal to nodata or NaN are masked.
func NewTerrain(rows, cols int, elevation []float64, nodata float64, transform Affine) (*Terrain, error) {
	if len(elevation) != rows*cols {
		return nil, fmt.Errorf("subgrid: terrain has %d values but shape is %dx%d: %v",
			len(elevation), rows, cols, ErrShape)
	}
	t := &Terrain{
		Elevation: sparse.ZerosDense(rows, cols),
		Transform: transform,
	}
	copy(t.Elevation.Elements, elevation)
	for i, v := range elevation {
		if v == nodata || math.IsNaN(v) {
			if t.Mask == nil {
				t.Mask = make([]bool, len(elevation))
			}
			t.Mask[i] = true
		}
	}
	return t, nil
}

// Height returns the number of rows in the raster.
func (t *Terrain) Height() int { return t.Elevation.Shape[0] }

// Width returns the number of columns in the raster.
func (t *Terrain) Width() int { return t.Elevation.Shape[1] }

// Dxp returns the pixel width in world units.
func (t *Terrain) Dxp() float64 { return math.Abs(t.Transform.A) }

// Dyp returns the pixel height in world units.
func (t *Terrain) Dyp() float64 { return math.Abs(t.Transform.E) }

// PixelArea returns the area covered by one pixel.
func (t *Terrain) PixelArea() float64 { return math.Abs(t.Transform.A * t.Transform.E) }

// At returns the elevation at (row, col).
func (t *Terrain) At(row, col int) float64 {
	return t.Elevation.Elements[row*t.Width()+col]
}

// Valid returns false if the pixel at (row, col) is masked.
func (t *Terrain) Valid(row, col int) bool {
	return t.Mask == nil || !t.Mask[row*t.Width()+col]
}

// World2Px returns the pixel containing world point p.
func (t *Terrain) World2Px(p geom.Point) (col, row int) {
	c, r := t.Transform.Invert(p)
	return int(math.Floor(c)), int(math.Floor(r))
}

// Px2World returns the world coordinates of the upper left corner
// of pixel (col, row).
func (t *Terrain) Px2World(col, row int) geom.Point {
	return t.Transform.Apply(float64(col), float64(row))
}

// WindowFor returns the bounding pixel window of face, clipped
// to the raster. The upper bounds are exclusive, so the pixels holding
// the largest row and column of the face are not part of the window.
func (t *Terrain) WindowFor(face []geom.Point) Window {
	if len(face) == 0 {
		return Window{}
	}
	w := Window{
		RowStart: math.MaxInt32, RowStop: math.MinInt32,
		ColStart: math.MaxInt32, ColStop: math.MinInt32,
	}
	for _, p := range face {
		col, row := t.World2Px(p)
		if row < w.RowStart {
			w.RowStart = row
		}
		if row > w.RowStop {
			w.RowStop = row
		}
		if col < w.ColStart {
			w.ColStart = col
		}
		if col > w.ColStop {
			w.ColStop = col
		}
	}
	w.RowStart, w.RowStop = clip(w.RowStart, 0, t.Height()), clip(w.RowStop, 0, t.Height())
	w.ColStart, w.ColStop = clip(w.ColStart, 0, t.Width()), clip(w.ColStop, 0, t.Width())
	return w
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Window returns a row-major copy of the elevations in w.
func (t *Terrain) Window(w Window) []float64 {
	o := make([]float64, 0, w.Size())
	nx := t.Width()
	for r := w.RowStart; r < w.RowStop; r++ {
		o = append(o, t.Elevation.Elements[r*nx+w.ColStart:r*nx+w.ColStop]...)
	}
	return o
}

// WindowValid returns false if w is empty or contains any masked pixel.
func (t *Terrain) WindowValid(w Window) bool {
	if w.Empty() {
		return false
	}
	if t.Mask == nil {
		return true
	}
	nx := t.Width()
	for r := w.RowStart; r < w.RowStop; r++ {
		for _, m := range t.Mask[r*nx+w.ColStart : r*nx+w.ColStop] {
			if m {
				return false
			}
		}
	}
	return true
}

// LoadTerrain reads a terrain raster from a NetCDF file containing
// the variable "elevation" with dimensions (y, x) and the global
// attribute "transform" holding the six affine coefficients
// a, b, c, d, e, f. Pixels equal to the "nodata" attribute of
// the elevation variable, if present, are masked. The optional global
// attribute "proj4" sets the spatial reference.
func LoadTerrain(rw cdf.ReaderWriterAt) (*Terrain, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("subgrid.LoadTerrain: %v", err)
	}
	dims := f.Header.Lengths("elevation")
	if len(dims) != 2 {
		return nil, fmt.Errorf("subgrid.LoadTerrain: variable `elevation` must have 2 dimensions but has %d", len(dims))
	}
	tr, ok := f.Header.GetAttribute("", "transform").([]float64)
	if !ok || len(tr) != 6 {
		return nil, fmt.Errorf("subgrid.LoadTerrain: missing or invalid global attribute `transform`")
	}
	nodata := math.NaN()
	if nd, ok := f.Header.GetAttribute("elevation", "nodata").([]float64); ok && len(nd) == 1 {
		nodata = nd[0]
	}

	r := f.Reader("elevation", nil, nil)
	buf := r.Zero(dims[0] * dims[1])
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("subgrid.LoadTerrain: %v", err)
	}
	var elev []float64
	switch v := buf.(type) {
	case []float64:
		elev = v
	case []float32:
		elev = make([]float64, len(v))
		for i, vv := range v {
			elev[i] = float64(vv)
		}
	default:
		return nil, fmt.Errorf("subgrid.LoadTerrain: unsupported elevation type %T", buf)
	}
	t, err := NewTerrain(dims[0], dims[1], elev, nodata,
		Affine{A: tr[0], B: tr[1], C: tr[2], D: tr[3], E: tr[4], F: tr[5]})
	if err != nil {
		return nil, err
	}
	t.Proj, _ = f.Header.GetAttribute("", "proj4").(string)
	return t, nil
}

// Write writes t to NetCDF file w in the format read by LoadTerrain.
// Masked pixels are written as DefaultNoData.
func (t *Terrain) Write(w *os.File) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{t.Height(), t.Width()})
	h.AddAttribute("", "comment", "subgrid terrain elevation raster")
	a := t.Transform
	h.AddAttribute("", "transform", []float64{a.A, a.B, a.C, a.D, a.E, a.F})
	if t.Proj != "" {
		h.AddAttribute("", "proj4", t.Proj)
	}
	h.AddVariable("elevation", []string{"y", "x"}, []float64{0})
	h.AddAttribute("elevation", "description", "terrain elevation")
	h.AddAttribute("elevation", "nodata", []float64{DefaultNoData})
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("subgrid: writing terrain: %v", err)
	}
	data := make([]float64, len(t.Elevation.Elements))
	for i, v := range t.Elevation.Elements {
		if t.Mask != nil && t.Mask[i] {
			v = DefaultNoData
		}
		data[i] = v
	}
	end := f.Header.Lengths("elevation")
	if _, err = f.Writer("elevation", make([]int, len(end)), end).Write(data); err != nil {
		return fmt.Errorf("subgrid: writing terrain: %v", err)
	}
	return cdf.UpdateNumRecs(w)
}
