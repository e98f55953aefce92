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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
)

// tableVar describes a variable of the table container.
type tableVar struct {
	name     string
	dims     []string
	longName string
	zero     interface{}
}

// tableSchema lists the variables of the table container.
var tableSchema = []tableVar{
	{"bin_edges", []string{"cells", "bin_edges"}, "bin edges of topography histogram", []float64{0}},
	{"cum_volume_table", []string{"cells", "bins"}, "cumulative volume table", []float64{0}},
	{"volume_table", []string{"cells", "bins"}, "volume table", []float64{0}},
	{"extent", []string{"cells", "two_times_two"}, "extent (left, right, lower, upper)", []float64{0}},
	{"n_per_bin", []string{"cells", "bins"}, "topography histogram", []int32{0}},
	{"slice", []string{"cells", "two_times_two"}, "slice (row start, stop, column start, stop)", []int32{0}},
}

// CreateTables writes the header of an empty table container for nCells
// cells and nBins bins to f and fills every variable with its fill value.
// attrs are stored as global attributes.
func CreateTables(f *os.File, nCells, nBins int, attrs map[string]string) (*cdf.File, error) {
	if nCells < 1 || nBins < 1 {
		return nil, fmt.Errorf("subgrid: cannot create table container with %d cells and %d bins", nCells, nBins)
	}
	h := cdf.NewHeader(
		[]string{"cells", "bins", "bin_edges", "two_times_two"},
		[]int{nCells, nBins, nBins + 1, 4})
	h.AddAttribute("", "comment", "subgrid volume tables")
	h.AddAttribute("", "data_version", TableDataVersion)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "data_version" || k == "comment" {
			continue
		}
		h.AddAttribute("", k, attrs[k])
	}
	for _, v := range tableSchema {
		h.AddVariable(v.name, v.dims, v.zero)
		h.AddAttribute(v.name, "long_name", v.longName)
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("subgrid: table container header: %v", errs[0])
	}

	cf, err := cdf.Create(f, h)
	if err != nil {
		return nil, fmt.Errorf("subgrid: creating table container: %v", err)
	}
	for _, v := range tableSchema {
		if err = cf.Fill(v.name); err != nil {
			return nil, fmt.Errorf("subgrid: filling table variable %s: %v", v.name, err)
		}
	}
	if err = cdf.UpdateNumRecs(f); err != nil {
		return nil, fmt.Errorf("subgrid: creating table container: %v", err)
	}
	return cf, nil
}

// WriteTables writes tables row by row into a container created by
// CreateTables. Rows of *MaskedTable cells keep the fill value in the
// histogram variables; their extent and slice are still written.
func WriteTables(f *cdf.File, tables Tables) error {
	lengths := f.Header.Lengths("")
	nCells, nBins := lengths[0], lengths[1]
	if len(tables) != nCells {
		return fmt.Errorf("subgrid: writing %d tables to container with %d cells: %v", len(tables), nCells, ErrShape)
	}
	write := func(v string, row int, data interface{}, n int) error {
		w := f.Writer(v, []int{row, 0}, []int{row, n})
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("subgrid: writing %s for cell %d: %v", v, row, err)
		}
		return nil
	}
	for i, t := range tables {
		w, e := t.TerrainWindow(), t.FaceExtent()
		if err := write("extent", i, []float64{e.Left, e.Right, e.Lower, e.Upper}, 4); err != nil {
			return err
		}
		s := []int32{int32(w.RowStart), int32(w.RowStop), int32(w.ColStart), int32(w.ColStop)}
		if err := write("slice", i, s, 4); err != nil {
			return err
		}
		vt, ok := t.(*VolumeTable)
		if !ok {
			continue
		}
		if vt.NBins() != nBins {
			return fmt.Errorf("subgrid: cell %d has %d bins but container has %d: %v", i, vt.NBins(), nBins, ErrShape)
		}
		n := make([]int32, nBins)
		for k, c := range vt.NPerBin {
			n[k] = int32(c)
		}
		if err := write("bin_edges", i, vt.BinEdges, nBins+1); err != nil {
			return err
		}
		if err := write("cum_volume_table", i, vt.CumVolume, nBins); err != nil {
			return err
		}
		if err := write("volume_table", i, vt.Volume, nBins); err != nil {
			return err
		}
		if err := write("n_per_bin", i, n, nBins); err != nil {
			return err
		}
	}
	return nil
}

// checkSchema returns ErrSchema if h does not describe a table container.
func checkSchema(h *cdf.Header) error {
	if v, _ := h.GetAttribute("", "data_version").(string); v != TableDataVersion {
		return fmt.Errorf("subgrid: table data version %q is incompatible with the required version %s: %v",
			v, TableDataVersion, ErrSchema)
	}
	for _, v := range tableSchema {
		dims := h.Dimensions(v.name)
		if len(dims) != len(v.dims) {
			return fmt.Errorf("subgrid: table variable %s is missing or has wrong dimensions: %v", v.name, ErrSchema)
		}
		for i, d := range dims {
			if d != v.dims[i] {
				return fmt.Errorf("subgrid: table variable %s has dimensions %v, want %v: %v", v.name, dims, v.dims, ErrSchema)
			}
		}
		if fmt.Sprintf("%T", h.ZeroValue(v.name, 0)) != fmt.Sprintf("%T", v.zero) {
			return fmt.Errorf("subgrid: table variable %s has type %T, want %T: %v",
				v.name, h.ZeroValue(v.name, 0), v.zero, ErrSchema)
		}
	}
	if l := h.Lengths("slice"); l[1] != 4 {
		return fmt.Errorf("subgrid: dimension two_times_two has length %d: %v", l[1], ErrSchema)
	}
	if b, e := h.Lengths("volume_table")[1], h.Lengths("bin_edges")[1]; e != b+1 {
		return fmt.Errorf("subgrid: %d bins and %d bin edges: %v", b, e, ErrSchema)
	}
	return nil
}

// ReadTables reads the tables stored in a table container. Rows whose
// bin edges hold the fill value are returned as *MaskedTable.
func ReadTables(rw cdf.ReaderWriterAt) (Tables, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("subgrid.ReadTables: %v", err)
	}
	if err = checkSchema(f.Header); err != nil {
		return nil, err
	}
	data := make(map[string]interface{})
	for _, v := range tableSchema {
		r := f.Reader(v.name, nil, nil)
		buf := r.Zero(-1)
		if _, err = r.Read(buf); err != nil {
			return nil, fmt.Errorf("subgrid.ReadTables: reading %s: %v", v.name, err)
		}
		data[v.name] = buf
	}
	fill, _ := f.Header.FillValue("bin_edges").(float64)

	edges := data["bin_edges"].([]float64)
	cum := data["cum_volume_table"].([]float64)
	vol := data["volume_table"].([]float64)
	ext := data["extent"].([]float64)
	npb := data["n_per_bin"].([]int32)
	sl := data["slice"].([]int32)

	nBins := f.Header.Lengths("volume_table")[1]
	nCells := f.Header.Lengths("volume_table")[0]
	tables := make(Tables, nCells)
	for i := range tables {
		w := Window{
			RowStart: int(sl[4*i]), RowStop: int(sl[4*i+1]),
			ColStart: int(sl[4*i+2]), ColStop: int(sl[4*i+3]),
		}
		e := Extent{Left: ext[4*i], Right: ext[4*i+1], Lower: ext[4*i+2], Upper: ext[4*i+3]}
		be := edges[i*(nBins+1) : (i+1)*(nBins+1)]
		if be[0] == fill {
			tables[i] = &MaskedTable{Window: w, Extent: e}
			continue
		}
		vt := &VolumeTable{
			Window:    w,
			Extent:    e,
			BinEdges:  append([]float64(nil), be...),
			NPerBin:   make([]int, nBins),
			Volume:    append([]float64(nil), vol[i*nBins:(i+1)*nBins]...),
			CumVolume: append([]float64(nil), cum[i*nBins:(i+1)*nBins]...),
		}
		for k, c := range npb[i*nBins : (i+1)*nBins] {
			vt.NPerBin[k] = int(c)
		}
		tables[i] = vt
	}
	return tables, nil
}

// TableAttributes returns the global string attributes of a table container.
func TableAttributes(rw cdf.ReaderWriterAt) (map[string]string, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("subgrid.TableAttributes: %v", err)
	}
	o := make(map[string]string)
	for _, a := range f.Header.Attributes("") {
		if s, ok := f.Header.GetAttribute("", a).(string); ok {
			o[a] = s
		}
	}
	return o, nil
}

// SaveTables creates a table container at path and writes tables to it.
func SaveTables(path string, tables Tables, attrs map[string]string) error {
	nBins := tables.NBins()
	if nBins == 0 {
		nBins = DefaultNBins
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("subgrid: saving tables: %v", err)
	}
	defer f.Close()
	cf, err := CreateTables(f, len(tables), nBins, attrs)
	if err != nil {
		return err
	}
	if err = WriteTables(cf, tables); err != nil {
		return err
	}
	Log.WithFields(logrus.Fields{
		"file":  path,
		"cells": len(tables),
		"bins":  nBins,
	}).Debug("saved subgrid tables")
	return f.Close()
}

// LoadTables reads the table container at path.
func LoadTables(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("subgrid: loading tables: %v", err)
	}
	defer f.Close()
	tables, err := ReadTables(f)
	if err != nil {
		return nil, err
	}
	Log.WithFields(logrus.Fields{
		"file":  path,
		"cells": len(tables),
	}).Debug("loaded subgrid tables")
	return tables, nil
}
