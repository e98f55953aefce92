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

	"github.com/ctessum/cdf"
)

// Timestep holds the simulated state of every mesh cell at one time.
type Timestep struct {
	// Vol1 is the water volume of each cell.
	Vol1 []float64

	// S1 is the water level of each cell.
	S1 []float64

	// WaterDepth is the mean water depth of each cell.
	// It may be nil if the simulation does not provide it.
	WaterDepth []float64
}

// check returns an error if ts does not have one value per cell.
func (ts *Timestep) check(nCells int) error {
	if len(ts.Vol1) != nCells || len(ts.S1) != nCells ||
		(ts.WaterDepth != nil && len(ts.WaterDepth) != nCells) {
		return fmt.Errorf("subgrid: timestep does not have %d cells: %v", nCells, ErrShape)
	}
	return nil
}

func (ts *Timestep) waterDepth(i int) float64 {
	if ts.WaterDepth == nil {
		return 0
	}
	return ts.WaterDepth[i]
}

// NumTimesteps returns the number of timesteps in the simulation output
// file rw.
func NumTimesteps(rw cdf.ReaderWriterAt) (int, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return 0, fmt.Errorf("subgrid.NumTimesteps: %v", err)
	}
	dims := f.Header.Lengths("vol1")
	if len(dims) != 2 {
		return 0, fmt.Errorf("subgrid.NumTimesteps: variable `vol1` must have dimensions (time, cells)")
	}
	return dims[0], nil
}

// LoadTimestep reads timestep t from the simulation output file rw.
// The file holds the variables vol1, s1 and optionally waterdepth,
// each with dimensions (time, cells).
func LoadTimestep(rw cdf.ReaderWriterAt, t int) (*Timestep, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("subgrid.LoadTimestep: %v", err)
	}
	ts := new(Timestep)
	for _, v := range []struct {
		name     string
		data     *[]float64
		optional bool
	}{
		{name: "vol1", data: &ts.Vol1},
		{name: "s1", data: &ts.S1},
		{name: "waterdepth", data: &ts.WaterDepth, optional: true},
	} {
		dims := f.Header.Lengths(v.name)
		if len(dims) == 0 && v.optional {
			continue
		}
		if len(dims) != 2 {
			return nil, fmt.Errorf("subgrid.LoadTimestep: variable `%s` must have dimensions (time, cells)", v.name)
		}
		if t < 0 || t >= dims[0] {
			return nil, fmt.Errorf("subgrid.LoadTimestep: timestep %d out of range [0, %d)", t, dims[0])
		}
		r := f.Reader(v.name, []int{t, 0}, []int{t, dims[1] - 1})
		buf := r.Zero(-1)
		if _, err = r.Read(buf); err != nil {
			return nil, fmt.Errorf("subgrid.LoadTimestep: reading %s: %v", v.name, err)
		}
		switch b := buf.(type) {
		case []float64:
			*v.data = b
		case []float32:
			d := make([]float64, len(b))
			for i, vv := range b {
				d[i] = float64(vv)
			}
			*v.data = d
		default:
			return nil, fmt.Errorf("subgrid.LoadTimestep: unsupported type %T for %s", buf, v.name)
		}
	}
	if err = ts.check(len(ts.Vol1)); err != nil {
		return nil, err
	}
	return ts, nil
}

// WriteSimulation writes steps to w in the format read by LoadTimestep.
// waterdepth is written only if every step has it.
func WriteSimulation(w *os.File, steps []*Timestep) error {
	if len(steps) == 0 {
		return fmt.Errorf("subgrid: no timesteps to write")
	}
	nCells := len(steps[0].Vol1)
	withDepth := true
	for _, ts := range steps {
		if err := ts.check(nCells); err != nil {
			return err
		}
		withDepth = withDepth && ts.WaterDepth != nil
	}

	h := cdf.NewHeader([]string{"time", "cells"}, []int{len(steps), nCells})
	h.AddAttribute("", "comment", "subgrid simulation output")
	vars := []struct{ name, desc string }{
		{"vol1", "cell water volume"},
		{"s1", "cell water level"},
	}
	if withDepth {
		vars = append(vars, struct{ name, desc string }{"waterdepth", "cell water depth"})
	}
	for _, v := range vars {
		h.AddVariable(v.name, []string{"time", "cells"}, []float64{0})
		h.AddAttribute(v.name, "description", v.desc)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("subgrid: writing simulation: %v", err)
	}
	for t, ts := range steps {
		data := map[string][]float64{"vol1": ts.Vol1, "s1": ts.S1, "waterdepth": ts.WaterDepth}
		for _, v := range vars {
			wr := f.Writer(v.name, []int{t, 0}, []int{t, nCells})
			if _, err := wr.Write(data[v.name]); err != nil {
				return fmt.Errorf("subgrid: writing simulation variable %s: %v", v.name, err)
			}
		}
	}
	return cdf.UpdateNumRecs(w)
}
