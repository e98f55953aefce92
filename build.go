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
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultNBins is the number of histogram bins used when none is specified.
const DefaultNBins = 20

// Log receives the messages of the package. It can be replaced
// to redirect or silence logging.
var Log logrus.FieldLogger = logrus.StandardLogger()

// BuildOptions hold the settings for BuildTables.
type BuildOptions struct {
	// NBins is the number of elevation bins per cell. Zero means DefaultNBins.
	NBins int

	// Workers is the number of concurrent workers.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Progress, if not nil, is called after each cell is finished
	// with the number of finished cells and the total number of cells.
	// Calls are serialized.
	Progress func(done, total int)
}

// BuildTables computes a table for every cell of m from terrain t.
// The returned tables are in mesh index order. Cells whose terrain window
// is empty or contains masked pixels get a *MaskedTable. A face that
// extends past the raster is clipped to it, and its table describes
// only the pixels on the raster.
func BuildTables(m *Mesh, t *Terrain, opts BuildOptions) (Tables, error) {
	if opts.NBins == 0 {
		opts.NBins = DefaultNBins
	}
	if opts.NBins < 1 {
		return nil, fmt.Errorf("subgrid: invalid number of bins %d", opts.NBins)
	}
	if m.Centers != nil && len(m.Centers) != len(m.Faces) {
		return nil, fmt.Errorf("subgrid: mesh has %d faces and %d centers: %v",
			len(m.Faces), len(m.Centers), ErrShape)
	}
	nprocs := opts.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}

	Log.WithFields(logrus.Fields{
		"cells":   m.Len(),
		"bins":    opts.NBins,
		"workers": nprocs,
	}).Info("building subgrid tables")

	tables := make(Tables, m.Len())
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for ii := pp; ii < len(tables); ii += nprocs {
				tables[ii] = buildTable(t, m.Faces[ii], m.FaceExtent(ii), opts.NBins)
				if opts.Progress != nil {
					mu.Lock()
					done++
					opts.Progress(done, len(tables))
					mu.Unlock()
				}
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()

	Log.WithFields(logrus.Fields{
		"valid":  tables.Valid(),
		"masked": len(tables) - tables.Valid(),
	}).Info("finished building subgrid tables")
	return tables, nil
}

// buildTable computes the table of a single cell.
func buildTable(t *Terrain, face []geom.Point, ext Extent, nBins int) Table {
	w := t.WindowFor(face)
	if !t.WindowValid(w) {
		return &MaskedTable{Window: w, Extent: ext}
	}
	z := t.Window(w)
	edges, counts := histogram(z, nBins)

	cumCount := make([]float64, nBins)
	floats.CumSum(cumCount, counts)

	area := t.PixelArea()
	vt := &VolumeTable{
		Window:    w,
		Extent:    ext,
		BinEdges:  edges,
		NPerBin:   make([]int, nBins),
		Volume:    make([]float64, nBins),
		CumVolume: make([]float64, nBins),
	}
	for k := 0; k < nBins; k++ {
		vt.NPerBin[k] = int(counts[k])
		// The cumulative count is used here rather than the count of bin k.
		vt.Volume[k] = area * cumCount[k] * (edges[k+1] - edges[k])
	}
	floats.CumSum(vt.CumVolume, vt.Volume)
	return vt
}

// histogram bins z into nBins equal-width bins spanning the range of z.
// The last bin includes its upper edge. If all values are equal, the
// bins span the value ± 0.5.
func histogram(z []float64, nBins int) (edges, counts []float64) {
	sorted := make([]float64, len(z))
	copy(sorted, z)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges = make([]float64, nBins+1)
	floats.Span(edges, lo, hi)

	dividers := make([]float64, nBins+1)
	copy(dividers, edges)
	dividers[nBins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return edges, counts
}
