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

package subgridutil

import (
	"context"
	"fmt"
	"os"

	"github.com/ctessum/geom/proj"
	"github.com/flowmap/subgrid"
	"github.com/flowmap/subgrid/internal/hash"
	"github.com/sirupsen/logrus"
)

// tableCache holds recently used table containers so that repeated
// solves against the same tables don't read them from disk again.
var tableCache = subgrid.NewTableCache(4)

// sourceHashAttr is the table container attribute identifying the
// inputs the tables were built from.
const sourceHashAttr = "source_hash"

// Tables builds the subgrid tables for the mesh in meshFile over the
// terrain in terrainFile and saves them to tablesFile. If tablesFile
// already holds tables built from the same inputs, nothing is done.
func Tables(meshFile, terrainFile, tablesFile string, nBins, workers int, progress bool) error {
	terrain, err := loadTerrain(terrainFile)
	if err != nil {
		return err
	}
	mesh, err := readMesh(meshFile, terrain)
	if err != nil {
		return err
	}
	if nBins < 1 {
		nBins = subgrid.DefaultNBins
	}
	stamp := hash.Hash(mesh.Faces, terrain.Elevation.Shape, terrain.Elevation.Elements,
		terrain.Mask, terrain.Transform, terrain.Proj, nBins)
	if upToDate(tablesFile, stamp) {
		logger.WithField("file", tablesFile).Info("subgrid tables are up to date")
		return nil
	}

	opts := subgrid.BuildOptions{NBins: nBins, Workers: workers}
	if progress {
		opts.Progress = progressBar("building tables")
	}
	tables, err := subgrid.BuildTables(mesh, terrain, opts)
	if err != nil {
		return err
	}
	if err = subgrid.SaveTables(tablesFile, tables, map[string]string{sourceHashAttr: stamp}); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":     tablesFile,
		"cells":    len(tables),
		"excluded": len(tables.Excluded()),
	}).Info("saved subgrid tables")
	return nil
}

// upToDate returns whether the table container at path exists and was
// built from inputs with the given hash.
func upToDate(path, stamp string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	attrs, err := subgrid.TableAttributes(f)
	if err != nil {
		return false
	}
	return attrs[sourceHashAttr] == stamp && attrs["data_version"] == subgrid.TableDataVersion
}

// Band solves timestep t of simulationFile and writes the resulting
// band to outputFile.
func Band(terrainFile, tablesFile, simulationFile, outputFile string, t int, m subgrid.Method) error {
	terrain, err := loadTerrain(terrainFile)
	if err != nil {
		return err
	}
	tables, err := tableCache.Load(context.Background(), tablesFile)
	if err != nil {
		return err
	}
	ts, err := loadTimestep(simulationFile, t)
	if err != nil {
		return err
	}
	b, excluded, err := subgrid.ComputeBand(terrain, tables, ts, m)
	if err != nil {
		return err
	}
	if err = writeFile(outputFile, b.Write); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":     outputFile,
		"timestep": t,
		"method":   m,
		"excluded": len(excluded),
	}).Info("wrote subgrid band")
	return nil
}

// Features solves timestep t of simulationFile and writes one GeoJSON
// point feature per mesh cell to outputFile.
func Features(meshFile, terrainFile, tablesFile, simulationFile, outputFile string, t int, m subgrid.Method) error {
	terrain, err := loadTerrain(terrainFile)
	if err != nil {
		return err
	}
	mesh, err := readMesh(meshFile, terrain)
	if err != nil {
		return err
	}
	tables, err := tableCache.Load(context.Background(), tablesFile)
	if err != nil {
		return err
	}
	ts, err := loadTimestep(simulationFile, t)
	if err != nil {
		return err
	}
	fc, err := subgrid.ComputeFeatures(terrain, mesh, tables, ts, m)
	if err != nil {
		return err
	}
	if err = writeFile(outputFile, func(f *os.File) error { return fc.Write(f) }); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":     outputFile,
		"timestep": t,
		"features": len(fc.Features),
	}).Info("wrote subgrid features")
	return nil
}

// Interpolate interpolates the water depth of timestep t of simulationFile
// onto window w of the terrain and writes it to outputFile. A nil w
// selects the whole raster.
func Interpolate(meshFile, terrainFile, simulationFile, outputFile string, t int, w *subgrid.Window, fill float64) error {
	terrain, err := loadTerrain(terrainFile)
	if err != nil {
		return err
	}
	mesh, err := readMesh(meshFile, terrain)
	if err != nil {
		return err
	}
	ts, err := loadTimestep(simulationFile, t)
	if err != nil {
		return err
	}
	tr, err := subgrid.Triangulate(mesh.CenterPoints())
	if err != nil {
		return err
	}
	o, err := subgrid.ComputeInterpolated(tr, terrain, ts, w, fill)
	if err != nil {
		return err
	}
	if err = writeFile(outputFile, o.WaterDepth.Write); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":     outputFile,
		"timestep": t,
		"window":   o.Window.String(),
	}).Info("wrote interpolated water depth")
	return nil
}

func loadTerrain(path string) (*subgrid.Terrain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("subgrid: opening terrain: %v", err)
	}
	defer f.Close()
	return subgrid.LoadTerrain(f)
}

// readMesh reads the mesh shapefile at path, converting it to the
// spatial reference of t if t has one.
func readMesh(path string, t *subgrid.Terrain) (*subgrid.Mesh, error) {
	if t.Proj == "" {
		return subgrid.ReadMeshShapefile(path, nil)
	}
	sr, err := proj.Parse(t.Proj)
	if err != nil {
		return nil, fmt.Errorf("subgrid: terrain spatial reference: %v", err)
	}
	return subgrid.ReadMeshShapefile(path, sr)
}

func loadTimestep(path string, t int) (*subgrid.Timestep, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("subgrid: opening simulation: %v", err)
	}
	defer f.Close()
	return subgrid.LoadTimestep(f, t)
}

// writeFile creates the file at path and writes to it with write.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("subgrid: creating output file: %v", err)
	}
	if err = write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
