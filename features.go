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
	"encoding/json"
	"fmt"
	"io"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Feature is a GeoJSON point feature summarizing one solved cell.
type Feature struct {
	Type       string                 `json:"type"`
	ID         int                    `json:"id"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Point returns the location of the feature.
func (f *Feature) Point() (geom.Point, error) {
	if c, ok := f.Geometry.Coordinates.([]float64); ok && len(c) == 2 {
		return geom.Point{X: c[0], Y: c[1]}, nil
	}
	g, err := geojson.FromGeoJSON(f.Geometry)
	if err != nil {
		return geom.Point{}, fmt.Errorf("subgrid: feature %d: %v", f.ID, err)
	}
	p, ok := g.(geom.Point)
	if !ok {
		return geom.Point{}, fmt.Errorf("subgrid: feature %d has geometry type %s, not Point", f.ID, f.Geometry.Type)
	}
	return p, nil
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// SolvedProperty returns the name of the feature property holding the
// solved value for method m.
func SolvedProperty(m Method) string { return "subgrid_" + string(m) }

// ComputeFeatures solves every cell of timestep ts and returns one point
// feature per cell, in index order, located at the cell center. The solved property holds the level for the WaterLevel method
// and the mean depth over the cell window for WaterDepth. Cells with a
// *MaskedTable are marked "excluded" and have no solved property.
func ComputeFeatures(t *Terrain, mesh *Mesh, tables Tables, ts *Timestep, m Method) (*FeatureCollection, error) {
	if len(tables) != mesh.Len() {
		return nil, fmt.Errorf("subgrid: %d tables for %d mesh cells: %v", len(tables), mesh.Len(), ErrShape)
	}
	if mesh.Centers != nil && len(mesh.Centers) != mesh.Len() {
		return nil, fmt.Errorf("subgrid: mesh has %d faces and %d centers: %v",
			mesh.Len(), len(mesh.Centers), ErrShape)
	}
	if err := ts.check(len(tables)); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return nil, err
	}
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, len(tables)),
	}
	var excluded []int
	for i, tbl := range tables {
		g, err := geojson.ToGeoJSON(mesh.Center(i))
		if err != nil {
			return nil, fmt.Errorf("subgrid: feature %d: %v", i, err)
		}
		f := &Feature{
			Type:     "Feature",
			ID:       i,
			Geometry: g,
			Properties: map[string]interface{}{
				"s1":         ts.S1[i],
				"vol1":       ts.Vol1[i],
				"waterdepth": ts.waterDepth(i),
			},
		}
		fc.Features[i] = f

		vt, ok := tbl.(*VolumeTable)
		if !ok {
			f.Properties["excluded"] = true
			excluded = append(excluded, i)
			continue
		}
		s, err := Solve(vt, t, ts.Vol1[i], m)
		if err != nil {
			return nil, err
		}
		if m == WaterDepth {
			var mean float64
			if len(s.Depth) > 0 {
				mean = floats.Sum(s.Depth) / float64(len(s.Depth))
			}
			f.Properties[SolvedProperty(m)] = mean
		} else {
			f.Properties[SolvedProperty(m)] = s.Level
		}
	}
	if len(excluded) > 0 {
		Log.WithFields(logrus.Fields{
			"cells": excluded,
		}).Infof("skipped %d cells with masked terrain", len(excluded))
	}
	return fc, nil
}

// Write writes fc to w as GeoJSON.
func (fc *FeatureCollection) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	if err := e.Encode(fc); err != nil {
		return fmt.Errorf("subgrid: writing features: %v", err)
	}
	return nil
}

// ReadFeatures reads a GeoJSON feature collection from r.
func ReadFeatures(r io.Reader) (*FeatureCollection, error) {
	fc := new(FeatureCollection)
	if err := json.NewDecoder(r).Decode(fc); err != nil {
		return nil, fmt.Errorf("subgrid: reading features: %v", err)
	}
	return fc, nil
}
