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

// Package subgrid maps the water volumes of coarse unstructured mesh cells
// onto a fine terrain raster. For every cell, the terrain pixels under it
// are histogrammed once into a table relating volume to water level.
// The tables are then inverted for each simulated timestep to find the
// water level of every cell and the water depth of every pixel.
package subgrid

// Version gives the version number.
const Version = "0.1.0"

// TableDataVersion is the version of the table container format.
// Containers with a different version cannot be read.
const TableDataVersion = "1.0.0"
