/*
Copyright © 2020 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package lfric

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// wgs84WKT is written to the .prj file of shapefiles in longitude and
// latitude.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// WriteShapefile writes the horizontal faces of one layer of m to a
// shapefile, with one attribute column for each cell field. The mesh
// must have been built with a planar projection.
func WriteShapefile(path string, m *Mesh, layer int) error {
	if !isPlanar(m.Projection) {
		return fmt.Errorf("lfric: writing shapefile: projection %q is not planar", m.Projection)
	}
	if layer < 0 || layer >= m.NumLevels {
		return fmt.Errorf("lfric: writing shapefile: layer %d out of range [0, %d)", layer, m.NumLevels)
	}

	names := make([]string, 0, len(m.CellData))
	for n := range m.CellData {
		names = append(names, n)
	}
	sort.Strings(names)
	fields := make([]goshp.Field, len(names)+1)
	fields[0] = goshp.NumberField("face", 10)
	for i, n := range dbfNames(names) {
		fields[i+1] = goshp.FloatField(n, 14, 8)
	}

	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("lfric: creating shapefile: %v", err)
	}
	vals := make([]interface{}, len(fields))
	for f, ring := range m.Faces {
		poly := make(geom.Polygon, 1)
		poly[0] = make([]geom.Point, 0, len(ring)+1)
		for _, n := range ring {
			p := m.Points[m.PointIndex(layer, n)]
			poly[0] = append(poly[0], geom.Point{X: p.X, Y: p.Y})
		}
		poly[0] = append(poly[0], poly[0][0])

		vals[0] = f
		c := m.CellIndex(layer, f)
		for i, n := range names {
			vals[i+1] = m.CellData[n].Value(c)
		}
		if err := e.EncodeFields(poly, vals...); err != nil {
			e.Close()
			return fmt.Errorf("lfric: writing shapefile: %v", err)
		}
	}
	e.Close()

	if !strings.EqualFold(strings.TrimSpace(m.Projection), LonLat) && m.Projection != "" {
		return nil
	}
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("lfric: creating prj file: %v", err)
	}
	if _, err := fmt.Fprint(f, wgs84WKT); err != nil {
		f.Close()
		return fmt.Errorf("lfric: writing prj file: %v", err)
	}
	return f.Close()
}

// dbfNameLen is the longest column name a DBF header holds.
const dbfNameLen = 10

// dbfNames returns column names for the given fields, cut to dbfNameLen
// bytes and made unique with a "~N" suffix where cutting makes two
// names equal.
func dbfNames(names []string) []string {
	used := map[string]bool{"face": true}
	out := make([]string, len(names))
	for i, n := range names {
		c := cut(n, dbfNameLen)
		for k := 1; used[c]; k++ {
			suffix := fmt.Sprintf("~%d", k)
			c = cut(n, dbfNameLen-len(suffix)) + suffix
		}
		used[c] = true
		out[i] = c
	}
	return out
}

func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
