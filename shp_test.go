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
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

func TestWriteShapefile(t *testing.T) {
	r := NewReader(writeFixture(t, fieldFile()))
	r.Fields = []string{"theta", "orography"}
	m, err := r.RequestData(0)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "layer.shp")
	if err := WriteShapefile(path, m, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "layer.prj")); err != nil {
		t.Error(err)
	}

	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	n := 0
	for {
		g, fields, more := d.DecodeRowFields("theta", "orography")
		if !more {
			break
		}
		poly, ok := g.(geom.Polygon)
		if !ok || len(poly) != 1 {
			t.Fatalf("face %d: have geometry %#v", n, g)
		}
		theta, err := strconv.ParseFloat(strings.Trim(fields["theta"], " \x00"), 64)
		if err != nil {
			t.Fatal(err)
		}
		if theta != 1.5 {
			t.Errorf("face %d: theta is %g, want 1.5", n, theta)
		}
		n++
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if n != testFaces {
		t.Errorf("have %d faces, want %d", n, testFaces)
	}

	if err := WriteShapefile(path, m, 3); err == nil {
		t.Error("layer out of range should cause an error")
	}
	m.Projection = Sphere
	if err := WriteShapefile(path, m, 0); err == nil {
		t.Error("sphere projection should cause an error")
	}
}

func TestDBFNames(t *testing.T) {
	have := dbfNames([]string{"face", "theta", "theta_level_1", "theta_level_2", "theta_leve"})
	want := []string{"face~1", "theta", "theta_leve", "theta_le~1", "theta_le~2"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestWriteShapefileLongNames(t *testing.T) {
	r := NewReader(writeFixture(t, fieldFile()))
	r.Fields = []string{"theta"}
	m, err := r.RequestData(0)
	if err != nil {
		t.Fatal(err)
	}
	theta, _ := m.Field("theta")
	for _, n := range []string{"theta_level_1", "theta_level_2"} {
		if err := m.AddField(&Field{Name: n, Association: CellData, Values: theta.Values}); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "long.shp")
	if err := WriteShapefile(path, m, 1); err != nil {
		t.Fatal(err)
	}
	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	columns := []string{"theta", "theta_leve", "theta_le~1"}
	_, fields, more := d.DecodeRowFields(columns...)
	if !more {
		t.Fatal("no rows")
	}
	for _, c := range columns {
		v, err := strconv.ParseFloat(strings.Trim(fields[c], " \x00"), 64)
		if err != nil {
			t.Fatalf("%s: %v", c, err)
		}
		if v != 1.5 {
			t.Errorf("%s: have %g, want 1.5", c, v)
		}
	}
}
