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
	"testing"
)

func TestLoadConventions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conventions.toml")
	const file = `
MeshVariable = "Mesh0"
TimeDimension = "time"
TimeVariable = "time"
Projection = "sphere"
SphereRadius = 6371000.0
`
	if err := os.WriteFile(path, []byte(file), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConventions(path)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConventions()
	want.MeshVariable = "Mesh0"
	want.TimeDimension = "time"
	want.TimeVariable = "time"
	want.Projection = Sphere
	want.SphereRadius = 6371000
	if *c != *want {
		t.Errorf("have %+v\nwant %+v", c, want)
	}

	if _, err := LoadConventions(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should cause an error")
	}
}
