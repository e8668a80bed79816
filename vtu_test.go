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
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

type vtuFile struct {
	Piece struct {
		NumberOfPoints int `xml:"NumberOfPoints,attr"`
		NumberOfCells  int `xml:"NumberOfCells,attr"`
		CellData       struct {
			Arrays []vtuArray `xml:"DataArray"`
		}
		PointData struct {
			Arrays []vtuArray `xml:"DataArray"`
		}
		Cells struct {
			Arrays []vtuArray `xml:"DataArray"`
		}
	} `xml:"UnstructuredGrid>Piece"`
}

type vtuArray struct {
	Name string `xml:",attr"`
	Data string `xml:",chardata"`
}

func (a vtuArray) len() int { return len(strings.Fields(a.Data)) }

func TestWriteVTU(t *testing.T) {
	r := NewReader(writeFixture(t, fieldFile()))
	r.Fields = []string{"density", "wind"}
	m, err := r.RequestData(0)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := WriteVTU(&b, m); err != nil {
		t.Fatal(err)
	}

	var v vtuFile
	if err := xml.Unmarshal(b.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	p := v.Piece
	if p.NumberOfPoints != 88 || p.NumberOfCells != 30 {
		t.Errorf("have %d points and %d cells", p.NumberOfPoints, p.NumberOfCells)
	}
	if len(p.CellData.Arrays) != 1 || p.CellData.Arrays[0].Name != "density" || p.CellData.Arrays[0].len() != 30 {
		t.Errorf("cell data: %+v", p.CellData.Arrays)
	}
	if len(p.PointData.Arrays) != 1 || p.PointData.Arrays[0].len() != 88 {
		t.Errorf("point data: %+v", p.PointData.Arrays)
	}
	lengths := map[string]int{"connectivity": 30 * 8, "offsets": 30, "types": 30}
	for _, a := range p.Cells.Arrays {
		if a.len() != lengths[a.Name] {
			t.Errorf("%s: have %d values, want %d", a.Name, a.len(), lengths[a.Name])
		}
	}
	if !strings.Contains(b.String(), `Name="TimeValue"`) {
		t.Error("missing time value")
	}
}
