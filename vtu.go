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
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// WriteVTU writes m to w as a VTK XML unstructured grid in ASCII format,
// with one data array per field. The time of the step, if any, is
// stored as the TimeValue field data array.
func WriteVTU(w io.Writer, m *Mesh) error {
	b := bufio.NewWriter(w)
	p := &vtuPrinter{w: b}

	p.printf("<?xml version=\"1.0\"?>\n")
	p.printf("<VTKFile type=\"UnstructuredGrid\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt64\">\n")
	p.printf("  <UnstructuredGrid>\n")
	if !math.IsNaN(m.Time) {
		p.printf("    <FieldData>\n")
		p.printf("      <DataArray type=\"Float64\" Name=\"TimeValue\" NumberOfTuples=\"1\" format=\"ascii\">\n")
		p.floats([]float64{m.Time})
		p.printf("      </DataArray>\n")
		p.printf("    </FieldData>\n")
	}
	p.printf("    <Piece NumberOfPoints=\"%d\" NumberOfCells=\"%d\">\n", len(m.Points), len(m.Cells))

	p.fields("PointData", m.PointData)
	p.fields("CellData", m.CellData)

	p.printf("      <Points>\n")
	p.printf("        <DataArray type=\"Float64\" NumberOfComponents=\"3\" format=\"ascii\">\n")
	xyz := make([]float64, 0, 3*len(m.Points))
	for _, pt := range m.Points {
		xyz = append(xyz, pt.X, pt.Y, pt.Z)
	}
	p.floats(xyz)
	p.printf("        </DataArray>\n")
	p.printf("      </Points>\n")

	conn := make([]int, 0, 8*len(m.Cells))
	offsets := make([]int, len(m.Cells))
	types := make([]int, len(m.Cells))
	for i, c := range m.Cells {
		conn = append(conn, c.Points...)
		offsets[i] = len(conn)
		types[i] = int(c.Type)
	}
	p.printf("      <Cells>\n")
	p.printf("        <DataArray type=\"Int64\" Name=\"connectivity\" format=\"ascii\">\n")
	p.ints(conn)
	p.printf("        </DataArray>\n")
	p.printf("        <DataArray type=\"Int64\" Name=\"offsets\" format=\"ascii\">\n")
	p.ints(offsets)
	p.printf("        </DataArray>\n")
	p.printf("        <DataArray type=\"UInt8\" Name=\"types\" format=\"ascii\">\n")
	p.ints(types)
	p.printf("        </DataArray>\n")
	p.printf("      </Cells>\n")

	p.printf("    </Piece>\n")
	p.printf("  </UnstructuredGrid>\n")
	p.printf("</VTKFile>\n")
	if p.err != nil {
		return fmt.Errorf("lfric: writing VTU: %v", p.err)
	}
	if err := b.Flush(); err != nil {
		return fmt.Errorf("lfric: writing VTU: %v", err)
	}
	return nil
}

// vtuPrinter keeps the first write error.
type vtuPrinter struct {
	w   *bufio.Writer
	err error
}

func (p *vtuPrinter) printf(format string, a ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func (p *vtuPrinter) fields(section string, fields map[string]*Field) {
	if len(fields) == 0 {
		return
	}
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	p.printf("      <%s Scalars=\"%s\">\n", section, escape(names[0]))
	for _, n := range names {
		p.printf("        <DataArray type=\"Float64\" Name=\"%s\" format=\"ascii\">\n", escape(n))
		p.floats(fields[n].Values.Elements)
		p.printf("        </DataArray>\n")
	}
	p.printf("      </%s>\n", section)
}

const vtuPerLine = 6

func (p *vtuPrinter) floats(v []float64) {
	buf := make([]byte, 0, 32)
	for i, x := range v {
		if i%vtuPerLine == 0 {
			p.printf("          ")
		}
		buf = strconv.AppendFloat(buf[:0], x, 'g', -1, 64)
		p.printf("%s", buf)
		if i%vtuPerLine == vtuPerLine-1 || i == len(v)-1 {
			p.printf("\n")
		} else {
			p.printf(" ")
		}
	}
}

func (p *vtuPrinter) ints(v []int) {
	for i, x := range v {
		if i%vtuPerLine == 0 {
			p.printf("          ")
		}
		p.printf("%d", x)
		if i%vtuPerLine == vtuPerLine-1 || i == len(v)-1 {
			p.printf("\n")
		} else {
			p.printf(" ")
		}
	}
}

func escape(s string) string {
	var b xmlBuffer
	xml.EscapeText(&b, []byte(s))
	return string(b)
}

type xmlBuffer []byte

func (b *xmlBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}
