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
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/lfric/ncfile"
	"gonum.org/v1/gonum/floats"
)

// CellType is a volume cell type, numbered as in VTK.
type CellType uint8

// Cell types produced by extruding a horizontal face.
const (
	Hexahedron      CellType = 12
	Wedge           CellType = 13
	PentagonalPrism CellType = 15
	HexagonalPrism  CellType = 16
)

func (t CellType) String() string {
	switch t {
	case Hexahedron:
		return "hexahedron"
	case Wedge:
		return "wedge"
	case PentagonalPrism:
		return "pentagonal prism"
	case HexagonalPrism:
		return "hexagonal prism"
	default:
		return fmt.Sprintf("CellType(%d)", uint8(t))
	}
}

// cellTypeForRing returns the cell type of a face with n nodes extruded
// through one layer.
func cellTypeForRing(n int) (CellType, bool) {
	switch n {
	case 3:
		return Wedge, true
	case 4:
		return Hexahedron, true
	case 5:
		return PentagonalPrism, true
	case 6:
		return HexagonalPrism, true
	}
	return 0, false
}

// Point is a mesh vertex.
type Point struct {
	X, Y, Z float64
}

// Cell is a volume cell. Points holds indices into Mesh.Points: the
// ring of the lower level first, then the ring of the upper level.
type Cell struct {
	Type   CellType
	Points []int
}

// Association tells whether a field has a value per point or per cell.
type Association int

// Field associations.
const (
	PointData Association = iota
	CellData
)

func (a Association) String() string {
	if a == CellData {
		return "cell"
	}
	return "point"
}

// Field holds the values of a variable for one time step.
type Field struct {
	Name        string
	Association Association
	Units       string
	LongName    string

	// Values is shaped [levels, horizontal]. For cell data there is one
	// level per layer and one horizontal entry per face; for point data
	// there is one level per full level and one entry per node. Missing
	// values are NaN.
	Values *sparse.DenseArray
}

// Len returns the number of values.
func (f *Field) Len() int { return len(f.Values.Elements) }

// Value returns the value for the point or cell with index i in the mesh.
func (f *Field) Value(i int) float64 { return f.Values.Elements[i] }

func (f *Field) finite() []float64 {
	o := make([]float64, 0, len(f.Values.Elements))
	for _, v := range f.Values.Elements {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			o = append(o, v)
		}
	}
	return o
}

// Range returns the smallest and largest non-missing values.
// Both are NaN if every value is missing.
func (f *Field) Range() (min, max float64) {
	v := f.finite()
	if len(v) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(v), floats.Max(v)
}

// Mean returns the average of the non-missing values.
func (f *Field) Mean() float64 {
	v := f.finite()
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Sum(v) / float64(len(v))
}

// Mesh is a horizontal UGRID mesh extruded through the model levels.
//
// Points and cells are stored level by level: the point for node n on
// full level k has index k*NumNodes2D+n and the cell for face f in layer k
// has index k*NumFaces2D+f.
type Mesh struct {
	Points []Point
	Cells  []Cell

	NumNodes2D int
	NumFaces2D int

	// NumLevels is the number of layers. There are NumLevels+1 full levels.
	NumLevels int

	// Heights holds the scaled vertical coordinate of each full level.
	Heights []float64

	// Faces holds the 0-based node indices of each horizontal face.
	Faces [][]int

	// NodeX and NodeY are the horizontal node coordinates as stored in
	// the file.
	NodeX, NodeY []float64

	// Projection is the projection used to compute Points.
	Projection string

	PointData map[string]*Field
	CellData  map[string]*Field

	// Step and Time identify the time step the fields belong to.
	// Time is NaN for files without a time dimension.
	Step int
	Time float64
}

// PointIndex returns the index of the point for node n on full level k.
func (m *Mesh) PointIndex(k, n int) int { return k*m.NumNodes2D + n }

// CellIndex returns the index of the cell for face f in layer k.
func (m *Mesh) CellIndex(k, f int) int { return k*m.NumFaces2D + f }

// AddField attaches f to the mesh, replacing any field of the same name
// and association.
func (m *Mesh) AddField(f *Field) error {
	var want int
	var dst map[string]*Field
	switch f.Association {
	case PointData:
		want = len(m.Points)
		if m.PointData == nil {
			m.PointData = make(map[string]*Field)
		}
		dst = m.PointData
	case CellData:
		want = len(m.Cells)
		if m.CellData == nil {
			m.CellData = make(map[string]*Field)
		}
		dst = m.CellData
	default:
		return fmt.Errorf("lfric: field %s: invalid association %d", f.Name, f.Association)
	}
	if f.Len() != want {
		return fmt.Errorf("lfric: field %s: %w: %d values for %d %s entities",
			f.Name, ncfile.ErrShapeMismatch, f.Len(), want, f.Association)
	}
	dst[f.Name] = f
	return nil
}

// Field returns the named field, looking first in the cell data.
func (m *Mesh) Field(name string) (*Field, bool) {
	if f, ok := m.CellData[name]; ok {
		return f, true
	}
	f, ok := m.PointData[name]
	return f, ok
}

// FieldNames returns the names of all attached fields in sorted order.
func (m *Mesh) FieldNames() []string {
	var names []string
	for n := range m.CellData {
		names = append(names, n)
	}
	for n := range m.PointData {
		if _, ok := m.CellData[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Bounds returns the horizontal extent of the points.
func (m *Mesh) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range m.Points {
		b.Extend(geom.NewBoundsPoint(geom.Point{X: p.X, Y: p.Y}))
	}
	return b
}

// ZRange returns the smallest and largest point height.
func (m *Mesh) ZRange() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range m.Points {
		min = math.Min(min, p.Z)
		max = math.Max(max, p.Z)
	}
	return
}

// withFields returns a copy of m that shares the topology of m but has
// its own, empty, field maps.
func (m *Mesh) withFields() *Mesh {
	o := *m
	o.PointData = make(map[string]*Field)
	o.CellData = make(map[string]*Field)
	o.Time = math.NaN()
	return &o
}
