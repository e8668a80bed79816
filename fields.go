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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/lfric/ncfile"
)

// layout describes how the values of a variable map onto the mesh.
type layout struct {
	assoc       Association
	timeVarying bool

	// vertical is the vertical dimension, or "" if the variable has
	// the same value on every level.
	vertical   string
	horizontal string

	// horizontalFirst is true if the horizontal dimension comes before
	// the vertical one.
	horizontalFirst bool

	// average is true for face values on full levels, which are averaged
	// to the layers between them.
	average bool
}

// classify works out the layout of a variable from its dimensions.
func classify(dims []string, c *Conventions) (layout, error) {
	var l layout
	if len(dims) > 0 && dims[0] == c.TimeDimension {
		l.timeVarying = true
		dims = dims[1:]
	}
	for _, d := range dims {
		if d == c.TimeDimension {
			return l, fmt.Errorf("%w: time dimension %s must be the outermost dimension",
				ErrUnsupportedDimensionality, d)
		}
	}
	isHorizontal := func(d string) bool { return d == c.FaceDimension || d == c.NodeDimension }
	isVertical := func(d string) bool { return d == c.FullLevelsDimension || d == c.HalfLevelsDimension }

	switch {
	case len(dims) == 1 && isHorizontal(dims[0]):
		l.horizontal = dims[0]
	case len(dims) == 2 && isVertical(dims[0]) && isHorizontal(dims[1]):
		l.vertical, l.horizontal = dims[0], dims[1]
	case len(dims) == 2 && isHorizontal(dims[0]) && isVertical(dims[1]):
		l.horizontal, l.vertical = dims[0], dims[1]
		l.horizontalFirst = true
	default:
		return l, fmt.Errorf("%w: %v", ErrUnsupportedDimensionality, dims)
	}

	if l.horizontal == c.FaceDimension {
		l.assoc = CellData
		l.average = l.vertical == c.FullLevelsDimension
		return l, nil
	}
	l.assoc = PointData
	if l.vertical == c.HalfLevelsDimension {
		return l, fmt.Errorf("%w: node values on half levels (%v) have no matching mesh entity",
			ErrUnsupportedDimensionality, dims)
	}
	return l, nil
}

// isCoordinate reports whether variable v describes the mesh or the
// time axis rather than holding field values.
func isCoordinate(f *ncfile.File, c *Conventions, v string) bool {
	switch v {
	case c.MeshVariable, c.NodeX, c.NodeY, c.FaceNodes, c.VerticalCoordinate,
		c.TimeVariable, c.TimeDimension, c.FullLevelsDimension, c.HalfLevelsDimension:
		return true
	}
	if _, ok := f.Attribute(v, "cf_role"); ok {
		return true
	}
	return false
}

// FieldInfo describes a variable that can be loaded as a field.
type FieldInfo struct {
	Name        string
	Association Association
	Units       string
	LongName    string
	TimeVarying bool
}

// ListFields returns the variables in f that can be loaded as fields,
// sorted by name. Variables with unsupported dimensions are left out.
func ListFields(f *ncfile.File, c *Conventions) []FieldInfo {
	return listFields(f, c.resolve(f, discard))
}

func listFields(f *ncfile.File, c *Conventions) []FieldInfo {
	var o []FieldInfo
	for _, v := range f.Variables() {
		if isCoordinate(f, c, v) {
			continue
		}
		dims, err := f.VariableDimensions(v)
		if err != nil {
			continue
		}
		l, err := classify(dims, c)
		if err != nil {
			continue
		}
		o = append(o, fieldInfo(f, v, l))
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Name < o[j].Name })
	return o
}

func fieldInfo(f *ncfile.File, name string, l layout) FieldInfo {
	fi := FieldInfo{Name: name, Association: l.assoc, TimeVarying: l.timeVarying}
	fi.Units, _ = f.AttributeString(name, "units")
	fi.LongName, _ = f.AttributeString(name, "long_name")
	return fi
}

// LoadField reads the values of variable name at time index step and
// attaches them to m. m must have been built from f with the same
// conventions. Variables without a time dimension are the same at
// every step.
func LoadField(f *ncfile.File, m *Mesh, c *Conventions, name string, step int) (*Field, error) {
	fld, err := readField(f, m, c.resolve(f, discard), name, step)
	if err != nil {
		return nil, err
	}
	if err := m.AddField(fld); err != nil {
		return nil, err
	}
	return fld, nil
}

// checkStep makes sure step is a valid time index for f.
func checkStep(f *ncfile.File, c *Conventions, step int) error {
	n := 1
	if f.HasDimension(c.TimeDimension) {
		var err error
		if n, err = f.DimensionSize(c.TimeDimension); err != nil {
			return err
		}
	}
	if step < 0 || step >= n {
		return fmt.Errorf("lfric: %w: step %d; the file has %d time steps", ErrTimeIndexOutOfRange, step, n)
	}
	return nil
}

// readField reads a field without attaching it to the mesh.
func readField(f *ncfile.File, m *Mesh, c *Conventions, name string, step int) (*Field, error) {
	if !f.HasVariable(name) || isCoordinate(f, c, name) {
		return nil, fmt.Errorf("lfric: %w: %s", ErrFieldNotFound, name)
	}
	if err := checkStep(f, c, step); err != nil {
		return nil, fmt.Errorf("lfric: field %s: %w", name, err)
	}
	dims, err := f.VariableDimensions(name)
	if err != nil {
		return nil, err
	}
	l, err := classify(dims, c)
	if err != nil {
		return nil, fmt.Errorf("lfric: field %s: %w", name, err)
	}
	shape, err := f.VariableShape(name)
	if err != nil {
		return nil, err
	}
	start := make([]int, len(shape))
	count := append([]int(nil), shape...)
	if l.timeVarying {
		start[0], count[0] = step, 1
		shape = shape[1:]
	}
	v, err := f.ReadFloat64(name, start, count)
	if err != nil {
		return nil, fmt.Errorf("lfric: field %s: %w", name, err)
	}
	for _, att := range []string{"_FillValue", "missing_value"} {
		if fill, ok := f.AttributeFloat64(name, att); ok {
			for i, x := range v {
				if x == fill {
					v[i] = math.NaN()
				}
			}
		}
	}

	// Horizontal and vertical sizes on file.
	nh, nv := shape[0], 1
	if l.vertical != "" {
		if l.horizontalFirst {
			nh, nv = shape[0], shape[1]
		} else {
			nv, nh = shape[0], shape[1]
		}
	}
	get := func(k, h int) float64 {
		if l.vertical == "" {
			return v[h]
		}
		if l.horizontalFirst {
			return v[h*nv+k]
		}
		return v[k*nh+h]
	}

	wantH, levels := m.NumFaces2D, m.NumLevels
	if l.assoc == PointData {
		wantH, levels = m.NumNodes2D, m.NumLevels+1
	}
	wantV := levels
	if l.average {
		wantV = m.NumLevels + 1
	}
	if nh != wantH || (l.vertical != "" && nv != wantV) {
		return nil, fmt.Errorf("lfric: field %s: %w: shape %v does not match a mesh with %d layers, %d faces and %d nodes",
			name, ncfile.ErrShapeMismatch, shape, m.NumLevels, m.NumFaces2D, m.NumNodes2D)
	}

	fld := &Field{
		Name:        name,
		Association: l.assoc,
		Values:      sparse.ZerosDense(levels, nh),
	}
	info := fieldInfo(f, name, l)
	fld.Units, fld.LongName = info.Units, info.LongName
	for k := 0; k < levels; k++ {
		for h := 0; h < nh; h++ {
			var x float64
			switch {
			case l.vertical == "":
				x = get(0, h)
			case l.average:
				x = (get(k, h) + get(k+1, h)) / 2
			default:
				x = get(k, h)
			}
			fld.Values.Set(x, k, h)
		}
	}
	return fld, nil
}
