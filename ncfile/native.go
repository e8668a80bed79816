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

package ncfile

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// dimensioner is implemented by the go-native-netcdf CDF and HDF5 groups.
type dimensioner interface {
	ListDimensions() []string
	GetDimension(name string) (uint64, bool)
}

// native reads CDF-5 and netCDF-4 files.
type native struct {
	g    api.Group
	dims dimensioner
}

func openNative(src source) (*native, error) {
	g, err := netcdf.New(src)
	if err != nil {
		return nil, err
	}
	d, ok := g.(dimensioner)
	if !ok {
		g.Close()
		return nil, fmt.Errorf("group type %T does not report dimensions", g)
	}
	return &native{g: g, dims: d}, nil
}

func (n *native) dimensions() []string { return n.dims.ListDimensions() }

func (n *native) dimensionSize(name string) (int, bool) {
	size, ok := n.dims.GetDimension(name)
	if !ok {
		return 0, false
	}
	if size == 0 {
		// The unlimited dimension reports zero; use the length of a
		// variable that has it as its outermost dimension instead.
		for _, v := range n.g.ListVariables() {
			vg, err := n.g.GetVarGetter(v)
			if err != nil {
				continue
			}
			if d := vg.Dimensions(); len(d) > 0 && d[0] == name {
				return int(vg.Len()), true
			}
		}
	}
	return int(size), true
}

func (n *native) variables() []string { return n.g.ListVariables() }

func (n *native) variableDimensions(name string) ([]string, bool) {
	vg, err := n.g.GetVarGetter(name)
	if err != nil {
		return nil, false
	}
	dims := vg.Dimensions()
	if dims == nil {
		dims = []string{}
	}
	return dims, true
}

func (n *native) attribute(varName, attName string) (interface{}, bool) {
	var attrs api.AttributeMap
	if varName == "" {
		attrs = n.g.Attributes()
	} else {
		vg, err := n.g.GetVarGetter(varName)
		if err != nil {
			return nil, false
		}
		attrs = vg.Attributes()
	}
	if attrs == nil {
		return nil, false
	}
	return attrs.Get(attName)
}

func (n *native) read(name string, shape, start, count []int) (*column, error) {
	vg, err := n.g.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	col := new(column)
	if len(shape) == 0 {
		v, err := vg.Values()
		if err != nil {
			return nil, err
		}
		if err := col.add(v); err != nil {
			return nil, err
		}
		return col, nil
	}
	if slabLen(count) == 0 {
		switch vg.GoType() {
		case "float32", "float64":
			col.isFloat = true
		}
		return col, nil
	}

	// The library slices along the outermost dimension only; the inner
	// dimensions are cut out of the returned block.
	raw, err := vg.GetSlice(int64(start[0]), int64(start[0]+count[0]))
	if err != nil {
		return nil, err
	}
	if err := col.add(raw); err != nil {
		return nil, err
	}
	blockShape := append([]int{count[0]}, shape[1:]...)
	if col.len() != slabLen(blockShape) {
		return nil, fmt.Errorf("%w: read %d values from %s but expected %d",
			ErrShapeMismatch, col.len(), name, slabLen(blockShape))
	}
	blockStart := append([]int{0}, start[1:]...)
	for i := 1; i < len(shape); i++ {
		if start[i] != 0 || count[i] != shape[i] {
			return col.pick(slabOffsets(blockShape, blockStart, count)), nil
		}
	}
	return col, nil
}

func (n *native) close() error {
	n.g.Close()
	return nil
}
