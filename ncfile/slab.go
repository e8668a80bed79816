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
	"math"
	"reflect"
)

// checkSlab makes sure that start and count describe a hyperslab
// that lies within shape.
func checkSlab(shape, start, count []int) error {
	if len(start) != len(shape) || len(count) != len(shape) {
		return fmt.Errorf("%w: variable has rank %d but start has length %d and count has length %d",
			ErrShapeMismatch, len(shape), len(start), len(count))
	}
	for i := range shape {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > shape[i] {
			return fmt.Errorf("%w: dimension %d: start %d and count %d exceed length %d",
				ErrShapeMismatch, i, start[i], count[i], shape[i])
		}
	}
	return nil
}

// slabLen returns the number of elements in a hyperslab.
func slabLen(count []int) int {
	n := 1
	for _, c := range count {
		n *= c
	}
	return n
}

// forEachRun splits a hyperslab into runs of elements that are contiguous
// in row-major order and calls fn with the first and last (inclusive)
// corner of each run. Dimensions before minSplit are never merged into a
// run, so each run lies within a single index of those dimensions.
func forEachRun(shape, start, count []int, minSplit int, fn func(begin, end []int) error) error {
	rank := len(shape)
	if rank == 0 {
		return fn(nil, nil)
	}
	if slabLen(count) == 0 {
		return nil
	}
	k := rank - 1
	for k > minSplit && start[k] == 0 && count[k] == shape[k] {
		k--
	}
	idx := append([]int(nil), start[:k]...)
	for {
		begin := make([]int, rank)
		end := make([]int, rank)
		copy(begin, idx)
		copy(end, idx)
		begin[k] = start[k]
		end[k] = start[k] + count[k] - 1
		for j := k + 1; j < rank; j++ {
			end[j] = shape[j] - 1
		}
		if err := fn(begin, end); err != nil {
			return err
		}

		// Advance the outer index.
		j := k - 1
		for ; j >= 0; j-- {
			idx[j]++
			if idx[j] < start[j]+count[j] {
				break
			}
			idx[j] = start[j]
		}
		if j < 0 {
			return nil
		}
	}
}

// slabOffsets returns the row-major offsets, within an array of the given
// shape, of every element of the hyperslab.
func slabOffsets(shape, start, count []int) []int {
	offsets := make([]int, 0, slabLen(count))
	if len(shape) == 0 {
		return append(offsets, 0)
	}
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	var walk func(dim, base int)
	walk = func(dim, base int) {
		if dim == len(shape) {
			offsets = append(offsets, base)
			return
		}
		for i := start[dim]; i < start[dim]+count[dim]; i++ {
			walk(dim+1, base+i*strides[dim])
		}
	}
	walk(0, 0)
	return offsets
}

// column holds values read from a variable. Integer variables fill
// ints and floating point variables fill floats.
type column struct {
	isFloat bool
	floats  []float64
	ints    []int64
}

// add appends raw values to c. raw may be a slice or a scalar of any
// numeric Go type, or a nested slice of them.
func (c *column) add(raw interface{}) error {
	switch v := raw.(type) {
	case []float64:
		c.isFloat = true
		c.floats = append(c.floats, v...)
	case []float32:
		c.isFloat = true
		for _, x := range v {
			c.floats = append(c.floats, float64(x))
		}
	case []uint8:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []int8:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []int16:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []uint16:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []int32:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []uint32:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	case []int64:
		c.ints = append(c.ints, v...)
	case []uint64:
		for _, x := range v {
			c.ints = append(c.ints, int64(x))
		}
	default:
		return c.addReflect(reflect.ValueOf(raw))
	}
	return nil
}

// addReflect handles scalars and nested slices.
func (c *column) addReflect(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := c.add(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface:
		return c.addReflect(v.Elem())
	case reflect.Float32, reflect.Float64:
		c.isFloat = true
		c.floats = append(c.floats, v.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c.ints = append(c.ints, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		c.ints = append(c.ints, int64(v.Uint()))
	default:
		return fmt.Errorf("%w: %s", ErrType, v.Type())
	}
	return nil
}

func (c *column) len() int {
	if c.isFloat {
		return len(c.floats)
	}
	return len(c.ints)
}

// pick returns a new column holding the elements at the given offsets.
func (c *column) pick(offsets []int) *column {
	o := &column{isFloat: c.isFloat}
	if c.isFloat {
		o.floats = make([]float64, len(offsets))
		for i, j := range offsets {
			o.floats[i] = c.floats[j]
		}
		return o
	}
	o.ints = make([]int64, len(offsets))
	for i, j := range offsets {
		o.ints[i] = c.ints[j]
	}
	return o
}

func (c *column) float64s() []float64 {
	if c.isFloat {
		if c.floats == nil {
			return []float64{}
		}
		return c.floats
	}
	out := make([]float64, len(c.ints))
	for i, v := range c.ints {
		out[i] = float64(v)
	}
	return out
}

func (c *column) uint64s(fill float64, hasFill bool) []uint64 {
	out := make([]uint64, c.len())
	for i := range out {
		var v float64
		if c.isFloat {
			v = c.floats[i]
		} else {
			v = float64(c.ints[i])
		}
		if v < 0 || math.IsNaN(v) || (hasFill && v == fill) {
			out[i] = MissingIndex
			continue
		}
		if c.isFloat {
			out[i] = uint64(v)
		} else {
			out[i] = uint64(c.ints[i])
		}
	}
	return out
}
