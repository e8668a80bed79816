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

// Package ncfile provides read-only access to the dimensions, attributes and
// variables of netCDF files. Classic (CDF-1 and CDF-2) files are read with
// github.com/ctessum/cdf; CDF-5 and netCDF-4 (HDF5) files are read with
// github.com/batchatco/go-native-netcdf. Files ending in ".gz" or ".zst" are
// decompressed into memory before being opened.
//
// Variables are read as hyperslabs: a start corner and an extent (count) for
// every dimension of the variable. Values are widened to float64, or to
// uint64 for index (connectivity) variables.
package ncfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Errors returned by this package. They are wrapped with context, so
// check for them with errors.Is.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFormat            = errors.New("not a recognized netCDF file")
	ErrDimensionNotFound = errors.New("dimension not found")
	ErrVariableNotFound  = errors.New("variable not found")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrType              = errors.New("unsupported variable type")
)

// MissingIndex is returned by ReadIndices in place of negative values and
// values equal to the variable's _FillValue.
const MissingIndex uint64 = math.MaxUint64

// Format identifies the on-disk layout of a file.
type Format int

// These are the supported file formats.
const (
	Classic Format = iota + 1 // CDF-1 or CDF-2 (64-bit offset)
	CDF5                      // CDF-5 (64-bit data)
	NetCDF4                   // HDF5-based netCDF-4
)

func (f Format) String() string {
	switch f {
	case Classic:
		return "classic"
	case CDF5:
		return "cdf5"
	case NetCDF4:
		return "netcdf4"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// backend is implemented by the format-specific readers.
type backend interface {
	dimensions() []string
	dimensionSize(name string) (int, bool)
	variables() []string
	// variableDimensions returns false if the variable does not exist.
	variableDimensions(name string) ([]string, bool)
	attribute(varName, attName string) (interface{}, bool)
	// read reads the hyperslab of variable name described by start and
	// count. shape holds the full extent of every dimension, and
	// start and count have already been checked against it.
	read(name string, shape, start, count []int) (*column, error)
	close() error
}

// File is an open, read-only netCDF file.
type File struct {
	// Path is the location the file was opened from.
	Path string

	// Format is the on-disk layout of the file.
	Format Format

	b backend
}

// Open opens the netCDF file at path for reading. The caller must call
// Close when finished with the file.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("ncfile: opening %s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("ncfile: opening %s: %v", path, err)
	}

	src, size, err := openSource(path)
	if err != nil {
		return nil, fmt.Errorf("ncfile: opening %s: %w", path, err)
	}

	format, err := sniff(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("ncfile: opening %s: %w", path, err)
	}

	var b backend
	switch format {
	case Classic:
		b, err = openClassic(src, size)
	case CDF5, NetCDF4:
		b, err = openNative(src)
	}
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("ncfile: opening %s: %w: %v", path, ErrFormat, err)
	}
	return &File{Path: path, Format: format, b: b}, nil
}

// sniff determines the file format from its magic number.
func sniff(r io.ReaderAt) (Format, error) {
	var magic [4]byte
	if n, err := r.ReadAt(magic[:], 0); n < len(magic) {
		if err == nil || err == io.EOF {
			return 0, ErrFormat
		}
		return 0, err
	}
	switch {
	case magic[0] == 'C' && magic[1] == 'D' && magic[2] == 'F':
		switch magic[3] {
		case 1, 2:
			return Classic, nil
		case 5:
			return CDF5, nil
		}
	case magic[0] == 0x89 && magic[1] == 'H' && magic[2] == 'D' && magic[3] == 'F':
		return NetCDF4, nil
	}
	return 0, ErrFormat
}

// Close releases the resources held by the file.
func (f *File) Close() error {
	if f.b == nil {
		return nil
	}
	err := f.b.close()
	f.b = nil
	return err
}

// Dimensions returns the names of all dimensions in the file.
func (f *File) Dimensions() []string { return f.b.dimensions() }

// Variables returns the names of all variables in the file.
func (f *File) Variables() []string { return f.b.variables() }

// HasDimension returns whether the file contains the named dimension.
func (f *File) HasDimension(name string) bool {
	_, ok := f.b.dimensionSize(name)
	return ok
}

// HasVariable returns whether the file contains the named variable.
func (f *File) HasVariable(name string) bool {
	_, ok := f.b.variableDimensions(name)
	return ok
}

// DimensionSize returns the length of the named dimension. For the
// unlimited dimension it returns the number of records in the file.
func (f *File) DimensionSize(name string) (int, error) {
	n, ok := f.b.dimensionSize(name)
	if !ok {
		return 0, fmt.Errorf("ncfile: %s: %w: %s", f.Path, ErrDimensionNotFound, name)
	}
	return n, nil
}

// VariableDimensions returns the names of the dimensions of variable name,
// outermost first.
func (f *File) VariableDimensions(name string) ([]string, error) {
	dims, ok := f.b.variableDimensions(name)
	if !ok {
		return nil, fmt.Errorf("ncfile: %s: %w: %s", f.Path, ErrVariableNotFound, name)
	}
	return dims, nil
}

// VariableShape returns the length of every dimension of variable name.
func (f *File) VariableShape(name string) ([]int, error) {
	dims, err := f.VariableDimensions(name)
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		n, ok := f.b.dimensionSize(d)
		if !ok {
			return nil, fmt.Errorf("ncfile: %s: variable %s: %w: %s", f.Path, name, ErrDimensionNotFound, d)
		}
		shape[i] = n
	}
	return shape, nil
}

// ReadFloat64 reads the hyperslab of variable name that begins at start
// and extends count elements along each dimension. If both start and
// count are nil, the whole variable is read. Values of any numeric type
// are converted to float64 and returned in row-major order.
func (f *File) ReadFloat64(name string, start, count []int) ([]float64, error) {
	c, err := f.readColumn(name, start, count)
	if err != nil {
		return nil, err
	}
	return c.float64s(), nil
}

// ReadIndices is like ReadFloat64 but is intended for connectivity and
// other index variables. Integer values are widened to uint64; negative
// values and values equal to the variable's _FillValue are returned as
// MissingIndex.
func (f *File) ReadIndices(name string, start, count []int) ([]uint64, error) {
	c, err := f.readColumn(name, start, count)
	if err != nil {
		return nil, err
	}
	fill, hasFill := f.AttributeFloat64(name, "_FillValue")
	return c.uint64s(fill, hasFill), nil
}

func (f *File) readColumn(name string, start, count []int) (*column, error) {
	shape, err := f.VariableShape(name)
	if err != nil {
		return nil, err
	}
	if start == nil && count == nil {
		start = make([]int, len(shape))
		count = append([]int(nil), shape...)
	}
	if err := checkSlab(shape, start, count); err != nil {
		return nil, fmt.Errorf("ncfile: %s: reading %s: %w", f.Path, name, err)
	}
	c, err := f.b.read(name, shape, start, count)
	if err != nil {
		if errors.Is(err, ErrType) {
			return nil, fmt.Errorf("ncfile: %s: reading %s: %w", f.Path, name, err)
		}
		return nil, fmt.Errorf("ncfile: %s: reading %s: %v", f.Path, name, err)
	}
	return c, nil
}
