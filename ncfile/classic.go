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
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// classic reads CDF-1 and CDF-2 files.
type classic struct {
	f       *cdf.File
	src     io.Closer
	numRecs int
}

func openClassic(src source, size int64) (*classic, error) {
	f, err := cdf.Open(src)
	if err != nil {
		return nil, err
	}
	return &classic{
		f:       f,
		src:     src,
		numRecs: int(f.Header.NumRecs(size)),
	}, nil
}

func (c *classic) dimensions() []string { return c.f.Header.Dimensions("") }

func (c *classic) dimensionSize(name string) (int, bool) {
	lengths := c.f.Header.Lengths("")
	for i, d := range c.f.Header.Dimensions("") {
		if d != name {
			continue
		}
		if lengths[i] == 0 { // record dimension
			return c.numRecs, true
		}
		return lengths[i], true
	}
	return 0, false
}

func (c *classic) variables() []string { return c.f.Header.Variables() }

func (c *classic) variableDimensions(name string) ([]string, bool) {
	dims := c.f.Header.Dimensions(name)
	if dims == nil {
		return nil, false
	}
	return dims, true
}

func (c *classic) attribute(varName, attName string) (interface{}, bool) {
	v := c.f.Header.GetAttribute(varName, attName)
	return signed(v), v != nil
}

func (c *classic) read(name string, shape, start, count []int) (*column, error) {
	col := new(column)
	// Record variables are interleaved with the other record variables,
	// so read them one record at a time.
	minSplit := 0
	if c.f.Header.IsRecordVariable(name) && len(shape) > 1 {
		minSplit = 1
	}
	err := forEachRun(shape, start, count, minSplit, func(begin, end []int) error {
		n := 1
		for i := range begin {
			n *= end[i] - begin[i] + 1
		}
		r := c.f.Reader(name, begin, end)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil && err != io.EOF {
			return err
		}
		return col.add(signed(buf))
	})
	if err != nil {
		return nil, err
	}
	if col.len() == 0 {
		// Record the variable type for empty reads.
		switch c.f.Header.ZeroValue(name, 0).(type) {
		case []float32, []float64:
			col.isFloat = true
		}
	}
	return col, nil
}

// signed converts BYTE values, which github.com/ctessum/cdf returns as
// []uint8, to the signed type netCDF defines for them.
func signed(v interface{}) interface{} {
	b, ok := v.([]uint8)
	if !ok {
		return v
	}
	s := make([]int8, len(b))
	for i, x := range b {
		s[i] = int8(x)
	}
	return s
}

func (c *classic) close() error { return c.src.Close() }

// source is the storage behind an open file.
type source interface {
	io.ReaderAt
	io.WriterAt
	io.ReadSeeker
	io.Closer
}

var _ source = (*os.File)(nil)
