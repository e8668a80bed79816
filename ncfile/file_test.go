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
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spatialmodel/lfric/internal/ncfixture"
)

// testFile has 4 triangles and squares over 3 layers, 2 time steps and
// a field holding its own flat index.
func testFile() *ncfixture.File {
	data := make([]float64, 2*3*4)
	for i := range data {
		data[i] = float64(i)
	}
	static := make([]float64, 3*4)
	for i := range static {
		static[i] = float64(i)
	}
	return &ncfixture.File{
		NodeX:      []float64{0, 1, 2, 0, 1, 2},
		NodeY:      []float64{0, 0, 0, 1, 1, 1},
		FaceNodes:  [][]int{{0, 1, 4}, {0, 4, 3}, {1, 2, 5, 4}, {3, 4, 5}},
		FullLevels: []float64{0, 1, 2, 3},
		Times:      []float64{10, 20},
		Fields: []ncfixture.Field{
			{Name: "flat", Dims: []string{ncfixture.TimeDim, ncfixture.HalfDim, ncfixture.FaceDim}, Data: data, Units: "1"},
			{Name: "static", Dims: []string{ncfixture.HalfDim, ncfixture.FaceDim}, Data: static, Float32: true},
		},
	}
}

func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nc")
	if err := ncfixture.Write(path, testFile()); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTestFile(t *testing.T, path string) *File {
	t.Helper()
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.nc")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing: have error %v, want %v", err, ErrFileNotFound)
	}
	for name, contents := range map[string]string{"text.nc": "this is not a netCDF file", "short.nc": "CD"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: have error %v, want %v", name, err, ErrFormat)
		}
	}

	f := openTestFile(t, writeTestFile(t))
	if f.Format != Classic {
		t.Errorf("format: have %s, want %s", f.Format, Classic)
	}
}

func TestMetadata(t *testing.T) {
	f := openTestFile(t, writeTestFile(t))
	sizes := map[string]int{
		ncfixture.NodeDim: 6,
		ncfixture.FaceDim: 4,
		ncfixture.FullDim: 4,
		ncfixture.HalfDim: 3,
		ncfixture.TimeDim: 2,
	}
	for d, want := range sizes {
		have, err := f.DimensionSize(d)
		if err != nil {
			t.Fatal(err)
		}
		if have != want {
			t.Errorf("%s: have %d, want %d", d, have, want)
		}
	}
	if _, err := f.DimensionSize("nope"); !errors.Is(err, ErrDimensionNotFound) {
		t.Errorf("have error %v, want %v", err, ErrDimensionNotFound)
	}
	if !f.HasVariable("flat") || f.HasVariable("nope") || !f.HasDimension(ncfixture.TimeDim) {
		t.Error("wrong variable or dimension presence")
	}
	shape, err := f.VariableShape("flat")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(shape, []int{2, 3, 4}) {
		t.Errorf("shape: have %v", shape)
	}
	if _, err := f.VariableDimensions("nope"); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("have error %v, want %v", err, ErrVariableNotFound)
	}
	if u, ok := f.AttributeString("flat", "units"); !ok || u != "1" {
		t.Errorf("units: have %q, %v", u, ok)
	}
	if s, ok := f.AttributeFloat64(ncfixture.FaceNodesVar, "_FillValue"); !ok || s != ncfixture.FaceNodeFill {
		t.Errorf("fill value: have %g, %v", s, ok)
	}
	if c, ok := f.AttributeString("", "Conventions"); !ok || c != "UGRID" {
		t.Errorf("global attribute: have %q, %v", c, ok)
	}
	if _, ok := f.Attribute("flat", "nope"); ok {
		t.Error("missing attribute reported as present")
	}
}

func TestReadFloat64(t *testing.T) {
	f := openTestFile(t, writeTestFile(t))
	all, err := f.ReadFloat64("flat", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 24 || all[23] != 23 {
		t.Fatalf("full read: have %v", all)
	}

	slabs := []struct {
		start, count []int
	}{
		{start: []int{1, 0, 0}, count: []int{1, 3, 4}},
		{start: []int{0, 1, 1}, count: []int{2, 2, 2}},
		{start: []int{1, 2, 3}, count: []int{1, 1, 1}},
		{start: []int{0, 0, 2}, count: []int{2, 3, 2}},
		{start: []int{0, 0, 0}, count: []int{0, 3, 4}},
	}
	for _, s := range slabs {
		have, err := f.ReadFloat64("flat", s.start, s.count)
		if err != nil {
			t.Fatalf("%v %v: %v", s.start, s.count, err)
		}
		want := make([]float64, 0)
		for _, o := range slabOffsets([]int{2, 3, 4}, s.start, s.count) {
			want = append(want, all[o])
		}
		if !reflect.DeepEqual(have, want) {
			t.Errorf("%v %v: have %v, want %v", s.start, s.count, have, want)
		}
	}

	static, err := f.ReadFloat64("static", []int{1, 0}, []int{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(static, []float64{4, 5, 6, 7, 8, 9, 10, 11}) {
		t.Errorf("static: have %v", static)
	}

	times, err := f.ReadFloat64(ncfixture.TimeVar, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(times, []float64{10, 20}) {
		t.Errorf("times: have %v", times)
	}
}

func TestReadErrors(t *testing.T) {
	f := openTestFile(t, writeTestFile(t))
	tests := []struct {
		name         string
		variable     string
		start, count []int
		err          error
	}{
		{name: "missing", variable: "nope", err: ErrVariableNotFound},
		{name: "rank", variable: "flat", start: []int{0, 0}, count: []int{1, 1}, err: ErrShapeMismatch},
		{name: "count rank", variable: "flat", start: []int{0, 0, 0}, count: []int{1, 1}, err: ErrShapeMismatch},
		{name: "extent", variable: "flat", start: []int{1, 0, 0}, count: []int{2, 3, 4}, err: ErrShapeMismatch},
		{name: "negative", variable: "flat", start: []int{0, -1, 0}, count: []int{1, 1, 1}, err: ErrShapeMismatch},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.ReadFloat64(test.variable, test.start, test.count)
			if !errors.Is(err, test.err) {
				t.Errorf("have error %v, want %v", err, test.err)
			}
		})
	}
}

func TestReadIndices(t *testing.T) {
	f := openTestFile(t, writeTestFile(t))
	have, err := f.ReadIndices(ncfixture.FaceNodesVar, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := MissingIndex
	want := []uint64{0, 1, 4, m, 0, 4, 3, m, 1, 2, 5, 4, 3, 4, 5, m}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	row, err := f.ReadIndices(ncfixture.FaceNodesVar, []int{2, 0}, []int{1, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(row, want[8:12]) {
		t.Errorf("row: have %v, want %v", row, want[8:12])
	}
}

func compress(t *testing.T, src, dst string, newWriter func(io.Writer) (io.WriteCloser, error)) {
	t.Helper()
	b, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w, err := newWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(b); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCompressed(t *testing.T) {
	path := writeTestFile(t)
	want, err := openTestFile(t, path).ReadFloat64("flat", []int{1, 0, 0}, []int{1, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	writers := map[string]func(io.Writer) (io.WriteCloser, error){
		".gz": func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil },
		".zst": func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
	}
	for ext, newWriter := range writers {
		t.Run(ext, func(t *testing.T) {
			cpath := path + ext
			compress(t, path, cpath, newWriter)
			f := openTestFile(t, cpath)
			have, err := f.ReadFloat64("flat", []int{1, 0, 0}, []int{1, 3, 4})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, want) {
				t.Errorf("have %v, want %v", have, want)
			}
			if n, _ := f.DimensionSize(ncfixture.TimeDim); n != 2 {
				t.Errorf("have %d records, want 2", n)
			}
		})
	}
	for _, ext := range []string{".gz", ".zst"} {
		t.Run("not compressed "+ext, func(t *testing.T) {
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			bad := path + ".plain" + ext
			if err := os.WriteFile(bad, b, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(bad); !errors.Is(err, ErrFormat) {
				t.Errorf("have error %v, want %v", err, ErrFormat)
			}
		})
	}
}
