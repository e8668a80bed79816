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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/spatialmodel/lfric/internal/ncfixture"
)

const (
	testFaces  = 10
	testNodes  = 22
	testLayers = 3
)

// fieldFile returns a file with 10 faces, 3 layers and 2 time steps
// holding fields of every supported layout.
func fieldFile() *ncfixture.File {
	file := stripFile(testFaces, []float64{0, 10, 20, 30}, []float64{0, 3600})
	missing := -1.0
	t, half, full := ncfixture.TimeDim, ncfixture.HalfDim, ncfixture.FullDim
	face, node := ncfixture.FaceDim, ncfixture.NodeDim
	file.Fields = []ncfixture.Field{
		{
			// 1 at the first step and 2 at the second.
			Name: "density", Dims: []string{t, half, face}, Units: "kg m-3",
			Data: fill(2*testLayers*testFaces, func(i int) float64 { return float64(i/(testLayers*testFaces) + 1) }),
		},
		{
			// The full level index.
			Name: "theta", Dims: []string{t, full, face},
			Data: fill(2*(testLayers+1)*testFaces, func(i int) float64 { return float64(i / testFaces % (testLayers + 1)) }),
		},
		{
			Name: "orography", Dims: []string{face},
			Data: fill(testFaces, func(i int) float64 { return float64(i) }),
		},
		{
			Name: "node_height", Dims: []string{node}, Float32: true,
			Data: fill(testNodes, func(i int) float64 { return float64(i) }),
		},
		{
			Name: "wind", Dims: []string{t, full, node},
			Data: fill(2*(testLayers+1)*testNodes, func(i int) float64 {
				i %= (testLayers + 1) * testNodes
				return float64(100*(i/testNodes) + i%testNodes)
			}),
		},
		{
			// Stored face first: 10*face + layer.
			Name: "transposed", Dims: []string{face, half},
			Data: fill(testFaces*testLayers, func(i int) float64 { return float64(10*(i/testLayers) + i%testLayers) }),
		},
		{
			Name: "masked", Dims: []string{half, face}, FillValue: &missing,
			Data: fill(testLayers*testFaces, func(i int) float64 {
				if i == 3 {
					return missing
				}
				return 5
			}),
		},
		{
			Name: "node_half", Dims: []string{half, node},
			Data: make([]float64, testLayers*testNodes),
		},
		{
			Name: "vertex", Dims: []string{ncfixture.VertexDim},
			Data: make([]float64, 4),
		},
	}
	return file
}

func TestLoadField(t *testing.T) {
	f := openFixture(t, fieldFile())
	c := DefaultConventions()
	m, err := BuildMesh(f, c)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("density", func(t *testing.T) {
		for step, want := range []float64{1, 2} {
			fld, err := LoadField(f, m, c, "density", step)
			if err != nil {
				t.Fatal(err)
			}
			if fld.Association != CellData || fld.Len() != 30 {
				t.Fatalf("have %s data with %d values", fld.Association, fld.Len())
			}
			for i, v := range fld.Values.Elements {
				if v != want {
					t.Fatalf("step %d, cell %d: have %g, want %g", step, i, v, want)
				}
			}
			if fld.Units != "kg m-3" {
				t.Errorf("units: have %q", fld.Units)
			}
		}
		if _, ok := m.CellData["density"]; !ok {
			t.Error("field not attached to mesh")
		}
	})

	t.Run("full levels averaged", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "theta", 0)
		if err != nil {
			t.Fatal(err)
		}
		for k := 0; k < testLayers; k++ {
			if v := fld.Values.Get(k, 7); v != float64(k)+0.5 {
				t.Errorf("layer %d: have %g, want %g", k, v, float64(k)+0.5)
			}
		}
	})

	t.Run("face replicated", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "orography", 1)
		if err != nil {
			t.Fatal(err)
		}
		if fld.Len() != 30 {
			t.Fatalf("have %d values", fld.Len())
		}
		if v := fld.Value(m.CellIndex(2, 4)); v != 4 {
			t.Errorf("have %g, want 4", v)
		}
	})

	t.Run("node replicated", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "node_height", 0)
		if err != nil {
			t.Fatal(err)
		}
		if fld.Association != PointData || fld.Len() != len(m.Points) {
			t.Fatalf("have %s data with %d values", fld.Association, fld.Len())
		}
		if v := fld.Value(m.PointIndex(3, 21)); v != 21 {
			t.Errorf("have %g, want 21", v)
		}
	})

	t.Run("full level nodes", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "wind", 1)
		if err != nil {
			t.Fatal(err)
		}
		if v := fld.Value(m.PointIndex(2, 13)); v != 213 {
			t.Errorf("have %g, want 213", v)
		}
	})

	t.Run("transposed", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "transposed", 0)
		if err != nil {
			t.Fatal(err)
		}
		if v := fld.Values.Get(2, 6); v != 62 {
			t.Errorf("have %g, want 62", v)
		}
	})

	t.Run("fill value", func(t *testing.T) {
		fld, err := LoadField(f, m, c, "masked", 0)
		if err != nil {
			t.Fatal(err)
		}
		if !math.IsNaN(fld.Value(3)) {
			t.Errorf("have %g, want NaN", fld.Value(3))
		}
		if min, max := fld.Range(); min != 5 || max != 5 {
			t.Errorf("range: have %g, %g", min, max)
		}
	})

	errorTests := []struct {
		name  string
		field string
		step  int
		err   error
	}{
		{name: "not found", field: "pressure", err: ErrFieldNotFound},
		{name: "coordinate", field: ncfixture.NodeXVar, err: ErrFieldNotFound},
		{name: "half level nodes", field: "node_half", err: ErrUnsupportedDimensionality},
		{name: "vertex", field: "vertex", err: ErrUnsupportedDimensionality},
		{name: "step too large", field: "density", step: 2, err: ErrTimeIndexOutOfRange},
		{name: "negative step", field: "density", step: -1, err: ErrTimeIndexOutOfRange},
	}
	for _, test := range errorTests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadField(f, m, c, test.field, test.step)
			if !errors.Is(err, test.err) {
				t.Errorf("have error %v, want %v", err, test.err)
			}
		})
	}
}

func TestLoadFieldStatic(t *testing.T) {
	file := stripFile(testFaces, []float64{0, 10, 20, 30}, nil)
	file.Fields = []ncfixture.Field{{
		Name: "density", Dims: []string{ncfixture.HalfDim, ncfixture.FaceDim},
		Data: fill(testLayers*testFaces, func(int) float64 { return 1 }),
	}}
	f := openFixture(t, file)
	c := DefaultConventions()
	m, err := BuildMesh(f, c)
	if err != nil {
		t.Fatal(err)
	}
	fld, err := LoadField(f, m, c, "density", 0)
	if err != nil {
		t.Fatal(err)
	}
	if fld.Len() != 30 {
		t.Errorf("have %d values, want 30", fld.Len())
	}
	if _, err := LoadField(f, m, c, "density", 1); !errors.Is(err, ErrTimeIndexOutOfRange) {
		t.Errorf("have error %v, want %v", err, ErrTimeIndexOutOfRange)
	}
}

func TestListFields(t *testing.T) {
	f := openFixture(t, fieldFile())
	have := ListFields(f, DefaultConventions())
	want := []FieldInfo{
		{Name: "density", Association: CellData, Units: "kg m-3", TimeVarying: true},
		{Name: "masked", Association: CellData},
		{Name: "node_height", Association: PointData},
		{Name: "orography", Association: CellData},
		{Name: "theta", Association: CellData, TimeVarying: true},
		{Name: "transposed", Association: CellData},
		{Name: "wind", Association: PointData, TimeVarying: true},
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %+v\nwant %+v", have, want)
	}
}
