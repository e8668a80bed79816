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

package ncfixture

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// WriteCDF5 writes f to path in the CDF-5 format. The connectivity is
// stored as INT64, which is what selects CDF-5. The writer has no
// unlimited dimension, so the time dimension has a fixed length.
func WriteCDF5(path string, f *File) error {
	if len(f.NodeX) == 0 || len(f.FaceNodes) == 0 || f.maxNodes() == 0 || f.numLevels() < 1 {
		return errors.New("ncfixture: nodes, faces and at least one level are required")
	}
	os.Remove(path)
	w, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	if err := f.addCDF5(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (f *File) addCDF5(w *cdf.CDFWriter) error {
	global, err := attrs("Conventions", "UGRID", "description", "LFRic test output")
	if err != nil {
		return err
	}
	if err := w.AddGlobalAttrs(global); err != nil {
		return err
	}
	lengths := map[string]int{
		NodeDim:   len(f.NodeX),
		FaceDim:   len(f.FaceNodes),
		VertexDim: f.maxNodes(),
		FullDim:   f.numLevels() + 1,
		HalfDim:   f.numLevels(),
		TimeDim:   len(f.Times),
	}
	type variable struct {
		name  string
		dims  []string
		value interface{}
		attrs []interface{}
	}
	vars := []variable{
		{f.name(NodeXVar), []string{NodeDim}, f.NodeX,
			[]interface{}{"standard_name", "longitude", "units", "degrees_east"}},
		{f.name(NodeYVar), []string{NodeDim}, f.NodeY,
			[]interface{}{"standard_name", "latitude", "units", "degrees_north"}},
	}
	if !f.NoMeshVar {
		vars = append([]variable{{f.name(MeshVar), nil, int32(0), []interface{}{
			"cf_role", "mesh_topology",
			"topology_dimension", int32(2),
			"node_coordinates", f.name(NodeXVar) + " " + f.name(NodeYVar),
			"face_node_connectivity", f.name(FaceNodesVar),
			"face_dimension", f.name(FaceDim),
		}}}, vars...)
	}
	conn := make([][]int64, len(f.FaceNodes))
	for i, fn := range f.FaceNodes {
		conn[i] = make([]int64, f.maxNodes())
		for j := range conn[i] {
			conn[i][j] = FaceNodeFill
		}
		for j, n := range fn {
			conn[i][j] = int64(n + f.StartIndex)
		}
	}
	vars = append(vars, variable{f.name(FaceNodesVar), []string{FaceDim, VertexDim}, conn, []interface{}{
		"cf_role", "face_node_connectivity",
		"start_index", int64(f.StartIndex),
		"_FillValue", int64(FaceNodeFill),
	}})
	if f.FullLevels != nil {
		vars = append(vars, variable{f.name(FullLevelsVar), []string{FullDim}, f.FullLevels,
			[]interface{}{"units", "m"}})
	}
	if f.Times != nil && !f.NoTimeVar {
		vars = append(vars, variable{f.name(TimeVar), []string{TimeDim}, f.Times,
			[]interface{}{"units", "seconds since 2016-01-01 15:00:00"}})
	}
	for _, fld := range f.Fields {
		shape := make([]int, len(fld.Dims))
		for i, d := range fld.Dims {
			shape[i] = lengths[d]
		}
		var data interface{} = fld.Data
		var a []interface{}
		if fld.Float32 {
			d32 := make([]float32, len(fld.Data))
			for i, v := range fld.Data {
				d32[i] = float32(v)
			}
			data = d32
			if fld.FillValue != nil {
				a = append(a, "_FillValue", float32(*fld.FillValue))
			}
		} else if fld.FillValue != nil {
			a = append(a, "_FillValue", *fld.FillValue)
		}
		if fld.Units != "" {
			a = append(a, "units", fld.Units)
		}
		a = append(a, "mesh", f.name(MeshVar))
		v, err := nest(data, shape)
		if err != nil {
			return fmt.Errorf("ncfixture: writing %s: %v", fld.Name, err)
		}
		vars = append(vars, variable{fld.Name, fld.Dims, v, a})
	}
	for _, v := range vars {
		am, err := attrs(v.attrs...)
		if err != nil {
			return err
		}
		if err := w.AddVar(v.name, api.Variable{
			Values:     v.value,
			Dimensions: f.names(v.dims),
			Attributes: am,
		}); err != nil {
			return fmt.Errorf("ncfixture: adding %s: %v", v.name, err)
		}
	}
	return nil
}

// attrs builds an attribute map from alternating names and values.
func attrs(kv ...interface{}) (api.AttributeMap, error) {
	keys := make([]string, 0, len(kv)/2)
	values := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		keys = append(keys, k)
		values[k] = kv[i+1]
	}
	return util.NewOrderedMap(keys, values)
}

// nest reshapes a flat slice into nested slices with the given shape,
// which is how the CDF-5 writer takes multidimensional values.
func nest(flat interface{}, shape []int) (interface{}, error) {
	v := reflect.ValueOf(flat)
	n := 1
	for _, s := range shape {
		n *= s
	}
	if v.Len() != n {
		return nil, fmt.Errorf("%d values do not fill shape %v", v.Len(), shape)
	}
	if len(shape) <= 1 {
		return flat, nil
	}
	t := v.Type()
	for range shape[1:] {
		t = reflect.SliceOf(t)
	}
	out := reflect.MakeSlice(t, shape[0], shape[0])
	step := n / shape[0]
	for i := 0; i < shape[0]; i++ {
		inner, err := nest(v.Slice(i*step, (i+1)*step).Interface(), shape[1:])
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(reflect.ValueOf(inner))
	}
	return out.Interface(), nil
}
