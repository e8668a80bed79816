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

// Package ncfixture writes small UGRID netCDF files laid out the way LFRic
// (through XIOS) writes its output. It is used to create test inputs.
package ncfixture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// Default dimension and variable names.
const (
	MeshVar       = "Mesh2d"
	NodeDim       = "nMesh2d_node"
	FaceDim       = "nMesh2d_face"
	VertexDim     = "nMesh2d_vertex"
	FullDim       = "full_levels"
	HalfDim       = "half_levels"
	TimeDim       = "time_counter"
	NodeXVar      = "Mesh2d_node_x"
	NodeYVar      = "Mesh2d_node_y"
	FaceNodesVar  = "Mesh2d_face_nodes"
	FullLevelsVar = "full_levels"
	TimeVar       = "time_instant"
)

// FaceNodeFill pads the connectivity of faces with fewer nodes than
// the widest face.
const FaceNodeFill = -999

// Field is a data variable to be written.
type Field struct {
	Name string
	// Dims are the variable dimensions, outermost first, using the
	// default names above.
	Dims []string
	// Data holds the values in row-major order, including every
	// time record when TimeDim is among Dims.
	Data []float64
	// Float32 stores the variable as FLOAT instead of DOUBLE.
	Float32 bool
	// FillValue, if not nil, is written as the _FillValue attribute.
	FillValue *float64
	Units     string
}

// File describes the contents of a file.
type File struct {
	NodeX, NodeY []float64

	// FaceNodes holds the 0-based node indices of every face.
	FaceNodes [][]int

	// StartIndex is added to every connectivity entry on write and
	// stored as the start_index attribute.
	StartIndex int

	// FullLevels holds the height of each full level. When nil,
	// NumLevels must be set and no full_levels variable is written.
	FullLevels []float64
	NumLevels  int

	// Times holds the time coordinate. When nil no time dimension
	// is written. NoTimeVar omits the time variable but keeps the
	// dimension.
	Times     []float64
	NoTimeVar bool

	// NoMeshVar omits the mesh topology variable.
	NoMeshVar bool

	Fields []Field

	// Rename maps default names to the names actually written.
	Rename map[string]string
}

func (f *File) name(n string) string {
	if r, ok := f.Rename[n]; ok {
		return r
	}
	return n
}

func (f *File) names(ns []string) []string {
	o := make([]string, len(ns))
	for i, n := range ns {
		o[i] = f.name(n)
	}
	return o
}

func (f *File) numLevels() int {
	if f.FullLevels != nil {
		return len(f.FullLevels) - 1
	}
	return f.NumLevels
}

func (f *File) maxNodes() int {
	m := 0
	for _, fn := range f.FaceNodes {
		if len(fn) > m {
			m = len(fn)
		}
	}
	return m
}

// Write writes the file to path, replacing any existing file.
func Write(path string, f *File) error {
	if len(f.NodeX) == 0 || len(f.FaceNodes) == 0 || f.maxNodes() == 0 || f.numLevels() < 1 {
		return errors.New("ncfixture: nodes, faces and at least one level are required")
	}
	dims := []string{NodeDim, FaceDim, VertexDim, FullDim, HalfDim}
	lengths := []int{len(f.NodeX), len(f.FaceNodes), f.maxNodes(), f.numLevels() + 1, f.numLevels()}
	if f.Times != nil {
		dims = append(dims, TimeDim)
		lengths = append(lengths, 0)
	}
	h := cdf.NewHeader(f.names(dims), lengths)
	h.AddAttribute("", "Conventions", "UGRID")
	h.AddAttribute("", "description", "LFRic test output")

	if !f.NoMeshVar {
		h.AddVariable(f.name(MeshVar), []string{}, []int32{0})
		h.AddAttribute(f.name(MeshVar), "cf_role", "mesh_topology")
		h.AddAttribute(f.name(MeshVar), "topology_dimension", []int32{2})
		h.AddAttribute(f.name(MeshVar), "node_coordinates", f.name(NodeXVar)+" "+f.name(NodeYVar))
		h.AddAttribute(f.name(MeshVar), "face_node_connectivity", f.name(FaceNodesVar))
		h.AddAttribute(f.name(MeshVar), "face_dimension", f.name(FaceDim))
	}
	h.AddVariable(f.name(NodeXVar), []string{f.name(NodeDim)}, []float64{0})
	h.AddAttribute(f.name(NodeXVar), "standard_name", "longitude")
	h.AddAttribute(f.name(NodeXVar), "units", "degrees_east")
	h.AddVariable(f.name(NodeYVar), []string{f.name(NodeDim)}, []float64{0})
	h.AddAttribute(f.name(NodeYVar), "standard_name", "latitude")
	h.AddAttribute(f.name(NodeYVar), "units", "degrees_north")
	h.AddVariable(f.name(FaceNodesVar), f.names([]string{FaceDim, VertexDim}), []int32{0})
	h.AddAttribute(f.name(FaceNodesVar), "cf_role", "face_node_connectivity")
	h.AddAttribute(f.name(FaceNodesVar), "start_index", []int32{int32(f.StartIndex)})
	h.AddAttribute(f.name(FaceNodesVar), "_FillValue", []int32{FaceNodeFill})
	if f.FullLevels != nil {
		h.AddVariable(f.name(FullLevelsVar), []string{f.name(FullDim)}, []float64{0})
		h.AddAttribute(f.name(FullLevelsVar), "units", "m")
	}
	if f.Times != nil && !f.NoTimeVar {
		h.AddVariable(f.name(TimeVar), []string{f.name(TimeDim)}, []float64{0})
		h.AddAttribute(f.name(TimeVar), "units", "seconds since 2016-01-01 15:00:00")
	}
	for _, fld := range f.Fields {
		if fld.Float32 {
			h.AddVariable(fld.Name, f.names(fld.Dims), []float32{0})
			if fld.FillValue != nil {
				h.AddAttribute(fld.Name, "_FillValue", []float32{float32(*fld.FillValue)})
			}
		} else {
			h.AddVariable(fld.Name, f.names(fld.Dims), []float64{0})
			if fld.FillValue != nil {
				h.AddAttribute(fld.Name, "_FillValue", []float64{*fld.FillValue})
			}
		}
		if fld.Units != "" {
			h.AddAttribute(fld.Name, "units", fld.Units)
		}
		h.AddAttribute(fld.Name, "mesh", f.name(MeshVar))
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ff.Close()
	nc, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		return err
	}

	if err := write(nc, f.name(NodeXVar), f.NodeX); err != nil {
		return err
	}
	if err := write(nc, f.name(NodeYVar), f.NodeY); err != nil {
		return err
	}
	conn := make([]int32, len(f.FaceNodes)*f.maxNodes())
	for i := range conn {
		conn[i] = FaceNodeFill
	}
	for i, fn := range f.FaceNodes {
		for j, n := range fn {
			conn[i*f.maxNodes()+j] = int32(n + f.StartIndex)
		}
	}
	if len(conn) > 0 {
		if err := writeValues(nc, f.name(FaceNodesVar), nil, conn); err != nil {
			return err
		}
	}
	if f.FullLevels != nil {
		if err := write(nc, f.name(FullLevelsVar), f.FullLevels); err != nil {
			return err
		}
	}
	if f.Times != nil && !f.NoTimeVar {
		for t, v := range f.Times {
			if err := writeValues(nc, f.name(TimeVar), []int{t}, []float64{v}); err != nil {
				return err
			}
		}
	}
	for _, fld := range f.Fields {
		if err := f.writeField(nc, fld); err != nil {
			return fmt.Errorf("ncfixture: writing %s: %v", fld.Name, err)
		}
	}
	return cdf.UpdateNumRecs(ff)
}

// writeField writes fld one record at a time if it has a time dimension.
func (f *File) writeField(nc *cdf.File, fld Field) error {
	if len(fld.Dims) == 0 || fld.Dims[0] != TimeDim {
		return writeTyped(nc, fld.Name, nil, fld.Data, fld.Float32)
	}
	n := len(fld.Data) / len(f.Times)
	for t := range f.Times {
		if err := writeTyped(nc, fld.Name, []int{t}, fld.Data[t*n:(t+1)*n], fld.Float32); err != nil {
			return err
		}
	}
	return nil
}

func write(nc *cdf.File, name string, data []float64) error {
	return writeTyped(nc, name, nil, data, false)
}

func writeTyped(nc *cdf.File, name string, record []int, data []float64, float32s bool) error {
	if !float32s {
		return writeValues(nc, name, record, data)
	}
	d32 := make([]float32, len(data))
	for i, v := range data {
		d32[i] = float32(v)
	}
	return writeValues(nc, name, record, d32)
}

// writeValues writes values to variable name. If record is not nil, it
// holds the index along the record dimension to write to.
func writeValues(nc *cdf.File, name string, record []int, values interface{}) error {
	lengths := nc.Header.Lengths(name)
	begin := make([]int, len(lengths))
	end := make([]int, len(lengths))
	for i, l := range lengths {
		end[i] = l - 1
	}
	if record != nil {
		begin[0], end[0] = record[0], record[0]
	}
	w := nc.Writer(name, begin, end)
	// The writer reports io.EOF once it reaches the end corner.
	if _, err := w.Write(values); err != nil && err != io.EOF {
		return err
	}
	return nil
}
