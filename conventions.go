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
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lfric/ncfile"
)

// Conventions maps the parts of the mesh and time description onto the
// dimension and variable names used in a file. The defaults match the
// output that LFRic writes through XIOS. If the file contains a UGRID
// mesh topology variable, its attributes take precedence over the
// node, face and connectivity names given here.
type Conventions struct {
	// MeshVariable is the UGRID mesh topology variable. If it is not in
	// the file, the first variable with cf_role = "mesh_topology" is used.
	MeshVariable string

	NodeDimension string
	FaceDimension string

	// NodeX and NodeY are the horizontal node coordinates, normally
	// longitude and latitude in degrees.
	NodeX, NodeY string

	// FaceNodes is the face-node connectivity variable.
	FaceNodes string

	// FullLevelsDimension counts the level interfaces (layer tops and
	// bottoms) and HalfLevelsDimension counts the layers.
	FullLevelsDimension string
	HalfLevelsDimension string

	// VerticalCoordinate holds the height of each full level. If it is
	// missing, the level index is used as the height.
	VerticalCoordinate string

	TimeDimension string
	TimeVariable  string

	// Projection selects the output point coordinates: "lonlat" for
	// longitude and latitude in the x-y plane, "sphere" for Cartesian
	// coordinates on a sphere of radius SphereRadius, or a proj4 string
	// that the longitude and latitude are projected to.
	Projection   string
	SphereRadius float64

	// VerticalScale multiplies the vertical coordinate.
	VerticalScale float64
}

// DefaultConventions returns the naming used by LFRic output files.
func DefaultConventions() *Conventions {
	return &Conventions{
		MeshVariable:        "Mesh2d",
		NodeDimension:       "nMesh2d_node",
		FaceDimension:       "nMesh2d_face",
		NodeX:               "Mesh2d_node_x",
		NodeY:               "Mesh2d_node_y",
		FaceNodes:           "Mesh2d_face_nodes",
		FullLevelsDimension: "full_levels",
		HalfLevelsDimension: "half_levels",
		VerticalCoordinate:  "full_levels",
		TimeDimension:       "time_counter",
		TimeVariable:        "time_instant",
		Projection:          "lonlat",
		SphereRadius:        1,
		VerticalScale:       1,
	}
}

// LoadConventions reads a TOML file. Settings missing from the file keep
// their default values.
func LoadConventions(path string) (*Conventions, error) {
	c := DefaultConventions()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("lfric: reading conventions file %s: %v", path, err)
	}
	return c, nil
}

// resolve returns a copy of c with the names found in the mesh topology
// variable of f filled in.
func (c *Conventions) resolve(f *ncfile.File, log logrus.FieldLogger) *Conventions {
	o := *c
	mesh := c.MeshVariable
	if role, _ := f.AttributeString(mesh, "cf_role"); role != "mesh_topology" {
		mesh = ""
		for _, v := range f.Variables() {
			if role, _ := f.AttributeString(v, "cf_role"); role == "mesh_topology" {
				mesh = v
				break
			}
		}
	}
	if mesh == "" {
		log.WithField("file", f.Path).Debug("no mesh topology variable; using configured names")
		return &o
	}
	o.MeshVariable = mesh
	if nc, ok := f.AttributeString(mesh, "node_coordinates"); ok {
		if xy := strings.Fields(nc); len(xy) >= 2 {
			o.NodeX, o.NodeY = xy[0], xy[1]
		}
	}
	if fn, ok := f.AttributeString(mesh, "face_node_connectivity"); ok && fn != "" {
		o.FaceNodes = fn
	}
	if fd, ok := f.AttributeString(mesh, "face_dimension"); ok && fd != "" {
		o.FaceDimension = fd
	} else if dims, err := f.VariableDimensions(o.FaceNodes); err == nil && len(dims) == 2 && !f.HasDimension(o.FaceDimension) {
		o.FaceDimension = dims[0]
	}
	if dims, err := f.VariableDimensions(o.NodeX); err == nil && len(dims) == 1 {
		o.NodeDimension = dims[0]
	}
	log.WithFields(logrus.Fields{
		"file":  f.Path,
		"mesh":  o.MeshVariable,
		"nodes": o.NodeX + " " + o.NodeY,
		"faces": o.FaceNodes,
	}).Debug("resolved mesh topology")
	return &o
}
