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

// Package lfric reads LFRic model output stored in UGRID netCDF files and
// turns it into a three-dimensional unstructured mesh. The horizontal mesh
// is unstructured; the vertical is built by extruding every horizontal face
// through the model levels.
//
// The Reader type ties the parts together: it reports the available time
// steps, builds the mesh once per file and attaches the field values for
// a requested time step.
package lfric

import "errors"

// Version gives the version number.
const Version = "0.3.0"

// Errors returned by this package. Errors from reading the underlying
// file are those defined in package ncfile. All errors are wrapped with
// context, so check for them with errors.Is.
var (
	ErrNoFileName                = errors.New("no file name has been set")
	ErrTopology                  = errors.New("invalid mesh topology")
	ErrFieldNotFound             = errors.New("field not found")
	ErrUnsupportedDimensionality = errors.New("unsupported field dimensions")
	ErrTimeIndexOutOfRange       = errors.New("time index out of range")
)
