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

	"github.com/spatialmodel/lfric/ncfile"
)

// BuildMesh reads the horizontal mesh and the vertical levels from f and
// returns the extruded mesh, without any fields. Names are taken from c,
// overridden by the attributes of the mesh topology variable if the file
// has one.
func BuildMesh(f *ncfile.File, c *Conventions) (*Mesh, error) {
	return buildMesh(f, c.resolve(f, discard))
}

// buildMesh is BuildMesh with already resolved conventions.
func buildMesh(f *ncfile.File, c *Conventions) (*Mesh, error) {
	x, err := f.ReadFloat64(c.NodeX, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lfric: reading node x coordinates: %w", err)
	}
	y, err := f.ReadFloat64(c.NodeY, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lfric: reading node y coordinates: %w", err)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("lfric: %w: %d x coordinates but %d y coordinates",
			ncfile.ErrShapeMismatch, len(x), len(y))
	}
	if f.HasDimension(c.NodeDimension) {
		n, err := f.DimensionSize(c.NodeDimension)
		if err != nil {
			return nil, err
		}
		if n != len(x) {
			return nil, fmt.Errorf("lfric: %w: dimension %s has %d nodes but there are %d coordinates",
				ncfile.ErrShapeMismatch, c.NodeDimension, n, len(x))
		}
	}

	faces, err := readFaces(f, c, len(x))
	if err != nil {
		return nil, err
	}
	heights, err := readHeights(f, c)
	if err != nil {
		return nil, err
	}
	return extrude(x, y, faces, heights, c)
}

// readFaces reads the face-node connectivity and returns the 0-based
// node ring of every face.
func readFaces(f *ncfile.File, c *Conventions, numNodes int) ([][]int, error) {
	dims, err := f.VariableDimensions(c.FaceNodes)
	if err != nil {
		return nil, fmt.Errorf("lfric: reading face-node connectivity: %w", err)
	}
	shape, err := f.VariableShape(c.FaceNodes)
	if err != nil {
		return nil, fmt.Errorf("lfric: reading face-node connectivity: %w", err)
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("lfric: %w: face-node connectivity %s has %d dimensions, want 2",
			ncfile.ErrShapeMismatch, c.FaceNodes, len(shape))
	}
	// UGRID allows the face dimension to come second.
	transposed := dims[0] != c.FaceDimension && dims[1] == c.FaceDimension
	numFaces, maxNodes := shape[0], shape[1]
	if transposed {
		numFaces, maxNodes = shape[1], shape[0]
	}
	if f.HasDimension(c.FaceDimension) {
		n, err := f.DimensionSize(c.FaceDimension)
		if err != nil {
			return nil, err
		}
		if n != numFaces {
			return nil, fmt.Errorf("lfric: %w: dimension %s has %d faces but connectivity %s has shape %v",
				ncfile.ErrShapeMismatch, c.FaceDimension, n, c.FaceNodes, shape)
		}
	}
	idx, err := f.ReadIndices(c.FaceNodes, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lfric: reading face-node connectivity: %w", err)
	}
	start := 0
	if s, ok := f.AttributeFloat64(c.FaceNodes, "start_index"); ok {
		start = int(s)
	}

	faces := make([][]int, numFaces)
	for i := range faces {
		ring := make([]int, 0, maxNodes)
		for j := 0; j < maxNodes; j++ {
			var v uint64
			if transposed {
				v = idx[j*numFaces+i]
			} else {
				v = idx[i*maxNodes+j]
			}
			if v == ncfile.MissingIndex {
				break
			}
			n := int(v) - start
			if n < 0 || n >= numNodes {
				return nil, fmt.Errorf("lfric: %w: face %d refers to node %d but there are %d nodes (start index %d)",
					ErrTopology, i, v, numNodes, start)
			}
			ring = append(ring, n)
		}
		if len(ring) < 3 {
			return nil, fmt.Errorf("lfric: %w: face %d has %d nodes", ErrTopology, i, len(ring))
		}
		if _, ok := cellTypeForRing(len(ring)); !ok {
			return nil, fmt.Errorf("lfric: %w: face %d has %d nodes; at most 6 are supported",
				ErrTopology, i, len(ring))
		}
		faces[i] = ring
	}
	return faces, nil
}

// numLevels returns the number of layers. Files without vertical
// dimensions are treated as having a single layer.
func numLevels(f *ncfile.File, c *Conventions) (int, error) {
	if f.HasDimension(c.HalfLevelsDimension) {
		n, err := f.DimensionSize(c.HalfLevelsDimension)
		if err != nil {
			return 0, err
		}
		if n < 1 {
			return 0, fmt.Errorf("lfric: %w: dimension %s is empty", ErrTopology, c.HalfLevelsDimension)
		}
		return n, nil
	}
	if f.HasDimension(c.FullLevelsDimension) {
		n, err := f.DimensionSize(c.FullLevelsDimension)
		if err != nil {
			return 0, err
		}
		if n < 2 {
			return 0, fmt.Errorf("lfric: %w: dimension %s has %d levels; at least 2 are needed",
				ErrTopology, c.FullLevelsDimension, n)
		}
		return n - 1, nil
	}
	return 1, nil
}

// readHeights returns the scaled height of every full level.
func readHeights(f *ncfile.File, c *Conventions) ([]float64, error) {
	nl, err := numLevels(f, c)
	if err != nil {
		return nil, err
	}
	var h []float64
	if c.VerticalCoordinate != "" && f.HasVariable(c.VerticalCoordinate) {
		h, err = f.ReadFloat64(c.VerticalCoordinate, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("lfric: reading vertical coordinate: %w", err)
		}
		if len(h) != nl+1 {
			return nil, fmt.Errorf("lfric: %w: vertical coordinate %s has %d values for %d layers",
				ErrTopology, c.VerticalCoordinate, len(h), nl)
		}
	} else {
		h = make([]float64, nl+1)
		for k := range h {
			h[k] = float64(k)
		}
	}
	scale := c.VerticalScale
	if scale == 0 {
		scale = 1
	}
	for k := range h {
		h[k] *= scale
	}
	return h, nil
}

// extrude creates the points and cells of the mesh.
func extrude(x, y []float64, faces [][]int, heights []float64, c *Conventions) (*Mesh, error) {
	project, err := newProjector(c)
	if err != nil {
		return nil, err
	}
	nn, nf, nl := len(x), len(faces), len(heights)-1
	m := &Mesh{
		Points:     make([]Point, 0, nn*(nl+1)),
		Cells:      make([]Cell, 0, nf*nl),
		NumNodes2D: nn,
		NumFaces2D: nf,
		NumLevels:  nl,
		Heights:    heights,
		Faces:      faces,
		NodeX:      x,
		NodeY:      y,
		Projection: c.Projection,
	}
	for _, z := range heights {
		for n := range x {
			p, err := project(x[n], y[n], z)
			if err != nil {
				return nil, err
			}
			m.Points = append(m.Points, p)
		}
	}
	for k := 0; k < nl; k++ {
		for _, ring := range faces {
			t, _ := cellTypeForRing(len(ring))
			// UGRID faces are anticlockwise. VTK wants the base of a
			// wedge to face away from its top, and the base of the other
			// prisms to face towards it.
			r := ring
			if t == Wedge {
				r = []int{ring[0], ring[2], ring[1]}
			}
			pts := make([]int, 2*len(r))
			for i, n := range r {
				pts[i] = m.PointIndex(k, n)
				pts[i+len(r)] = m.PointIndex(k+1, n)
			}
			m.Cells = append(m.Cells, Cell{Type: t, Points: pts})
		}
	}
	return m, nil
}
