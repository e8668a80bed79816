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
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

// Named projections.
const (
	LonLat = "lonlat"
	Sphere = "sphere"
)

const lonLatProj4 = "+proj=longlat +units=degrees"

// projector converts a horizontal coordinate and a height to a mesh point.
type projector func(x, y, z float64) (Point, error)

func newProjector(c *Conventions) (projector, error) {
	switch strings.ToLower(strings.TrimSpace(c.Projection)) {
	case "", LonLat:
		return func(x, y, z float64) (Point, error) {
			return Point{X: x, Y: y, Z: z}, nil
		}, nil
	case Sphere:
		r := c.SphereRadius
		if r <= 0 {
			return nil, fmt.Errorf("lfric: sphere radius must be positive, got %g", r)
		}
		return func(lon, lat, z float64) (Point, error) {
			return sphere(lon, lat, r+z), nil
		}, nil
	}
	src, err := proj.Parse(lonLatProj4)
	if err != nil {
		return nil, fmt.Errorf("lfric: parsing longitude-latitude projection: %v", err)
	}
	dst, err := proj.Parse(c.Projection)
	if err != nil {
		return nil, fmt.Errorf("lfric: parsing projection %q: %v", c.Projection, err)
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("lfric: creating projection transform: %v", err)
	}
	return func(lon, lat, z float64) (Point, error) {
		x, y, err := t(lon, lat)
		if err != nil {
			return Point{}, fmt.Errorf("lfric: projecting (%g, %g): %v", lon, lat, err)
		}
		return Point{X: x, Y: y, Z: z}, nil
	}, nil
}

// sphere returns the Cartesian position of a point at the given
// longitude and latitude, in degrees, and distance r from the centre.
func sphere(lon, lat, r float64) Point {
	lon *= math.Pi / 180
	lat *= math.Pi / 180
	return Point{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// isPlanar reports whether points computed with projection p lie in
// horizontal layers.
func isPlanar(p string) bool {
	return !strings.EqualFold(strings.TrimSpace(p), Sphere)
}
