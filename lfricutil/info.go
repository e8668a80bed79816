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

package lfricutil

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spatialmodel/lfric"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fieldSummary struct {
	Name        string `json:"name"`
	Association string `json:"association"`
	Units       string `json:"units,omitempty"`
	LongName    string `json:"long_name,omitempty"`
	TimeVarying bool   `json:"time_varying"`

	// Stats summarizes the values at the first time step. It is nil if
	// the field could not be loaded or has no valid values.
	Stats *fieldStats `json:"stats,omitempty"`
}

type fieldStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// extent is the bounding box of the extruded mesh.
type extent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	MinZ float64 `json:"min_z"`
	MaxZ float64 `json:"max_z"`
}

type infoSummary struct {
	File       string         `json:"file"`
	Format     string         `json:"format"`
	Dimensions map[string]int `json:"dimensions"`
	Layers     int            `json:"layers"`
	Faces      int            `json:"faces"`
	Nodes      int            `json:"nodes"`
	Cells      int            `json:"cells"`
	Points     int            `json:"points"`
	TimeUnits  string         `json:"time_units,omitempty"`
	TimeSteps  []float64      `json:"time_steps"`
	Extent     *extent        `json:"extent,omitempty"`
	Fields     []fieldSummary `json:"fields"`
}

func stats(f *lfric.Field) *fieldStats {
	min, max := f.Range()
	if math.IsNaN(min) {
		return nil
	}
	return &fieldStats{Min: min, Max: max, Mean: f.Mean()}
}

// summarize describes the file along with the mesh m loaded at its
// first time step, if there is one.
func summarize(info *lfric.Information, m *lfric.Mesh) *infoSummary {
	s := &infoSummary{
		File:       info.FileName,
		Format:     info.Format.String(),
		Dimensions: info.Dimensions,
		Layers:     info.NumLevels,
		Faces:      info.NumFaces2D,
		Nodes:      info.NumNodes2D,
		Cells:      info.NumCells(),
		Points:     info.NumPoints(),
		TimeUnits:  info.TimeUnits,
		TimeSteps:  info.TimeSteps,
		Fields:     make([]fieldSummary, len(info.Fields)),
	}
	if m != nil {
		b := m.Bounds()
		s.Extent = &extent{MinX: b.Min.X, MinY: b.Min.Y, MaxX: b.Max.X, MaxY: b.Max.Y}
		s.Extent.MinZ, s.Extent.MaxZ = m.ZRange()
	}
	for i, f := range info.Fields {
		s.Fields[i] = fieldSummary{
			Name:        f.Name,
			Association: f.Association.String(),
			Units:       f.Units,
			LongName:    f.LongName,
			TimeVarying: f.TimeVarying,
		}
		if m == nil {
			continue
		}
		if mf, ok := m.Field(f.Name); ok {
			s.Fields[i].Stats = stats(mf)
		}
	}
	return s
}

// Info writes a description of the file read by r to w, as text or,
// if asJSON is true, as JSON. Field statistics are for the first
// time step.
func Info(w io.Writer, r *lfric.Reader, asJSON bool) error {
	info, err := r.RequestInformation()
	if err != nil {
		return err
	}
	m, err := r.RequestData(0)
	if errors.Is(err, lfric.ErrTimeIndexOutOfRange) {
		m = nil // the file has a time dimension with no records
	} else if err != nil {
		return err
	}
	s := summarize(info, m)
	if asJSON {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", s.File)
	fmt.Fprintf(tw, "Format:\t%s\n", s.Format)
	fmt.Fprintf(tw, "Mesh:\t%d faces, %d nodes, %d layers\n", s.Faces, s.Nodes, s.Layers)
	fmt.Fprintf(tw, "Extruded:\t%d cells, %d points\n", s.Cells, s.Points)
	if e := s.Extent; e != nil {
		fmt.Fprintf(tw, "Extent:\tx [%g, %g], y [%g, %g], z [%g, %g]\n", e.MinX, e.MaxX, e.MinY, e.MaxY, e.MinZ, e.MaxZ)
	}
	fmt.Fprintf(tw, "Time steps:\t%d\n", len(s.TimeSteps))
	if s.TimeUnits != "" {
		fmt.Fprintf(tw, "Time units:\t%s\n", s.TimeUnits)
	}

	dims := make([]string, 0, len(s.Dimensions))
	for d := range s.Dimensions {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	fmt.Fprintln(tw, "\nDimensions:")
	for _, d := range dims {
		fmt.Fprintf(tw, "  %s\t%d\n", d, s.Dimensions[d])
	}

	fmt.Fprintln(tw, "\nFields:")
	for _, f := range s.Fields {
		t := ""
		if f.TimeVarying {
			t = "time varying"
		}
		rng := ""
		if f.Stats != nil {
			rng = fmt.Sprintf("%g to %g, mean %g", f.Stats.Min, f.Stats.Max, f.Stats.Mean)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", f.Name, f.Association, f.Units, t, rng)
	}
	return tw.Flush()
}

// Steps writes the index and value of every time step to w.
func Steps(w io.Writer, r *lfric.Reader) error {
	info, err := r.RequestInformation()
	if err != nil {
		return err
	}
	for i, t := range info.TimeSteps {
		if _, err := fmt.Fprintf(w, "%d\t%g\n", i, t); err != nil {
			return err
		}
	}
	return nil
}
