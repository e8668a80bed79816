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
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lfric/ncfile"
)

// MeshSource is implemented by types that provide a mesh with fields
// for each of a series of time steps.
type MeshSource interface {
	// RequestInformation returns metadata without reading any field values.
	RequestInformation() (*Information, error)

	// RequestData returns the mesh with fields for the given time step.
	RequestData(step int) (*Mesh, error)
}

var _ MeshSource = (*Reader)(nil)

// Information describes the contents of a file.
type Information struct {
	FileName string
	Format   ncfile.Format

	// TimeSteps holds the time values in file order. It is empty if the
	// file has no time dimension.
	TimeSteps []float64
	TimeUnits string

	NumLevels  int
	NumFaces2D int
	NumNodes2D int

	// Dimensions holds the length of every dimension in the file.
	Dimensions map[string]int

	// Fields lists the variables that can be loaded as fields.
	Fields []FieldInfo
}

// NumCells returns the number of cells in the extruded mesh.
func (i *Information) NumCells() int { return i.NumLevels * i.NumFaces2D }

// NumPoints returns the number of points in the extruded mesh.
func (i *Information) NumPoints() int { return (i.NumLevels + 1) * i.NumNodes2D }

type phase int

const (
	uninitialized phase = iota
	metadataReady
	dataReady
)

// DefaultCacheSize is the default number of field time steps kept in memory.
const DefaultCacheSize = 16

// Reader reads a mesh and its fields from a file. The mesh is built
// once per file; fields are read for each requested time step. The file
// is opened at the start of every request and closed at the end. A
// Reader can be used from several goroutines, but requests are
// handled one at a time.
type Reader struct {
	// Conventions gives the dimension and variable names in the file.
	Conventions *Conventions

	// Fields lists the fields to load in RequestData. If it is empty,
	// all fields listed by RequestInformation are loaded.
	Fields []string

	// StrictFields makes RequestData fail if any field cannot be
	// loaded. Otherwise such fields are logged and skipped.
	StrictFields bool

	// CacheSize is the number of field time steps kept in memory.
	CacheSize int

	Log logrus.FieldLogger

	mu       sync.Mutex
	fileName string
	phase    phase
	conv     *Conventions
	info     *Information
	mesh     *Mesh
	cache    *lru.Cache
}

// NewReader returns a Reader for the named file with the default
// conventions.
func NewReader(fileName string) *Reader {
	return &Reader{
		Conventions: DefaultConventions(),
		CacheSize:   DefaultCacheSize,
		Log:         logrus.StandardLogger(),
		fileName:    fileName,
	}
}

// FileName returns the name of the file being read.
func (r *Reader) FileName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileName
}

// SetFileName changes the file to be read. If the name is different from
// the current one, all information about the previous file is dropped.
func (r *Reader) SetFileName(fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fileName == r.fileName {
		return
	}
	r.fileName = fileName
	r.reset()
}

func (r *Reader) reset() {
	r.phase = uninitialized
	r.conv = nil
	r.info = nil
	r.mesh = nil
	r.cache = nil
}

func (r *Reader) log() logrus.FieldLogger {
	if r.Log == nil {
		return discard
	}
	return r.Log.WithField("file", r.fileName)
}

func (r *Reader) open() (*ncfile.File, error) {
	if r.fileName == "" {
		return nil, fmt.Errorf("lfric: %w", ErrNoFileName)
	}
	return ncfile.Open(r.fileName)
}

// RequestInformation returns the time steps, the mesh dimensions and
// the available fields. It does not read any field values.
func (r *Reader) RequestInformation() (*Information, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase >= metadataReady {
		return r.info, nil
	}
	f, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := r.information(f); err != nil {
		return nil, err
	}
	return r.info, nil
}

// information reads the file metadata if it has not been read yet.
func (r *Reader) information(f *ncfile.File) error {
	if r.phase >= metadataReady {
		return nil
	}
	conv := r.Conventions
	if conv == nil {
		conv = DefaultConventions()
	}
	c := conv.resolve(f, r.log())

	steps, err := ListTimeSteps(f, c, r.log())
	if err != nil {
		return err
	}
	nl, err := numLevels(f, c)
	if err != nil {
		return err
	}
	info := &Information{
		FileName:   f.Path,
		Format:     f.Format,
		TimeSteps:  steps,
		TimeUnits:  timeUnits(f, c),
		NumLevels:  nl,
		Dimensions: make(map[string]int),
		Fields:     listFields(f, c),
	}
	for _, d := range f.Dimensions() {
		n, err := f.DimensionSize(d)
		if err != nil {
			return err
		}
		info.Dimensions[d] = n
	}
	info.NumFaces2D = info.Dimensions[c.FaceDimension]
	info.NumNodes2D = info.Dimensions[c.NodeDimension]

	r.conv = c
	r.info = info
	r.phase = metadataReady
	r.log().WithFields(logrus.Fields{
		"steps":  len(steps),
		"layers": nl,
		"faces":  info.NumFaces2D,
		"fields": len(info.Fields),
	}).Debug("read file information")
	return nil
}

// prepare opens the file and makes sure that the information and the
// mesh are available and that step is valid. The caller must close the
// returned file.
func (r *Reader) prepare(step int) (*ncfile.File, error) {
	f, err := r.open()
	if err != nil {
		return nil, err
	}
	if err := r.information(f); err != nil {
		f.Close()
		return nil, err
	}
	n := len(r.info.TimeSteps)
	if n == 0 {
		n = 1
	}
	if step < 0 || step >= n {
		f.Close()
		return nil, fmt.Errorf("lfric: %w: step %d; the file has %d time steps", ErrTimeIndexOutOfRange, step, n)
	}
	if r.mesh == nil {
		m, err := buildMesh(f, r.conv)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.mesh = m
		r.log().WithFields(logrus.Fields{
			"points": len(m.Points),
			"cells":  len(m.Cells),
		}).Info("built mesh")
	}
	if r.cache == nil {
		size := r.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		r.cache = lru.New(size)
	}
	return f, nil
}

type cacheKey struct {
	name string
	step int
}

func (r *Reader) field(f *ncfile.File, name string, step int) (*Field, error) {
	key := cacheKey{name: name, step: step}
	if v, ok := r.cache.Get(key); ok {
		return v.(*Field), nil
	}
	fld, err := readField(f, r.mesh, r.conv, name, step)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, fld)
	return fld, nil
}

// RequestData returns the mesh with the configured fields loaded for
// time index step. The returned mesh shares its points and cells with
// the meshes returned for other steps and must not be modified.
func (r *Reader) RequestData(step int) (*Mesh, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.prepare(step)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := r.mesh.withFields()
	m.Step = step
	if step < len(r.info.TimeSteps) {
		m.Time = r.info.TimeSteps[step]
	}
	names := r.Fields
	if len(names) == 0 {
		for _, fi := range r.info.Fields {
			names = append(names, fi.Name)
		}
	}
	for _, name := range names {
		fld, err := r.field(f, name, step)
		if err == nil {
			err = m.AddField(fld)
		}
		if err != nil {
			if r.StrictFields {
				return nil, err
			}
			r.log().WithFields(logrus.Fields{
				"field": name,
				"step":  step,
			}).Warnf("skipping field: %v", err)
		}
	}
	r.phase = dataReady
	return m, nil
}

// LoadField returns the values of a single field at time index step.
func (r *Reader) LoadField(name string, step int) (*Field, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.prepare(step)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.field(f, name, step)
}

// StepForTime returns the index of the time step closest to t. Files
// without a time dimension have a single step, 0.
func (r *Reader) StepForTime(t float64) (int, error) {
	info, err := r.RequestInformation()
	if err != nil {
		return 0, err
	}
	best, dist := 0, math.Inf(1)
	for i, v := range info.TimeSteps {
		if d := math.Abs(v - t); d < dist {
			best, dist = i, d
		}
	}
	return best, nil
}
