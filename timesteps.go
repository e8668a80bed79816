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
	"io/ioutil"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lfric/ncfile"
)

// discard is used where no logger is given.
var discard = func() *logrus.Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}()

// ListTimeSteps returns the values of the time coordinate in file order.
// It returns an empty slice if f has no time dimension. If the time
// dimension exists but the time variable does not, the step indices are
// returned instead and a warning is logged.
func ListTimeSteps(f *ncfile.File, c *Conventions, log logrus.FieldLogger) ([]float64, error) {
	if log == nil {
		log = discard
	}
	if !f.HasDimension(c.TimeDimension) {
		return []float64{}, nil
	}
	n, err := f.DimensionSize(c.TimeDimension)
	if err != nil {
		return nil, err
	}
	for _, v := range []string{c.TimeVariable, c.TimeDimension} {
		if v == "" || !f.HasVariable(v) {
			continue
		}
		dims, err := f.VariableDimensions(v)
		if err != nil || len(dims) != 1 || dims[0] != c.TimeDimension {
			continue
		}
		t, err := f.ReadFloat64(v, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("lfric: reading time steps: %w", err)
		}
		return t, nil
	}
	log.WithFields(logrus.Fields{
		"file":      f.Path,
		"dimension": c.TimeDimension,
		"variable":  c.TimeVariable,
	}).Warn("time variable not found; using step indices as time values")
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	return t, nil
}

// timeUnits returns the units of the time variable, if any.
func timeUnits(f *ncfile.File, c *Conventions) string {
	for _, v := range []string{c.TimeVariable, c.TimeDimension} {
		if u, ok := f.AttributeString(v, "units"); ok {
			return u
		}
	}
	return ""
}
