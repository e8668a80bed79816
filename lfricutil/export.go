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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lfric"
)

// Export writes the mesh and fields read by r at the given step to
// outputFile in VTK unstructured grid format. If allSteps is true, every
// time step is written to its own file, with the step index added to the
// file name. If shapefileLayer is not negative, that layer is also
// written to a shapefile with the same base name.
func Export(r *lfric.Reader, outputFile string, step int, allSteps bool, shapefileLayer int) error {
	if outputFile == "" {
		return fmt.Errorf("lfric: no output file specified")
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), os.ModePerm); err != nil {
		return fmt.Errorf("lfric: creating output directory: %v", err)
	}
	if !allSteps {
		return exportStep(r, outputFile, step, shapefileLayer)
	}
	info, err := r.RequestInformation()
	if err != nil {
		return err
	}
	n := len(info.TimeSteps)
	if n == 0 {
		n = 1
	}
	ext := filepath.Ext(outputFile)
	base := strings.TrimSuffix(outputFile, ext)
	for i := 0; i < n; i++ {
		if err := exportStep(r, fmt.Sprintf("%s_%04d%s", base, i, ext), i, shapefileLayer); err != nil {
			return err
		}
	}
	return nil
}

func exportStep(r *lfric.Reader, outputFile string, step, shapefileLayer int) error {
	m, err := r.RequestData(step)
	if err != nil {
		return err
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("lfric: creating output file: %v", err)
	}
	if err := lfric.WriteVTU(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("lfric: closing output file: %v", err)
	}
	logStats(r.Log, m, outputFile)
	if shapefileLayer >= 0 {
		shpFile := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".shp"
		if err := lfric.WriteShapefile(shpFile, m, shapefileLayer); err != nil {
			return err
		}
	}
	return nil
}

// logStats logs the range and mean of every field written to outputFile.
func logStats(log logrus.FieldLogger, m *lfric.Mesh, outputFile string) {
	if log == nil {
		return
	}
	for _, name := range m.FieldNames() {
		f, _ := m.Field(name)
		min, max := f.Range()
		log.WithFields(logrus.Fields{
			"output": outputFile,
			"step":   m.Step,
			"field":  name,
			"min":    min,
			"max":    max,
			"mean":   f.Mean(),
		}).Info("exported field")
	}
}
