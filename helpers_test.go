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
	"path/filepath"
	"testing"

	"github.com/spatialmodel/lfric/internal/ncfixture"
	"github.com/spatialmodel/lfric/ncfile"
)

// quadStrip returns a row of nf unit squares. Node i is at (i, 0) and
// node nf+1+i is at (i, 1).
func quadStrip(nf int) (x, y []float64, faces [][]int) {
	for j := 0; j < 2; j++ {
		for i := 0; i <= nf; i++ {
			x = append(x, float64(i))
			y = append(y, float64(j))
		}
	}
	for f := 0; f < nf; f++ {
		faces = append(faces, []int{f, f + 1, nf + 2 + f, nf + 1 + f})
	}
	return
}

// stripFile returns a file with nf quadrilateral faces and the given
// full level heights.
func stripFile(nf int, levels []float64, times []float64) *ncfixture.File {
	x, y, faces := quadStrip(nf)
	return &ncfixture.File{
		NodeX:      x,
		NodeY:      y,
		FaceNodes:  faces,
		FullLevels: levels,
		Times:      times,
	}
}

func fill(n int, f func(i int) float64) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = f(i)
	}
	return o
}

func writeFixture(t *testing.T, f *ncfixture.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lfric_output.nc")
	if err := ncfixture.Write(path, f); err != nil {
		t.Fatal(err)
	}
	return path
}

func openFixture(t *testing.T, f *ncfixture.File) *ncfile.File {
	t.Helper()
	nc, err := ncfile.Open(writeFixture(t, f))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}
