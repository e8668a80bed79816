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

package ncfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var errReadOnly = errors.New("ncfile: file is open read-only")

// memFile is a decompressed file held in memory.
type memFile struct {
	*bytes.Reader
}

func (memFile) WriteAt([]byte, int64) (int, error) { return 0, errReadOnly }
func (memFile) Close() error                       { return nil }

// decompressor returns a decompressing reader for files whose name ends
// in a recognized compression suffix, or nil.
func decompressor(path string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(path, ".zst"):
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	}
	return nil, nil
}

// openSource opens the file at path, decompressing it into memory if
// required, and returns it along with its (uncompressed) size.
func openSource(path string) (source, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	dr, err := decompressor(path, f)
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if dr == nil {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, err
		}
		return f, fi.Size(), nil
	}
	defer f.Close()
	defer dr.Close()
	b, err := ioutil.ReadAll(dr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decompressing: %v", ErrFormat, err)
	}
	return memFile{bytes.NewReader(b)}, int64(len(b)), nil
}
