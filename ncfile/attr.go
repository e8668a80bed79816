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
	"reflect"
	"strings"
)

// Attribute returns the value of attribute attName of variable varName,
// or of the global attribute attName if varName is "".
func (f *File) Attribute(varName, attName string) (interface{}, bool) {
	return f.b.attribute(varName, attName)
}

// AttributeString returns a text attribute, with any trailing NUL
// padding removed.
func (f *File) AttributeString(varName, attName string) (string, bool) {
	v, ok := f.b.attribute(varName, attName)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimRight(s, "\x00"), true
	case []string:
		return strings.Join(s, " "), true
	}
	return "", false
}

// AttributeFloat64 returns the first element of a numeric attribute.
func (f *File) AttributeFloat64(varName, attName string) (float64, bool) {
	v, ok := f.b.attribute(varName, attName)
	if !ok {
		return 0, false
	}
	if _, ok := v.(string); ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
