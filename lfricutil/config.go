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

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/lfric"
)

// Conventions returns the naming conventions specified by cfg: those in
// the file named by the Conventions option, or the defaults, with the
// Projection, SphereRadius and VerticalScale options applied on top if
// they are set.
func Conventions(cfg *viper.Viper) (*lfric.Conventions, error) {
	c := lfric.DefaultConventions()
	if path := os.ExpandEnv(cfg.GetString("Conventions")); path != "" {
		var err error
		if c, err = lfric.LoadConventions(path); err != nil {
			return nil, err
		}
	}
	if p := cfg.GetString("Projection"); p != "" {
		c.Projection = p
	}
	if r := cfg.GetFloat64("SphereRadius"); r != 0 {
		c.SphereRadius = r
	}
	if s := cfg.GetFloat64("VerticalScale"); s != 0 {
		c.VerticalScale = s
	}
	return c, nil
}

// Logger returns a logger writing to standard error at the level given
// by the LogLevel option.
func Logger(cfg *viper.Viper) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = os.Stderr
	if l := cfg.GetString("LogLevel"); l != "" {
		level, err := logrus.ParseLevel(l)
		if err != nil {
			return nil, fmt.Errorf("lfric: invalid LogLevel: %v", err)
		}
		log.SetLevel(level)
	}
	return log, nil
}

// NewReader returns a reader for fileName configured by cfg.
func NewReader(cfg *viper.Viper, fileName string) (*lfric.Reader, error) {
	c, err := Conventions(cfg)
	if err != nil {
		return nil, err
	}
	log, err := Logger(cfg)
	if err != nil {
		return nil, err
	}
	r := lfric.NewReader(fileName)
	r.Conventions = c
	r.Log = log
	return r, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}
