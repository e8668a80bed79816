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

// Package lfricutil contains the command-line interface for reading
// LFRic output files.
package lfricutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/lfric"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the logging level: one of panic, fatal, error,
              warning, info, or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Conventions",
			usage: `
              Conventions specifies the location of a TOML file giving the
              dimension and variable names used in the input file. Names
              missing from the file keep their defaults, which match LFRic
              output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Projection",
			usage: `
              Projection sets the output coordinates: 'lonlat' for
              longitude and latitude, 'sphere' for Cartesian coordinates on
              a sphere of radius SphereRadius, or a proj4 string. If empty,
              the value from the conventions is used.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "SphereRadius",
			usage: `
              SphereRadius is the radius used by the 'sphere' projection.
              Zero means the value from the conventions is used.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "VerticalScale",
			usage: `
              VerticalScale multiplies the height of every level.
              Zero means the value from the conventions is used.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Fields",
			usage: `
              Fields lists the fields to export. If empty, all fields
              are exported.`,
			shorthand:  "f",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "StrictFields",
			usage: `
              StrictFields makes the export fail if any field cannot be
              read. Otherwise such fields are skipped with a warning.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Step",
			usage: `
              Step is the index of the time step to export.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "AllSteps",
			usage: `
              AllSteps exports every time step to its own file, numbered
              after the step index.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the VTK unstructured grid (.vtu)
              file to write.`,
			shorthand:  "o",
			defaultVal: "lfric.vtu",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "ShapefileLayer",
			usage: `
              ShapefileLayer, if not negative, is the index of a layer to
              additionally write to a shapefile next to OutputFile.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "json",
			usage: `
              json prints the file information as JSON.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
	}

	Cfg = viper.New()
	setEnv(Cfg)

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
			case int:
				set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(stepsCmd)
	Root.AddCommand(exportCmd)
}

// setEnv makes cfg read options from environment variables named
// LFRIC_ followed by the upper-case option name.
func setEnv(cfg *viper.Viper) {
	cfg.SetEnvPrefix("LFRIC")
	cfg.AutomaticEnv()
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("lfric: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "lfric",
	Short: "A reader for LFRic model output.",
	Long: `lfric reads LFRic model output stored in UGRID netCDF files, builds the
three-dimensional mesh by extruding the horizontal faces through the model
levels, and exports it with its fields for viewing in ParaView or VisIt.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'LFRIC_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of lfric.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("lfric v%s\n", lfric.Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info file",
	Short: "Describe the contents of a file.",
	Long: `info prints the dimensions, the mesh size, the time steps and the
fields available in an LFRic output file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := NewReader(Cfg, os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		return Info(cmd.OutOrStdout(), r, Cfg.GetBool("json"))
	},
	DisableAutoGenTag: true,
}

var stepsCmd = &cobra.Command{
	Use:   "steps file",
	Short: "List the time steps in a file.",
	Long:  `steps prints the index and value of every time step in an LFRic output file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := NewReader(Cfg, os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		return Steps(cmd.OutOrStdout(), r)
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export file",
	Short: "Export the mesh and fields.",
	Long: `export builds the three-dimensional mesh in an LFRic output file, loads
the fields for the requested time step and writes them to a VTK unstructured
grid file. A single layer can additionally be written to a shapefile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(Cfg, os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}

// runExport exports fileName as configured by cfg.
func runExport(cfg *viper.Viper, fileName string) error {
	r, err := NewReader(cfg, fileName)
	if err != nil {
		return err
	}
	fields, err := cast.ToStringSliceE(cfg.Get("Fields"))
	if err != nil {
		return fmt.Errorf("lfric: invalid Fields: %v", err)
	}
	r.Fields = expandStringSlice(fields)
	r.StrictFields = cfg.GetBool("StrictFields")
	return Export(r, os.ExpandEnv(cfg.GetString("OutputFile")), cfg.GetInt("Step"),
		cfg.GetBool("AllSteps"), cfg.GetInt("ShapefileLayer"))
}
