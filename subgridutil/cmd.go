/*
Copyright © 2026 the subgrid authors.
This file is part of subgrid.

subgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

subgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with subgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package subgridutil

import (
	"fmt"
	"os"

	"github.com/flowmap/subgrid"
	"github.com/lnashier/viper"
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
	// Options are the configuration options available to subgrid.
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
              LogLevel specifies the minimum severity of log messages.
              Valid options are "debug", "info", "warning" and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MeshFile",
			usage: `
              MeshFile is the path to a polygon shapefile holding one face
              per mesh cell, in cell index order. It can include environment
              variables.`,
			defaultVal: "mesh.shp",
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags(), featuresCmd.Flags(), interpolateCmd.Flags()},
		},
		{
			name: "TerrainFile",
			usage: `
              TerrainFile is the path to the NetCDF terrain elevation raster,
              holding the variable "elevation" and the global attribute
              "transform". It can include environment variables.`,
			defaultVal: "terrain.nc",
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags(), bandCmd.Flags(), featuresCmd.Flags(), interpolateCmd.Flags()},
		},
		{
			name: "TablesFile",
			usage: `
              TablesFile is the path to the NetCDF subgrid table container,
              or the location where it should be created. It can include
              environment variables.`,
			defaultVal: "tables.nc",
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags(), bandCmd.Flags(), featuresCmd.Flags()},
		},
		{
			name: "SimulationFile",
			usage: `
              SimulationFile is the path to the NetCDF simulation output holding
              the variables vol1, s1 and optionally waterdepth with dimensions
              (time, cells). It can include environment variables.`,
			defaultVal: "simulation.nc",
			flagsets:   []*pflag.FlagSet{bandCmd.Flags(), featuresCmd.Flags(), interpolateCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output file location.
              Bands and interpolated fields are written as NetCDF and features
              as GeoJSON. It can include environment variables.`,
			defaultVal: "subgrid_output.nc",
			flagsets:   []*pflag.FlagSet{bandCmd.Flags(), featuresCmd.Flags(), interpolateCmd.Flags()},
		},
		{
			name: "Timestep",
			usage: `
              Timestep is the index of the simulation timestep to process.`,
			shorthand:  "t",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{bandCmd.Flags(), featuresCmd.Flags(), interpolateCmd.Flags()},
		},
		{
			name: "Method",
			usage: `
              Method specifies the solved output: "waterlevel" for one level
              per cell or "waterdepth" for the depth of every terrain pixel.`,
			shorthand:  "m",
			defaultVal: string(subgrid.WaterDepth),
			flagsets:   []*pflag.FlagSet{bandCmd.Flags(), featuresCmd.Flags()},
		},
		{
			name: "NBins",
			usage: `
              NBins is the number of terrain elevation bins per mesh cell.`,
			defaultVal: subgrid.DefaultNBins,
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of concurrent workers used to build the
              tables. If < 1, the number of processors is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags()},
		},
		{
			name: "Progress",
			usage: `
              Progress specifies whether to display a progress bar while
              building tables.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{tablesCmd.Flags()},
		},
		{
			name: "FillValue",
			usage: `
              FillValue is the value of interpolated fields outside the
              convex hull of the mesh cell centers.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{interpolateCmd.Flags()},
		},
		{
			name: "Window",
			usage: `
              Window restricts interpolation to the terrain pixels in
              rows [row0, row1) and columns [col0, col1), given as
              row0,row1,col0,col1. If empty, the whole raster is used.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{interpolateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SUBGRID")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
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
	Root.AddCommand(configCmd)
	Root.AddCommand(tablesCmd)
	Root.AddCommand(bandCmd)
	Root.AddCommand(featuresCmd)
	Root.AddCommand(interpolateCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("subgrid: problem reading configuration file: %v", err)
		}
		logger.WithField("file", cfgpath).Info("using configuration file")
	}
	return setLogLevel(Cfg.GetString("LogLevel"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "subgrid",
	Short: "Map coarse simulated water volumes onto fine terrain.",
	Long: `subgrid converts the per-cell water volumes of a coarse hydrodynamic
simulation into high resolution water level and water depth fields using a
fine terrain elevation raster. Use the subcommands specified below to build
the per-cell volume tables once and then solve any number of timesteps.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SUBGRID_var' where 'var' is the
name of the variable to be set. File paths are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of subgrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("subgrid v%s\n", subgrid.Version)
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the configuration that results from the defaults,
the configuration file, environment variables and command-line arguments
in TOML format. The output can be used as a configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return WriteConfig(cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

// tablesCmd builds and saves the subgrid tables.
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Build subgrid volume tables",
	Long: `tables histograms the terrain under every mesh cell and saves the
resulting volume tables to TablesFile. If TablesFile already holds tables
built from the same mesh and terrain, it is left unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tablesFile, err := checkOutputFile(Cfg.GetString("TablesFile"))
		if err != nil {
			return err
		}
		return Tables(
			os.ExpandEnv(Cfg.GetString("MeshFile")),
			os.ExpandEnv(Cfg.GetString("TerrainFile")),
			tablesFile,
			Cfg.GetInt("NBins"),
			Cfg.GetInt("Workers"),
			Cfg.GetBool("Progress"),
		)
	},
	DisableAutoGenTag: true,
}

// bandCmd solves one timestep into a raster band.
var bandCmd = &cobra.Command{
	Use:   "band",
	Short: "Compute a solved raster band",
	Long: `band solves every mesh cell of one simulation timestep and writes the
resulting water levels or depths over the full terrain extent to OutputFile
in NetCDF format. Cells whose terrain contains masked pixels are left masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		m, err := subgrid.ParseMethod(Cfg.GetString("Method"))
		if err != nil {
			return err
		}
		return Band(
			os.ExpandEnv(Cfg.GetString("TerrainFile")),
			os.ExpandEnv(Cfg.GetString("TablesFile")),
			os.ExpandEnv(Cfg.GetString("SimulationFile")),
			outputFile,
			Cfg.GetInt("Timestep"),
			m,
		)
	},
	DisableAutoGenTag: true,
}

// featuresCmd solves one timestep into point features.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute solved point features",
	Long: `features solves every mesh cell of one simulation timestep and writes
one GeoJSON point feature per cell to OutputFile. Each feature holds the
simulated s1, vol1 and waterdepth and the solved value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		m, err := subgrid.ParseMethod(Cfg.GetString("Method"))
		if err != nil {
			return err
		}
		return Features(
			os.ExpandEnv(Cfg.GetString("MeshFile")),
			os.ExpandEnv(Cfg.GetString("TerrainFile")),
			os.ExpandEnv(Cfg.GetString("TablesFile")),
			os.ExpandEnv(Cfg.GetString("SimulationFile")),
			outputFile,
			Cfg.GetInt("Timestep"),
			m,
		)
	},
	DisableAutoGenTag: true,
}

// interpolateCmd interpolates one timestep onto the terrain.
var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "Compute an interpolated water depth",
	Long: `interpolate linearly interpolates the simulated water depth between
mesh cell centers onto the terrain pixels and writes it to OutputFile in
NetCDF format, masked where the terrain is at or above the interpolated
water level.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		w, err := checkWindow(Cfg.Get("Window"))
		if err != nil {
			return err
		}
		return Interpolate(
			os.ExpandEnv(Cfg.GetString("MeshFile")),
			os.ExpandEnv(Cfg.GetString("TerrainFile")),
			os.ExpandEnv(Cfg.GetString("SimulationFile")),
			outputFile,
			Cfg.GetInt("Timestep"),
			w,
			Cfg.GetFloat64("FillValue"),
		)
	},
	DisableAutoGenTag: true,
}
