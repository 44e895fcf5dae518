/*
Copyright © 2026 the HydroPhase authors.
This file is part of HydroPhase.

HydroPhase is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

HydroPhase is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with HydroPhase.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hputil holds the HydroPhase command-line interface.
package hputil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/RBhupi/xprecipradarhp-vap-proc/hpproc"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the
	// HydroPhase processor.
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
			name: "datastream_config",
			usage: `
              datastream_config specifies a TOML file overriding the
              datastream-level processing configuration (file patterns,
              field lists, classifications, variable mapping, and
              output global attributes). Keys the file omits keep
              their built-in Gunnison defaults.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "data_dir",
			usage: `
              data_dir specifies the directory holding the input
              gridded CMAC scene files.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir specifies the directory that output files are
              written to. It is created if it does not exist.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "dod_template",
			usage: `
              dod_template specifies the path of the DOD schema
              document that defines the structure of the output files.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "season",
			usage: `
              season selects the seasonal classification to run in
              addition to the semisupervised one: summer or winter.`,
			shorthand:  "s",
			defaultVal: "summer",
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "rerun",
			usage: `
              rerun reprocesses scenes whose output files already
              exist. By default such scenes are skipped.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers specifies how many scene files are processed
              concurrently. Zero means one worker per CPU.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "attrs",
			usage: `
              attrs supplies extra values for global attribute slots
              the DOD leaves unset, overriding the datastream
              configuration, as a JSON object when given on the
              command line.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HYDROPHASE")

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
			case map[string]string:
				s := mapFlagDefault(option.defaultVal.(map[string]string))
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
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
	Root.AddCommand(processCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hputil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

var Root = &cobra.Command{
	Use:   "hpvap",
	Short: "Derive HydroPhase products from gridded precipitation radar scenes.",
	Long: `hpvap remaps hydrometeor classifier output to HydroPhase categories,
reduces each scene to the lowest valid grid level, and writes one archival
NetCDF file per scene with the structure defined by a DOD schema document.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HYDROPHASE_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the process version recorded in output metadata.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("HydroPhase %s\n", hpproc.Version)
	},
	DisableAutoGenTag: true,
}

var processCmd = &cobra.Command{
	Use:   "process [year] [month]",
	Short: "Process one month of scene files",
	Long: `process derives HydroPhase output for every unprocessed scene file in
data_dir and writes one output file per scene to output_dir. The year and
month arguments label the batch in the log; file discovery follows the
datastream's input file pattern.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.StandardLogger()
		runner, err := newRunner(Cfg, log)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"year": args[0], "month": args[1], "season": runner.Season,
		}).Info("starting HydroPhase processing")
		summary, err := runner.Run()
		if err != nil {
			return err
		}
		// Per-file failures are tallied in the log; only finding no
		// input files at all fails the command.
		if summary.Succeeded+summary.Failed+summary.Skipped == 0 {
			return fmt.Errorf("hputil: no input files found in %s",
				Cfg.GetString("data_dir"))
		}
		return nil
	},
	DisableAutoGenTag: true,
}
