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

package hpproc

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
)

// A Classification configures one classifier remap: the method selects
// the translation table, ScoreField names the input scores, and
// FieldName names the resulting HydroPhase field.
type Classification struct {
	Method     string
	FieldName  string
	LongName   string
	ScoreField string
}

// Config holds the datastream-level processing configuration. The
// zero value is not usable; start from DefaultConfig or LoadConfig.
type Config struct {
	// InputFilePattern and OutputFilePattern are the datastream name
	// fragments of input and output file names. Output names are
	// derived from input names by substituting one for the other.
	InputFilePattern  string
	OutputFilePattern string

	// ReflectivityField is the echo field that gates classification
	// masks and the lowest-level search.
	ReflectivityField string

	// FilterFields are the only fields kept after classification.
	FilterFields []string

	// AdditionalFields are sampled at the lowest valid level alongside
	// the HydroPhase fields.
	AdditionalFields []string

	// Classifications configures the available classifiers by season
	// key. The "pyart" entry always runs; one of the others is
	// selected per run.
	Classifications map[string]Classification

	// VariableMapping translates dataset field names to output
	// variable names.
	VariableMapping map[string]string

	// Attrs supplies values for global attribute slots the output
	// schema leaves unset.
	Attrs map[string]string
}

// RunConfig converts c to the form the writer consumes.
func (c *Config) RunConfig() dod.RunConfig {
	return dod.RunConfig{Attrs: c.Attrs, VariableMapping: c.VariableMapping}
}

// Season returns the classification configured under the given key.
func (c *Config) Season(key string) (Classification, error) {
	cl, ok := c.Classifications[key]
	if !ok {
		return Classification{}, fmt.Errorf("hpproc: invalid season %q; must be one of the configured classifications", key)
	}
	return cl, nil
}

// LoadConfig reads a TOML configuration file, with DefaultConfig
// supplying every key the file omits.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("hpproc: reading configuration file: %v", err)
	}
	return c, nil
}

// DefaultConfig returns the configuration of the Gunnison, Colorado
// X-band precipitation radar HydroPhase datastream.
func DefaultConfig() *Config {
	return &Config{
		InputFilePattern:  "gucxprecipradarcmacppiS2.c1",
		OutputFilePattern: "gucxprecipradarcmacppihpS2.c1",
		ReflectivityField: "corrected_reflectivity",
		FilterFields: []string{
			"corrected_reflectivity",
			"hp_semisupervised", "hp_fhc_summer", "hp_fhc_winter",
			"z", "lat", "lon", "x", "y",
		},
		AdditionalFields: []string{"corrected_reflectivity"},
		Classifications: map[string]Classification{
			"summer": {
				Method:     "summer",
				FieldName:  "hp_fhc_summer",
				LongName:   "HydroPhase from CSU Summer",
				ScoreField: "hp_fhc_summer",
			},
			"winter": {
				Method:     "winter",
				FieldName:  "hp_fhc_winter",
				LongName:   "HydroPhase from CSU Winter",
				ScoreField: "hp_fhc_winter",
			},
			"pyart": {
				Method:     "pyart",
				FieldName:  "hp_semisupervised",
				LongName:   "HydroPhase from Py-ART",
				ScoreField: "hp_semisupervised",
			},
		},
		VariableMapping: map[string]string{
			"corrected_reflectivity": "corrected_reflectivity",
			"hp_fhc_summer":          "hp_fhc",
			"hp_fhc_winter":          "hp_fhc",
			"hp_semisupervised":      "hp_ssc",
			"lowest_height":          "lowest_height",
			"lat":                    "lat",
			"lon":                    "lon",
			"x":                      "x",
			"y":                      "y",
		},
		Attrs: map[string]string{
			"process_version":      Version,
			"dod_version":          "xprecipradarhp-c1-1.3",
			"input_datastream":     "xprecipradarcmacppi",
			"input_datastreams":    "gucxprecipradarcmacppiS2.c1",
			"datastream":           "gucxprecipradarhpS2.c1",
			"platform_id":          "xprecipradar",
			"site_id":              "guc",
			"facility_id":          "X1",
			"data_level":           "c1",
			"location_description": "Gunnison, Colorado",
			"known_issues":         "Issues with SSC method during winter above melting layer, for mixed category.",
			"attributions": "This data is collected by the ARM User Facility. Radar system is operated by the radar engineering team " +
				"radar@arm.gov and the data is processed by the precipitation radar products team.",
			"developers": "Bhupendra Raut, ANL., Joseph O'Brien, ANL., Maxwell Grover, ANL., Robert Jackson, ANL., Zachary Sherman, ANL.",
			"doi":        "10.5439/2530631",
		},
	}
}
