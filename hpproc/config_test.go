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
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.InputFilePattern == "" || c.OutputFilePattern == "" {
		t.Fatal("default file patterns must be set")
	}
	for _, key := range []string{"summer", "winter", "pyart"} {
		if _, err := c.Season(key); err != nil {
			t.Errorf("season %s: %v", key, err)
		}
	}
	if _, err := c.Season("monsoon"); err == nil {
		t.Error("unknown season: expected an error")
	}
	rc := c.RunConfig()
	if rc.VariableMapping["hp_semisupervised"] != "hp_ssc" {
		t.Errorf("variable mapping: got %v", rc.VariableMapping["hp_semisupervised"])
	}
	if rc.Attrs["doi"] == "" {
		t.Error("doi attribute must have a default")
	}
}

func TestLoadConfig(t *testing.T) {
	text := `
InputFilePattern = "sgpxprecipradarcmacppiS2.c1"
FilterFields = ["corrected_reflectivity", "z"]
`
	path := filepath.Join(t.TempDir(), "hp.toml")
	if err := ioutil.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.InputFilePattern != "sgpxprecipradarcmacppiS2.c1" {
		t.Errorf("InputFilePattern: got %q", c.InputFilePattern)
	}
	if !reflect.DeepEqual(c.FilterFields, []string{"corrected_reflectivity", "z"}) {
		t.Errorf("FilterFields: got %v", c.FilterFields)
	}
	// Keys the file omits keep their defaults.
	if c.OutputFilePattern != DefaultConfig().OutputFilePattern {
		t.Errorf("OutputFilePattern: got %q", c.OutputFilePattern)
	}
	if len(c.Classifications) != 3 {
		t.Errorf("classifications: got %d, want 3", len(c.Classifications))
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing config file: expected an error")
	}
}
