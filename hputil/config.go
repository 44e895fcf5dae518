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

package hputil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/RBhupi/xprecipradarhp-vap-proc/hpproc"
)

// mapFlagDefault encodes a map default as a JSON string so it can be
// carried by a string command-line flag.
func mapFlagDefault(m map[string]string) string {
	b := bytes.NewBuffer(nil)
	e := json.NewEncoder(b)
	e.Encode(m)
	return string(b.Bytes())
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json
// object if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapString(v), nil
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("hputil: invalid json for option %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("hputil: invalid type for option %s: %#v", varName, i)
	}
}

// newRunner assembles a batch runner from the resolved configuration.
func newRunner(cfg *viper.Viper, log logrus.FieldLogger) (*hpproc.Runner, error) {
	conf := hpproc.DefaultConfig()
	if path := cfg.GetString("datastream_config"); path != "" {
		var err error
		if conf, err = hpproc.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	attrs, err := GetStringMapString("attrs", cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		conf.Attrs[k] = v
	}

	dodTemplate := cfg.GetString("dod_template")
	if dodTemplate == "" {
		return nil, fmt.Errorf("hputil: dod_template must be specified")
	}

	return &hpproc.Runner{
		Config:      conf,
		DataDir:     cfg.GetString("data_dir"),
		OutputDir:   cfg.GetString("output_dir"),
		DODTemplate: dodTemplate,
		Season:      cfg.GetString("season"),
		Rerun:       cfg.GetBool("rerun"),
		Workers:     cfg.GetInt("workers"),
		Log:         log,
	}, nil
}
