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

package dod

import "time"

// TimeVars is the canonical time representation written to every
// output file: whole-second epoch offset (base_time), offset from the
// scan time itself (time_offset), and seconds since UTC midnight of
// the scan day (time).
type TimeVars struct {
	BaseTime       int32
	BaseTimeString string
	BaseTimeUnits  string

	TimeOffset      []float64
	TimeOffsetUnits string

	Time       []float64
	TimeUnits  string
	TimeString string
}

const scanTimeFormat = "2006-01-02 15:04:05 0:00"

// timeVarNames are the output variables owned by the standardized time
// representation. The generic value pass must never write them.
var timeVarNames = map[string]bool{
	"base_time":   true,
	"time_offset": true,
	"time":        true,
}

// StandardizeTime derives the canonical time triple from a dataset's
// primary timestamp. It is total: any valid time yields a result, and
// callers must reject invalid timestamps upstream.
func StandardizeTime(t time.Time) TimeVars {
	t = t.UTC()
	scan := t.Format(scanTimeFormat)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return TimeVars{
		BaseTime:       int32(t.Unix()),
		BaseTimeString: scan,
		BaseTimeUnits:  "seconds since 1970-1-1 0:00:00 0:00",

		TimeOffset:      []float64{0},
		TimeOffsetUnits: "seconds since " + scan,

		Time:       []float64{t.Sub(midnight).Seconds()},
		TimeUnits:  "seconds since " + midnight.Format("2006-01-02 00:00:00 0:00"),
		TimeString: scan,
	}
}

// attrText returns the attribute text tv carries for the given time
// variable and attribute name.
func (tv TimeVars) attrText(varName, attrName string) (string, bool) {
	switch varName {
	case "base_time":
		switch attrName {
		case "string":
			return tv.BaseTimeString, true
		case "units":
			return tv.BaseTimeUnits, true
		}
	case "time_offset":
		if attrName == "units" {
			return tv.TimeOffsetUnits, true
		}
	case "time":
		switch attrName {
		case "string":
			return tv.TimeString, true
		case "units":
			return tv.TimeUnits, true
		}
	}
	return "", false
}

// FillAttrs injects tv's strings into the attribute slots of the three
// time variables wherever the schema declares the slot but leaves it
// unset. Attributes the schema sets explicitly are never overwritten.
func (tv TimeVars) FillAttrs(s *Schema) {
	for name := range timeVarNames {
		v := s.Var(name)
		if v == nil {
			continue
		}
		for _, a := range v.Attrs {
			if !a.Unset {
				continue
			}
			if text, ok := tv.attrText(name, a.Name); ok {
				a.Value = text
				a.Unset = false
			}
		}
	}
}
