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

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// A Field is one named array in an input dataset. Mask marks invalid
// elements (true = invalid) and must have the same length as
// Data.Elements when present. IsTime marks time coordinate payloads,
// which must never flow through the generic value path.
type Field struct {
	Data   *sparse.DenseArray
	Mask   []bool
	IsTime bool
}

// A Dataset is the gridded input to one write operation. It is
// borrowed read-only for the duration of the write.
type Dataset interface {
	// Field returns the named array, or false if the dataset does
	// not contain it.
	Field(name string) (*Field, bool)
	// Attr returns the named dataset-level attribute.
	Attr(name string) (string, bool)
	// ScanTime returns the dataset's primary timestamp.
	ScanTime() time.Time
}

// A TypeMismatchError reports a value that is incompatible with the
// output slot the variable mapping routes it to.
type TypeMismatchError struct {
	Variable string
	Msg      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("dod: variable %s: %s", e.Variable, e.Msg)
}

// metadataVars maps the scalar radar metadata variables to the
// dataset-level attributes they are resolved from. Variables declared
// by the schema but absent from the dataset attributes get 0.0.
var metadataVars = map[string]string{
	"radar_lat": "origin_latitude",
	"radar_lon": "origin_longitude",
	"radar_alt": "origin_altitude",
}

// WriteFile writes ds to a new NetCDF file at path according to the
// resolved schema. The file is created fresh on every call, so a
// retried write overwrites any partial file from a prior failed
// attempt, and the handle is closed on all return paths.
func WriteFile(path string, ds Dataset, s *Schema, cfg RunConfig) error {
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dod: creating output file: %v", err)
	}
	defer ff.Close()
	if err := Write(ff, ds, s, cfg); err != nil {
		return err
	}
	if s.HasUnlimited() {
		if err := cdf.UpdateNumRecs(ff); err != nil {
			return fmt.Errorf("dod: finalizing output file: %v", err)
		}
	}
	return ff.Sync()
}

// Write writes ds to rw according to the resolved schema: first the
// structural pass (dimensions, globals, variables with bound fill
// values and attributes), then the value pass driven by
// cfg.VariableMapping, the standardized time variables, and the scalar
// radar metadata.
func Write(rw cdf.ReaderWriterAt, ds Dataset, s *Schema, cfg RunConfig) error {
	times := StandardizeTime(ds.ScanTime())
	times.FillAttrs(s)
	f, err := createStructure(rw, s)
	if err != nil {
		return err
	}
	return writeValues(f, ds, s, cfg, times)
}

func createStructure(rw cdf.ReaderWriterAt, s *Schema) (*cdf.File, error) {
	dims := make([]string, len(s.Dims))
	lengths := make([]int, len(s.Dims))
	for i, d := range s.Dims {
		dims[i] = d.Name
		if !d.Unlimited {
			lengths[i] = d.Size
		}
	}
	h := cdf.NewHeader(dims, lengths)

	// The computed variable inventory becomes the "fields" global,
	// overriding any value the schema carries for it.
	names := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		names[i] = v.Name
	}
	fields := strings.Join(names, ", ")
	if g := s.Global("fields"); g != nil {
		g.Value = fields
		g.Unset = false
	} else {
		s.Globals = append(s.Globals, &Global{Name: "fields", Value: fields})
	}

	for _, g := range s.Globals {
		h.AddAttribute("", g.Name, g.Value)
	}

	for _, v := range s.Vars {
		h.AddVariable(v.Name, v.Dims, v.Type.zero())
		// The fill value is bound with the variable's own storage
		// type; otherwise the format treats it as an ordinary
		// attribute instead of tying it to storage allocation.
		if fill, ok := v.FillValue(); ok {
			h.AddAttribute(v.Name, "_FillValue", v.Type.slice([]float64{fill}))
		}
		for _, a := range v.Attrs {
			if a.Name == "_FillValue" {
				continue
			}
			if a.Unset {
				// Slots no stage filled still appear in the
				// output, holding nothing.
				h.AddAttribute(v.Name, a.Name, "")
				continue
			}
			h.AddAttribute(v.Name, a.Name, a.Value)
		}
	}

	h.Define()
	for _, err := range h.Check() {
		return nil, fmt.Errorf("dod: defining output structure: %v", err)
	}
	f, err := cdf.Create(rw, h)
	if err != nil {
		return nil, fmt.Errorf("dod: creating output structure: %v", err)
	}
	// Prefill so that unmapped variables hold their fill value.
	for _, v := range s.Vars {
		if f.Header.IsRecordVariable(v.Name) {
			continue
		}
		if err := f.Fill(v.Name); err != nil {
			return nil, fmt.Errorf("dod: prefilling variable %s: %v", v.Name, err)
		}
	}
	return f, nil
}

func writeValues(f *cdf.File, ds Dataset, s *Schema, cfg RunConfig, times TimeVars) error {
	for _, ext := range sortKeys(cfg.VariableMapping) {
		name := cfg.VariableMapping[ext]
		if timeVarNames[name] {
			continue
		}
		fld, ok := ds.Field(ext)
		if !ok {
			continue
		}
		v := s.Var(name)
		if v == nil {
			continue
		}
		if err := writeField(f, v, ext, fld); err != nil {
			return err
		}
	}
	if err := writeTimes(f, s, times); err != nil {
		return err
	}
	return writeMetadata(f, ds, s)
}

// writeField copies one mapped array into its output variable,
// substituting masked and NaN elements with the variable's fill value
// and coercing to the declared storage type.
func writeField(f *cdf.File, v *Variable, ext string, fld *Field) error {
	if fld.IsTime {
		return &TypeMismatchError{Variable: ext,
			Msg: "time values must not pass through the variable mapping"}
	}

	vals := make([]float64, len(fld.Data.Elements))
	copy(vals, fld.Data.Elements)
	fill, hasFill := v.FillValue()
	if !hasFill {
		fill = v.Type.defaultFill()
	}
	for i, masked := range fld.Mask {
		if masked {
			vals[i] = fill
		}
	}
	if hasFill {
		for i, val := range vals {
			if math.IsNaN(val) {
				vals[i] = fill
			}
		}
	}

	slab := 1
	record := false
	for _, n := range f.Header.Lengths(v.Name) {
		if n == 0 {
			record = true
			continue
		}
		slab *= n
	}
	if record {
		if len(vals)%slab != 0 {
			return &TypeMismatchError{Variable: v.Name,
				Msg: fmt.Sprintf("array length %d is not a whole number of records of %d", len(vals), slab)}
		}
	} else if len(vals) != slab {
		return &TypeMismatchError{Variable: v.Name,
			Msg: fmt.Sprintf("array length %d does not match declared shape (%d elements)", len(vals), slab)}
	}

	return putVariable(f, v.Name, v.Type.slice(vals), len(vals))
}

// putVariable writes count elements covering the variable's whole
// extent. The strider for a fixed-shape variable ends at its last
// byte, so a complete write comes back as io.EOF; only a short write
// is a failure.
func putVariable(f *cdf.File, name string, values interface{}, count int) error {
	n, err := f.Writer(name, nil, nil).Write(values)
	if err == io.EOF && n == count {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("dod: writing variable %s: %v", name, err)
	}
	return nil
}

// writeTimes writes the standardized time values unconditionally;
// whatever the input dataset carries under these names is never used.
func writeTimes(f *cdf.File, s *Schema, times TimeVars) error {
	for _, tv := range []struct {
		name string
		vals []float64
	}{
		{"base_time", []float64{float64(times.BaseTime)}},
		{"time_offset", times.TimeOffset},
		{"time", times.Time},
	} {
		v := s.Var(tv.name)
		if v == nil {
			continue
		}
		if err := putVariable(f, tv.name, v.Type.slice(tv.vals), len(tv.vals)); err != nil {
			return err
		}
	}
	return nil
}

func writeMetadata(f *cdf.File, ds Dataset, s *Schema) error {
	for _, name := range []string{"radar_lat", "radar_lon", "radar_alt"} {
		v := s.Var(name)
		if v == nil {
			continue
		}
		val := 0.0
		if text, ok := ds.Attr(metadataVars[name]); ok {
			if parsed, err := strconv.ParseFloat(text, 64); err == nil {
				val = parsed
			}
		}
		if err := putVariable(f, name, v.Type.slice([]float64{val}), 1); err != nil {
			return err
		}
	}
	return nil
}

func sortKeys(m map[string]string) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
