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

// Package dod implements the Data Object Definition (DOD) contract for
// HydroPhase output files: parsing the text-form schema, resolving
// global attribute slots from the run configuration, deriving the
// standardized time variables, and writing NetCDF files whose
// dimensions, variable types, fill values, and attributes match the
// resolved schema exactly.
package dod

import (
	"strconv"
	"strings"
)

// A DataType is one of the value types a DOD variable can declare.
type DataType int

const (
	Byte DataType = iota + 1 // signed 8-bit integer
	Short
	Int
	Float
	Double
)

var dataTypeNames = []string{"", "byte", "short", "int", "float", "double"}

// ParseDataType converts a DOD type token to a DataType.
func ParseDataType(s string) (DataType, bool) {
	for i := 1; i < len(dataTypeNames); i++ {
		if s == dataTypeNames[i] {
			return DataType(i), true
		}
	}
	return 0, false
}

func (d DataType) String() string {
	if d >= Byte && d <= Double {
		return dataTypeNames[d]
	}
	return "unknown"
}

// zero returns a one-element slice of the NetCDF storage type
// corresponding to d, suitable as a cdf variable prototype.
func (d DataType) zero() interface{} {
	switch d {
	case Byte:
		return []uint8{0}
	case Short:
		return []int16{0}
	case Int:
		return []int32{0}
	case Float:
		return []float32{0}
	case Double:
		return []float64{0}
	}
	return nil
}

// defaultFill returns the NetCDF default fill value for d, used when a
// variable declares no _FillValue of its own.
func (d DataType) defaultFill() float64 {
	switch d {
	case Byte:
		return -127
	case Short:
		return -32767
	case Int:
		return -2147483647
	case Float, Double:
		return 9.9692099683868690e+36
	}
	return 0
}

// slice converts vals to the NetCDF storage type corresponding to d.
func (d DataType) slice(vals []float64) interface{} {
	switch d {
	case Byte:
		o := make([]uint8, len(vals))
		for i, v := range vals {
			o[i] = uint8(int8(v))
		}
		return o
	case Short:
		o := make([]int16, len(vals))
		for i, v := range vals {
			o[i] = int16(v)
		}
		return o
	case Int:
		o := make([]int32, len(vals))
		for i, v := range vals {
			o[i] = int32(v)
		}
		return o
	case Float:
		o := make([]float32, len(vals))
		for i, v := range vals {
			o[i] = float32(v)
		}
		return o
	case Double:
		o := make([]float64, len(vals))
		copy(o, vals)
		return o
	}
	return nil
}

// A Dim is one declared output dimension. An unlimited dimension has
// Unlimited set and Size zero.
type Dim struct {
	Name      string
	Size      int
	Unlimited bool
}

// An Attr is one declared attribute of a variable. Value holds the
// typed value as one of the NetCDF storage types (string, []uint8,
// []int16, []int32, []float32 or []float64). Unset marks a slot the
// schema declares without a value, to be filled at write time.
type Attr struct {
	Name  string
	Value interface{}
	Unset bool
}

// A Variable is one declared output variable. An empty Dims slice
// declares a scalar.
type Variable struct {
	Name  string
	Type  DataType
	Dims  []string
	Attrs []*Attr

	line int // declaration line, for validation errors
}

// Attr returns the named attribute, or nil.
func (v *Variable) Attr(name string) *Attr {
	for _, a := range v.Attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FillValue returns the variable's declared _FillValue, if it is set
// and numeric.
func (v *Variable) FillValue() (float64, bool) {
	a := v.Attr("_FillValue")
	if a == nil || a.Unset {
		return 0, false
	}
	return attrFloat(a.Value)
}

// attrFloat extracts a numeric attribute value. String values are
// parsed so that fill values declared without a type hint still bind.
func attrFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case []uint8:
		if len(v) == 1 {
			return float64(int8(v[0])), true
		}
	case []int16:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []float32:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// A Global is one file-level attribute. Unset marks a slot the schema
// declares without a value, to be resolved from the run configuration.
type Global struct {
	Name  string
	Value string
	Unset bool
}

// A Schema is the parsed form of one DOD document. It is owned by a
// single write operation: the resolver and the time normalizer mutate
// it in place and it must not be shared between concurrent writes.
type Schema struct {
	Dims    []Dim
	Vars    []*Variable
	Globals []*Global
}

// Dim returns the named dimension, or nil.
func (s *Schema) Dim(name string) *Dim {
	for i := range s.Dims {
		if s.Dims[i].Name == name {
			return &s.Dims[i]
		}
	}
	return nil
}

// Var returns the named variable, or nil.
func (s *Schema) Var(name string) *Variable {
	for _, v := range s.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Global returns the named global attribute, or nil.
func (s *Schema) Global(name string) *Global {
	for _, g := range s.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// HasUnlimited reports whether the schema declares a growable
// dimension.
func (s *Schema) HasUnlimited() bool {
	for _, d := range s.Dims {
		if d.Unlimited {
			return true
		}
	}
	return false
}
