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
	"os"
	"time"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// A SceneReader loads one input scene file into a Dataset.
type SceneReader interface {
	Read(path string) (*Dataset, error)
}

// NetCDFReader reads gridded radar scenes from NetCDF classic files,
// such as the CMAC PPI datastream. Every numeric variable becomes a
// field; elements equal to the variable's _FillValue are masked, the
// scan time is recovered from base_time and time_offset, and string
// global attributes carry over as scene attributes.
type NetCDFReader struct{}

var _ SceneReader = NetCDFReader{}

func (NetCDFReader) Read(path string) (*Dataset, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hpproc: opening scene file: %v", err)
	}
	defer ff.Close()
	fi, err := ff.Stat()
	if err != nil {
		return nil, fmt.Errorf("hpproc: opening scene file: %v", err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("hpproc: reading scene file %s: %v", path, err)
	}
	numRecs := int(f.Header.NumRecs(fi.Size()))

	ds := NewDataset(time.Time{})
	for _, name := range f.Header.Variables() {
		fld, err := readVariable(f, name, numRecs)
		if err != nil {
			return nil, fmt.Errorf("hpproc: reading scene file %s: %v", path, err)
		}
		if fld == nil {
			continue
		}
		fld.IsTime = timeVariable(name)
		ds.AddField(name, fld)
	}

	scan, err := sceneTime(ds)
	if err != nil {
		return nil, fmt.Errorf("hpproc: reading scene file %s: %v", path, err)
	}
	ds.scan = scan

	for _, name := range f.Header.Attributes("") {
		if v, ok := f.Header.GetAttribute("", name).(string); ok {
			ds.SetAttr(name, v)
		}
	}
	return ds, nil
}

func timeVariable(name string) bool {
	return name == "base_time" || name == "time_offset" || name == "time"
}

// readVariable reads one full variable into a float64 field. Character
// variables return nil; they have no numeric interpretation here.
func readVariable(f *cdf.File, name string, numRecs int) (*dod.Field, error) {
	// Lengths exposes the header's own slice; patching the record
	// count into it would make the variable look fixed-shape to the
	// reader below.
	dims := append([]int(nil), f.Header.Lengths(name)...)
	n := 1
	for i, d := range dims {
		if d == 0 {
			dims[i] = numRecs
			d = numRecs
		}
		n *= d
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, ok := buf.(string); ok {
		return nil, nil
	}
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("variable %s: %v", name, err)
		}
	}

	var data *sparse.DenseArray
	if len(dims) == 0 {
		data = sparse.ZerosDense(1)
	} else {
		data = sparse.ZerosDense(dims...)
	}
	switch vals := buf.(type) {
	case []uint8:
		for i, v := range vals {
			data.Elements[i] = float64(int8(v))
		}
	case []int16:
		for i, v := range vals {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range vals {
			data.Elements[i] = float64(v)
		}
	case []float32:
		for i, v := range vals {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, vals)
	default:
		return nil, fmt.Errorf("variable %s: unsupported storage type %T", name, buf)
	}

	fld := &dod.Field{Data: data}
	if fill, ok := attrFill(f.Header.GetAttribute(name, "_FillValue")); ok {
		mask := make([]bool, len(data.Elements))
		any := false
		for i, v := range data.Elements {
			if v == fill {
				mask[i] = true
				any = true
			}
		}
		if any {
			fld.Mask = mask
		}
	}
	return fld, nil
}

func attrFill(val interface{}) (float64, bool) {
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
	}
	return 0, false
}

// sceneTime recovers the scan time from the base_time and time_offset
// variables of the input file.
func sceneTime(ds *Dataset) (time.Time, error) {
	bt, ok := ds.Field("base_time")
	if !ok || len(bt.Data.Elements) == 0 {
		return time.Time{}, fmt.Errorf("no base_time variable; cannot determine scan time")
	}
	offset := 0.0
	if to, ok := ds.Field("time_offset"); ok && len(to.Data.Elements) > 0 {
		offset = to.Data.Elements[0]
	}
	sec := bt.Data.Elements[0] + offset
	return time.Unix(int64(sec), 0).UTC(), nil
}
