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
	"math"
	"strings"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// aboveGridHeight marks pixel columns with no valid echo; it sits above
// the top of the analysis grid so it never wins the minimum search.
const aboveGridHeight = 10000.0

// squeeze drops leading length-1 dimensions, so that scenes stored with
// a degenerate time dimension reduce to their spatial shape.
func squeeze(a *sparse.DenseArray) *sparse.DenseArray {
	shape := a.Shape
	for len(shape) > 1 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) == len(a.Shape) {
		return a
	}
	o := sparse.ZerosDense(shape...)
	copy(o.Elements, a.Elements)
	return o
}

// SubsetLowestLevel reduces a (z, y, x) scene to the lowest grid level
// holding a valid reflectivity echo in each pixel column. The fields
// whose names contain "hp", plus the extra fields, are sampled at that
// level; a lowest_height field records the level's height, or
// aboveGridHeight where the whole column is empty. Fields without a
// vertical dimension pass through unchanged.
func SubsetLowestLevel(ds *Dataset, reflField string, extra []string) (*Dataset, error) {
	refl, ok := ds.Field(reflField)
	if !ok {
		return nil, fmt.Errorf("hpproc: lowest-level subset: reflectivity field %s not in dataset", reflField)
	}
	z, ok := ds.Field("z")
	if !ok {
		return nil, fmt.Errorf("hpproc: lowest-level subset: height field z not in dataset")
	}

	reflData := squeeze(refl.Data)
	if len(reflData.Shape) != 3 {
		return nil, fmt.Errorf("hpproc: lowest-level subset: reflectivity has shape %v, want (z, y, x)", refl.Data.Shape)
	}
	nz, ny, nx := reflData.Shape[0], reflData.Shape[1], reflData.Shape[2]
	if len(z.Data.Elements) != nz {
		return nil, fmt.Errorf("hpproc: lowest-level subset: %d height levels for %d grid levels", len(z.Data.Elements), nz)
	}

	pick := map[string]bool{}
	for _, name := range ds.Names() {
		if strings.Contains(name, "hp") {
			pick[name] = true
		}
	}
	for _, name := range extra {
		pick[name] = true
	}

	// For each column, the lowest level with a valid echo.
	minIdx := make([]int, ny*nx)
	lowest := make([]float64, ny*nx)
	col := make([]float64, nz)
	for j := 0; j < ny*nx; j++ {
		for k := 0; k < nz; k++ {
			i := k*ny*nx + j
			v := reflData.Elements[i]
			if (len(refl.Mask) > i && refl.Mask[i]) || math.IsNaN(v) {
				col[k] = aboveGridHeight
			} else {
				col[k] = z.Data.Elements[k]
			}
		}
		minIdx[j] = floats.MinIdx(col)
		lowest[j] = col[minIdx[j]]
	}

	out := ds.copyMeta()
	for _, name := range ds.Names() {
		f, _ := ds.Field(name)
		if !pick[name] {
			if f.IsTime {
				continue
			}
			// Fields without the vertical dimension pass through.
			if len(squeeze(f.Data).Shape) < 3 && name != "z" {
				out.AddField(name, f)
			}
			continue
		}
		data := squeeze(f.Data)
		if len(data.Shape) != 3 || data.Shape[0] != nz || data.Shape[1] != ny || data.Shape[2] != nx {
			return nil, fmt.Errorf("hpproc: lowest-level subset: field %s has shape %v, want %v", name, f.Data.Shape, reflData.Shape)
		}
		sub := sparse.ZerosDense(ny, nx)
		mask := make([]bool, ny*nx)
		for j := 0; j < ny*nx; j++ {
			i := minIdx[j]*ny*nx + j
			sub.Elements[j] = data.Elements[i]
			if len(f.Mask) > i && f.Mask[i] {
				mask[j] = true
			}
		}
		out.AddField(name, &dod.Field{Data: sub, Mask: mask})
	}

	lh := sparse.ZerosDense(ny, nx)
	copy(lh.Elements, lowest)
	out.AddField("lowest_height", &dod.Field{Data: lh})
	return out, nil
}
