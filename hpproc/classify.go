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

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/ctessum/sparse"
)

// HydroPhase categories: 0 unclassified, 1 liquid, 2 frozen,
// 3 high-density frozen, 4 melting. The tables translate the raw
// category index of each upstream classifier to these five.
var (
	csuSummerToHP = []float64{0, 1, 1, 2, 2, 4, 2, 3, 3, 3, 1}
	csuWinterToHP = []float64{0, 2, 2, 2, 2, 4, 3, 1}
	pyartToHP     = []float64{0, 2, 2, 1, 3, 1, 2, 4, 4, 3}
)

func remapTable(method string) ([]float64, error) {
	switch method {
	case "summer":
		return csuSummerToHP, nil
	case "winter":
		return csuWinterToHP, nil
	case "pyart":
		return pyartToHP, nil
	}
	return nil, fmt.Errorf("hpproc: unknown classification method %q", method)
}

// Classify remaps the raw classifier categories in c.ScoreField to
// HydroPhase categories and attaches the result as c.FieldName. The
// result's mask is the score mask combined with the reflectivity mask,
// so classified pixels never outlive the echo that produced them.
// Scores outside the classifier's category range are masked rather
// than written.
func Classify(ds *Dataset, c Classification, reflField string) error {
	table, err := remapTable(c.Method)
	if err != nil {
		return err
	}
	scores, ok := ds.Field(c.ScoreField)
	if !ok {
		return fmt.Errorf("hpproc: classification %s: score field %s not in dataset", c.Method, c.ScoreField)
	}

	n := len(scores.Data.Elements)
	mask := make([]bool, n)
	copy(mask, scores.Mask)
	if refl, ok := ds.Field(reflField); ok && len(refl.Mask) == n {
		for i, m := range refl.Mask {
			if m {
				mask[i] = true
			}
		}
	}

	out := sparse.ZerosDense(scores.Data.Shape...)
	for i, v := range scores.Data.Elements {
		if mask[i] {
			continue
		}
		idx := int(v)
		if math.IsNaN(v) || idx < 0 || idx >= len(table) {
			mask[i] = true
			continue
		}
		out.Elements[i] = table[idx]
	}

	ds.AddField(c.FieldName, &dod.Field{Data: out, Mask: mask})
	return nil
}
