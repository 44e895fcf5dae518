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
	"testing"
	"time"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/ctessum/sparse"
)

func field(vals []float64, mask []bool, shape ...int) *dod.Field {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, vals)
	return &dod.Field{Data: a, Mask: mask}
}

func TestClassify(t *testing.T) {
	ds := NewDataset(time.Date(2024, 1, 15, 3, 20, 0, 0, time.UTC))
	ds.AddField("corrected_reflectivity", field(
		[]float64{10, 20, 30, 40, 50, 60},
		[]bool{false, false, false, true, false, false}, 6))
	ds.AddField("scores", field(
		[]float64{0, 1, 5, 2, 99, 7},
		[]bool{false, false, false, false, false, true}, 6))

	c := Classification{Method: "summer", FieldName: "hp", ScoreField: "scores"}
	if err := Classify(ds, c, "corrected_reflectivity"); err != nil {
		t.Fatal(err)
	}

	hp, ok := ds.Field("hp")
	if !ok {
		t.Fatal("hp field not added")
	}
	// csu summer: 0->0, 1->1, 5->4, 2->1.
	wantVals := []float64{0, 1, 4, 0, 0, 0}
	wantMask := []bool{false, false, false, true, true, true}
	for i := range wantVals {
		if hp.Mask[i] != wantMask[i] {
			t.Errorf("mask[%d]: got %v, want %v", i, hp.Mask[i], wantMask[i])
		}
		if !hp.Mask[i] && hp.Data.Elements[i] != wantVals[i] {
			t.Errorf("hp[%d]: got %v, want %v", i, hp.Data.Elements[i], wantVals[i])
		}
	}

	// The source mask must not have been widened in place.
	scores, _ := ds.Field("scores")
	if scores.Mask[3] {
		t.Error("source score mask mutated")
	}
}

func TestClassifyTables(t *testing.T) {
	cases := []struct {
		method string
		score  float64
		want   float64
	}{
		{"summer", 7, 3},
		{"summer", 10, 1},
		{"winter", 6, 3},
		{"winter", 7, 1},
		{"pyart", 3, 1},
		{"pyart", 9, 3},
	}
	for _, c := range cases {
		ds := NewDataset(time.Time{})
		ds.AddField("s", field([]float64{c.score}, nil, 1))
		err := Classify(ds, Classification{Method: c.method, FieldName: "hp", ScoreField: "s"}, "none")
		if err != nil {
			t.Fatal(err)
		}
		hp, _ := ds.Field("hp")
		if hp.Data.Elements[0] != c.want {
			t.Errorf("%s score %v: got %v, want %v", c.method, c.score, hp.Data.Elements[0], c.want)
		}
	}
}

func TestClassifyErrors(t *testing.T) {
	ds := NewDataset(time.Time{})
	ds.AddField("s", field([]float64{1}, nil, 1))

	if err := Classify(ds, Classification{Method: "autumn", FieldName: "hp", ScoreField: "s"}, "r"); err == nil {
		t.Error("unknown method: expected an error")
	}
	if err := Classify(ds, Classification{Method: "summer", FieldName: "hp", ScoreField: "missing"}, "r"); err == nil {
		t.Error("missing score field: expected an error")
	}
}
