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
	"reflect"
	"testing"
	"time"
)

func TestStandardizeTime(t *testing.T) {
	tv := StandardizeTime(time.Date(2024, 1, 15, 3, 20, 0, 0, time.UTC))
	want := TimeVars{
		BaseTime:       1705288800,
		BaseTimeString: "2024-01-15 03:20:00 0:00",
		BaseTimeUnits:  "seconds since 1970-1-1 0:00:00 0:00",

		TimeOffset:      []float64{0},
		TimeOffsetUnits: "seconds since 2024-01-15 03:20:00 0:00",

		Time:       []float64{12000},
		TimeUnits:  "seconds since 2024-01-15 00:00:00 0:00",
		TimeString: "2024-01-15 03:20:00 0:00",
	}
	if !reflect.DeepEqual(tv, want) {
		t.Errorf("got %+v\nwant %+v", tv, want)
	}
}

// Non-UTC inputs are normalized to UTC before any derivation.
func TestStandardizeTimeZone(t *testing.T) {
	denver := time.FixedZone("MST", -7*3600)
	tv := StandardizeTime(time.Date(2024, 1, 14, 20, 20, 0, 0, denver))
	if tv.BaseTime != 1705288800 {
		t.Errorf("base_time: got %d, want 1705288800", tv.BaseTime)
	}
	if tv.TimeUnits != "seconds since 2024-01-15 00:00:00 0:00" {
		t.Errorf("time units: got %q", tv.TimeUnits)
	}
}

func TestStandardizeTimeRange(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 6, 30, 12, 0, 1, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		tv := StandardizeTime(ts)
		if sec := tv.Time[0]; sec < 0 || sec >= 86400 {
			t.Errorf("%v: seconds since midnight %v out of [0, 86400)", ts, sec)
		}
		if len(tv.TimeOffset) != 1 || tv.TimeOffset[0] != 0 {
			t.Errorf("%v: time_offset %v, want [0]", ts, tv.TimeOffset)
		}
	}
}

func TestFillAttrs(t *testing.T) {
	s := &Schema{Vars: []*Variable{
		{Name: "base_time", Type: Int, Attrs: []*Attr{
			{Name: "string", Unset: true},
			{Name: "units", Value: "already set"},
			{Name: "long_name", Value: "Base time in Epoch"},
		}},
		{Name: "time", Type: Double, Attrs: []*Attr{
			{Name: "units", Unset: true},
		}},
	}}
	tv := StandardizeTime(time.Date(2024, 1, 15, 3, 20, 0, 0, time.UTC))
	tv.FillAttrs(s)

	bt := s.Var("base_time")
	if a := bt.Attr("string"); a.Unset || a.Value != "2024-01-15 03:20:00 0:00" {
		t.Errorf("base_time string: got %+v", a)
	}
	if a := bt.Attr("units"); a.Value != "already set" {
		t.Errorf("set attribute overwritten: %+v", a)
	}
	if a := s.Var("time").Attr("units"); a.Unset || a.Value != "seconds since 2024-01-15 00:00:00 0:00" {
		t.Errorf("time units: got %+v", a)
	}
}
