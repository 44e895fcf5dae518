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

// Package hpproc derives HydroPhase products from gridded precipitation
// radar scenes: it remaps classifier scores to HydroPhase categories,
// extracts the lowest valid grid level of each pixel column, and drives
// the batch pipeline that writes the archival output files.
package hpproc

import (
	"time"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
)

// Version is the process version recorded in output metadata.
const Version = "HP-v1.0"

// A Dataset is an ordered collection of named fields plus scene-level
// attributes. Field order is preserved so that derived products list
// their variables deterministically.
type Dataset struct {
	names  []string
	fields map[string]*dod.Field
	attrs  map[string]string
	scan   time.Time
}

var _ dod.Dataset = (*Dataset)(nil)

// NewDataset returns an empty dataset with the given scan time.
func NewDataset(scan time.Time) *Dataset {
	return &Dataset{
		fields: make(map[string]*dod.Field),
		attrs:  make(map[string]string),
		scan:   scan,
	}
}

// AddField attaches f under name, replacing any existing field of the
// same name in place.
func (d *Dataset) AddField(name string, f *dod.Field) {
	if _, ok := d.fields[name]; !ok {
		d.names = append(d.names, name)
	}
	d.fields[name] = f
}

// Field returns the named field, or false if absent.
func (d *Dataset) Field(name string) (*dod.Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Names returns the field names in insertion order.
func (d *Dataset) Names() []string {
	o := make([]string, len(d.names))
	copy(o, d.names)
	return o
}

// SetAttr sets a scene-level attribute.
func (d *Dataset) SetAttr(name, value string) { d.attrs[name] = value }

// Attr returns the named scene-level attribute, or false if absent.
func (d *Dataset) Attr(name string) (string, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

// ScanTime returns the scene's primary timestamp.
func (d *Dataset) ScanTime() time.Time { return d.scan }

// Filter drops every field not named in keep. Names in keep that the
// dataset does not contain are skipped, and the kept fields take the
// order of the keep list.
func (d *Dataset) Filter(keep []string) {
	fields := make(map[string]*dod.Field, len(keep))
	var names []string
	for _, name := range keep {
		if f, ok := d.fields[name]; ok {
			fields[name] = f
			names = append(names, name)
		}
	}
	d.fields = fields
	d.names = names
}

// copyMeta returns an empty dataset carrying d's attributes and scan
// time, for building derived products.
func (d *Dataset) copyMeta() *Dataset {
	o := NewDataset(d.scan)
	for k, v := range d.attrs {
		o.attrs[k] = v
	}
	return o
}
