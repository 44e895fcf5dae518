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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/ctessum/cdf"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const testDOD = `time = UNLIMITED
y = 2
x = 2

base_time():int
    string
    units
time_offset(time):double
    units
time(time):double
    string
    units
corrected_reflectivity(y, x):float
    long_name = "Reflectivity at lowest valid level"
    _FillValue:float = -9999.0
hp_fhc(y, x):byte
    long_name = "HydroPhase from CSU classification"
    _FillValue:byte = -1
hp_ssc(y, x):byte
    long_name = "HydroPhase from semisupervised classification"
    _FillValue:byte = -1
lowest_height(y, x):float
    _FillValue:float = -9999.0
lat(y, x):double
lon(y, x):double
x(x):double
y(y):double
radar_lat():double

# global attributes
  site_id
  datastream
  doi
  command_line
  history
`

// sceneMaker builds a fresh scene per call; processing mutates scenes,
// so sharing one between files would leak state.
type sceneMaker func(path string) (*Dataset, error)

func (m sceneMaker) Read(path string) (*Dataset, error) { return m(path) }

func runScene(string) (*Dataset, error) {
	ds := gridScene()
	ds.AddField("hp_semisupervised", func() *dod.Field {
		refl, _ := ds.Field("corrected_reflectivity")
		vals := []float64{
			1, 0, 0, 0,
			3, 3, 0, 0,
			5, 5, 7, 0,
		}
		return field(vals, refl.Mask, 3, 2, 2)
	}())
	ds.AddField("lon", field([]float64{-106.1, -106.2, -106.3, -106.4}, nil, 2, 2))
	ds.AddField("y", field([]float64{-250, 250}, nil, 2))
	ds.SetAttr("origin_latitude", "38.95")
	return ds, nil
}

func testRunner(t *testing.T, dataDir, outDir string) *Runner {
	t.Helper()
	dodPath := filepath.Join(t.TempDir(), "template.dod")
	if err := ioutil.WriteFile(dodPath, []byte(testDOD), 0644); err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.Out = ioutil.Discard
	return &Runner{
		Config:      DefaultConfig(),
		Reader:      sceneMaker(runScene),
		DataDir:     dataDir,
		OutputDir:   outDir,
		DODTemplate: dodPath,
		Season:      "summer",
		Workers:     2,
		Env: dod.Environment{
			Args:     []string{"hpvap", "process", "2024", "1"},
			Hostname: "proc01",
			Clock:    clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)),
		},
		Log: log,
	}
}

func makeInputs(t *testing.T, dir, pattern string, n int) []string {
	t.Helper()
	var names []string
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s.2024011%d.032000.nc", pattern, i)
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	return names
}

func TestRun(t *testing.T) {
	dataDir, outDir := t.TempDir(), t.TempDir()
	r := testRunner(t, dataDir, outDir)
	makeInputs(t, dataDir, r.Config.InputFilePattern, 3)

	summary, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary: got %+v, want 3 succeeded", summary)
	}

	outName := fmt.Sprintf("%s.20240110.032000.nc", r.Config.OutputFilePattern)
	ff, err := os.Open(filepath.Join(outDir, outName))
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}

	// Classified, remapped, and subset to the lowest valid level:
	// summer scores 1, 2, 4 remap to 1, 1, 2 at columns 0-2; the
	// empty column carries the fill value.
	rd := f.Reader("hp_fhc", nil, nil)
	buf := rd.Zero(-1)
	if _, err := rd.Read(buf); err != nil {
		t.Fatal(err)
	}
	got := buf.([]uint8)
	for i, want := range []int8{1, 1, 2, -1} {
		if int8(got[i]) != want {
			t.Errorf("hp_fhc[%d]: got %d, want %d", i, int8(got[i]), want)
		}
	}

	if got := f.Header.GetAttribute("", "datastream"); got != "gucxprecipradarhpS2.c1" {
		t.Errorf("datastream: got %v", got)
	}
	if got := f.Header.GetAttribute("", "command_line"); got != "hpvap process 2024 1" {
		t.Errorf("command_line: got %v", got)
	}

	rd = f.Reader("radar_lat", nil, nil)
	lat := rd.Zero(-1)
	if _, err := rd.Read(lat); err != nil {
		t.Fatal(err)
	}
	if got := lat.([]float64); got[0] != 38.95 {
		t.Errorf("radar_lat: got %v, want 38.95", got)
	}
}

func TestRunSkipsProcessed(t *testing.T) {
	dataDir, outDir := t.TempDir(), t.TempDir()
	r := testRunner(t, dataDir, outDir)
	makeInputs(t, dataDir, r.Config.InputFilePattern, 2)

	if _, err := r.Run(); err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 0 || summary.Skipped != 2 {
		t.Fatalf("second run: got %+v, want 2 skipped", summary)
	}

	r.Rerun = true
	summary, err = r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 2 || summary.Skipped != 0 {
		t.Fatalf("rerun: got %+v, want 2 succeeded", summary)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	r := testRunner(t, t.TempDir(), t.TempDir())
	summary, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary != (Summary{}) {
		t.Errorf("summary: got %+v, want empty", summary)
	}
}

func TestRunInvalidSeason(t *testing.T) {
	r := testRunner(t, t.TempDir(), t.TempDir())
	r.Season = "monsoon"
	if _, err := r.Run(); err == nil {
		t.Error("invalid season: expected an error")
	}
}

func TestRunTalliesFailures(t *testing.T) {
	dataDir, outDir := t.TempDir(), t.TempDir()
	r := testRunner(t, dataDir, outDir)
	makeInputs(t, dataDir, r.Config.InputFilePattern, 2)
	r.Reader = sceneMaker(func(path string) (*Dataset, error) {
		if strings.Contains(path, ".20240110.") {
			return nil, fmt.Errorf("corrupt file")
		}
		return runScene(path)
	})
	r.Workers = 1

	summary, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary: got %+v, want 1 succeeded 1 failed", summary)
	}
}
