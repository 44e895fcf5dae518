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
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RBhupi/xprecipradarhp-vap-proc/dod"
	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// A Runner processes every unprocessed scene file of one month of a
// datastream and writes one HydroPhase output file per scene.
type Runner struct {
	Config *Config

	// Reader loads input scenes; it defaults to NetCDFReader.
	Reader SceneReader

	// DataDir and OutputDir are the input and output directories.
	DataDir   string
	OutputDir string

	// DODTemplate is the path of the output schema document. It is
	// parsed once per file because resolution specializes the parsed
	// schema to that file.
	DODTemplate string

	// Season selects which seasonal classification runs in addition
	// to the semisupervised one.
	Season string

	// Rerun reprocesses scenes whose output files already exist.
	Rerun bool

	// Workers is the number of files processed concurrently; it
	// defaults to GOMAXPROCS.
	Workers int

	// Env supplies the process state recorded in output metadata; it
	// defaults to the running process.
	Env dod.Environment

	Log logrus.FieldLogger
}

// A Summary tallies one batch run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Run discovers, processes, and writes the batch. Per-file failures
// are tallied rather than aborting the batch; malformed schemas,
// unresolvable globals, and type mismatches fail a file immediately,
// while other errors are retried with backoff.
func (r *Runner) Run() (Summary, error) {
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	reader := r.Reader
	if reader == nil {
		reader = NetCDFReader{}
	}
	env := r.Env
	if env.Clock == nil {
		env = dod.ProcessEnvironment()
	}
	season, err := r.Config.Season(r.Season)
	if err != nil {
		return Summary{}, err
	}
	pyart, err := r.Config.Season("pyart")
	if err != nil {
		return Summary{}, err
	}

	if err := os.MkdirAll(r.OutputDir, os.ModePerm); err != nil {
		return Summary{}, fmt.Errorf("hpproc: creating output directory: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(r.DataDir, "*"+r.Config.InputFilePattern+"*"))
	if err != nil {
		return Summary{}, fmt.Errorf("hpproc: scanning input directory: %v", err)
	}
	sort.Strings(files)
	log.WithFields(logrus.Fields{
		"dir": r.DataDir, "files": len(files),
	}).Info("discovered input files")

	var summary Summary
	if !r.Rerun {
		var todo []string
		for _, file := range files {
			if _, err := os.Stat(r.outputPath(file)); err == nil {
				summary.Skipped++
				continue
			}
			todo = append(todo, file)
		}
		files = todo
		log.WithFields(logrus.Fields{
			"unprocessed": len(files), "skipped": summary.Skipped,
		}).Info("filtered already-processed files")
	}
	if len(files) == 0 {
		log.Warn("no files to process")
		return summary, nil
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}

	var lock sync.Mutex
	jobChan := make(chan string, len(files))
	doneChan := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for file := range jobChan {
				err := r.processWithRetry(log, reader, env, file, season, pyart)
				lock.Lock()
				if err != nil {
					summary.Failed++
					log.WithError(err).WithField("file", filepath.Base(file)).Error("failed to process file")
				} else {
					summary.Succeeded++
					log.WithField("file", filepath.Base(file)).Info("completed file")
				}
				lock.Unlock()
			}
			doneChan <- struct{}{}
		}()
	}
	for _, file := range files {
		jobChan <- file
	}
	close(jobChan)
	for w := 0; w < workers; w++ {
		<-doneChan
	}

	log.WithFields(logrus.Fields{
		"succeeded": summary.Succeeded, "failed": summary.Failed, "skipped": summary.Skipped,
	}).Info("processing complete")
	return summary, nil
}

func (r *Runner) outputPath(inputFile string) string {
	base := filepath.Base(inputFile)
	out := strings.Replace(base, r.Config.InputFilePattern, r.Config.OutputFilePattern, 1)
	return filepath.Join(r.OutputDir, out)
}

func (r *Runner) processWithRetry(log logrus.FieldLogger, reader SceneReader, env dod.Environment, file string, season, pyart Classification) error {
	op := func() error {
		err := r.processFile(reader, env, file, season, pyart)
		switch err.(type) {
		case *dod.SyntaxError, *dod.UnresolvedError, *dod.TypeMismatchError:
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op,
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2),
		func(err error, d time.Duration) {
			log.WithError(err).WithField("file", filepath.Base(file)).Warnf("retrying in %v", d)
		},
	)
}

// processFile runs the full chain for one scene: read, classify,
// filter, subset, resolve, write.
func (r *Runner) processFile(reader SceneReader, env dod.Environment, file string, season, pyart Classification) error {
	ds, err := reader.Read(file)
	if err != nil {
		return err
	}

	if err := Classify(ds, season, r.Config.ReflectivityField); err != nil {
		return err
	}
	if err := Classify(ds, pyart, r.Config.ReflectivityField); err != nil {
		return err
	}
	ds.Filter(r.Config.FilterFields)

	sub, err := SubsetLowestLevel(ds, r.Config.ReflectivityField, r.Config.AdditionalFields)
	if err != nil {
		return err
	}

	schema, err := dod.ParseFile(r.DODTemplate)
	if err != nil {
		return err
	}
	if err := dod.ResolveGlobals(schema, r.Config.RunConfig(), env); err != nil {
		return err
	}
	return dod.WriteFile(r.outputPath(file), sub, schema, r.Config.RunConfig())
}
