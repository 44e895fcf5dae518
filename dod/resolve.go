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
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// An UnresolvedError reports every global attribute slot that neither
// the schema nor the run configuration supplies a value for.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("dod: global attributes have no value in the schema or the run configuration: %s",
		strings.Join(e.Names, ", "))
}

// A RunConfig carries the per-run inputs to schema resolution and the
// value pass. It is borrowed read-only for the duration of one write.
type RunConfig struct {
	// Attrs resolves unset global attribute slots by exact key match.
	Attrs map[string]string
	// VariableMapping translates dataset field names to the schema's
	// declared variable names.
	VariableMapping map[string]string
}

// An Environment supplies the process state consumed during
// resolution, so that resolution is a pure function of
// (Schema, RunConfig, Environment).
type Environment struct {
	Args     []string
	Hostname string
	Clock    clockwork.Clock
}

// ProcessEnvironment returns the Environment of the running process.
func ProcessEnvironment() Environment {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return Environment{Args: os.Args, Hostname: host, Clock: clockwork.NewRealClock()}
}

const historyTimeFormat = "2006-01-02 15:04:05 UTC"

// ResolveGlobals fills every unset global attribute slot of s from cfg,
// augmented with the derived keys "command_line" and "history". The
// derived keys are added to a working copy only; cfg is never mutated.
// If any slot remains unset after scanning all globals, ResolveGlobals
// fails with an UnresolvedError listing every missing name, so that
// misconfiguration is caught before any file is created.
func ResolveGlobals(s *Schema, cfg RunConfig, env Environment) error {
	attrs := make(map[string]string, len(cfg.Attrs)+2)
	for k, v := range cfg.Attrs {
		attrs[k] = v
	}

	commandLine := "unknown"
	if len(env.Args) > 0 {
		commandLine = strings.Join(env.Args, " ")
	}
	attrs["command_line"] = commandLine

	host := env.Hostname
	if host == "" {
		host = "unknown"
	}
	now := time.Now()
	if env.Clock != nil {
		now = env.Clock.Now()
	}
	attrs["history"] = fmt.Sprintf("created on %s on %s", now.UTC().Format(historyTimeFormat), host)

	var missing []string
	for _, g := range s.Globals {
		if !g.Unset {
			continue
		}
		if v, ok := attrs[g.Name]; ok {
			g.Value = v
			g.Unset = false
		} else {
			missing = append(missing, g.Name)
		}
	}
	if len(missing) > 0 {
		return &UnresolvedError{Names: missing}
	}
	return nil
}
