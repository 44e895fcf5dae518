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
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// A SyntaxError reports malformed DOD schema text. Line is zero for
// whole-schema consistency errors found after the line scan.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Line > 0 && e.Text != "":
		return fmt.Sprintf("dod: line %d: %s: %q", e.Line, e.Msg, e.Text)
	case e.Line > 0:
		return fmt.Sprintf("dod: line %d: %s", e.Line, e.Msg)
	}
	return "dod: " + e.Msg
}

// parserState tracks which region of the DOD document the scan is in.
// Making the state explicit keeps the handling of structurally
// inconsistent indentation a visible branch instead of incidental
// behavior.
type parserState int

const (
	stateTopLevel parserState = iota
	stateInVariable
	stateInGlobals
)

// Variable declarations are tried in order; the first match wins.
var (
	varWithDims = regexp.MustCompile(`^(\w+)\((.*?)\):(\w+)`)
	varNoDims   = regexp.MustCompile(`^(\w+)\(\):(\w+)`)
)

// ParseFile parses the DOD schema document at path.
func ParseFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dod: opening schema: %v", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses DOD schema text into a Schema. Parsing is pure:
// identical text always yields a structurally equal Schema.
//
// The grammar is line-oriented and indentation-significant. The top
// region declares dimensions ("name = size" or "name = UNLIMITED") and
// variables ("name(dim1, dim2):dtype"); 4-space-indented lines declare
// attributes of the preceding variable. The first line starting with
// '#' switches to the global region, where 2-space-indented lines
// declare global attributes. A key with no '=' declares an unset slot.
// Attribute keys may carry a ':type' hint controlling value parsing.
//
// Indented lines outside any matching context are silently ignored;
// operational DOD files depend on this leniency.
func Parse(r io.Reader) (*Schema, error) {
	s := &Schema{}
	state := stateTopLevel
	var cur *Variable

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.Replace(scanner.Text(), "\t", " ", -1)
		line = strings.TrimRight(line, " \r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			state = stateInGlobals
			cur = nil
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))

		switch {
		case state != stateInGlobals && indent == 0:
			state = stateTopLevel
			cur = nil
			if strings.Contains(line, "=") && !strings.Contains(line, "(") && !strings.Contains(line, ":") {
				if err := s.addDim(line, n); err != nil {
					return nil, err
				}
				continue
			}
			m := varWithDims.FindStringSubmatch(line)
			if m == nil {
				m = varNoDims.FindStringSubmatch(line)
				if m != nil {
					m = []string{m[0], m[1], "", m[2]}
				}
			}
			if m != nil {
				v, err := newVariable(m[1], m[2], m[3], n)
				if err != nil {
					return nil, err
				}
				if s.Var(v.Name) != nil {
					return nil, &SyntaxError{Line: n, Text: line, Msg: "duplicate variable " + v.Name}
				}
				s.Vars = append(s.Vars, v)
				cur = v
				state = stateInVariable
			}
			// Anything else at the top level is ignored.
		case state == stateInVariable && indent == 4:
			a, err := parseAttrLine(trimmed, n)
			if err != nil {
				return nil, err
			}
			if prev := cur.Attr(a.Name); prev != nil {
				*prev = *a
			} else {
				cur.Attrs = append(cur.Attrs, a)
			}
		case state == stateInGlobals && indent == 2:
			g := parseGlobalLine(trimmed)
			if prev := s.Global(g.Name); prev != nil {
				*prev = *g
			} else {
				s.Globals = append(s.Globals, g)
			}
		}
		// Any other indentation is silently ignored.
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dod: reading schema: %v", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) addDim(line string, n int) error {
	parts := strings.SplitN(line, "=", 2)
	name := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])
	if s.Dim(name) != nil {
		return &SyntaxError{Line: n, Text: line, Msg: "duplicate dimension " + name}
	}
	if strings.ToUpper(val) == "UNLIMITED" {
		s.Dims = append(s.Dims, Dim{Name: name, Unlimited: true})
		return nil
	}
	size, err := strconv.Atoi(val)
	if err != nil {
		return &SyntaxError{Line: n, Text: line, Msg: "invalid dimension size"}
	}
	if size <= 0 {
		return &SyntaxError{Line: n, Text: line, Msg: "dimension size must be positive"}
	}
	s.Dims = append(s.Dims, Dim{Name: name, Size: size})
	return nil
}

func newVariable(name, dimList, dtype string, n int) (*Variable, error) {
	t, ok := ParseDataType(dtype)
	if !ok {
		return nil, &SyntaxError{Line: n, Text: name, Msg: "unknown variable type " + dtype}
	}
	var dims []string
	if strings.TrimSpace(dimList) != "" {
		for _, d := range strings.Split(dimList, ",") {
			dims = append(dims, strings.TrimSpace(d))
		}
	}
	return &Variable{Name: name, Type: t, Dims: dims, line: n}, nil
}

func parseAttrLine(trimmed string, n int) (*Attr, error) {
	if i := strings.Index(trimmed, "="); i >= 0 {
		key := strings.TrimSpace(trimmed[:i])
		val := strings.Trim(strings.TrimSpace(trimmed[i+1:]), `"`)
		name, hint := key, ""
		if j := strings.LastIndex(key, ":"); j >= 0 {
			name, hint = key[:j], key[j+1:]
		}
		value, err := typedAttrValue(hint, val)
		if err != nil {
			return nil, &SyntaxError{Line: n, Text: trimmed, Msg: err.Error()}
		}
		return &Attr{Name: name, Value: value}, nil
	}
	name := strings.SplitN(trimmed, ":", 2)[0]
	return &Attr{Name: name, Unset: true}, nil
}

// typedAttrValue parses an attribute value according to its type hint.
// Integer hints accept comma-separated tuples; an unknown hint keeps
// the value as a string with the hint stripped from the key.
func typedAttrValue(hint, val string) (interface{}, error) {
	switch hint {
	case "":
		return val, nil
	case "float", "double":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s attribute value", hint)
		}
		if hint == "float" {
			return []float32{float32(f)}, nil
		}
		return []float64{f}, nil
	case "short", "int":
		ints, err := parseIntList(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s attribute value", hint)
		}
		if hint == "short" {
			o := make([]int16, len(ints))
			for i, v := range ints {
				o[i] = int16(v)
			}
			return o, nil
		}
		o := make([]int32, len(ints))
		for i, v := range ints {
			o[i] = int32(v)
		}
		return o, nil
	case "byte":
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("invalid byte attribute value")
		}
		return []uint8{uint8(int8(i))}, nil
	default:
		return val, nil
	}
}

func parseIntList(val string) ([]int, error) {
	var ints []int
	for _, p := range strings.Split(val, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}
	return ints, nil
}

func parseGlobalLine(trimmed string) *Global {
	if i := strings.Index(trimmed, "="); i >= 0 {
		key := strings.TrimSpace(trimmed[:i])
		val := strings.Trim(strings.TrimSpace(trimmed[i+1:]), `"`)
		return &Global{Name: key, Value: val}
	}
	return &Global{Name: trimmed, Unset: true}
}

// validate checks the whole-schema invariants: referenced dimensions
// exist, and at most one unlimited dimension is declared and only as a
// variable's outermost dimension.
func (s *Schema) validate() error {
	unlimited := 0
	for _, d := range s.Dims {
		if d.Unlimited {
			unlimited++
		}
	}
	if unlimited > 1 {
		return &SyntaxError{Msg: "multiple unlimited dimensions"}
	}
	for _, v := range s.Vars {
		for i, name := range v.Dims {
			d := s.Dim(name)
			if d == nil {
				return &SyntaxError{Line: v.line, Msg: fmt.Sprintf("variable %s references undefined dimension %s", v.Name, name)}
			}
			if d.Unlimited && i != 0 {
				return &SyntaxError{Line: v.line, Msg: fmt.Sprintf("variable %s: unlimited dimension %s must be outermost", v.Name, name)}
			}
		}
	}
	return nil
}
