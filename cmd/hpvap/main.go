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

// Command hpvap is the command-line interface for the HydroPhase
// value-added product processor.
package main

import (
	"fmt"
	"os"

	"github.com/RBhupi/xprecipradarhp-vap-proc/hputil"
)

func main() {
	if err := hputil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
