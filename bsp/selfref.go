// Copyright (C) 2022, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.
// selfref.go
package bsp

import (
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
)

// Self-referencing lines have the same sector on both sides. Mappers use
// them for deep water and invisible floor effects; the sector they border is
// often not closed in the usual sense, so the partitioner avoids them as
// partitions and takes care choosing the sector of mini half-edges next to
// them.

// selfRefCount is how many self-referencing lines border one sector
type selfRefCount struct {
	Sector int
	Lines  int
}

// findSelfRefs flags self-referencing lines and tallies them per sector, in
// sector order
func findSelfRefs(lvl *level.Level) ([]bool, []selfRefCount) {
	flags := make([]bool, len(lvl.Linedefs))
	perSector := make([]int, len(lvl.Sectors))
	for i := range lvl.Linedefs {
		if !lvl.IsSelfReferencing(i) {
			continue
		}
		flags[i] = true
		perSector[lvl.SideSector(i, level.SideFront)]++
	}
	var counts []selfRefCount
	for sec, n := range perSector {
		if n > 0 {
			counts = append(counts, selfRefCount{Sector: sec, Lines: n})
		}
	}
	return flags, counts
}

func logSelfRefs(counts []selfRefCount) {
	for _, c := range counts {
		Log.Verbose(VERBOSE_SUMMARY, "Sector %d has %d self-referencing lines\n", c.Sector, c.Lines)
	}
}
