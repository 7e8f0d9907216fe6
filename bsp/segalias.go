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
// segalias
package bsp

// lineMarks remembers which source lines were already tried as a partition
// in the current pick. Collinear half-edges of one line give the same
// partition, so testing one of them is enough. Starting a new pick is a
// counter bump rather than a clear.
type lineMarks struct {
	visited []uint32
	gen     uint32
}

func newLineMarks(numLines int) *lineMarks {
	return &lineMarks{
		visited: make([]uint32, numLines),
		gen:     1,
	}
}

// MarkAndRecall marks line as visited but returns whether it was visited
// already
func (m *lineMarks) MarkAndRecall(line int32) bool {
	if m.visited[line] == m.gen {
		return true
	}
	m.visited[line] = m.gen
	return false
}

// UnvisitAll marks all lines as not yet visited. Used at the start of every
// pick, so that marks from previous picks are not retained.
func (m *lineMarks) UnvisitAll() {
	m.gen++
	if m.gen == 0 {
		// wrapped around, old marks could match again
		for i := range m.visited {
			m.visited[i] = 0
		}
		m.gen = 1
	}
}
