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
package bsp

import (
	"bytes"
	"math"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

func newTestZone(t testing.TB) *zone.Zone {
	z, err := zone.New(zone.DefaultConfig())
	require.NoError(t, err)
	return z
}

func buildTree(t testing.TB, lvl *level.Level) (*Tree, *zone.Zone) {
	z := newTestZone(t)
	tree, err := NewBuilder(z, DefaultOptions()).Build(lvl)
	require.NoError(t, err)
	return tree, z
}

func rectangle() *level.Level {
	b := level.NewBuilder("RECT")
	s := b.Sector(0, 128)
	b.Room(s, level.Point{X: 0, Y: 0}, level.Point{X: 256, Y: 0}, level.Point{X: 256, Y: 128}, level.Point{X: 0, Y: 128})
	return b.Level()
}

func lShape() *level.Level {
	b := level.NewBuilder("LSHAPE")
	s := b.Sector(0, 128)
	b.Room(s,
		level.Point{X: 0, Y: 0}, level.Point{X: 0, Y: 128}, level.Point{X: 64, Y: 128},
		level.Point{X: 64, Y: 64}, level.Point{X: 128, Y: 64}, level.Point{X: 128, Y: 0})
	return b.Level()
}

// two square rooms sharing the two-sided wall x=64
func twoSectorRoom() *level.Level {
	b := level.NewBuilder("TWOSECT")
	s0 := b.Sector(0, 128)
	s1 := b.Sector(16, 112)
	b.Line(0, 0, 0, 64, s0, -1)
	b.Line(0, 64, 64, 64, s0, -1)
	b.Line(64, 64, 64, 0, s0, s1)
	b.Line(64, 0, 0, 0, s0, -1)
	b.Line(64, 64, 128, 64, s1, -1)
	b.Line(128, 64, 128, 0, s1, -1)
	b.Line(128, 0, 64, 0, s1, -1)
	return b.Level()
}

const pillarRoomArea = 256*256 - 64*64

// a square room with a square column in the middle
func pillarRoom() *level.Level {
	b := level.NewBuilder("PILLAR")
	s := b.Sector(0, 128)
	b.Room(s, level.Point{X: 0, Y: 0}, level.Point{X: 0, Y: 256}, level.Point{X: 256, Y: 256}, level.Point{X: 256, Y: 0})
	// counter-clockwise, so the walls face out of the column
	b.Line(96, 96, 160, 96, s, -1)
	b.Line(160, 96, 160, 160, s, -1)
	b.Line(160, 160, 96, 160, s, -1)
	b.Line(96, 160, 96, 96, s, -1)
	return b.Level()
}

// a room with a diagonal inner wall splitting it into two sectors
func diagonalRoom() *level.Level {
	b := level.NewBuilder("DIAG")
	s0 := b.Sector(0, 128)
	s1 := b.Sector(8, 128)
	b.Line(0, 0, 0, 200, s0, -1)
	b.Line(0, 200, 200, 200, s0, -1)
	b.Line(200, 200, 0, 0, s0, s1)
	b.Line(200, 200, 200, 0, s1, -1)
	b.Line(200, 0, 0, 0, s1, -1)
	return b.Level()
}

// separate rooms laid out n by n
func roomGrid(n int) *level.Level {
	b := level.NewBuilder("GRID")
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := b.Sector(float64(i*8), 128)
			x, y := float64(i*96), float64(j*96)
			b.Room(s, level.Point{X: x, Y: y}, level.Point{X: x + 64, Y: y},
				level.Point{X: x + 64, Y: y + 48}, level.Point{X: x + 32, Y: y + 80}, level.Point{X: x, Y: y + 48})
		}
	}
	return b.Level()
}

// requireValidTree checks the leaves are closed convex polygons covering
// area, and that every linedef is covered exactly by its half-edges
func requireValidTree(t *testing.T, tree *Tree, area float64) {
	t.Helper()
	require.NoError(t, tree.Validate())
	require.Zero(t, tree.Stats.Anomalies.OpenLeaves)

	store := tree.Store()
	total := 0.0
	covered := make([]float64, len(tree.Level.Linedefs))
	sides := make([]int, len(tree.Level.Linedefs))
	store.ForEachFace(func(f FaceRef, face *Face) {
		total += tree.LeafArea(f)
		store.ForEachInRing(f, func(_ HalfEdgeRef, he *HalfEdge) {
			if he.IsMini() {
				return
			}
			covered[he.Line] += he.Length()
			if he.Side == level.SideFront {
				sides[he.Line] |= 1
			} else {
				sides[he.Line] |= 2
			}
		})
	})
	require.InDelta(t, area, total, 1e-6)

	for i, line := range tree.Level.Linedefs {
		per := 0
		if line.FrontSdef != level.NoSidedef {
			per++
		}
		if line.BackSdef != level.NoSidedef {
			per++
		}
		require.InDelta(t, float64(per)*tree.Level.LineLength(i), covered[i], 1e-6, "linedef %d", i)
	}
}

func dumpTree(t testing.TB, tree *Tree) string {
	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf))
	return buf.String()
}

// requireSameDump fails with a unified diff of two tree dumps
func requireSameDump(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "first",
		ToFile:   "second",
		Context:  3,
	})
	t.Fatalf("builds differ:\n%s", diff)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
