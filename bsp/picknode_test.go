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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// newTestWork prepares a build of lvl up to the point where the root set
// is ready for partitioning
func newTestWork(t *testing.T, lvl *level.Level) (*NodesWork, int32) {
	z := newTestZone(t)
	opts := DefaultOptions()
	w := &NodesWork{
		lvl:       lvl,
		opts:      opts,
		store:     NewStore(z, opts.BuildTag),
		nodes:     zone.NewArena[Node](z, opts.BuildTag, NODE_PAGE),
		stats:     &BuildStats{},
		marks:     newLineMarks(len(lvl.Linedefs)),
		usedLines: make([]bool, len(lvl.Linedefs)),
		warned:    make([]bool, len(lvl.Sectors)),
		queue:     newRing(len(lvl.Linedefs)),
	}
	w.supers = newSuperblocks(w.store, z, opts.BuildTag)
	w.selfRef, _ = findSelfRefs(lvl)
	t.Cleanup(func() {
		w.supers.Release()
		w.nodes.Release()
		w.store.Release()
	})
	return w, w.createHalfEdges()
}

func lineEdge(w *NodesWork, line, side int32) HalfEdgeRef {
	found := NoHalfEdge
	w.store.ForEachHalfEdge(func(e HalfEdgeRef, he *HalfEdge) {
		if he.Line == line && he.Side == side {
			found = e
		}
	})
	return found
}

func TestPartitionFollowsFrontSide(t *testing.T) {
	w, _ := newTestWork(t, twoSectorRoom())
	front := lineEdge(w, 2, level.SideFront)
	back := lineEdge(w, 2, level.SideBack)
	require.NotEqual(t, NoHalfEdge, back)

	pf := partitionOf(front, w.store.HalfEdge(front))
	pb := partitionOf(back, w.store.HalfEdge(back))
	for _, p := range []partition{pf, pb} {
		require.Equal(t, [4]float64{64, 64, 0, -64}, [4]float64{p.psx, p.psy, p.pdx, p.pdy})
		require.Equal(t, 64.0, p.length)
		require.Equal(t, int32(level.SideFront), p.side)
	}
	// right of a line running down is towards -x
	require.Equal(t, +1, pf.pointOnSide(32, 32))
	require.Equal(t, -1, pf.pointOnSide(96, 32))
	require.Equal(t, 0, pf.pointOnSide(64, 200))
	require.InDelta(t, 32.0, pf.perpDist(32, 10), 1e-9)
	require.InDelta(t, 54.0, pf.parallelDist(0, 10), 1e-9)
}

func TestBoxOnSide(t *testing.T) {
	p := partition{psx: 0, psy: 0, pdx: 100, pdy: 0}
	p.length = 100
	require.Equal(t, +1, p.boxOnSide(AABB{0, -100, 50, -20}))
	require.Equal(t, -1, p.boxOnSide(AABB{0, 20, 50, 100}))
	require.Equal(t, 0, p.boxOnSide(AABB{0, -10, 50, 10}))
	// within the margin counts as crossing
	require.Equal(t, 0, p.boxOnSide(AABB{0, 2, 50, 100}))

	d := partition{psx: 0, psy: 0, pdx: 10, pdy: 10}
	d.length = math.Hypot(10, 10)
	d.perp = d.psy*d.pdx - d.psx*d.pdy
	require.Equal(t, +1, d.boxOnSide(AABB{50, 0, 100, 20}))
	require.Equal(t, -1, d.boxOnSide(AABB{0, 50, 20, 100}))
	require.Equal(t, 0, d.boxOnSide(AABB{0, 0, 20, 20}))
}

func TestPickNodeLShape(t *testing.T) {
	w, root := newTestWork(t, lShape())

	// the outer walls have everything on one side
	for _, line := range []int32{0, 1, 4, 5} {
		e := lineEdge(w, line, level.SideFront)
		part := partitionOf(e, w.store.HalfEdge(e))
		require.Equal(t, -1, w.evalPartition(root, &part, INITIAL_BIG_COST), "line %d", line)
	}
	// the inner corner walls split the bottom or the left wall once
	for _, line := range []int32{2, 3} {
		e := lineEdge(w, line, level.SideFront)
		part := partitionOf(e, w.store.HalfEdge(e))
		require.Equal(t, 800, w.evalPartition(root, &part, INITIAL_BIG_COST), "line %d", line)
	}

	part, ok := w.pickNode(root)
	require.True(t, ok)
	require.Equal(t, int32(2), part.line)

	// lines partitioning further up are not candidates again
	w.usedLines[2] = true
	part, ok = w.pickNode(root)
	require.True(t, ok)
	require.Equal(t, int32(3), part.line)

	w.usedLines[3] = true
	_, ok = w.pickNode(root)
	require.False(t, ok)
}

func TestConvexSetHasNoPartition(t *testing.T) {
	w, root := newTestWork(t, rectangle())
	_, ok := w.pickNode(root)
	require.False(t, ok)
}

// costSet lays out hedges around the partition y=0 (running towards +x):
// one near miss on the right, one split close to its end and one far away
// on the left
func costSet(t *testing.T) (*NodesWork, int32, partition) {
	s, sb := newTestSupers(t)
	w := &NodesWork{opts: DefaultOptions(), store: s, supers: sb}
	block := sb.New(-1, 0, -128, 256, 128)

	part := edgeAt(s, 0, 0, 100, 0, 0)
	sb.Push(block, part)
	sb.Push(block, edgeAt(s, 50, -2, 50, -100, 1))
	sb.Push(block, edgeAt(s, 20, 1, 20, -50, 2))
	sb.Push(block, edgeAt(s, 10, 50, 90, 50, 3))
	return w, block, partitionOf(part, s.HalfEdge(part))
}

func TestEvalPartitionCosts(t *testing.T) {
	w, block, part := costSet(t)

	var info evalInfo
	require.False(t, w.evalPartitionWorker(block, &part, INITIAL_BIG_COST, &info))
	require.Equal(t, 1, info.nearMiss)
	require.Equal(t, 1, info.splits)
	require.Equal(t, 1, info.iffy)
	require.Equal(t, 2, info.realRight)
	require.Equal(t, 1, info.realLeft)
	// split 700, iffy 70*7*(4²-1), near miss 100*7*(2²-1)
	require.Equal(t, 700+7350+2100, info.cost)

	require.Equal(t, 700+7350+2100+100, w.evalPartition(block, &part, INITIAL_BIG_COST))
}

func TestEvalPartitionGivesUpEarly(t *testing.T) {
	w, block, part := costSet(t)
	require.Equal(t, -1, w.evalPartition(block, &part, 1000))
}

func TestDiagonalPenalty(t *testing.T) {
	s, sb := newTestSupers(t)
	w := &NodesWork{opts: DefaultOptions(), store: s, supers: sb}
	block := sb.New(-1, 0, 0, 256, 256)

	diag := edgeAt(s, 0, 0, 100, 100, 0)
	sb.Push(block, diag)
	sb.Push(block, edgeAt(s, 10, 80, 20, 90, 1))
	part := partitionOf(diag, s.HalfEdge(diag))
	require.False(t, part.isAxial())
	require.Equal(t, DEFAULT_DIAGONAL_PENALTY, w.evalPartition(block, &part, INITIAL_BIG_COST))
}

func TestLineMarks(t *testing.T) {
	m := newLineMarks(4)
	require.False(t, m.MarkAndRecall(2))
	require.True(t, m.MarkAndRecall(2))
	require.False(t, m.MarkAndRecall(3))

	m.UnvisitAll()
	require.False(t, m.MarkAndRecall(2))

	m.gen = math.MaxUint32
	m.visited[1] = m.gen
	require.True(t, m.MarkAndRecall(1))
	m.UnvisitAll()
	require.Equal(t, uint32(1), m.gen)
	require.False(t, m.MarkAndRecall(1))
	require.False(t, m.MarkAndRecall(0))
}
