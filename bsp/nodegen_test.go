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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 7, opts.SplitFactor)
	require.Equal(t, 25, opts.DiagonalPenalty)
	require.Equal(t, zone.TagBSPBuild, opts.BuildTag)
	require.Equal(t, zone.TagMap, opts.MapTag)
}

func TestRectangleIsOneLeaf(t *testing.T) {
	tree, _ := buildTree(t, rectangle())
	defer tree.Release()

	require.True(t, tree.Root.IsLeaf())
	require.Equal(t, 0, tree.Stats.Nodes)
	require.Equal(t, 1, tree.Stats.Leaves)
	require.Equal(t, 4, tree.Stats.Segs)
	require.Zero(t, tree.Stats.Splits)
	require.Zero(t, tree.Stats.Anomalies.Total())
	requireValidTree(t, tree, 256*128)

	face := tree.Store().Face(tree.Root.Leaf())
	require.Equal(t, int32(0), face.Sector)
}

func TestLShape(t *testing.T) {
	tree, _ := buildTree(t, lShape())
	defer tree.Release()

	require.False(t, tree.Root.IsLeaf())
	require.GreaterOrEqual(t, tree.Stats.Nodes, 1)
	require.Equal(t, 2, tree.Stats.Leaves)
	require.Greater(t, tree.Stats.Segs, 6)
	requireValidTree(t, tree, 128*128-64*64)

	// the inner corner's wall is the cheapest partition: one split, and a
	// mini pair closes both halves
	root := tree.Node(tree.Root.Node())
	require.Equal(t, int32(2), root.Line)
	require.Equal(t, 1, tree.Stats.Splits)
	require.Equal(t, 1, tree.Stats.Minis)
	require.Equal(t, 9, tree.Stats.Segs)
}

func TestTwoSectorRoom(t *testing.T) {
	tree, _ := buildTree(t, twoSectorRoom())
	defer tree.Release()

	require.Equal(t, 1, tree.Stats.Nodes)
	require.Equal(t, 2, tree.Stats.Leaves)
	require.Equal(t, 8, tree.Stats.Segs)
	require.Zero(t, tree.Stats.Minis)
	require.Zero(t, tree.Stats.Anomalies.Total())
	requireValidTree(t, tree, 128*64)

	root := tree.Node(tree.Root.Node())
	require.Equal(t, int32(2), root.Line)
	right := tree.Store().Face(root.Child[0].Leaf())
	left := tree.Store().Face(root.Child[1].Leaf())
	require.Equal(t, int32(0), right.Sector)
	require.Equal(t, int32(1), left.Sector)
	require.Equal(t, AABB{0, 0, 64, 64}, root.Bbox[0])
	require.Equal(t, AABB{64, 0, 128, 64}, root.Bbox[1])
}

func TestPillarRoom(t *testing.T) {
	tree, _ := buildTree(t, pillarRoom())
	defer tree.Release()

	require.Greater(t, tree.Stats.Leaves, 1)
	require.Greater(t, tree.Stats.Minis, 0)
	require.Zero(t, tree.Stats.Anomalies.MixedSectors)
	requireValidTree(t, tree, pillarRoomArea)
}

func TestDiagonalWall(t *testing.T) {
	tree, _ := buildTree(t, diagonalRoom())
	defer tree.Release()

	require.Equal(t, 2, tree.Stats.Leaves)
	requireValidTree(t, tree, 200*200)
	root := tree.Node(tree.Root.Node())
	require.Equal(t, int32(2), root.Line)
}

func TestRoomGrid(t *testing.T) {
	tree, _ := buildTree(t, roomGrid(3))
	defer tree.Release()

	require.GreaterOrEqual(t, tree.Stats.Leaves, 9)
	requireValidTree(t, tree, 9*4096)

	// each leaf stays within one room
	require.Zero(t, tree.Stats.Anomalies.MixedSectors)
}

func TestDuplicateVerticesAreMerged(t *testing.T) {
	b := level.NewBuilder("DUPS")
	s := b.Sector(0, 128)
	v := []int{
		b.RawVertex(0, 0), b.RawVertex(0, 64), b.RawVertex(0, 64),
		b.RawVertex(64, 64), b.RawVertex(64, 0), b.RawVertex(0, 0),
	}
	b.LineV(v[0], v[1], s, -1)
	b.LineV(v[2], v[3], s, -1)
	b.LineV(v[3], v[4], s, -1)
	b.LineV(v[4], v[5], s, -1)

	tree, _ := buildTree(t, b.Level())
	defer tree.Release()
	require.Equal(t, 2, tree.Stats.MergedVertices)
	require.Equal(t, 4, tree.Store().VertexCount())
	require.Equal(t, 1, tree.Stats.Leaves)
	requireValidTree(t, tree, 64*64)
}

func TestDegenerateInput(t *testing.T) {
	b := level.NewBuilder("DEGEN")
	s := b.Sector(0, 128)
	b.Room(s, level.Point{X: 0, Y: 0}, level.Point{X: 0, Y: 128}, level.Point{X: 128, Y: 128}, level.Point{X: 128, Y: 0})
	b.Line(32, 32, 32, 32, s, -1)
	l := b.Level()
	l.Linedefs = append(l.Linedefs, level.Linedef{
		StartVertex: 0,
		EndVertex:   2,
		FrontSdef:   level.NoSidedef,
		BackSdef:    level.NoSidedef,
	})

	tree, _ := buildTree(t, l)
	defer tree.Release()
	require.Equal(t, 1, tree.Stats.Anomalies.ZeroLength)
	require.Equal(t, 1, tree.Stats.Anomalies.NoSidedefs)
	require.NoError(t, tree.Store().Validate())

	// the zero-length half-edge made it into a leaf
	found := false
	tree.Store().ForEachHalfEdge(func(_ HalfEdgeRef, he *HalfEdge) {
		if he.ZeroLength() {
			found = true
			require.NotEqual(t, NoFace, he.Face)
		}
	})
	require.True(t, found)
}

func TestUnclosedSectorStillBuilds(t *testing.T) {
	b := level.NewBuilder("OPEN")
	s := b.Sector(0, 128)
	// an L with its outer corner missing a wall
	b.Line(0, 0, 0, 128, s, -1)
	b.Line(0, 128, 64, 128, s, -1)
	b.Line(64, 128, 64, 64, s, -1)
	b.Line(64, 64, 128, 64, s, -1)
	b.Line(128, 64, 128, 0, s, -1)

	tree, _ := buildTree(t, b.Level())
	defer tree.Release()
	require.NoError(t, tree.Store().Validate())
	require.GreaterOrEqual(t, tree.Stats.Leaves, 1)
}

func TestSelfReferencingLineIsLastResort(t *testing.T) {
	b := level.NewBuilder("SELFREF")
	s := b.Sector(0, 128)
	b.Room(s, level.Point{X: 0, Y: 0}, level.Point{X: 0, Y: 128}, level.Point{X: 256, Y: 128}, level.Point{X: 256, Y: 0})
	b.Line(64, 32, 64, 96, s, s)

	tree, _ := buildTree(t, b.Level())
	defer tree.Release()
	require.Equal(t, 1, tree.Stats.SelfRefLines)
	requireValidTree(t, tree, 256*128)

	// nothing else separates anything, so the self-referencing line had to
	// be used
	root := tree.Node(tree.Root.Node())
	require.Equal(t, int32(4), root.Line)
	require.Zero(t, tree.Stats.Anomalies.MixedSectors)
}

func TestEmptyLevel(t *testing.T) {
	tree, _ := buildTree(t, &level.Level{Name: "EMPTY"})
	defer tree.Release()
	require.True(t, tree.Root.IsLeaf())
	require.Equal(t, 1, tree.Stats.Leaves)
	require.Zero(t, tree.Stats.Segs)
}

func TestBadReferencesAreErrors(t *testing.T) {
	l := rectangle()
	l.Linedefs[0].FrontSdef = 99
	_, err := NewBuilder(newTestZone(t), DefaultOptions()).Build(l)
	require.True(t, errors.Is(err, level.ErrBadReference))
}

func TestDeterministicBuilds(t *testing.T) {
	for _, lvl := range []*level.Level{lShape(), pillarRoom(), diagonalRoom(), roomGrid(3)} {
		first, _ := buildTree(t, lvl)
		second, _ := buildTree(t, lvl)
		requireSameDump(t, dumpTree(t, first), dumpTree(t, second))
		require.Equal(t, first.Stats, second.Stats)
		first.Release()
		second.Release()
	}
}

func TestExhaustionAbortsBuild(t *testing.T) {
	for _, panics := range []bool{true, false} {
		config := zone.DefaultConfig()
		config.Size = 16 << 10
		config.PanicOnExhaustion = panics
		z, err := zone.New(config)
		require.NoError(t, err)

		_, err = NewBuilder(z, DefaultOptions()).Build(pillarRoom())
		require.Error(t, err)
		require.True(t, errors.Is(err, zone.ErrExhausted))

		// nothing of the build is left behind
		require.NoError(t, z.Validate())
		require.Zero(t, z.Stats().Allocations)

		// and the zone is still usable
		_, err = z.Malloc(1024, zone.TagStatic, nil)
		require.NoError(t, err)
	}
}

func TestReleaseFreesBuildData(t *testing.T) {
	tree, z := buildTree(t, pillarRoom())
	require.NotZero(t, z.Stats().Allocations)
	tree.Release()
	tree.Release()
	require.Zero(t, z.Stats().Allocations)

	_, err := tree.Harden()
	require.True(t, errors.Is(err, ErrReleased))
}

func BenchmarkBuildGrid(b *testing.B) {
	lvl := roomGrid(12)
	z := newTestZone(b)
	builder := NewBuilder(z, DefaultOptions())
	Log.SetVerbosity(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree, err := builder.Build(lvl)
		if err != nil {
			b.Fatal(err)
		}
		tree.Release()
	}
}
