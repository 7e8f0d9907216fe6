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
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

func buildMap(t *testing.T, lvl *level.Level) (*Map, *zone.Zone) {
	z := newTestZone(t)
	m, _, err := NewBuilder(z, DefaultOptions()).BuildMap(lvl)
	require.NoError(t, err)
	return m, z
}

// requireConsistentMap checks what every hardened map must satisfy
func requireConsistentMap(t *testing.T, m *Map, lvl *level.Level) {
	t.Helper()
	require.True(t, m.Valid())

	next := uint32(0)
	for i, ss := range m.Subsectors {
		require.Equal(t, next, ss.FirstSeg, "subsector %d", i)
		require.NotZero(t, ss.SegCount, "subsector %d", i)
		for s := ss.FirstSeg; s < ss.FirstSeg+ss.SegCount; s++ {
			seg := m.Segs[s]
			if seg.Line < 0 {
				require.Equal(t, ss.Sector, seg.FrontSector)
				require.Equal(t, ss.Sector, seg.BackSector)
				continue
			}
			require.Equal(t, lvl.SideSector(int(seg.Line), int(seg.Side)), m.SegFrontSector(int(s)))
			require.Equal(t, lvl.SideSector(int(seg.Line), int(seg.Side)^1), m.SegBackSector(int(s)))
		}
		next += ss.SegCount
	}
	require.Equal(t, len(m.Segs), int(next))

	for i, seg := range m.Segs {
		if seg.Partner < 0 {
			continue
		}
		other := m.Segs[seg.Partner]
		require.Equal(t, int32(i), other.Partner, "seg %d", i)
		require.Equal(t, seg.V1, other.V2)
		require.Equal(t, seg.V2, other.V1)
		require.Equal(t, seg.Line, other.Line)
	}

	// children point backwards, the root comes last
	for i, n := range m.Nodes {
		for _, c := range n.Children {
			if c&ChildIsLeaf != 0 {
				require.Less(t, int(c&^ChildIsLeaf), len(m.Subsectors))
			} else {
				require.Less(t, int(c), i)
			}
		}
	}
}

func TestHardenTwoSectorRoom(t *testing.T) {
	lvl := twoSectorRoom()
	m, _ := buildMap(t, lvl)
	defer m.Release()
	requireConsistentMap(t, m, lvl)

	require.Len(t, m.Nodes, 1)
	require.Len(t, m.Subsectors, 2)
	require.Len(t, m.Segs, 8)
	require.Len(t, m.Vertexes, 6)
	require.Equal(t, 2, m.NumSectors)

	root := m.Nodes[0]
	require.Equal(t, [4]float32{64, 64, 0, -64}, [4]float32{root.X, root.Y, root.Dx, root.Dy})
	require.Equal(t, [2]uint32{0 | ChildIsLeaf, 1 | ChildIsLeaf}, root.Children)
	require.Equal(t, [4]float32{64, 0, 0, 64}, root.Bbox[0])
	require.Equal(t, [4]float32{64, 0, 64, 128}, root.Bbox[1])
	require.Equal(t, 0, m.SubsectorSector(0))
	require.Equal(t, 1, m.SubsectorSector(1))

	require.Equal(t, 0, m.PointInSubsector(32, 32))
	require.Equal(t, 1, m.PointInSubsector(96, 32))
	require.Equal(t, 0, m.PointInSubsector(-500, 1000))

	partnered := 0
	for _, seg := range m.Segs {
		if seg.Partner >= 0 {
			partnered++
			require.Equal(t, int32(2), seg.Line)
		}
		require.Zero(t, seg.Offset)
		require.Equal(t, float32(64), seg.Length)
		if seg.Line == 0 {
			// running up the y axis
			require.Equal(t, uint32(1<<30), seg.Angle)
		}
	}
	require.Equal(t, 2, partnered)
}

func TestHardenSplitLine(t *testing.T) {
	lvl := lShape()
	m, _ := buildMap(t, lvl)
	defer m.Release()
	requireConsistentMap(t, m, lvl)

	require.Len(t, m.Segs, 9)
	offsets := map[float32]bool{}
	minis := 0
	for _, seg := range m.Segs {
		switch seg.Line {
		case 5:
			offsets[seg.Offset] = true
			require.Equal(t, float32(64), seg.Length)
		case -1:
			minis++
			require.GreaterOrEqual(t, seg.Partner, int32(0))
		}
	}
	require.Equal(t, map[float32]bool{0: true, 64: true}, offsets)
	require.Equal(t, 2, minis)
}

func TestHardenedLeavesCoverThePoints(t *testing.T) {
	lvl := diagonalRoom()
	m, _ := buildMap(t, lvl)
	defer m.Release()
	requireConsistentMap(t, m, lvl)

	// the diagonal runs from (200,200) to (0,0), sector 0 on its right
	require.Equal(t, 0, m.SubsectorSector(m.PointInSubsector(20, 150)))
	require.Equal(t, 1, m.SubsectorSector(m.PointInSubsector(150, 20)))
}

func TestHardenSingleLeaf(t *testing.T) {
	lvl := rectangle()
	m, _ := buildMap(t, lvl)
	defer m.Release()
	requireConsistentMap(t, m, lvl)
	require.Empty(t, m.Nodes)
	require.Len(t, m.Subsectors, 1)
	require.Equal(t, 0, m.PointInSubsector(10, 10))
}

func TestOnlyMapDataOutlivesTheBuild(t *testing.T) {
	m, z := buildMap(t, pillarRoom())
	stats := z.Stats()
	require.Len(t, stats.ByTag, 1)
	require.Equal(t, zone.TagMap, stats.ByTag[0].Tag)
	require.Equal(t, mapArrays, stats.ByTag[0].Blocks)

	m.Release()
	m.Release()
	require.Zero(t, z.Stats().Allocations)
	require.False(t, m.Valid())
}

func TestRetireAndRevive(t *testing.T) {
	m, z := buildMap(t, pillarRoom())
	fp := m.Fingerprint()

	require.NoError(t, m.Retire())
	stats := z.Stats()
	require.Equal(t, zone.TagCache, stats.ByTag[0].Tag)
	require.NotZero(t, stats.PurgableBytes)

	require.True(t, m.Revive())
	require.Equal(t, zone.TagMap, z.Stats().ByTag[0].Tag)
	require.Equal(t, fp, m.Fingerprint())

	// purged while retired
	require.NoError(t, m.Retire())
	z.FreeTags(zone.TagPurgeLevel, zone.TagCache)
	require.False(t, m.Valid())
	require.False(t, m.Revive())
	require.Nil(t, m.Segs)
	require.Zero(t, z.Stats().Allocations)
}

func TestHardenExhaustion(t *testing.T) {
	config := zone.DefaultConfig()
	config.PanicOnExhaustion = false
	z, err := zone.New(config)
	require.NoError(t, err)

	tree, err := NewBuilder(z, DefaultOptions()).Build(roomGrid(3))
	require.NoError(t, err)
	defer tree.Release()

	// leave no room at all
	for _, size := range []int{4096, 256, 16, 0} {
		for {
			if _, err := z.Malloc(size, zone.TagStatic, nil); err != nil {
				break
			}
		}
	}
	before := z.Stats().Allocations

	m, err := tree.Harden()
	require.Nil(t, m)
	require.True(t, errors.Is(err, zone.ErrExhausted))
	require.Equal(t, before, z.Stats().Allocations)
	require.NoError(t, z.Validate())
}

func TestMapFingerprint(t *testing.T) {
	a, _ := buildMap(t, roomGrid(2))
	defer a.Release()
	b, _ := buildMap(t, roomGrid(2))
	defer b.Release()
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, _ := buildMap(t, roomGrid(3))
	defer c.Release()
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestMapWriteJSON(t *testing.T) {
	m, _ := buildMap(t, twoSectorRoom())
	defer m.Release()

	w := jwriter.NewWriter()
	m.WriteJSON(&w)
	require.NoError(t, w.Error())

	counts := map[string]int{}
	sectors := 0
	r := jreader.NewReader(w.Bytes())
	for obj := r.Object(); obj.Next(); {
		name := string(obj.Name())
		if name == "sectors" {
			sectors = r.Int()
			continue
		}
		for arr := r.Array(); arr.Next(); {
			counts[name]++
			require.NoError(t, r.SkipValue())
		}
	}
	require.NoError(t, r.Error())
	require.Equal(t, 2, sectors)
	require.Equal(t, map[string]int{"vertexes": 6, "segs": 8, "subsectors": 2, "nodes": 1}, counts)
}
