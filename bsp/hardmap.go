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
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// The hardened map is what a renderer or game loop uses: flat arrays with
// single precision coordinates, no build-time structure left. All records
// are 4-byte fields without padding, so their memory can be hashed as is.

type MapVertex struct {
	X, Y float32
}

type MapSeg struct {
	V1, V2 uint32
	// linedef, -1 for segs along partitions
	Line int32
	// side of Line the seg runs along
	Side int32
	// seg running the other way along the same stretch, -1 if none
	Partner     int32
	FrontSector int32
	BackSector  int32
	Length      float32
	// binary angle, 2^32 for a full circle
	Angle uint32
	// distance from the start of Line on this side
	Offset float32
}

// Bounding box corners, indexing the boxes of MapNode
const (
	BOXTOP = iota
	BOXBOTTOM
	BOXLEFT
	BOXRIGHT
)

type MapNode struct {
	X, Y   float32
	Dx, Dy float32
	// [0] is the right side's box, [1] the left's
	Bbox [2][4]float32
	// right and left child, subsectors flagged with ChildIsLeaf
	Children [2]uint32
}

type MapSubsector struct {
	FirstSeg uint32
	SegCount uint32
	Sector   int32
}

const (
	mapVertexes = iota
	mapSegs
	mapNodes
	mapSubsectors
	mapArrays
)

// Map is a hardened BSP. Its arrays live in the zone; the Map holds their
// owner slots, so it must not be copied.
type Map struct {
	Vertexes   []MapVertex
	Segs       []MapSeg
	Nodes      []MapNode
	Subsectors []MapSubsector
	NumSectors int

	alloc   zone.Allocator
	tag     zone.Tag
	handles [mapArrays]zone.Handle
}

func allocArray[T any](m *Map, n int, which int) []T {
	s, err := zone.AllocSlice[T](m.alloc, n, m.tag, &m.handles[which])
	if err != nil {
		panic(err)
	}
	return s
}

// Valid reports whether all arrays are still allocated. A retired map
// whose blocks were purged is not.
func (m *Map) Valid() bool {
	for _, h := range m.handles {
		if h == zone.NoHandle {
			return false
		}
	}
	return true
}

// Release frees whatever is left of the map
func (m *Map) Release() {
	for i, h := range m.handles {
		if h != zone.NoHandle {
			m.alloc.Free(h)
			m.handles[i] = zone.NoHandle
		}
	}
	m.Vertexes = nil
	m.Segs = nil
	m.Nodes = nil
	m.Subsectors = nil
}

// Retire demotes the map's memory to TagCache, where the zone may purge it
// when it needs room. The arrays must not be touched until Revive succeeds.
func (m *Map) Retire() error {
	return m.setTag(zone.TagCache)
}

// Revive takes a retired map back into use. It returns false, releasing
// what is left, if any part was purged in the meantime.
func (m *Map) Revive() bool {
	if !m.Valid() {
		m.Release()
		return false
	}
	if err := m.setTag(m.tag); err != nil {
		m.Release()
		return false
	}
	return true
}

func (m *Map) setTag(tag zone.Tag) error {
	for _, h := range m.handles {
		if h == zone.NoHandle {
			continue
		}
		if err := m.alloc.ChangeTag(h, tag); err != nil {
			return errors.Wrapf(err, "changing map tag to %s", tag)
		}
	}
	return nil
}

func (m *Map) SubsectorSector(i int) int {
	return int(m.Subsectors[i].Sector)
}

func (m *Map) SegFrontSector(i int) int {
	return int(m.Segs[i].FrontSector)
}

func (m *Map) SegBackSector(i int) int {
	return int(m.Segs[i].BackSector)
}

// PointInSubsector walks the nodes from the root down to the subsector
// containing (x, y)
func (m *Map) PointInSubsector(x, y float32) int {
	if len(m.Nodes) == 0 {
		return 0
	}
	nodenum := uint32(len(m.Nodes) - 1)
	for nodenum&ChildIsLeaf == 0 {
		node := &m.Nodes[nodenum]
		nodenum = node.Children[pointOnSide(x, y, node)]
	}
	return int(nodenum &^ ChildIsLeaf)
}

// pointOnSide returns 0 for the right (front) side, 1 for the left
func pointOnSide(x, y float32, node *MapNode) int {
	if node.Dx == 0 {
		if x <= node.X {
			return b2i(node.Dy > 0)
		}
		return b2i(node.Dy < 0)
	}
	if node.Dy == 0 {
		if y <= node.Y {
			return b2i(node.Dx < 0)
		}
		return b2i(node.Dx > 0)
	}

	dx := x - node.X
	dy := y - node.Y
	left := node.Dy * dx
	right := dy * node.Dx
	if right < left {
		// front side
		return 0
	}
	// back side
	return 1
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Bytes is the size of the map's arrays
func (m *Map) Bytes() int {
	return len(rawBytes(m.Vertexes)) + len(rawBytes(m.Segs)) +
		len(rawBytes(m.Nodes)) + len(rawBytes(m.Subsectors))
}

// Fingerprint hashes the map's arrays. Equal fingerprints mean equal maps.
func (m *Map) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.Write(rawBytes(m.Vertexes))
	_, _ = d.Write(rawBytes(m.Segs))
	_, _ = d.Write(rawBytes(m.Nodes))
	_, _ = d.Write(rawBytes(m.Subsectors))
	return d.Sum64()
}

func rawBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// WriteJSON dumps the map's arrays
func (m *Map) WriteJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("sectors").Int(m.NumSectors)

	verts := obj.Name("vertexes").Array()
	for _, v := range m.Vertexes {
		vobj := verts.Object()
		vobj.Name("x").Float64(float64(v.X))
		vobj.Name("y").Float64(float64(v.Y))
		vobj.End()
	}
	verts.End()

	segs := obj.Name("segs").Array()
	for _, seg := range m.Segs {
		sobj := segs.Object()
		sobj.Name("v1").Int(int(seg.V1))
		sobj.Name("v2").Int(int(seg.V2))
		sobj.Name("line").Int(int(seg.Line))
		sobj.Name("side").Int(int(seg.Side))
		sobj.Name("partner").Int(int(seg.Partner))
		sobj.Name("front").Int(int(seg.FrontSector))
		sobj.Name("back").Int(int(seg.BackSector))
		sobj.Name("length").Float64(float64(seg.Length))
		sobj.Name("angle").Float64(float64(seg.Angle))
		sobj.Name("offset").Float64(float64(seg.Offset))
		sobj.End()
	}
	segs.End()

	subs := obj.Name("subsectors").Array()
	for _, ss := range m.Subsectors {
		sobj := subs.Object()
		sobj.Name("firstseg").Int(int(ss.FirstSeg))
		sobj.Name("numsegs").Int(int(ss.SegCount))
		sobj.Name("sector").Int(int(ss.Sector))
		sobj.End()
	}
	subs.End()

	nodes := obj.Name("nodes").Array()
	for _, n := range m.Nodes {
		nobj := nodes.Object()
		nobj.Name("x").Float64(float64(n.X))
		nobj.Name("y").Float64(float64(n.Y))
		nobj.Name("dx").Float64(float64(n.Dx))
		nobj.Name("dy").Float64(float64(n.Dy))
		for side, name := range [2]string{"right", "left"} {
			box := nobj.Name(name + "box").Array()
			for _, c := range n.Bbox[side] {
				box.Float64(float64(c))
			}
			box.End()
		}
		children := nobj.Name("children").Array()
		for _, c := range n.Children {
			children.Int(int(c))
		}
		children.End()
		nobj.End()
	}
	nodes.End()
}
