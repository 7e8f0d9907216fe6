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
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// node_outro.go contains functions called after the BSP tree is built: the
// tree gets written out as flat arrays, nodes in post-order (right subtree,
// left subtree, then the node) so that the root comes last

var ErrReleased = errors.New("tree was released")

type hardener struct {
	tree   *Tree
	m      *Map
	segOf  []int32 // half-edge -> seg
	edgeOf []int32 // seg -> half-edge

	numNodes  uint32
	numLeaves uint32
	numSegs   uint32
	nextNode  uint32
	nextLeaf  uint32
	nextSeg   uint32
}

// Harden converts the tree into a Map allocated with the map tag. The tree
// stays intact and still has to be released. Running out of zone memory
// fails the call without leaking anything.
func (t *Tree) Harden() (m *Map, err error) {
	if t.store == nil {
		return nil, ErrReleased
	}
	start := time.Now()

	m = &Map{
		alloc:      t.alloc,
		tag:        t.opts.MapTag,
		NumSectors: len(t.Level.Sectors),
	}
	var scratch [2]zone.Handle
	defer func() {
		for _, h := range scratch {
			if h != zone.NoHandle {
				t.alloc.Free(h)
			}
		}
		r := recover()
		if r == nil {
			return
		}
		if _, ok := zone.AsExhausted(r); !ok {
			panic(r)
		}
		m.Release()
		m = nil
		err = errors.Wrapf(r.(error), "hardening nodes for %s", t.Level.Name)
	}()

	h := &hardener{tree: t, m: m}
	h.count(t.Root)

	store := t.store
	h.segOf = scratchSlice(t, store.HalfEdgeCount(), &scratch[0])
	h.edgeOf = scratchSlice(t, int(h.numSegs), &scratch[1])
	for i := range h.segOf {
		h.segOf[i] = -1
	}

	m.Vertexes = allocArray[MapVertex](m, store.VertexCount(), mapVertexes)
	m.Segs = allocArray[MapSeg](m, int(h.numSegs), mapSegs)
	m.Nodes = allocArray[MapNode](m, int(h.numNodes), mapNodes)
	m.Subsectors = allocArray[MapSubsector](m, int(h.numLeaves), mapSubsectors)

	store.ForEachVertex(func(v VertexRef, vert *Vertex) {
		m.Vertexes[v] = MapVertex{X: float32(vert.X), Y: float32(vert.Y)}
	})

	h.fill(t.Root)
	if h.nextNode != h.numNodes || h.nextLeaf != h.numLeaves || h.nextSeg != h.numSegs {
		panic(errors.AssertionFailedf("hardening counted %d/%d/%d nodes/leaves/segs, wrote %d/%d/%d",
			h.numNodes, h.numLeaves, h.numSegs, h.nextNode, h.nextLeaf, h.nextSeg))
	}

	for i := range m.Segs {
		tw := store.HalfEdge(HalfEdgeRef(h.edgeOf[i])).Twin
		if tw != NoHalfEdge {
			m.Segs[i].Partner = h.segOf[tw]
		}
	}

	Log.Verbose(VERBOSE_SUMMARY, "Hardened %d vertexes, %d segs, %d subsectors, %d nodes in %s\n",
		len(m.Vertexes), len(m.Segs), len(m.Subsectors), len(m.Nodes), time.Since(start))
	return m, nil
}

func scratchSlice(t *Tree, n int, owner *zone.Handle) []int32 {
	s, err := zone.AllocSlice[int32](t.alloc, n, t.opts.BuildTag, owner)
	if err != nil {
		panic(err)
	}
	return s
}

// count is the first pass, establishing array sizes
func (h *hardener) count(c ChildRef) {
	if c.IsLeaf() {
		h.numLeaves++
		h.numSegs += uint32(h.tree.store.Face(c.Leaf()).Count)
		return
	}
	h.numNodes++
	n := h.tree.Node(c.Node())
	h.count(n.Child[0])
	h.count(n.Child[1])
}

// fill writes the subtree at c and returns its index, flagged with
// ChildIsLeaf for subsectors
func (h *hardener) fill(c ChildRef) uint32 {
	if c.IsLeaf() {
		return h.fillLeaf(c.Leaf()) | ChildIsLeaf
	}
	n := h.tree.Node(c.Node())
	right := h.fill(n.Child[0])
	left := h.fill(n.Child[1])

	idx := h.nextNode
	h.nextNode++
	h.m.Nodes[idx] = MapNode{
		X:        float32(n.X),
		Y:        float32(n.Y),
		Dx:       float32(n.Dx),
		Dy:       float32(n.Dy),
		Bbox:     [2][4]float32{doomBox(n.Bbox[0]), doomBox(n.Bbox[1])},
		Children: [2]uint32{right, left},
	}
	return idx
}

func doomBox(b AABB) [4]float32 {
	var box [4]float32
	box[BOXTOP] = float32(b.MaxY)
	box[BOXBOTTOM] = float32(b.MinY)
	box[BOXLEFT] = float32(b.MinX)
	box[BOXRIGHT] = float32(b.MaxX)
	return box
}

func (h *hardener) fillLeaf(f FaceRef) uint32 {
	store := h.tree.store
	face := store.Face(f)
	idx := h.nextLeaf
	h.nextLeaf++
	h.m.Subsectors[idx] = MapSubsector{
		FirstSeg: h.nextSeg,
		SegCount: uint32(face.Count),
		Sector:   face.Sector,
	}
	store.ForEachInRing(f, func(e HalfEdgeRef, he *HalfEdge) {
		s := h.nextSeg
		h.nextSeg++
		h.segOf[e] = int32(s)
		h.edgeOf[s] = int32(e)
		h.m.Segs[s] = h.makeSeg(he, face.Sector)
	})
	return idx
}

func (h *hardener) makeSeg(he *HalfEdge, leafSector int32) MapSeg {
	seg := MapSeg{
		V1:          uint32(he.V[0]),
		V2:          uint32(he.V[1]),
		Line:        he.Line,
		Side:        he.Side,
		Partner:     -1,
		FrontSector: leafSector,
		BackSector:  leafSector,
		Length:      float32(he.plen),
		Angle:       computeBAM(he.pdx, he.pdy),
	}
	if he.IsMini() {
		return seg
	}

	lvl := h.tree.Level
	line := int(he.Line)
	side := int(he.Side)
	seg.FrontSector = int32(lvl.SideSector(line, side))
	seg.BackSector = int32(lvl.SideSector(line, side^1))

	// offsets run from the start of the line as seen from this side
	ld := lvl.Linedefs[line]
	from := lvl.Vertices[ld.StartVertex]
	if side == level.SideBack {
		from = lvl.Vertices[ld.EndVertex]
	}
	seg.Offset = float32(math.Hypot(he.psx-from.X, he.psy-from.Y))
	return seg
}
