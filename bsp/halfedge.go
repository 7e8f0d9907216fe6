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

	"github.com/cockroachdb/errors"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// Build-time geometry is a doubly connected edge list. Every record lives in
// a zone arena and refers to others by index, so the whole structure is
// invisible to the garbage collector and goes away in one Release.

type VertexRef int32
type HalfEdgeRef int32
type FaceRef int32

const (
	NoVertex   VertexRef   = -1
	NoHalfEdge HalfEdgeRef = -1
	NoFace     FaceRef     = -1
)

type Vertex struct {
	X, Y float64
	// input vertex this came from, -1 for vertices created by splits
	Index int32
	// number of half-edges starting or ending here
	RefCount int32
	// first wall tip, sorted by angle
	tips int32
}

// wallTip records a wall leaving a vertex, with the sectors on either side
// of it looking outwards from the vertex
type wallTip struct {
	angle float64
	left  int32
	right int32
	next  int32
}

const (
	heZeroLength uint8 = 1 << iota
	heSelfRef
)

type HalfEdge struct {
	V    [2]VertexRef
	Twin HalfEdgeRef
	Next HalfEdgeRef
	Prev HalfEdgeRef
	Face FaceRef
	// source linedef, -1 for mini half-edges along partitions
	Line int32
	// which side of Line this runs along
	Side int32
	// sector in front (to the right) of this half-edge, -1 for void
	Sector int32
	flags  uint8

	// cached from the vertices, see recompute
	psx, psy float64
	pex, pey float64
	pdx, pdy float64
	plen     float64
	perp     float64
	para     float64

	// superblock this half-edge is bucketed in, -1 when unassigned
	block       int32
	nextInBlock HalfEdgeRef
}

func (e *HalfEdge) IsMini() bool {
	return e.Line < 0
}

func (e *HalfEdge) ZeroLength() bool {
	return e.flags&heZeroLength != 0
}

func (e *HalfEdge) SelfRef() bool {
	return e.flags&heSelfRef != 0
}

func (e *HalfEdge) Length() float64 {
	return e.plen
}

type Face struct {
	HEdge  HalfEdgeRef
	Sector int32
	Count  int32
}

// Store owns the build-time geometry of one level
type Store struct {
	vertices *zone.Arena[Vertex]
	hedges   *zone.Arena[HalfEdge]
	faces    *zone.Arena[Face]
	tips     *zone.Arena[wallTip]
}

func NewStore(alloc zone.Allocator, tag zone.Tag) *Store {
	return &Store{
		vertices: zone.NewArena[Vertex](alloc, tag, VERTEX_PAGE),
		hedges:   zone.NewArena[HalfEdge](alloc, tag, HALFEDGE_PAGE),
		faces:    zone.NewArena[Face](alloc, tag, FACE_PAGE),
		tips:     zone.NewArena[wallTip](alloc, tag, WALLTIP_PAGE),
	}
}

// Release frees every record. References into the store are dead
// afterwards.
func (s *Store) Release() {
	s.vertices.Release()
	s.hedges.Release()
	s.faces.Release()
	s.tips.Release()
}

func (s *Store) Vertex(v VertexRef) *Vertex {
	return s.vertices.At(int32(v))
}

func (s *Store) HalfEdge(e HalfEdgeRef) *HalfEdge {
	return s.hedges.At(int32(e))
}

func (s *Store) Face(f FaceRef) *Face {
	return s.faces.At(int32(f))
}

func (s *Store) VertexCount() int {
	return s.vertices.Len()
}

func (s *Store) HalfEdgeCount() int {
	return s.hedges.Len()
}

func (s *Store) FaceCount() int {
	return s.faces.Len()
}

func (s *Store) ForEachVertex(fn func(VertexRef, *Vertex)) {
	for i := 0; i < s.vertices.Len(); i++ {
		fn(VertexRef(i), s.vertices.At(int32(i)))
	}
}

func (s *Store) ForEachHalfEdge(fn func(HalfEdgeRef, *HalfEdge)) {
	for i := 0; i < s.hedges.Len(); i++ {
		fn(HalfEdgeRef(i), s.hedges.At(int32(i)))
	}
}

func (s *Store) ForEachFace(fn func(FaceRef, *Face)) {
	for i := 0; i < s.faces.Len(); i++ {
		fn(FaceRef(i), s.faces.At(int32(i)))
	}
}

func (s *Store) CreateVertex(x, y float64, index int32) VertexRef {
	return VertexRef(s.vertices.MustAppend(Vertex{
		X:     x,
		Y:     y,
		Index: index,
		tips:  -1,
	}))
}

// CreateHalfEdge creates a half-edge starting at v. Its end, twin and ring
// links are unset.
func (s *Store) CreateHalfEdge(v VertexRef) HalfEdgeRef {
	e := HalfEdgeRef(s.hedges.MustAppend(HalfEdge{
		V:           [2]VertexRef{v, NoVertex},
		Twin:        NoHalfEdge,
		Next:        NoHalfEdge,
		Prev:        NoHalfEdge,
		Face:        NoFace,
		Line:        -1,
		Sector:      -1,
		block:       -1,
		nextInBlock: NoHalfEdge,
	}))
	s.Vertex(v).RefCount++
	return e
}

// CreateEdge creates a half-edge running from v1 to v2
func (s *Store) CreateEdge(v1, v2 VertexRef) HalfEdgeRef {
	e := s.CreateHalfEdge(v1)
	s.SetEnd(e, v2)
	return e
}

// SetEnd assigns the end vertex of e and refreshes its cached geometry
func (s *Store) SetEnd(e HalfEdgeRef, v VertexRef) {
	he := s.HalfEdge(e)
	if he.V[1] != NoVertex {
		s.Vertex(he.V[1]).RefCount--
	}
	he.V[1] = v
	s.Vertex(v).RefCount++
	s.recompute(he)
}

func (s *Store) CreateFace() FaceRef {
	return FaceRef(s.faces.MustAppend(Face{
		HEdge:  NoHalfEdge,
		Sector: -1,
	}))
}

func (s *Store) SetTwin(a, b HalfEdgeRef) {
	s.HalfEdge(a).Twin = b
	s.HalfEdge(b).Twin = a
}

// LinkRing makes edges, in order, the closed ring of f
func (s *Store) LinkRing(f FaceRef, edges []HalfEdgeRef) {
	face := s.Face(f)
	face.Count = int32(len(edges))
	if len(edges) == 0 {
		face.HEdge = NoHalfEdge
		return
	}
	face.HEdge = edges[0]
	for i, e := range edges {
		he := s.HalfEdge(e)
		he.Face = f
		he.Next = edges[(i+1)%len(edges)]
		he.Prev = edges[(i+len(edges)-1)%len(edges)]
	}
}

// ForEachInRing visits the ring of f starting at its first half-edge
func (s *Store) ForEachInRing(f FaceRef, fn func(HalfEdgeRef, *HalfEdge)) {
	first := s.Face(f).HEdge
	if first == NoHalfEdge {
		return
	}
	e := first
	for {
		he := s.HalfEdge(e)
		fn(e, he)
		e = he.Next
		if e == first || e == NoHalfEdge {
			return
		}
	}
}

func (s *Store) recompute(e *HalfEdge) {
	start := s.Vertex(e.V[0])
	end := s.Vertex(e.V[1])
	e.psx, e.psy = start.X, start.Y
	e.pex, e.pey = end.X, end.Y
	e.pdx = e.pex - e.psx
	e.pdy = e.pey - e.psy
	e.plen = math.Hypot(e.pdx, e.pdy)
	e.perp = e.psy*e.pdx - e.psx*e.pdy
	e.para = -e.psx*e.pdx - e.psy*e.pdy
	if e.plen < DIST_EPSILON {
		e.flags |= heZeroLength
	} else {
		e.flags &^= heZeroLength
	}
}

// Split cuts e at (x, y). Afterwards e runs A->P and the returned piece
// P->B. A twin is split alongside: the old twin runs B->P, and a new twin
// piece P->A is paired with e. New pieces follow their originals in any
// ring they belong to. Superblock membership is left to the caller.
func (s *Store) Split(e HalfEdgeRef, x, y float64) HalfEdgeRef {
	orig := s.HalfEdge(e)
	twin := orig.Twin

	twinSector := int32(-1)
	if twin != NoHalfEdge {
		twinSector = s.HalfEdge(twin).Sector
	}

	p := s.CreateVertex(x, y, -1)
	// looking back along e from the new vertex, e's sector is on the left
	s.AddWallTip(p, -orig.pdx, -orig.pdy, orig.Sector, twinSector)
	s.AddWallTip(p, orig.pdx, orig.pdy, twinSector, orig.Sector)

	piece := s.splitOne(e, p)
	if twin == NoHalfEdge {
		return piece
	}

	newTwin := s.splitOne(twin, p)
	// e (A->P) pairs with the far half of the old twin, which is now the
	// new twin piece (P->A); the old twin (B->P) pairs with piece
	s.SetTwin(e, newTwin)
	s.SetTwin(piece, twin)
	return piece
}

// splitOne shortens e to end at p and returns the remainder p->old end
func (s *Store) splitOne(e HalfEdgeRef, p VertexRef) HalfEdgeRef {
	he := s.HalfEdge(e)
	oldEnd := he.V[1]

	piece := s.CreateEdge(p, oldEnd)
	np := s.HalfEdge(piece)
	np.Line = he.Line
	np.Side = he.Side
	np.Sector = he.Sector
	np.flags = he.flags &^ heZeroLength
	np.Twin = NoHalfEdge

	s.SetEnd(e, p)
	s.recompute(np)

	if he.Face != NoFace {
		np.Face = he.Face
		np.Prev = e
		np.Next = he.Next
		s.HalfEdge(he.Next).Prev = piece
		he.Next = piece
		s.Face(he.Face).Count++
	}
	return piece
}

// Validate checks twin symmetry and that every ring is closed and agrees
// with its face
func (s *Store) Validate() error {
	var err error
	s.ForEachHalfEdge(func(e HalfEdgeRef, he *HalfEdge) {
		if err != nil {
			return
		}
		if he.V[0] == NoVertex || he.V[1] == NoVertex {
			err = errors.Newf("half-edge %d is missing a vertex", e)
			return
		}
		if he.Twin != NoHalfEdge {
			tw := s.HalfEdge(he.Twin)
			if tw.Twin != e {
				err = errors.Newf("half-edge %d: twin %d points back at %d", e, he.Twin, tw.Twin)
				return
			}
			if tw.V[0] != he.V[1] || tw.V[1] != he.V[0] {
				err = errors.Newf("half-edge %d: twin %d runs between other vertices", e, he.Twin)
				return
			}
		}
		if he.Face != NoFace {
			if he.Next == NoHalfEdge || s.HalfEdge(he.Next).Prev != e {
				err = errors.Newf("half-edge %d: broken ring links", e)
				return
			}
			if s.HalfEdge(he.Next).Face != he.Face {
				err = errors.Newf("half-edge %d: next belongs to another face", e)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	s.ForEachFace(func(f FaceRef, face *Face) {
		if err != nil || face.HEdge == NoHalfEdge {
			return
		}
		var n int32
		e := face.HEdge
		for {
			n++
			if n > face.Count {
				err = errors.Newf("face %d: ring longer than %d", f, face.Count)
				return
			}
			e = s.HalfEdge(e).Next
			if e == face.HEdge {
				break
			}
		}
		if n != face.Count {
			err = errors.Newf("face %d: ring of %d, expected %d", f, n, face.Count)
		}
	})
	return err
}
