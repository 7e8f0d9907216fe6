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

	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// The grand nodebuilding speed-up technique from AJ-BSP by Andrew Apted:
// superblocks. Half-edges are bucketed in a quadtree-like hierarchy of
// blocks, so that the partitioner can count whole blocks that lie on one
// side of a candidate at once.

type Superblock struct {
	// parent of this block, or -1 for a top-level block
	Parent int32
	// coordinates on map for this block, from lower-left corner to
	// upper-right corner.  Pseudo-inclusive, i.e (x,y) is inside block
	// if and only if X1 <= x < X2 and Y1 <= y < Y2.
	X1, Y1 int32
	X2, Y2 int32
	// sub-blocks, -1 when empty. [0] has the lower coordinates, and
	// [1] has the higher coordinates. Division of a square always
	// occurs horizontally (e.g. 512x512 -> 256x512 -> 256x256).
	Subs [2]int32
	// number of real and mini half-edges contained by this block, including
	// all sub-blocks below it
	RealNum int32
	MiniNum int32
	// list of half-edges _directly_ contained by this block, linked through
	// nextInBlock. Doesn't include those contained in subblocks.
	Head HalfEdgeRef
}

// superblocks allocates blocks from a zone arena and recycles released
// ones
type superblocks struct {
	store  *Store
	blocks *zone.Arena[Superblock]
	free   []int32
}

func newSuperblocks(store *Store, alloc zone.Allocator, tag zone.Tag) *superblocks {
	return &superblocks{
		store:  store,
		blocks: zone.NewArena[Superblock](alloc, tag, SUPERBLOCK_PAGE),
	}
}

func (sb *superblocks) At(block int32) *Superblock {
	return sb.blocks.At(block)
}

func (sb *superblocks) New(parent int32, x1, y1, x2, y2 int32) int32 {
	b := Superblock{
		Parent: parent,
		X1:     x1,
		Y1:     y1,
		X2:     x2,
		Y2:     y2,
		Subs:   [2]int32{-1, -1},
		Head:   NoHalfEdge,
	}
	if n := len(sb.free); n > 0 {
		idx := sb.free[n-1]
		sb.free = sb.free[:n-1]
		*sb.At(idx) = b
		return idx
	}
	return sb.blocks.MustAppend(b)
}

// NewLike creates an empty top-level block with the same bounds as block
func (sb *superblocks) NewLike(block int32) int32 {
	b := sb.At(block)
	return sb.New(-1, b.X1, b.Y1, b.X2, b.Y2)
}

// NewRoot creates a top-level block covering box, aligned and sized so that
// repeated halving lands on whole numbers
func (sb *superblocks) NewRoot(box AABB) int32 {
	if box.Empty() {
		return sb.New(-1, 0, 0, BLOCK_SIZE, BLOCK_SIZE)
	}
	x1 := int32(math.Floor(box.MinX)) &^ (SUPER_ALIGN - 1)
	y1 := int32(math.Floor(box.MinY)) &^ (SUPER_ALIGN - 1)
	w := (int(math.Ceil(box.MaxX)) - int(x1) + BLOCK_SIZE) / BLOCK_SIZE
	h := (int(math.Ceil(box.MaxY)) - int(y1) + BLOCK_SIZE) / BLOCK_SIZE
	x2 := x1 + int32(BLOCK_SIZE*RoundPOW2(w))
	y2 := y1 + int32(BLOCK_SIZE*RoundPOW2(h))
	return sb.New(-1, x1, y1, x2, y2)
}

func (b *Superblock) isLeaf() bool {
	return (b.X2-b.X1) <= SUPER_LEAF_SIZE && (b.Y2-b.Y1) <= SUPER_LEAF_SIZE
}

func (b *Superblock) Box() AABB {
	return AABB{
		MinX: float64(b.X1), MinY: float64(b.Y1),
		MaxX: float64(b.X2), MaxY: float64(b.Y2),
	}
}

func (b *Superblock) Total() int32 {
	return b.RealNum + b.MiniNum
}

// Push adds e to block or the deepest sub-block that wholly contains it.
// Counters of block's ancestors are bumped as well.
func (sb *superblocks) Push(block int32, e HalfEdgeRef) {
	he := sb.store.HalfEdge(e)
	for up := sb.At(block).Parent; up >= 0; up = sb.At(up).Parent {
		sb.count(sb.At(up), he, 1)
	}

	for {
		b := sb.At(block)
		sb.count(b, he, 1)

		if b.isLeaf() {
			// block is not allowed to be subdivided any further
			sb.link(block, e)
			return
		}

		var p1, p2 bool
		wide := b.X2-b.X1 >= b.Y2-b.Y1
		xMid := (b.X1 + b.X2) >> 1
		yMid := (b.Y1 + b.Y2) >> 1
		if wide {
			// block is wider than it is high, or square
			p1 = he.psx >= float64(xMid)
			p2 = he.pex >= float64(xMid)
		} else {
			// block is higher than it is wide
			p1 = he.psy >= float64(yMid)
			p2 = he.pey >= float64(yMid)
		}

		var child int
		if p1 && p2 {
			child = 1
		} else if !p1 && !p2 {
			child = 0
		} else {
			// half-edge crosses midpoint -- link it in and return
			sb.link(block, e)
			return
		}

		// OK, the half-edge lies in one half of this block. Create the
		// block if it doesn't already exist, and loop back to add it.
		if b.Subs[child] < 0 {
			x1, y1, x2, y2 := b.X1, b.Y1, b.X2, b.Y2
			if wide {
				if child == 1 {
					x1 = xMid
				} else {
					x2 = xMid
				}
			} else {
				if child == 1 {
					y1 = yMid
				} else {
					y2 = yMid
				}
			}
			sub := sb.New(block, x1, y1, x2, y2)
			// New may have grown the arena, but pages never move
			b.Subs[child] = sub
		}
		block = b.Subs[child]
	}
}

func (sb *superblocks) link(block int32, e HalfEdgeRef) {
	b := sb.At(block)
	he := sb.store.HalfEdge(e)
	he.nextInBlock = b.Head
	he.block = block
	b.Head = e
}

func (sb *superblocks) count(b *Superblock, he *HalfEdge, delta int32) {
	if he.IsMini() {
		b.MiniNum += delta
	} else {
		b.RealNum += delta
	}
}

// Pop removes one half-edge from block or, if its own list is empty, from
// one of its sub-blocks. Returns NoHalfEdge when the block holds nothing.
func (sb *superblocks) Pop(block int32) HalfEdgeRef {
	b := sb.At(block)
	if b.Head == NoHalfEdge {
		for _, sub := range b.Subs {
			if sub < 0 || sb.At(sub).Total() == 0 {
				continue
			}
			return sb.Pop(sub)
		}
		return NoHalfEdge
	}

	e := b.Head
	he := sb.store.HalfEdge(e)
	b.Head = he.nextInBlock
	he.nextInBlock = NoHalfEdge
	he.block = -1
	for up := block; up >= 0; up = sb.At(up).Parent {
		sb.count(sb.At(up), he, -1)
	}
	return e
}

// Traverse walks block and its sub-blocks, calling pre before and post after
// visiting the children. Either may be nil.
func (sb *superblocks) Traverse(block int32, pre, post func(int32)) {
	if pre != nil {
		pre(block)
	}
	for _, sub := range sb.At(block).Subs {
		if sub >= 0 {
			sb.Traverse(sub, pre, post)
		}
	}
	if post != nil {
		post(block)
	}
}

// ForEach visits every half-edge in block and its sub-blocks
func (sb *superblocks) ForEach(block int32, fn func(HalfEdgeRef, *HalfEdge)) {
	sb.Traverse(block, func(b int32) {
		for e := sb.At(b).Head; e != NoHalfEdge; {
			he := sb.store.HalfEdge(e)
			next := he.nextInBlock
			fn(e, he)
			e = next
		}
	}, nil)
}

// BoundsOfContents is the box around every half-edge in block, which may be
// much tighter than the block itself
func (sb *superblocks) BoundsOfContents(block int32) AABB {
	box := emptyAABB()
	sb.ForEach(block, func(_ HalfEdgeRef, he *HalfEdge) {
		box.addPoint(he.psx, he.psy)
		box.addPoint(he.pex, he.pey)
	})
	return box
}

// Drain pops every half-edge out of block, appending them to list
func (sb *superblocks) Drain(block int32, list []HalfEdgeRef) []HalfEdgeRef {
	sb.Traverse(block, func(b int32) {
		blk := sb.At(b)
		for e := blk.Head; e != NoHalfEdge; {
			he := sb.store.HalfEdge(e)
			next := he.nextInBlock
			he.nextInBlock = NoHalfEdge
			he.block = -1
			list = append(list, e)
			e = next
		}
		blk.Head = NoHalfEdge
		blk.RealNum = 0
		blk.MiniNum = 0
	}, nil)
	return list
}

// Free returns block and all its sub-blocks to the free list. Half-edges
// still linked in them are detached.
func (sb *superblocks) Free(block int32) {
	sb.Traverse(block, nil, func(b int32) {
		blk := sb.At(b)
		for e := blk.Head; e != NoHalfEdge; {
			he := sb.store.HalfEdge(e)
			next := he.nextInBlock
			he.nextInBlock = NoHalfEdge
			he.block = -1
			e = next
		}
		*blk = Superblock{Parent: -1, Subs: [2]int32{-1, -1}, Head: NoHalfEdge}
		sb.free = append(sb.free, b)
	})
}

func (sb *superblocks) Release() {
	sb.blocks.Release()
	sb.free = nil
}
