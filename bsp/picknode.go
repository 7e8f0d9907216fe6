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

	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"golang.org/x/exp/constraints"
)

// To be able to divide the nodes down, this routine must decide which is the
// best half-edge to use as a nodeline. The cost model is AJ-BSP's: splits
// and unbalanced sides cost, and so do partitions passing so close to a
// vertex, or splitting so close to an end, that they leave slivers behind.

const INITIAL_BIG_COST = math.MaxInt

// evalInfo accumulates what a candidate partition would do to a set
type evalInfo struct {
	cost      int
	splits    int
	iffy      int
	nearMiss  int
	realLeft  int
	realRight int
	miniLeft  int
	miniRight int
}

func (info *evalInfo) addLeft(he *HalfEdge) {
	if he.IsMini() {
		info.miniLeft++
	} else {
		info.realLeft++
	}
}

func (info *evalInfo) addRight(he *HalfEdge) {
	if he.IsMini() {
		info.miniRight++
	} else {
		info.realRight++
	}
}

// partitionOf returns the partition through half-edge e, oriented along
// the front side of its linedef
func partitionOf(e HalfEdgeRef, he *HalfEdge) partition {
	p := partition{
		psx:   he.psx,
		psy:   he.psy,
		pdx:   he.pdx,
		pdy:   he.pdy,
		line:  he.Line,
		side:  level.SideFront,
		hedge: e,
	}
	if he.Side == level.SideBack {
		p.psx, p.psy = he.pex, he.pey
		p.pdx, p.pdy = -he.pdx, -he.pdy
	}
	p.length = math.Hypot(p.pdx, p.pdy)
	p.perp = p.psy*p.pdx - p.psx*p.pdy
	p.para = -p.psx*p.pdx - p.psy*p.pdy
	return p
}

// pickNode chooses the partition for set. It returns false when no
// candidate has real half-edges on both sides, meaning set is a leaf.
func (w *NodesWork) pickNode(set int32) (partition, bool) {
	var best partition
	bestCost := INITIAL_BIG_COST
	found := false

	// self-referencing lines are only tried when nothing else will do
	for _, allowSelfRef := range [2]bool{false, true} {
		skipped := false
		w.marks.UnvisitAll() // remove marks from previous passes
		w.supers.ForEach(set, func(e HalfEdgeRef, he *HalfEdge) {
			if he.IsMini() || he.ZeroLength() || w.usedLines[he.Line] {
				return
			}
			if he.SelfRef() && !allowSelfRef {
				skipped = true
				return
			}
			if w.marks.MarkAndRecall(he.Line) {
				// another half-edge of this line was tried already, it
				// gives the same nodeline
				return
			}

			part := partitionOf(e, he)
			cost := w.evalPartition(set, &part, bestCost)
			if cost < 0 {
				return
			}
			if cost < bestCost || (cost == bestCost && part.line < best.line) {
				bestCost = cost
				best = part
				found = true
			}
		})
		if found || !skipped {
			break
		}
	}

	if found {
		Log.Verbose(VERBOSE_PICKNODE, "Picked linedef %d as partition, cost %d\n", best.line, bestCost)
	}
	return best, found
}

// evalPartition returns the cost of dividing set along part, or -1 if part
// is unsuitable or certain to cost more than bestCost
func (w *NodesWork) evalPartition(set int32, part *partition, bestCost int) int {
	var info evalInfo
	if w.evalPartitionWorker(set, part, bestCost, &info) {
		return -1
	}

	// make sure there is at least one real half-edge on each side
	if info.realLeft == 0 || info.realRight == 0 {
		return -1
	}

	// increase cost by the difference between left & right
	info.cost += 100 * abs(info.realLeft-info.realRight)

	// mini-segs are less important
	info.cost += 50 * abs(info.miniLeft-info.miniRight)

	// show a slight preference for purely horizontal or vertical lines
	if !part.isAxial() {
		info.cost += w.opts.DiagonalPenalty
	}

	return info.cost
}

// If returns true, the partition must be skipped, because it produced so
// many splits early on that its cost exceeds bestCost
func (w *NodesWork) evalPartitionWorker(block int32, part *partition,
	bestCost int, info *evalInfo) bool {

	b := w.supers.At(block)

	// -AJA- this is the heart of my superblock idea, it tests the
	//       _whole_ block against the partition line to quickly handle
	//       all the segs within it at once.  Only when the partition
	//       line intercepts the box do we need to go deeper into it.
	switch part.boxOnSide(b.Box()) {
	case -1:
		info.realLeft += int(b.RealNum)
		info.miniLeft += int(b.MiniNum)
		return false
	case +1:
		info.realRight += int(b.RealNum)
		info.miniRight += int(b.MiniNum)
		return false
	}

	factor := float64(w.opts.SplitFactor)

	for e := b.Head; e != NoHalfEdge; {
		// This is the heart of my pruning idea, it catches bad segs early
		// on. Killough
		if info.cost > bestCost {
			return true
		}

		he := w.store.HalfEdge(e)
		e = he.nextInBlock

		var a, bb float64
		if he.Line < 0 || he.Line != part.line {
			a = part.perpDist(he.psx, he.psy)
			bb = part.perpDist(he.pex, he.pey)
		}
		fa, fb := math.Abs(a), math.Abs(bb)

		// check for being on the same line
		if fa <= DIST_EPSILON && fb <= DIST_EPSILON {
			// it runs along the partition, the direction decides the side
			if he.pdx*part.pdx+he.pdy*part.pdy < 0 {
				info.addLeft(he)
			} else {
				info.addRight(he)
			}
			continue
		}

		// check for right side
		if a > -DIST_EPSILON && bb > -DIST_EPSILON {
			info.addRight(he)

			// check for a near miss
			if (a >= IFFY_LEN && bb >= IFFY_LEN) ||
				(a <= DIST_EPSILON && bb >= IFFY_LEN) ||
				(bb <= DIST_EPSILON && a >= IFFY_LEN) {
				continue
			}

			info.nearMiss++

			// near misses are bad, they have the potential to cause really
			// short minisegs further down. The closer, the costlier.
			var qnty float64
			if a <= DIST_EPSILON || bb <= DIST_EPSILON {
				qnty = NEAR_MISS_LEN / math.Max(a, bb)
			} else {
				qnty = NEAR_MISS_LEN / math.Min(a, bb)
			}
			info.cost += int(100 * factor * (qnty*qnty - 1.0))
			continue
		}

		// check for left side
		if a < DIST_EPSILON && bb < DIST_EPSILON {
			info.addLeft(he)

			// check for a near miss
			if (a <= -IFFY_LEN && bb <= -IFFY_LEN) ||
				(a >= -DIST_EPSILON && bb <= -IFFY_LEN) ||
				(bb >= -DIST_EPSILON && a <= -IFFY_LEN) {
				continue
			}

			info.nearMiss++

			var qnty float64
			if a >= -DIST_EPSILON || bb >= -DIST_EPSILON {
				qnty = NEAR_MISS_LEN / -math.Min(a, bb)
			} else {
				qnty = NEAR_MISS_LEN / -math.Max(a, bb)
			}
			info.cost += int(100 * factor * (qnty*qnty - 1.0))
			continue
		}

		// when we reach here, a and b are non-zero and of opposite sign,
		// hence this half-edge will be split by the partition line
		info.splits++
		info.cost += int(100 * factor)

		// a split very close to one end leaves a really short piece.
		// Hence the name "iffy segs", and a rather hefty surcharge.
		if fa < IFFY_LEN || fb < IFFY_LEN {
			info.iffy++

			// the closer to the end, the higher the cost
			qnty := IFFY_LEN / math.Min(fa, fb)
			info.cost += int(70 * factor * (qnty*qnty - 1.0))
		}
	}

	// handle sub-blocks recursively
	for _, sub := range b.Subs {
		if sub < 0 {
			continue
		}
		if w.evalPartitionWorker(sub, part, bestCost, info) {
			return true
		}
	}

	// no "bad seg" was found
	return false
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
