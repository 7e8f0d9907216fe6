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
	"cmp"
	"math"

	"golang.org/x/exp/slices"
)

// intersection is a vertex lying on the current partition
type intersection struct {
	vertex VertexRef
	// distance along the partition from its start
	along float64
	// sectors just before and just after the vertex, walking along the
	// partition; -1 where a wall or the void closes it
	before int32
	after  int32
	// whether the half-edge that put it here comes from a
	// self-referencing line
	selfRef bool
}

// divide splits the half-edges of set between two new sets, one on each
// side of part, and closes the gaps along the partition with mini
// half-edges. set is freed.
func (w *NodesWork) divide(set int32, part *partition) (rights, lefts int32) {
	rights = w.supers.NewLike(set)
	lefts = w.supers.NewLike(set)

	w.cuts = w.cuts[:0]
	w.work = w.supers.Drain(set, w.work[:0])
	w.supers.Free(set)

	w.queue.Reset()
	for _, e := range w.work {
		w.queue.Enqueue(e)
	}
	// the queue grows while we go: splitting a half-edge whose twin is also
	// waiting here queues the new twin piece
	for !w.queue.Empty() {
		w.divideOne(w.queue.Dequeue(), part, rights, lefts)
	}

	w.addMinis(part, rights, lefts)
	return rights, lefts
}

// divideOne puts e on the side of part it lies on, splitting it first if
// part crosses it
func (w *NodesWork) divideOne(e HalfEdgeRef, part *partition, rights, lefts int32) {
	he := w.store.HalfEdge(e)

	// half-edges of the partition's own line are on it by definition
	var a, b float64
	if he.Line < 0 || he.Line != part.line {
		a = part.perpDist(he.psx, he.psy)
		b = part.perpDist(he.pex, he.pey)
	}

	// check for being on the same line
	if math.Abs(a) <= DIST_EPSILON && math.Abs(b) <= DIST_EPSILON {
		if !he.ZeroLength() {
			w.addIntersection(he.V[0], part, he.SelfRef())
			w.addIntersection(he.V[1], part, he.SelfRef())
		}
		// direction decides the side
		if he.pdx*part.pdx+he.pdy*part.pdy < 0 {
			w.supers.Push(lefts, e)
		} else {
			w.supers.Push(rights, e)
		}
		return
	}

	// check for right side
	if a > -DIST_EPSILON && b > -DIST_EPSILON {
		if a < DIST_EPSILON {
			w.addIntersection(he.V[0], part, he.SelfRef())
		} else if b < DIST_EPSILON {
			w.addIntersection(he.V[1], part, he.SelfRef())
		}
		w.supers.Push(rights, e)
		return
	}

	// check for left side
	if a < DIST_EPSILON && b < DIST_EPSILON {
		if a > -DIST_EPSILON {
			w.addIntersection(he.V[0], part, he.SelfRef())
		} else if b > -DIST_EPSILON {
			w.addIntersection(he.V[1], part, he.SelfRef())
		}
		w.supers.Push(lefts, e)
		return
	}

	// when we reach here, we have a and b non-zero and opposite sign,
	// hence this half-edge will be split by the partition line
	x, y := part.intersection(he, a, b)
	piece := w.store.Split(e, x, y)
	w.placeTwinPiece(e, piece)
	w.stats.Splits++

	w.addIntersection(he.V[1], part, he.SelfRef())

	if a < 0 {
		w.supers.Push(lefts, e)
		w.supers.Push(rights, piece)
	} else {
		w.supers.Push(rights, e)
		w.supers.Push(lefts, piece)
	}
}

// placeTwinPiece puts the new twin piece created by splitting e where the
// old twin is: in its superblock, or in the queue of half-edges being
// divided. Ring membership is taken care of by Split.
func (w *NodesWork) placeTwinPiece(e, piece HalfEdgeRef) {
	newTwin := w.store.HalfEdge(e).Twin
	if newTwin == NoHalfEdge {
		return
	}
	twin := w.store.HalfEdge(w.store.HalfEdge(piece).Twin)
	switch {
	case twin.block >= 0:
		w.supers.Push(twin.block, newTwin)
	case twin.Face == NoFace:
		w.queue.Enqueue(newTwin)
	}
}

func (w *NodesWork) addIntersection(v VertexRef, part *partition, selfRef bool) {
	// already got it?
	for i := range w.cuts {
		if w.cuts[i].vertex == v {
			return
		}
	}
	vert := w.store.Vertex(v)
	w.cuts = append(w.cuts, intersection{
		vertex:  v,
		along:   part.parallelDist(vert.X, vert.Y),
		before:  w.store.CheckOpen(v, -part.pdx, -part.pdy),
		after:   w.store.CheckOpen(v, part.pdx, part.pdy),
		selfRef: selfRef,
	})
}

// addMinis walks the intersections in order along the partition and, for
// every stretch of open sector between two of them, adds a twin pair of
// mini half-edges: one on the right running along the partition, its twin
// on the left running back
func (w *NodesWork) addMinis(part *partition, rights, lefts int32) {
	if len(w.cuts) < 2 {
		return
	}
	slices.SortStableFunc(w.cuts, func(a, b intersection) int {
		return cmp.Compare(a.along, b.along)
	})
	w.cuts = mergeIntersections(w.cuts)

	for i := 0; i+1 < len(w.cuts); i++ {
		cur := &w.cuts[i]
		next := &w.cuts[i+1]

		// is this a gap to create minisegs?
		if cur.after < 0 && next.before < 0 {
			continue
		}

		// check for some nasty OPEN/CLOSED or CLOSED/OPEN cases
		if cur.after >= 0 && next.before < 0 {
			if !cur.selfRef {
				w.warnUnclosed(cur.after, cur.vertex)
			}
			continue
		}
		if cur.after < 0 && next.before >= 0 {
			if !next.selfRef {
				w.warnUnclosed(next.before, next.vertex)
			}
			continue
		}

		// righteo, here we have definite open space
		sector := cur.after
		if cur.after != next.before {
			if !cur.selfRef && !next.selfRef {
				w.stats.Anomalies.SectorMismatches++
				Log.Verbose(w.opts.AnomalyVerbosity, "Sector mismatch: #%d (%g,%g) != #%d (%g,%g)\n",
					cur.after, w.store.Vertex(cur.vertex).X, w.store.Vertex(cur.vertex).Y,
					next.before, w.store.Vertex(next.vertex).X, w.store.Vertex(next.vertex).Y)
			}
			// choose the non-self-referencing sector when we can
			if cur.selfRef && !next.selfRef {
				sector = next.before
			}
		}

		seg := w.store.CreateEdge(cur.vertex, next.vertex)
		buddy := w.store.CreateEdge(next.vertex, cur.vertex)
		w.store.SetTwin(seg, buddy)
		w.store.HalfEdge(seg).Sector = sector
		w.store.HalfEdge(buddy).Sector = sector

		w.supers.Push(rights, seg)
		w.supers.Push(lefts, buddy)
		w.stats.Minis++
	}
}

func (w *NodesWork) warnUnclosed(sector int32, v VertexRef) {
	if w.warned[sector] {
		return
	}
	w.warned[sector] = true
	w.stats.Anomalies.UnclosedSectors++
	vert := w.store.Vertex(v)
	Log.Verbose(w.opts.AnomalyVerbosity, "Sector #%d is unclosed near (%g,%g)\n", sector, vert.X, vert.Y)
}

// mergeIntersections folds intersections closer than CUT_MERGE_LEN into the
// first of them. cuts must be sorted.
func mergeIntersections(cuts []intersection) []intersection {
	out := cuts[:1]
	for _, next := range cuts[1:] {
		cur := &out[len(out)-1]
		if next.along-cur.along > CUT_MERGE_LEN {
			out = append(out, next)
			continue
		}
		if cur.selfRef && !next.selfRef {
			if cur.before >= 0 && next.before >= 0 {
				cur.before = next.before
			}
			if cur.after >= 0 && next.after >= 0 {
				cur.after = next.after
			}
			cur.selfRef = false
		}
		if cur.before < 0 && next.before >= 0 {
			cur.before = next.before
		}
		if cur.after < 0 && next.after >= 0 {
			cur.after = next.after
		}
	}
	return out
}
