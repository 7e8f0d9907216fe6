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

type ringEntry struct {
	e     HalfEdgeRef
	angle float64
}

// createLeaf gathers every half-edge of the given sets into a new face,
// ordered clockwise around their centre. The sets are freed.
func (w *NodesWork) createLeaf(sets ...int32) FaceRef {
	w.work = w.work[:0]
	for _, set := range sets {
		w.work = w.supers.Drain(set, w.work)
		w.supers.Free(set)
	}

	f := w.store.CreateFace()
	if len(w.work) == 0 {
		return f
	}

	// the centre is the average of all end points
	var midX, midY float64
	for _, e := range w.work {
		he := w.store.HalfEdge(e)
		midX += he.psx + he.pex
		midY += he.psy + he.pey
	}
	midX /= float64(2 * len(w.work))
	midY /= float64(2 * len(w.work))

	w.ring = w.ring[:0]
	for _, e := range w.work {
		he := w.store.HalfEdge(e)
		w.ring = append(w.ring, ringEntry{
			e:     e,
			angle: computeAngle(he.psx-midX, he.psy-midY),
		})
	}
	// clockwise is decreasing angle
	slices.SortStableFunc(w.ring, func(a, b ringEntry) int {
		if c := cmp.Compare(b.angle, a.angle); c != 0 {
			return c
		}
		return cmp.Compare(a.e, b.e)
	})

	// start the ring at a real half-edge, one not on a self-referencing
	// line if there is any
	first := -1
	for i, r := range w.ring {
		he := w.store.HalfEdge(r.e)
		if he.IsMini() || he.ZeroLength() {
			continue
		}
		if !he.SelfRef() {
			first = i
			break
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		first = 0
	}

	w.work = w.work[:0]
	for i := range w.ring {
		w.work = append(w.work, w.ring[(first+i)%len(w.ring)].e)
	}
	w.store.LinkRing(f, w.work)

	face := w.store.Face(f)
	face.Sector = w.store.HalfEdge(w.work[0]).Sector
	w.checkLeaf(f)
	return f
}

// checkLeaf counts and logs problems with a freshly made leaf: a ring that
// doesn't join up, or half-edges facing different sectors
func (w *NodesWork) checkLeaf(f FaceRef) {
	face := w.store.Face(f)
	open := false
	mixed := false
	w.store.ForEachInRing(f, func(e HalfEdgeRef, he *HalfEdge) {
		next := w.store.HalfEdge(he.Next)
		if math.Abs(he.pex-next.psx) > DIST_EPSILON || math.Abs(he.pey-next.psy) > DIST_EPSILON {
			open = true
		}
		if he.Sector != face.Sector {
			mixed = true
		}
	})
	if open {
		w.stats.Anomalies.OpenLeaves++
		Log.Verbose(w.opts.AnomalyVerbosity, "Leaf %d (sector %d) is not closed\n", f, face.Sector)
	}
	if mixed {
		w.stats.Anomalies.MixedSectors++
		Log.Verbose(w.opts.AnomalyVerbosity, "Leaf %d has half-edges of more than one sector\n", f)
	}
}
