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
// convexity
package bsp

import (
	"github.com/cockroachdb/errors"
)

// Checks run over a finished tree. The builder itself only counts leaf
// anomalies; these are for callers that want to know the leaves really are
// convex polygons.

// convexity tolerance on the cross product of consecutive half-edges,
// relative to their lengths
const CONVEX_EPSILON = 1.0 / 1024.0

// LeafArea is the area enclosed by the ring of leaf f
func (t *Tree) LeafArea(f FaceRef) float64 {
	area := 0.0
	t.store.ForEachInRing(f, func(_ HalfEdgeRef, he *HalfEdge) {
		area += he.psx*he.pey - he.pex*he.psy
	})
	// rings run clockwise
	return -area / 2
}

// LeafIsConvex reports whether every turn along the ring of f is a right
// turn (or straight on)
func (t *Tree) LeafIsConvex(f FaceRef) bool {
	convex := true
	t.store.ForEachInRing(f, func(_ HalfEdgeRef, he *HalfEdge) {
		next := t.store.HalfEdge(he.Next)
		if he.ZeroLength() || next.ZeroLength() {
			return
		}
		cross := he.pdx*next.pdy - he.pdy*next.pdx
		if cross > CONVEX_EPSILON*he.plen*next.plen {
			convex = false
		}
	})
	return convex
}

// Validate checks the half-edge structure and that every leaf is a closed
// convex ring
func (t *Tree) Validate() error {
	if err := t.store.Validate(); err != nil {
		return err
	}
	var err error
	t.store.ForEachFace(func(f FaceRef, face *Face) {
		if err != nil || face.Count == 0 {
			return
		}
		if !t.LeafIsConvex(f) {
			err = errors.Newf("leaf %d is not convex", f)
		}
	})
	return err
}
