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
)

// AddWallTip records a wall leaving v in direction (dx, dy). left and right
// are the sectors on either side of the wall as seen from v, -1 for void.
func (s *Store) AddWallTip(v VertexRef, dx, dy float64, left, right int32) {
	angle := computeAngle(dx, dy)
	vert := s.Vertex(v)

	prev := int32(-1)
	cur := vert.tips
	for cur >= 0 {
		tip := s.tips.At(cur)
		if tip.angle > angle+ANG_EPSILON {
			break
		}
		prev = cur
		cur = tip.next
	}

	idx := s.tips.MustAppend(wallTip{
		angle: angle,
		left:  left,
		right: right,
		next:  cur,
	})
	if prev < 0 {
		vert.tips = idx
	} else {
		s.tips.At(prev).next = idx
	}
}

// CheckOpen tells what lies in direction (dx, dy) from v: the sector there,
// or -1 if that direction runs along a wall or into the void
func (s *Store) CheckOpen(v VertexRef, dx, dy float64) int32 {
	angle := computeAngle(dx, dy)
	first := s.Vertex(v).tips

	// a wall running exactly that way closes it
	for cur := first; cur >= 0; {
		tip := s.tips.At(cur)
		diff := math.Abs(tip.angle - angle)
		if diff < ANG_EPSILON || diff > 360.0-ANG_EPSILON {
			return -1
		}
		cur = tip.next
	}

	// otherwise we are on the right of the first wall with a greater
	// angle, or on the left of the one with the largest
	for cur := first; cur >= 0; {
		tip := s.tips.At(cur)
		if angle+ANG_EPSILON < tip.angle {
			return tip.right
		}
		if tip.next < 0 {
			return tip.left
		}
		cur = tip.next
	}
	return -1
}
