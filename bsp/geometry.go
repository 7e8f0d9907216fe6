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

// AABB is an axis-aligned bounding box in map units
type AABB struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func emptyAABB() AABB {
	return AABB{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

func (b AABB) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b *AABB) addPoint(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

func (b *AABB) Union(o AABB) {
	if o.Empty() {
		return
	}
	b.addPoint(o.MinX, o.MinY)
	b.addPoint(o.MaxX, o.MaxY)
}

// partition is the line a node divides space with. It is a copy of the
// chosen half-edge's geometry, so that the half-edge itself may be split
// while dividing.
type partition struct {
	psx, psy float64
	pdx, pdy float64
	length   float64
	perp     float64
	para     float64
	line     int32
	side     int32
	hedge    HalfEdgeRef
}

func (p *partition) isAxial() bool {
	return p.pdx == 0 || p.pdy == 0
}

// perpDist is the signed distance of (x, y) from the partition, positive on
// the right
func (p *partition) perpDist(x, y float64) float64 {
	return (x*p.pdy - y*p.pdx + p.perp) / p.length
}

// parallelDist is the distance of (x, y) along the partition from its start
func (p *partition) parallelDist(x, y float64) float64 {
	return (x*p.pdx + y*p.pdy + p.para) / p.length
}

// pointOnSide returns -1 for left, +1 for right, 0 for on the line
func (p *partition) pointOnSide(x, y float64) int {
	perp := p.perpDist(x, y)
	if math.Abs(perp) <= DIST_EPSILON {
		return 0
	}
	if perp < 0 {
		return -1
	}
	return +1
}

// boxOnSide tells which side of the partition a box (widened by
// MARGIN_LEN) lies on. Returns -1 for left, +1 for right, or 0 for
// intersect.
func (p *partition) boxOnSide(box AABB) int {
	x1 := box.MinX - MARGIN_LEN
	y1 := box.MinY - MARGIN_LEN
	x2 := box.MaxX + MARGIN_LEN
	y2 := box.MaxY + MARGIN_LEN

	var p1, p2 int

	// handle simple cases (vertical & horizontal lines)
	if p.pdx == 0 {
		p1 = sideOf(x1 > p.psx)
		p2 = sideOf(x2 > p.psx)
		if p.pdy < 0 {
			p1, p2 = -p1, -p2
		}
	} else if p.pdy == 0 {
		p1 = sideOf(y1 < p.psy)
		p2 = sideOf(y2 < p.psy)
		if p.pdx < 0 {
			p1, p2 = -p1, -p2
		}
	} else if p.pdx*p.pdy > 0 {
		// positive slope
		p1 = p.pointOnSide(x1, y2)
		p2 = p.pointOnSide(x2, y1)
	} else {
		// negative slope
		p1 = p.pointOnSide(x1, y1)
		p2 = p.pointOnSide(x2, y2)
	}

	if p1 == p2 {
		return p1
	}
	return 0
}

func sideOf(right bool) int {
	if right {
		return +1
	}
	return -1
}

// intersection computes where the partition crosses the half-edge whose
// start and end are at perpendicular distances a and b. Horizontal and
// vertical cases are solved exactly.
func (p *partition) intersection(e *HalfEdge, a, b float64) (float64, float64) {
	// horizontal partition against vertical half-edge
	if p.pdy == 0 && e.pdx == 0 {
		return e.psx, p.psy
	}
	// vertical partition against horizontal half-edge
	if p.pdx == 0 && e.pdy == 0 {
		return p.psx, e.psy
	}
	ds := a / (a - b)
	x, y := e.psx, e.psy
	if e.pdx != 0 {
		x += e.pdx * ds
	}
	if e.pdy != 0 {
		y += e.pdy * ds
	}
	return x, y
}

// computeAngle returns the direction of (dx, dy) in degrees, [0, 360)
func computeAngle(dx, dy float64) float64 {
	if dx == 0 {
		if dy > 0 {
			return 90
		}
		return 270
	}
	angle := math.Atan2(dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return angle
}

// computeBAM converts a direction to a binary angle, the full circle
// mapping onto 2^32
func computeBAM(dx, dy float64) uint32 {
	w := math.Atan2(dy, dx) / (math.Pi * 2)
	if w < 0 {
		w += 1
	}
	return uint32(uint64(w * 4294967296.0))
}

// RoundPOW2 rounds x up to a power of two
func RoundPOW2(x int) int {
	if x <= 2 {
		return x
	}

	x--

	for tmp := x >> 1; tmp != 0; tmp >>= 1 {
		x |= tmp
	}

	return x + 1
}
