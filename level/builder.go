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
package level

// Builder assembles a level in code. Vertices with equal coordinates are
// shared, so rooms drawn separately connect where they touch.
type Builder struct {
	l     Level
	verts map[Vertex]int
}

type Point struct {
	X, Y float64
}

func NewBuilder(name string) *Builder {
	return &Builder{
		l:     Level{Name: name},
		verts: make(map[Vertex]int),
	}
}

func (b *Builder) Sector(floor, ceil float64) int {
	b.l.Sectors = append(b.l.Sectors, Sector{
		FloorHeight: floor,
		CeilHeight:  ceil,
		FloorName:   "FLOOR4_8",
		CeilName:    "CEIL3_5",
		LightLevel:  160,
	})
	return len(b.l.Sectors) - 1
}

func (b *Builder) Vertex(x, y float64) int {
	v := Vertex{X: x, Y: y}
	if idx, ok := b.verts[v]; ok {
		return idx
	}
	b.l.Vertices = append(b.l.Vertices, v)
	b.verts[v] = len(b.l.Vertices) - 1
	return len(b.l.Vertices) - 1
}

// RawVertex adds a vertex even if one with the same coordinates exists
func (b *Builder) RawVertex(x, y float64) int {
	b.l.Vertices = append(b.l.Vertices, Vertex{X: x, Y: y})
	return len(b.l.Vertices) - 1
}

func (b *Builder) side(sector int) int {
	if sector < 0 {
		return NoSidedef
	}
	b.l.Sidedefs = append(b.l.Sidedefs, Sidedef{
		MidName: "STARTAN3",
		UpName:  "-",
		LoName:  "-",
		Sector:  sector,
	})
	return len(b.l.Sidedefs) - 1
}

// LineV adds a linedef between two existing vertices. front and back are
// sector numbers, -1 for none.
func (b *Builder) LineV(v1, v2 int, front, back int) int {
	var flags uint32 = LF_IMPASSABLE
	if front >= 0 && back >= 0 {
		flags = LF_TWOSIDED
	}
	b.l.Linedefs = append(b.l.Linedefs, Linedef{
		StartVertex: v1,
		EndVertex:   v2,
		Flags:       flags,
		FrontSdef:   b.side(front),
		BackSdef:    b.side(back),
	})
	return len(b.l.Linedefs) - 1
}

func (b *Builder) Line(x1, y1, x2, y2 float64, front, back int) int {
	return b.LineV(b.Vertex(x1, y1), b.Vertex(x2, y2), front, back)
}

// Room adds one-sided walls around a polygon facing into sector. The points
// may be listed in either winding; walls are laid out so that their front
// (right) side faces the inside.
func (b *Builder) Room(sector int, pts ...Point) {
	if signedArea(pts) > 0 {
		// counter-clockwise, walk it the other way round
		rev := make([]Point, len(pts))
		for i, p := range pts {
			rev[len(pts)-1-i] = p
		}
		pts = rev
	}
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		b.Line(p.X, p.Y, q.X, q.Y, sector, -1)
	}
}

func (b *Builder) Level() *Level {
	l := b.l
	return &l
}

func signedArea(pts []Point) float64 {
	area := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		area += p.X*q.Y - q.X*p.Y
	}
	return area / 2
}
