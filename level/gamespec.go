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

// Package level holds the raw level geometry handed to the node builder:
// vertices, linedefs, sidedefs and sectors, already loaded from whatever
// format the map came in. The node builder treats it as read-only.
package level

// NoSidedef marks the missing side of a one-sided linedef
const NoSidedef = -1

const (
	SideFront = 0
	SideBack  = 1
)

// Linedef flags the node builder cares about, the rest are passed through
const (
	LF_IMPASSABLE = 0x0001
	LF_TWOSIDED   = 0x0004
)

// A Vertex is a coordinate on the map. Editors can place vertices at
// fractional coordinates, so they are kept as float64.
type Vertex struct {
	X float64
	Y float64
}

type Linedef struct {
	StartVertex int
	EndVertex   int
	Flags       uint32
	Action      int
	Tag         int
	FrontSdef   int // Front Sidedef number (front is to the right)
	BackSdef    int // Back Sidedef number, NoSidedef for one-sided line
}

// Sidedef is the face of a linedef looking into a sector
type Sidedef struct {
	XOffset float64
	YOffset float64
	UpName  string // name of upper texture
	LoName  string // name of lower texture
	MidName string // name of middle texture
	Sector  int
}

type Sector struct {
	FloorHeight float64
	CeilHeight  float64
	FloorName   string
	CeilName    string
	LightLevel  int
	Special     int
	Tag         int
}

// Level is one map's geometry
type Level struct {
	Name     string
	Vertices []Vertex
	Linedefs []Linedef
	Sidedefs []Sidedef
	Sectors  []Sector
}
