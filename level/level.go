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

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

var ErrBadReference = errors.New("reference out of range")

// Validate checks that every index in the level points at something. It
// says nothing about whether the geometry makes sense; broken geometry is
// the node builder's problem and it copes with it.
func (l *Level) Validate() error {
	for i, line := range l.Linedefs {
		if line.StartVertex < 0 || line.StartVertex >= len(l.Vertices) {
			return errors.Wrapf(ErrBadReference, "linedef %d: start vertex %d", i, line.StartVertex)
		}
		if line.EndVertex < 0 || line.EndVertex >= len(l.Vertices) {
			return errors.Wrapf(ErrBadReference, "linedef %d: end vertex %d", i, line.EndVertex)
		}
		if !l.validSidedef(line.FrontSdef) {
			return errors.Wrapf(ErrBadReference, "linedef %d: front sidedef %d", i, line.FrontSdef)
		}
		if !l.validSidedef(line.BackSdef) {
			return errors.Wrapf(ErrBadReference, "linedef %d: back sidedef %d", i, line.BackSdef)
		}
	}
	for i, sdef := range l.Sidedefs {
		if sdef.Sector < 0 || sdef.Sector >= len(l.Sectors) {
			return errors.Wrapf(ErrBadReference, "sidedef %d: sector %d", i, sdef.Sector)
		}
	}
	return nil
}

func (l *Level) validSidedef(idx int) bool {
	return idx == NoSidedef || (idx >= 0 && idx < len(l.Sidedefs))
}

// Sidedef returns the sidedef index on the given side of a linedef, or
// NoSidedef
func (l *Level) Sidedef(line int, side int) int {
	if side == SideFront {
		return l.Linedefs[line].FrontSdef
	}
	return l.Linedefs[line].BackSdef
}

// SideSector returns the sector on the given side of a linedef, -1 if the
// line has no sidedef there
func (l *Level) SideSector(line int, side int) int {
	sdef := l.Sidedef(line, side)
	if sdef == NoSidedef {
		return -1
	}
	return l.Sidedefs[sdef].Sector
}

// IsSelfReferencing tells whether a linedef has the same sector on both
// sides
func (l *Level) IsSelfReferencing(line int) bool {
	front := l.SideSector(line, SideFront)
	return front >= 0 && front == l.SideSector(line, SideBack)
}

func (l *Level) LineLength(line int) float64 {
	ld := l.Linedefs[line]
	v1, v2 := l.Vertices[ld.StartVertex], l.Vertices[ld.EndVertex]
	return math.Hypot(v2.X-v1.X, v2.Y-v1.Y)
}

// Bounds of all vertices referenced by linedefs
func (l *Level) Bounds() (xmin, ymin, xmax, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, line := range l.Linedefs {
		for _, vi := range [2]int{line.StartVertex, line.EndVertex} {
			v := l.Vertices[vi]
			xmin = math.Min(xmin, v.X)
			ymin = math.Min(ymin, v.Y)
			xmax = math.Max(xmax, v.X)
			ymax = math.Max(ymax, v.Y)
		}
	}
	return
}

// Fingerprint hashes everything the node builder looks at. Two levels with
// the same fingerprint build to the same nodes.
func (l *Level) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)
	num := func(v uint64) {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	flush := func() {
		_, _ = d.Write(buf)
		buf = buf[:0]
	}

	num(uint64(len(l.Vertices)))
	for _, v := range l.Vertices {
		num(math.Float64bits(v.X))
		num(math.Float64bits(v.Y))
		flush()
	}
	num(uint64(len(l.Linedefs)))
	for _, line := range l.Linedefs {
		num(uint64(line.StartVertex))
		num(uint64(line.EndVertex))
		num(uint64(line.FrontSdef))
		num(uint64(line.BackSdef))
		flush()
	}
	num(uint64(len(l.Sidedefs)))
	for _, sdef := range l.Sidedefs {
		num(uint64(sdef.Sector))
		num(math.Float64bits(sdef.XOffset))
		flush()
	}
	num(uint64(len(l.Sectors)))
	flush()
	return d.Sum64()
}
