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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
)

func twoRooms() *Level {
	b := NewBuilder("TWOROOMS")
	s0 := b.Sector(0, 128)
	s1 := b.Sector(16, 112)
	b.Line(0, 0, 0, 64, s0, -1)
	b.Line(0, 64, 64, 64, s0, -1)
	b.Line(64, 0, 0, 0, s0, -1)
	b.Line(64, 64, 64, 0, s0, s1)
	b.Line(64, 64, 128, 64, s1, -1)
	b.Line(128, 64, 128, 0, s1, -1)
	b.Line(128, 0, 64, 0, s1, -1)
	return b.Level()
}

func TestBuilderSharesVertices(t *testing.T) {
	l := twoRooms()
	require.Len(t, l.Vertices, 6)
	require.Len(t, l.Linedefs, 7)
	require.Len(t, l.Sidedefs, 8)
	require.NoError(t, l.Validate())
	require.Equal(t, uint32(LF_TWOSIDED), l.Linedefs[3].Flags)
	require.Equal(t, 0, l.SideSector(3, SideFront))
	require.Equal(t, 1, l.SideSector(3, SideBack))
	require.Equal(t, -1, l.SideSector(0, SideBack))
	require.False(t, l.IsSelfReferencing(3))
}

func TestRoomFacesInside(t *testing.T) {
	b := NewBuilder("BOX")
	s := b.Sector(0, 128)
	// counter-clockwise input
	b.Room(s, Point{0, 0}, Point{64, 0}, Point{64, 64}, Point{0, 64})
	l := b.Level()
	require.Len(t, l.Linedefs, 4)
	// walked clockwise: the first wall runs along the top towards +x, so
	// the inside (y < 64) is on its right
	first := l.Linedefs[0]
	v1, v2 := l.Vertices[first.StartVertex], l.Vertices[first.EndVertex]
	require.Equal(t, Vertex{0, 64}, v1)
	require.Equal(t, Vertex{64, 64}, v2)
	require.Equal(t, 64.0, l.LineLength(0))

	xmin, ymin, xmax, ymax := l.Bounds()
	require.Equal(t, [4]float64{0, 0, 64, 64}, [4]float64{xmin, ymin, xmax, ymax})
}

func TestValidateCatchesBadReferences(t *testing.T) {
	l := twoRooms()
	l.Linedefs[2].EndVertex = 99
	require.True(t, errors.Is(l.Validate(), ErrBadReference))

	l = twoRooms()
	l.Linedefs[0].BackSdef = 42
	require.True(t, errors.Is(l.Validate(), ErrBadReference))

	l = twoRooms()
	l.Sidedefs[0].Sector = 7
	require.True(t, errors.Is(l.Validate(), ErrBadReference))
}

func TestJSONRoundTrip(t *testing.T) {
	l := twoRooms()
	l.Linedefs[1].Action = 11
	l.Sectors[1].Special = 9

	w := jwriter.NewWriter()
	l.WriteJSON(&w)
	require.NoError(t, w.Error())

	back, err := ReadJSON(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, l, back)
	require.Equal(t, l.Fingerprint(), back.Fingerprint())
}

func TestReadJSONDefaultsAndErrors(t *testing.T) {
	data := []byte(`{"name": "M", "extra": [1, 2, {"x": 3}],
		"vertexes": [{"x": 0, "y": 0}, {"x": 0, "y": 8.5}],
		"linedefs": [{"v1": 0, "v2": 1, "front": 0, "back": null}],
		"sidedefs": [{"sector": 0}],
		"sectors": [{"floor": 0, "ceiling": 64}]}`)
	l, err := ReadJSON(data)
	require.NoError(t, err)
	require.Equal(t, 8.5, l.Vertices[1].Y)
	require.Equal(t, NoSidedef, l.Linedefs[0].BackSdef)

	_, err = ReadJSON([]byte(`{"vertexes": [{"x": "oops"}]}`))
	require.Error(t, err)

	_, err = ReadJSON([]byte(`{"linedefs": [{"v1": 0, "v2": 1}]}`))
	require.True(t, errors.Is(err, ErrBadReference))
}

func TestFingerprintSeesGeometry(t *testing.T) {
	a := twoRooms()
	b := twoRooms()
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Vertices[2].X += 1.0 / 64
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
