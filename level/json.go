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

// JSON interchange for levels, so that geometry can be fed to the node
// builder without a WAD loader. Layout:
//
//	{"name": "MAP01",
//	 "vertexes": [{"x": 0, "y": 0}, ...],
//	 "linedefs": [{"v1": 0, "v2": 1, "flags": 1, "front": 0, "back": -1}, ...],
//	 "sidedefs": [{"sector": 0, "xoffset": 0, "middle": "STARTAN3"}, ...],
//	 "sectors":  [{"floor": 0, "ceiling": 128, "light": 160}, ...]}
//
// Missing "front" or "back" means no sidedef on that side.

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// ReadJSON parses a level and validates its references
func ReadJSON(data []byte) (*Level, error) {
	l := &Level{}
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "name":
			l.Name = r.String()
		case "vertexes":
			for arr := r.Array(); arr.Next(); {
				l.Vertices = append(l.Vertices, readVertex(&r))
			}
		case "linedefs":
			for arr := r.Array(); arr.Next(); {
				l.Linedefs = append(l.Linedefs, readLinedef(&r))
			}
		case "sidedefs":
			for arr := r.Array(); arr.Next(); {
				l.Sidedefs = append(l.Sidedefs, readSidedef(&r))
			}
		case "sectors":
			for arr := r.Array(); arr.Next(); {
				l.Sectors = append(l.Sectors, readSector(&r))
			}
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return nil, errors.Wrap(err, "malformed level JSON")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func readVertex(r *jreader.Reader) Vertex {
	var v Vertex
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "x":
			v.X = r.Float64()
		case "y":
			v.Y = r.Float64()
		default:
			_ = r.SkipValue()
		}
	}
	return v
}

func readLinedef(r *jreader.Reader) Linedef {
	line := Linedef{FrontSdef: NoSidedef, BackSdef: NoSidedef}
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "v1":
			line.StartVertex = r.Int()
		case "v2":
			line.EndVertex = r.Int()
		case "flags":
			line.Flags = uint32(r.Int())
		case "action":
			line.Action = r.Int()
		case "tag":
			line.Tag = r.Int()
		case "front":
			if v, ok := r.IntOrNull(); ok {
				line.FrontSdef = v
			}
		case "back":
			if v, ok := r.IntOrNull(); ok {
				line.BackSdef = v
			}
		default:
			_ = r.SkipValue()
		}
	}
	return line
}

func readSidedef(r *jreader.Reader) Sidedef {
	var sdef Sidedef
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "sector":
			sdef.Sector = r.Int()
		case "xoffset":
			sdef.XOffset = r.Float64()
		case "yoffset":
			sdef.YOffset = r.Float64()
		case "upper":
			sdef.UpName = r.String()
		case "lower":
			sdef.LoName = r.String()
		case "middle":
			sdef.MidName = r.String()
		default:
			_ = r.SkipValue()
		}
	}
	return sdef
}

func readSector(r *jreader.Reader) Sector {
	var sec Sector
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "floor":
			sec.FloorHeight = r.Float64()
		case "ceiling":
			sec.CeilHeight = r.Float64()
		case "floorflat":
			sec.FloorName = r.String()
		case "ceilingflat":
			sec.CeilName = r.String()
		case "light":
			sec.LightLevel = r.Int()
		case "special":
			sec.Special = r.Int()
		case "tag":
			sec.Tag = r.Int()
		default:
			_ = r.SkipValue()
		}
	}
	return sec
}

// WriteJSON writes the level in the layout ReadJSON accepts
func (l *Level) WriteJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("name").String(l.Name)

	verts := obj.Name("vertexes").Array()
	for _, v := range l.Vertices {
		vobj := verts.Object()
		vobj.Name("x").Float64(v.X)
		vobj.Name("y").Float64(v.Y)
		vobj.End()
	}
	verts.End()

	lines := obj.Name("linedefs").Array()
	for _, line := range l.Linedefs {
		lobj := lines.Object()
		lobj.Name("v1").Int(line.StartVertex)
		lobj.Name("v2").Int(line.EndVertex)
		lobj.Name("flags").Int(int(line.Flags))
		if line.Action != 0 {
			lobj.Name("action").Int(line.Action)
		}
		if line.Tag != 0 {
			lobj.Name("tag").Int(line.Tag)
		}
		if line.FrontSdef != NoSidedef {
			lobj.Name("front").Int(line.FrontSdef)
		}
		if line.BackSdef != NoSidedef {
			lobj.Name("back").Int(line.BackSdef)
		}
		lobj.End()
	}
	lines.End()

	sides := obj.Name("sidedefs").Array()
	for _, sdef := range l.Sidedefs {
		sobj := sides.Object()
		sobj.Name("sector").Int(sdef.Sector)
		sobj.Name("xoffset").Float64(sdef.XOffset)
		sobj.Name("yoffset").Float64(sdef.YOffset)
		sobj.Name("upper").String(sdef.UpName)
		sobj.Name("lower").String(sdef.LoName)
		sobj.Name("middle").String(sdef.MidName)
		sobj.End()
	}
	sides.End()

	secs := obj.Name("sectors").Array()
	for _, sec := range l.Sectors {
		sobj := secs.Object()
		sobj.Name("floor").Float64(sec.FloorHeight)
		sobj.Name("ceiling").Float64(sec.CeilHeight)
		sobj.Name("floorflat").String(sec.FloorName)
		sobj.Name("ceilingflat").String(sec.CeilName)
		sobj.Name("light").Int(sec.LightLevel)
		if sec.Special != 0 {
			sobj.Name("special").Int(sec.Special)
		}
		if sec.Tag != 0 {
			sobj.Name("tag").Int(sec.Tag)
		}
		sobj.End()
	}
	secs.End()
}
