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
package zone

import "strconv"

// Tag is the purge category of a block. Tag values are a contract shared by
// every subsystem allocating from a zone: tags below the zone's purge
// threshold are never reclaimed behind the owner's back, tags at or above it
// may vanish whenever an allocation needs the space.
type Tag int32

const (
	TagFree       Tag = 0 // block is unused
	TagStatic     Tag = 1 // lives until explicitly freed
	TagAppStatic  Tag = 2
	TagGameStatic Tag = 40
	TagMap        Tag = 50 // runtime map data, freed when the map unloads
	TagMapStatic  Tag = 52
	TagBSPBuild   Tag = 53 // node builder scratch data
	TagPurgeLevel Tag = 100
	TagCache      Tag = 101
)

func (t Tag) String() string {
	switch t {
	case TagFree:
		return "free"
	case TagStatic:
		return "static"
	case TagAppStatic:
		return "appstatic"
	case TagGameStatic:
		return "gamestatic"
	case TagMap:
		return "map"
	case TagMapStatic:
		return "mapstatic"
	case TagBSPBuild:
		return "bspbuild"
	case TagPurgeLevel:
		return "purgelevel"
	case TagCache:
		return "cache"
	}
	return "tag" + strconv.Itoa(int(t))
}
