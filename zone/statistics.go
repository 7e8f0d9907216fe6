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

import (
	"github.com/dustin/go-humanize"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/slices"
)

type TagUsage struct {
	Tag    Tag
	Blocks int
	Bytes  int
}

// Statistics is a snapshot of the zone. UsedBytes and FreeBytes exclude
// headers, so UsedBytes + FreeBytes + HeaderBytes == TotalBytes always.
type Statistics struct {
	TotalBytes    int
	UsedBytes     int
	FreeBytes     int
	HeaderBytes   int
	PurgableBytes int
	Allocations   int
	FreeRanges    int
	LargestFree   int
	ByTag         []TagUsage // sorted by tag
}

func (s *Statistics) Clear() {
	*s = Statistics{}
}

func (s *Statistics) addBlock(block *memblock, purgable bool) {
	payload := block.size - HeaderSize
	s.HeaderBytes += HeaderSize
	if block.tag == TagFree {
		s.FreeBytes += payload
		s.FreeRanges++
		if payload > s.LargestFree {
			s.LargestFree = payload
		}
		return
	}
	s.UsedBytes += payload
	s.Allocations++
	if purgable {
		s.PurgableBytes += payload
	}
	i, found := slices.BinarySearchFunc(s.ByTag, block.tag, func(u TagUsage, t Tag) int {
		return int(u.Tag) - int(t)
	})
	if !found {
		s.ByTag = slices.Insert(s.ByTag, i, TagUsage{Tag: block.tag})
	}
	s.ByTag[i].Blocks++
	s.ByTag[i].Bytes += payload
}

func (z *Zone) Stats() Statistics {
	var s Statistics
	s.TotalBytes = len(z.memory)
	for block := z.blocklist.next; block != &z.blocklist; block = block.next {
		s.addBlock(block, z.purgable(block.tag))
	}
	return s
}

// WriteJSON writes a detailed map of the zone: summary numbers followed by
// every block in address order
func (z *Zone) WriteJSON(writer *jwriter.Writer) {
	s := z.Stats()
	obj := writer.Object()
	defer obj.End()

	obj.Name("TotalBytes").Int(s.TotalBytes)
	obj.Name("UsedBytes").Int(s.UsedBytes)
	obj.Name("UnusedBytes").Int(s.FreeBytes)
	obj.Name("Allocations").Int(s.Allocations)
	obj.Name("UnusedRanges").Int(s.FreeRanges)

	tags := obj.Name("Tags").Array()
	for _, usage := range s.ByTag {
		tagObj := tags.Object()
		tagObj.Name("Tag").String(usage.Tag.String())
		tagObj.Name("Blocks").Int(usage.Blocks)
		tagObj.Name("Bytes").Int(usage.Bytes)
		tagObj.End()
	}
	tags.End()

	blocks := obj.Name("Blocks").Array()
	defer blocks.End()
	for block := z.blocklist.next; block != &z.blocklist; block = block.next {
		blockObj := blocks.Object()
		blockObj.Name("Offset").Int(block.offset)
		blockObj.Name("Size").Int(block.size)
		blockObj.Name("Type").String(block.tag.String())
		if block.tag != TagFree {
			blockObj.Name("Requested").Int(block.request)
			blockObj.Name("Owned").Bool(block.owner != nil)
		}
		blockObj.End()
	}
}

// LogStats prints a one line summary, and the usage per tag at verbosity 1
func (z *Zone) LogStats() {
	s := z.Stats()
	Log.Printf("Zone: %s used in %d blocks, %s free in %d ranges (largest %s), %s purgable\n",
		humanize.IBytes(uint64(s.UsedBytes)), s.Allocations,
		humanize.IBytes(uint64(s.FreeBytes)), s.FreeRanges,
		humanize.IBytes(uint64(s.LargestFree)), humanize.IBytes(uint64(s.PurgableBytes)))
	for _, usage := range s.ByTag {
		Log.Verbose(1, "Zone:   %-10s %6d blocks %10s\n", usage.Tag,
			usage.Blocks, humanize.IBytes(uint64(usage.Bytes)))
	}
}
