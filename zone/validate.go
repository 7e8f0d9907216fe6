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
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Validate walks the whole block list and reports the first inconsistency:
// gaps or overlaps between blocks, broken back links, uncoalesced free
// neighbours, damaged headers, a rover outside the list, or handles without
// blocks.
func (z *Zone) Validate() error {
	expected := 0
	used := 0
	roverFound := false
	prevFree := false
	prev := &z.blocklist

	for block := z.blocklist.next; block != &z.blocklist; block = block.next {
		if block.prev != prev {
			return errors.Errorf("block at offset %d: back link does not match previous block", block.offset)
		}
		if block.offset != expected {
			return errors.Errorf("block at offset %d: expected to start at %d", block.offset, expected)
		}
		if block.size < HeaderSize || block.size%Alignment != 0 {
			return errors.Errorf("block at offset %d: bad size %d", block.offset, block.size)
		}
		if block == z.rover {
			roverFound = true
		}

		if block.tag == TagFree {
			if prevFree {
				return errors.Errorf("block at offset %d: two consecutive free blocks", block.offset)
			}
			if block.owner != nil || block.handle != NoHandle {
				return errors.Errorf("block at offset %d: free block still has an owner", block.offset)
			}
			prevFree = true
		} else {
			prevFree = false
			used++
			if id := binary.LittleEndian.Uint32(z.memory[block.offset:]); id != zoneID || block.id != zoneID {
				return errors.Errorf("block at offset %d: header id %#x, zone id expected", block.offset, id)
			}
			if block.request+HeaderSize > block.size {
				return errors.Errorf("block at offset %d: request %d does not fit size %d",
					block.offset, block.request, block.size)
			}
			if got, ok := z.handles.Get(block.handle); !ok || got != block {
				return errors.Errorf("block at offset %d: handle %d is not registered", block.offset, block.handle)
			}
			if block.owner != nil && *block.owner != block.handle {
				return errors.Errorf("block at offset %d: owner slot holds %d instead of %d",
					block.offset, *block.owner, block.handle)
			}
		}

		expected += block.size
		prev = block
	}

	if z.blocklist.prev != prev {
		return errors.New("block list is not circular")
	}
	if expected != len(z.memory) {
		return errors.Errorf("blocks cover %d bytes of a %d byte zone", expected, len(z.memory))
	}
	if !roverFound {
		return errors.New("rover does not point into the block list")
	}
	if count := z.handles.Count(); count != used {
		return errors.Errorf("%d handles registered for %d allocated blocks", count, used)
	}
	return nil
}
