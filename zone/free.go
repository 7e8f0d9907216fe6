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
	"github.com/cockroachdb/errors"
)

// Free releases the block. Freeing NoHandle does nothing, freeing a stale
// handle is a programming error and panics.
func (z *Zone) Free(h Handle) {
	if h == NoHandle {
		return
	}
	z.release(z.lookup(h, "Free"), true)
}

// FreeTags frees every allocated block whose tag lies in [low, high], in a
// single walk over the block list
func (z *Zone) FreeTags(low, high Tag) {
	freed := 0
	for block := z.blocklist.next; block != &z.blocklist; block = block.next {
		if block.tag == TagFree || block.tag < low || block.tag > high {
			continue
		}
		z.checkID(block, "FreeTags")
		// continue from the merged block, its successor was not visited yet
		block = z.release(block, true)
		freed++
	}
	Log.Verbose(2, "Zone: freed %d blocks tagged %s..%s\n", freed, low, high)
}

// ChangeTag reclassifies a live block, typically to demote it to a purgable
// cache entry once its owner no longer needs it to stay around
func (z *Zone) ChangeTag(h Handle, tag Tag) error {
	block := z.lookup(h, "ChangeTag")
	if tag == TagFree {
		return errors.Wrapf(ErrInvalidTag, "ChangeTag of handle %d to %s", h, tag)
	}
	if z.purgable(tag) && block.owner == nil {
		return errors.Wrapf(ErrOwnerRequired, "ChangeTag of handle %d to %s", h, tag)
	}
	block.tag = tag
	z.writeHeader(block)
	return nil
}

// release marks the block free, coalesces it with free neighbours on both
// sides and returns the resulting free block
func (z *Zone) release(block *memblock, clearOwner bool) *memblock {
	if clearOwner && block.owner != nil {
		*block.owner = NoHandle
	}
	z.handles.Delete(block.handle)
	block.tag = TagFree
	block.owner = nil
	block.handle = NoHandle
	block.request = 0
	block.id = freeID

	if other := block.prev; other != &z.blocklist && other.tag == TagFree {
		other.size += block.size
		other.next = block.next
		other.next.prev = other
		if z.rover == block {
			z.rover = other
		}
		block = other
	}

	if other := block.next; other != &z.blocklist && other.tag == TagFree {
		block.size += other.size
		block.next = other.next
		block.next.prev = block
		if z.rover == other {
			z.rover = block
		}
	}

	z.writeHeader(block)
	return block
}
