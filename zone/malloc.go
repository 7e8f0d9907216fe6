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
	"github.com/dustin/go-humanize"
)

// Malloc allocates size bytes tagged with tag. If owner is not nil, it
// receives the handle, and is reset to NoHandle whenever the block is freed,
// purged, or moved elsewhere by Realloc (in which case it receives the new
// handle). Purgable tags require an owner, otherwise nobody could tell the
// block was taken away.
func (z *Zone) Malloc(size int, tag Tag, owner *Handle) (Handle, error) {
	if size < 0 {
		return NoHandle, errors.Wrapf(ErrInvalidSize, "Malloc of %d bytes", size)
	}
	if tag == TagFree {
		return NoHandle, errors.Wrapf(ErrInvalidTag, "Malloc of %d bytes with tag %s", size, tag)
	}
	if z.purgable(tag) && owner == nil {
		return NoHandle, errors.Wrapf(ErrOwnerRequired, "Malloc of %d bytes with tag %s", size, tag)
	}

	var block *memblock
	if z.fits(size) {
		need := alignUp(size + HeaderSize)
		if block = z.findFit(need); block == nil {
			block = z.purgeFor(need)
		}
	}
	if block == nil {
		return NoHandle, z.exhausted(size, tag)
	}
	need := alignUp(size + HeaderSize)

	z.carve(block, need)
	block.tag = tag
	block.owner = owner
	block.request = size
	block.id = zoneID
	block.handle = z.newHandle()
	z.writeHeader(block)
	z.handles.Put(block.handle, block)
	if owner != nil {
		*owner = block.handle
	}

	// next allocation will start looking here
	z.setRover(block.next)
	return block.handle, nil
}

// Calloc is Malloc with the user region zeroed
func (z *Zone) Calloc(size int, tag Tag, owner *Handle) (Handle, error) {
	h, err := z.Malloc(size, tag, owner)
	if err != nil {
		return NoHandle, err
	}
	clear(z.Bytes(h))
	return h, nil
}

// CanAllocate tells whether a Malloc of size bytes would succeed right now,
// counting purgable blocks as available
func (z *Zone) CanAllocate(size int) bool {
	if size < 0 || !z.fits(size) {
		return false
	}
	need := alignUp(size + HeaderSize)
	if z.findFit(need) != nil {
		return true
	}
	first, _ := z.findPurgeRun(need)
	return first != nil
}

// fits tells whether a block of size bytes could exist in the pool at all,
// before alignment can overflow
func (z *Zone) fits(size int) bool {
	return size <= len(z.memory)-HeaderSize
}

func (z *Zone) exhausted(size int, tag Tag) error {
	err := &ExhaustedError{Size: size, Tag: tag}
	if z.config.PanicOnExhaustion {
		panic(err)
	}
	return err
}

// first fit, starting from the rover and wrapping around the list once
func (z *Zone) findFit(need int) *memblock {
	start := z.rover
	block := start
	for {
		if block != &z.blocklist && block.tag == TagFree && block.size >= need {
			return block
		}
		block = block.next
		if block == start {
			return nil
		}
	}
}

func (z *Zone) reclaimable(block *memblock) bool {
	return block != &z.blocklist && (block.tag == TagFree || z.purgable(block.tag))
}

// findPurgeRun finds the first run of physically contiguous blocks, each one
// free or purgable, whose sizes add up to need. Runs never cross the
// sentinel since the pool does not wrap around.
func (z *Zone) findPurgeRun(need int) (*memblock, *memblock) {
	start := z.rover
	block := start
	for {
		if z.reclaimable(block) {
			total := 0
			for last := block; z.reclaimable(last); last = last.next {
				total += last.size
				if total >= need {
					return block, last
				}
			}
		}
		block = block.next
		if block == start {
			return nil, nil
		}
	}
}

// purgeFor frees a run of purgable blocks and returns the free block that
// now covers it, or nil if there is no such run
func (z *Zone) purgeFor(need int) *memblock {
	first, last := z.findPurgeRun(need)
	if first == nil {
		return nil
	}

	victims := make([]*memblock, 0, 8)
	for block := first; ; block = block.next {
		if block.tag != TagFree {
			victims = append(victims, block)
		}
		if block == last {
			break
		}
	}
	runStart := first.offset
	purged := 0
	var merged *memblock
	for _, victim := range victims {
		purged += victim.size
		merged = z.release(victim, true)
	}
	if merged == nil {
		// run consisted of free blocks only, which cannot happen since
		// adjacent free blocks are always merged and findFit failed
		merged = first
	}
	for merged.offset > runStart {
		merged = merged.prev
	}
	Log.Verbose(2, "Zone: purged %d blocks (%s) for a request of %s\n",
		len(victims), humanize.IBytes(uint64(purged)), humanize.IBytes(uint64(need)))
	return merged
}

// carve gives need bytes from the front of a free block to the caller and
// leaves the remainder as a new free fragment, unless the remainder is too
// small to bother with
func (z *Zone) carve(block *memblock, need int) {
	extra := block.size - need
	if extra <= z.config.MinFragment {
		return
	}
	frag := &memblock{
		offset: block.offset + need,
		size:   extra,
		tag:    TagFree,
		prev:   block,
		next:   block.next,
	}
	block.next.prev = frag
	block.next = frag
	block.size = need
	z.writeHeader(frag)
}
