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

// Realloc resizes a block, keeping its tag, owner and contents (up to the
// smaller of the two sizes). The block stays where it is when it shrinks or
// when the block after it is free and large enough; otherwise it is moved,
// and the returned handle (also written to the owner slot) replaces the old
// one. Realloc of NoHandle is Malloc with the given tag and no owner, the tag
// is ignored otherwise.
func (z *Zone) Realloc(h Handle, size int, tag Tag) (Handle, error) {
	if h == NoHandle {
		return z.Malloc(size, tag, nil)
	}
	if size < 0 {
		return NoHandle, errors.Wrapf(ErrInvalidSize, "Realloc of handle %d to %d bytes", h, size)
	}
	block := z.lookup(h, "Realloc")
	if !z.fits(size) {
		return NoHandle, z.exhausted(size, block.tag)
	}
	need := alignUp(size + HeaderSize)

	if need <= block.size {
		block.request = size
		z.shrink(block, need)
		return h, nil
	}

	if next := block.next; next != &z.blocklist && next.tag == TagFree &&
		block.size+next.size >= need {
		block.size += next.size
		block.next = next.next
		block.next.prev = block
		if z.rover == next {
			z.rover = block
		}
		block.request = size
		z.shrink(block, need)
		z.writeHeader(block)
		return h, nil
	}

	// has to move; make sure the purge pass cannot take the block we are
	// about to copy from
	oldTag, owner, oldSize := block.tag, block.owner, block.request
	block.tag = TagStatic
	moved := false
	defer func() {
		// also runs when Malloc panics on exhaustion
		if !moved {
			block.tag = oldTag
		}
	}()
	nh, err := z.Malloc(size, TagStatic, nil)
	if err != nil {
		return NoHandle, err
	}
	moved = true
	copy(z.Bytes(nh), z.memory[block.offset+HeaderSize:block.offset+HeaderSize+oldSize])

	dst, _ := z.handles.Get(nh)
	dst.tag = oldTag
	dst.owner = owner
	z.writeHeader(dst)

	z.release(block, false)
	if owner != nil {
		*owner = nh
	}
	return nh, nil
}

// Recalloc is Realloc that zeroes whatever the block gained
func (z *Zone) Recalloc(h Handle, size int, tag Tag) (Handle, error) {
	oldSize := 0
	if h != NoHandle {
		oldSize = len(z.Bytes(h))
	}
	nh, err := z.Realloc(h, size, tag)
	if err != nil {
		return NoHandle, err
	}
	if size > oldSize {
		clear(z.Bytes(nh)[oldSize:])
	}
	return nh, nil
}

// shrink cuts the tail of an allocated block off into a free fragment, if
// it is worth it, and lets it merge with whatever free space follows
func (z *Zone) shrink(block *memblock, need int) {
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
	z.writeHeader(block)

	if other := frag.next; other != &z.blocklist && other.tag == TagFree {
		frag.size += other.size
		frag.next = other.next
		frag.next.prev = frag
		if z.rover == other {
			z.rover = frag
		}
	}
	z.writeHeader(frag)
}
