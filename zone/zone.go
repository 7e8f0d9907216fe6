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

// Package zone is a tagged memory pool in the tradition of Doom's Z_Malloc.
// Every allocation is a block in one circular list that covers the pool
// without gaps; blocks carry a purge tag so whole categories can be freed in
// one walk, and blocks tagged at or above the purge threshold are reclaimed
// automatically when an allocation would otherwise fail.
package zone

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"

	"github.com/vogonsorg/Doomsday-Engine-sub001/mylogger"
)

const (
	// HeaderSize is how many bytes of the pool every block spends on its
	// header, free or not
	HeaderSize = 32
	Alignment  = 8

	zoneID = 0x1d4a11
	freeID = 0
)

var Log = mylogger.Log

// Handle identifies a live allocation. Handles are never reused, so a handle
// that outlived its block is recognized as stale instead of silently aliasing
// someone else's memory.
type Handle uint64

const NoHandle Handle = 0

// Allocator is what the rest of the program needs from a zone. Both *Zone
// and *SyncZone implement it.
type Allocator interface {
	Malloc(size int, tag Tag, owner *Handle) (Handle, error)
	Calloc(size int, tag Tag, owner *Handle) (Handle, error)
	Realloc(h Handle, size int, tag Tag) (Handle, error)
	Recalloc(h Handle, size int, tag Tag) (Handle, error)
	Free(h Handle)
	FreeTags(low, high Tag)
	ChangeTag(h Handle, tag Tag) error
	Owns(h Handle) bool
	Bytes(h Handle) []byte
}

type Config struct {
	// Size of the pool in bytes
	Size int
	// A free remainder smaller than this stays attached to the block that
	// was carved, instead of becoming a fragment of its own
	MinFragment int
	// Tags at or above this one can be purged to satisfy allocations
	PurgeThreshold Tag
	// Exhaustion panics with *ExhaustedError instead of returning it
	PanicOnExhaustion bool
}

func DefaultConfig() Config {
	return Config{
		Size:              8 << 20,
		MinFragment:       64,
		PurgeThreshold:    TagPurgeLevel,
		PanicOnExhaustion: true,
	}
}

type memblock struct {
	offset  int // of the header within the pool
	size    int // including header
	request int // bytes the user asked for
	owner   *Handle
	tag     Tag
	id      uint32
	handle  Handle
	next    *memblock
	prev    *memblock
}

type Zone struct {
	config Config
	memory []byte
	// start / end sentinel, never merged and never handed out
	blocklist  memblock
	rover      *memblock
	handles    *swiss.Map[Handle, *memblock]
	nextHandle Handle
}

var _ Allocator = (*Zone)(nil)

// New creates a zone with one free block spanning the whole pool
func New(config Config) (*Zone, error) {
	if config.MinFragment < HeaderSize {
		config.MinFragment = HeaderSize
	}
	config.Size = alignDown(config.Size)
	if config.Size < HeaderSize {
		return nil, errors.Wrapf(ErrInvalidSize, "zone of %d bytes cannot hold a single block", config.Size)
	}
	if config.PurgeThreshold <= TagStatic {
		return nil, errors.Wrapf(ErrInvalidTag, "purge threshold %d would purge static blocks", config.PurgeThreshold)
	}

	z := &Zone{
		config:  config,
		memory:  make([]byte, config.Size),
		handles: swiss.NewMap[Handle, *memblock](64),
	}
	z.blocklist.tag = TagStatic
	z.blocklist.offset = -1

	block := &memblock{
		offset: 0,
		size:   config.Size,
		tag:    TagFree,
		prev:   &z.blocklist,
		next:   &z.blocklist,
	}
	z.blocklist.next = block
	z.blocklist.prev = block
	z.rover = block
	z.writeHeader(block)
	return z, nil
}

// MustNew is New for configurations known to be valid
func MustNew(config Config) *Zone {
	z, err := New(config)
	if err != nil {
		panic(err)
	}
	return z
}

func (z *Zone) Config() Config {
	return z.config
}

// Size is the total number of bytes under management, headers included
func (z *Zone) Size() int {
	return len(z.memory)
}

func (z *Zone) Owns(h Handle) bool {
	if h == NoHandle {
		return false
	}
	_, ok := z.handles.Get(h)
	return ok
}

// TagOf returns the tag of a live block, TagFree if the handle is not live
func (z *Zone) TagOf(h Handle) Tag {
	block, ok := z.handles.Get(h)
	if !ok {
		return TagFree
	}
	return block.tag
}

// Bytes returns the user region of a live block, exactly as long as the
// size it was allocated (or last reallocated) with
func (z *Zone) Bytes(h Handle) []byte {
	block := z.lookup(h, "Bytes")
	start := block.offset + HeaderSize
	return z.memory[start : start+block.request : start+block.request]
}

func (z *Zone) lookup(h Handle, op string) *memblock {
	block, ok := z.handles.Get(h)
	if !ok {
		panic(errors.AssertionFailedf("zone: %s of unknown or stale handle %d", op, h))
	}
	z.checkID(block, op)
	return block
}

// checkID compares the sentinel stored in the pool against the block record.
// A mismatch means someone wrote past the end of the block preceding this
// one, or kept using memory after freeing it.
func (z *Zone) checkID(block *memblock, op string) {
	id := binary.LittleEndian.Uint32(z.memory[block.offset:])
	if block.id != zoneID || id != zoneID {
		panic(errors.AssertionFailedf("zone: %s: block at offset %d has no zone id (header %#x)",
			op, block.offset, id))
	}
}

func (z *Zone) writeHeader(block *memblock) {
	hdr := z.memory[block.offset : block.offset+HeaderSize]
	binary.LittleEndian.PutUint32(hdr[0:], block.id)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(block.tag))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(block.size))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(block.handle))
}

func (z *Zone) newHandle() Handle {
	z.nextHandle++
	return z.nextHandle
}

func (z *Zone) purgable(tag Tag) bool {
	return tag >= z.config.PurgeThreshold
}

// the rover must never rest on the sentinel
func (z *Zone) setRover(block *memblock) {
	if block == &z.blocklist {
		block = z.blocklist.next
	}
	z.rover = block
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

func alignDown(n int) int {
	return n &^ (Alignment - 1)
}
