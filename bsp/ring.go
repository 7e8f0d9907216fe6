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
package bsp

// Implements ring buffer (a power of two sized queue) of half-edges. Not
// intended to be thread-safe or such, just when I need a fast queue. Unlike
// a fixed ring it grows when full, keeping what is queued in order.
// See https://www.snellman.net/blog/archive/2016-12-13-ring-buffers/

const MAX_RING_CAPACITY = uint32(1 << 30)

type ringQueue struct {
	read  uint32
	write uint32
	buf   []HalfEdgeRef // len is a power of two
}

// newRing rounds capacity up to a power of two
func newRing(capacity int) *ringQueue {
	if capacity < 2 {
		capacity = 2
	}
	return &ringQueue{buf: make([]HalfEdgeRef, RoundPOW2(capacity))}
}

func (r *ringQueue) mask(val uint32) uint32 {
	return val & uint32(len(r.buf)-1)
}

func (r *ringQueue) Enqueue(e HalfEdgeRef) {
	if r.Full() {
		r.grow()
	}
	r.buf[r.mask(r.write)] = e
	r.write++
}

// Dequeue must not be called on an empty ring
func (r *ringQueue) Dequeue() HalfEdgeRef {
	res := r.buf[r.mask(r.read)]
	r.read++
	return res
}

func (r *ringQueue) Empty() bool {
	return r.read == r.write
}

func (r *ringQueue) Size() uint32 {
	return r.write - r.read
}

func (r *ringQueue) Full() bool {
	return r.Size() == uint32(len(r.buf))
}

func (r *ringQueue) Reset() {
	r.write = r.read
}

func (r *ringQueue) grow() {
	capacity := uint32(len(r.buf)) * 2
	if capacity > MAX_RING_CAPACITY {
		Log.Panic("Exceeds maximum ring capacity: %d\n", capacity)
	}
	buf := make([]HalfEdgeRef, capacity)
	n := r.Size()
	for i := uint32(0); i < n; i++ {
		buf[i] = r.buf[r.mask(r.read+i)]
	}
	r.buf = buf
	r.read = 0
	r.write = n
}
