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
	"math/bits"
	"reflect"

	"github.com/cockroachdb/errors"
)

const DEFAULT_ARENA_PAGE_SIZE = 1024

// Arena is an append-only array of records stored in zone pages. Records
// are addressed by index and never move once appended, so indices (and even
// pointers returned by At) stay valid until the arena is released. The GC
// never scans the records, which is the whole point: a node builder creates
// hundreds of thousands of them and they all die at once.
//
// T must not contain pointers, slices, strings, maps, interfaces or
// channels; zone memory is invisible to the garbage collector.
type Arena[T any] struct {
	alloc     Allocator
	tag       Tag
	pageShift uint
	pageMask  int
	pages     []*arenaPage[T]
	count     int
}

type arenaPage[T any] struct {
	// owner slot of the zone block, NoHandle once the page was freed
	handle Handle
	items  []T
}

// NewArena creates an arena whose pages hold perPage records (rounded up to
// a power of two) and are allocated with tag. Purgable tags are refused:
// records vanishing under the arena's feet would be silent corruption.
func NewArena[T any](alloc Allocator, tag Tag, perPage int) *Arena[T] {
	var zero T
	if !pointerFree(reflect.TypeOf(zero)) {
		panic(errors.AssertionFailedf("zone: arena of %T would hide pointers from the garbage collector", zero))
	}
	if tag >= TagPurgeLevel || tag == TagFree {
		panic(errors.AssertionFailedf("zone: arena pages cannot be tagged %s", tag))
	}
	if perPage < 1 {
		perPage = DEFAULT_ARENA_PAGE_SIZE
	}
	shift := uint(bits.Len(uint(perPage - 1)))
	return &Arena[T]{
		alloc:     alloc,
		tag:       tag,
		pageShift: shift,
		pageMask:  1<<shift - 1,
	}
}

func (a *Arena[T]) Len() int {
	return a.count
}

// Append stores a copy of v and returns its index
func (a *Arena[T]) Append(v T) (int32, error) {
	page := a.count >> a.pageShift
	if page == len(a.pages) {
		if err := a.grow(); err != nil {
			return -1, err
		}
	}
	idx := a.count
	a.pages[page].items[idx&a.pageMask] = v
	a.count++
	return int32(idx), nil
}

// MustAppend is Append for callers that treat running out of zone memory as
// fatal for the whole operation; the error is panicked with, and can be
// recovered as *ExhaustedError
func (a *Arena[T]) MustAppend(v T) int32 {
	idx, err := a.Append(v)
	if err != nil {
		panic(err)
	}
	return idx
}

// At returns the record at idx. The pointer stays valid until Release.
func (a *Arena[T]) At(idx int32) *T {
	i := int(idx)
	return &a.pages[i>>a.pageShift].items[i&a.pageMask]
}

// Valid reports whether every page is still allocated. Pages disappear
// behind the arena's back only if someone frees their tag range.
func (a *Arena[T]) Valid() bool {
	for _, page := range a.pages {
		if page.handle == NoHandle {
			return false
		}
	}
	return true
}

// Release frees all pages. The arena is empty and usable afterwards.
func (a *Arena[T]) Release() {
	for _, page := range a.pages {
		if page.handle != NoHandle {
			a.alloc.Free(page.handle)
		}
	}
	a.pages = nil
	a.count = 0
}

func (a *Arena[T]) grow() error {
	perPage := a.pageMask + 1
	page := &arenaPage[T]{}
	size, err := recordBytes[T](perPage)
	if err != nil {
		return err
	}
	_, err = a.alloc.Calloc(size, a.tag, &page.handle)
	if err != nil {
		return errors.Wrapf(err, "arena page of %d records", perPage)
	}
	page.items = View[T](a.alloc, page.handle, perPage)
	a.pages = append(a.pages, page)
	return nil
}

func pointerFree(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}
