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
	"math"
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// View reinterprets the user region of a block as n records of type T. The
// view goes stale if the block is freed or moved by Realloc.
func View[T any](alloc Allocator, h Handle, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	raw := alloc.Bytes(h)
	if need := n * int(unsafe.Sizeof(zero)); need > len(raw) {
		panic(errors.AssertionFailedf("zone: view of %d records needs %d bytes, block has %d", n, need, len(raw)))
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n)
}

// AllocSlice allocates a zeroed block sized for exactly n records of type T
// and returns it as a slice, with the handle also written to owner
func AllocSlice[T any](alloc Allocator, n int, tag Tag, owner *Handle) ([]T, error) {
	var zero T
	if !pointerFree(reflect.TypeOf(zero)) {
		panic(errors.AssertionFailedf("zone: slice of %T would hide pointers from the garbage collector", zero))
	}
	if owner == nil {
		// without an owner slot the caller has no way to free it
		return nil, errors.Wrap(ErrOwnerRequired, "AllocSlice")
	}
	size, err := recordBytes[T](n)
	if err != nil {
		return nil, err
	}
	h, err := alloc.Calloc(size, tag, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "slice of %d records", n)
	}
	return View[T](alloc, h, n), nil
}

// recordBytes is the size of n records of type T, refusing counts whose
// size does not fit in an int
func recordBytes[T any](n int) (int, error) {
	var zero T
	rec := int(unsafe.Sizeof(zero))
	if n < 0 || (rec > 0 && n > math.MaxInt/rec) {
		return 0, errors.Wrapf(ErrInvalidSize, "%d records of %d bytes", n, rec)
	}
	return n * rec, nil
}
