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
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrExhausted     = errors.New("zone exhausted")
	ErrOwnerRequired = errors.New("an owner is required for purgable blocks")
	ErrInvalidSize   = errors.New("invalid allocation size")
	ErrInvalidTag    = errors.New("invalid tag")
)

// ExhaustedError reports an allocation that could not be satisfied even after
// purging. It is returned, or panicked with when the zone is configured that
// way.
type ExhaustedError struct {
	Size int
	Tag  Tag
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("zone: failed on allocation of %d bytes with tag %s", e.Size, e.Tag)
}

func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// AsExhausted recovers the exhaustion details from a panic value or an error
// chain
func AsExhausted(v any) (*ExhaustedError, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted, true
	}
	return nil, false
}
