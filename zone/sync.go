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
	"sync"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// SyncZone serializes every call into the zone it wraps. Zone operations
// rewrite neighbouring blocks and owner slots, so nothing finer grained than
// one lock per call is safe. Owner slots are only written while the lock is
// held; reading them from another goroutine still needs the caller's own
// synchronization.
type SyncZone struct {
	mu sync.Mutex
	z  *Zone
}

var _ Allocator = (*SyncZone)(nil)

func NewSync(z *Zone) *SyncZone {
	return &SyncZone{z: z}
}

func (s *SyncZone) Malloc(size int, tag Tag, owner *Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Malloc(size, tag, owner)
}

func (s *SyncZone) Calloc(size int, tag Tag, owner *Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Calloc(size, tag, owner)
}

func (s *SyncZone) Realloc(h Handle, size int, tag Tag) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Realloc(h, size, tag)
}

func (s *SyncZone) Recalloc(h Handle, size int, tag Tag) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Recalloc(h, size, tag)
}

func (s *SyncZone) Free(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.z.Free(h)
}

func (s *SyncZone) FreeTags(low, high Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.z.FreeTags(low, high)
}

func (s *SyncZone) ChangeTag(h Handle, tag Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.ChangeTag(h, tag)
}

func (s *SyncZone) Owns(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Owns(h)
}

func (s *SyncZone) Bytes(h Handle) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Bytes(h)
}

func (s *SyncZone) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Validate()
}

func (s *SyncZone) Stats() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.z.Stats()
}

func (s *SyncZone) WriteJSON(writer *jwriter.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.z.WriteJSON(writer)
}
