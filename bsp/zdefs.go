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
// zdefs.go
package bsp

import (
	"github.com/vogonsorg/Doomsday-Engine-sub001/mylogger"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

var Log = mylogger.Log

// Tolerances. Map coordinates come in with fractional parts, and
// intersections add more, so comparisons against zero go through these.
const (
	// distance below which a point counts as lying on a partition
	DIST_EPSILON = 1.0 / 128.0

	// angle difference (in degrees) below which two wall tips coincide
	ANG_EPSILON = 1.0 / 1024.0

	// splits closer than this to an end of a half-edge are "iffy", they
	// leave a tiny piece behind
	IFFY_LEN = 4.0

	// partitions passing within this distance of a vertex are near misses
	NEAR_MISS_LEN = 4.0

	// superblock boxes are widened by this much when tested against a
	// partition
	MARGIN_LEN = IFFY_LEN * 1.5

	// intersections on a partition closer than this are merged
	CUT_MERGE_LEN = 0.2
)

const (
	// superblocks this small (on both axes) are never subdivided
	SUPER_LEAF_SIZE = 256

	// root superblock origin is aligned down to this
	SUPER_ALIGN = 8

	// root superblock sides are this many units times a power of two
	BLOCK_SIZE = 128
)

// ChildIsLeaf marks a child reference of a hardened node that names a
// subsector rather than another node
const ChildIsLeaf = 0x80000000

const (
	VERBOSE_SUMMARY  = 1
	VERBOSE_ANOMALY  = 2
	VERBOSE_PICKNODE = 3
)

const (
	DEFAULT_SPLIT_FACTOR     = 7
	DEFAULT_DIAGONAL_PENALTY = 25

	// records per arena page
	VERTEX_PAGE     = 1024
	HALFEDGE_PAGE   = 2048
	FACE_PAGE       = 512
	WALLTIP_PAGE    = 2048
	SUPERBLOCK_PAGE = 256
	NODE_PAGE       = 512
)

// Options tune the partitioner. The zero value is not useful, start from
// DefaultOptions.
type Options struct {
	// cost of splitting one half-edge, in units of 100
	SplitFactor int
	// flat cost added to partitions that are neither horizontal nor vertical
	DiagonalPenalty int
	// zone tag for build-time data, must not be purgable
	BuildTag zone.Tag
	// zone tag for the hardened map
	MapTag zone.Tag
	// verbosity at which geometry anomalies are logged one by one
	AnomalyVerbosity int
}

func DefaultOptions() Options {
	return Options{
		SplitFactor:      DEFAULT_SPLIT_FACTOR,
		DiagonalPenalty:  DEFAULT_DIAGONAL_PENALTY,
		BuildTag:         zone.TagBSPBuild,
		MapTag:           zone.TagMap,
		AnomalyVerbosity: VERBOSE_ANOMALY,
	}
}
