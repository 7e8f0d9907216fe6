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
package main

import (
	"github.com/vogonsorg/Doomsday-Engine-sub001/bsp"
	"github.com/vogonsorg/Doomsday-Engine-sub001/mylogger"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

const VERSION = "0.75a"

var Log = mylogger.Log

/*
-n Node builder parameters.
	f= Tuning factor (seg split cost)
		7 - default seg split cost
	d= Penalty for partitions that are neither horizontal nor vertical
		25 - default

-d Deterministic check: build every level twice and compare the results

-z= Zone size in KiB (default 8192)

-v Add verbosity to text output. Use multiple times for increased verbosity.

-o <file> Write hardened maps as JSON
*/

type ProgramConfig struct {
	InputFileNames  []string
	OutputFileName  string
	VerbosityLevel  int
	Deterministic   bool
	ZoneKiB         int
	PickNodeFactor  int
	DiagonalPenalty int
}

func DefaultConfig() *ProgramConfig {
	return &ProgramConfig{
		ZoneKiB:         zone.DefaultConfig().Size >> 10,
		PickNodeFactor:  bsp.DEFAULT_SPLIT_FACTOR,
		DiagonalPenalty: bsp.DEFAULT_DIAGONAL_PENALTY,
	}
}

// BuildOptions derives node builder options from the config
func (c *ProgramConfig) BuildOptions() bsp.Options {
	opts := bsp.DefaultOptions()
	opts.SplitFactor = c.PickNodeFactor
	opts.DiagonalPenalty = c.DiagonalPenalty
	return opts
}

func (c *ProgramConfig) ZoneConfig() zone.Config {
	zc := zone.DefaultConfig()
	zc.Size = c.ZoneKiB << 10
	return zc
}

func PrintBanner() {
	Log.Printf("VigilantBSP ver %s\n", VERSION)
	Log.Printf("Copyright (c)   2022 VigilantDoomer\n")
	Log.Printf("This program is built upon ideas first implemented in DEU by Raphael Quinet, \n")
	Log.Printf("BSP v5.2 by Colin Reed, Lee Killough and other contributors to BSP (program),\n")
	Log.Printf("glBSP and AJ-BSP by Andrew Apted, et al, and is distributed under the terms of \n")
	Log.Printf(" GNU General Public License v2.\n")
	Log.Printf("\n")
}

func PrintHelp() {
	Log.Printf("Usage: vigilantbsp {-options} level.json {level2.json ...} {-o output.json}\n")
	Log.Printf("\n")
	Log.Printf("-x+ turn on option -x- turn off option")
	Log.Printf("\n")
	Log.Printf("-n Node builder parameters.\n")
	Log.Printf("	f= Tuning factor (seg split cost)\n")
	Log.Printf("		%d - default seg split cost\n", bsp.DEFAULT_SPLIT_FACTOR)
	Log.Printf("	d= Penalty for diagonal partition lines\n")
	Log.Printf("		%d - default, 0 disables it\n", bsp.DEFAULT_DIAGONAL_PENALTY)
	Log.Printf("\n")
	Log.Printf("-d Deterministic check: every level is built twice and the results compared\n")
	Log.Printf("\n")
	Log.Printf("-z=<KiB> Size of the memory zone levels are built in (default %d)\n",
		zone.DefaultConfig().Size>>10)
	Log.Printf("\n")
	Log.Printf("-v Add verbosity to text output. Use multiple times for increased verbosity.\n")
	Log.Printf("\n")
	Log.Printf("-o <file> Write the hardened maps to file as JSON, one object per input\n")
	Log.Printf("\n")
	Log.Printf("A level listed more than once is built once; later occurrences reuse\n")
	Log.Printf("the cached nodes unless the zone had to purge them.\n")
	Log.Printf("\n")
	Log.Printf("Example: vigilantbsp -v -nf=11d=0 e1m1.json -o e1m1_nodes.json\n")
	Log.Printf("\n")
}
