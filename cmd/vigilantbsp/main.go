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

// -- This file is where the program entry is.
// The harness reads levels exported as JSON, builds their nodes in a zone,
// prints what the builder did and optionally writes the hardened maps out.
package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vogonsorg/Doomsday-Engine-sub001/bsp"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/nodecache"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

func main() {
	PrintBanner()
	config := DefaultConfig()
	if !config.FromCommandLine(os.Args[1:]) {
		Log.Printf("\n")
		os.Exit(1)
	}
	// If input file name was not passed, print help
	if len(config.InputFileNames) == 0 {
		PrintHelp()
		os.Exit(0)
	}
	if err := run(config); err != nil {
		Log.Error("%+v\n", err)
		os.Exit(1)
	}
}

// session is one run of the program over its input files
type session struct {
	config  *ProgramConfig
	zone    *zone.Zone
	builder *bsp.Builder
	cache   *nodecache.Cache
}

func run(config *ProgramConfig) error {
	timeStart := time.Now()
	Log.SetVerbosity(config.VerbosityLevel)

	z, err := zone.New(config.ZoneConfig())
	if err != nil {
		return err
	}
	cacheConfig := nodecache.DefaultConfig()
	// cached maps are purgable, the zone decides how many actually survive
	cacheConfig.MaxBytes = int64(config.ZoneKiB<<10) / 2
	cache, err := nodecache.New(cacheConfig)
	if err != nil {
		return err
	}
	defer cache.Close()

	s := &session{
		config:  config,
		zone:    z,
		builder: bsp.NewBuilder(z, config.BuildOptions()),
		cache:   cache,
	}

	var out *jwriter.Writer
	var outObj jwriter.ObjectState
	written := make(map[string]bool)
	if config.OutputFileName != "" {
		w := jwriter.NewWriter()
		out = &w
		outObj = out.Object()
	}

	for _, name := range config.InputFileNames {
		m, fp, err := s.processFile(name)
		if err != nil {
			return err
		}
		key := filepath.Base(name)
		if out != nil && !written[key] {
			m.WriteJSON(outObj.Name(key))
			written[key] = true
		}
		if err := cache.Retire(fp, m); err != nil {
			m.Release()
			return err
		}
	}

	if out != nil {
		outObj.End()
		if err := out.Error(); err != nil {
			return errors.Wrap(err, "encoding output")
		}
		if err := os.WriteFile(config.OutputFileName, out.Bytes(), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", config.OutputFileName)
		}
		Log.Printf("Wrote %s\n", config.OutputFileName)
	}

	if config.VerbosityLevel > 0 {
		z.LogStats()
	}
	Log.Printf("Total time: %s\n", time.Since(timeStart))
	return nil
}

// processFile returns the map of the level in file name, built or revived
// from the cache, together with the level's fingerprint
func (s *session) processFile(name string) (*bsp.Map, uint64, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading %s", name)
	}
	lvl, err := level.ReadJSON(data)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "loading %s", name)
	}
	if lvl.Name == "" {
		lvl.Name = filepath.Base(name)
	}
	Log.Printf("Processing level %s (%d linedefs, %d sectors)\n", lvl.Name,
		len(lvl.Linedefs), len(lvl.Sectors))

	fp := lvl.Fingerprint()
	if m, ok := s.cache.Revive(fp); ok {
		Log.Printf("Reusing nodes built earlier for identical geometry\n")
		return m, fp, nil
	}

	m, stats, err := s.builder.BuildMap(lvl)
	if err != nil {
		return nil, 0, err
	}
	printStats(stats, m)

	if s.config.Deterministic {
		if err := s.checkDeterminism(lvl, m); err != nil {
			m.Release()
			return nil, 0, err
		}
	}
	return m, fp, nil
}

func (s *session) checkDeterminism(lvl *level.Level, m *bsp.Map) error {
	again, _, err := s.builder.BuildMap(lvl)
	if err != nil {
		return errors.Wrap(err, "second build")
	}
	defer again.Release()
	if again.Fingerprint() != m.Fingerprint() {
		return errors.Newf("level %s: two builds gave different nodes (%016x vs %016x)",
			lvl.Name, m.Fingerprint(), again.Fingerprint())
	}
	Log.Verbose(1, "Second build of %s matched the first\n", lvl.Name)
	return nil
}

func printStats(stats bsp.BuildStats, m *bsp.Map) {
	Log.Printf("Nodes: %d, subsectors: %d, segs: %d, vertexes: %d (%s)\n",
		len(m.Nodes), len(m.Subsectors), len(m.Segs), len(m.Vertexes),
		humanize.IBytes(uint64(m.Bytes())))
	Log.Verbose(1, "Splits: %d, minisegs: %d, tree height: %d, largest subsector: %d segs\n",
		stats.Splits, stats.Minis, stats.Height, stats.MaxSegsInLeaf)
	if stats.MergedVertices > 0 || stats.SelfRefLines > 0 {
		Log.Verbose(1, "Merged %d duplicate vertices, %d self-referencing linedefs\n",
			stats.MergedVertices, stats.SelfRefLines)
	}
	a := stats.Anomalies
	if a.Total() > 0 {
		Log.Printf("Geometry problems: %d open subsectors, %d mixed sectors, %d forced subsectors, "+
			"%d unclosed sectors, %d sector mismatches, %d zero length lines, %d lines without sides\n",
			a.OpenLeaves, a.MixedSectors, a.ForcedLeaves, a.UnclosedSectors,
			a.SectorMismatches, a.ZeroLength, a.NoSidedefs)
	}
}
