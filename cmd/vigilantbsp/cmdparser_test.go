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
	"os"
	"path/filepath"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vogonsorg/Doomsday-Engine-sub001/bsp"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
)

func TestDefaults(t *testing.T) {
	c := DefaultConfig()
	require.True(t, c.FromCommandLine([]string{"a.json"}))
	require.Equal(t, []string{"a.json"}, c.InputFileNames)
	require.Equal(t, 8192, c.ZoneKiB)
	require.Equal(t, bsp.DefaultOptions(), c.BuildOptions())
	require.Equal(t, 8<<20, c.ZoneConfig().Size)
}

func TestParseOptions(t *testing.T) {
	c := DefaultConfig()
	ok := c.FromCommandLine([]string{"-vv", "-v", "-nf=11d=0", "-z=512", "-d",
		"a.json", "b.json", "-o", "out.json"})
	require.True(t, ok)
	require.Equal(t, 3, c.VerbosityLevel)
	require.Equal(t, 11, c.PickNodeFactor)
	require.Zero(t, c.DiagonalPenalty)
	require.Equal(t, 512, c.ZoneKiB)
	require.True(t, c.Deterministic)
	require.Equal(t, []string{"a.json", "b.json"}, c.InputFileNames)
	require.Equal(t, "out.json", c.OutputFileName)

	opts := c.BuildOptions()
	require.Equal(t, 11, opts.SplitFactor)
	require.Zero(t, opts.DiagonalPenalty)

	c = DefaultConfig()
	require.True(t, c.FromCommandLine([]string{"-nd-", "-d-", "a.json"}))
	require.Zero(t, c.DiagonalPenalty)
	require.False(t, c.Deterministic)
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"a.json", "-o"},
		{"-o", "x.json", "-o", "y.json", "a.json"},
		{"-ofile", "a.json"},
		{"-x", "a.json"},
		{"-z=8", "a.json"},
		{"-z", "a.json"},
	} {
		c := DefaultConfig()
		require.False(t, c.FromCommandLine(args), "%v", args)
	}
}

func TestReadNumeric(t *testing.T) {
	nos, rest := readNumeric("-nf", []byte("=42d"))
	require.Equal(t, NumericOrState{whichType: ARG_IS_NUMBER, value: 42}, nos)
	require.Equal(t, "d", string(rest))

	nos, rest = readNumeric("-nd", []byte("-f"))
	require.Equal(t, ARG_DISABLED, nos.whichType)
	require.Equal(t, "f", string(rest))

	nos, _ = readNumeric("-nf", []byte("=x"))
	require.Equal(t, ARG_ENABLED, nos.whichType)
}

func writeLevel(t *testing.T, dir, name string) string {
	b := level.NewBuilder("E1M1")
	s0 := b.Sector(0, 128)
	s1 := b.Sector(16, 112)
	b.Line(0, 0, 0, 64, s0, -1)
	b.Line(0, 64, 64, 64, s0, -1)
	b.Line(64, 64, 64, 0, s0, s1)
	b.Line(64, 0, 0, 0, s0, -1)
	b.Line(64, 64, 128, 64, s1, -1)
	b.Line(128, 64, 128, 0, s1, -1)
	b.Line(128, 0, 64, 0, s1, -1)

	w := jwriter.NewWriter()
	b.Level().WriteJSON(&w)
	require.NoError(t, w.Error())
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, w.Bytes(), 0644))
	return path
}

func TestRunWritesMaps(t *testing.T) {
	dir := t.TempDir()
	first := writeLevel(t, dir, "first.json")
	second := writeLevel(t, dir, "second.json")
	out := filepath.Join(dir, "out.json")

	c := DefaultConfig()
	require.True(t, c.FromCommandLine([]string{"-d", first, second, first, "-o", out}))
	require.NoError(t, run(c))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	segs := map[string]int{}
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		name := string(obj.Name())
		for m := r.Object(); m.Next(); {
			if string(m.Name()) != "segs" {
				require.NoError(t, r.SkipValue())
				continue
			}
			for arr := r.Array(); arr.Next(); {
				segs[name]++
				require.NoError(t, r.SkipValue())
			}
		}
	}
	require.NoError(t, r.Error())
	require.Equal(t, map[string]int{"first.json": 8, "second.json": 8}, segs)
}

func TestRunReportsBadInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"linedefs": [{"v1": 0, "v2": 5}]}`), 0644))

	c := DefaultConfig()
	c.InputFileNames = []string{bad}
	require.Error(t, run(c))

	c.InputFileNames = []string{filepath.Join(dir, "missing.json")}
	require.Error(t, run(c))
}
