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
	"strconv"
)

const ( // NumericOrState.whichType values
	ARG_ENABLED = iota
	ARG_DISABLED
	ARG_IS_NUMBER
)

type NumericOrState struct {
	whichType int // see consts above
	value     int
}

// Inspired by from zokumbsp's parser
func (c *ProgramConfig) FromCommandLine(args []string) bool {
	outputModifier := false
	outputModifierUsed := false
	hasOutputFile := false
	for _, arg := range args {
		if len(arg) < 1 {
			break
		}

		if arg[0] != '-' && !outputModifier {
			c.InputFileNames = append(c.InputFileNames, arg)
			continue
		}

		if outputModifier {
			c.OutputFileName = arg
			outputModifier = false
			hasOutputFile = true
			continue
		}

		if len(arg) < 2 {
			continue
		}
		switch arg[1] {
		case 'd':
			{
				enabled, rest := isEnabled([]byte(arg)[2:])
				c.Deterministic = enabled
				if len(rest) > 0 {
					Log.Error("Syntax error: -d parameter is followed by garbage; expected -d, -d+ or -d-, no other variants allowed.")
				}
			}
		case 'n':
			{
				c.parseNodesParams([]byte(arg)[2:])
			}
		case 'z':
			{
				nos, rest := readNumeric("-z", []byte(arg)[2:])
				if nos.whichType != ARG_IS_NUMBER {
					Log.Error("Expected -z=<KiB> - aborting.\n")
					return false
				}
				if nos.value < 64 {
					Log.Error("Zone of %d KiB is too small to build anything - aborting.\n", nos.value)
					return false
				}
				c.ZoneKiB = nos.value
				if len(rest) > 0 {
					Log.Error("Ignoring garbage after -z=%d.\n", nos.value)
				}
			}
		case 'v':
			{
				// "count" type: -v, -vv, -vvv, etc.
				vs := 0
				barg := []byte(arg)[1:]
				for i := 0; i < len(arg)-1; i++ {
					if barg[i] == 'v' {
						vs++
					} else {
						break
					}
				}
				c.VerbosityLevel += vs
			}
		case 'o':
			{
				if len(arg) != 2 {
					Log.Error("Unrecognized modified '%s' (expected '-o <file>', space between '-o' and file name) - aborting.\n",
						arg)
					return false
				}
				if outputModifierUsed {
					Log.Error("Can't specify output file twice, only one output file is supported - aborting.\n")
					return false
				}
				outputModifier = true
				outputModifierUsed = true
			}
		default:
			{
				Log.Error("Unrecognised argument '%s' - aborting.\n", arg)
				return false
			}
		}
	}
	if outputModifier && !hasOutputFile {
		Log.Error("Modifier '-o' was present without a file name following it - aborting.\n")
		return false
	}
	return true
}

func (c *ProgramConfig) parseNodesParams(p []byte) {
	for len(p) > 0 {
		switch p[0] {
		case 'f':
			{
				nos, rest := readNumeric("-nf", p[1:])
				if nos.whichType == ARG_IS_NUMBER && nos.value > 0 {
					c.PickNodeFactor = nos.value
				} else {
					Log.Error("You are supposed to pass -nf=<positive number>, ignoring it.\n")
				}
				p = rest
			}
		case 'd':
			{
				nos, rest := readNumeric("-nd", p[1:])
				switch nos.whichType {
				case ARG_IS_NUMBER:
					c.DiagonalPenalty = nos.value
				case ARG_DISABLED:
					c.DiagonalPenalty = 0
				default:
					// -nd, -nd+: the default
				}
				p = rest
			}
		default:
			{
				Log.Error("Unknown parameter '%s' for nodes, ignoring the rest of it.\n", string(p))
				p = p[:0]
			}
		}
	}
}

func isEnabled(arg []byte) (bool, []byte) {
	if len(arg) == 0 {
		return true, arg
	}
	if arg[0] == '+' {
		return true, arg[1:]
	} else if arg[0] == '-' {
		return false, arg[1:]
	} else {
		return true, arg
	}
}

// a+, a-, or a=<numeric_value_without_sign>
func readNumeric(prefix string, arg []byte) (NumericOrState, []byte) {
	if len(arg) == 0 {
		return NumericOrState{whichType: ARG_ENABLED}, arg
	}
	if arg[0] == '+' {
		return NumericOrState{whichType: ARG_ENABLED}, arg[1:]
	} else if arg[0] == '-' {
		return NumericOrState{whichType: ARG_DISABLED}, arg[1:]
	} else if arg[0] == '=' {
		// !!! doesn't support negative values, and values with explicit "+"
		// sign either
		t, v, rest := readNumericOnly(arg[1:])
		if t {
			return NumericOrState{
				whichType: ARG_IS_NUMBER,
				value:     v,
			}, rest
		} else {
			Log.Error("Couldn't properly parse '%s=%s'. Some parameters are going to be ignored as the result.\n", prefix, string(arg))
			return NumericOrState{
				whichType: ARG_ENABLED,
			}, arg[:0] // ignore the rest of parameters
		}
	} else {
		return NumericOrState{whichType: ARG_ENABLED}, arg
	}
}

func readNumericOnly(arg []byte) (bool, int, []byte) {
	if len(arg) == 0 {
		return false, 0, arg
	}
	l := 0
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if '0' <= c && c <= '9' {
			l++
		} else {
			break
		}
	}
	if l > 0 {
		v, err := strconv.Atoi(string(arg[:l]))
		if err != nil {
			Log.Error("value '%s' was too big to interpret as int.\n",
				string(arg[:l]))
			return false, 0, arg[l:]
		}
		return true, v, arg[l:]
	}
	return false, 0, arg
}
