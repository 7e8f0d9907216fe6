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

// Central log (stdout/stderr) of the program
package mylogger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
)

// LevelVerbose is the slog level of Verbose output. Verbose messages also
// carry the requested verbosity as an attribute.
const LevelVerbose = slog.LevelDebug

type MyLogger struct {
	// Writing to the same slot allows to clobber stuff so that we don't see the
	// same thing written over and over again
	slots []string
	// Mutex orders writes to stdout and stderr, and guards verbosity
	mu        sync.Mutex
	verbosity int
	out       *slog.Logger
	err       *slog.Logger
}

// CreateLogger makes a logger writing ordinary output to stdout and errors
// to stderr
func CreateLogger() *MyLogger {
	return CreateLoggerTo(os.Stdout, os.Stderr)
}

// CreateLoggerTo is CreateLogger with explicit writers, tests use it to
// capture output
func CreateLoggerTo(stdout, stderr io.Writer) *MyLogger {
	return &MyLogger{
		out: slog.New(newHandler(stdout)),
		err: slog.New(newHandler(stderr)),
	}
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelVerbose,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// timestamps make build logs impossible to diff
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}

var Log = CreateLogger()

// SetVerbosity sets the highest verbosity level Verbose will let through
func (log *MyLogger) SetVerbosity(level int) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.verbosity = level
}

func (log *MyLogger) Verbosity() int {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.verbosity
}

// Your generic printf to let user see things
func (log *MyLogger) Printf(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.out.Info(trimmed(s, a...))
}

// As generic as printf, but writes to stderr instead of stdout
// Does NOT interrupt execution of the program
func (log *MyLogger) Error(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.err.Error(trimmed(s, a...))
}

// For advanced users or users that are curious, or programmers, there is
// stuff they might want to see but only when they can really bother to spend
// time reading it
func (log *MyLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	if verbosityLevel > log.verbosity {
		return
	}
	log.out.Log(context.Background(), LevelVerbose, trimmed(s, a...),
		slog.Int("verbosity", verbosityLevel))
}

// Panicking is not a good thing, but at least we can now use formatted printing
// for it
func (log *MyLogger) Panic(s string, a ...interface{}) {
	msg := trimmed(s, a...)
	log.mu.Lock()
	log.err.Error(msg)
	log.mu.Unlock()
	panic(msg)
}

// Writes to the slot, clobbering whatever was there before us in that same slot
// Used when need to debug something in nodes builder but it's worthless to
// repeat if it concerns the same thing
func (log *MyLogger) Push(slotNumber int, s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	for slotNumber >= len(log.slots) {
		log.slots = append(log.slots, "")
	}
	log.slots[slotNumber] = trimmed(s, a...)
}

// Now that slots have been written over multiple times, time to see what was
// written to begin with
func (log *MyLogger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	for _, slot := range log.slots {
		if slot != "" {
			log.out.Info(slot)
		}
	}
	log.slots = nil
}

// messages are written printf-style with trailing newlines all over the
// code base, the handler adds its own
func trimmed(s string, a ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(s, a...), "\n")
}
