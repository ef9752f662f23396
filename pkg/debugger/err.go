// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package debugger

import (
	"errors"
	"fmt"

	"github.com/lassandro/lc3db/pkg/translate"
)

var f = translate.From

var (
	// Command errors
	ErrNoSymbol     = errors.New(f("no symbol in current context"))
	ErrNoBreakpoint = errors.New(f("no such breakpoint"))
	ErrNoFrame      = errors.New(f("no stack"))
	ErrNoDisplay    = errors.New(f("no display"))
	ErrNoProgram    = errors.New(f("no executable file specified"))
	ErrNotRunning   = errors.New(f("the program is not being run"))
	ErrBadRange     = errors.New(f("range end is before its start"))
	ErrTopFrame     = errors.New(f("initial frame selected; you cannot go down"))
	ErrBottomFrame  = errors.New(f("outermost frame selected; you cannot go up"))
	ErrNoSourceFile = errors.New(f("no source file for this location"))
	ErrNotLvalue    = errors.New(f("attempt to take address of value not located in memory"))

	// ErrQuit ends the command loop
	ErrQuit = errors.New(f("quit"))
)

// UnknownCommandError is a command word nothing answers to.
type UnknownCommandError string

func (name UnknownCommandError) Error() string {
	return f("Bad command `%s'\nTry using the `help' command.", string(name))
}

// UsageError carries the usage line of the command that was misused.
type UsageError string

func (usage UsageError) Error() string {
	return f("usage: %s", string(usage))
}

type NoBreakpointError int

func (id NoBreakpointError) Error() string {
	return fmt.Sprintf("No breakpoint number %d.", int(id))
}

func (id NoBreakpointError) Unwrap() error {
	return ErrNoBreakpoint
}

type NoDisplayError int

func (id NoDisplayError) Error() string {
	return fmt.Sprintf("No display number %d.", int(id))
}

func (id NoDisplayError) Unwrap() error {
	return ErrNoDisplay
}

// DuplicateError is returned when a breakpoint already exists at Address.
type DuplicateError struct {
	Address uint16
	ID      int
}

func (err *DuplicateError) Error() string {
	return fmt.Sprintf(
		"Breakpoint for address 0x%04x already defined, see breakpoint %d.",
		err.Address,
		err.ID,
	)
}

// SymbolError names the location or expression that did not resolve.
type SymbolError string

func (name SymbolError) Error() string {
	return f("No symbol \"%s\" in current context.", string(name))
}

func (name SymbolError) Unwrap() error {
	return ErrNoSymbol
}
