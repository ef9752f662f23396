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

package source

import (
	"errors"
	"fmt"

	"github.com/lassandro/lc3db/pkg/translate"
)

var f = translate.From

var (
	// Debug file errors
	ErrUnknownTag    = errors.New(f("unknown tag"))
	ErrFieldCount    = errors.New(f("wrong number of fields"))
	ErrUnknownFile   = errors.New(f("unknown file id"))
	ErrOverlap       = errors.New(f("line range overlaps another line"))
	ErrUnknownLabel  = errors.New(f("unknown label"))
	ErrBlockMismatch = errors.New(f("block does not match the open block"))
	ErrMachineRange  = errors.New(f("machine level line spans more than one address"))
	ErrBadKind       = errors.New(f("unknown declaration kind"))
	ErrBadLine       = errors.New(f("line numbers start at 1"))
)

// FormatError is a debug file line that could not be used.
type FormatError struct {
	Line int
	Text string
	Err  error
}

func (err *FormatError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", err.Line, err.Err, err.Text)
}

func (err *FormatError) Unwrap() error {
	return err.Err
}
