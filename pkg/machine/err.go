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

package machine

import (
	"errors"
	"fmt"

	"github.com/lassandro/lc3db/pkg/translate"
)

var f = translate.From

var (
	// Object file errors
	ErrTooShort = errors.New(f("object file has no origin"))
	ErrOddSize  = errors.New(f("object file has an odd number of bytes"))
	ErrTooLarge = errors.New(f("object file exceeds the address space"))

	// Device errors
	ErrAddressMapped = errors.New(f("address already has a device"))
)

// LoadError is returned when an object file cannot be placed in memory.
// Memory is left untouched.
type LoadError struct {
	Path string
	Err  error
}

func (err *LoadError) Error() string {
	if err.Path == "" {
		return err.Err.Error()
	}

	return fmt.Sprintf("%s: %v", err.Path, err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}
