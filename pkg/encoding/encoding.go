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

package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lassandro/lc3db/pkg/translate"
)

var f = translate.From

var ErrBadNumber = errors.New(f("bad numeric literal"))

// NumberError reports the literal that could not be parsed.
type NumberError struct {
	Literal string
}

func (err *NumberError) Error() string {
	return fmt.Sprintf("%s: '%s'", ErrBadNumber, err.Literal)
}

func (err *NumberError) Unwrap() error {
	return ErrBadNumber
}

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, &NumberError{s}
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, &NumberError{s}
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123, #-12, -12
func DecodeInt(s string) (int16, error) {
	literal := s

	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, &NumberError{literal}
	}

	return int16(result), nil
}

// ParseWord accepts every literal a user may type for a 16-bit value: the
// hexadecimal forms of DecodeHex, the '#' decimal forms of DecodeInt, and
// plain C style literals (decimal, 0x hex, leading-zero octal). Negative
// values wrap to their two's complement word. Anything outside
// [-0x8000, 0xFFFF] is rejected.
func ParseWord(s string) (uint16, error) {
	if s == "" {
		return 0, &NumberError{s}
	}

	if s[0] == 'x' || s[0] == 'X' {
		return DecodeHex(s)
	}

	if s[0] == '#' {
		value, err := DecodeInt(s)
		return uint16(value), err
	}

	value, err := strconv.ParseInt(s, 0, 32)

	if err != nil || value >= 0x10000 || value < -0x8000 {
		return 0, &NumberError{s}
	}

	return uint16(value), nil
}

// ParseInt16 is ParseWord with the result read as a signed word.
func ParseInt16(s string) (int16, error) {
	value, err := ParseWord(s)
	return int16(value), err
}

func SwapEndian(value uint16) uint16 {
	return (value >> 8) | (value << 8)
}

func SignExtend(value uint16, bitcount uint16) uint16 {
	value &= 0xFFFF >> (16 - bitcount)

	if (value>>(bitcount-1))&0x1 == 1 {
		value |= (0xFFFF << bitcount)
	}

	return value
}

func ZeroExtend(value uint16, bitcount uint16) uint16 {
	return value & (0xFFFF >> (16 - bitcount))
}
