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
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/lc3db/pkg/encoding"
)

// Debug file lines, one declaration per line:
//
//	#id:path                      source file
//	!addr:label                   symbol
//	@file:line:first:last         line range, file 0 is the assembly listing
//	Tid=descriptor                type
//	B S|E:function:level:addr     scope start or end
//	S kind:type:name:label|offset declaration
//
// Addresses are hexadecimal, everything else decimal.

var declarationKinds = map[byte]VariableKind{
	'G': VAR_GLOBAL,
	'S': VAR_FILE_STATIC,
	's': VAR_FUNCTION_STATIC,
	'l': VAR_LOCAL,
	'p': VAR_PARAMETER,
	'L': VAR_LABEL,
}

func parseAddress(s string) (uint16, error) {
	if !strings.HasPrefix(s, "x") &&
		!strings.HasPrefix(s, "X") &&
		!strings.HasPrefix(s, "0x") {
		s = "x" + s
	}

	return encoding.DecodeHex(s)
}

func fields(s string, sep string, n int) ([]string, error) {
	parts := strings.SplitN(s, sep, n)

	if len(parts) != n {
		return nil, ErrFieldCount
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts, nil
}

func parseLine(text string, info *Info) error {
	tag := text[0]
	rest := strings.TrimSpace(text[1:])

	switch tag {
	case '#':
		parts, err := fields(rest, ":", 2)
		if err != nil {
			return err
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}

		info.AddSourceFile(id, parts[1])

	case '!':
		parts, err := fields(rest, ":", 2)
		if err != nil {
			return err
		}

		addr, err := parseAddress(parts[0])
		if err != nil {
			return err
		}

		info.AddSymbol(parts[1], addr)

	case '@':
		parts, err := fields(rest, ":", 4)
		if err != nil {
			return err
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}

		line, err := strconv.Atoi(parts[1])
		if err != nil {
			return err
		}

		first, err := parseAddress(parts[2])
		if err != nil {
			return err
		}

		last, err := parseAddress(parts[3])
		if err != nil {
			return err
		}

		return info.AddLine(first, last, id, line)

	case 'T':
		parts, err := fields(rest, "=", 2)
		if err != nil {
			return err
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}

		info.AddType(id, parts[1])

	case 'B':
		parts, err := fields(rest, ":", 4)
		if err != nil {
			return err
		}

		level, err := strconv.Atoi(parts[2])
		if err != nil {
			return err
		}

		addr, err := parseAddress(parts[3])
		if err != nil {
			return err
		}

		switch parts[0] {
		case "S":
			return info.OpenBlock(parts[1], level, addr)
		case "E":
			return info.CloseBlock(parts[1], level, addr)
		}

		return ErrBadKind

	case 'S':
		if rest == "" {
			return ErrFieldCount
		}

		kind := rest[0]

		parts, err := fields(strings.TrimPrefix(rest[1:], ":"), ":", 3)
		if err != nil {
			return err
		}

		typeID, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}

		switch kind {
		case 'F', 'f':
			return info.AddFunction(kind == 'f', typeID, parts[1], parts[2])
		}

		vk, ok := declarationKinds[kind]
		if !ok {
			return ErrBadKind
		}

		if vk == VAR_LOCAL || vk == VAR_PARAMETER {
			offset, err := strconv.Atoi(parts[2])
			if err != nil {
				return err
			}

			return info.AddStackVariable(vk, typeID, parts[1], offset)
		}

		return info.AddAbsoluteVariable(vk, typeID, parts[1], parts[2])

	default:
		return ErrUnknownTag
	}

	return nil
}

// ParseDebug reads a debug file into info. Bad lines are skipped and
// returned as *FormatError; everything else is still applied.
func ParseDebug(r io.Reader, info *Info) []error {
	var errs []error

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)

	for lineno := 1; scanner.Scan(); lineno++ {
		text := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(text) == "" {
			continue
		}

		if err := parseLine(text, info); err != nil {
			errs = append(errs, &FormatError{Line: lineno, Text: text, Err: err})
		}
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	return errs
}
