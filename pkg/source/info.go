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
	"path/filepath"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Style int

const (
	// File name only
	STYLE_SHORT Style = iota
	// Path as announced by the debug file
	STYLE_ABSOLUTE
)

// Location is the answer to "where does this address come from". Line is 0
// when nothing is known.
type Location struct {
	Path  string
	Line  int
	HLL   bool
	First uint16
	Last  uint16
}

type file struct {
	name string
	path string
	hll  bool

	// starts[line] is the first address of line; lines without code hold
	// the start of the closest line before them
	starts []uint16
	known  []bool
}

type lineEntry struct {
	file int
	line int
}

type hllRange struct {
	first uint16
	last  uint16
	lineEntry
}

// Info maps addresses to source lines and back in two coordinate systems:
// one assembly line per instruction, and high level lines covering a
// contiguous address range. It also carries the symbol table and the scope
// tree of high level programs.
type Info struct {
	Symbols map[string]uint16
	Globals map[string]*Variable
	Types   map[int]string

	Functions []Function
	Blocks    []Block

	ids     map[int]int
	files   []file
	machine map[uint16]lineEntry
	ranges  []hllRange
	labels  map[uint16]string

	functions map[string]int
	scopes    []int
	open      []int
}

func NewInfo() *Info {
	info := &Info{
		Symbols: make(map[string]uint16),
		ids:     make(map[int]int),
		machine: make(map[uint16]lineEntry),
		labels:  make(map[uint16]string),
	}

	info.ResetHLL()
	return info
}

// ResetHLL forgets the high level layer (line ranges, scopes, functions,
// variables and types). Assembly lines and symbols are kept.
func (info *Info) ResetHLL() {
	info.Globals = make(map[string]*Variable)
	info.Types = make(map[int]string)
	info.Functions = nil
	info.Blocks = nil
	info.ranges = nil
	info.functions = make(map[string]int)
	info.scopes = nil
	info.open = nil

	for i := range info.files {
		if info.files[i].hll {
			info.files[i].starts = nil
			info.files[i].known = nil
			info.files[i].hll = false
		}
	}
}

// AddSourceFile binds a debug file's id to path and returns the internal
// id. A path seen before keeps its internal id.
func (info *Info) AddSourceFile(userID int, path string) int {
	id := slices.IndexFunc(info.files, func(f file) bool {
		return f.path == path
	})

	if id == -1 {
		id = len(info.files)
		info.files = append(info.files, file{
			name: filepath.Base(path),
			path: path,
		})
	}

	info.ids[userID] = id
	return id
}

// AddLine records that [first, last] implements line of the file bound to
// userID. File id 0 is the assembly listing, where every instruction is
// its own line.
func (info *Info) AddLine(first, last uint16, userID int, line int) error {
	if line < 1 {
		return ErrBadLine
	}

	id, ok := info.ids[userID]

	if !ok {
		return ErrUnknownFile
	}

	entry := lineEntry{file: id, line: line}

	if userID == 0 {
		if first != last {
			return ErrMachineRange
		}

		info.machine[first] = entry
	} else {
		if last < first {
			return ErrOverlap
		}

		i, found := slices.BinarySearchFunc(
			info.ranges,
			first,
			func(r hllRange, addr uint16) int {
				return int(r.first) - int(addr)
			},
		)

		if found ||
			(i > 0 && info.ranges[i-1].last >= first) ||
			(i < len(info.ranges) && info.ranges[i].first <= last) {
			return ErrOverlap
		}

		info.ranges = slices.Insert(
			info.ranges, i, hllRange{first: first, last: last, lineEntry: entry},
		)

		info.files[id].hll = true
	}

	info.files[id].addStart(line, first)
	return nil
}

func (f *file) addStart(line int, addr uint16) {
	if line < 0 {
		return
	}

	if line < len(f.starts) {
		if !f.known[line] {
			f.starts[line] = addr
			f.known[line] = true
		}
		return
	}

	fill := addr
	if len(f.starts) > 0 {
		fill = f.starts[len(f.starts)-1]
	}

	for len(f.starts) < line {
		f.starts = append(f.starts, fill)
		f.known = append(f.known, false)
	}

	f.starts = append(f.starts, addr)
	f.known = append(f.known, true)
}

func (info *Info) location(entry lineEntry, style Style) Location {
	loc := Location{Line: entry.line}

	if style == STYLE_ABSOLUTE {
		loc.Path = info.files[entry.file].path
	} else {
		loc.Path = info.files[entry.file].name
	}

	return loc
}

// FindLocation looks addr up in the high level ranges first and falls back
// to the assembly lines.
func (info *Info) FindLocation(addr uint16, style Style) (Location, bool) {
	i, found := slices.BinarySearchFunc(
		info.ranges,
		addr,
		func(r hllRange, addr uint16) int {
			return int(r.first) - int(addr)
		},
	)

	if !found {
		i--
	}

	if i >= 0 && addr <= info.ranges[i].last {
		r := info.ranges[i]
		loc := info.location(r.lineEntry, style)
		loc.HLL = true
		loc.First = r.first
		loc.Last = r.last
		return loc, true
	}

	if entry, ok := info.machine[addr]; ok {
		loc := info.location(entry, style)
		loc.First = addr
		loc.Last = addr
		return loc, true
	}

	return Location{}, false
}

// FindLineStart returns the first address of line in the file named name
// (either its base name or its full path).
func (info *Info) FindLineStart(name string, line int) (uint16, bool) {
	for _, f := range info.files {
		if f.name != name && f.path != name {
			continue
		}

		if line > 0 && line < len(f.starts) {
			return f.starts[line], true
		}
	}

	return 0, false
}

// AddSymbol binds label to addr. The first label seen at an address names it
// in disassembly.
func (info *Info) AddSymbol(label string, addr uint16) {
	info.Symbols[label] = addr

	if _, exists := info.labels[addr]; !exists {
		info.labels[addr] = label
	}
}

func (info *Info) Lookup(label string) (uint16, bool) {
	addr, ok := info.Symbols[label]
	return addr, ok
}

// Label names addr for disassembly; it satisfies machine.Labeler.
func (info *Info) Label(addr uint16) (string, bool) {
	label, ok := info.labels[addr]
	return label, ok
}

func (info *Info) SymbolNames() []string {
	names := maps.Keys(info.Symbols)
	slices.Sort(names)
	return names
}

func (info *Info) GlobalNames() []string {
	names := maps.Keys(info.Globals)
	slices.Sort(names)
	return names
}

// Sources lists every announced file path in announcement order.
func (info *Info) Sources() []string {
	paths := make([]string, len(info.files))

	for i, f := range info.files {
		paths[i] = f.path
	}

	return paths
}
