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
	"golang.org/x/exp/slices"
)

type VariableKind int

const (
	VAR_GLOBAL VariableKind = iota
	VAR_FILE_STATIC
	VAR_FUNCTION_STATIC
	VAR_LOCAL
	VAR_PARAMETER
	VAR_LABEL
	VAR_SPECIAL
)

func (kind VariableKind) String() string {
	switch kind {
	case VAR_GLOBAL:
		return "global"
	case VAR_FILE_STATIC:
		return "file static"
	case VAR_FUNCTION_STATIC:
		return "static"
	case VAR_LOCAL:
		return "local"
	case VAR_PARAMETER:
		return "parameter"
	case VAR_LABEL:
		return "label"
	case VAR_SPECIAL:
		return "register"
	}

	return "unknown"
}

// Variable is either at an absolute address or at Address words from the
// frame pointer.
type Variable struct {
	Name     string
	Kind     VariableKind
	TypeID   int
	Absolute bool
	Address  int
}

func (v *Variable) Resolve(fp uint16) uint16 {
	if v.Absolute {
		return uint16(v.Address)
	}

	return fp + uint16(v.Address)
}

type Function struct {
	Name       string
	Static     bool
	ReturnType int
	Entry      uint16

	// Index of the outermost block, -1 until one is opened
	Block int
	Args  []Variable
}

// Block is a lexical scope. Parent and Function are indices into
// Info.Blocks and Info.Functions; Parent is -1 for a function body.
type Block struct {
	Function  int
	Level     int
	Parent    int
	Start     uint16
	End       uint16
	Variables []Variable

	dropped bool
}

func (b *Block) Contains(addr uint16) bool {
	return b.Start <= addr && addr <= b.End
}

func (info *Info) function(name string) int {
	if i, ok := info.functions[name]; ok {
		return i
	}

	info.Functions = append(info.Functions, Function{Name: name, Block: -1})
	info.functions[name] = len(info.Functions) - 1
	return len(info.Functions) - 1
}

// FindFunction looks a high level function up by name.
func (info *Info) FindFunction(name string) (*Function, bool) {
	if i, ok := info.functions[name]; ok {
		return &info.Functions[i], true
	}

	return nil, false
}

// OpenBlock starts a scope at addr. Level 0 is the body of function; deeper
// levels nest inside the innermost open block.
func (info *Info) OpenBlock(function string, level int, addr uint16) error {
	parent := -1

	if n := len(info.open); n > 0 {
		parent = info.open[n-1]

		if level <= info.Blocks[parent].Level {
			return ErrBlockMismatch
		}
	} else if level != 0 {
		return ErrBlockMismatch
	}

	fn := info.function(function)

	if parent != -1 && info.Blocks[parent].Function != fn {
		return ErrBlockMismatch
	}

	info.Blocks = append(info.Blocks, Block{
		Function: fn,
		Level:    level,
		Parent:   parent,
		Start:    addr,
		End:      addr,
	})

	index := len(info.Blocks) - 1

	if level == 0 {
		info.Functions[fn].Block = index
	}

	info.open = append(info.open, index)
	return nil
}

// CloseBlock ends the innermost open scope at addr. Nested scopes without
// variables are dropped and their children move up to the parent.
func (info *Info) CloseBlock(function string, level int, addr uint16) error {
	n := len(info.open)

	if n == 0 {
		return ErrBlockMismatch
	}

	index := info.open[n-1]
	block := &info.Blocks[index]

	if block.Level != level || info.Functions[block.Function].Name != function {
		return ErrBlockMismatch
	}

	block.End = addr
	info.open = info.open[:n-1]

	if block.Level > 0 && len(block.Variables) == 0 {
		block.dropped = true

		for i := range info.Blocks {
			if info.Blocks[i].Parent == index {
				info.Blocks[i].Parent = block.Parent
			}
		}

		return nil
	}

	i, _ := slices.BinarySearchFunc(info.scopes, index, info.compareScopes)
	info.scopes = slices.Insert(info.scopes, i, index)
	return nil
}

// Scopes are ordered by start address, outer before inner.
func (info *Info) compareScopes(a, b int) int {
	x, y := &info.Blocks[a], &info.Blocks[b]

	if x.Start != y.Start {
		return int(x.Start) - int(y.Start)
	}

	return x.Level - y.Level
}

func (info *Info) current() (*Block, bool) {
	if n := len(info.open); n > 0 {
		return &info.Blocks[info.open[n-1]], true
	}

	return nil, false
}

// FindScope returns the innermost scope containing addr.
func (info *Info) FindScope(addr uint16) (*Block, bool) {
	i, found := slices.BinarySearchFunc(
		info.scopes,
		addr,
		func(index int, addr uint16) int {
			return int(info.Blocks[index].Start) - int(addr)
		},
	)

	// Step past every scope starting at addr so the deepest one is found
	if found {
		for i < len(info.scopes) && info.Blocks[info.scopes[i]].Start == addr {
			i++
		}
	}

	if i == 0 {
		return nil, false
	}

	for index := info.scopes[i-1]; index != -1; index = info.Blocks[index].Parent {
		if info.Blocks[index].Contains(addr) {
			return &info.Blocks[index], true
		}
	}

	return nil, false
}

// FindVariable resolves name as seen from scopeAddr: innermost block
// outwards, then the function's parameters, then globals.
func (info *Info) FindVariable(scopeAddr uint16, name string) (*Variable, bool) {
	if block, ok := info.FindScope(scopeAddr); ok {
		for {
			for i := range block.Variables {
				if block.Variables[i].Name == name {
					return &block.Variables[i], true
				}
			}

			if block.Parent == -1 {
				break
			}

			block = &info.Blocks[block.Parent]
		}

		fn := &info.Functions[block.Function]

		for i := range fn.Args {
			if fn.Args[i].Name == name {
				return &fn.Args[i], true
			}
		}
	}

	v, ok := info.Globals[name]
	return v, ok
}

// ScopeFunction names the function whose body contains addr.
func (info *Info) ScopeFunction(addr uint16) (*Function, bool) {
	block, ok := info.FindScope(addr)

	if !ok {
		return nil, false
	}

	return &info.Functions[block.Function], true
}

// Locals lists the variables visible from scopeAddr, innermost first,
// excluding parameters and globals.
func (info *Info) Locals(scopeAddr uint16) []Variable {
	var locals []Variable

	block, ok := info.FindScope(scopeAddr)

	for ok {
		locals = append(locals, block.Variables...)

		if block.Parent == -1 {
			break
		}

		block = &info.Blocks[block.Parent]
	}

	return locals
}

// AddFunction declares a high level function whose entry point is label.
func (info *Info) AddFunction(static bool, returnType int, name, label string) error {
	entry, ok := info.Symbols[label]

	if !ok {
		return ErrUnknownLabel
	}

	fn := &info.Functions[info.function(name)]
	fn.Static = static
	fn.ReturnType = returnType
	fn.Entry = entry
	return nil
}

// AddAbsoluteVariable declares a variable stored at label.
func (info *Info) AddAbsoluteVariable(kind VariableKind, typeID int, name, label string) error {
	addr, ok := info.Symbols[label]

	if !ok {
		return ErrUnknownLabel
	}

	v := Variable{
		Name:     name,
		Kind:     kind,
		TypeID:   typeID,
		Absolute: true,
		Address:  int(addr),
	}

	switch kind {
	case VAR_GLOBAL, VAR_FILE_STATIC, VAR_LABEL:
		info.Globals[name] = &v

	case VAR_FUNCTION_STATIC:
		if block, ok := info.current(); ok {
			block.Variables = append(block.Variables, v)
		} else {
			info.Globals[name] = &v
		}

	default:
		return ErrBadKind
	}

	return nil
}

// AddStackVariable declares a local or parameter at offset words from the
// frame pointer of the innermost open block's function.
func (info *Info) AddStackVariable(kind VariableKind, typeID int, name string, offset int) error {
	v := Variable{
		Name:    name,
		Kind:    kind,
		TypeID:  typeID,
		Address: offset,
	}

	block, open := info.current()

	switch kind {
	case VAR_LOCAL:
		if !open {
			return ErrBlockMismatch
		}

		block.Variables = append(block.Variables, v)

	case VAR_PARAMETER:
		fn := len(info.Functions) - 1

		if open {
			fn = block.Function
		}

		if fn < 0 {
			return ErrBlockMismatch
		}

		info.Functions[fn].Args = append(info.Functions[fn].Args, v)

	default:
		return ErrBadKind
	}

	return nil
}

func (info *Info) AddType(id int, descriptor string) {
	info.Types[id] = descriptor
}
