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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lassandro/lc3db/pkg/encoding"
	"github.com/lassandro/lc3db/pkg/machine"
	"github.com/lassandro/lc3db/pkg/source"
)

const MARKER = "\x1a\x1a"

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// sourceLines reads and caches the text of a source file.
func (s *Session) sourceLines(path string) ([]string, error) {
	if lines, ok := s.sources[path]; ok {
		return lines, nil
	}

	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if s.sources == nil {
		s.sources = make(map[string][]string)
	}

	s.sources[path] = lines
	return lines, nil
}

func (s *Session) disassemble(addr uint16) string {
	in := machine.Decode(s.Machine.Memory.Peek(addr))
	return in.Disassemble(addr, s.Source.Label)
}

// printLocation shows where the PC is: a marker line for front ends, the
// high level source line, or the instruction.
func (s *Session) printLocation() {
	pc := s.Machine.CPU.PC
	loc, ok := s.Source.FindLocation(pc, source.STYLE_ABSOLUTE)

	if s.Config.Fullname {
		s.printf(MARKER+"%s:%d:beg:0x%.4x\n", loc.Path, loc.Line, pc)
		return
	}

	if ok && loc.HLL {
		if lines, err := s.sourceLines(loc.Path); err == nil && loc.Line >= 1 && loc.Line <= len(lines) {
			s.printf("%d\t%s\n", loc.Line, lines[loc.Line-1])
		} else {
			s.printf("%d\tin %s\n", loc.Line, loc.Path)
		}

		// A following list centers on this line
		s.listFile = loc.Path
		s.listLine = max(0, loc.Line-LIST_LINES/2-1)
		return
	}

	if s.Config.Quiet {
		return
	}

	s.printf("0x%.4x: %.4x: %s\n", pc, s.Machine.Memory.Peek(pc), s.disassemble(pc))
}

// value is what an expression names: a register or a memory word.
type value struct {
	name     string
	register *uint16
	addr     uint16
	variable *source.Variable
}

func (v value) get(mem *machine.Memory) uint16 {
	if v.register != nil {
		return *v.register
	}

	return mem.Peek(v.addr)
}

func (v value) set(mem *machine.Memory, word uint16) {
	if v.register != nil {
		*v.register = word
		return
	}

	mem.Poke(v.addr, word)
}

func (s *Session) register(name string) (*uint16, bool) {
	cpu := &s.Machine.CPU
	name = strings.ToUpper(name)

	switch name {
	case "PC":
		return &cpu.PC, true
	case "PSR":
		return &cpu.PSR, true
	}

	if len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7' {
		return &cpu.Registers[name[1]-'0'], true
	}

	return nil, false
}

// variable resolves a high level name in the selected frame.
func (s *Session) variable(name string) (*source.Variable, uint16, bool) {
	scope := s.Machine.CPU.PC
	fp := s.Machine.CPU.Registers[machine.REG_FRAME]

	if frame, ok := s.currentFrame(); ok {
		scope = frame.Scope
		fp = frame.FP
	}

	v, ok := s.Source.FindVariable(scope, name)

	if !ok {
		return nil, 0, false
	}

	return v, v.Resolve(fp), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// resolve looks name up as a register, a variable in scope, a symbol and
// finally a numeric address.
func (s *Session) resolve(name string) (value, error) {
	if reg, ok := s.register(name); ok {
		return value{name: name, register: reg}, nil
	}

	if v, addr, ok := s.variable(name); ok {
		return value{name: name, addr: addr, variable: v}, nil
	}

	if addr, ok := s.Source.Lookup(name); ok {
		return value{name: name, addr: addr}, nil
	}

	addr, err := encoding.ParseWord(name)

	if err != nil {
		if isIdentifier(name) {
			return value{}, SymbolError(name)
		}

		return value{}, err
	}

	return value{name: name, addr: addr}, nil
}

// format renders a print or display expression: a name, &name or *name.
func (s *Session) format(expr string) (string, error) {
	mem := &s.Machine.Memory

	switch {
	case strings.HasPrefix(expr, "&"):
		v, err := s.resolve(expr[1:])

		if err != nil {
			return "", err
		}

		if v.register != nil {
			return "", ErrNotLvalue
		}

		return fmt.Sprintf("%s = 0x%.4x", expr, v.addr), nil

	case strings.HasPrefix(expr, "*"):
		v, err := s.resolve(expr[1:])

		if err != nil {
			return "", err
		}

		addr := v.get(mem)
		word := mem.Peek(addr)
		return fmt.Sprintf("%s = %.4x (%d)", expr, word, int16(word)), nil
	}

	v, err := s.resolve(expr)

	if err != nil {
		return "", err
	}

	word := v.get(mem)

	switch {
	case v.register != nil:
		return fmt.Sprintf("%s = %.4x (%d)", expr, word, word), nil
	case v.variable != nil:
		return fmt.Sprintf("%s = %d", expr, int16(word)), nil
	}

	return fmt.Sprintf("0x%.4x: %.4x (%d)", v.addr, word, word), nil
}

// printAll shows the register file in name order.
func (s *Session) printAll() {
	for _, name := range []string{
		"PC", "PSR", "R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	} {
		reg, _ := s.register(name)
		s.printf("%s = %.4x (%d)\n", name, *reg, *reg)
	}
}

// assign stores word into what name resolves to.
func (s *Session) assign(name string, word uint16) error {
	v, err := s.resolve(name)

	if err != nil {
		return err
	}

	v.set(&s.Machine.Memory, word)

	// Writing R5, R6 or memory may move frames
	s.invalidate()
	return nil
}

type display struct {
	ID      int
	Expr    string
	Enabled bool
}

func (s *Session) addDisplay(expr string) *display {
	s.lastDisplay++
	d := &display{ID: s.lastDisplay, Expr: expr, Enabled: true}
	s.displays = append(s.displays, d)
	return d
}

func (s *Session) findDisplay(id int) (int, error) {
	for i, d := range s.displays {
		if d.ID == id {
			return i, nil
		}
	}

	return -1, NoDisplayError(id)
}

func (s *Session) deleteDisplay(id int) error {
	i, err := s.findDisplay(id)

	if err != nil {
		return err
	}

	s.displays = append(s.displays[:i], s.displays[i+1:]...)
	return nil
}

func (s *Session) enableDisplay(id int, enable bool) error {
	i, err := s.findDisplay(id)

	if err != nil {
		return err
	}

	s.displays[i].Enabled = enable
	return nil
}

func (s *Session) showDisplay(d *display) {
	text, err := s.format(d.Expr)

	if err != nil {
		s.printf("%d: %s: %v\n", d.ID, d.Expr, err)
		return
	}

	s.printf("%d: %s\n", d.ID, text)
}

func (s *Session) showDisplays() {
	for _, d := range s.displays {
		if d.Enabled {
			s.showDisplay(d)
		}
	}
}

// parseLocation turns a breakpoint or list argument into an address:
// function, symbol, file:line, *addr or addr.
func (s *Session) parseLocation(arg string) (uint16, error) {
	if strings.HasPrefix(arg, "*") {
		v, err := s.resolve(arg[1:])

		if err != nil {
			return 0, err
		}

		if v.register != nil {
			return *v.register, nil
		}

		return v.addr, nil
	}

	if i := strings.LastIndexByte(arg, ':'); i != -1 {
		line, err := encoding.ParseInt16(arg[i+1:])

		if err != nil {
			return 0, err
		}

		addr, ok := s.Source.FindLineStart(arg[:i], int(line))

		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNoSourceFile, arg)
		}

		return addr, nil
	}

	if fn, ok := s.Source.FindFunction(arg); ok && fn.Entry != 0 {
		return fn.Entry, nil
	}

	if addr, ok := s.Source.Lookup(arg); ok {
		return addr, nil
	}

	addr, err := encoding.ParseWord(arg)

	if err != nil {
		if isIdentifier(arg) {
			return 0, SymbolError(arg)
		}

		return 0, err
	}

	return addr, nil
}

// parseCount reads an optional repeat count, defaulting to 1.
func parseCount(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	if len(args) > 1 {
		return 0, UsageError(usage)
	}

	// ParseWord would wrap a negative count
	if strings.HasPrefix(strings.TrimPrefix(args[0], "#"), "-") {
		return 0, UsageError(usage)
	}

	n, err := encoding.ParseWord(args[0])

	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, UsageError(usage)
	}

	return int(n), nil
}

// parseAddressRange parses two locations, first <= last.
func (s *Session) parseAddressRange(args []string, usage string) (uint16, uint16, error) {
	if len(args) != 2 {
		return 0, 0, UsageError(usage)
	}

	var ends [2]uint16

	for i, arg := range args {
		addr, err := s.parseLocation(arg)

		if err != nil {
			return 0, 0, err
		}

		ends[i] = addr
	}

	if ends[1] < ends[0] {
		return 0, 0, ErrBadRange
	}

	return ends[0], ends[1], nil
}
