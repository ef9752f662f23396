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
	"fmt"
	"strings"

	"github.com/lassandro/lc3db/pkg/machine"
	"github.com/lassandro/lc3db/pkg/source"
)

// LIST_LINES is how many source lines list shows at once.
const LIST_LINES = 10

func (s *Session) describe(bp *Breakpoint) string {
	if bp.Kind != KIND_BREAKPOINT {
		if bp.Last == bp.Address {
			return fmt.Sprintf("0x%04x", bp.Address)
		}

		return fmt.Sprintf("0x%04x-0x%04x", bp.Address, bp.Last)
	}

	var what []string

	if fn, ok := s.Source.ScopeFunction(bp.Address); ok {
		what = append(what, "in "+fn.Name)
	} else if label, ok := s.Source.Label(bp.Address); ok {
		what = append(what, "in "+label)
	}

	if bp.Line > 0 {
		what = append(what, fmt.Sprintf("at %s:%d", bp.File, bp.Line))
	}

	return strings.Join(what, " ")
}

func (s *Session) infoBreakpoints() {
	if s.Breakpoints.Len() == 0 {
		s.printf("No breakpoints or watchpoints.\n")
		return
	}

	s.printf("%-8s%-15s%-5s%-4s%-11s%s\n", "Num", "Type", "Disp", "Enb", "Address", "What")

	for _, bp := range s.Breakpoints.List() {
		enabled := "n"
		if bp.Enabled {
			enabled = "y"
		}

		s.printf(
			"%-8d%-15s%-5s%-4s0x%04x     %s\n",
			bp.ID,
			bp.Kind,
			bp.Disposition,
			enabled,
			bp.Address,
			s.describe(bp),
		)

		if bp.Hits == 1 {
			s.printf("\tbreakpoint already hit 1 time\n")
		} else if bp.Hits > 1 {
			s.printf("\tbreakpoint already hit %d times\n", bp.Hits)
		}

		if bp.Ignore > 0 {
			s.printf("\tWill ignore next %d crossings of breakpoint.\n", bp.Ignore)
		}
	}
}

func (s *Session) infoDisplay() {
	if len(s.displays) == 0 {
		s.printf("There are no auto-display expressions now.\n")
		return
	}

	s.printf("Auto-display expressions now in effect:\nNum Enb Expression\n")

	for _, d := range s.displays {
		enabled := 'n'
		if d.Enabled {
			enabled = 'y'
		}

		s.printf("%d:   %c  %s\n", d.ID, enabled, d.Expr)
	}
}

func (s *Session) printVariables(vars []source.Variable, fp uint16, none string) {
	if len(vars) == 0 {
		s.printf("%s\n", none)
		return
	}

	for i := range vars {
		word := s.Machine.Memory.Peek(vars[i].Resolve(fp))
		s.printf("%s = %d\n", vars[i].Name, int16(word))
	}
}

func (s *Session) infoLocals() error {
	frame, ok := s.currentFrame()

	if !ok || frame.Function == nil {
		return ErrNoFrame
	}

	s.printVariables(s.Source.Locals(frame.Scope), frame.FP, "No locals.")
	return nil
}

func (s *Session) infoArgs() error {
	frame, ok := s.currentFrame()

	if !ok || frame.Function == nil {
		return ErrNoFrame
	}

	s.printVariables(frame.Function.Args, frame.FP, "No arguments.")
	return nil
}

func (s *Session) infoVariables() {
	names := s.Source.GlobalNames()

	if len(names) == 0 {
		s.printf("No global variables.\n")
		return
	}

	s.printf("All defined variables:\n")

	for _, name := range names {
		v := s.Source.Globals[name]
		word := s.Machine.Memory.Peek(v.Resolve(0))
		s.printf("%s %s = %d\n", v.Kind, name, int16(word))
	}
}

func (s *Session) infoRegisters() {
	cpu := &s.Machine.CPU

	for i, reg := range cpu.Registers {
		s.printf("R%-5d0x%04x\t%d\n", i, reg, int16(reg))
	}

	s.printf("%-6s0x%04x\t%d\n", "PC", cpu.PC, cpu.PC)
	s.printf("%-6s0x%04x\t%d\n", "PSR", cpu.PSR, cpu.PSR)
}

// examineRegisters is the compact register dump of "x regs".
func (s *Session) examineRegisters() {
	cpu := &s.Machine.CPU
	mem := &s.Machine.Memory

	for i, reg := range cpu.Registers {
		if i == 4 {
			s.printf("\n")
		}

		s.printf("R%d:  %.4x (%5d)  ", i, reg, reg)
	}

	s.printf("\n")

	mode := "Kernel"
	if cpu.PSR&machine.PSR_USER != 0 {
		mode = "User  "
	}

	bit := func(flag uint16) byte {
		if cpu.PSR&flag != 0 {
			return '1'
		}

		return '0'
	}

	mcr := mem.Peek(machine.DEV_MCR)
	ccr := mem.Peek(machine.DEV_CCR)

	s.printf(
		"PC:  %.4x (%5d)  PSR: %.4x (%5d)  MCR: %.4x (%5d)  MCC: %.4x (%5d)\n",
		cpu.PC, cpu.PC, cpu.PSR, cpu.PSR, mcr, mcr, ccr, ccr,
	)

	s.printf(
		"Instructions Run: %5d               Mode: %s  Pri: %d  NZP: %c%c%c\n",
		cpu.Instructions,
		mode,
		(cpu.PSR>>8)&0x7,
		bit(machine.FLAG_NEG),
		bit(machine.FLAG_ZERO),
		bit(machine.FLAG_POS),
	)
}

func (s *Session) infoSource() {
	if loc, ok := s.Source.FindLocation(s.Machine.CPU.PC, source.STYLE_ABSOLUTE); ok {
		s.printf("Current source file is %s\n", loc.Path)
	} else {
		s.printf("No current source file.\n")
	}

	if paths := s.Source.Sources(); len(paths) > 0 {
		s.printf("Source files: %s\n", strings.Join(paths, ", "))
	}
}

func (s *Session) infoSymbols() {
	for _, name := range s.Source.SymbolNames() {
		addr, _ := s.Source.Lookup(name)
		s.printf("0x%04x %s\n", addr, name)
	}
}

// dump prints [first, last] eight words to a row.
func (s *Session) dump(first, last uint16) {
	var out strings.Builder
	fmt.Fprintf(&out, "%.4x:", first)

	count := 1
	eachAddress(first, last, func(addr uint16) {
		fmt.Fprintf(&out, " %.4x", s.Machine.Memory.Peek(addr))

		if count%8 == 0 && addr != last {
			fmt.Fprintf(&out, "\n%.4x:", addr+1)
		}

		count++
	})

	s.printf("%s\n", out.String())
}

func (s *Session) disassembleRange(first, last uint16) {
	mem := &s.Machine.Memory

	eachAddress(first, last, func(addr uint16) {
		if label, ok := s.Source.Label(addr); ok {
			s.printf("%s:\n", label)
		}

		s.printf("0x%.4x: %.4x: %s\n", addr, mem.Peek(addr), s.disassemble(addr))
	})
}

// list prints source lines around the location arg names, or continues the
// previous listing when arg is empty.
func (s *Session) list(arg string) error {
	path, center := s.listFile, 0

	if arg != "" {
		addr, err := s.parseLocation(arg)

		if err != nil {
			return err
		}

		loc, ok := s.Source.FindLocation(addr, source.STYLE_ABSOLUTE)

		if !ok {
			return ErrNoSourceFile
		}

		path, center = loc.Path, loc.Line
	} else if path == "" {
		loc, ok := s.Source.FindLocation(s.Machine.CPU.PC, source.STYLE_ABSOLUTE)

		if !ok {
			return ErrNoSourceFile
		}

		path, center = loc.Path, loc.Line
	}

	lines, err := s.sourceLines(path)

	if err != nil {
		return err
	}

	start := s.listLine + 1

	if center > 0 {
		start = max(1, center-LIST_LINES/2)
	}

	end := min(len(lines), start+LIST_LINES-1)

	for line := start; line <= end; line++ {
		s.printf("%d\t%s\n", line, lines[line-1])
	}

	s.listFile = path
	s.listLine = end
	return nil
}

func (s *Session) backtrace(limit int) error {
	frames := s.Backtrace()

	if len(frames) == 0 {
		return ErrNoFrame
	}

	for i := range frames {
		if limit > 0 && i == limit {
			s.printf("(More stack frames follow...)\n")
			break
		}

		s.printFrame(&frames[i])
	}

	return nil
}
