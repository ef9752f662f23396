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
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/lc3db/pkg/encoding"
	"github.com/lassandro/lc3db/pkg/machine"
	"github.com/lassandro/lc3db/pkg/source"
)

const HELP = `Commands: - shortcuts shown in ()
 run [< file]
   Reloads memory, starts the operating system and runs the program.
   Keyboard input is read from file when one is given.

 continue (c)
   Continues execution until something stops it.

 step (s) [n]
   Steps n source lines, into calls. Steps instructions outside source code.

 next (n) [n]
   Steps n source lines, over calls.

 stepi (si) [n]  nexti (ni) [n]
   Steps n instructions, into or over JSR and TRAP.

 finish
   Runs until the current function returns.

 break (b) [loc]  tbreak [loc]
   Sets a breakpoint at loc: function, symbol, file:line, *addr or addr.

 watch [clear] <first> [last]  rwatch ...  awatch ...
   Stops on writes, reads or any access to memory in [first, last].

 delete [breakpoints|display] [id...]
 disable [breakpoints|display] [id...]
 enable [breakpoints|display|once|delete] [id...]
 ignore <id> <n>
   Manages breakpoints, watchpoints and displays.

 print (p) <expr|all>  display [expr]  undisplay <id...>
   Shows registers, variables, symbols or addresses. &name and *name take
   the address of or dereference a single name.

 set variable <name> = <value>  force (f) <name> <value>
   Changes a register, variable or memory word.

 info breakpoints|display|locals|args|variables|registers|source|symbols
 backtrace (bt) [n]  frame [n]  up [n]  down [n]

 dump (d) <first> <last>  x regs  x <first> <last>
 disassemble (dasm) <first> <last>
 list [loc]

 load (file) <file.obj>
   Loads an object file and the debug file next to it.

 jump <loc>
   Continues execution at loc.

 tty <device>
   Uses device as the program's terminal.

 source <file>
   Runs commands from file, or a Starlark script when file ends in .star.

 help (h)
 quit (q) exit
`

// Execute runs one command line. An empty line repeats the previous
// command. Errors are for the caller to report; only ErrQuit ends the
// session.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)

	if line == "" {
		line = s.lastCommand
	} else {
		s.lastCommand = line
	}

	args := strings.Fields(line)

	if len(args) == 0 {
		return nil
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "run", "r":
		return s.cmdRun(args)

	case "continue", "c", "cont":
		return s.Continue()

	case "step", "s":
		return s.cmdStep(args, "step [n]", false, false)

	case "next", "n":
		return s.cmdStep(args, "next [n]", true, false)

	case "stepi", "si":
		return s.cmdStep(args, "stepi [n]", false, true)

	case "nexti", "ni":
		return s.cmdStep(args, "nexti [n]", true, true)

	case "finish", "fin":
		return s.Finish()

	case "break", "b", "br":
		return s.cmdBreak(args, false)

	case "tbreak":
		return s.cmdBreak(args, true)

	case "watch":
		return s.cmdWatch(args, KIND_WATCHPOINT)

	case "rwatch":
		return s.cmdWatch(args, KIND_RWATCHPOINT)

	case "awatch":
		return s.cmdWatch(args, KIND_AWATCHPOINT)

	case "delete", "del":
		return s.cmdDelete(args)

	case "disable", "dis":
		return s.cmdEnable(args, false)

	case "enable", "en":
		return s.cmdEnable(args, true)

	case "ignore":
		return s.cmdIgnore(args)

	case "print", "p", "output":
		return s.cmdPrint(args)

	case "set":
		return s.cmdSet(args)

	case "force", "f":
		return s.cmdForce(args)

	case "display":
		return s.cmdDisplay(args)

	case "undisplay":
		return s.forEachID(args, "undisplay <id...>", s.deleteDisplay)

	case "info", "i":
		return s.cmdInfo(args)

	case "backtrace", "bt", "where":
		return s.cmdBacktrace(args)

	case "frame":
		return s.cmdFrame(args)

	case "up":
		return s.cmdUp(args, 1)

	case "down":
		return s.cmdUp(args, -1)

	case "dump", "d":
		return s.cmdDump(args)

	case "x":
		return s.cmdExamine(args)

	case "disassemble", "dasm":
		const usage = "disassemble <first> <last>"

		first, last, err := s.parseAddressRange(args, usage)

		if err != nil {
			return err
		}

		s.disassembleRange(first, last)
		return nil

	case "load", "l", "file":
		if len(args) != 1 {
			return UsageError("load <file.obj>")
		}

		return s.Load(args[0])

	case "list":
		return s.list(strings.Join(args, " "))

	case "jump", "j":
		return s.cmdJump(args)

	case "tty":
		return s.cmdTTY(args)

	case "source":
		if len(args) != 1 {
			return UsageError("source <file>")
		}

		return s.RunScript(args[0])

	case "help", "h":
		s.printf("%s", HELP)
		return nil

	case "quit", "q", "exit":
		return ErrQuit
	}

	return UnknownCommandError(line)
}

func (s *Session) cmdRun(args []string) error {
	const usage = "run [< file]"

	switch {
	case len(args) == 2 && args[0] == "<":
		input, err := machine.OpenInput(args[1])

		if err != nil {
			return err
		}

		s.Machine.Devices.SetInput(input)

	case len(args) == 1 && strings.HasPrefix(args[0], "<"):
		return s.cmdRun([]string{"<", args[0][1:]})

	case len(args) != 0:
		return UsageError(usage)
	}

	return s.Run()
}

func (s *Session) cmdStep(args []string, usage string, over, instructions bool) error {
	n, err := parseCount(args, usage)

	if err != nil {
		return err
	}

	if instructions {
		return s.StepInstruction(n, over)
	}

	return s.Step(n, over)
}

func (s *Session) cmdBreak(args []string, temporary bool) error {
	const usage = "break [loc]"

	if len(args) > 1 {
		return UsageError(usage)
	}

	addr := s.Machine.CPU.PC

	if len(args) == 1 {
		var err error
		addr, err = s.parseLocation(args[0])

		if err != nil {
			return err
		}
	}

	bp, err := s.Breakpoints.Add(addr, temporary)

	if err != nil {
		return err
	}

	name := "Breakpoint"
	if temporary {
		name = "Temporary breakpoint"
	}

	if loc, ok := s.Source.FindLocation(addr, source.STYLE_SHORT); ok {
		bp.File = loc.Path
		bp.Line = loc.Line
		s.printf("%s %d at 0x%04x: file %s, line %d.\n", name, bp.ID, addr, bp.File, bp.Line)
	} else {
		s.printf("%s %d at 0x%04x\n", name, bp.ID, addr)
	}

	return nil
}

func (s *Session) cmdWatch(args []string, kind BreakpointKind) error {
	const usage = "watch [clear] <first> [last]"

	clearing := len(args) > 0 && args[0] == "clear"
	if clearing {
		args = args[1:]
	}

	if len(args) == 1 {
		args = append(args, args[0])
	}

	first, last, err := s.parseAddressRange(args, usage)

	if err != nil {
		return err
	}

	if clearing {
		return s.clearWatches(first, last)
	}

	if err := s.Watches.Add(kind, first, last); err != nil {
		return err
	}

	bp := s.Breakpoints.AddWatch(kind, first, last)

	name := map[BreakpointKind]string{
		KIND_WATCHPOINT:  "Hardware watchpoint",
		KIND_RWATCHPOINT: "Hardware read watchpoint",
		KIND_AWATCHPOINT: "Hardware access (read/write) watchpoint",
	}[kind]

	s.printf("%s %d: %s\n", name, bp.ID, s.describe(bp))
	return nil
}

// clearWatches stops watching [first, last]. Watchpoints entirely inside it
// are deleted and those partly inside are disabled, so no entry keeps
// counting addresses that are no longer watched.
func (s *Session) clearWatches(first, last uint16) error {
	if last < first {
		return ErrBadRange
	}

	var ids []int
	for _, bp := range s.Breakpoints.List() {
		if bp.Kind == KIND_BREAKPOINT || bp.Last < first || bp.Address > last {
			continue
		}

		if first <= bp.Address && bp.Last <= last {
			ids = append(ids, bp.ID)
		} else if bp.Enabled {
			s.setBreakpoint(bp.ID, false, nil)
		}
	}

	for _, id := range ids {
		s.deleteBreakpoint(id)
	}

	return s.Watches.Clear(first, last)
}

// syncWatch keeps the watch sets in line with an entry's enabled state.
func (s *Session) syncWatch(bp *Breakpoint, was bool) {
	if bp.Kind == KIND_BREAKPOINT || bp.Enabled == was {
		return
	}

	if bp.Enabled {
		s.Watches.Add(bp.Kind, bp.Address, bp.Last)
	} else {
		s.Watches.Remove(bp.Kind, bp.Address, bp.Last)
	}
}

func (s *Session) deleteBreakpoint(id int) error {
	bp, err := s.Breakpoints.Delete(id)

	if err != nil {
		return err
	}

	if bp.Kind != KIND_BREAKPOINT && bp.Enabled {
		s.Watches.Remove(bp.Kind, bp.Address, bp.Last)
	}

	return nil
}

func (s *Session) setBreakpoint(id int, enable bool, disp *Disposition) error {
	bp, ok := s.Breakpoints.Get(id)

	if !ok {
		return NoBreakpointError(id)
	}

	was := bp.Enabled

	if disp != nil {
		s.Breakpoints.EnableWith(id, *disp)
	} else {
		s.Breakpoints.SetEnabled(id, enable)
	}

	s.syncWatch(bp, was)
	return nil
}

// forEachID applies fn to every id in args. Bad ids are reported after the
// rest have been handled.
func (s *Session) forEachID(args []string, usage string, fn func(id int) error) error {
	if len(args) == 0 {
		return UsageError(usage)
	}

	var first error

	for _, arg := range args {
		id, err := encoding.ParseInt16(arg)

		if err == nil {
			err = fn(int(id))
		}

		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

func breakpointIDs(bps *Breakpoints) []string {
	ids := make([]string, 0, bps.Len())

	for _, bp := range bps.List() {
		ids = append(ids, strconv.Itoa(bp.ID))
	}

	return ids
}

func (s *Session) cmdDelete(args []string) error {
	const usage = "delete [breakpoints|display] [id...]"

	if len(args) > 0 && args[0] == "display" {
		args = args[1:]

		if len(args) == 0 {
			s.displays = nil
			return nil
		}

		return s.forEachID(args, usage, s.deleteDisplay)
	}

	if len(args) > 0 && args[0] == "breakpoints" {
		args = args[1:]
	}

	if len(args) == 0 {
		args = breakpointIDs(&s.Breakpoints)

		if len(args) == 0 {
			return nil
		}
	}

	return s.forEachID(args, usage, s.deleteBreakpoint)
}

func (s *Session) cmdEnable(args []string, enable bool) error {
	const usage = "enable [breakpoints|display|once|delete] [id...]"

	var disp *Disposition

	if len(args) > 0 {
		switch args[0] {
		case "display":
			args = args[1:]

			if len(args) == 0 {
				for _, d := range s.displays {
					d.Enabled = enable
				}
				return nil
			}

			return s.forEachID(args, usage, func(id int) error {
				return s.enableDisplay(id, enable)
			})

		case "breakpoints":
			args = args[1:]

		case "once", "delete":
			if !enable {
				return UsageError(usage)
			}

			d := DISP_DISABLE
			if args[0] == "delete" {
				d = DISP_DELETE
			}

			disp = &d
			args = args[1:]

			if len(args) == 0 {
				return UsageError(usage)
			}
		}
	}

	if len(args) == 0 {
		args = breakpointIDs(&s.Breakpoints)

		if len(args) == 0 {
			return nil
		}
	}

	return s.forEachID(args, usage, func(id int) error {
		return s.setBreakpoint(id, enable, disp)
	})
}

func (s *Session) cmdIgnore(args []string) error {
	const usage = "ignore <id> <n>"

	if len(args) != 2 {
		return UsageError(usage)
	}

	id, err := encoding.ParseInt16(args[0])

	if err != nil {
		return err
	}

	n, err := encoding.ParseInt16(args[1])

	if err != nil {
		return err
	}

	if err := s.Breakpoints.SetIgnoreCount(int(id), int(n)); err != nil {
		return err
	}

	switch {
	case n <= 0:
		s.printf("Will stop next time breakpoint %d is reached.\n", id)
	case n == 1:
		s.printf("Will ignore next crossing of breakpoint %d.\n", id)
	default:
		s.printf("Will ignore next %d crossings of breakpoint %d.\n", n, id)
	}

	return nil
}

func (s *Session) cmdPrint(args []string) error {
	const usage = "print <expr|all>"

	if len(args) != 1 {
		return UsageError(usage)
	}

	if args[0] == "all" {
		s.printAll()
		return nil
	}

	text, err := s.format(args[0])

	if err != nil {
		return err
	}

	s.printf("%s\n", text)
	return nil
}

func (s *Session) cmdSet(args []string) error {
	const usage = "set variable <name> = <value>"

	if len(args) > 0 && (args[0] == "variable" || args[0] == "var") {
		args = args[1:]
	}

	// Accept "a=1", "a =1" and "a= 1" as well as "a = 1"
	parts := strings.SplitN(strings.Join(args, ""), "=", 2)

	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return UsageError(usage)
	}

	word, err := encoding.ParseWord(parts[1])

	if err != nil {
		return err
	}

	return s.assign(parts[0], word)
}

func (s *Session) cmdForce(args []string) error {
	const usage = "force <name> <value>"

	if len(args) != 2 {
		return UsageError(usage)
	}

	word, err := encoding.ParseWord(args[1])

	if err != nil {
		return err
	}

	return s.assign(args[0], word)
}

func (s *Session) cmdDisplay(args []string) error {
	const usage = "display [expr]"

	switch len(args) {
	case 0:
		s.showDisplays()
		return nil
	case 1:
	default:
		return UsageError(usage)
	}

	if _, err := s.format(args[0]); err != nil {
		return err
	}

	s.showDisplay(s.addDisplay(args[0]))
	return nil
}

func (s *Session) cmdInfo(args []string) error {
	const usage = "info breakpoints|display|locals|args|variables|registers|source|symbols"

	if len(args) != 1 {
		return UsageError(usage)
	}

	switch args[0] {
	case "breakpoints", "break", "b", "watchpoints":
		s.infoBreakpoints()
	case "display":
		s.infoDisplay()
	case "locals":
		return s.infoLocals()
	case "args":
		return s.infoArgs()
	case "variables":
		s.infoVariables()
	case "registers", "reg", "r":
		s.infoRegisters()
	case "source":
		s.infoSource()
	case "symbols":
		s.infoSymbols()
	case "frame":
		frame, ok := s.currentFrame()

		if !ok {
			return ErrNoFrame
		}

		s.printFrame(frame)
	default:
		return UsageError(usage)
	}

	return nil
}

func (s *Session) cmdBacktrace(args []string) error {
	const usage = "backtrace [n]"

	limit := 0

	if len(args) > 0 {
		n, err := parseCount(args, usage)

		if err != nil {
			return err
		}

		limit = n
	}

	return s.backtrace(limit)
}

func (s *Session) cmdFrame(args []string) error {
	const usage = "frame [n]"

	switch len(args) {
	case 0:
		frame, ok := s.currentFrame()

		if !ok {
			return ErrNoFrame
		}

		s.printFrame(frame)
		return nil
	case 1:
	default:
		return UsageError(usage)
	}

	n, err := encoding.ParseInt16(args[0])

	if err != nil {
		return err
	}

	return s.SelectFrame(int(n))
}

// cmdUp moves the selected frame towards the callers (dir 1) or back
// towards the innermost frame (dir -1).
func (s *Session) cmdUp(args []string, dir int) error {
	const usage = "up|down [n]"

	n, err := parseCount(args, usage)

	if err != nil {
		return err
	}

	s.Backtrace()
	return s.SelectFrame(s.selected + dir*n)
}

func (s *Session) cmdDump(args []string) error {
	const usage = "dump <first> <last>"

	first, last, err := s.parseAddressRange(args, usage)

	if err != nil {
		return err
	}

	s.dump(first, last)
	return nil
}

func (s *Session) cmdExamine(args []string) error {
	if len(args) == 1 && args[0] == "regs" {
		s.examineRegisters()
		return nil
	}

	return s.cmdDump(args)
}

func (s *Session) cmdJump(args []string) error {
	const usage = "jump <loc>"

	if len(args) != 1 {
		return UsageError(usage)
	}

	if err := s.requireRunning(); err != nil {
		return err
	}

	addr, err := s.parseLocation(args[0])

	if err != nil {
		return err
	}

	s.printf("Continuing at 0x%04x.\n", addr)
	s.Machine.CPU.PC = addr
	s.invalidate()
	return s.Continue()
}

// cmdTTY binds the program's keyboard and display to a terminal device.
func (s *Session) cmdTTY(args []string) error {
	const usage = "tty <device>"

	if len(args) != 1 {
		return UsageError(usage)
	}

	file, err := os.OpenFile(args[0], os.O_RDWR, 0)

	if err != nil {
		return err
	}

	s.Machine.Devices.SetInput(&machine.FileInput{File: file})
	s.Machine.Devices.SetOutput(file)

	if s.tty != nil {
		s.tty.Close()
	}

	s.tty = file
	return nil
}
