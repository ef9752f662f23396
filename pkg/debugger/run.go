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
	"github.com/lassandro/lc3db/pkg/machine"
	"github.com/lassandro/lc3db/pkg/source"
)

type StopReason int

// Compiled callees return with their return value still pushed.
const RETURN_SLOTS = 1

const (
	STOP_DONE StopReason = iota
	STOP_HALTED
	STOP_RETURN
	STOP_WATCH
	STOP_INTERRUPT
	STOP_TEMPORARY
	STOP_BREAKPOINT
	STOP_RANGE
)

// runState is the per command execution plan.
type runState struct {
	// Instructions left, negative runs until something stops it
	count int

	// PC leaving [first, last] stops execution
	ranged      bool
	first, last uint16

	// Run calls to completion; overTraps does it for TRAP only
	stepOver  bool
	overTraps bool

	// Stop when the next instruction is RET or RTI
	breakOnReturn bool

	// Don't report a breakpoint at the PC execution starts from
	resume   uint16
	resuming bool

	// Step-over state for the call in progress
	temp       uint16
	tempSP     uint16
	overCall   bool
	savedRange bool
}

func (st *runState) outside(pc uint16) bool {
	return st.ranged && (pc < st.first || pc > st.last)
}

// execute drives the machine until one of the stop conditions holds. The
// conditions are checked before every instruction in a fixed order.
func (s *Session) execute(st *runState) StopReason {
	mc := s.Machine
	first := true

	if s.Terminal != nil {
		if err := s.Terminal.ProgramMode(); err != nil {
			s.Log.Println(err)
		}

		defer func() {
			if err := s.Terminal.CommandMode(); err != nil {
				s.Log.Println(err)
			}
		}()
	}

	defer s.checkDisplay()

	for st.count != 0 {
		pc := mc.CPU.PC
		in := machine.Decode(mc.Memory.Peek(pc))

		if !mc.Running() {
			return STOP_HALTED
		}

		if st.breakOnReturn && !st.overCall && in.IsReturn() {
			return STOP_RETURN
		}

		if hit, ok := s.Watches.Pending(); ok && s.watchStops(hit) {
			return STOP_WATCH
		}

		if s.interrupted.Swap(false) {
			s.printf("\nProgram received signal SIGINT, Interrupt.\n")
			return STOP_INTERRUPT
		}

		// Deeper recursion reaching the same address has a lower stack
		sp := int(mc.CPU.Registers[machine.REG_STACK])
		if st.overCall && pc == st.temp && sp+RETURN_SLOTS >= int(st.tempSP) {
			st.overCall = false
			st.ranged = st.savedRange

			if !st.ranged {
				return STOP_TEMPORARY
			}

			if st.outside(pc) {
				return STOP_RANGE
			}
		}

		if !(first && st.resuming && pc == st.resume) {
			if bp, ok := s.Breakpoints.Check(pc); ok {
				s.reportBreakpoint(bp)
				return STOP_BREAKPOINT
			}
		}

		first = false

		if !st.overCall && in.IsCall() &&
			(st.stepOver || (st.overTraps && in.Opcode == machine.OP_TRAP)) {
			st.temp = pc + 1
			st.tempSP = mc.CPU.Registers[machine.REG_STACK]
			st.overCall = true
			st.savedRange = st.ranged
			st.ranged = false
		}

		mc.Step()

		// A call being stepped over counts as one instruction
		if st.count > 0 && !st.overCall {
			st.count--
		}

		if st.outside(mc.CPU.PC) {
			return STOP_RANGE
		}
	}

	// An instruction that finished the count may still have hit a watch
	if hit, ok := s.Watches.Pending(); ok && s.watchStops(hit) {
		return STOP_WATCH
	}

	return STOP_DONE
}

func (s *Session) checkDisplay() {
	if err := s.Machine.Devices.Display.Err; err != nil {
		s.Log.Printf("display: %v", err)
		s.Machine.Devices.Display.Err = nil
	}
}

func (s *Session) reportBreakpoint(bp Breakpoint) {
	name := "Breakpoint"
	if bp.Disposition == DISP_DELETE {
		name = "Temporary breakpoint"
	}

	if bp.Line > 0 {
		s.printf("%s %d, 0x%04x: at %s:%d.\n", name, bp.ID, bp.Address, bp.File, bp.Line)
	} else {
		s.printf("%s %d, 0x%04x.\n", name, bp.ID, bp.Address)
	}
}

// watchStops counts a watched access against the first enabled watchpoint
// covering it, the way Breakpoints.Check counts a breakpoint hit.
func (s *Session) watchStops(hit WatchHit) bool {
	kind := KIND_RWATCHPOINT
	if hit.Write {
		kind = KIND_WATCHPOINT
	}

	var watch *Breakpoint
	for _, bp := range s.Breakpoints.List() {
		if bp.Kind == KIND_BREAKPOINT || !bp.Enabled {
			continue
		}

		if bp.Address <= hit.Addr && hit.Addr <= bp.Last &&
			(bp.Kind == kind || bp.Kind == KIND_AWATCHPOINT) {
			watch = bp
			break
		}
	}

	if watch == nil {
		s.reportWatch(0, hit)
		return true
	}

	watch.Hits++

	if watch.Ignore > 0 {
		watch.Ignore--
		return false
	}

	switch watch.Disposition {
	case DISP_DISABLE:
		s.setBreakpoint(watch.ID, false, nil)
	case DISP_DELETE:
		s.deleteBreakpoint(watch.ID)
	}

	s.reportWatch(watch.ID, hit)
	return true
}

func (s *Session) reportWatch(id int, hit WatchHit) {
	s.printf("\nWatchpoint %d: 0x%04x\n\n", id, hit.Addr)

	if hit.Write {
		s.printf("Old value = %.4x (%d)\n", hit.Old, hit.Old)
		s.printf("New value = %.4x (%d)\n", hit.Value, hit.Value)
	} else {
		s.printf("Value = %.4x (%d)\n", hit.Value, hit.Value)
	}
}

// stopped finishes a command that ran the machine.
func (s *Session) stopped(reason StopReason) {
	s.LastStop = reason
	s.invalidate()

	s.printLocation()
	s.showDisplays()
}

func (s *Session) requireRunning() error {
	if !s.Machine.Running() {
		return ErrNotRunning
	}

	return nil
}

func (s *Session) resumeState() runState {
	return runState{
		count:    -1,
		resume:   s.Machine.CPU.PC,
		resuming: true,
	}
}

// Continue runs until something stops the machine.
func (s *Session) Continue() error {
	if err := s.requireRunning(); err != nil {
		return err
	}

	st := s.resumeState()
	s.stopped(s.execute(&st))
	return nil
}

// Run restarts the programs from pristine memory and runs them.
func (s *Session) Run() error {
	if err := s.restart(); err != nil {
		return err
	}

	st := runState{count: -1}
	s.stopped(s.execute(&st))
	return nil
}

// stepInstructions is stepi and nexti: n machine instructions, optionally
// running calls to completion. Only a resumed command skips the breakpoint
// at its starting PC.
func (s *Session) stepInstructions(n int, over, resume bool) StopReason {
	reason := STOP_DONE

	for i := 0; i < n && reason == STOP_DONE; i++ {
		st := runState{count: 1, stepOver: over}
		if resume && i == 0 {
			st = s.resumeState()
			st.count = 1
			st.stepOver = over
		}

		reason = s.execute(&st)

		if reason == STOP_TEMPORARY {
			reason = STOP_DONE
		}
	}

	return reason
}

// stepLine executes until the PC reaches the start of another high level
// line. Landing in the middle of a line (returning from a call) keeps
// going until that line is done.
func (s *Session) stepLine(over, resume bool) StopReason {
	mc := s.Machine

	loc, _ := s.Source.FindLocation(mc.CPU.PC, source.STYLE_SHORT)
	st := runState{count: -1}
	if resume {
		st = s.resumeState()
	}

	st.ranged = true
	st.first, st.last = loc.First, loc.Last
	st.stepOver = over
	st.overTraps = true

	for {
		reason := s.execute(&st)

		if reason != STOP_RANGE {
			return reason
		}

		pc := mc.CPU.PC
		next, ok := s.Source.FindLocation(pc, source.STYLE_SHORT)

		if !ok || !next.HLL || pc == next.First {
			return STOP_DONE
		}

		st = runState{count: -1, ranged: true}
		st.first, st.last = next.First, next.Last
		st.stepOver = over
		st.overTraps = true
	}
}

// Step is step/next: by source line where the PC is in high level code,
// by instruction elsewhere.
func (s *Session) Step(n int, over bool) error {
	if err := s.requireRunning(); err != nil {
		return err
	}

	reason := STOP_DONE

	for i := 0; i < n && reason == STOP_DONE; i++ {
		if loc, ok := s.Source.FindLocation(s.Machine.CPU.PC, source.STYLE_SHORT); ok && loc.HLL {
			reason = s.stepLine(over, i == 0)
		} else {
			reason = s.stepInstructions(1, over, i == 0)
		}
	}

	s.stopped(reason)
	return nil
}

// StepInstruction is stepi/nexti.
func (s *Session) StepInstruction(n int, over bool) error {
	if err := s.requireRunning(); err != nil {
		return err
	}

	s.stopped(s.stepInstructions(n, over, true))
	return nil
}

// Finish runs until the current function returns and stops in the caller.
func (s *Session) Finish() error {
	if err := s.requireRunning(); err != nil {
		return err
	}

	if frames := s.Backtrace(); len(frames) > 0 {
		s.printf("Run till exit from ")
		s.printFrame(&frames[s.selected])
	}

	start := s.Machine.CPU.PC
	st := s.resumeState()
	st.stepOver = true
	st.breakOnReturn = true
	reason := s.execute(&st)

	if reason == STOP_RETURN {
		reason = s.stepInstructions(1, false, s.Machine.CPU.PC == start)
	}

	s.stopped(reason)
	return nil
}
