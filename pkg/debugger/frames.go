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

// Compiled code keeps its frame pointer in R5. Above it sit the caller's
// frame pointer and the return address.
const (
	FRAME_SAVED_FP = 1
	FRAME_RETURN   = 2

	MAX_FRAMES = 256
)

type Frame struct {
	ID int
	// Address variables are looked up from: the PC in the innermost frame,
	// the calling instruction in the others
	Scope    uint16
	FP       uint16
	Function *source.Function
	Label    string
}

// Backtrace walks the saved frame pointers from the current PC outwards,
// stopping at main or at code without scope information. The result is
// cached until the PC changes.
func (s *Session) Backtrace() []Frame {
	mc := s.Machine
	pc := mc.CPU.PC

	if s.framesValid && s.framesPC == pc {
		return s.frames
	}

	s.frames = s.frames[:0]
	scope := pc
	fp := mc.CPU.Registers[machine.REG_FRAME]

	for depth := 0; depth < MAX_FRAMES; depth++ {
		frame := Frame{ID: depth, Scope: scope, FP: fp, Label: "??"}
		fn, ok := s.Source.ScopeFunction(scope)

		if !ok {
			if depth == 0 {
				if label, ok := s.Source.Label(scope); ok {
					frame.Label = label
				}

				s.frames = append(s.frames, frame)
			}
			break
		}

		frame.Function = fn
		frame.Label = fn.Name
		s.frames = append(s.frames, frame)

		if fn.Name == "main" {
			break
		}

		ret := mc.Memory.Peek(fp + FRAME_RETURN)
		fp = mc.Memory.Peek(fp + FRAME_SAVED_FP)
		scope = ret - 1
	}

	s.framesPC = pc
	s.framesValid = true

	if s.selected >= len(s.frames) {
		s.selected = 0
	}

	return s.frames
}

func (s *Session) currentFrame() (*Frame, bool) {
	frames := s.Backtrace()

	if len(frames) == 0 {
		return nil, false
	}

	return &frames[s.selected], true
}

func (s *Session) frameArgs(frame *Frame) string {
	if frame.Function == nil {
		return ""
	}

	args := make([]string, 0, len(frame.Function.Args))

	for i := range frame.Function.Args {
		arg := &frame.Function.Args[i]
		value := int16(s.Machine.Memory.Peek(arg.Resolve(frame.FP)))
		args = append(args, fmt.Sprintf("%s=%d", arg.Name, value))
	}

	return strings.Join(args, ", ")
}

func (s *Session) printFrame(frame *Frame) {
	line := fmt.Sprintf(
		"#%-2d 0x%04x in %s (%s)",
		frame.ID,
		frame.Scope,
		frame.Label,
		s.frameArgs(frame),
	)

	if loc, ok := s.Source.FindLocation(frame.Scope, source.STYLE_SHORT); ok {
		line += fmt.Sprintf(" at %s:%d", loc.Path, loc.Line)
	}

	s.printf("%s\n", line)
}

// SelectFrame makes frame n the context for variable lookups.
func (s *Session) SelectFrame(n int) error {
	frames := s.Backtrace()

	if len(frames) == 0 {
		return ErrNoFrame
	}

	if n < 0 {
		return ErrTopFrame
	}

	if n >= len(frames) {
		return ErrBottomFrame
	}

	s.selected = n
	s.printFrame(&frames[n])
	return nil
}
