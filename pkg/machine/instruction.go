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
	"fmt"
	"strings"

	"github.com/lassandro/lc3db/pkg/encoding"
)

// Instruction is a decoded instruction word. Both execution and disassembly
// read their operands from here.
type Instruction struct {
	Word   uint16
	Opcode uint16

	// DR is also SR for the store instructions
	DR uint16
	// SR1 is also BaseR
	SR1 uint16
	SR2 uint16

	// Immediate form of ADD/AND, PC-relative form of JSR
	Imm  bool
	Imm5 uint16

	// Sign-extended PCoffset9, PCoffset11 or offset6
	Offset uint16
	NZP    uint16
	Vector uint16
}

var trapNames = map[uint16]string{
	TRAP_GETC:  "GETC",
	TRAP_OUT:   "OUT",
	TRAP_PUTS:  "PUTS",
	TRAP_IN:    "IN",
	TRAP_PUTSP: "PUTSP",
	TRAP_HALT:  "HALT",
}

func Decode(word uint16) Instruction {
	in := Instruction{
		Word:   word,
		Opcode: word >> 12,
		DR:     (word >> 9) & 0x7,
		SR1:    (word >> 6) & 0x7,
		SR2:    word & 0x7,
	}

	switch in.Opcode {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD, OP_AND:
		in.Imm = (word>>5)&0x1 == 1
		in.Imm5 = encoding.SignExtend(word&0x1F, 5)

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		in.NZP = (word >> 9) & 0x7
		in.Offset = encoding.SignExtend(word&0x1FF, 9)

	// LD   |0010    |DR   |PCoffset9         | Load
	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ST   |0011    |SR   |PCoffset9         | Store
	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		in.Offset = encoding.SignExtend(word&0x1FF, 9)

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR, OP_STR:
		in.Offset = encoding.SignExtend(word&0x3F, 6)

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		in.Imm = (word>>11)&0x1 == 1
		in.Offset = encoding.SignExtend(word&0x7FF, 11)

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		in.Vector = encoding.ZeroExtend(word, 8)
	}

	return in
}

// IsCall reports whether the instruction enters a subroutine or trap
// routine that returns to the following address.
func (in Instruction) IsCall() bool {
	return in.Opcode == OP_JSR || in.Opcode == OP_TRAP
}

// IsReturn reports RET (JMP R7) and RTI.
func (in Instruction) IsReturn() bool {
	return (in.Opcode == OP_JMP && in.SR1 == REG_RETURN) || in.Opcode == OP_RTI
}

// Target is the address a PC-relative operand refers to when the
// instruction sits at pc.
func (in Instruction) Target(pc uint16) uint16 {
	return pc + 1 + in.Offset
}

// Labeler names an address for disassembly.
type Labeler func(addr uint16) (string, bool)

func (in Instruction) String() string {
	return in.Disassemble(0, nil)
}

// Disassemble formats the instruction as it would execute at pc. With a nil
// labeler PC-relative operands are printed as offsets.
func (in Instruction) Disassemble(pc uint16, labels Labeler) string {
	target := func() string {
		if labels == nil {
			return fmt.Sprintf("#%d", int16(in.Offset))
		}

		addr := in.Target(pc)

		if name, ok := labels(addr); ok {
			return name
		}

		return fmt.Sprintf("x%04X", addr)
	}

	switch in.Opcode {
	case OP_ADD, OP_AND:
		name := "ADD"
		if in.Opcode == OP_AND {
			name = "AND"
		}

		if in.Imm {
			return fmt.Sprintf(
				"%s R%d, R%d, #%d", name, in.DR, in.SR1, int16(in.Imm5),
			)
		}

		return fmt.Sprintf("%s R%d, R%d, R%d", name, in.DR, in.SR1, in.SR2)

	case OP_BR:
		if in.NZP == 0 {
			return "NOP"
		}

		var flags strings.Builder
		flags.WriteString("BR")

		if in.NZP != 0x7 {
			if in.NZP&0x4 != 0 {
				flags.WriteByte('n')
			}
			if in.NZP&0x2 != 0 {
				flags.WriteByte('z')
			}
			if in.NZP&0x1 != 0 {
				flags.WriteByte('p')
			}
		}

		return flags.String() + " " + target()

	case OP_JMP:
		if in.SR1 == REG_RETURN {
			return "RET"
		}

		return fmt.Sprintf("JMP R%d", in.SR1)

	case OP_JSR:
		if in.Imm {
			return "JSR " + target()
		}

		return fmt.Sprintf("JSRR R%d", in.SR1)

	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		name := map[uint16]string{
			OP_LD:  "LD",
			OP_LDI: "LDI",
			OP_LEA: "LEA",
			OP_ST:  "ST",
			OP_STI: "STI",
		}[in.Opcode]

		return fmt.Sprintf("%s R%d, %s", name, in.DR, target())

	case OP_LDR, OP_STR:
		name := "LDR"
		if in.Opcode == OP_STR {
			name = "STR"
		}

		return fmt.Sprintf(
			"%s R%d, R%d, #%d", name, in.DR, in.SR1, int16(in.Offset),
		)

	case OP_NOT:
		return fmt.Sprintf("NOT R%d, R%d", in.DR, in.SR1)

	case OP_RTI:
		return "RTI"

	case OP_TRAP:
		if name, ok := trapNames[in.Vector]; ok {
			return name
		}

		return fmt.Sprintf("TRAP x%02X", in.Vector)
	}

	return fmt.Sprintf("RESERVED x%04X", in.Word)
}
