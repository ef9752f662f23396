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

const MEMORY_SIZE = 1 << 16

const (
	FLAG_POS  uint16 = 1 << 0
	FLAG_ZERO uint16 = 1 << 1
	FLAG_NEG  uint16 = 1 << 2
)

// PSR layout: |U|0000|PRI|00000|N|Z|P|
const (
	PSR_USER     uint16 = 1 << 15
	PSR_PRIORITY uint16 = 0x7 << 8
	PSR_FLAGS    uint16 = 0x7
)

const (
	TRAP_GETC  uint16 = 0x20
	TRAP_OUT   uint16 = 0x21
	TRAP_PUTS  uint16 = 0x22
	TRAP_IN    uint16 = 0x23
	TRAP_PUTSP uint16 = 0x24
	TRAP_HALT  uint16 = 0x25
)

const (
	VEC_PRIVILEGE uint16 = 0x00
	VEC_ILLEGAL   uint16 = 0x01
	VEC_TIMER     uint16 = 0x02
	VEC_KEYBOARD  uint16 = 0x80
)

const (
	PRIORITY_TIMER    uint16 = 1
	PRIORITY_KEYBOARD uint16 = 4
)

const (
	MEMSPACE_TRAP_TABLE uint16 = 0x0000
	MEMSPACE_INT_TABLE  uint16 = 0x0100
	MEMSPACE_OS_ENTRY   uint16 = 0x01FF
	MEMSPACE_SUPERVISOR uint16 = 0x0200
	MEMSPACE_USER       uint16 = 0x3000
	MEMSPACE_DEVICES    uint16 = 0xFE00
)

const (
	DEV_KBSR uint16 = 0xFE00
	DEV_KBDR uint16 = 0xFE02
	DEV_DSR  uint16 = 0xFE04
	DEV_DDR  uint16 = 0xFE06
	DEV_MCR  uint16 = 0xFFFE
	DEV_CCR  uint16 = 0xFFFF
)

const (
	// KBSR/DSR bit 15
	DEV_READY uint16 = 1 << 15
	// KBSR bit 14
	DEV_INTERRUPT_ENABLE uint16 = 1 << 14
)

const (
	MCR_RUN     uint16 = 1 << 15
	MCR_TIMER   uint16 = 1 << 14
	MCR_LIMIT   uint16 = 0x3FFF
	MCR_INITIAL uint16 = 0x0030
)

const (
	OP_ADD  uint16 = 0b0001
	OP_AND  uint16 = 0b0101
	OP_BR   uint16 = 0b0000
	OP_JMP  uint16 = 0b1100
	OP_JSR  uint16 = 0b0100
	OP_LD   uint16 = 0b0010
	OP_LDI  uint16 = 0b1010
	OP_LDR  uint16 = 0b0110
	OP_LEA  uint16 = 0b1110
	OP_NOT  uint16 = 0b1001
	OP_RTI  uint16 = 0b1000
	OP_ST   uint16 = 0b0011
	OP_STI  uint16 = 0b1011
	OP_STR  uint16 = 0b0111
	OP_TRAP uint16 = 0b1111

	// Reserved
	OP_RES uint16 = 0b1101
)

// Registers with a fixed role in the calling convention
const (
	REG_FRAME  = 5
	REG_STACK  = 6
	REG_RETURN = 7
)
