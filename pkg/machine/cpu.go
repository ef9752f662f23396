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

type CPU struct {
	Registers [8]uint16
	PC        uint16
	PSR       uint16

	// Whichever stack pointer is not currently in R6
	SavedUSP uint16
	SavedSSP uint16

	// Instructions executed since reset
	Instructions uint64

	Memory *Memory

	prompting bool
}

func (cpu *CPU) Reset() {
	for i := range cpu.Registers {
		cpu.Registers[i] = 0x0000
	}

	// Supervisor mode, priority 0, Z set
	cpu.PC = MEMSPACE_USER
	cpu.PSR = FLAG_ZERO

	// R6 is SSP, USP is saved in state
	cpu.Registers[REG_STACK] = MEMSPACE_USER
	cpu.SavedSSP = MEMSPACE_USER
	cpu.SavedUSP = MEMSPACE_DEVICES

	cpu.Instructions = 0
	cpu.prompting = false
}

func (cpu *CPU) push(value uint16) {
	cpu.Registers[REG_STACK]--
	cpu.Memory.Write(cpu.Registers[REG_STACK], value)
}

func (cpu *CPU) pop() uint16 {
	result := cpu.Memory.Read(cpu.Registers[REG_STACK])
	cpu.Registers[REG_STACK]++
	return result
}

// setPrivilege switches between supervisor (privileged) and user mode,
// swapping R6 with the saved stack pointer of the other mode.
func (cpu *CPU) setPrivilege(privileged bool) {
	if privileged != cpu.getPrivilege() {
		if privileged {
			cpu.SavedUSP = cpu.Registers[REG_STACK]
			cpu.Registers[REG_STACK] = cpu.SavedSSP
		} else {
			cpu.SavedSSP = cpu.Registers[REG_STACK]
			cpu.Registers[REG_STACK] = cpu.SavedUSP
		}
	}

	if privileged {
		cpu.PSR &^= PSR_USER
	} else {
		cpu.PSR |= PSR_USER
	}
}

func (cpu *CPU) getPrivilege() bool {
	return cpu.PSR&PSR_USER == 0
}

func (cpu *CPU) setPriority(value uint16) {
	cpu.PSR &^= PSR_PRIORITY
	cpu.PSR |= (value & 0x7) << 8
}

func (cpu *CPU) getPriority() uint16 {
	return (cpu.PSR >> 8) & 0x7
}

func (cpu *CPU) raiseException(vector uint16, priority uint16) {
	psr := cpu.PSR

	cpu.setPrivilege(true)
	cpu.push(psr)
	cpu.push(cpu.PC)
	cpu.setPriority(priority)
	cpu.PC = cpu.Memory.Read(MEMSPACE_INT_TABLE | vector)
}

// Interrupt delivers an interrupt if priority is above the running
// priority. It is only called between instructions.
func (cpu *CPU) Interrupt(vector, priority uint16) bool {
	if priority <= cpu.getPriority() {
		return false
	}

	cpu.raiseException(vector, priority)
	return true
}

// Exception vectors unconditionally, keeping the running priority.
func (cpu *CPU) Exception(vector uint16) {
	cpu.raiseException(vector, cpu.getPriority())
}

func (cpu *CPU) setFlags(value uint16) {
	// Reset condition flags, but preserve privilege and priority bits
	cpu.PSR &^= PSR_FLAGS

	if value == 0 {
		cpu.PSR |= FLAG_ZERO
	} else if value>>15 == 1 {
		cpu.PSR |= FLAG_NEG
	} else {
		cpu.PSR |= FLAG_POS
	}
}

// Cycle fetches, decodes and executes exactly one instruction.
func (cpu *CPU) Cycle() {
	in := Decode(cpu.Memory.Fetch(cpu.PC))
	regs := &cpu.Registers

	cpu.PC++
	cpu.Instructions++

	switch in.Opcode {
	case OP_ADD:
		if in.Imm {
			regs[in.DR] = regs[in.SR1] + in.Imm5
		} else {
			regs[in.DR] = regs[in.SR1] + regs[in.SR2]
		}

		cpu.setFlags(regs[in.DR])

	case OP_AND:
		if in.Imm {
			regs[in.DR] = regs[in.SR1] & in.Imm5
		} else {
			regs[in.DR] = regs[in.SR1] & regs[in.SR2]
		}

		cpu.setFlags(regs[in.DR])

	case OP_BR:
		if in.NZP&(cpu.PSR&PSR_FLAGS) != 0 {
			cpu.PC += in.Offset
		}

	case OP_JMP:
		cpu.PC = regs[in.SR1]

	case OP_JSR:
		// BaseR is read before R7 is written so JSRR R7 works
		target := regs[in.SR1]

		if in.Imm {
			target = cpu.PC + in.Offset
		}

		regs[REG_RETURN] = cpu.PC
		cpu.PC = target

	case OP_LD:
		regs[in.DR] = cpu.Memory.Read(cpu.PC + in.Offset)

		cpu.setFlags(regs[in.DR])

	case OP_LDI:
		regs[in.DR] = cpu.Memory.Read(cpu.Memory.Read(cpu.PC + in.Offset))

		cpu.setFlags(regs[in.DR])

	case OP_LDR:
		regs[in.DR] = cpu.Memory.Read(regs[in.SR1] + in.Offset)

		cpu.setFlags(regs[in.DR])

	case OP_LEA:
		regs[in.DR] = cpu.PC + in.Offset

		cpu.setFlags(regs[in.DR])

	case OP_NOT:
		regs[in.DR] = ^regs[in.SR1]

		cpu.setFlags(regs[in.DR])

	case OP_RTI:
		if !cpu.getPrivilege() {
			cpu.Exception(VEC_PRIVILEGE)
			break
		}

		cpu.PC = cpu.pop()
		psr := cpu.pop()

		// Restore in supervisor mode first so setPrivilege swaps the
		// stacks when returning to user mode
		cpu.PSR = psr &^ PSR_USER
		cpu.setPrivilege(psr&PSR_USER == 0)

	case OP_ST:
		cpu.Memory.Write(cpu.PC+in.Offset, regs[in.DR])

	case OP_STI:
		cpu.Memory.Write(cpu.Memory.Read(cpu.PC+in.Offset), regs[in.DR])

	case OP_STR:
		cpu.Memory.Write(regs[in.SR1]+in.Offset, regs[in.DR])

	case OP_TRAP:
		regs[REG_RETURN] = cpu.PC
		handler := cpu.Memory.Read(MEMSPACE_TRAP_TABLE | in.Vector)

		if handler == 0 && cpu.nativeTrap(in.Vector) {
			break
		}

		cpu.PC = handler

	default:
		// 0x01 Illegal Opcode Vector -> 0x0101 Interrupt Addr
		cpu.Exception(VEC_ILLEGAL)
	}
}
