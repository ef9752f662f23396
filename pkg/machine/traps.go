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

const (
	PROMPT_IN   = "Input a character> "
	HALT_NOTICE = "\n--- halting the LC-3 ---\n"
)

// nativeTrap services the standard trap routines when no operating system
// is loaded (the trap table entry is zero). Routines that wait for a key
// leave PC on the TRAP so the instruction is retried on the next cycle.
func (cpu *CPU) nativeTrap(vector uint16) bool {
	regs := &cpu.Registers
	mem := cpu.Memory

	putc := func(c uint16) {
		mem.Poke(DEV_DDR, c&0xFF)
	}

	puts := func(s string) {
		for i := 0; i < len(s); i++ {
			putc(uint16(s[i]))
		}
	}

	getc := func() (uint16, bool) {
		if mem.Fetch(DEV_KBSR)&DEV_READY == 0 {
			return 0, false
		}

		return mem.Fetch(DEV_KBDR) & 0xFF, true
	}

	switch vector {
	case TRAP_GETC:
		key, ok := getc()

		if !ok {
			cpu.PC--
			break
		}

		regs[0] = key

	case TRAP_OUT:
		putc(regs[0])

	case TRAP_PUTS:
		for addr := regs[0]; mem.Read(addr) != 0; addr++ {
			putc(mem.Read(addr))
		}

	case TRAP_IN:
		if !cpu.prompting {
			puts(PROMPT_IN)
			cpu.prompting = true
		}

		key, ok := getc()

		if !ok {
			cpu.PC--
			break
		}

		regs[0] = key
		putc(key)
		cpu.prompting = false

	case TRAP_PUTSP:
		for addr := regs[0]; ; addr++ {
			word := mem.Read(addr)

			if word&0xFF == 0 {
				break
			}

			putc(word)

			if word>>8 == 0 {
				break
			}

			putc(word >> 8)
		}

	case TRAP_HALT:
		puts(HALT_NOTICE)
		mem.Poke(DEV_MCR, mem.Fetch(DEV_MCR)&^MCR_RUN)
		cpu.PC--

	default:
		return false
	}

	return true
}
