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
	"io"
)

// Device is a word-sized register bound to one address. While mapped it
// replaces the memory cell at that address for reads and writes.
type Device interface {
	Read() uint16
	Write(value uint16)
	Tick()
}

// Peeker is implemented by devices whose Read has side effects. Peek returns
// the value a Read would return without causing them.
type Peeker interface {
	Peek() uint16
}

// Observer sees every data access the CPU makes. Instruction fetches and
// debugger accesses are not observed.
type Observer interface {
	ObserveRead(addr, value uint16)
	ObserveWrite(addr, old, value uint16)
}

// Input is a non-blocking byte source for the keyboard. Ready must never
// block.
type Input interface {
	Ready() bool
	ReadByte() (byte, error)
}

// Interrupter accepts interrupt requests from devices.
type Interrupter interface {
	Interrupt(vector, priority uint16) bool
}

type Machine struct {
	CPU     CPU
	Memory  Memory
	Devices DeviceBank
}

// NewMachine builds a machine with its device bank mapped and wired to the
// given console.
func NewMachine(input Input, output io.Writer) *Machine {
	var mc Machine

	mc.CPU.Memory = &mc.Memory
	mc.Devices.init(&mc.Memory, &mc.CPU)
	mc.Devices.SetInput(input)
	mc.Devices.SetOutput(output)
	mc.Reset()

	return &mc
}
