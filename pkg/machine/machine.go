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

// Reset clears memory and registers. Device state (clock, control register,
// console bindings) is kept.
func (mc *Machine) Reset() {
	mc.Memory.Clear()
	mc.CPU.Reset()
}

// Step executes one instruction and then ticks every device, so device
// interrupts land between instructions.
func (mc *Machine) Step() {
	mc.CPU.Cycle()
	mc.Memory.Tick()
}

// Running reports the MCR clock enable bit.
func (mc *Machine) Running() bool {
	return mc.Devices.Control.Value&MCR_RUN != 0
}

func (mc *Machine) SetRunning(running bool) {
	if running {
		mc.Devices.Control.Value |= MCR_RUN
	} else {
		mc.Devices.Control.Value &^= MCR_RUN
	}
}

// LoadFile places an object file in memory and returns its origin.
func (mc *Machine) LoadFile(path string) (uint16, error) {
	return mc.Memory.LoadFile(path)
}
