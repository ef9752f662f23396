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

// DeviceBank owns the memory-mapped devices. Swapping the console with
// SetInput/SetOutput keeps every counter and control bit.
type DeviceBank struct {
	Keyboard Keyboard
	Display  Display
	Clock    Clock
	Control  Control
}

func (dh *DeviceBank) init(mem *Memory, cpu Interrupter) {
	dh.Keyboard.cpu = cpu
	dh.Control.clock = &dh.Clock
	dh.Control.cpu = cpu
	dh.Control.Value = MCR_INITIAL

	mem.Map(DEV_KBSR, keyboardStatus{&dh.Keyboard})
	mem.Map(DEV_KBDR, keyboardData{&dh.Keyboard})
	mem.Map(DEV_DSR, displayStatus{&dh.Display})
	mem.Map(DEV_DDR, displayData{&dh.Display})
	// The clock is mapped first so the control register compares against
	// the count of the current tick.
	mem.Map(DEV_CCR, &dh.Clock)
	mem.Map(DEV_MCR, &dh.Control)
}

func (dh *DeviceBank) SetInput(input Input) {
	dh.Keyboard.Input = input
}

func (dh *DeviceBank) SetOutput(output io.Writer) {
	dh.Display.Output = output
	dh.Display.Err = nil
}

// Keyboard backs KBSR and KBDR.
type Keyboard struct {
	Input Input

	last    byte
	enabled bool
	cpu     Interrupter
}

func (kb *Keyboard) ready() bool {
	return kb.Input != nil && kb.Input.Ready()
}

// KBSR |R|I|00000000000000|
type keyboardStatus struct {
	kb *Keyboard
}

func (dev keyboardStatus) Read() uint16 {
	var value uint16

	if dev.kb.ready() {
		value |= DEV_READY
	}

	if dev.kb.enabled {
		value |= DEV_INTERRUPT_ENABLE
	}

	return value
}

// Only the interrupt enable bit is writable.
func (dev keyboardStatus) Write(value uint16) {
	dev.kb.enabled = value&DEV_INTERRUPT_ENABLE != 0
}

func (dev keyboardStatus) Tick() {
	if dev.kb.enabled && dev.kb.ready() {
		dev.kb.cpu.Interrupt(VEC_KEYBOARD, PRIORITY_KEYBOARD)
	}
}

// KBDR holds the last byte read; reading consumes one byte if available.
type keyboardData struct {
	kb *Keyboard
}

func (dev keyboardData) Read() uint16 {
	if dev.kb.ready() {
		if key, err := dev.kb.Input.ReadByte(); err == nil {
			dev.kb.last = key
		}
	}

	return uint16(dev.kb.last)
}

func (dev keyboardData) Peek() uint16 {
	return uint16(dev.kb.last)
}

func (dev keyboardData) Write(value uint16) {}

func (dev keyboardData) Tick() {}

// Display backs DSR and DDR. Output is unbuffered: each DDR write is one
// Write call. The first output error is kept in Err.
type Display struct {
	Output io.Writer
	Err    error
}

type displayStatus struct {
	display *Display
}

func (dev displayStatus) Read() uint16 {
	return DEV_READY
}

func (dev displayStatus) Write(value uint16) {}

func (dev displayStatus) Tick() {}

type displayData struct {
	display *Display
}

func (dev displayData) Read() uint16 {
	return 0
}

func (dev displayData) Write(value uint16) {
	if dev.display.Output == nil {
		return
	}

	_, err := dev.display.Output.Write([]byte{byte(value & 0xFF)})

	if err != nil && dev.display.Err == nil {
		dev.display.Err = err
	}
}

func (dev displayData) Tick() {}

// Clock is the cycle counter at CCR, advanced once per tick.
type Clock struct {
	Count uint16
}

func (clock *Clock) Read() uint16 {
	return clock.Count
}

func (clock *Clock) Write(value uint16) {
	clock.Count = value
}

func (clock *Clock) Tick() {
	clock.Count++
}

// MCR |RUN|TIMER|limit (14 bits)|
type Control struct {
	Value uint16

	clock *Clock
	cpu   Interrupter
}

func (mcr *Control) Read() uint16 {
	return mcr.Value
}

func (mcr *Control) Write(value uint16) {
	mcr.Value = value
}

func (mcr *Control) Tick() {
	if mcr.Value&MCR_TIMER != 0 && mcr.clock.Count >= mcr.Value&MCR_LIMIT {
		mcr.cpu.Interrupt(VEC_TIMER, PRIORITY_TIMER)
	}
}
