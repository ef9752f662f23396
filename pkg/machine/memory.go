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
	"encoding/binary"
	"io"
	"os"
)

// Memory is the flat 64K word store. Addresses are uint16 so every index is
// already masked to the address space.
type Memory struct {
	Cells    [MEMORY_SIZE]uint16
	Observer Observer

	devices map[uint16]Device
	ticks   []Device
}

// Map binds dev to addr. Each address takes at most one device.
func (mem *Memory) Map(addr uint16, dev Device) error {
	if mem.devices == nil {
		mem.devices = make(map[uint16]Device)
	}

	if _, exists := mem.devices[addr]; exists {
		return ErrAddressMapped
	}

	mem.devices[addr] = dev
	mem.ticks = append(mem.ticks, dev)
	return nil
}

// Device returns the device mapped at addr, if any.
func (mem *Memory) Device(addr uint16) (Device, bool) {
	dev, ok := mem.devices[addr]
	return dev, ok
}

func (mem *Memory) Read(addr uint16) uint16 {
	value := mem.Fetch(addr)

	if mem.Observer != nil {
		mem.Observer.ObserveRead(addr, value)
	}

	return value
}

func (mem *Memory) Write(addr uint16, value uint16) {
	if mem.Observer != nil {
		old := mem.Peek(addr)
		mem.Poke(addr, value)
		mem.Observer.ObserveWrite(addr, old, value)
		return
	}

	mem.Poke(addr, value)
}

// Fetch reads a word for instruction fetch: devices respond, observers do
// not see it.
func (mem *Memory) Fetch(addr uint16) uint16 {
	if dev, ok := mem.devices[addr]; ok {
		return dev.Read()
	}

	return mem.Cells[addr]
}

// Peek reads a word without side effects.
func (mem *Memory) Peek(addr uint16) uint16 {
	if dev, ok := mem.devices[addr]; ok {
		if peeker, ok := dev.(Peeker); ok {
			return peeker.Peek()
		}

		return dev.Read()
	}

	return mem.Cells[addr]
}

// Poke writes a word without notifying the observer.
func (mem *Memory) Poke(addr uint16, value uint16) {
	if dev, ok := mem.devices[addr]; ok {
		dev.Write(value)
		return
	}

	mem.Cells[addr] = value
}

// Tick advances every mapped device once, in mapping order.
func (mem *Memory) Tick() {
	for _, dev := range mem.ticks {
		dev.Tick()
	}
}

func (mem *Memory) Clear() {
	for i := range mem.Cells {
		mem.Cells[i] = 0x0000
	}
}

// Load reads an object image: a big-endian origin word followed by the
// big-endian words to place contiguously from the origin. The whole image is
// validated before memory is touched.
func (mem *Memory) Load(reader io.Reader) (uint16, error) {
	data, err := io.ReadAll(reader)

	if err != nil {
		return 0, &LoadError{Err: err}
	}

	if len(data) < 2 {
		return 0, &LoadError{Err: ErrTooShort}
	}

	if len(data)%2 != 0 {
		return 0, &LoadError{Err: ErrOddSize}
	}

	origin := binary.BigEndian.Uint16(data)
	data = data[2:]

	if int(origin)+len(data)/2 > MEMORY_SIZE {
		return 0, &LoadError{Err: ErrTooLarge}
	}

	for i := 0; i < len(data); i += 2 {
		mem.Cells[int(origin)+i/2] = binary.BigEndian.Uint16(data[i:])
	}

	return origin, nil
}

func (mem *Memory) LoadFile(path string) (uint16, error) {
	file, err := os.Open(path)

	if err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	defer file.Close()

	origin, err := mem.Load(file)

	if lerr, ok := err.(*LoadError); ok {
		lerr.Path = path
	}

	return origin, err
}
