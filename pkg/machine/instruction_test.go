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

package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lassandro/lc3db/pkg/machine"
)

func TestDisassemble(t *testing.T) {
	labels := func(addr uint16) (string, bool) {
		if addr == 0x3010 {
			return "LOOP", true
		}

		return "", false
	}

	tests := []struct {
		Word uint16
		Want string
	}{
		{0b0001_000_001_000_010, "ADD R0, R1, R2"},
		{0b0001_000_001_1_11111, "ADD R0, R1, #-1"},
		{0b0101_011_011_1_00000, "AND R3, R3, #0"},
		{0b0000_000_000000000, "NOP"},
		{0b0000_111_000001111, "BR LOOP"},
		{0b0000_101_000000001, "BRnp x3002"},
		{0b1100_000_111_000000, "RET"},
		{0b1100_000_010_000000, "JMP R2"},
		{0b0100_1_00000001111, "JSR LOOP"},
		{0b0100_0_00_100_000000, "JSRR R4"},
		{0b0010_001_000001111, "LD R1, LOOP"},
		{0b1110_000_000000001, "LEA R0, x3002"},
		{0b0110_010_101_111110, "LDR R2, R5, #-2"},
		{0b0111_010_110_000001, "STR R2, R6, #1"},
		{0b1001_000_001_111111, "NOT R0, R1"},
		{0b1000_000000000000, "RTI"},
		{0xF025, "HALT"},
		{0xF030, "TRAP x30"},
		{0xD000, "RESERVED xD000"},
	}

	for _, test := range tests {
		have := machine.Decode(test.Word).Disassemble(0x3000, labels)
		assert.Equalf(t, test.Want, have, "word %#04x", test.Word)
	}
}

func TestInstructionClass(t *testing.T) {
	assert.True(t, machine.Decode(0x4800).IsCall())
	assert.True(t, machine.Decode(0xF020).IsCall())
	assert.False(t, machine.Decode(0xC080).IsCall())

	assert.True(t, machine.Decode(0xC1C0).IsReturn())
	assert.True(t, machine.Decode(0x8000).IsReturn())
	assert.False(t, machine.Decode(0xC080).IsReturn())

	assert.Equal(t, "ADD R0, R1, #1", machine.Decode(0x1061).String())
}
