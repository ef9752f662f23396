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
	"bytes"
	"testing"

	"github.com/lassandro/lc3db/pkg/machine"
)

type testMachineState struct {
	Registers [8]uint16
	Program   uint16
	User      bool
	Priority  uint16
	Condition uint16
	Memory    map[uint16]uint16

	// Zero means "leave as reset" on input and "don't care" on output
	SavedUSP uint16
	SavedSSP uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Keyboard string
	Display  string
	Running  *bool
	Input    testMachineState
	Output   testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Priority > 0x7 {
		panic("Priority must be 0x7 or lower")
	}

	if test.Input.Condition > 0x7 {
		panic("Condition must be 0x7 or lower")
	}

	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	var displayBuf bytes.Buffer

	mc := machine.NewMachine(machine.NewByteInput(test.Keyboard), &displayBuf)
	mc.SetRunning(true)

	mc.CPU.Registers = test.Input.Registers
	mc.CPU.PC = test.Input.Program

	if test.Input.SavedUSP != 0 {
		mc.CPU.SavedUSP = test.Input.SavedUSP
	}

	if test.Input.SavedSSP != 0 {
		mc.CPU.SavedSSP = test.Input.SavedSSP
	}

	mc.CPU.PSR = 0

	if test.Input.User {
		mc.CPU.PSR |= machine.PSR_USER
	}

	mc.CPU.PSR |= test.Input.Priority << 8
	mc.CPU.PSR |= test.Input.Condition

	for addr, value := range test.Input.Memory {
		mc.Memory.Cells[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		mc.Step()
	}

	for i := 0; i < 8; i++ {
		want := test.Output.Registers[i]
		have := mc.CPU.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#04x (test.Output.Registers[%d])\nhave:%#04x",
				want,
				i,
				have,
			)
		}
	}

	if mc.CPU.PC != test.Output.Program {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.CPU.PC,
		)
	}

	if user := mc.CPU.PSR&machine.PSR_USER != 0; user != test.Output.User {
		t.Errorf(
			"Privilege level mismatch"+
				"\nwant user mode:%v (test.Output.User)\nhave user mode:%v",
			test.Output.User,
			user,
		)
	}

	if have := (mc.CPU.PSR >> 8) & 0x7; have != test.Output.Priority {
		t.Errorf(
			"Priority level mismatch"+
				"\nwant:%#01x (test.Output.Priority)\nhave:%#01x",
			test.Output.Priority,
			have,
		)
	}

	if have := mc.CPU.PSR & 0x7; have != test.Output.Condition {
		t.Errorf(
			"Condition flag mismatch"+
				"\nwant:%#03b (test.Output.Condition)\nhave:%#03b",
			test.Output.Condition,
			have,
		)
	}

	if want := test.Output.SavedUSP; want != 0 && mc.CPU.SavedUSP != want {
		t.Errorf(
			"Saved user stack mismatch"+
				"\nwant:%#04x (test.Output.SavedUSP)\nhave:%#04x",
			want,
			mc.CPU.SavedUSP,
		)
	}

	if want := test.Output.SavedSSP; want != 0 && mc.CPU.SavedSSP != want {
		t.Errorf(
			"Saved supervisor stack mismatch"+
				"\nwant:%#04x (test.Output.SavedSSP)\nhave:%#04x",
			want,
			mc.CPU.SavedSSP,
		)
	}

	for i, value := range mc.Memory.Cells {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					i,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					i,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain unitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#02x",
				i,
				value,
			)
		}
	}

	if have := displayBuf.String(); have != test.Display {
		t.Errorf(
			"Display output mismatch"+
				"\nwant:%q (test.Display)\nhave:%q",
			test.Display,
			have,
		)
	}

	if test.Running != nil && mc.Running() != *test.Running {
		t.Errorf(
			"Run state mismatch"+
				"\nwant:%v (test.Running)\nhave:%v",
			*test.Running,
			mc.Running(),
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

var stopped = false

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD SR2 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0x8002, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
			},
		},
		{
			Name: "ADD Overflow SR2 Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xFFFF, // SR1
					2: 0x0001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0xFFFF, // SR1
					2: 0x0001, // SR2
				},
			},
		},
		{
			Name: "ADD imm5 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_1_11101,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0xFFFE, // DR
					1: 0x0001, // SR1
				},
			},
		},
		{
			Name: "ADD imm5 Positive",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_1_00010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 0x0003, // DR
					1: 0x0001, // SR1
				},
			},
		},
	})
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND SR2 High Register",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xFF0F, // SR1
					5: 0x80F1, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_000_101,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0x8001, // DR
					1: 0xFF0F, // SR1
					5: 0x80F1, // SR2
				},
			},
		},
		{
			Name: "AND imm5 Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_000_1_00000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
			},
		},
		{
			Name: "AND imm5 Sign Extended",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x8123, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_1_10000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0x8120, // DR
					1: 0x8123, // SR1
				},
			},
		},
	})
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBranch(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "BRn Taken",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b100,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_100_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3005,
				Condition: 0b100,
			},
		},
		{
			Name: "BRzp Not Taken",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b100,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_011_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
			},
		},
		{
			Name: "BR Backwards",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b001,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_111_111111111,
				},
			},
			Output: testMachineState{
				Program:   0x3000,
				Condition: 0b001,
			},
		},
		{
			Name: "NOP",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b010,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_000_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
			},
		},
	})
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// RET  |1100    |000  |111  |000000      | Return from subroutine
// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JMP",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_010_000000,
				},
			},
			Output: testMachineState{
				Program: 0x4000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x3456, // R7
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x3456,
				Registers: [8]uint16{
					7: 0x3456, // R7
				},
			},
		},
		{
			Name: "JSR Forward",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_00000010000,
				},
			},
			Output: testMachineState{
				Program: 0x3011,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
		{
			Name: "JSRR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_011_000000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
					7: 0x3001, // R7
				},
			},
		},
		{
			Name: "JSRR R7",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
	})
}

// LD   |0010    |DR   |PCoffset9         | Load
// LDI  |1010    |DR   |PCoffset9         | Load indirect
// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0010_001_000000010,
					0x3003: 0x8000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					1: 0x8000, // DR
				},
			},
		},
		{
			Name: "LDI",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1010_001_111111110,
					0x2FFF: 0x4000,
					0x4000: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					1: 0x0042, // DR
				},
			},
		},
		{
			Name: "LDR Negative Offset",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					5: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0110_001_101_111111,
					0x3FFF: 0x0000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					1: 0x0000, // DR
					5: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "LEA Sets Flags",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1110_100_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					4: 0x3005, // DR
				},
			},
		},
		{
			Name:     "LDI Keyboard",
			Keyboard: "q",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1010_000_000000000,
					0x3001: machine.DEV_KBDR,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b001,
				Registers: [8]uint16{
					0: 'q', // DR
				},
			},
		},
	})
}

// NOT  |1001    |DR   |SR   |111111      | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestNot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "NOT",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x00FF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_001_111111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b100,
				Registers: [8]uint16{
					0: 0xFF00, // DR
					1: 0x00FF, // SR
				},
			},
		},
		{
			Name: "NOT Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xFFFF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_000_111111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
			},
		},
	})
}

// ST   |0011    |SR   |PCoffset9         | Store
// STI  |1011    |SR   |PCoffset9         | Store indirect
// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestStore(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ST",
			Input: testMachineState{
				Program:   0x3000,
				Condition: 0b010,
				Registers: [8]uint16{
					2: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0011_010_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: 0b010,
				Registers: [8]uint16{
					2: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3005: 0xBEEF,
				},
			},
		},
		{
			Name: "STI",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					2: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_010_000000000,
					0x3001: 0x4000,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					2: 0x1234, // SR
				},
				Memory: map[uint16]uint16{
					0x4000: 0x1234,
				},
			},
		},
		{
			Name: "STR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					2: 0x1234, // SR
					6: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0111_010_110_000011,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					2: 0x1234, // SR
					6: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x4003: 0x1234,
				},
			},
		},
		{
			Name:    "STI Display",
			Display: "A",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 'A', // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_000_000000000,
					0x3001: machine.DEV_DDR,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 'A', // SR
				},
			},
		},
	})
}

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestTrap(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "TRAP Table",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1111_0000_00100101,
					0x0025: 0x0400,
				},
			},
			Output: testMachineState{
				Program: 0x0400,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:    "OUT",
			Display: "Z",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 'Z',
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF021,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 'Z',
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:    "PUTS",
			Display: "hi",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF022,
					0x4000: 'h',
					0x4001: 'i',
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:    "PUTSP",
			Display: "abc",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF024,
					0x4000: 'b'<<8 | 'a',
					0x4001: 'c',
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:     "GETC",
			Keyboard: "k",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF020,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 'k',
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:  "GETC Waits",
			Steps: 3,
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF020,
				},
			},
			Output: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:     "IN",
			Keyboard: "y",
			Display:  machine.PROMPT_IN + "y",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF023,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 'y',
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:    "IN Prompts Once",
			Steps:   4,
			Display: machine.PROMPT_IN,
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF023,
				},
			},
			Output: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
		{
			Name:    "HALT",
			Display: machine.HALT_NOTICE,
			Running: &stopped,
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF025,
				},
			},
			Output: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x3001, // R7
				},
			},
		},
	})
}

// RTI  |1000    |000000000000            | Return from interrupt
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestException(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "RTI To User Mode",
			Input: testMachineState{
				Program:  0x0500,
				Priority: 4,
				SavedUSP: 0xF000,
				Registers: [8]uint16{
					6: 0x2FFE, // SSP
				},
				Memory: map[uint16]uint16{
					0x0500: 0b1000_000000000000,
					0x2FFE: 0x3010,
					0x2FFF: machine.PSR_USER | 0b001,
				},
			},
			Output: testMachineState{
				Program:   0x3010,
				User:      true,
				Condition: 0b001,
				SavedSSP:  0x3000,
				Registers: [8]uint16{
					6: 0xF000, // USP
				},
			},
		},
		{
			Name: "RTI In User Mode",
			Input: testMachineState{
				Program:   0x3000,
				User:      true,
				Condition: 0b010,
				SavedSSP:  0x3000,
				Registers: [8]uint16{
					6: 0xF000, // USP
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1000_000000000000,
					0x0100: 0x1000,
				},
			},
			Output: testMachineState{
				Program:   0x1000,
				Condition: 0b010,
				SavedUSP:  0xF000,
				Registers: [8]uint16{
					6: 0x2FFE, // SSP
				},
				Memory: map[uint16]uint16{
					0x2FFE: 0x3001,
					0x2FFF: machine.PSR_USER | 0b010,
				},
			},
		},
		{
			Name: "Reserved Opcode",
			Input: testMachineState{
				Program:  0x3000,
				Priority: 2,
				Registers: [8]uint16{
					6: 0x3000, // SSP
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1101_000000000000,
					0x0101: 0x1100,
				},
			},
			Output: testMachineState{
				Program:  0x1100,
				Priority: 2,
				Registers: [8]uint16{
					6: 0x2FFE, // SSP
				},
				Memory: map[uint16]uint16{
					0x2FFE: 0x3001,
					0x2FFF: 0x0200,
				},
			},
		},
	})
}

func TestInterrupt(t *testing.T) {
	mc := machine.NewMachine(nil, nil)
	mc.CPU.PSR = machine.PSR_USER | 3<<8 | machine.FLAG_POS
	mc.CPU.PC = 0x3000
	mc.CPU.Registers[6] = 0xF000
	mc.Memory.Poke(0x0180, 0x1200)

	if mc.CPU.Interrupt(machine.VEC_KEYBOARD, 2) {
		t.Fatal("Interrupt accepted below running priority")
	}

	if !mc.CPU.Interrupt(machine.VEC_KEYBOARD, 4) {
		t.Fatal("Interrupt refused above running priority")
	}

	if mc.CPU.PC != 0x1200 {
		t.Errorf("Program counter mismatch\nwant:0x1200\nhave:%#04x", mc.CPU.PC)
	}

	if want := uint16(4<<8 | machine.FLAG_POS); mc.CPU.PSR != want {
		t.Errorf("PSR mismatch\nwant:%#04x\nhave:%#04x", want, mc.CPU.PSR)
	}

	if mc.CPU.SavedUSP != 0xF000 {
		t.Errorf("Saved USP mismatch\nwant:0xf000\nhave:%#04x", mc.CPU.SavedUSP)
	}

	if have := mc.Memory.Peek(0x2FFF); have != machine.PSR_USER|3<<8|machine.FLAG_POS {
		t.Errorf("Pushed PSR mismatch\nhave:%#04x", have)
	}

	if have := mc.Memory.Peek(0x2FFE); have != 0x3000 {
		t.Errorf("Pushed PC mismatch\nwant:0x3000\nhave:%#04x", have)
	}
}
