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

package debugger_test

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3db/pkg/debugger"
	"github.com/lassandro/lc3db/pkg/machine"
)

// A counting loop around a subroutine call:
//
//	3000 start  LD R6, STACK
//	3001 main   AND R0, R0, #0
//	3002        ADD R0, R0, #3
//	3003 loop   ST R0, VAR
//	3004        JSR sub
//	3005        ADD R0, R0, #-1
//	3006        BRp loop
//	3007        HALT
//	300A sub    ADD R1, R1, #1
//	300B        ADD R1, R1, #1
//	300C        RET
//	300E STACK  .FILL xF000
//	300F VAR    .FILL #0
var loopProgram = []uint16{
	0x2C0D, 0x5020, 0x1023, 0x300B, 0x4805, 0x103F, 0x03FC, 0xF025,
	0x0000, 0x0000, 0x1261, 0x1261, 0xC1C0, 0x0000, 0xF000, 0x0000,
}

const loopDebug = `#0:{dir}/loop.asm
!3000:start
!3001:main
!3003:loop
!300A:sub
!300E:STACK
!300F:VAR
@0:1:3000:3000
@0:2:3001:3001
@0:3:3002:3002
@0:4:3003:3003
`

// The compiled form of prog.c, with frames laid out the way lcc does it.
var callProgram = []uint16{
	// main
	0x2C10, 0x1BBF, 0x1DBF,
	0x5020, 0x1023, 0x7140,
	0x6140, 0x1DBF, 0x7180, 0x4808, 0x6180, 0x1DA2, 0x7140,
	0x6140, 0x1021, 0x7140,
	0xF025,
	0xF000,
	// square
	0x1DBF, 0x1DBF, 0x7F80, 0x1DBF, 0x7B80, 0x1BBF,
	0x6144, 0x1000, 0x7143,
	0x1D61, 0x6B80, 0x1DA1, 0x6F80, 0x1DA1, 0xC1C0,
}

const callSource = `int square(int n)
{
    return n + n;
}

int main()
{
    int x;
    x = 3;
    x = square(x);
    x = x + 1;
    return x;
}
`

const callDebug = `#0:{dir}/prog.asm
#1:{dir}/prog.c
!3000:main
!3011:STK
!3012:square
@1:7:3000:3002
@1:9:3003:3005
@1:10:3006:300C
@1:11:300D:300F
@1:12:3010:3010
@1:2:3012:3017
@1:3:3018:301A
@1:4:301B:3020
T1=int
SF:1:main:main
SF:1:square:square
B S:main:0:3000
Sl:1:x:0
B E:main:0:3010
B S:square:0:3012
Sp:1:n:4
B E:square:0:3020
`

type testSession struct {
	*debugger.Session

	Dir     string
	Out     *bytes.Buffer
	Display *bytes.Buffer
	Logs    *bytes.Buffer
}

func writeObject(t *testing.T, path string, origin uint16, words []uint16) {
	t.Helper()

	data := make([]byte, 2+2*len(words))
	binary.BigEndian.PutUint16(data, origin)

	for i, word := range words {
		binary.BigEndian.PutUint16(data[2+2*i:], word)
	}

	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// newTestSession writes name.obj (and name.dbg and extra files when given)
// to a temporary directory and loads it into a fresh session.
func newTestSession(
	t *testing.T,
	name string,
	words []uint16,
	debug string,
	files map[string]string,
) *testSession {
	t.Helper()

	ts := &testSession{
		Dir:     t.TempDir(),
		Out:     &bytes.Buffer{},
		Display: &bytes.Buffer{},
		Logs:    &bytes.Buffer{},
	}

	for file, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(ts.Dir, file), []byte(text), 0o644))
	}

	if debug != "" {
		debug = strings.ReplaceAll(debug, "{dir}", ts.Dir)
		require.NoError(t, os.WriteFile(filepath.Join(ts.Dir, name+".dbg"), []byte(debug), 0o644))
	}

	obj := filepath.Join(ts.Dir, name+".obj")
	writeObject(t, obj, 0x3000, words)

	mc := machine.NewMachine(machine.NewByteInput(""), ts.Display)
	ts.Session = debugger.NewSession(mc, ts.Out, debugger.Config{})
	ts.Session.Log = log.New(ts.Logs, "", 0)

	require.NoError(t, ts.Load(obj))
	require.Empty(t, ts.Logs.String())
	ts.Out.Reset()

	return ts
}

// exec runs commands, failing the test on any error, and returns what they
// printed.
func (ts *testSession) exec(t *testing.T, lines ...string) string {
	t.Helper()

	ts.Out.Reset()

	for _, line := range lines {
		require.NoError(t, ts.Execute(line), line)
	}

	return ts.Out.String()
}

func (ts *testSession) pc() uint16 {
	return ts.Machine.CPU.PC
}
